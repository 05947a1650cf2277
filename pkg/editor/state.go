// Package editor holds interactive cover editing sessions.
//
// A Session owns the current source image and the mutable editor state,
// persists the durable subset of that state through a prefs.Store, and
// serialises renders so that only the newest request produces a result.
package editor

import (
	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/prefs"
)

// Keyboard-style adjustment steps.
const (
	NudgeStep      = 1.0  // output px
	NudgeStepLarge = 10.0 // output px, with shift
	ZoomStep       = 0.1
)

// State is everything the editor shows except the image itself.
type State struct {
	Mode         cover.Mode           `json:"mode"`
	Background   cover.Background     `json:"background"`
	Transform    cover.Transform      `json:"transform"`
	Tile         cover.Transform      `json:"tile"`
	Text         cover.TextOverlay    `json:"text"`
	Output       cover.OutputSettings `json:"output"`
	ShowSafeZone bool                 `json:"showSafeZone"`
}

// Patch is a partial State update. Nil fields are left unchanged.
type Patch struct {
	cover.RequestPatch
	ShowSafeZone *bool `json:"showSafeZone,omitempty"`
}

// DefaultState returns the state of a fresh editor.
func DefaultState() State {
	return stateFromRequest(cover.DefaultRequest(), false)
}

// Request builds a render request for img from s.
func (s State) Request(img *cover.RasterImage) cover.RenderRequest {
	return cover.RenderRequest{
		Image:      img,
		Mode:       s.Mode,
		Background: s.Background,
		Transform:  s.Transform,
		Tile:       s.Tile,
		Text:       s.Text,
		Output:     s.Output,
	}
}

// Preferences returns the persisted subset of s.
func (s State) Preferences() prefs.Preferences {
	return prefs.FromRequest(s.Request(nil), s.ShowSafeZone)
}

// Apply merges p into s.
func (s *State) Apply(p Patch) {
	req := s.Request(nil)
	req.Merge(p.RequestPatch)
	show := s.ShowSafeZone
	if p.ShowSafeZone != nil {
		show = *p.ShowSafeZone
	}
	*s = stateFromRequest(req, show)
}

// withPreferences returns s with the persisted fields replaced by p.
func (s State) withPreferences(p prefs.Preferences) State {
	req := s.Request(nil)
	p.ApplyTo(&req)
	return stateFromRequest(req, p.ShowSafeZone)
}

// Active returns the transform edited in the current mode.
func (s *State) Active() *cover.Transform {
	if s.Mode == cover.ModeTile {
		return &s.Tile
	}
	return &s.Transform
}

// Nudge moves the active layer by (dx, dy) output pixels.
func (s *State) Nudge(dx, dy float64) {
	t := s.Active()
	t.Offset.X += dx
	t.Offset.Y += dy
}

// Zoom changes the active layer scale by delta, clamped to the allowed range.
func (s *State) Zoom(delta float64) {
	t := s.Active()
	t.Scale = min(cover.MaxScale, max(cover.MinScale, t.Scale+delta))
}

// ResetTransforms puts both layers back to the identity placement.
func (s *State) ResetTransforms() {
	s.Transform = cover.IdentityTransform()
	s.Tile = cover.IdentityTransform()
}

func stateFromRequest(req cover.RenderRequest, showSafeZone bool) State {
	return State{
		Mode:         req.Mode,
		Background:   req.Background,
		Transform:    req.Transform,
		Tile:         req.Tile,
		Text:         req.Text,
		Output:       req.Output,
		ShowSafeZone: showSafeZone,
	}
}
