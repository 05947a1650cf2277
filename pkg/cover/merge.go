// merge.go - Merge partial editor updates onto a render request.
package cover

// RequestPatch is a partial update. Nil fields are left unchanged.
// Output and Text merge field by field; Background replaces the whole
// variant, so switching type discards the previous parameters.
type RequestPatch struct {
	Mode       *Mode        `json:"mode,omitempty"`
	Background *Background  `json:"background,omitempty"`
	Transform  *Transform   `json:"transform,omitempty"`
	Tile       *Transform   `json:"tile,omitempty"`
	Text       *TextPatch   `json:"text,omitempty"`
	Output     *OutputPatch `json:"output,omitempty"`
}

// TextPatch is a partial TextOverlay.
type TextPatch struct {
	Enabled  *bool    `json:"enabled,omitempty"`
	Content  *string  `json:"content,omitempty"`
	Font     *string  `json:"font,omitempty"`
	Weight   *int     `json:"weight,omitempty"`
	Size     *float64 `json:"size,omitempty"`
	Tracking *float64 `json:"tracking,omitempty"`
	Shadow   *bool    `json:"shadow,omitempty"`
	Align    *Align   `json:"align,omitempty"`
	Color    *string  `json:"color,omitempty"`
}

// OutputPatch is a partial OutputSettings.
type OutputPatch struct {
	Width   *int     `json:"width,omitempty"`
	Height  *int     `json:"height,omitempty"`
	Format  *Format  `json:"format,omitempty"`
	Quality *float64 `json:"quality,omitempty"`
}

// Merge applies p to req.
func (req *RenderRequest) Merge(p RequestPatch) {
	if p.Mode != nil {
		req.Mode = *p.Mode
	}
	if p.Background != nil {
		req.Background = p.Background.Normalized()
	}
	if p.Transform != nil {
		req.Transform = *p.Transform
	}
	if p.Tile != nil {
		req.Tile = *p.Tile
	}
	if p.Text != nil {
		mergeText(&req.Text, *p.Text)
	}
	if p.Output != nil {
		mergeOutput(&req.Output, *p.Output)
	}
}

// mergeText applies non-nil text overrides.
func mergeText(base *TextOverlay, over TextPatch) {
	if over.Enabled != nil {
		base.Enabled = *over.Enabled
	}
	if over.Content != nil {
		base.Content = *over.Content
	}
	if over.Font != nil {
		base.Font = *over.Font
	}
	if over.Weight != nil {
		base.Weight = *over.Weight
	}
	if over.Size != nil {
		base.Size = *over.Size
	}
	if over.Tracking != nil {
		base.Tracking = *over.Tracking
	}
	if over.Shadow != nil {
		base.Shadow = *over.Shadow
	}
	if over.Align != nil {
		base.Align = *over.Align
	}
	if over.Color != nil {
		base.Color = *over.Color
	}
}

// mergeOutput applies non-nil output overrides.
func mergeOutput(base *OutputSettings, over OutputPatch) {
	if over.Width != nil {
		base.Width = *over.Width
	}
	if over.Height != nil {
		base.Height = *over.Height
	}
	if over.Format != nil {
		base.Format = *over.Format
	}
	if over.Quality != nil {
		base.Quality = *over.Quality
	}
}
