package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xob0t/GoCover/pkg/cover"
)

var (
	colorCyan = lipgloss.Color("36")
	colorRed  = lipgloss.Color("167")
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel     = lipgloss.NewStyle().Foreground(colorGray)
	styleDim       = lipgloss.NewStyle().Foreground(colorDim)
	styleError     = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// swatch renders a coloured block followed by its hex code.
func swatch(hex string) string {
	block := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ")
	return block + " " + styleHighlight.Render(hex)
}

// printPalette writes the palette as swatches plus the suggested gradient.
func printPalette(w io.Writer, p cover.Palette) {
	fmt.Fprintln(w, styleTitle.Render("Dominant colours"))
	if len(p.Colors) == 0 {
		fmt.Fprintln(w, styleDim.Render("  (none: image is fully transparent)"))
	}
	for i, c := range p.Colors {
		fmt.Fprintf(w, "  %s %s\n", styleDim.Render(fmt.Sprintf("%d.", i+1)), swatch(c))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Brightest"), swatch(p.Brightest))
	fmt.Fprintf(w, "%s   %s\n", styleLabel.Render("Darkest"), swatch(p.Darkest))

	if len(p.Colors) >= 2 {
		g := cover.SuggestGradient(p)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Suggested"),
			styleDim.Render(fmt.Sprintf("--bg gradient --color1 %q --color2 %q --angle %g", g.Color1, g.Color2, g.Angle)))
	}
}

// table formats rows as left-aligned columns.
func table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], len(c))
		}
	}
	line := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Render(c + strings.Repeat(" ", widths[i]-len(c)))
		}
		fmt.Fprintln(w, "  "+strings.Join(parts, "  "))
	}
	line(header, styleLabel)
	for _, r := range rows {
		line(r, lipgloss.NewStyle())
	}
}
