// Package ui renders ABI descriptors for the terminal.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"evmjit/internal/abi"
)

// TableOptions controls descriptor rendering.
type TableOptions struct {
	// Color enables lipgloss styling. Plain output is byte-stable.
	Color bool
	// Width caps the type column; 0 means unlimited.
	Width int
}

const (
	offsetHeader = "offset"
	sizeHeader   = "size"
	nameHeader   = "name"
	typeHeader   = "type"
)

// RenderDescriptor lays out every record of d as a field table.
func RenderDescriptor(d *abi.Descriptor, opts TableOptions) string {
	if d == nil {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	recordStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(paint(titleStyle, opts.Color, fmt.Sprintf("target %s (schema %d)", d.Triple, d.Schema)))
	b.WriteString("\n")

	for _, rec := range d.Records {
		b.WriteString("\n")
		head := rec.Name
		if rec.Opaque {
			head += "  opaque"
		} else {
			head += fmt.Sprintf("  size %d  align %d", rec.Size, rec.Align)
		}
		b.WriteString(paint(recordStyle, opts.Color, head))
		b.WriteString("\n")
		if len(rec.Fields) == 0 {
			continue
		}

		offW, sizeW, nameW := len(offsetHeader), len(sizeHeader), runewidth.StringWidth(nameHeader)
		for _, f := range rec.Fields {
			offW = max(offW, len(strconv.Itoa(f.Offset)))
			sizeW = max(sizeW, len(strconv.Itoa(f.Size)))
			nameW = max(nameW, runewidth.StringWidth(f.Name))
		}

		header := fmt.Sprintf("  %*s  %*s  %s  %s", offW, offsetHeader, sizeW, sizeHeader, runewidth.FillRight(nameHeader, nameW), typeHeader)
		b.WriteString(paint(headerStyle, opts.Color, strings.TrimRight(header, " ")))
		b.WriteString("\n")
		for _, f := range rec.Fields {
			line := fmt.Sprintf("  %*d  %*d  %s  %s", offW, f.Offset, sizeW, f.Size,
				runewidth.FillRight(f.Name, nameW), truncate(f.Type, opts.Width))
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderDiff reports the outcome of comparing two descriptors.
func RenderDiff(diffs []string, opts TableOptions) string {
	if len(diffs) == 0 {
		return paint(styleStatus("ok"), opts.Color, "ok") + ": descriptors match\n"
	}
	var b strings.Builder
	b.WriteString(paint(styleStatus("mismatch"), opts.Color, "mismatch"))
	fmt.Fprintf(&b, ": %d difference(s)\n", len(diffs))
	for _, d := range diffs {
		b.WriteString("  - ")
		b.WriteString(truncate(d, opts.Width))
		b.WriteString("\n")
	}
	return b.String()
}

func paint(style lipgloss.Style, enabled bool, s string) string {
	if !enabled {
		return s
	}
	return style.Render(s)
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "ok":
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	case "mismatch":
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
