package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colours follow the Arm brand palette.
const (
	armBlue  = lipgloss.Color("39")
	armGrey  = lipgloss.Color("244")
	armGreen = lipgloss.Color("78")
	armRed   = lipgloss.Color("203")
	armAmber = lipgloss.Color("221")
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(armBlue).MarginBottom(1)
	hintStyle   = lipgloss.NewStyle().Italic(true).Foreground(armGrey)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(armRed)
	doneStyle   = lipgloss.NewStyle().Foreground(armGreen)
	groupStyle  = lipgloss.NewStyle().Underline(true).Foreground(armBlue).MarginTop(1)
	columnStyle = lipgloss.NewStyle().Bold(true).Foreground(armBlue)
)

// verdict is the outcome of one verify contract.
type verdict int

const (
	verdictPassed verdict = iota
	verdictSkipped
	verdictFailed
)

func (v verdict) String() string {
	switch v {
	case verdictSkipped:
		return "SKIPPED"
	case verdictFailed:
		return "FAILED"
	default:
		return "PASSED"
	}
}

func (v verdict) render() string {
	colour := armGreen

	switch v {
	case verdictSkipped:
		colour = armAmber
	case verdictFailed:
		colour = armRed
	}

	return lipgloss.NewStyle().Foreground(colour).Render(v.String())
}

// table lines up a first column of names against a single value column.
type table struct {
	width int
}

func newTable(heading string, names []string) table {
	w := len(heading)
	for _, n := range names {
		w = max(w, len(n))
	}

	return table{width: w}
}

func (t table) header(name, value string) string {
	return columnStyle.Render(t.pad(name)) + "  " + columnStyle.Render(value)
}

func (t table) row(name, value string) string {
	return t.pad(name) + "  " + value
}

func (t table) pad(s string) string {
	return fmt.Sprintf("%-*s", t.width, s)
}

func group(name string) string {
	return groupStyle.Render(strings.ToUpper(name))
}
