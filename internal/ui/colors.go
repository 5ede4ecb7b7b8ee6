package ui

import "github.com/charmbracelet/lipgloss"

// stylesheet groups the lipgloss styles the run and result views share.
type stylesheet struct {
	title lipgloss.Style // run header and spinner
	ok    lipgloss.Style // successful run banner
	err   lipgloss.Style // failed run banner
	warn  lipgloss.Style // unmatched entry listing
}

var styles = stylesheet{
	title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954")).MarginBottom(1),
	ok:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954")),
	err:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E25D5D")),
	warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E2B55D")),
}
