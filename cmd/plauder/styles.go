package main

import "github.com/charmbracelet/lipgloss"

var (
	userLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	modelLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	translationStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
