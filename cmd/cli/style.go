package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/soaringjerry/Solace/internal/scoring"
)

// Terminal equivalents of the web display tokens.
var tokenColors = map[string]lipgloss.Color{
	"green":  lipgloss.Color("#16a34a"),
	"blue":   lipgloss.Color("#2563eb"),
	"yellow": lipgloss.Color("#ca8a04"),
	"orange": lipgloss.Color("#ea580c"),
	"red":    lipgloss.Color("#dc2626"),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	youStyle    = lipgloss.NewStyle().Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	crisisStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(tokenColors["red"]).Padding(0, 1)
)

// tokenColor maps "text-red-600" style tokens to a terminal colour.
func tokenColor(token string) lipgloss.Color {
	parts := strings.Split(token, "-")
	if len(parts) >= 2 {
		if c, ok := tokenColors[parts[1]]; ok {
			return c
		}
	}
	return lipgloss.Color("")
}

func tierBadge(t scoring.Tier) string {
	return lipgloss.NewStyle().Bold(true).Foreground(tokenColor(t.Style().Color)).Render(t.String())
}

func severityLabel(in scoring.Instrument, score int) string {
	return lipgloss.NewStyle().Foreground(tokenColor(scoring.SeverityColor(in, score))).Render(scoring.Severity(in, score).String())
}
