package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stressoscope/internal/analysis"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginTop(1)

	sourceStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	horoscopeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1).
			Italic(true)
)

const gaugeWidth = 10

// levelColor picks green for low, amber for moderate and red for high stress.
func levelColor(level int) lipgloss.Color {
	switch {
	case level <= 3:
		return successColor
	case level <= 6:
		return warningColor
	default:
		return errorColor
	}
}

func stressGauge(level int) string {
	level = max(1, min(gaugeWidth, level))
	bar := strings.Repeat("█", level) + strings.Repeat("░", gaugeWidth-level)
	return lipgloss.NewStyle().Foreground(levelColor(level)).Render(bar) +
		fmt.Sprintf(" %d/%d", level, gaugeWidth)
}

func renderList(title string, items []string) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString("  • none\n")
		return b.String()
	}
	for _, item := range items {
		b.WriteString("  • ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}

// renderReport lays out an analysis outcome for the terminal.
func renderReport(out analysis.Outcome) string {
	a := out.Analysis
	var b strings.Builder
	b.WriteString(headerStyle.Render("Stress-O-Scope Analysis"))
	b.WriteString("\n")
	b.WriteString(sourceStyle.Render("source: " + string(out.Source)))
	b.WriteString("\n\n")
	b.WriteString("Stress level  ")
	b.WriteString(stressGauge(a.StressLevel))
	b.WriteString("\n")

	b.WriteString(renderList("Stress areas", a.StressAreas))
	b.WriteString(renderList("Strengths", a.Strengths))
	b.WriteString(renderList("Recommendations", a.Recommendations))

	if a.CosmicHoroscope != "" {
		b.WriteString(sectionStyle.Render("Cosmic horoscope"))
		b.WriteString("\n")
		b.WriteString(horoscopeStyle.Render(a.CosmicHoroscope))
		b.WriteString("\n")
	}
	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n")
	b.WriteString(a.Summary)
	b.WriteString("\n")
	return b.String()
}
