package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: calm ink tones with a vermilion accent.
var (
	Primary   = lipgloss.Color("#E0533D") // Vermilion
	Secondary = lipgloss.Color("#5B8DB8") // Indigo wash
	Accent    = lipgloss.Color("#E9B949") // Gold
	Success   = lipgloss.Color("#3FA66B") // Matcha
	Error     = lipgloss.Color("#D64550") // Crimson
	Text      = lipgloss.Color("#F4F1EA") // Washi
	TextDim   = lipgloss.Color("#9A968E") // Stone
	BgCard    = lipgloss.Color("#24262B") // Sumi
	Border    = lipgloss.Color("#3A3D44") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Japanese = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	Label = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)
)

// States
var (
	Option = lipgloss.NewStyle().
		Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Skipped = lipgloss.NewStyle().
		Foreground(TextDim).
		Strikethrough(true)

	Star = lipgloss.NewStyle().
		Foreground(Accent)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
