// Package styles provides the shared lipgloss styles used by the CLI.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default palette.
const DefaultTheme = "tokyo-night"

// palettes holds the built-in named palettes. "dark" and "light" follow the
// glamour theme names so a render theme can select a matching palette.
var palettes = map[string]Palette{
	"tokyo-night": {
		Primary:    "#7aa2f7",
		Secondary:  "#7dcfff",
		Foreground: "#c0caf5",
		Muted:      "#565f89",
		Surface:    "#3b4261",
		Success:    "#9ece6a",
		Warning:    "#e0af68",
		Error:      "#f7768e",
	},
	"gruvbox": {
		Primary:    "#83a598",
		Secondary:  "#8ec07c",
		Foreground: "#ebdbb2",
		Muted:      "#665c54",
		Surface:    "#3c3836",
		Success:    "#b8bb26",
		Warning:    "#fabd2f",
		Error:      "#fb4934",
	},
	"light": {
		Primary:    "#2e7de9",
		Secondary:  "#007197",
		Foreground: "#3760bf",
		Muted:      "#848cb5",
		Surface:    "#c4c8da",
		Success:    "#587539",
		Warning:    "#8c6c3e",
		Error:      "#f52a65",
	},
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	palettes["dark"] = palettes[DefaultTheme]
	SetTheme(palettes[DefaultTheme])
}

// ThemeNames returns sorted names of all built-in palettes.
func ThemeNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := palettes[name]
	return p, ok
}

// PaletteFor returns the palette matching a render theme, falling back to
// the default palette.
func PaletteFor(theme string) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[DefaultTheme]
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style
	MutedStyle         lipgloss.Style
	SuccessStyle       lipgloss.Style
	WarningStyle       lipgloss.Style
	ErrorStyle         lipgloss.Style

	// Chat transcript.
	UserTurnStyle  lipgloss.Style
	ModelTurnStyle lipgloss.Style

	// Artifact listings.
	ArtifactNameStyle lipgloss.Style
	CodeBoxStyle      lipgloss.Style

	// Version listings.
	VersionIDStyle   lipgloss.Style
	VersionNameStyle lipgloss.Style
	VersionAgeStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	SuccessStyle = lipgloss.NewStyle().
		Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().
		Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)

	UserTurnStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
	ModelTurnStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)

	ArtifactNameStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Underline(true)
	CodeBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)

	VersionIDStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	VersionNameStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	VersionAgeStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)
}

// StateStyle returns the style used to print a session state.
func StateStyle(s session.State) lipgloss.Style {
	switch s {
	case session.StateCompleted, session.StateChatActive:
		return SuccessStyle
	case session.StateErrored:
		return ErrorStyle
	case session.StateCancelled, session.StateDecisionPending:
		return WarningStyle
	case session.StateIdle:
		return MutedStyle
	default:
		return CommandHeaderStyle
	}
}

// DecisionStyle returns the style used to print a feature decision. An
// undecided feature uses the muted style.
func DecisionStyle(d features.Decision) lipgloss.Style {
	switch d {
	case features.Include:
		return SuccessStyle
	case features.Remove:
		return ErrorStyle
	case features.Discussed:
		return WarningStyle
	default:
		return MutedStyle
	}
}
