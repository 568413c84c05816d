package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlamourStyle_AppliesPalette(t *testing.T) {
	SetTheme(PaletteFor("gruvbox"))
	t.Cleanup(func() { SetTheme(PaletteFor(DefaultTheme)) })

	cfg := GlamourStyle("light")
	require.NotNil(t, cfg.Document.Color)
	assert.Equal(t, "#ebdbb2", *cfg.Document.Color)
	require.NotNil(t, cfg.H2.Color)
	assert.Equal(t, "#83a598", *cfg.H2.Color)
}

func TestPaletteFor(t *testing.T) {
	assert.Equal(t, palettes[DefaultTheme], PaletteFor("dark"))
	assert.Equal(t, palettes["light"], PaletteFor("light"))
	assert.Equal(t, palettes[DefaultTheme], PaletteFor("no-such-theme"))
	assert.Contains(t, ThemeNames(), "gruvbox")
}

func TestIconForPath(t *testing.T) {
	assert.Equal(t, IconFileGo, IconForPath("cmd/main.go"))
	assert.Equal(t, IconFileMarkdown, IconForPath("README.md"))
	assert.Equal(t, IconFileDefault, IconForPath("LICENSE"))
}
