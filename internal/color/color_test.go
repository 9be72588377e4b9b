package color

import (
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		isDarkMode bool
		expected   bool
	}{
		{"set dark mode", true, true},
		{"set light mode", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Initialize(tt.isDarkMode)
			assert.Equal(t, tt.expected, lipgloss.HasDarkBackground())
		})
	}
}

func TestRenderKeepsText(t *testing.T) {
	// Whatever the color profile, the rendered text must survive.
	for _, render := range []func(string) string{Pass, Fail, Warn, Muted, Title} {
		assert.Contains(t, render("c.js"), "c.js")
	}
}

func TestSupported(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NoError(t, err)
	defer f.Close()
	assert.False(t, Supported(f), "regular files are not terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, Supported(os.Stdout))
}

func TestDisable(t *testing.T) {
	Disable()
	defer text.EnableColors()

	assert.Equal(t, "c.js", Fail("c.js"))
	assert.Equal(t, "PASS", text.FgGreen.Sprint("PASS"))
}

func TestSetup_DisabledForFiles(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NoError(t, err)
	defer f.Close()
	defer text.EnableColors()

	Setup(f, false)
	assert.Equal(t, "a.js", Pass("a.js"))
}
