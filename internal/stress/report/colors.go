package report

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for the console report.
type ColorScheme struct {
	Title   *color.Color
	Heading *color.Color
	Rule    *color.Color
	Value   *color.Color
	Rate    *color.Color
	Success *color.Color
	Best    *color.Color
	Warning *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	s := &ColorScheme{
		Title:   color.New(color.FgCyan, color.Bold),
		Heading: color.New(color.Bold),
		Rule:    color.New(color.Bold),
		Value:   color.New(color.FgYellow),
		Rate:    color.New(color.FgGreen, color.Bold),
		Success: color.New(color.FgGreen),
		Best:    color.New(color.FgGreen, color.Bold),
		Warning: color.New(color.FgYellow),
	}
	// The console decides about color itself; ignore the package-wide
	// stdout detection.
	for _, c := range s.all() {
		c.EnableColor()
	}
	return s
}

// NoColorScheme returns a color scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	s := DefaultColorScheme()
	for _, c := range s.all() {
		c.DisableColor()
	}
	return s
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{s.Title, s.Heading, s.Rule, s.Value, s.Rate, s.Success, s.Best, s.Warning}
}

// tier returns the color for a tier level.
func (s *ColorScheme) tier(l Level) *color.Color {
	switch l {
	case LevelBest:
		return s.Best
	case LevelGood:
		return s.Success
	default:
		return s.Warning
	}
}

// UseColors reports whether output to w should be colored.
func UseColors(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
