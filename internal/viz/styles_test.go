package viz

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestSparklineWidth(t *testing.T) {
	values := make([]float64, 500)
	for i := range values {
		values[i] = math.Sin(float64(i) / 20)
	}

	got := Sparkline(values, 40)
	if n := utf8.RuneCountInString(got); n != 40 {
		t.Errorf("expected 40 runes, got %d", n)
	}
}

func TestSparklineShortInput(t *testing.T) {
	got := Sparkline([]float64{0, 1, 2}, 10)
	if got != "▁▄█" {
		t.Errorf("got %q", got)
	}
}

func TestSparklineEdgeCases(t *testing.T) {
	if got := Sparkline(nil, 5); got != strings.Repeat("─", 5) {
		t.Errorf("empty input: got %q", got)
	}
	if got := Sparkline([]float64{1, 1}, 0); got != "" {
		t.Errorf("zero width: got %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}, 3); got != "▁▁▁" {
		t.Errorf("constant input: got %q", got)
	}
	if got := Sparkline([]float64{0, math.NaN(), 1}, 3); got != "▁ █" {
		t.Errorf("NaN input: got %q", got)
	}
}

func TestSeriesAndDistance(t *testing.T) {
	states := [][]float64{
		{3, 4, 0, 1},
		{0, 0, 6, 8},
		{1},
	}

	xs := Series(states, 2)
	if xs[0] != 0 || xs[1] != 6 || !math.IsNaN(xs[2]) {
		t.Errorf("unexpected series %v", xs)
	}

	d := Distance(states, 0)
	if d[0] != 5 || d[1] != 0 || !math.IsNaN(d[2]) {
		t.Errorf("unexpected distance %v", d)
	}
	if d := Distance(states, 1); d[1] != 10 {
		t.Errorf("body 1 distance %v, want 10", d[1])
	}
}
