package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovingAverage = %v, want %v", got, want)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("Sparkline = %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("Sparkline(nil) = %q", got)
	}
}

func TestRenderTokenTable(t *testing.T) {
	var buf bytes.Buffer
	tokens := []TokenStat{
		{Token: "明", WER: WER{Equal: 1, Replace: 1}},
		{Token: "cat", WER: WER{Equal: 3}},
	}
	if err := RenderTokenTable(&buf, "Weakest Tokens", tokens); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %q", lines)
	}
	if lines[0] != "Weakest Tokens" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	if lines[1] != "Token Accuracy N C S D I" {
		t.Fatalf("unexpected header %q", lines[1])
	}
	if lines[2] != "明      50.00% 2 1 1 0 0" {
		t.Fatalf("unexpected row %q", lines[2])
	}

	buf.Reset()
	if err := RenderTokenTable(&buf, "", nil); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if buf.String() != "No token stats found.\n" {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}
