package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/compute-wer/internal/config"
	"github.com/verte-zerg/compute-wer/internal/model"
	"github.com/verte-zerg/compute-wer/internal/stats"
)

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var words int
	var unicode string
	cmd.Flags().IntVar(&words, "max-words-per-line", 0, "")
	cmd.Flags().StringVar(&unicode, "unicode", "none", "")
	if err := cmd.Flags().Set("unicode", "nfc"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	fileWords := 12
	fileUnicode := "nfkc"
	applyIntConfig(cmd, "max-words-per-line", &words, &fileWords)
	applyStringConfig(cmd, "unicode", &unicode, &fileUnicode)

	if words != 12 {
		t.Fatalf("expected config value for untouched flag, got %d", words)
	}
	if unicode != "nfc" {
		t.Fatalf("expected flag value to win, got %q", unicode)
	}

	applyIntConfig(cmd, "max-words-per-line", &words, nil)
	if words != 12 {
		t.Fatalf("nil config value must not change target, got %d", words)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	md, err := toml.Decode(defaultConfigTemplate(), &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Fatalf("unexpected keys: %v", md.Undecoded())
	}
	if cfg.Evaluate.Char != nil || cfg.History.Window != nil {
		t.Fatalf("template values must all be commented out: %+v", cfg)
	}
	for _, key := range []string{"[evaluate]", "[history]", "[log]", "max-words-per-line"} {
		if !strings.Contains(defaultConfigTemplate(), key) {
			t.Fatalf("template missing %q", key)
		}
	}
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		mode    string
		auto    bool
		want    bool
		wantErr bool
	}{
		{"auto", true, true, false},
		{"auto", false, false, false},
		{"", true, true, false},
		{"always", false, true, false},
		{"Never", true, false, false},
		{"sometimes", true, false, true},
	}
	for _, tt := range tests {
		got, err := resolveColor(tt.mode, tt.auto)
		if (err != nil) != tt.wantErr {
			t.Fatalf("resolveColor(%q) error = %v", tt.mode, err)
		}
		if got != tt.want {
			t.Fatalf("resolveColor(%q, %v) = %v, want %v", tt.mode, tt.auto, got, tt.want)
		}
	}
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("")
	if err != nil || got != nil {
		t.Fatalf("empty since = %v, %v", got, err)
	}
	got, err = parseSince("2024-03-01")
	if err != nil {
		t.Fatalf("parse since: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if _, err := parseSince("01/03/2024"); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := renderHistory(&buf, stats.Report{}, model.HistoryConfig{}); err != nil {
		t.Fatalf("render history: %v", err)
	}
	if !strings.Contains(buf.String(), "No runs recorded") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
