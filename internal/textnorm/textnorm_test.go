package textnorm

import (
	"reflect"
	"testing"
)

func TestCharacterize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"tag_and_ideographs", "<unk>明天A", []string{"<unk>", "明", "天", "A"}},
		{"adjacent_tags", "<unk><noise>好", []string{"<unk>", "<noise>", "好"}},
		{"latin_words_stay_whole", "hello world 你好", []string{"hello", "world", "你", "好"}},
		{"punctuation_skipped", "你好，世界！", []string{"你", "好", "世", "界"}},
		{"ideographic_space", "你　好", []string{"你", "好"}},
		{"ascii_run_stops_at_non_ascii", "abc明", []string{"abc", "明"}},
		{"kana", "こんにちは", []string{"こ", "ん", "に", "ち", "は"}},
		{"digits_with_text", "2024年", []string{"2024", "年"}},
		{"empty", "", nil},
		{"only_spaces", " \t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Characterize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Characterize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeWordMode(t *testing.T) {
	got := Tokenize("  the  cat\tsat \n", false)
	want := []string{"the", "cat", "sat"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %q, want %q", got, want)
	}
}

func TestStripTags(t *testing.T) {
	tests := map[string]string{
		"<unk>":         "",
		"a<b>c":         "ac",
		"<x>hello<y>":   "hello",
		"plain":         "plain",
		"open<tag":      "open",
		"x>y":           "x>y",
		"<a><b>":        "",
		"明<noise>天":     "明天",
		"":              "",
		"<<nested>>end": ">end",
	}
	for in, want := range tests {
		if got := StripTags(in); got != want {
			t.Errorf("StripTags(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCharModeStripsTags(t *testing.T) {
	n := NewNormalizer(Config{RemoveTag: true, CharMode: true})
	raw := Tokenize("<unk>明天A", true)
	if want := []string{"<unk>", "明", "天", "A"}; !reflect.DeepEqual(raw, want) {
		t.Fatalf("raw tokens = %q, want %q", raw, want)
	}
	got := n.Normalize(raw)
	if want := []string{"明", "天", "A"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("normalized tokens = %q, want %q", got, want)
	}
}

func TestNormalizeCaseFoldingAndIgnore(t *testing.T) {
	n := NewNormalizer(Config{
		RemoveTag:   true,
		IgnoreWords: []string{"uh", "Um"},
	})
	got := n.Line("Uh the <sil> Cat UM sat")
	want := []string{"THE", "CAT", "SAT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeCaseSensitive(t *testing.T) {
	n := NewNormalizer(Config{
		CaseSensitive: true,
		IgnoreWords:   []string{"uh"},
	})
	got := n.Line("Uh uh Cat")
	want := []string{"Uh", "Cat"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeKeepsTagsWhenDisabled(t *testing.T) {
	n := NewNormalizer(Config{CaseSensitive: true})
	got := n.Line("a <noise> b")
	want := []string{"a", "<noise>", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeSplitTable(t *testing.T) {
	n := NewNormalizer(Config{
		Split: map[string][]string{
			"gonna":    {"going", "to"},
			"New-York": {"new", "york"},
		},
	})
	got := n.Line("I'm gonna visit new-york")
	want := []string{"I'M", "GOING", "TO", "VISIT", "NEW", "YORK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeSplitAfterTagStrip(t *testing.T) {
	n := NewNormalizer(Config{
		CaseSensitive: true,
		RemoveTag:     true,
		Split:         map[string][]string{"ab": {"a", "b"}},
	})
	got := n.Line("a<x>b")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeFullCaseMapping(t *testing.T) {
	n := NewNormalizer(Config{})
	got := n.Line("straße")
	want := []string{"STRASSE"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeUnicodeForm(t *testing.T) {
	n := NewNormalizer(Config{CaseSensitive: true, Unicode: UnicodeNFKC})
	got := n.Line("ＡＢＣ １２")
	want := []string{"ABC", "12"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Line = %q, want %q", got, want)
	}
}

func TestNormalizeIsPure(t *testing.T) {
	n := NewNormalizer(Config{RemoveTag: true, IgnoreWords: []string{"x"}})
	in := []string{"a", "X", "<t>b"}
	first := n.Normalize(in)
	second := n.Normalize(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Normalize not repeatable: %q vs %q", first, second)
	}
	if !reflect.DeepEqual(in, []string{"a", "X", "<t>b"}) {
		t.Fatalf("Normalize mutated its input: %q", in)
	}
}

func TestParseUnicodeForm(t *testing.T) {
	if got, err := ParseUnicodeForm(" NFKC "); err != nil || got != UnicodeNFKC {
		t.Fatalf("ParseUnicodeForm = %q, %v", got, err)
	}
	if got, err := ParseUnicodeForm(""); err != nil || got != UnicodeNone {
		t.Fatalf("ParseUnicodeForm(empty) = %q, %v", got, err)
	}
	if _, err := ParseUnicodeForm("nfd"); err == nil {
		t.Fatalf("expected error for unsupported form")
	}
}

func TestFold(t *testing.T) {
	n := NewNormalizer(Config{Unicode: UnicodeNFKC})
	if got := n.Fold("ｗｅａｔｈｅｒ"); got != "WEATHER" {
		t.Fatalf("Fold = %q", got)
	}
	cs := NewNormalizer(Config{CaseSensitive: true})
	if got := cs.Fold("Rain"); got != "Rain" {
		t.Fatalf("case-sensitive Fold = %q", got)
	}
}
