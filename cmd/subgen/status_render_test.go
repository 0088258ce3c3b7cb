package main

import (
	"fmt"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Model", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
	if !strings.Contains(got, "[OK]") {
		t.Fatalf("expected bare status label, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	var buf strings.Builder
	if shouldColorize(&buf) {
		t.Fatal("expected non-file writer to be uncolored")
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "maybe": false}
	for input, want := range cases {
		var out strings.Builder
		got, err := confirm(strings.NewReader(input), &out, "Proceed?")
		if err != nil {
			t.Fatalf("confirm(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("confirm(%q) = %v, want %v", input, got, want)
		}
		if out.String() != "Proceed? [y/N]: " {
			t.Fatalf("unexpected prompt %q", out.String())
		}
	}
}

func TestRenderTableFooter(t *testing.T) {
	got := renderTable([]string{"Model", "Size"}, [][]string{{"tiny", "75 MB"}, {"base"}}, []columnAlignment{alignLeft, alignRight}, "2 models", "75 MB")
	for _, want := range []string{"tiny", "75 MB", "base"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in table:\n%s", want, got)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty table without headers")
	}
}
