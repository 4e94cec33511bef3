package model

import "testing"

func TestParseFilterMode(t *testing.T) {
	cases := map[string]FilterMode{
		"active":     FilterActive,
		" Completed": FilterCompleted,
		"all":        FilterAll,
		"":           FilterAll,
		"archived":   FilterAll,
	}
	for input, want := range cases {
		if got := ParseFilterMode(input); got != want {
			t.Fatalf("ParseFilterMode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCategoryClass(t *testing.T) {
	if got := CategoryClass("Work"); got != "cat-work" {
		t.Fatalf("expected cat-work, got %q", got)
	}
	if got := CategoryClass("gardening"); got != "cat-other" {
		t.Fatalf("expected cat-other, got %q", got)
	}
	if got := CategoryClass("  "); got != "" {
		t.Fatalf("expected no class for empty category, got %q", got)
	}
}
