package main

import (
	"testing"

	"github.com/smazurov/recsign/internal/overlay"
)

func TestResolveSettings(t *testing.T) {
	got, err := resolveSettings(&Options{Show: true, Silent: false, Standard: "BT709", Range: "full"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := overlay.Settings{Show: true, Silent: false, Standard: overlay.BT709, Range: overlay.RangeFull}
	if got != want {
		t.Errorf("resolveSettings() = %+v, want %+v", got, want)
	}

	if _, err := resolveSettings(&Options{Standard: "bt2020", Range: "studio"}); err == nil {
		t.Error("expected error for unknown standard")
	}
	if _, err := resolveSettings(&Options{Standard: "bt601", Range: "wide"}); err == nil {
		t.Error("expected error for unknown range")
	}
}
