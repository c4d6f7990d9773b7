package normalize

import "testing"

func TestSourceLabel(t *testing.T) {
	t.Parallel()

	if got := SourceLabel("players", map[string]any{"TR_ID": float64(4521)}); got != "4521" {
		t.Fatalf("unexpected player label: %q", got)
	}
	if got := SourceLabel("competitions", map[string]any{"Id": float64(31)}); got != "31" {
		t.Fatalf("unexpected competition label: %q", got)
	}
	if got := SourceLabel("players", map[string]any{"Name": "no id here"}); got != "<no id>" {
		t.Fatalf("unexpected missing-id label: %q", got)
	}
}
