package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "save.nothing"); got != "There are no changes to save." {
		t.Fatalf("fallback to en failed: %s", got)
	}
	if got := T("de", "missing.key"); got != "missing.key" {
		t.Fatalf("unknown key should echo, got %s", got)
	}
}

func TestT_CatalogueComplete(t *testing.T) {
	for key := range translations["en"] {
		if _, ok := translations["de"][key]; !ok {
			t.Fatalf("de catalogue missing %q", key)
		}
	}
}
