package engine

import (
	"testing"
)

func TestParseWITFunctions_EngineWorld(t *testing.T) {
	sigs, err := parseWITFunctions(engineWIT)
	if err != nil {
		t.Fatalf("parseWITFunctions: %v", err)
	}

	want := map[string]struct{ params, results int }{
		"mask-new":          {2, 1},
		"mask-destroy":      {1, 0},
		"mask-set-value":    {3, 1},
		"mask-get-value":    {1, 1},
		"mask-get-unmasked": {1, 1},
	}

	if len(sigs) != len(want) {
		t.Fatalf("parsed %d functions, want %d", len(sigs), len(want))
	}
	for name, shape := range want {
		sig, ok := sigs[name]
		if !ok {
			t.Errorf("missing function %q", name)
			continue
		}
		if len(sig.params) != shape.params {
			t.Errorf("%s: %d params, want %d", name, len(sig.params), shape.params)
		}
		if len(sig.results) != shape.results {
			t.Errorf("%s: %d results, want %d", name, len(sig.results), shape.results)
		}
	}
}

func TestParseWITFunctions_Empty(t *testing.T) {
	if _, err := parseWITFunctions("record point { x: u32 }"); err == nil {
		t.Fatal("expected error for WIT text without functions")
	}
}

func TestExportName(t *testing.T) {
	if got := exportName("mask-get-unmasked"); got != "mask_get_unmasked" {
		t.Errorf("exportName = %q", got)
	}
}
