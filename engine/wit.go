package engine

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mask-runtime/errors"
)

// engineWIT describes the mask engine's exported ABI surface. Export
// names in the binary use snake_case; the kebab-case WIT names map 1:1.
// Pointer/length pairs address options wire JSON and UTF-8 values in
// guest memory; the u64 results pack pointer<<32|length.
const engineWIT = `
mask-new: func(opts-ptr: u32, opts-len: u32) -> u32;
mask-destroy: func(id: u32);
mask-set-value: func(id: u32, ptr: u32, len: u32) -> u32;
mask-get-value: func(id: u32) -> u64;
mask-get-unmasked: func(id: u32) -> u64;
`

type funcSignature struct {
	params  []wit.Type
	results []wit.Type
}

// parseWITFunctions extracts function signatures from WIT text.
// Pattern: [export] name: func(params) -> result;
func parseWITFunctions(witText string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	funcPattern := regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

	for _, match := range funcPattern.FindAllStringSubmatch(witText, -1) {
		name := match[1]
		sig := &funcSignature{}

		if params := strings.TrimSpace(match[2]); params != "" {
			for _, p := range strings.Split(params, ",") {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = p[idx+1:]
				}
				t, err := wit.ParseType(strings.TrimSpace(typStr))
				if err != nil {
					return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "parse param type "+typStr)
				}
				sig.params = append(sig.params, t)
			}
		}

		if result := strings.TrimSpace(match[3]); result != "" {
			t, err := wit.ParseType(result)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "parse result type "+result)
			}
			sig.results = []wit.Type{t}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}

	return funcs, nil
}

// exportName converts a kebab-case WIT function name to the snake_case
// export name used in the engine binary.
func exportName(witName string) string {
	return strings.ReplaceAll(witName, "-", "_")
}
