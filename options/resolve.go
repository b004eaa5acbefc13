package options

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/mask-runtime/errors"
)

// maskKey is the option key whose string values carry the secondary
// grammar (regular expressions and reserved type tokens).
const maskKey = "mask"

// Resolve normalizes a mask specification into a typed option tree.
//
// A string spec resolves in three steps: a named-pattern key returns the
// table's literal as a bare string leaf (the terminal shortcut — callers
// detect Kind == KindString before attempting engine creation); text
// that parses as a strict JSON object is decoded and walked as a tree;
// any other string is wrapped as {mask: s} and walked. A map spec is
// walked directly. Anything else is an invalid-input error; malformed
// text never is.
func Resolve(spec any) (*Value, error) {
	switch s := spec.(type) {
	case string:
		if lit, ok := namedPatterns[s]; ok {
			return String(lit), nil
		}
		if tree, ok := parseJSONTree(s); ok {
			return resolveTree(tree, nil), nil
		}
		return resolveTree(map[string]any{maskKey: s}, nil), nil
	case map[string]any:
		return resolveTree(s, nil), nil
	default:
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			Value(spec).
			Detail("mask spec must be a string or a map[string]any, got %T", spec).
			Build()
	}
}

// parseJSONTree reports whether s is a strict JSON object and decodes it.
// Non-object JSON (bare numbers, arrays, quoted strings) is rejected so
// plain pattern text like "00/00" stays a literal mask.
func parseJSONTree(s string) (map[string]any, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return nil, false
	}
	var tree map[string]any
	if err := json.Unmarshal([]byte(s), &tree); err != nil {
		return nil, false
	}
	return tree, true
}

func resolveTree(m map[string]any, path []string) *Value {
	tree := make(map[string]*Value, len(m))
	for k, raw := range m {
		tree[k] = resolveNode(k, raw, append(path[:len(path):len(path)], k))
	}
	return &Value{Kind: KindTree, Tree: tree}
}

func resolveNode(key string, raw any, path []string) *Value {
	switch x := raw.(type) {
	case string:
		if key == maskKey {
			return resolveMaskString(x, path)
		}
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(n)
	case map[string]any:
		return resolveTree(x, path)
	case []any:
		list := make([]*Value, len(x))
		for i, item := range x {
			// List items under a mask key keep mask semantics; the
			// engine accepts arrays of alternative mask definitions.
			list[i] = resolveNode(key, item, append(path[:len(path):len(path)], fmt.Sprintf("[%d]", i)))
		}
		return &Value{Kind: KindList, List: list}
	case *Value:
		return x
	case nil:
		return Null()
	default:
		// Unknown shapes pass through as literals; the engine is
		// trusted to validate them.
		return String(fmt.Sprint(x))
	}
}

// resolveMaskString applies the secondary grammar to a mask string leaf:
// "/pattern/flags" compiles to a regular expression (splitting at the
// last slash), a reserved token selects an engine masked type, anything
// else stays a literal pattern.
func resolveMaskString(s string, path []string) *Value {
	if len(s) >= 2 && s[0] == '/' {
		if last := strings.LastIndex(s[1:], "/"); last >= 0 {
			source := s[1 : last+1]
			flags := s[last+2:]
			if p, ok := compilePattern(source, flags, path); ok {
				return &Value{Kind: KindPattern, Pattern: p}
			}
			return String(s)
		}
	}

	if tok, ok := reservedTokens[s]; ok {
		return TokenValue(tok)
	}

	return String(s)
}

// compilePattern compiles source with the engine's flag letters mapped
// to Go inline flags. Flags Go cannot express (g, u, y) only affect
// engine-side matching state and are dropped from the compiled form but
// preserved in the Pattern for the wire encoding. Compilation failure
// is non-fatal: the caller falls back to the literal string.
func compilePattern(source, flags string, path []string) (*Pattern, bool) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		}
	}

	expr := source
	if inline.Len() > 0 {
		expr = "(?" + inline.String() + ")" + source
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		Logger().Warn("mask pattern failed to compile, using literal",
			zap.String("path", strings.Join(path, ".")),
			zap.String("source", source),
			zap.String("flags", flags),
			zap.Error(err))
		return nil, false
	}

	return &Pattern{re: re, Source: source, Flags: flags}, true
}
