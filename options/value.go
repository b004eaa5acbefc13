package options

import (
	"encoding/json"
	"regexp"
)

// Kind discriminates the variants a resolved option value can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindPattern
	KindToken
	KindTree
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindPattern:
		return "pattern"
	case KindToken:
		return "token"
	case KindTree:
		return "tree"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Token is a reserved mask type name understood by the engine.
type Token string

const (
	TokenNumber Token = "Number"
	TokenDate   Token = "Date"
	TokenRange  Token = "Range"
	TokenEnum   Token = "Enum"
)

// reservedTokens maps the literal spelling in a mask specification to
// the engine type token it selects.
var reservedTokens = map[string]Token{
	"Number": TokenNumber,
	"Date":   TokenDate,
	"Range":  TokenRange,
	"Enum":   TokenEnum,
}

// Pattern is a compiled regular-expression mask leaf. Source and Flags
// hold the specification text verbatim; the compiled form translates
// the engine's flag letters to Go inline flags.
type Pattern struct {
	re     *regexp.Regexp
	Source string
	Flags  string
}

// Regexp returns the compiled form of the pattern.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// Value is one node of a resolved option tree. Exactly the field
// selected by Kind is meaningful.
type Value struct {
	Pattern *Pattern
	Tree    map[string]*Value
	Str     string
	Token   Token
	List    []*Value
	Num     float64
	Bool    bool
	Kind    Kind
}

// String wraps a literal string leaf.
func String(s string) *Value {
	return &Value{Kind: KindString, Str: s}
}

// Number wraps a numeric leaf.
func Number(n float64) *Value {
	return &Value{Kind: KindNumber, Num: n}
}

// Bool wraps a boolean leaf.
func Bool(b bool) *Value {
	return &Value{Kind: KindBool, Bool: b}
}

// Null returns the null leaf.
func Null() *Value {
	return &Value{Kind: KindNull}
}

// TokenValue wraps an engine type token leaf.
func TokenValue(t Token) *Value {
	return &Value{Kind: KindToken, Token: t}
}

// Tree wraps nested options.
func Tree(m map[string]*Value) *Value {
	return &Value{Kind: KindTree, Tree: m}
}

// Get returns the child value for a key of a tree node.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.Kind != KindTree {
		return nil, false
	}
	child, ok := v.Tree[key]
	return child, ok
}

// MarshalJSON encodes the value in the engine's wire format: pattern
// leaves become {"$regex":{"source":...,"flags":...}} objects, token
// leaves become {"$type":...}, everything else is plain JSON.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindToken:
		return json.Marshal(map[string]string{"$type": string(v.Token)})
	case KindPattern:
		return json.Marshal(map[string]map[string]string{
			"$regex": {"source": v.Pattern.Source, "flags": v.Pattern.Flags},
		})
	case KindList:
		return json.Marshal(v.List)
	case KindTree:
		return json.Marshal(v.Tree)
	}
	return []byte("null"), nil
}
