package options

// namedPatterns maps well-known pattern names to their literal masks.
// A top-level specification matching one of these keys resolves to the
// literal string itself; no option tree is built for it.
var namedPatterns = map[string]string{
	"phoneNumber":     "+1 (000) 000-0000",
	"ssn":             "000-00-0000",
	"creditCard":      "0000 0000 0000 0000",
	"date":            "00/00/0000",
	"zipCode":         "00000",
	"zipCodePlus4":    "00000-0000",
	"time":            "00:00",
	"timeWithSeconds": "00:00:00",
	"ipAddress":       "000.000.000.000",
	"currency":        "$0,000.00",
}

// NamedPattern returns the literal mask for a well-known pattern name.
func NamedPattern(name string) (string, bool) {
	lit, ok := namedPatterns[name]
	return lit, ok
}

// NamedPatterns returns the set of well-known pattern names.
func NamedPatterns() []string {
	names := make([]string, 0, len(namedPatterns))
	for name := range namedPatterns {
		names = append(names, name)
	}
	return names
}
