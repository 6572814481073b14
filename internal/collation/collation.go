// Package collation implements the text-match collations used by
// calendar-query filters.
//
// CalDAV servers are required to support the i;ascii-casemap and i;octet
// collations defined in RFC 4790; i;unicode-casemap (RFC 5051) is supported
// as well. See RFC 4791 section 7.5.1.
package collation

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

const (
	Octet          = "i;octet"
	ASCIICasemap   = "i;ascii-casemap"
	UnicodeCasemap = "i;unicode-casemap"
)

// Default is the collation used when a text-match element carries no
// collation attribute.
const Default = ASCIICasemap

// MatchType indicates how a text-match pattern is compared against a value.
// It's defined in RFC 6352 section 10.5.1 and shared by the calendar-query
// text-match element.
type MatchType string

const (
	MatchEquals     MatchType = "equals"
	MatchContains   MatchType = "contains"
	MatchStartsWith MatchType = "starts-with"
	MatchEndsWith   MatchType = "ends-with"
)

var caseFolder = cases.Fold()

// Match reports whether value matches pattern under the named collation. An
// empty collation selects Default, an empty match type selects
// MatchContains. Unknown collations and match types are errors, not
// mismatches.
func Match(collation string, matchType MatchType, value, pattern string) (bool, error) {
	switch collation {
	case Octet:
		// compare raw octets
	case ASCIICasemap, "":
		value = asciiLower(value)
		pattern = asciiLower(pattern)
	case UnicodeCasemap:
		value = caseFolder.String(value)
		pattern = caseFolder.String(pattern)
	default:
		return false, fmt.Errorf("collation: unsupported collation %q", collation)
	}

	switch matchType {
	case MatchEquals:
		return value == pattern, nil
	case MatchContains, "":
		return strings.Contains(value, pattern), nil
	case MatchStartsWith:
		return strings.HasPrefix(value, pattern), nil
	case MatchEndsWith:
		return strings.HasSuffix(value, pattern), nil
	default:
		return false, fmt.Errorf("collation: unknown match type %q", matchType)
	}
}

// asciiLower folds only the ASCII range, as required by RFC 4790 section
// 9.2: i;ascii-casemap must leave octets outside A-Z untouched.
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
