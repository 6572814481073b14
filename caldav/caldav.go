// Package caldav implements calendar-query filtering for CalDAV.
//
// CalDAV is defined in RFC 4791. This package evaluates the filter element
// of a calendar-query REPORT (RFC 4791 section 9.7) against calendar
// objects parsed with github.com/emersion/go-ical.
package caldav

import (
	"time"

	"github.com/emersion/go-ical"

	"github.com/cozy/go-caldav/internal/collation"
)

// MatchType indicates how a text-match pattern is compared against a
// property or parameter value.
type MatchType = collation.MatchType

const (
	MatchEquals     = collation.MatchEquals
	MatchContains   = collation.MatchContains
	MatchStartsWith = collation.MatchStartsWith
	MatchEndsWith   = collation.MatchEndsWith
)

// CalendarQuery is a parsed calendar-query REPORT request.
type CalendarQuery struct {
	CompFilter CompFilter
}

// CompFilter matches a calendar component and, recursively, its
// subcomponents and properties. It's defined in RFC 4791 section 9.7.1.
//
// A zero Start and End means the filter carries no time-range.
type CompFilter struct {
	Name         string
	IsNotDefined bool
	Start, End   time.Time
	Props        []PropFilter
	Comps        []CompFilter
}

// PropFilter matches a property of a calendar component. It's defined in
// RFC 4791 section 9.7.2.
type PropFilter struct {
	Name         string
	IsNotDefined bool
	Start, End   time.Time
	TextMatch    *TextMatch
	ParamFilter  []ParamFilter
}

// ParamFilter matches a parameter of a property. It's defined in RFC 4791
// section 9.7.3.
type ParamFilter struct {
	Name         string
	IsNotDefined bool
	TextMatch    *TextMatch
}

// TextMatch matches a property or parameter value against a pattern under
// a collation. It's defined in RFC 4791 section 9.7.5.
//
// An empty MatchType is equivalent to MatchContains, an empty Collation to
// i;ascii-casemap.
type TextMatch struct {
	Text            string
	MatchType       MatchType
	Collation       string
	NegateCondition bool
}

// CalendarObject represents a calendar object resource.
type CalendarObject struct {
	Path    string
	ModTime time.Time
	ETag    string
	Data    *ical.Calendar
}
