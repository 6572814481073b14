package caldav

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cozy/go-caldav/internal"
)

const namespace = "urn:ietf:params:xml:ns:caldav"

// https://tools.ietf.org/html/rfc4791#section-9.7
type filter struct {
	XMLName    xml.Name   `xml:"urn:ietf:params:xml:ns:caldav filter"`
	CompFilter compFilter `xml:"comp-filter"`
}

// https://tools.ietf.org/html/rfc4791#section-9.7.1
type compFilter struct {
	XMLName      xml.Name     `xml:"urn:ietf:params:xml:ns:caldav comp-filter"`
	Name         string       `xml:"name,attr"`
	IsNotDefined *struct{}    `xml:"is-not-defined,omitempty"`
	TimeRange    *timeRange   `xml:"time-range,omitempty"`
	PropFilters  []propFilter `xml:"prop-filter,omitempty"`
	CompFilters  []compFilter `xml:"comp-filter,omitempty"`
}

// https://tools.ietf.org/html/rfc4791#section-9.7.2
type propFilter struct {
	XMLName      xml.Name      `xml:"urn:ietf:params:xml:ns:caldav prop-filter"`
	Name         string        `xml:"name,attr"`
	IsNotDefined *struct{}     `xml:"is-not-defined,omitempty"`
	TimeRange    *timeRange    `xml:"time-range,omitempty"`
	TextMatch    *textMatch    `xml:"text-match,omitempty"`
	ParamFilter  []paramFilter `xml:"param-filter,omitempty"`
}

// https://tools.ietf.org/html/rfc4791#section-9.7.3
type paramFilter struct {
	XMLName      xml.Name   `xml:"urn:ietf:params:xml:ns:caldav param-filter"`
	Name         string     `xml:"name,attr"`
	IsNotDefined *struct{}  `xml:"is-not-defined,omitempty"`
	TextMatch    *textMatch `xml:"text-match,omitempty"`
}

// https://tools.ietf.org/html/rfc4791#section-9.7.5
//
// The match-type attribute is borrowed from the CardDAV text-match element
// (RFC 6352 section 10.5.1); RFC 4791 only defines substring matching.
type textMatch struct {
	XMLName         xml.Name        `xml:"urn:ietf:params:xml:ns:caldav text-match"`
	Collation       string          `xml:"collation,attr,omitempty"`
	MatchType       MatchType       `xml:"match-type,attr,omitempty"`
	NegateCondition negateCondition `xml:"negate-condition,attr,omitempty"`
	Text            string          `xml:",chardata"`
}

// https://tools.ietf.org/html/rfc4791#section-9.9
type timeRange struct {
	XMLName xml.Name        `xml:"urn:ietf:params:xml:ns:caldav time-range"`
	Start   dateWithUTCTime `xml:"start,attr,omitempty"`
	End     dateWithUTCTime `xml:"end,attr,omitempty"`
}

const dateWithUTCTimeLayout = "20060102T150405Z"

// dateWithUTCTime is the "date with UTC time" format of RFC 4791 section
// 9.9, a restriction of the DATE-TIME format from RFC 5545 section 3.3.5.
type dateWithUTCTime time.Time

func (t *dateWithUTCTime) UnmarshalXMLAttr(attr xml.Attr) error {
	res, err := time.ParseInLocation(dateWithUTCTimeLayout, attr.Value, time.UTC)
	if err != nil {
		return err
	}
	*t = dateWithUTCTime(res)
	return nil
}

func (t dateWithUTCTime) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if time.Time(t).IsZero() {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: time.Time(t).Format(dateWithUTCTimeLayout)}, nil
}

type negateCondition bool

func (nc *negateCondition) UnmarshalXMLAttr(attr xml.Attr) error {
	switch attr.Value {
	case "yes":
		*nc = true
	case "no":
		*nc = false
	default:
		return fmt.Errorf("caldav: invalid negate-condition value %q", attr.Value)
	}
	return nil
}

func (nc negateCondition) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if !nc {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: "yes"}, nil
}

// DecodeFilter parses the filter element of a calendar-query REPORT
// request. Malformed filters are reported as 400 errors.
func DecodeFilter(r io.Reader) (*CompFilter, error) {
	var f filter
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, &internal.HTTPError{Code: http.StatusBadRequest, Err: err}
	}
	return decodeCompFilter(&f.CompFilter)
}

// EncodeFilter writes the filter element of a calendar-query REPORT
// request.
func EncodeFilter(w io.Writer, cf *CompFilter) error {
	f := filter{CompFilter: *encodeCompFilter(cf)}
	return xml.NewEncoder(w).Encode(&f)
}

func decodeCompFilter(el *compFilter) (*CompFilter, error) {
	cf := &CompFilter{Name: el.Name}
	if el.IsNotDefined != nil {
		if el.TimeRange != nil || len(el.PropFilters) > 0 || len(el.CompFilters) > 0 {
			return nil, internal.HTTPErrorf(http.StatusBadRequest, "caldav: failed to parse comp-filter: if is-not-defined is provided, time-range, prop-filter, or comp-filter can't be provided")
		}
		cf.IsNotDefined = true
	}
	if el.TimeRange != nil {
		cf.Start = time.Time(el.TimeRange.Start)
		cf.End = time.Time(el.TimeRange.End)
	}
	for _, pfEl := range el.PropFilters {
		pf, err := decodePropFilter(&pfEl)
		if err != nil {
			return nil, err
		}
		cf.Props = append(cf.Props, *pf)
	}
	for _, childEl := range el.CompFilters {
		child, err := decodeCompFilter(&childEl)
		if err != nil {
			return nil, err
		}
		cf.Comps = append(cf.Comps, *child)
	}
	return cf, nil
}

func decodePropFilter(el *propFilter) (*PropFilter, error) {
	pf := &PropFilter{Name: el.Name}
	if el.IsNotDefined != nil {
		if el.TextMatch != nil || el.TimeRange != nil || len(el.ParamFilter) > 0 {
			return nil, internal.HTTPErrorf(http.StatusBadRequest, "caldav: failed to parse prop-filter: if is-not-defined is provided, text-match, time-range, or param-filter can't be provided")
		}
		pf.IsNotDefined = true
	}
	if el.TextMatch != nil {
		pf.TextMatch = decodeTextMatch(el.TextMatch)
	}
	if el.TimeRange != nil {
		pf.Start = time.Time(el.TimeRange.Start)
		pf.End = time.Time(el.TimeRange.End)
	}
	for _, paramEl := range el.ParamFilter {
		paramFi, err := decodeParamFilter(&paramEl)
		if err != nil {
			return nil, err
		}
		pf.ParamFilter = append(pf.ParamFilter, *paramFi)
	}
	return pf, nil
}

func decodeParamFilter(el *paramFilter) (*ParamFilter, error) {
	pf := &ParamFilter{Name: el.Name}
	if el.IsNotDefined != nil {
		if el.TextMatch != nil {
			return nil, internal.HTTPErrorf(http.StatusBadRequest, "caldav: failed to parse param-filter: if is-not-defined is provided, text-match can't be provided")
		}
		pf.IsNotDefined = true
	}
	if el.TextMatch != nil {
		pf.TextMatch = decodeTextMatch(el.TextMatch)
	}
	return pf, nil
}

func decodeTextMatch(el *textMatch) *TextMatch {
	return &TextMatch{
		Text:            el.Text,
		MatchType:       el.MatchType,
		Collation:       el.Collation,
		NegateCondition: bool(el.NegateCondition),
	}
}

func encodeCompFilter(cf *CompFilter) *compFilter {
	el := compFilter{Name: cf.Name}
	if cf.IsNotDefined {
		el.IsNotDefined = &struct{}{}
	}
	if tr := encodeTimeRange(cf.Start, cf.End); tr != nil {
		el.TimeRange = tr
	}
	for i := range cf.Props {
		el.PropFilters = append(el.PropFilters, *encodePropFilter(&cf.Props[i]))
	}
	for i := range cf.Comps {
		el.CompFilters = append(el.CompFilters, *encodeCompFilter(&cf.Comps[i]))
	}
	return &el
}

func encodePropFilter(pf *PropFilter) *propFilter {
	el := propFilter{Name: pf.Name}
	if pf.IsNotDefined {
		el.IsNotDefined = &struct{}{}
	}
	if tr := encodeTimeRange(pf.Start, pf.End); tr != nil {
		el.TimeRange = tr
	}
	if pf.TextMatch != nil {
		el.TextMatch = encodeTextMatch(pf.TextMatch)
	}
	for i := range pf.ParamFilter {
		el.ParamFilter = append(el.ParamFilter, *encodeParamFilter(&pf.ParamFilter[i]))
	}
	return &el
}

func encodeParamFilter(pf *ParamFilter) *paramFilter {
	el := paramFilter{Name: pf.Name}
	if pf.IsNotDefined {
		el.IsNotDefined = &struct{}{}
	}
	if pf.TextMatch != nil {
		el.TextMatch = encodeTextMatch(pf.TextMatch)
	}
	return &el
}

func encodeTextMatch(tm *TextMatch) *textMatch {
	return &textMatch{
		Collation:       tm.Collation,
		MatchType:       tm.MatchType,
		NegateCondition: negateCondition(tm.NegateCondition),
		Text:            tm.Text,
	}
}

func encodeTimeRange(start, end time.Time) *timeRange {
	if start.IsZero() && end.IsZero() {
		return nil
	}
	return &timeRange{
		Start: dateWithUTCTime(start),
		End:   dateWithUTCTime(end),
	}
}
