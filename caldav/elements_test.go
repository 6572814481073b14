package caldav

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request body adapted from https://datatracker.ietf.org/doc/html/rfc4791#section-7.8.1
const timeRangeFilter = `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:comp-filter name="VEVENT">
      <C:time-range start="20060104T000000Z" end="20060105T000000Z"/>
    </C:comp-filter>
  </C:comp-filter>
</C:filter>`

// Request body adapted from https://datatracker.ietf.org/doc/html/rfc4791#section-7.8.7
const paramFilterBody = `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:comp-filter name="VEVENT">
      <C:prop-filter name="ATTENDEE">
        <C:text-match collation="i;ascii-casemap">mailto:lisa@example.com</C:text-match>
        <C:param-filter name="PARTSTAT">
          <C:text-match collation="i;ascii-casemap" negate-condition="yes">DECLINED</C:text-match>
        </C:param-filter>
      </C:prop-filter>
    </C:comp-filter>
  </C:comp-filter>
</C:filter>`

func TestDecodeFilter(t *testing.T) {
	t.Run("time-range", func(t *testing.T) {
		cf, err := DecodeFilter(strings.NewReader(timeRangeFilter))
		require.NoError(t, err)

		want := &CompFilter{
			Name: ical.CompCalendar,
			Comps: []CompFilter{{
				Name:  ical.CompEvent,
				Start: time.Date(2006, 1, 4, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2006, 1, 5, 0, 0, 0, 0, time.UTC),
			}},
		}
		assert.Equal(t, want, cf)
	})

	t.Run("param-filter", func(t *testing.T) {
		cf, err := DecodeFilter(strings.NewReader(paramFilterBody))
		require.NoError(t, err)

		want := &CompFilter{
			Name: ical.CompCalendar,
			Comps: []CompFilter{{
				Name: ical.CompEvent,
				Props: []PropFilter{{
					Name: ical.PropAttendee,
					TextMatch: &TextMatch{
						Text:      "mailto:lisa@example.com",
						Collation: "i;ascii-casemap",
					},
					ParamFilter: []ParamFilter{{
						Name: ical.ParamParticipationStatus,
						TextMatch: &TextMatch{
							Text:            "DECLINED",
							Collation:       "i;ascii-casemap",
							NegateCondition: true,
						},
					}},
				}},
			}},
		}
		assert.Equal(t, want, cf)
	})
}

func TestDecodeFilterInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
	}{
		{
			name: "is-not-defined with time-range",
			body: `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:comp-filter name="VEVENT">
      <C:is-not-defined/>
      <C:time-range start="20060104T000000Z"/>
    </C:comp-filter>
  </C:comp-filter>
</C:filter>`,
		},
		{
			name: "is-not-defined with text-match",
			body: `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:prop-filter name="SUMMARY">
      <C:is-not-defined/>
      <C:text-match>Meeting</C:text-match>
    </C:prop-filter>
  </C:comp-filter>
</C:filter>`,
		},
		{
			name: "is-not-defined with param text-match",
			body: `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:prop-filter name="ATTENDEE">
      <C:param-filter name="PARTSTAT">
        <C:is-not-defined/>
        <C:text-match>DECLINED</C:text-match>
      </C:param-filter>
    </C:prop-filter>
  </C:comp-filter>
</C:filter>`,
		},
		{
			name: "bad negate-condition",
			body: `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:prop-filter name="SUMMARY">
      <C:text-match negate-condition="maybe">Meeting</C:text-match>
    </C:prop-filter>
  </C:comp-filter>
</C:filter>`,
		},
		{
			name: "bad time-range date",
			body: `
<C:filter xmlns:C="urn:ietf:params:xml:ns:caldav">
  <C:comp-filter name="VCALENDAR">
    <C:comp-filter name="VEVENT">
      <C:time-range start="2006-01-04"/>
    </C:comp-filter>
  </C:comp-filter>
</C:filter>`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFilter(strings.NewReader(tc.body))
			assert.Error(t, err)
		})
	}
}

func TestEncodeFilterRoundTrip(t *testing.T) {
	orig := &CompFilter{
		Name: ical.CompCalendar,
		Comps: []CompFilter{
			{
				Name:  ical.CompEvent,
				Start: time.Date(2006, 1, 4, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2006, 1, 5, 0, 0, 0, 0, time.UTC),
				Props: []PropFilter{
					{
						Name: ical.PropSummary,
						TextMatch: &TextMatch{
							Text:            "Meeting",
							MatchType:       MatchContains,
							Collation:       "i;unicode-casemap",
							NegateCondition: true,
						},
					},
					{
						Name: ical.PropAttendee,
						ParamFilter: []ParamFilter{
							{Name: ical.ParamRole, IsNotDefined: true},
							{
								Name:      ical.ParamParticipationStatus,
								TextMatch: &TextMatch{Text: "ACCEPTED", MatchType: MatchEquals},
							},
						},
					},
					{
						Name:  ical.PropDateTimeStart,
						Start: time.Date(2006, 1, 4, 0, 0, 0, 0, time.UTC),
					},
				},
			},
			{Name: ical.CompToDo, IsNotDefined: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeFilter(&buf, orig))

	got, err := DecodeFilter(&buf)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}
