package caldav

import (
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/cozy/go-caldav/internal"
)

// Default bounds applied when a time-range omits its start or end
// attribute. The calendar values are inherited as-is; see RFC 4791 section
// 9.9, which only requires the range to be bounded.
var (
	minDateTime = time.Date(1900, time.February, 1, 0, 0, 0, 0, time.UTC)
	maxDateTime = time.Date(3000, time.February, 1, 0, 0, 0, 0, time.UTC)
)

func clampTimeRange(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = minDateTime
	}
	if end.IsZero() {
		end = maxDateTime
	}
	return start, end
}

// matchCompTimeRange reports whether comp has an occurrence intersecting
// the half-open interval [start, end), following the per-component overlap
// rules of RFC 4791 section 9.9.
//
// Time-range filters are only legal on VEVENT, VTODO, VJOURNAL, VALARM and
// VFREEBUSY; any other component type is a 400 error. VFREEBUSY filtering
// is not implemented and fails with a 501 error rather than silently not
// matching.
func matchCompTimeRange(comp *ical.Component, start, end time.Time) (bool, error) {
	start, end = clampTimeRange(start, end)

	switch comp.Name {
	case ical.CompEvent:
		return eventInTimeRange(comp, start, end)
	case ical.CompToDo:
		return todoInTimeRange(comp, start, end)
	case ical.CompJournal:
		return journalInTimeRange(comp, start, end)
	case ical.CompAlarm:
		// VALARM time-range evaluation was never implemented; it
		// deliberately matches nothing instead of guessing.
		return false, nil
	case ical.CompFreeBusy:
		return false, internal.HTTPErrorf(http.StatusNotImplemented, "caldav: time-range filtering of VFREEBUSY components is not supported")
	default:
		return false, internal.HTTPErrorf(http.StatusBadRequest, "caldav: time-range filter is not allowed on %v components", comp.Name)
	}
}

// matchPropTimeRange reports whether a date property's instant falls within
// [start, end], inclusive on both ends. Only the date property types listed
// in RFC 4791 section 9.9 may carry a time-range filter.
func matchPropTimeRange(prop *ical.Prop, start, end time.Time) (bool, error) {
	switch prop.Name {
	case ical.PropCompleted, ical.PropCreated, ical.PropDateTimeEnd,
		ical.PropDateTimeStamp, ical.PropDateTimeStart, ical.PropDue,
		ical.PropLastModified:
		// single-instant date properties
	default:
		return false, internal.HTTPErrorf(http.StatusBadRequest, "caldav: time-range filter is not allowed on %v properties", prop.Name)
	}

	start, end = clampTimeRange(start, end)
	t, err := prop.DateTime(time.UTC)
	if err != nil {
		return false, err
	}
	return !t.Before(start) && !t.After(end), nil
}

func eventInTimeRange(comp *ical.Component, start, end time.Time) (bool, error) {
	event := ical.Event{Component: comp}
	eventStart, err := event.DateTimeStart(time.UTC)
	if err != nil {
		return false, err
	}
	eventEnd, err := event.DateTimeEnd(time.UTC)
	if err != nil {
		return false, err
	}
	duration := eventEnd.Sub(eventStart)

	rset, err := comp.RecurrenceSet(time.UTC)
	if err != nil {
		return false, err
	}
	if rset != nil {
		return recurrenceInTimeRange(rset, duration, start, end), nil
	}
	return spanInTimeRange(eventStart, eventEnd, start, end), nil
}

// todoInTimeRange implements the VTODO row of the RFC 4791 section 9.9
// table, falling back over DTSTART+DURATION, DUE, COMPLETED and CREATED
// depending on which properties the component carries. A VTODO with none
// of them overlaps every range.
func todoInTimeRange(comp *ical.Component, start, end time.Time) (bool, error) {
	dtstart, err := optionalDateTime(comp, ical.PropDateTimeStart)
	if err != nil {
		return false, err
	}
	due, err := optionalDateTime(comp, ical.PropDue)
	if err != nil {
		return false, err
	}

	var duration time.Duration
	hasDuration := false
	if prop := comp.Props.Get(ical.PropDuration); prop != nil {
		duration, err = prop.Duration()
		if err != nil {
			return false, err
		}
		hasDuration = true
	}

	switch {
	case !dtstart.IsZero() && hasDuration:
		span := dtstart.Add(duration)
		rset, err := comp.RecurrenceSet(time.UTC)
		if err != nil {
			return false, err
		}
		if rset != nil {
			return recurrenceInTimeRange(rset, duration, start, end), nil
		}
		return !start.After(span) && (end.After(dtstart) || !end.Before(span)), nil
	case !dtstart.IsZero() && !due.IsZero():
		return (start.Before(due) || !start.After(dtstart)) &&
			(end.After(dtstart) || !end.Before(due)), nil
	case !dtstart.IsZero():
		return !start.After(dtstart) && end.After(dtstart), nil
	case !due.IsZero():
		return start.Before(due) && !end.Before(due), nil
	}

	completed, err := optionalDateTime(comp, ical.PropCompleted)
	if err != nil {
		return false, err
	}
	created, err := optionalDateTime(comp, ical.PropCreated)
	if err != nil {
		return false, err
	}
	switch {
	case !completed.IsZero() && !created.IsZero():
		return (!start.After(created) || !start.After(completed)) &&
			(!end.Before(created) || !end.Before(completed)), nil
	case !completed.IsZero():
		return !start.After(completed) && !end.Before(completed), nil
	case !created.IsZero():
		return end.After(created), nil
	}
	return true, nil
}

// journalInTimeRange implements the VJOURNAL row of the RFC 4791 section
// 9.9 table: a date-valued DTSTART covers its whole day, a date-time one is
// a single instant, and a VJOURNAL without DTSTART never matches.
func journalInTimeRange(comp *ical.Component, start, end time.Time) (bool, error) {
	prop := comp.Props.Get(ical.PropDateTimeStart)
	if prop == nil {
		return false, nil
	}
	dtstart, err := prop.DateTime(time.UTC)
	if err != nil {
		return false, err
	}
	if prop.ValueType() == ical.ValueDate {
		return start.Before(dtstart.AddDate(0, 0, 1)) && end.After(dtstart), nil
	}
	return !start.After(dtstart) && end.After(dtstart), nil
}

// spanInTimeRange reports whether [spanStart, spanEnd) intersects
// [start, end). Zero-duration spans match when their instant falls inside
// the range, per the special case in the RFC 4791 section 9.9 table.
func spanInTimeRange(spanStart, spanEnd, start, end time.Time) bool {
	if !spanEnd.After(spanStart) {
		return !spanStart.Before(start) && spanStart.Before(end)
	}
	return spanStart.Before(end) && spanEnd.After(start)
}

// recurrenceInTimeRange expands just enough of a recurrence set to decide
// whether any occurrence intersects [start, end). The expansion window is
// widened back by the occurrence duration so that an instance starting
// before the range but still overlapping it is found.
func recurrenceInTimeRange(rset *rrule.Set, duration time.Duration, start, end time.Time) bool {
	from := start
	if duration > 0 {
		from = start.Add(-duration)
	}
	for _, o := range rset.Between(from, end, true) {
		if spanInTimeRange(o, o.Add(duration), start, end) {
			return true
		}
	}
	return false
}

func optionalDateTime(comp *ical.Component, name string) (time.Time, error) {
	prop := comp.Props.Get(name)
	if prop == nil {
		return time.Time{}, nil
	}
	return prop.DateTime(time.UTC)
}
