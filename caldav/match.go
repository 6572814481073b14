package caldav

import (
	"net/http"

	"github.com/emersion/go-ical"

	"github.com/cozy/go-caldav/internal"
	"github.com/cozy/go-caldav/internal/collation"
)

// Filter returns the filtered list of calendar objects matching the provided
// query. A nil query will return the full list of calendar objects.
func Filter(query *CalendarQuery, cos []CalendarObject) ([]CalendarObject, error) {
	if query == nil {
		// FIXME: should we always return a copy of the provided slice?
		return cos, nil
	}

	var out []CalendarObject
	for _, co := range cos {
		ok, err := Match(query, &co)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, co)
	}
	return out, nil
}

// Match reports whether the provided calendar object matches the query. A
// nil query matches any object.
//
// An object that simply doesn't satisfy the filter is not an error. Match
// only fails on filter misuse: a time-range filter on a VFREEBUSY component
// (501) or on a component or property type that doesn't support one (400).
func Match(query *CalendarQuery, co *CalendarObject) (matched bool, err error) {
	if query == nil {
		return true, nil
	}
	if co.Data == nil || co.Data.Component == nil {
		panic("caldav: request to match empty calendar object")
	}

	// The top-level filter name must equal the object's root component
	// name. A mismatch is an ordinary negative result, whatever the
	// filter contains.
	if co.Data.Component.Name != query.CompFilter.Name {
		return false, nil
	}
	return matchSubFilters(&query.CompFilter, co.Data.Component)
}

// matchSubFilters evaluates the comp-filters and prop-filters nested in
// filter against comp, in declaration order, stopping at the first failure.
func matchSubFilters(filter *CompFilter, comp *ical.Component) (bool, error) {
	for i := range filter.Comps {
		ok, err := matchCompFilter(&filter.Comps[i], comp)
		if !ok || err != nil {
			return false, err
		}
	}
	for i := range filter.Props {
		ok, err := matchPropFilter(&filter.Props[i], comp)
		if !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

// checkPresence implements the is-not-defined rule shared by comp-filter,
// prop-filter and param-filter. Evaluation stops right away unless the
// named entity exists and the filter isn't negated; on the stop paths the
// verdict is the logical XOR of existence and negation, so the only stop
// combination that matches is "absent and negated".
func checkPresence(exists, isNotDefined bool) (stop, result bool) {
	stop = !(exists && !isNotDefined)
	result = exists != isNotDefined
	return stop, result
}

func matchCompFilter(filter *CompFilter, parent *ical.Component) (bool, error) {
	var children []*ical.Component
	for _, child := range parent.Children {
		if child.Name == filter.Name {
			children = append(children, child)
		}
	}
	if stop, result := checkPresence(len(children) > 0, filter.IsNotDefined); stop {
		return result, nil
	}

	if !filter.Start.IsZero() || !filter.End.IsZero() {
		// the time-range is satisfied as soon as any of the matching
		// children intersects it
		ok := false
		for _, child := range children {
			match, err := matchCompTimeRange(child, filter.Start, filter.End)
			if err != nil {
				return false, err
			}
			if match {
				ok = true
				break
			}
		}
		if !ok {
			return false, nil
		}
	}

	// Nested filters only consider the first matching child: at most one
	// occurrence of a component name is representative at a given level.
	return matchSubFilters(filter, children[0])
}

func matchPropFilter(filter *PropFilter, comp *ical.Component) (bool, error) {
	props := comp.Props.Values(filter.Name)
	if stop, result := checkPresence(len(props) > 0, filter.IsNotDefined); stop {
		return result, nil
	}

	// At least one instance of the property must satisfy all of the
	// filter's conditions. Note the asymmetry with matchCompFilter.
	for i := range props {
		ok, err := matchProp(filter, &props[i])
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func matchProp(filter *PropFilter, prop *ical.Prop) (bool, error) {
	if !filter.Start.IsZero() || !filter.End.IsZero() {
		ok, err := matchPropTimeRange(prop, filter.Start, filter.End)
		if !ok || err != nil {
			return false, err
		}
	}
	if filter.TextMatch != nil {
		ok, err := matchTextMatch(filter.TextMatch, prop.Value)
		if !ok || err != nil {
			return false, err
		}
	}
	for i := range filter.ParamFilter {
		ok, err := matchParamFilter(&filter.ParamFilter[i], prop)
		if !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

func matchParamFilter(filter *ParamFilter, prop *ical.Prop) (bool, error) {
	values := prop.Params.Values(filter.Name)
	if stop, result := checkPresence(len(values) > 0, filter.IsNotDefined); stop {
		return result, nil
	}
	if filter.TextMatch != nil {
		// only the first instance of the parameter is considered
		return matchTextMatch(filter.TextMatch, values[0])
	}
	return true, nil
}

func matchTextMatch(txt *TextMatch, value string) (bool, error) {
	ok, err := collation.Match(txt.Collation, txt.MatchType, value, txt.Text)
	if err != nil {
		return false, internal.HTTPErrorf(http.StatusBadRequest, "caldav: %v", err)
	}
	return ok != txt.NegateCondition, nil
}
