package viewarch

import (
	"fmt"
	"strings"
)

const (
	defaultAggregate = "sum"
	defaultInterval  = "month"
)

var knownAggregates = map[string]struct{}{
	"sum": {}, "avg": {}, "min": {}, "max": {}, "count": {},
}

var knownIntervals = map[string]struct{}{
	"day": {}, "week": {}, "month": {}, "quarter": {}, "year": {},
}

func normalizePivot(doc map[string]any, warnings *[]Warning) *PivotView {
	return &PivotView{
		Measures:   normalizeMeasures(doc, warnings),
		Dimensions: normalizeDimensions(doc, "row", warnings),
	}
}

func normalizeGraph(doc map[string]any, warnings *[]Warning) *GraphView {
	chartType := strings.ToLower(strings.TrimSpace(stringAt(doc, "chart_type", warnings)))
	switch chartType {
	case "bar", "line", "pie":
	case "":
		chartType = "bar"
	default:
		warn(warnings, "$.chart_type", "unknown chart type; defaulted to bar")
		chartType = "bar"
	}
	return &GraphView{
		ChartType:  chartType,
		Measures:   normalizeMeasures(doc, warnings),
		Dimensions: normalizeDimensions(doc, "x", warnings),
	}
}

// normalizeMeasures keeps input order; unknown aggregates default to sum.
func normalizeMeasures(doc map[string]any, warnings *[]Warning) []Measure {
	out := []Measure{}
	for i, item := range listAt(doc, "measures", warnings) {
		entry, ok := item.(map[string]any)
		if !ok {
			// A bare string measure means "sum of this field".
			if name, isString := item.(string); isString && strings.TrimSpace(name) != "" {
				out = append(out, Measure{Name: strings.TrimSpace(name), Aggregate: defaultAggregate})
				continue
			}
			warn(warnings, fmt.Sprintf("$.measures[%d]", i), "measure is not an object; skipped")
			continue
		}
		name := strings.TrimSpace(stringAt(entry, "name", warnings))
		if name == "" {
			warn(warnings, fmt.Sprintf("$.measures[%d].name", i), "measure without name; skipped")
			continue
		}
		aggregate := strings.ToLower(strings.TrimSpace(stringAt(entry, "aggregate", warnings)))
		if _, known := knownAggregates[aggregate]; !known {
			if aggregate != "" {
				warn(warnings, fmt.Sprintf("$.measures[%d].aggregate", i), "unknown aggregate; defaulted to sum")
			}
			aggregate = defaultAggregate
		}
		out = append(out, Measure{Name: name, Aggregate: aggregate})
	}
	return out
}

func normalizeDimensions(doc map[string]any, defaultAxis string, warnings *[]Warning) []Dimension {
	out := []Dimension{}
	for i, item := range listAt(doc, "dimensions", warnings) {
		entry, ok := item.(map[string]any)
		if !ok {
			if name, isString := item.(string); isString && strings.TrimSpace(name) != "" {
				out = append(out, Dimension{Name: strings.TrimSpace(name), Axis: defaultAxis})
				continue
			}
			warn(warnings, fmt.Sprintf("$.dimensions[%d]", i), "dimension is not an object; skipped")
			continue
		}
		name := strings.TrimSpace(stringAt(entry, "name", warnings))
		if name == "" {
			warn(warnings, fmt.Sprintf("$.dimensions[%d].name", i), "dimension without name; skipped")
			continue
		}
		axis := strings.ToLower(strings.TrimSpace(stringAt(entry, "axis", warnings)))
		if axis == "" {
			axis = defaultAxis
		}
		dimension := Dimension{Name: name, Axis: axis}
		if interval := strings.ToLower(strings.TrimSpace(stringAt(entry, "interval", warnings))); interval != "" {
			if _, known := knownIntervals[interval]; !known {
				warn(warnings, fmt.Sprintf("$.dimensions[%d].interval", i), "unknown interval; defaulted to month")
				interval = defaultInterval
			}
			dimension.Interval = interval
		}
		out = append(out, dimension)
	}
	return out
}
