package viewarch

import "strings"

const (
	defaultCalendarScale = "week"
	defaultGanttScale    = "month"
	defaultStartField    = "date_start"
	defaultStopField     = "date_stop"
)

var knownScales = map[string]struct{}{
	"day": {}, "week": {}, "month": {}, "year": {},
}

func normalizeCalendar(doc map[string]any, warnings *[]Warning) *CalendarView {
	view := &CalendarView{
		StartField:   strings.TrimSpace(stringAt(doc, "start_field", warnings)),
		StopField:    strings.TrimSpace(stringAt(doc, "stop_field", warnings)),
		ColorField:   strings.TrimSpace(stringAt(doc, "color_field", warnings)),
		DefaultScale: normalizeScale(doc, defaultCalendarScale, warnings),
		Decorations:  normalizeDecorations(doc, "$.decorations", warnings),
	}
	if view.StartField == "" {
		warn(warnings, "$.start_field", "missing start field; defaulted")
		view.StartField = defaultStartField
	}
	return view
}

func normalizeGantt(doc map[string]any, warnings *[]Warning) *GanttView {
	view := &GanttView{
		StartField:    strings.TrimSpace(stringAt(doc, "start_field", warnings)),
		StopField:     strings.TrimSpace(stringAt(doc, "stop_field", warnings)),
		ProgressField: strings.TrimSpace(stringAt(doc, "progress_field", warnings)),
		ColorField:    strings.TrimSpace(stringAt(doc, "color_field", warnings)),
		DefaultScale:  normalizeScale(doc, defaultGanttScale, warnings),
		Decorations:   normalizeDecorations(doc, "$.decorations", warnings),
	}
	if view.StartField == "" {
		warn(warnings, "$.start_field", "missing start field; defaulted")
		view.StartField = defaultStartField
	}
	if view.StopField == "" {
		warn(warnings, "$.stop_field", "missing stop field; defaulted")
		view.StopField = defaultStopField
	}
	return view
}

func normalizeScale(doc map[string]any, fallback string, warnings *[]Warning) string {
	scale := strings.ToLower(strings.TrimSpace(stringAt(doc, "default_scale", warnings)))
	if scale == "" {
		return fallback
	}
	if _, known := knownScales[scale]; !known {
		warn(warnings, "$.default_scale", "unknown scale; defaulted")
		return fallback
	}
	return scale
}
