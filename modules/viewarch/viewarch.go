// Package viewarch normalizes heterogeneous declarative view definitions
// into kind-specific shapes. Parsing prioritizes availability over
// strictness: malformed or missing input yields a fully defaulted view plus
// warnings, never an error.
package viewarch

import "strings"

type Kind string

const (
	KindList     Kind = "list"
	KindForm     Kind = "form"
	KindKanban   Kind = "kanban"
	KindPivot    Kind = "pivot"
	KindGraph    Kind = "graph"
	KindCalendar Kind = "calendar"
	KindGantt    Kind = "gantt"
	KindActivity Kind = "activity"
	KindSearch   Kind = "search"
)

func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindList:
		return KindList, true
	case KindForm:
		return KindForm, true
	case KindKanban:
		return KindKanban, true
	case KindPivot:
		return KindPivot, true
	case KindGraph:
		return KindGraph, true
	case KindCalendar:
		return KindCalendar, true
	case KindGantt:
		return KindGantt, true
	case KindActivity:
		return KindActivity, true
	case KindSearch:
		return KindSearch, true
	default:
		return "", false
	}
}

// Warning records a recoverable parse defect. The view it accompanies is
// always usable.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Decoration is a conditional styling rule. Parsed is true only when Raw
// compiled as a boolean expression; unparsed decorations are kept so the
// client can decide what to do with them.
type Decoration struct {
	ClassName string `json:"class_name"`
	Raw       string `json:"raw"`
	Parsed    bool   `json:"parsed"`
}

type Column struct {
	Field  string `json:"field"`
	Label  string `json:"label,omitempty"`
	Widget string `json:"widget,omitempty"`
}

type ListView struct {
	Columns      []Column `json:"columns"`
	DefaultOrder string   `json:"default_order,omitempty"`
	Editable     bool     `json:"editable"`
}

type FormSection struct {
	Label  string   `json:"label,omitempty"`
	Fields []string `json:"fields"`
}

type FormView struct {
	Sections []FormSection `json:"sections"`
}

type KanbanView struct {
	QuickCreate bool         `json:"quick_create"`
	GroupBy     string       `json:"group_by,omitempty"`
	Decorations []Decoration `json:"decorations"`
	Template    string       `json:"template,omitempty"`
}

type Measure struct {
	Name      string `json:"name"`
	Aggregate string `json:"aggregate"`
}

type Dimension struct {
	Name     string `json:"name"`
	Axis     string `json:"axis"`
	Interval string `json:"interval,omitempty"`
}

type PivotView struct {
	Measures   []Measure   `json:"measures"`
	Dimensions []Dimension `json:"dimensions"`
}

type GraphView struct {
	ChartType  string      `json:"chart_type"`
	Measures   []Measure   `json:"measures"`
	Dimensions []Dimension `json:"dimensions"`
}

type CalendarView struct {
	StartField   string       `json:"start_field"`
	StopField    string       `json:"stop_field,omitempty"`
	ColorField   string       `json:"color_field,omitempty"`
	DefaultScale string       `json:"default_scale"`
	Decorations  []Decoration `json:"decorations"`
}

type GanttView struct {
	StartField    string       `json:"start_field"`
	StopField     string       `json:"stop_field"`
	ProgressField string       `json:"progress_field,omitempty"`
	ColorField    string       `json:"color_field,omitempty"`
	DefaultScale  string       `json:"default_scale"`
	Decorations   []Decoration `json:"decorations"`
}

type ActivityView struct {
	Fields []string `json:"fields"`
}

type SearchFilter struct {
	Name       string `json:"name"`
	Label      string `json:"label,omitempty"`
	Domain     string `json:"domain,omitempty"`
	ContextRaw string `json:"context_raw,omitempty"`
}

type SearchFacets struct {
	Enabled bool `json:"enabled"`
}

type SearchView struct {
	Filters []SearchFilter `json:"filters"`
	GroupBy []string       `json:"group_by"`
	Facets  SearchFacets   `json:"facets"`
}

// Normalized holds exactly one populated variant matching Kind.
type Normalized struct {
	Kind     Kind          `json:"kind"`
	List     *ListView     `json:"list,omitempty"`
	Form     *FormView     `json:"form,omitempty"`
	Kanban   *KanbanView   `json:"kanban,omitempty"`
	Pivot    *PivotView    `json:"pivot,omitempty"`
	Graph    *GraphView    `json:"graph,omitempty"`
	Calendar *CalendarView `json:"calendar,omitempty"`
	Gantt    *GanttView    `json:"gantt,omitempty"`
	Activity *ActivityView `json:"activity,omitempty"`
	Search   *SearchView   `json:"search,omitempty"`
}

// Result always carries a usable view; Warnings surface what defaulting hid.
type Result struct {
	View     Normalized `json:"view"`
	Warnings []Warning  `json:"warnings"`
}

func (r Result) Degraded() bool { return len(r.Warnings) > 0 }
