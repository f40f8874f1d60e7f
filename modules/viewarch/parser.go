package viewarch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse normalizes one declarative view document. The kind tag may come from
// the document (`kind`) or from the caller's hint; the hint wins when the two
// disagree and a warning is recorded. Parse never fails: the worst input
// yields the default view for the kind plus warnings.
func Parse(kindHint string, raw json.RawMessage) Result {
	var warnings []Warning

	doc := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			warnings = append(warnings, Warning{Path: "$", Message: "document is not a JSON object; defaults applied"})
			doc = map[string]any{}
		}
	} else {
		warnings = append(warnings, Warning{Path: "$", Message: "empty document; defaults applied"})
	}

	kind, ok := ParseKind(kindHint)
	if !ok {
		docKind, docOK := ParseKind(stringAt(doc, "kind", nil))
		if !docOK {
			warnings = append(warnings, Warning{Path: "$.kind", Message: "unknown view kind; defaulted to list"})
			docKind = KindList
		}
		kind = docKind
	} else if docKind, docOK := ParseKind(stringAt(doc, "kind", nil)); docOK && docKind != kind {
		warnings = append(warnings, Warning{Path: "$.kind", Message: fmt.Sprintf("document kind %q overridden by requested kind %q", docKind, kind)})
	}

	view := Normalized{Kind: kind}
	switch kind {
	case KindList:
		view.List = normalizeList(doc, &warnings)
	case KindForm:
		view.Form = normalizeForm(doc, &warnings)
	case KindKanban:
		view.Kanban = normalizeKanban(doc, &warnings)
	case KindPivot:
		view.Pivot = normalizePivot(doc, &warnings)
	case KindGraph:
		view.Graph = normalizeGraph(doc, &warnings)
	case KindCalendar:
		view.Calendar = normalizeCalendar(doc, &warnings)
	case KindGantt:
		view.Gantt = normalizeGantt(doc, &warnings)
	case KindActivity:
		view.Activity = normalizeActivity(doc, &warnings)
	case KindSearch:
		view.Search = normalizeSearch(doc, &warnings)
	}

	if warnings == nil {
		warnings = []Warning{}
	}
	return Result{View: view, Warnings: warnings}
}

func normalizeList(doc map[string]any, warnings *[]Warning) *ListView {
	view := &ListView{Columns: []Column{}}
	for i, item := range listAt(doc, "columns", warnings) {
		entry, ok := item.(map[string]any)
		if !ok {
			warn(warnings, fmt.Sprintf("$.columns[%d]", i), "column is not an object; skipped")
			continue
		}
		field := strings.TrimSpace(stringAt(entry, "field", warnings))
		if field == "" {
			warn(warnings, fmt.Sprintf("$.columns[%d].field", i), "column without field; skipped")
			continue
		}
		view.Columns = append(view.Columns, Column{
			Field:  field,
			Label:  strings.TrimSpace(stringAt(entry, "label", warnings)),
			Widget: strings.TrimSpace(stringAt(entry, "widget", warnings)),
		})
	}
	view.DefaultOrder = strings.TrimSpace(stringAt(doc, "default_order", warnings))
	view.Editable = boolAt(doc, "editable", false, warnings)
	return view
}

func normalizeForm(doc map[string]any, warnings *[]Warning) *FormView {
	view := &FormView{Sections: []FormSection{}}
	for i, item := range listAt(doc, "sections", warnings) {
		entry, ok := item.(map[string]any)
		if !ok {
			warn(warnings, fmt.Sprintf("$.sections[%d]", i), "section is not an object; skipped")
			continue
		}
		section := FormSection{
			Label:  strings.TrimSpace(stringAt(entry, "label", warnings)),
			Fields: stringListAt(entry, "fields", fmt.Sprintf("$.sections[%d].fields", i), warnings),
		}
		view.Sections = append(view.Sections, section)
	}
	return view
}

func normalizeActivity(doc map[string]any, warnings *[]Warning) *ActivityView {
	return &ActivityView{Fields: stringListAt(doc, "fields", "$.fields", warnings)}
}

// helpers

func warn(warnings *[]Warning, path string, message string) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, Warning{Path: path, Message: message})
}

// stringAt reads doc[key] as a string. A wrong-typed value records a warning
// (when warnings is non-nil) and yields "".
func stringAt(doc map[string]any, key string, warnings *[]Warning) string {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		warn(warnings, "$."+key, "expected string; defaulted")
		return ""
	}
	return s
}

func boolAt(doc map[string]any, key string, fallback bool, warnings *[]Warning) bool {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return fallback
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	warn(warnings, "$."+key, "expected bool; defaulted")
	return fallback
}

func listAt(doc map[string]any, key string, warnings *[]Warning) []any {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		warn(warnings, "$."+key, "expected list; defaulted to empty")
		return nil
	}
	return items
}

func stringListAt(doc map[string]any, key string, path string, warnings *[]Warning) []string {
	out := []string{}
	for i, item := range listAt(doc, key, warnings) {
		s, ok := item.(string)
		if !ok {
			warn(warnings, fmt.Sprintf("%s[%d]", path, i), "expected string; skipped")
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func objectAt(doc map[string]any, key string, warnings *[]Warning) map[string]any {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		warn(warnings, "$."+key, "expected object; ignored")
		return nil
	}
	return obj
}
