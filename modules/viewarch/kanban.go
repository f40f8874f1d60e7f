package viewarch

import (
	"fmt"
	"strings"
)

func normalizeKanban(doc map[string]any, warnings *[]Warning) *KanbanView {
	view := &KanbanView{
		QuickCreate: boolAt(doc, "quick_create", true, warnings),
		GroupBy:     strings.TrimSpace(stringAt(doc, "group_by", warnings)),
		Decorations: normalizeDecorations(doc, "$.decorations", warnings),
		Template:    strings.TrimSpace(stringAt(doc, "template", warnings)),
	}
	return view
}

func normalizeDecorations(doc map[string]any, path string, warnings *[]Warning) []Decoration {
	out := []Decoration{}
	for i, item := range listAt(doc, "decorations", warnings) {
		entry, ok := item.(map[string]any)
		if !ok {
			warn(warnings, fmt.Sprintf("%s[%d]", path, i), "decoration is not an object; skipped")
			continue
		}
		className := strings.TrimSpace(stringAt(entry, "class", warnings))
		if className == "" {
			className = strings.TrimSpace(stringAt(entry, "class_name", warnings))
		}
		raw := strings.TrimSpace(stringAt(entry, "expr", warnings))
		if className == "" && raw == "" {
			warn(warnings, fmt.Sprintf("%s[%d]", path, i), "empty decoration; skipped")
			continue
		}
		decoration := compileDecoration(className, raw)
		if raw != "" && !decoration.Parsed {
			warn(warnings, fmt.Sprintf("%s[%d].expr", path, i), "expression did not compile; kept raw")
		}
		out = append(out, decoration)
	}
	return out
}
