package viewarch

import (
	"fmt"
	"strings"
)

func normalizeSearch(doc map[string]any, warnings *[]Warning) *SearchView {
	view := &SearchView{
		Filters: []SearchFilter{},
		GroupBy: []string{},
	}

	for i, item := range listAt(doc, "filters", warnings) {
		entry, ok := item.(map[string]any)
		if !ok {
			warn(warnings, fmt.Sprintf("$.filters[%d]", i), "filter is not an object; skipped")
			continue
		}
		name := strings.TrimSpace(stringAt(entry, "name", warnings))
		if name == "" {
			warn(warnings, fmt.Sprintf("$.filters[%d].name", i), "filter without name; skipped")
			continue
		}
		view.Filters = append(view.Filters, SearchFilter{
			Name:       name,
			Label:      strings.TrimSpace(stringAt(entry, "label", warnings)),
			Domain:     strings.TrimSpace(stringAt(entry, "domain", warnings)),
			ContextRaw: strings.TrimSpace(stringAt(entry, "context", warnings)),
		})
	}

	// Group-by fields: deduplicated, first-seen order preserved.
	seen := make(map[string]struct{})
	for _, field := range stringListAt(doc, "group_by", "$.group_by", warnings) {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		view.GroupBy = append(view.GroupBy, field)
	}

	if facets := objectAt(doc, "facets", warnings); facets != nil {
		view.Facets.Enabled = boolAt(facets, "enabled", false, warnings)
	}
	return view
}

// MergeSearch unions an override search definition into a base one. Filters
// deduplicate on the (name, label, domain, context) 4-tuple; group-by fields
// deduplicate preserving first-seen order; facets enable if either side is
// enabled.
func MergeSearch(base SearchView, override SearchView) SearchView {
	merged := SearchView{
		Filters: []SearchFilter{},
		GroupBy: []string{},
		Facets:  SearchFacets{Enabled: base.Facets.Enabled || override.Facets.Enabled},
	}

	seenFilters := make(map[string]struct{})
	appendFilter := func(f SearchFilter) {
		key := strings.Join([]string{f.Name, f.Label, f.Domain, f.ContextRaw}, "\x1f")
		if _, dup := seenFilters[key]; dup {
			return
		}
		seenFilters[key] = struct{}{}
		merged.Filters = append(merged.Filters, f)
	}
	for _, f := range base.Filters {
		appendFilter(f)
	}
	for _, f := range override.Filters {
		appendFilter(f)
	}

	seenGroupBy := make(map[string]struct{})
	appendGroupBy := func(field string) {
		field = strings.TrimSpace(field)
		if field == "" {
			return
		}
		if _, dup := seenGroupBy[field]; dup {
			return
		}
		seenGroupBy[field] = struct{}{}
		merged.GroupBy = append(merged.GroupBy, field)
	}
	for _, field := range base.GroupBy {
		appendGroupBy(field)
	}
	for _, field := range override.GroupBy {
		appendGroupBy(field)
	}

	return merged
}
