package outline

import (
	"github.com/jonathan/deck-agent/internal/matching"
	"github.com/jonathan/deck-agent/internal/types"
)

// Canonical purposes matched against the layout set's functional layout
// names when injecting synthetic slides.
const (
	PurposeOpening        = "opening"
	PurposeTOC            = "table of contents"
	PurposeSectionOutline = "section outline"
	PurposeEnding         = "ending"
)

// InjectFunctionalLayouts surrounds a content outline with synthetic
// slides: a section divider before each new section, then the table of
// contents and the opening at the front and the ending at the back.
// Each synthetic slide is only injected when the layout set has a
// functional layout whose name matches the canonical purpose above the
// similarity threshold; missing layouts are silently omitted. Injection
// is idempotent: already-present synthetic slides are not duplicated.
func InjectFunctionalLayouts(outline types.Outline, layouts *types.LayoutSet, threshold float64) types.Outline {
	functional := make([]string, 0, len(layouts.FunctionalKeys))
	for _, key := range layouts.FunctionalKeys {
		if _, ok := layouts.Layouts[key]; ok {
			functional = append(functional, key)
		}
	}

	out := make(types.Outline, 0, len(outline)+len(outline)/2+3)
	out = append(out, outline...)

	if divider, ok := matchFunctional(PurposeSectionOutline, functional, threshold); ok {
		out = injectSectionDividers(out, divider)
	}
	if toc, ok := matchFunctional(PurposeTOC, functional, threshold); ok {
		out = injectAt(out, types.NewFunctionalItem(toc), 0)
	}
	if opening, ok := matchFunctional(PurposeOpening, functional, threshold); ok {
		out = injectAt(out, types.NewFunctionalItem(opening), 0)
	}
	if ending, ok := matchFunctional(PurposeEnding, functional, threshold); ok {
		out = injectAt(out, types.NewFunctionalItem(ending), len(out))
	}
	return out
}

// matchFunctional finds the functional layout name closest to a canonical
// purpose, requiring similarity above the threshold.
func matchFunctional(purpose string, functional []string, threshold float64) (string, bool) {
	best, score, ok := matching.BestMatch(purpose, functional)
	if !ok || score <= threshold {
		return "", false
	}
	return best, true
}

// injectAt inserts the item unless an equal synthetic slide is already in
// the outline.
func injectAt(outline types.Outline, item types.OutlineItem, pos int) types.Outline {
	for _, existing := range outline {
		if existing.Kind == item.Kind && existing.Purpose == item.Purpose && existing.SectionName == item.SectionName {
			return outline
		}
	}
	outline = append(outline, types.OutlineItem{})
	copy(outline[pos+1:], outline[pos:])
	outline[pos] = item
	return outline
}

// injectSectionDividers places a divider before the first content slide of
// each section, walking back to front so insertion does not disturb
// positions still to visit.
func injectSectionDividers(outline types.Outline, dividerLayout string) types.Outline {
	for i := len(outline) - 1; i >= 0; i-- {
		if outline[i].Kind != types.OutlineContent {
			continue
		}
		section := outline[i].Section
		if prev := previousContentSection(outline, i); prev == section {
			continue
		}
		if i > 0 && outline[i-1].Kind == types.OutlineSectionDivider && outline[i-1].SectionName == section {
			continue
		}
		outline = injectAt(outline, types.NewSectionDividerItem(dividerLayout, section), i)
	}
	return outline
}

func previousContentSection(outline types.Outline, idx int) string {
	for i := idx - 1; i >= 0; i-- {
		if outline[i].Kind == types.OutlineContent {
			return outline[i].Section
		}
	}
	return ""
}
