package types

import (
	"fmt"
	"strings"

	"github.com/jonathan/deck-agent/internal/matching"
)

// OutlineItemKind distinguishes content slides from the synthetic slides
// injected around them.
type OutlineItemKind string

// Outline item kinds.
const (
	// OutlineContent is a regular slide backed by document content.
	OutlineContent OutlineItemKind = "content"
	// OutlineFunctional is a synthetic structural slide (opening, table
	// of contents, ending).
	OutlineFunctional OutlineItemKind = "functional"
	// OutlineSectionDivider is a synthetic slide announcing a new section.
	OutlineSectionDivider OutlineItemKind = "section_divider"
)

// OutlineItem is one planned slide: its purpose, the document content it
// references, and the images it shows. Functional and section-divider items
// carry no content references; dividers carry the announced section name.
type OutlineItem struct {
	Kind    OutlineItemKind `json:"kind"`
	Purpose string          `json:"purpose"`
	Section string          `json:"section"`
	Indexes []SectionRef    `json:"indexes,omitempty"`
	Images  []string        `json:"images,omitempty"`
	// SectionName is set only for section dividers.
	SectionName string `json:"section_name,omitempty"`
}

// NewOutlineItem builds a content outline item, fuzzy-correcting every
// section title, subsection title, and image caption against the allowed
// sets from the source document. Constrained generation should already
// guarantee exact references; correction tolerates near-miss spellings
// when the model is not literal-constrained.
func NewOutlineItem(purpose, section string, indexes []SectionRef, images []string, allowed AllowedRefs) (OutlineItem, error) {
	item := OutlineItem{
		Kind:    OutlineContent,
		Purpose: purpose,
		Section: section,
	}
	for _, caption := range images {
		best, _, ok := matching.BestMatch(caption, allowed.Images)
		if !ok {
			return OutlineItem{}, fmt.Errorf("outline references image %q but the document has no media", caption)
		}
		item.Images = append(item.Images, best)
	}
	for _, ref := range indexes {
		secTitle := ref.Section
		if _, exists := allowed.Indexes[secTitle]; !exists {
			best, _, ok := matching.BestMatch(secTitle, allowed.Sections)
			if !ok {
				return OutlineItem{}, fmt.Errorf("outline references section %q but the document has no sections", secTitle)
			}
			secTitle = best
		}
		corrected := SectionRef{Section: secTitle}
		for _, sub := range ref.Subsections {
			if containsString(allowed.Indexes[secTitle], sub) {
				corrected.Subsections = append(corrected.Subsections, sub)
				continue
			}
			best, _, ok := matching.BestMatch(sub, allowed.Indexes[secTitle])
			if !ok {
				return OutlineItem{}, fmt.Errorf("outline references subsection %q but section %q has none", sub, secTitle)
			}
			corrected.Subsections = append(corrected.Subsections, best)
		}
		item.Indexes = append(item.Indexes, corrected)
	}
	return item, nil
}

// NewFunctionalItem builds a synthetic outline item for a functional layout.
func NewFunctionalItem(layoutName string) OutlineItem {
	return OutlineItem{Kind: OutlineFunctional, Purpose: layoutName, Section: "Functional"}
}

// NewSectionDividerItem builds a synthetic outline item announcing a section.
func NewSectionDividerItem(layoutName, sectionName string) OutlineItem {
	return OutlineItem{
		Kind:        OutlineSectionDivider,
		Purpose:     layoutName,
		Section:     "Functional",
		SectionName: sectionName,
	}
}

// Retrieve resolves the item's references against the source document and
// returns the slide header, the referenced paragraph text, and the image
// lines for the content prompt.
func (o *OutlineItem) Retrieve(slideIdx int, doc *Document) (header, content string, images []string, err error) {
	subsections, err := doc.Retrieve(o.Indexes)
	if err != nil {
		return "", "", nil, err
	}
	header = fmt.Sprintf("Slide-%d: %s\n", slideIdx+1, o.Purpose)
	var sb strings.Builder
	for _, subsec := range subsections {
		fmt.Fprintf(&sb, "Paragraph: %s\nContent: %s\n", subsec.Title, subsec.Content)
	}
	for _, caption := range o.Images {
		path, err := doc.FindCaption(caption)
		if err != nil {
			return "", "", nil, err
		}
		images = append(images, fmt.Sprintf("Image: %s\nCaption: %s", path, caption))
	}
	return header, sb.String(), images, nil
}

// Outline is the ordered slide plan; order is presentation slide order.
type Outline []OutlineItem

// SimpleOutline renders the outline as "Slide N: purpose" lines for
// inclusion in downstream prompts.
func (o Outline) SimpleOutline() string {
	lines := make([]string, len(o))
	for i, item := range o {
		lines[i] = fmt.Sprintf("Slide %d: %s", i+1, item.Purpose)
	}
	return strings.Join(lines, "\n")
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
