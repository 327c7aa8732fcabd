// Package presentation holds the minimal presentation object model the
// pipeline edits: slides with named shapes, HTML rendering for the coder,
// per-attempt cloning, and structural validation. Low-level shape/XML
// manipulation lives outside this repository; this model carries only what
// the edit API needs.
package presentation

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strings"
)

// Shape is one editable element on a slide, tied to a layout element by
// name. Text shapes carry paragraphs; image shapes carry a source path and
// caption.
type Shape struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Source     string   `json:"source,omitempty"`
	Caption    string   `json:"caption,omitempty"`
}

// SlidePage is one slide of the reference presentation, identified by its
// 1-indexed template id.
type SlidePage struct {
	TemplateID int     `json:"template_id"`
	Shapes     []Shape `json:"shapes"`
}

// Clone returns a deep copy of the slide. Every edit attempt works on a
// fresh clone so failed attempts never accumulate edits.
func (s *SlidePage) Clone() *SlidePage {
	clone := &SlidePage{TemplateID: s.TemplateID, Shapes: make([]Shape, len(s.Shapes))}
	for i, shape := range s.Shapes {
		copied := shape
		copied.Paragraphs = append([]string(nil), shape.Paragraphs...)
		clone.Shapes[i] = copied
	}
	return clone
}

// Shape looks up a shape by name.
func (s *SlidePage) Shape(name string) (*Shape, error) {
	for i := range s.Shapes {
		if s.Shapes[i].Name == name {
			return &s.Shapes[i], nil
		}
	}
	return nil, fmt.Errorf("shape not found on slide %d: %q", s.TemplateID, name)
}

// ToHTML renders the slide as an HTML-like structural description for the
// coding agent. Paragraph indexes are explicit because the edit API
// addresses paragraphs by index.
func (s *SlidePage) ToHTML() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<section data-template-id=\"%d\">\n", s.TemplateID)
	for _, shape := range s.Shapes {
		switch shape.Type {
		case "image":
			fmt.Fprintf(&sb, "  <img data-name=%q src=%q alt=%q/>\n",
				shape.Name, shape.Source, shape.Caption)
		default:
			fmt.Fprintf(&sb, "  <div data-name=%q>\n", shape.Name)
			for i, para := range shape.Paragraphs {
				fmt.Fprintf(&sb, "    <p data-index=\"%d\">%s</p>\n", i, html.EscapeString(para))
			}
			sb.WriteString("  </div>\n")
		}
	}
	sb.WriteString("</section>")
	return sb.String()
}

// Presentation is the ordered slide list of a reference template, 1-indexed
// by template id.
type Presentation struct {
	Slides []*SlidePage `json:"slides"`
}

// Slide returns the slide with the given 1-indexed template id.
func (p *Presentation) Slide(templateID int) (*SlidePage, error) {
	if templateID < 1 || templateID > len(p.Slides) {
		return nil, fmt.Errorf("template id out of range: %d (presentation has %d slides)", templateID, len(p.Slides))
	}
	return p.Slides[templateID-1], nil
}

// Clone returns a deep copy of the presentation.
func (p *Presentation) Clone() *Presentation {
	clone := &Presentation{Slides: make([]*SlidePage, len(p.Slides))}
	for i, slide := range p.Slides {
		clone.Slides[i] = slide.Clone()
	}
	return clone
}

// Validate checks an edited slide against the presentation's structural
// invariants: shape names must be unique and non-empty, image shapes must
// carry a source, and text shapes must keep at least one paragraph.
func (p *Presentation) Validate(slide *SlidePage) error {
	if slide == nil {
		return fmt.Errorf("edited slide is nil")
	}
	seen := make(map[string]bool, len(slide.Shapes))
	for _, shape := range slide.Shapes {
		if shape.Name == "" {
			return fmt.Errorf("slide %d: shape with empty name", slide.TemplateID)
		}
		if seen[shape.Name] {
			return fmt.Errorf("slide %d: duplicate shape name %q", slide.TemplateID, shape.Name)
		}
		seen[shape.Name] = true
		switch shape.Type {
		case "image":
			if shape.Source == "" {
				return fmt.Errorf("slide %d: image shape %q has no source", slide.TemplateID, shape.Name)
			}
		default:
			if len(shape.Paragraphs) == 0 {
				return fmt.Errorf("slide %d: text shape %q has no paragraphs", slide.TemplateID, shape.Name)
			}
		}
	}
	return nil
}

// FromJSON decodes a presentation from its serialized form.
func FromJSON(data []byte) (*Presentation, error) {
	var prs Presentation
	if err := json.Unmarshal(data, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse presentation: %w", err)
	}
	for i, slide := range prs.Slides {
		if slide.TemplateID == 0 {
			slide.TemplateID = i + 1
		}
	}
	return &prs, nil
}

// Load reads a presentation from a JSON file.
func Load(path string) (*Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation file: %w", err)
	}
	return FromJSON(data)
}
