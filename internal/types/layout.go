package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Element is one editable element of a template layout. Data holds the
// element's original content on the template slide and serves as the
// baseline for the old-vs-new diff handed to the coder.
type Element struct {
	Name     string   `json:"name" validate:"required"`
	Type     string   `json:"type" validate:"oneof=text image"`
	Data     []string `json:"data"`
	Required bool     `json:"required"`
	// SuggestedCharacters caps the expected length of one data entry,
	// before the language length factor is applied. Zero means no cap.
	SuggestedCharacters int `json:"suggested_characters,omitempty"`
}

// Element type values.
const (
	ElementText  = "text"
	ElementImage = "image"
)

// Layout is a template slide's reusable shape schema: its name, the
// 1-indexed template slide it was induced from, and its element set.
type Layout struct {
	Title      string    `json:"title"`
	TemplateID int       `json:"template_id" validate:"gte=1"`
	Elements   []Element `json:"elements" validate:"min=1,dive"`
}

// Element looks up an element by name.
func (l *Layout) Element(name string) (*Element, error) {
	for i := range l.Elements {
		if l.Elements[i].Name == name {
			return &l.Elements[i], nil
		}
	}
	return nil, fmt.Errorf("element not found in layout %q: %q", l.Title, name)
}

// ElementNames returns the element names in schema order.
func (l *Layout) ElementNames() []string {
	names := make([]string, len(l.Elements))
	for i := range l.Elements {
		names[i] = l.Elements[i].Name
	}
	return names
}

// ContentSchema renders the element set as indented JSON for generation
// prompts.
func (l *Layout) ContentSchema() string {
	data, err := json.MarshalIndent(l.Elements, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// Validate checks generated content against the layout's schema: every key
// must name a known element, every required element must be present, and
// text entries must be non-empty.
func (l *Layout) Validate(output EditorOutput) error {
	for name, element := range output {
		if _, err := l.Element(name); err != nil {
			return fmt.Errorf("generated content: %w", err)
		}
		for i, item := range element.Data {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("generated content: element %q has empty entry at index %d", name, i)
			}
		}
	}
	for i := range l.Elements {
		element := &l.Elements[i]
		if !element.Required {
			continue
		}
		if out, ok := output[element.Name]; !ok || len(out.Data) == 0 {
			return fmt.Errorf("generated content: required element %q is missing", element.Name)
		}
	}
	return nil
}

// IsMultimodal reports whether the layout contains an image element.
func (l *Layout) IsMultimodal() bool {
	for i := range l.Elements {
		if l.Elements[i].Type == ElementImage {
			return true
		}
	}
	return false
}

// textMarker is the naming convention separating pure-text layouts from
// multimodal ones in the induction set.
const textMarker = ":text"

// LayoutSet is the template's induced layout universe plus its declared
// functional layouts and reference language.
type LayoutSet struct {
	Layouts        map[string]Layout
	FunctionalKeys []string
	Language       Language
}

// TextLayouts returns the names of pure-text, non-functional layouts. If
// the template induces none, the multimodal set stands in for it.
func (s *LayoutSet) TextLayouts() []string {
	text, multimodal := s.partition()
	if len(text) == 0 {
		return multimodal
	}
	return text
}

// MultimodalLayouts returns the names of non-functional layouts with image
// elements. If the template induces none, the text set stands in for it.
func (s *LayoutSet) MultimodalLayouts() []string {
	text, multimodal := s.partition()
	if len(multimodal) == 0 {
		return text
	}
	return multimodal
}

// ContentLayouts returns all non-functional layout names.
func (s *LayoutSet) ContentLayouts() []string {
	text, multimodal := s.partition()
	return append(text, multimodal...)
}

// AllNames returns every layout name, functional ones included.
func (s *LayoutSet) AllNames() []string {
	return sortedKeys(s.Layouts)
}

func (s *LayoutSet) partition() (text, multimodal []string) {
	functional := make(map[string]bool, len(s.FunctionalKeys))
	for _, k := range s.FunctionalKeys {
		functional[k] = true
	}
	// Map iteration order is randomized; keep a stable order for prompts.
	for _, name := range sortedKeys(s.Layouts) {
		if functional[name] {
			continue
		}
		if strings.HasSuffix(name, textMarker) {
			text = append(text, name)
		} else {
			multimodal = append(multimodal, name)
		}
	}
	return text, multimodal
}

func sortedKeys(layouts map[string]Layout) []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
