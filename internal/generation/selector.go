// Package generation produces individual slides: it gathers each outline
// item's content, selects a layout, generates schema-conforming content,
// and drives the code-edit loop that applies it to a template slide.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/executor"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/matching"
	outlinepkg "github.com/jonathan/deck-agent/internal/outline"
	"github.com/jonathan/deck-agent/internal/presentation"
	"github.com/jonathan/deck-agent/internal/schemas"
	"github.com/jonathan/deck-agent/internal/types"
)

// Params configures a slide worker. One worker serves one slide; its
// executor log is merged into the run history in outline order.
type Params struct {
	// Staff must be owned by this worker alone: feedback retries replay an
	// agent's last exchange, which has to be this slide's.
	Staff     agent.Staff
	Models    llm.ModelSet
	Layouts   *types.LayoutSet
	Reference *presentation.Presentation

	RetryTimes          int
	SimilarityThreshold float64
	// Language overrides the document language for generated text when
	// non-empty.
	Language string
	// LengthFactor scales the per-element character caps. Zero disables
	// length rewriting.
	LengthFactor float64
}

// Worker generates one slide end to end.
type Worker struct {
	Params
	exec *executor.CodeExecutor
}

// NewWorker creates a slide worker with a fresh executor log. A retry
// budget below one means a single attempt.
func NewWorker(p Params) *Worker {
	if p.RetryTimes < 1 {
		p.RetryTimes = 1
	}
	return &Worker{Params: p, exec: executor.New(p.RetryTimes)}
}

// Executor exposes the worker's code-edit log for history aggregation.
func (w *Worker) Executor() *executor.CodeExecutor {
	return w.exec
}

// GenerateSlide runs the full per-slide chain for the outline item at idx:
// source gathering, layout selection, content generation, and code editing.
func (w *Worker) GenerateSlide(ctx context.Context, doc *types.Document, outline types.Outline, idx int) (*presentation.SlidePage, error) {
	item := &outline[idx]

	var layout *types.Layout
	var header, content string
	var err error
	if item.Kind == types.OutlineContent {
		var images []string
		header, content, images, err = w.gatherSource(ctx, item, idx, doc)
		if err != nil {
			return nil, err
		}
		layout, err = w.selectLayout(ctx, outline, header, content, images)
		if err != nil {
			return nil, err
		}
		if !layout.IsMultimodal() && len(images) > 0 {
			// Selected a pure-text layout for an image-bearing slide;
			// drop the image block rather than fail.
			log.Printf("slide %d: layout %q has no image element, dropping %d image(s)", idx+1, layout.Title, len(images))
			content = stripImageBlock(content)
		} else if layout.IsMultimodal() && len(images) == 0 {
			log.Printf("slide %d: layout %q has an image element but the slide shows no image", idx+1, layout.Title)
		}
	} else {
		layout, header, content, err = w.functionalSource(item, idx, doc, outline)
		if err != nil {
			return nil, err
		}
	}

	output, err := w.generateContent(ctx, doc, outline, layout, header, content)
	if err != nil {
		return nil, err
	}
	commands, templateID := types.BuildCommands(layout, output)
	return w.editSlide(ctx, doc, templateID, commands)
}

// gatherSource resolves the item's references and reorganizes the
// referenced text into key points, appending the image block when the
// item shows images.
func (w *Worker) gatherSource(ctx context.Context, item *types.OutlineItem, idx int, doc *types.Document) (header, content string, images []string, err error) {
	header, raw, images, err := item.Retrieve(idx, doc)
	if err != nil {
		return "", "", nil, err
	}

	var sb strings.Builder
	sb.WriteString(header)
	if strings.TrimSpace(raw) != "" {
		organizer := w.Staff[agent.RoleContentOrganizer]
		response, err := organizer.CallJSON(ctx, map[string]string{"ContentSource": raw}, schemas.BuildKeyPointsSchema())
		if err != nil {
			return "", "", nil, err
		}
		var parsed struct {
			KeyPoints []string `json:"key_points"`
		}
		if err := json.Unmarshal([]byte(response), &parsed); err != nil {
			return "", "", nil, fmt.Errorf("content organizer returned malformed JSON: %w", err)
		}
		for _, point := range parsed.KeyPoints {
			sb.WriteString("- ")
			sb.WriteString(point)
			sb.WriteString("\n")
		}
	}
	if len(images) > 0 {
		sb.WriteString("\nImages:\n")
		sb.WriteString(strings.Join(images, "\n"))
	}
	return header, sb.String(), images, nil
}

// selectLayout asks the layout selector to pick from the candidate set:
// multimodal layouts for image-bearing slides, text layouts otherwise.
// The response is fuzzy-resolved against the full layout universe so a
// near-miss name still lands on a real layout.
func (w *Worker) selectLayout(ctx context.Context, outline types.Outline, header, content string, images []string) (*types.Layout, error) {
	candidates := w.Layouts.TextLayouts()
	if len(images) > 0 {
		candidates = w.Layouts.MultimodalLayouts()
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("layout set has no content layouts")
	}

	selector := w.Staff[agent.RoleLayoutSelector]
	response, err := selector.CallJSON(ctx, map[string]string{
		"Outline":          outline.SimpleOutline(),
		"SlideDescription": header,
		"SlideContent":     content,
		"AvailableLayouts": strings.Join(candidates, "\n"),
	}, schemas.BuildChoiceSchema(candidates))
	if err != nil {
		return nil, err
	}
	var choice struct {
		Layout string `json:"layout"`
	}
	if err := json.Unmarshal([]byte(response), &choice); err != nil {
		return nil, fmt.Errorf("layout selector returned malformed JSON: %w", err)
	}

	name, _, ok := matching.BestMatch(choice.Layout, w.Layouts.AllNames())
	if !ok {
		return nil, fmt.Errorf("layout set is empty")
	}
	layout, found := w.Layouts.Layouts[name]
	if !found {
		return nil, fmt.Errorf("selected layout not in layout set: %q", name)
	}
	return &layout, nil
}

// functionalDescriptions instructs the editor per functional slide role;
// the matching description is appended to the slide header.
var functionalDescriptions = map[string]string{
	outlinepkg.PurposeOpening: "This slide is a presentation opening, presenting available meta information, like title, author, date, etc.",
	outlinepkg.PurposeTOC:     "This slide is the Table of Contents, outlining the presentation's sections. Please use the given Table of Contents, and remove numbering to generate the slide content.",
	outlinepkg.PurposeSectionOutline: "This slide is a section start, briefly presenting the section title, and optionally the section summary. " +
		"Note that you should remove the numbering of the section title.",
	outlinepkg.PurposeEnding: "This slide is an *ending slide*, simply express your gratitude like 'Thank you!' as the main title and *do not* include other meta information if not specified.",
}

const genericFunctionalContent = "This slide is a functional layout, please follow the slide description and content schema to generate the slide content."

// functionalSource builds the content for synthetic slides. The item's
// purpose names the functional layout directly; no selection runs. Section
// dividers get the document overview with summaries, the table of contents
// gets the content-section list, and opening/ending get a generic
// instruction with the role description carrying the specifics.
func (w *Worker) functionalSource(item *types.OutlineItem, idx int, doc *types.Document, outline types.Outline) (*types.Layout, string, string, error) {
	layout, ok := w.Layouts.Layouts[item.Purpose]
	if !ok {
		return nil, "", "", fmt.Errorf("functional layout not in layout set: %q", item.Purpose)
	}

	role := functionalRole(item)
	var header, content string
	switch role {
	case outlinepkg.PurposeSectionOutline:
		header = fmt.Sprintf("Slide-%d: Section Outline of %s\n", idx+1, item.SectionName)
		content = "Overview of the Document:\n" + doc.Overview(true, false)
	case outlinepkg.PurposeTOC:
		header = fmt.Sprintf("Slide-%d: %s\n", idx+1, item.Purpose)
		content = "Table of Contents:\n" + strings.Join(contentSections(outline), "\n")
	default:
		header = fmt.Sprintf("Slide-%d: %s\n", idx+1, item.Purpose)
		content = genericFunctionalContent
	}
	header += functionalDescriptions[role]
	return &layout, header, content, nil
}

// functionalRole resolves the item to its canonical functional role. The
// layout name may deviate from the canonical spelling since injection
// matches it fuzzily.
func functionalRole(item *types.OutlineItem) string {
	if item.Kind == types.OutlineSectionDivider {
		return outlinepkg.PurposeSectionOutline
	}
	roles := []string{
		outlinepkg.PurposeOpening,
		outlinepkg.PurposeTOC,
		outlinepkg.PurposeSectionOutline,
		outlinepkg.PurposeEnding,
	}
	best, _, ok := matching.BestMatch(item.Purpose, roles)
	if !ok {
		return ""
	}
	return best
}

// contentSections returns the distinct sections of the content slides in
// first-seen order.
func contentSections(outline types.Outline) []string {
	seen := make(map[string]bool)
	var sections []string
	for _, item := range outline {
		if item.Kind != types.OutlineContent || seen[item.Section] {
			continue
		}
		seen[item.Section] = true
		sections = append(sections, item.Section)
	}
	return sections
}

// stripImageBlock removes the trailing image listing added by gatherSource.
func stripImageBlock(content string) string {
	if idx := strings.LastIndex(content, "\nImages:\n"); idx >= 0 {
		return content[:idx]
	}
	return content
}
