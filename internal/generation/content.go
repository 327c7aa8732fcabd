package generation

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/prompts"
	"github.com/jonathan/deck-agent/internal/schemas"
	"github.com/jonathan/deck-agent/internal/types"
)

const promptFile = "roles.json"

// generateContent asks the editor for schema-conforming slide content and
// validates it against the layout, retrying with error feedback up to the
// configured retry budget. Exhausting the budget fails the slide.
func (w *Worker) generateContent(ctx context.Context, doc *types.Document, outline types.Outline, layout *types.Layout, header, content string) (types.EditorOutput, error) {
	editor := w.Staff[agent.RoleEditor]
	language := w.Language
	if language == "" {
		language = doc.Language.Lid
	}

	schema := schemas.BuildEditorSchema(layout.ElementNames())
	response, err := editor.CallJSON(ctx, map[string]string{
		"Outline":          outline.SimpleOutline(),
		"SlideDescription": header,
		"Metadata":         doc.Metainfo(),
		"SlideContent":     content,
		"Schema":           layout.ContentSchema(),
		"Language":         language,
	}, schema)

	for attempt := 0; ; attempt++ {
		if err == nil {
			var output types.EditorOutput
			output, err = types.ParseEditorOutput(response)
			if err == nil {
				if err = layout.Validate(output); err == nil {
					if err := w.applyLengthBudget(ctx, layout, output); err != nil {
						return nil, err
					}
					return output, nil
				}
			}
		}
		if attempt >= w.RetryTimes {
			return nil, fmt.Errorf("content generation for layout %q failed after %d retries: %w", layout.Title, w.RetryTimes, err)
		}
		response, err = editor.Retry(ctx, err.Error(), "", schema)
	}
}

// applyLengthBudget rewrites entries whose length falls outside their
// element's character budget, scaled by the language length factor. An
// entry is oversized above the budget and undersized below half of it;
// within the band it stands. Rewrites are best effort adjustments, not
// validation failures.
func (w *Worker) applyLengthBudget(ctx context.Context, layout *types.Layout, output types.EditorOutput) error {
	if w.LengthFactor <= 0 {
		return nil
	}
	for name, data := range output {
		element, err := layout.Element(name)
		if err != nil || element.SuggestedCharacters <= 0 {
			continue
		}
		budget := int(float64(element.SuggestedCharacters) * w.LengthFactor)
		changed := false
		for i, text := range data.Data {
			length := utf8.RuneCountInString(text)
			if length <= budget && length*2 >= budget {
				continue
			}
			rewritten, err := w.rewriteLength(ctx, text, budget)
			if err != nil {
				return err
			}
			data.Data[i] = rewritten
			changed = true
		}
		if changed {
			output[name] = data
		}
	}
	return nil
}

func (w *Worker) rewriteLength(ctx context.Context, text string, budget int) (string, error) {
	prompt := prompts.Format(prompts.MustGet(promptFile, "length_rewrite"), map[string]string{
		"TargetLength": strconv.Itoa(budget),
		"Text":         text,
	})
	rewritten, err := w.Models.Language.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("length rewrite failed: %w", err)
	}
	return rewritten, nil
}
