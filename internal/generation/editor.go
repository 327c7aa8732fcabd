package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/executor"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/presentation"
	"github.com/jonathan/deck-agent/internal/types"
)

// editSlide asks the coder for edit-action code applying the commands to
// the template slide, then executes it. Every attempt starts from a fresh
// clone of the template slide so a failed attempt leaves no partial edits.
// Exhausting the retry budget fails the slide.
func (w *Worker) editSlide(ctx context.Context, doc *types.Document, templateID int, commands []types.Command) (*presentation.SlidePage, error) {
	template, err := w.Reference.Slide(templateID)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(commands))
	for i, cmd := range commands {
		lines[i] = cmd.String()
	}

	coder := w.Staff[agent.RoleCoder]
	code, err := coder.Call(ctx, map[string]string{
		"APIDocs":     w.exec.APIDocs(),
		"EditTarget":  template.ToHTML(),
		"CommandList": strings.Join(lines, "\n"),
	})
	if err != nil {
		return nil, err
	}

	var feedback *executor.Feedback
	for attempt := 0; attempt < w.RetryTimes; attempt++ {
		if attempt > 0 {
			code, err = coder.Retry(ctx, feedback.Message, feedback.Traceback, nil)
			if err != nil {
				return nil, err
			}
		}
		slide := template.Clone()
		feedback = w.exec.ExecuteActions(llm.CleanCodeBlock(code), slide, doc)
		if feedback == nil {
			if verr := w.Reference.Validate(slide); verr != nil {
				feedback = &executor.Feedback{Message: verr.Error(), Traceback: ""}
				continue
			}
			return slide, nil
		}
	}
	return nil, fmt.Errorf("slide editing on template %d failed after %d attempts: %s", templateID, w.RetryTimes, feedback.Message)
}
