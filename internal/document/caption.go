package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/prompts"
	"github.com/jonathan/deck-agent/internal/types"
)

// CaptionMedia fills in the media's caption, dispatching on kind: tables
// are summarized from their markdown by the language model, pictures are
// described by the vision model. Already-captioned media is left alone.
func CaptionMedia(ctx context.Context, media *types.Media, models llm.ModelSet) error {
	if strings.TrimSpace(media.Caption) != "" {
		return nil
	}
	switch media.Kind {
	case types.MediaTable:
		prompt := prompts.Format(prompts.MustGet(promptFile, "caption_table"), map[string]string{
			"Table": media.Markdown,
		})
		caption, err := models.Language.GenerateContent(ctx, prompt, llm.TierLite)
		if err != nil {
			return fmt.Errorf("table captioning failed for %s: %w", media.Path, err)
		}
		media.Caption = strings.TrimSpace(caption)
		return nil

	case types.MediaPicture:
		prompt := prompts.MustGet(promptFile, "caption_picture")
		caption, err := models.Vision.GenerateVision(ctx, prompt, []string{media.Path}, llm.TierLite)
		if err != nil {
			return fmt.Errorf("image captioning failed for %s: %w", media.Path, err)
		}
		media.Caption = strings.TrimSpace(caption)
		return nil

	default:
		return fmt.Errorf("unknown media kind: %q", media.Kind)
	}
}
