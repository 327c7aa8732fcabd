package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/types"
)

func TestFromMarkdown(t *testing.T) {
	imageDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "chart.png"), []byte("png"), 0o644))

	markdown := `# Introduction

The report covers fiscal year results.

# Results

![revenue chart](chart.png)

Q4 was the strongest quarter.
`

	client := &fakeClient{
		respond: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Markdown chunk") && strings.Contains(prompt, "# Introduction"):
				return `{"title": "Introduction", "summary": "What the report covers.", "subsections": [{"title": "Scope", "content": "Fiscal year results."}], "metadata": [{"name": "title", "value": "Annual Report"}]}`, nil
			case strings.Contains(prompt, "Markdown chunk") && strings.Contains(prompt, "# Results"):
				return `{"title": "Results", "summary": "Detailed figures.", "subsections": [{"title": "Quarterly", "content": "Q4 was strongest."}], "metadata": []}`, nil
			case strings.Contains(prompt, "metadata reconciler") || strings.Contains(prompt, "Metadata records"):
				return `{"metadata": [{"name": "title", "value": "Annual Report"}]}`, nil
			default:
				return "", fmt.Errorf("unexpected prompt: %.80s", prompt)
			}
		},
		vision: func(_ string, imagePaths []string) (string, error) {
			require.Len(t, imagePaths, 1)
			return "Revenue growth chart", nil
		},
	}
	models := llm.ModelSet{Language: client, Vision: client}

	doc, err := FromMarkdown(context.Background(), markdown, models, imageDir, 2)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Introduction", doc.Sections[0].Title)
	assert.Equal(t, "Results", doc.Sections[1].Title)
	assert.Equal(t, "en", doc.Language.Lid)
	assert.Equal(t, map[string]string{"title": "Annual Report"}, doc.Metadata)

	medias := doc.IterMedias()
	require.Len(t, medias, 1)
	assert.Equal(t, types.MediaPicture, medias[0].Kind)
	assert.Equal(t, "Revenue growth chart", medias[0].Caption)
	// The relative path was rebased into the image directory.
	assert.Equal(t, filepath.Join(imageDir, "chart.png"), medias[0].Path)
}

func TestFromMarkdown_AssemblyKeepsSubmissionOrder(t *testing.T) {
	// Unlimited concurrency with earlier chunks finishing last: the last
	// submitted extraction completes first, yet sections come out in
	// source order.
	markdown := "# One\n\nfirst\n\n# Two\n\nsecond\n\n# Three\n\nthird\n"
	delays := map[string]time.Duration{
		"# One":   80 * time.Millisecond,
		"# Two":   40 * time.Millisecond,
		"# Three": 0,
	}
	client := &fakeClient{respond: func(prompt string) (string, error) {
		for heading, delay := range delays {
			if strings.Contains(prompt, heading) {
				time.Sleep(delay)
				title := strings.TrimPrefix(heading, "# ")
				return fmt.Sprintf(`{"title": %q, "summary": "", "subsections": [{"title": "A", "content": "x"}], "metadata": []}`, title), nil
			}
		}
		return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
	}}
	models := llm.ModelSet{Language: client, Vision: client}

	doc, err := FromMarkdown(context.Background(), markdown, models, "", 0)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "One", doc.Sections[0].Title)
	assert.Equal(t, "Two", doc.Sections[1].Title)
	assert.Equal(t, "Three", doc.Sections[2].Title)
}

func TestFromMarkdown_ChunkFailureAborts(t *testing.T) {
	markdown := "# One\n\ntext\n\n# Two\n\ntext\n"
	client := &fakeClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "# Two") {
			return "", fmt.Errorf("model unavailable")
		}
		return `{"title": "One", "summary": "", "subsections": [{"title": "A", "content": "x"}], "metadata": []}`, nil
	}}
	models := llm.ModelSet{Language: client, Vision: client}

	_, err := FromMarkdown(context.Background(), markdown, models, "", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1")
}

func TestFromMarkdown_SchemaViolationRejected(t *testing.T) {
	client := &fakeClient{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Markdown chunk") {
			// Missing the required title field.
			return `{"summary": "s", "subsections": []}`, nil
		}
		return "", fmt.Errorf("unexpected prompt")
	}}
	models := llm.ModelSet{Language: client, Vision: client}

	_, err := FromMarkdown(context.Background(), "# Only\n\ntext\n", models, "", 0)
	assert.Error(t, err)
}

func TestCaptionMedia_TableUsesLanguageModel(t *testing.T) {
	client := &fakeClient{respond: func(prompt string) (string, error) {
		assert.Contains(t, prompt, "| Q4 | 120 |")
		return "Quarterly revenue figures", nil
	}}
	models := llm.ModelSet{Language: client, Vision: noCallClient(t)}

	media := &types.Media{Kind: types.MediaTable, Path: "table-0-0", Markdown: "| Q | Rev |\n| --- | --- |\n| Q4 | 120 |"}
	require.NoError(t, CaptionMedia(context.Background(), media, models))
	assert.Equal(t, "Quarterly revenue figures", media.Caption)
}

func TestCaptionMedia_SkipsExistingCaption(t *testing.T) {
	models := llm.ModelSet{Language: noCallClient(t), Vision: noCallClient(t)}
	media := &types.Media{Kind: types.MediaPicture, Path: "x.png", Caption: "already captioned"}
	require.NoError(t, CaptionMedia(context.Background(), media, models))
	assert.Equal(t, "already captioned", media.Caption)
}
