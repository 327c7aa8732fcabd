// Package document turns markdown source material into the structured
// Document the pipeline plans from: heading-based chunking, per-chunk
// LLM extraction, media linking and captioning, and metadata merging.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/prompts"
	"github.com/jonathan/deck-agent/internal/schemas"
	"github.com/jonathan/deck-agent/internal/types"
)

const promptFile = "roles.json"

// extractedSection mirrors the extractor's JSON response.
type extractedSection struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Subsections []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"subsections"`
	Metadata []metadataEntry `json:"metadata"`
}

type metadataEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FromMarkdown builds a Document from markdown content. Chunks are
// extracted concurrently, at most maxAtOnce at a time (0 means
// unlimited), and assembled in source order. Any chunk failure aborts the
// whole build.
func FromMarkdown(ctx context.Context, markdown string, models llm.ModelSet, imageDir string, maxAtOnce int) (*types.Document, error) {
	chunks, err := splitByHeadings(ctx, markdown, models.Language)
	if err != nil {
		return nil, err
	}

	extractor, err := agent.New(agent.RoleDocExtractor, models.Language, llm.TierStandard)
	if err != nil {
		return nil, err
	}

	var sem *semaphore.Weighted
	if maxAtOnce > 0 {
		sem = semaphore.NewWeighted(int64(maxAtOnce))
	}

	sections := make([]*types.Section, len(chunks))
	metadata := make([][]metadataEntry, len(chunks))
	group, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			section, meta, err := extractChunk(gctx, chunk, i, extractor, models, imageDir)
			if err != nil {
				return fmt.Errorf("chunk %d (%s...): %w", i, firstLine(chunk), err)
			}
			sections[i] = section
			metadata[i] = meta
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	doc := &types.Document{
		ImageDir: imageDir,
		Language: types.DetectLanguage(markdown),
		Sections: make([]types.Section, len(sections)),
	}
	for i, section := range sections {
		doc.Sections[i] = *section
	}

	merged, err := mergeMetadata(ctx, metadata, models.Language)
	if err != nil {
		return nil, err
	}
	doc.Metadata = merged

	if len(doc.IterMedias()) > 0 {
		if err := doc.ValidateMedias(imageDir); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// extractChunk runs one chunk through the extractor and attaches and
// captions the chunk's media. Picture paths are rebased into the image
// directory before captioning because the vision model reads the file.
func extractChunk(ctx context.Context, chunk string, chunkIdx int, extractor *agent.Agent, models llm.ModelSet, imageDir string) (*types.Section, []metadataEntry, error) {
	response, err := extractor.CallJSON(ctx, map[string]string{"Markdown": chunk}, schemas.BuildSectionSchema())
	if err != nil {
		return nil, nil, err
	}
	var extracted extractedSection
	if err := json.Unmarshal([]byte(response), &extracted); err != nil {
		return nil, nil, fmt.Errorf("malformed extraction: %w", err)
	}

	section := &types.Section{
		Title:       extracted.Title,
		Summary:     extracted.Summary,
		Subsections: make([]types.SubSection, len(extracted.Subsections)),
	}
	for i, sub := range extracted.Subsections {
		section.Subsections[i] = types.SubSection{Title: sub.Title, Content: sub.Content}
	}

	linkMedias(extractMedias(chunk, chunkIdx), chunk, section)
	for i := range section.Subsections {
		for j := range section.Subsections[i].Medias {
			media := &section.Subsections[i].Medias[j]
			rebaseMedia(media, imageDir)
			if err := CaptionMedia(ctx, media, models); err != nil {
				return nil, nil, err
			}
		}
	}
	return section, extracted.Metadata, nil
}

func rebaseMedia(media *types.Media, imageDir string) {
	if media.Kind != types.MediaPicture || imageDir == "" {
		return
	}
	if _, err := os.Stat(media.Path); err == nil {
		return
	}
	rebased := filepath.Join(imageDir, filepath.Base(media.Path))
	if _, err := os.Stat(rebased); err == nil {
		media.Path = rebased
	}
}

// mergeMetadata reconciles the per-chunk metadata records into one map via
// the language model. No records means no call.
func mergeMetadata(ctx context.Context, perChunk [][]metadataEntry, client llm.Client) (map[string]string, error) {
	var lines []string
	for _, entries := range perChunk {
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("%s: %s", e.Name, e.Value))
		}
	}
	if len(lines) == 0 {
		return map[string]string{}, nil
	}

	prompt := prompts.Format(prompts.MustGet(promptFile, "merge_metadata"), map[string]string{
		"Metadata": strings.Join(lines, "\n"),
	})
	response, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("metadata merge failed: %w", err)
	}
	if err := schemas.ValidateJSONString(schemas.BuildMetadataSchema().JSON(), response); err != nil {
		return nil, fmt.Errorf("metadata merge: %w", err)
	}
	var merged struct {
		Metadata []metadataEntry `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(response), &merged); err != nil {
		return nil, fmt.Errorf("metadata merge returned malformed JSON: %w", err)
	}
	out := make(map[string]string, len(merged.Metadata))
	for _, e := range merged.Metadata {
		out[e.Name] = e.Value
	}
	return out, nil
}

func firstLine(s string) string {
	line := s
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		line = s[:idx]
	}
	if len(line) > 60 {
		line = line[:60]
	}
	return strings.TrimSpace(line)
}
