package document

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/prompts"
	"github.com/jonathan/deck-agent/internal/types"
)

var headingPattern = regexp.MustCompile(`(?m)^(#+)\s+(.*)$`)

// heading is one markdown heading with its nesting level and byte offset.
type heading struct {
	level  int
	title  string
	offset int
}

func findHeadings(markdown string) []heading {
	matches := headingPattern.FindAllStringSubmatchIndex(markdown, -1)
	headings := make([]heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, heading{
			level:  m[3] - m[2],
			title:  strings.TrimSpace(markdown[m[4]:m[5]]),
			offset: m[0],
		})
	}
	return headings
}

// HeadingTree renders the document's heading hierarchy as indented text,
// used to disambiguate heading levels when deciding split points.
func HeadingTree(markdown string) string {
	var sb strings.Builder
	for _, h := range findHeadings(markdown) {
		sb.WriteString(strings.Repeat("\t", h.level-1))
		sb.WriteString(h.title)
		sb.WriteString("\n")
	}
	return sb.String()
}

// splitByHeadings splits the markdown into heading-bounded chunks, one
// chunk per future section. Splitting happens at the shallowest heading
// level present. When that level yields a single chunk but deeper headings
// exist, the split is ambiguous (one document-title heading wrapping the
// real sections) and the language model adjudicates whether to split one
// level deeper.
func splitByHeadings(ctx context.Context, markdown string, client llm.Client) ([]string, error) {
	headings := findHeadings(markdown)
	if len(headings) == 0 {
		return []string{markdown}, nil
	}

	minLevel := headings[0].level
	for _, h := range headings {
		if h.level < minLevel {
			minLevel = h.level
		}
	}

	splitLevel := minLevel
	if countAtLevel(headings, minLevel) == 1 && countBelowLevel(headings, minLevel) > 0 {
		deeper, err := adjudicateSplit(ctx, markdown, headings, minLevel, client)
		if err != nil {
			return nil, err
		}
		if deeper {
			splitLevel = nextLevel(headings, minLevel)
		}
	}

	var chunks []string
	var offsets []int
	for _, h := range headings {
		if h.level <= splitLevel {
			offsets = append(offsets, h.offset)
		}
	}
	if len(offsets) == 0 || offsets[0] > 0 {
		offsets = append([]int{0}, offsets...)
	}
	for i, start := range offsets {
		end := len(markdown)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		chunk := strings.TrimSpace(markdown[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func countAtLevel(headings []heading, level int) int {
	n := 0
	for _, h := range headings {
		if h.level == level {
			n++
		}
	}
	return n
}

func countBelowLevel(headings []heading, level int) int {
	n := 0
	for _, h := range headings {
		if h.level > level {
			n++
		}
	}
	return n
}

func nextLevel(headings []heading, level int) int {
	next := 0
	for _, h := range headings {
		if h.level > level && (next == 0 || h.level < next) {
			next = h.level
		}
	}
	if next == 0 {
		return level
	}
	return next
}

// adjudicateSplit asks the language model whether the sole top-level
// heading is a document title (split one level deeper) or a real section.
func adjudicateSplit(ctx context.Context, markdown string, headings []heading, minLevel int, client llm.Client) (bool, error) {
	var top string
	for _, h := range headings {
		if h.level == minLevel {
			top = h.title
			break
		}
	}
	prompt := prompts.Format(prompts.MustGet(promptFile, "split_adjudicator"), map[string]string{
		"Tree":    HeadingTree(markdown),
		"Heading": top,
	})
	response, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return false, fmt.Errorf("split adjudication failed: %w", err)
	}
	var decision struct {
		NewChunk bool `json:"new_chunk"`
	}
	if err := json.Unmarshal([]byte(response), &decision); err != nil {
		return false, fmt.Errorf("split adjudication returned malformed JSON: %w", err)
	}
	// new_chunk=true means the heading opens its own chunk, i.e. the
	// document really has one section; false means it is only a title.
	return !decision.NewChunk, nil
}

var (
	imagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)
	tablePattern = regexp.MustCompile(`(?m)^(\|[^\n]*\|\s*\n)+`)
)

// chunkMedia is a media reference found in a chunk, with the offset used
// to link it to the surrounding subsection.
type chunkMedia struct {
	media  types.Media
	offset int
}

// extractMedias collects image references and tables from a markdown
// chunk. Table paths are synthesized from the chunk's position so they
// stay unique within the document.
func extractMedias(chunk string, chunkIdx int) []chunkMedia {
	var medias []chunkMedia
	for _, m := range imagePattern.FindAllStringSubmatchIndex(chunk, -1) {
		medias = append(medias, chunkMedia{
			media: types.Media{
				Kind: types.MediaPicture,
				Path: chunk[m[2]:m[3]],
			},
			offset: m[0],
		})
	}
	for i, m := range tablePattern.FindAllStringIndex(chunk, -1) {
		medias = append(medias, chunkMedia{
			media: types.Media{
				Kind:     types.MediaTable,
				Path:     fmt.Sprintf("table-%d-%d", chunkIdx, i),
				Markdown: strings.TrimSpace(chunk[m[0]:m[1]]),
			},
			offset: m[0],
		})
	}
	return medias
}

// linkMedias attaches each extracted media to the subsection whose text
// precedes it in the chunk, falling back to the first subsection.
func linkMedias(medias []chunkMedia, chunk string, section *types.Section) {
	if len(section.Subsections) == 0 && len(medias) > 0 {
		section.Subsections = append(section.Subsections, types.SubSection{Title: section.Title})
	}
	for _, cm := range medias {
		target := 0
		for i := range section.Subsections {
			pos := strings.Index(chunk, section.Subsections[i].Title)
			if pos >= 0 && pos <= cm.offset {
				target = i
			}
		}
		section.Subsections[target].Medias = append(section.Subsections[target].Medias, cm.media)
	}
}
