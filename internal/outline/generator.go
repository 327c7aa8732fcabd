// Package outline plans the slide sequence: the planner turns a document
// overview into content slides, then functional layouts are injected
// around them.
package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/schemas"
	"github.com/jonathan/deck-agent/internal/types"
)

// rawOutline mirrors the planner's JSON response.
type rawOutline struct {
	Outline []struct {
		Purpose string             `json:"purpose"`
		Section string             `json:"section"`
		Indexes []types.SectionRef `json:"indexes"`
		Images  []string           `json:"images"`
	} `json:"outline"`
}

// Generate plans a content outline of roughly numSlides slides. The
// response schema is built from the document's live section, subsection,
// and caption sets, so every reference in a conforming response resolves.
func Generate(ctx context.Context, planner *agent.Agent, doc *types.Document, numSlides int) (types.Outline, error) {
	allowed := doc.AllowedRefs()
	schema := schemas.BuildOutlineSchema(allowed.Sections, allowed.Indexes, allowed.Images)
	response, err := planner.CallJSON(ctx, map[string]string{
		"NumSlides":        strconv.Itoa(numSlides),
		"DocumentOverview": doc.Overview(true, true),
	}, schema)
	if err != nil {
		return nil, err
	}

	var raw rawOutline
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return nil, fmt.Errorf("planner returned malformed JSON: %w", err)
	}
	if len(raw.Outline) == 0 {
		return nil, fmt.Errorf("planner returned an empty outline")
	}

	outline := make(types.Outline, 0, len(raw.Outline))
	for i, entry := range raw.Outline {
		item, err := types.NewOutlineItem(entry.Purpose, entry.Section, entry.Indexes, entry.Images, allowed)
		if err != nil {
			return nil, fmt.Errorf("outline item %d: %w", i, err)
		}
		outline = append(outline, item)
	}
	return outline, nil
}
