package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deck-agent/internal/types"
)

func fullLayoutSet() *types.LayoutSet {
	element := []types.Element{{Name: "title", Type: types.ElementText, Data: []string{"x"}}}
	return &types.LayoutSet{
		Layouts: map[string]types.Layout{
			"opening":           {Title: "opening", TemplateID: 1, Elements: element},
			"table of contents": {Title: "table of contents", TemplateID: 2, Elements: element},
			"section outline":   {Title: "section outline", TemplateID: 3, Elements: element},
			"ending":            {Title: "ending", TemplateID: 4, Elements: element},
			"bullets:text":      {Title: "bullets:text", TemplateID: 5, Elements: element},
		},
		FunctionalKeys: []string{"opening", "table of contents", "section outline", "ending"},
		Language:       types.Language{Lid: "en"},
	}
}

func contentOutline() types.Outline {
	return types.Outline{
		{Kind: types.OutlineContent, Purpose: "Introduce the report", Section: "Introduction"},
		{Kind: types.OutlineContent, Purpose: "Scope details", Section: "Introduction"},
		{Kind: types.OutlineContent, Purpose: "Quarterly results", Section: "Results"},
	}
}

func TestInjectFunctionalLayouts(t *testing.T) {
	result := InjectFunctionalLayouts(contentOutline(), fullLayoutSet(), 0.7)

	purposes := make([]string, len(result))
	for i, item := range result {
		purposes[i] = item.Purpose
	}
	assert.Equal(t, []string{
		"opening",
		"table of contents",
		"section outline", // Introduction
		"Introduce the report",
		"Scope details",
		"section outline", // Results
		"Quarterly results",
		"ending",
	}, purposes)

	assert.Equal(t, types.OutlineFunctional, result[0].Kind)
	assert.Equal(t, "Introduction", result[2].SectionName)
	assert.Equal(t, "Results", result[5].SectionName)
	assert.Equal(t, types.OutlineFunctional, result[len(result)-1].Kind)
}

func TestInjectFunctionalLayouts_Idempotent(t *testing.T) {
	once := InjectFunctionalLayouts(contentOutline(), fullLayoutSet(), 0.7)
	twice := InjectFunctionalLayouts(once, fullLayoutSet(), 0.7)
	assert.Equal(t, once, twice)
}

func TestInjectFunctionalLayouts_MissingLayoutsOmitted(t *testing.T) {
	element := []types.Element{{Name: "title", Type: types.ElementText}}
	set := &types.LayoutSet{
		Layouts: map[string]types.Layout{
			"ending":       {Title: "ending", TemplateID: 1, Elements: element},
			"bullets:text": {Title: "bullets:text", TemplateID: 2, Elements: element},
		},
		FunctionalKeys: []string{"ending"},
	}

	result := InjectFunctionalLayouts(contentOutline(), set, 0.7)
	require.Len(t, result, 4)
	assert.Equal(t, types.OutlineContent, result[0].Kind)
	assert.Equal(t, "ending", result[3].Purpose)
}

func TestInjectFunctionalLayouts_ThresholdGatesMatching(t *testing.T) {
	element := []types.Element{{Name: "title", Type: types.ElementText}}
	set := &types.LayoutSet{
		Layouts: map[string]types.Layout{
			"completely unrelated name": {Title: "completely unrelated name", TemplateID: 1, Elements: element},
		},
		FunctionalKeys: []string{"completely unrelated name"},
	}

	result := InjectFunctionalLayouts(contentOutline(), set, 0.7)
	assert.Equal(t, contentOutline(), result)
}

func TestInjectFunctionalLayouts_NoFunctionalKeys(t *testing.T) {
	set := &types.LayoutSet{Layouts: map[string]types.Layout{
		"bullets:text": {Title: "bullets:text", TemplateID: 1, Elements: []types.Element{{Name: "t", Type: types.ElementText}}},
	}}
	result := InjectFunctionalLayouts(contentOutline(), set, 0.7)
	assert.Equal(t, contentOutline(), result)
}

func TestInjectFunctionalLayouts_FuzzyNames(t *testing.T) {
	element := []types.Element{{Name: "title", Type: types.ElementText}}
	set := &types.LayoutSet{
		Layouts: map[string]types.Layout{
			"openings": {Title: "openings", TemplateID: 1, Elements: element},
		},
		FunctionalKeys: []string{"openings"},
	}

	result := InjectFunctionalLayouts(contentOutline(), set, 0.7)
	require.Len(t, result, 4)
	assert.Equal(t, "openings", result[0].Purpose)
}
