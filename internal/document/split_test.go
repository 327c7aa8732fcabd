package document

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/types"
)

// fakeClient dispatches on prompt content so one fake can serve every
// role in a test.
type fakeClient struct {
	respond func(prompt string) (string, error)
	vision  func(prompt string, imagePaths []string) (string, error)
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return f.respond(prompt)
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return f.respond(prompt)
}

func (f *fakeClient) GenerateVision(_ context.Context, prompt string, imagePaths []string, _ llm.ModelTier) (string, error) {
	if f.vision != nil {
		return f.vision(prompt, imagePaths)
	}
	return "", fmt.Errorf("vision not configured")
}

func (f *fakeClient) TestConnection(context.Context) error { return nil }
func (f *fakeClient) GetModel(llm.ModelTier) string        { return "fake" }
func (f *fakeClient) Close() error                         { return nil }

func noCallClient(t *testing.T) *fakeClient {
	return &fakeClient{respond: func(prompt string) (string, error) {
		return "", fmt.Errorf("unexpected model call: %.60s", prompt)
	}}
}

const multiSectionMarkdown = `# Introduction

Some scope text.

## Scope

Details about scope.

# Results

Figures below.
`

func TestFindHeadings(t *testing.T) {
	headings := findHeadings(multiSectionMarkdown)
	require.Len(t, headings, 3)
	assert.Equal(t, 1, headings[0].level)
	assert.Equal(t, "Introduction", headings[0].title)
	assert.Equal(t, 2, headings[1].level)
	assert.Equal(t, "Scope", headings[1].title)
	assert.Equal(t, "Results", headings[2].title)
}

func TestHeadingTree(t *testing.T) {
	tree := HeadingTree(multiSectionMarkdown)
	assert.Equal(t, "Introduction\n\tScope\nResults\n", tree)
}

func TestSplitByHeadings_MultipleTopLevel(t *testing.T) {
	// Two level-1 headings: no adjudication call is made.
	chunks, err := splitByHeadings(context.Background(), multiSectionMarkdown, noCallClient(t))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "# Introduction")
	assert.Contains(t, chunks[0], "## Scope")
	assert.Contains(t, chunks[1], "# Results")
}

func TestSplitByHeadings_NoHeadings(t *testing.T) {
	chunks, err := splitByHeadings(context.Background(), "just prose, no structure", noCallClient(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"just prose, no structure"}, chunks)
}

func TestSplitByHeadings_AmbiguousTitleSplitsDeeper(t *testing.T) {
	markdown := "# Annual Report\n\n## Introduction\n\ntext\n\n## Results\n\nmore text\n"
	client := &fakeClient{respond: func(prompt string) (string, error) {
		assert.Contains(t, prompt, "Annual Report")
		// The sole top-level heading is only a document title.
		return `{"new_chunk": false}`, nil
	}}

	chunks, err := splitByHeadings(context.Background(), markdown, client)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Contains(t, chunks[0], "# Annual Report")
	assert.Contains(t, chunks[1], "## Introduction")
	assert.Contains(t, chunks[2], "## Results")
}

func TestSplitByHeadings_AmbiguousRealSectionStaysWhole(t *testing.T) {
	markdown := "# Overview\n\n## Detail\n\ntext\n"
	client := &fakeClient{respond: func(string) (string, error) {
		return `{"new_chunk": true}`, nil
	}}

	chunks, err := splitByHeadings(context.Background(), markdown, client)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestExtractMedias(t *testing.T) {
	chunk := "# Results\n\n![revenue chart](images/chart.png)\n\n| Q | Rev |\n| --- | --- |\n| Q4 | 120 |\n\ntext\n"
	medias := extractMedias(chunk, 1)
	require.Len(t, medias, 2)

	assert.Equal(t, types.MediaPicture, medias[0].media.Kind)
	assert.Equal(t, "images/chart.png", medias[0].media.Path)

	assert.Equal(t, types.MediaTable, medias[1].media.Kind)
	assert.Equal(t, "table-1-0", medias[1].media.Path)
	assert.Contains(t, medias[1].media.Markdown, "| Q4 | 120 |")
}

func TestLinkMedias_AttachesByPosition(t *testing.T) {
	chunk := "# S\n\nScope\n\n![a](a.png)\n\nHighlights\n\n![b](b.png)\n"
	section := &types.Section{
		Title: "S",
		Subsections: []types.SubSection{
			{Title: "Scope"},
			{Title: "Highlights"},
		},
	}
	linkMedias(extractMedias(chunk, 0), chunk, section)

	require.Len(t, section.Subsections[0].Medias, 1)
	assert.Equal(t, "a.png", section.Subsections[0].Medias[0].Path)
	require.Len(t, section.Subsections[1].Medias, 1)
	assert.Equal(t, "b.png", section.Subsections[1].Medias[0].Path)
}

func TestLinkMedias_NoSubsectionsCreatesOne(t *testing.T) {
	chunk := "# S\n\n![a](a.png)\n"
	section := &types.Section{Title: "S"}
	linkMedias(extractMedias(chunk, 0), chunk, section)

	require.Len(t, section.Subsections, 1)
	assert.Equal(t, "S", section.Subsections[0].Title)
	assert.Len(t, section.Subsections[0].Medias, 1)
}
