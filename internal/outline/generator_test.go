package outline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/types"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) GenerateVision(_ context.Context, _ string, _ []string, _ llm.ModelTier) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeClient) TestConnection(context.Context) error { return nil }
func (f *fakeClient) GetModel(llm.ModelTier) string        { return "fake" }
func (f *fakeClient) Close() error                         { return nil }

func testDoc() *types.Document {
	return &types.Document{
		Language: types.Language{Lid: "en"},
		Sections: []types.Section{
			{Title: "Introduction", Summary: "s", Subsections: []types.SubSection{{Title: "Scope", Content: "c"}}},
			{Title: "Results", Summary: "s", Subsections: []types.SubSection{{Title: "Quarterly", Content: "c"}}},
		},
	}
}

func newPlanner(t *testing.T, client llm.Client) *agent.Agent {
	planner, err := agent.New(agent.RolePlanner, client, llm.TierAdvanced)
	require.NoError(t, err)
	return planner
}

func TestGenerate(t *testing.T) {
	client := &fakeClient{response: `{"outline": [
		{"purpose": "Introduce the report", "section": "Introduction", "indexes": [{"section": "Introduction", "subsections": ["Scope"]}], "images": []},
		{"purpose": "Quarterly results", "section": "Results", "indexes": [{"section": "Results", "subsections": ["Quarterly"]}], "images": []}
	]}`}

	outline, err := Generate(context.Background(), newPlanner(t, client), testDoc(), 2)
	require.NoError(t, err)
	require.Len(t, outline, 2)
	assert.Equal(t, types.OutlineContent, outline[0].Kind)
	assert.Equal(t, "Introduction", outline[0].Section)
	assert.Equal(t, []string{"Scope"}, outline[0].Indexes[0].Subsections)

	// The prompt carries the slide count and document structure.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "2-slide")
	assert.Contains(t, client.prompts[0], "Section: Results")
}

func TestGenerate_SchemaRejectsUnknownSection(t *testing.T) {
	client := &fakeClient{response: `{"outline": [
		{"purpose": "p", "section": "Made Up Section", "indexes": [], "images": []}
	]}`}

	_, err := Generate(context.Background(), newPlanner(t, client), testDoc(), 1)
	assert.ErrorContains(t, err, "violates schema")
}

func TestGenerate_EmptyOutline(t *testing.T) {
	client := &fakeClient{response: `{"outline": []}`}
	_, err := Generate(context.Background(), newPlanner(t, client), testDoc(), 3)
	assert.ErrorContains(t, err, "empty outline")
}

func TestGenerate_ModelError(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("quota exceeded")}
	_, err := Generate(context.Background(), newPlanner(t, client), testDoc(), 3)
	assert.ErrorContains(t, err, "quota exceeded")
}
