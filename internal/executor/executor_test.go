package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deck-agent/internal/presentation"
	"github.com/jonathan/deck-agent/internal/types"
)

func testSlide() *presentation.SlidePage {
	return &presentation.SlidePage{
		TemplateID: 2,
		Shapes: []presentation.Shape{
			{Name: "title", Type: "text", Paragraphs: []string{"Old Title"}},
			{Name: "bullets", Type: "text", Paragraphs: []string{"first", "second"}},
			{Name: "picture", Type: "image", Source: "old.png", Caption: "old caption"},
		},
	}
}

func testDoc() *types.Document {
	return &types.Document{
		Sections: []types.Section{{
			Title: "S",
			Subsections: []types.SubSection{{
				Title:  "Sub",
				Medias: []types.Media{{Kind: types.MediaPicture, Path: "chart.png", Caption: "Revenue growth chart"}},
			}},
		}},
	}
}

func TestExecuteActions_ReplaceParagraph(t *testing.T) {
	slide := testSlide()
	feedback := New(1).ExecuteActions(`replace_paragraph("title", 0, "New Title")`, slide, testDoc())
	assert.Nil(t, feedback)
	assert.Equal(t, []string{"New Title"}, slide.Shapes[0].Paragraphs)
}

func TestExecuteActions_CloneParagraph(t *testing.T) {
	slide := testSlide()
	feedback := New(1).ExecuteActions(`clone_paragraph("bullets", 0)`, slide, testDoc())
	assert.Nil(t, feedback)
	assert.Equal(t, []string{"first", "first", "second"}, slide.Shapes[1].Paragraphs)
}

func TestExecuteActions_DelParagraph(t *testing.T) {
	slide := testSlide()
	feedback := New(1).ExecuteActions(`del_paragraph("bullets", 1)`, slide, testDoc())
	assert.Nil(t, feedback)
	assert.Equal(t, []string{"first"}, slide.Shapes[1].Paragraphs)
}

func TestExecuteActions_ReplaceImageByCaption(t *testing.T) {
	slide := testSlide()
	feedback := New(1).ExecuteActions(`replace_image("picture", "Revenue growth chart")`, slide, testDoc())
	assert.Nil(t, feedback)
	// Captions resolve to the media's path.
	assert.Equal(t, "chart.png", slide.Shapes[2].Source)
	assert.Equal(t, "Revenue growth chart", slide.Shapes[2].Caption)
}

func TestExecuteActions_ReplaceImageByPath(t *testing.T) {
	slide := testSlide()
	feedback := New(1).ExecuteActions(`replace_image("picture", "direct.png")`, slide, testDoc())
	assert.Nil(t, feedback)
	assert.Equal(t, "direct.png", slide.Shapes[2].Source)
}

func TestExecuteActions_DelImage(t *testing.T) {
	slide := testSlide()
	feedback := New(1).ExecuteActions(`del_image("picture")`, slide, testDoc())
	assert.Nil(t, feedback)
	assert.Empty(t, slide.Shapes[2].Source)
}

func TestExecuteActions_MultilineWithComments(t *testing.T) {
	code := `# update the title
replace_paragraph("title", 0, "New Title")

// trim the bullets
del_paragraph("bullets", 1)`
	slide := testSlide()
	exec := New(1)
	feedback := exec.ExecuteActions(code, slide, testDoc())
	assert.Nil(t, feedback)
	assert.Equal(t, []string{"replace_paragraph", "del_paragraph"}, exec.APIHistory())

	history := exec.CodeHistory()
	require.Len(t, history, 1)
	assert.Equal(t, types.OutcomeCorrect, history[0].Outcome)
	assert.Equal(t, 2, history[0].TemplateID)
}

func TestExecuteActions_StopsAtFirstError(t *testing.T) {
	code := `replace_paragraph("title", 5, "out of range")
replace_paragraph("title", 0, "never applied")`
	slide := testSlide()
	exec := New(1)
	feedback := exec.ExecuteActions(code, slide, testDoc())
	require.NotNil(t, feedback)
	assert.Contains(t, feedback.Message, "out of range")
	assert.Contains(t, feedback.Traceback, "line 1")
	// The slide keeps its original title: execution stopped before line 2.
	assert.Equal(t, "Old Title", slide.Shapes[0].Paragraphs[0])

	history := exec.CodeHistory()
	require.Len(t, history, 1)
	assert.NotEqual(t, types.OutcomeCorrect, history[0].Outcome)
}

func TestExecuteActions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{name: "unknown api", code: `paint_slide("title")`, wantMsg: "unknown API"},
		{name: "unparseable line", code: `replace_paragraph "title"`, wantMsg: "unparseable action"},
		{name: "unknown shape", code: `replace_paragraph("missing", 0, "x")`, wantMsg: "shape not found"},
		{name: "bad index", code: `replace_paragraph("title", "zero", "x")`, wantMsg: "must be an integer"},
		{name: "wrong arity", code: `del_image("picture", "extra")`, wantMsg: "expects 1 argument"},
		{name: "image api on text shape", code: `del_image("title")`, wantMsg: "not an image element"},
		{name: "unterminated string", code: `replace_paragraph("title, 0, "x")`, wantMsg: "unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedback := New(1).ExecuteActions(tt.code, testSlide(), testDoc())
			require.NotNil(t, feedback)
			assert.Contains(t, feedback.Message, tt.wantMsg)
		})
	}
}

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`"bullets", 1, "text, with comma and \"quotes\""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"bullets", "1", `text, with comma and "quotes"`}, args)
}

func TestMerge(t *testing.T) {
	first := New(1)
	first.ExecuteActions(`del_paragraph("bullets", 0)`, testSlide(), testDoc())
	second := New(1)
	second.ExecuteActions(`del_image("picture")`, testSlide(), testDoc())

	merged := New(1)
	merged.Merge(first)
	merged.Merge(second)
	merged.Merge(nil)
	assert.Equal(t, []string{"del_paragraph", "del_image"}, merged.APIHistory())
	assert.Len(t, merged.CodeHistory(), 2)
}
