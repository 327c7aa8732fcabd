package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePresentation() *Presentation {
	return &Presentation{Slides: []*SlidePage{
		{TemplateID: 1, Shapes: []Shape{
			{Name: "title", Type: "text", Paragraphs: []string{"Deck Title"}},
		}},
		{TemplateID: 2, Shapes: []Shape{
			{Name: "title", Type: "text", Paragraphs: []string{"Old Title"}},
			{Name: "picture", Type: "image", Source: "old.png", Caption: "old"},
		}},
	}}
}

func TestSlidePage_Clone_IsDeep(t *testing.T) {
	original := samplePresentation().Slides[1]
	clone := original.Clone()

	clone.Shapes[0].Paragraphs[0] = "changed"
	clone.Shapes[1].Source = "new.png"

	assert.Equal(t, "Old Title", original.Shapes[0].Paragraphs[0])
	assert.Equal(t, "old.png", original.Shapes[1].Source)
}

func TestSlidePage_Shape(t *testing.T) {
	slide := samplePresentation().Slides[1]

	shape, err := slide.Shape("picture")
	require.NoError(t, err)
	assert.Equal(t, "image", shape.Type)

	_, err = slide.Shape("missing")
	assert.ErrorContains(t, err, "shape not found")
}

func TestSlidePage_ToHTML(t *testing.T) {
	slide := &SlidePage{TemplateID: 3, Shapes: []Shape{
		{Name: "title", Type: "text", Paragraphs: []string{"A <b>bold</b> claim"}},
		{Name: "picture", Type: "image", Source: "x.png", Caption: "a chart"},
	}}
	html := slide.ToHTML()
	assert.Contains(t, html, `<section data-template-id="3">`)
	assert.Contains(t, html, `<p data-index="0">A &lt;b&gt;bold&lt;/b&gt; claim</p>`)
	assert.Contains(t, html, `<img data-name="picture" src="x.png" alt="a chart"/>`)
}

func TestPresentation_Slide(t *testing.T) {
	prs := samplePresentation()

	slide, err := prs.Slide(2)
	require.NoError(t, err)
	assert.Equal(t, 2, slide.TemplateID)

	_, err = prs.Slide(0)
	assert.ErrorContains(t, err, "out of range")
	_, err = prs.Slide(3)
	assert.ErrorContains(t, err, "out of range")
}

func TestPresentation_Validate(t *testing.T) {
	prs := samplePresentation()

	tests := []struct {
		name    string
		slide   *SlidePage
		wantErr string
	}{
		{
			name: "valid",
			slide: &SlidePage{TemplateID: 1, Shapes: []Shape{
				{Name: "title", Type: "text", Paragraphs: []string{"ok"}},
				{Name: "picture", Type: "image", Source: "x.png"},
			}},
		},
		{name: "nil slide", slide: nil, wantErr: "nil"},
		{
			name: "duplicate shape name",
			slide: &SlidePage{TemplateID: 1, Shapes: []Shape{
				{Name: "title", Type: "text", Paragraphs: []string{"a"}},
				{Name: "title", Type: "text", Paragraphs: []string{"b"}},
			}},
			wantErr: "duplicate shape name",
		},
		{
			name: "image without source",
			slide: &SlidePage{TemplateID: 1, Shapes: []Shape{
				{Name: "picture", Type: "image"},
			}},
			wantErr: "no source",
		},
		{
			name: "text without paragraphs",
			slide: &SlidePage{TemplateID: 1, Shapes: []Shape{
				{Name: "title", Type: "text"},
			}},
			wantErr: "no paragraphs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prs.Validate(tt.slide)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestFromJSON_FillsTemplateIDs(t *testing.T) {
	prs, err := FromJSON([]byte(`{"slides": [{"shapes": []}, {"shapes": []}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, prs.Slides[0].TemplateID)
	assert.Equal(t, 2, prs.Slides[1].TemplateID)
}

func TestFromJSON_Malformed(t *testing.T) {
	_, err := FromJSON([]byte(`{`))
	assert.ErrorContains(t, err, "failed to parse presentation")
}
