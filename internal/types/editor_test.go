package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEditorOutput(t *testing.T) {
	output, err := ParseEditorOutput(`{"title": {"data": ["New Title"]}, "bullets": {"data": ["a", "b"]}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"New Title"}, output["title"].Data)
	assert.Equal(t, []string{"a", "b"}, output["bullets"].Data)
}

func TestParseEditorOutput_Malformed(t *testing.T) {
	_, err := ParseEditorOutput(`not json`)
	assert.ErrorContains(t, err, "failed to parse editor output")
}
