package types

import (
	"encoding/json"
	"fmt"
)

// ElementData is the generated content for one layout element.
type ElementData struct {
	Data []string `json:"data"`
}

// EditorOutput maps element names to generated content, one entry per
// schema element. It is checked against the layout's schema before use.
type EditorOutput map[string]ElementData

// ParseEditorOutput decodes a schema-validated JSON response into an
// EditorOutput.
func ParseEditorOutput(raw string) (EditorOutput, error) {
	var output EditorOutput
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		return nil, fmt.Errorf("failed to parse editor output: %w", err)
	}
	return output, nil
}

// Command records the old-vs-new diff for one element of a slide. The
// coder reasons about deltas, not absolute state, so this diff is what the
// editor-to-coder handoff consumes.
type Command struct {
	Element        string   `json:"element"`
	Type           string   `json:"type"`
	QuantityChange int      `json:"quantity_change"`
	OldData        []string `json:"old_data"`
	NewData        []string `json:"new_data"`
}

// String renders the command as one prompt line.
func (c Command) String() string {
	return fmt.Sprintf("(%s, %s, quantity_change: %+d, old: %v, new: %v)",
		c.Element, c.Type, c.QuantityChange, c.OldData, c.NewData)
}

// BuildCommands diffs generated content against the layout's template
// content, producing one command per schema element. Elements absent from
// the output diff to empty content (a pure deletion).
func BuildCommands(layout *Layout, output EditorOutput) ([]Command, int) {
	commands := make([]Command, 0, len(layout.Elements))
	for i := range layout.Elements {
		element := &layout.Elements[i]
		var newData []string
		if out, ok := output[element.Name]; ok {
			newData = out.Data
		}
		commands = append(commands, Command{
			Element:        element.Name,
			Type:           element.Type,
			QuantityChange: len(newData) - len(element.Data),
			OldData:        element.Data,
			NewData:        newData,
		})
	}
	return commands, layout.TemplateID
}
