package presentation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/deck-agent/internal/types"
)

// inductionFile is the on-disk form of a slide induction: the output of an
// external layout-induction process, consumed verbatim.
type inductionFile struct {
	Layouts        map[string]layoutSpec `json:"layouts" validate:"min=1,dive"`
	Language       types.Language        `json:"language"`
	FunctionalKeys []string              `json:"functional_keys"`
}

type layoutSpec struct {
	TemplateID int             `json:"template_id" validate:"gte=1"`
	Elements   []types.Element `json:"elements" validate:"min=1,dive"`
}

var validate = validator.New()

// ParseInduction decodes and validates a slide induction mapping, building
// the layout set the pipeline selects from.
func ParseInduction(data []byte) (*types.LayoutSet, error) {
	var file inductionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse slide induction: %w", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid slide induction: %w", err)
	}
	set := &types.LayoutSet{
		Layouts:        make(map[string]types.Layout, len(file.Layouts)),
		FunctionalKeys: file.FunctionalKeys,
		Language:       file.Language,
	}
	for name, spec := range file.Layouts {
		for i := range spec.Elements {
			if err := validate.Struct(&spec.Elements[i]); err != nil {
				return nil, fmt.Errorf("invalid element in layout %q: %w", name, err)
			}
		}
		set.Layouts[name] = types.Layout{
			Title:      name,
			TemplateID: spec.TemplateID,
			Elements:   spec.Elements,
		}
	}
	return set, nil
}

// LoadInduction reads a slide induction from a JSON file.
func LoadInduction(path string) (*types.LayoutSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read slide induction file: %w", err)
	}
	return ParseInduction(data)
}
