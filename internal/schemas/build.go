package schemas

import "encoding/json"

// Schema is a JSON Schema document as plain data. Builders below derive it
// from the live document/layout state; it is consumed generically by
// ValidateJSONString.
type Schema map[string]any

// JSON renders the schema as a JSON string.
func (s Schema) JSON() string {
	data, err := json.Marshal(map[string]any(s))
	if err != nil {
		return "{}"
	}
	return string(data)
}

func enumOf(values []string) Schema {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return Schema{"enum": anyValues}
}

func stringArray() Schema {
	return Schema{"type": "array", "items": Schema{"type": "string"}}
}

// BuildOutlineSchema constrains a generated outline so every section,
// subsection, and image caption it references exists in the source
// document. The per-section pairing of subsections is expressed as a oneOf
// over the document's sections.
func BuildOutlineSchema(sections []string, indexes map[string][]string, images []string) Schema {
	refVariants := make([]any, 0, len(sections))
	for _, section := range sections {
		refVariants = append(refVariants, Schema{
			"type":     "object",
			"required": []any{"section", "subsections"},
			"properties": Schema{
				"section": Schema{"const": section},
				"subsections": Schema{
					"type":  "array",
					"items": enumOf(indexes[section]),
				},
			},
			"additionalProperties": false,
		})
	}

	imageItems := Schema{"type": "array", "maxItems": 0}
	if len(images) > 0 {
		imageItems = Schema{"type": "array", "items": enumOf(images)}
	}

	return Schema{
		"type":     "object",
		"required": []any{"outline"},
		"properties": Schema{
			"outline": Schema{
				"type": "array",
				"items": Schema{
					"type":     "object",
					"required": []any{"purpose", "section", "indexes", "images"},
					"properties": Schema{
						"purpose": Schema{"type": "string", "minLength": 1},
						"section": enumOf(sections),
						"indexes": Schema{
							"type":  "array",
							"items": Schema{"oneOf": refVariants},
						},
						"images": imageItems,
					},
					"additionalProperties": false,
				},
			},
		},
		"additionalProperties": false,
	}
}

// BuildChoiceSchema constrains a layout selection to one of the candidate
// layout names.
func BuildChoiceSchema(layouts []string) Schema {
	return Schema{
		"type":     "object",
		"required": []any{"layout"},
		"properties": Schema{
			"layout": enumOf(layouts),
		},
		"additionalProperties": false,
	}
}

// BuildEditorSchema constrains generated slide content so its keys are
// exactly the layout's element names.
func BuildEditorSchema(elementNames []string) Schema {
	properties := Schema{}
	for _, name := range elementNames {
		properties[name] = Schema{
			"type":     "object",
			"required": []any{"data"},
			"properties": Schema{
				"data": stringArray(),
			},
			"additionalProperties": false,
		}
	}
	return Schema{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// BuildSectionSchema constrains per-chunk document extraction: one section
// with its subsections and any metadata found in the chunk.
func BuildSectionSchema() Schema {
	return Schema{
		"type":     "object",
		"required": []any{"title", "summary", "subsections"},
		"properties": Schema{
			"title":   Schema{"type": "string", "minLength": 1},
			"summary": Schema{"type": "string"},
			"subsections": Schema{
				"type": "array",
				"items": Schema{
					"type":     "object",
					"required": []any{"title", "content"},
					"properties": Schema{
						"title":   Schema{"type": "string", "minLength": 1},
						"content": Schema{"type": "string"},
					},
					"additionalProperties": false,
				},
			},
			"metadata": Schema{
				"type":  "array",
				"items": metadataPair(),
			},
		},
		"additionalProperties": false,
	}
}

// BuildMetadataSchema constrains the final metadata merge call.
func BuildMetadataSchema() Schema {
	return Schema{
		"type":     "object",
		"required": []any{"metadata"},
		"properties": Schema{
			"metadata": Schema{
				"type":  "array",
				"items": metadataPair(),
			},
		},
		"additionalProperties": false,
	}
}

// BuildKeyPointsSchema constrains content reorganization into a flat list
// of key points.
func BuildKeyPointsSchema() Schema {
	return Schema{
		"type":     "object",
		"required": []any{"key_points"},
		"properties": Schema{
			"key_points": stringArray(),
		},
		"additionalProperties": false,
	}
}

func metadataPair() Schema {
	return Schema{
		"type":     "object",
		"required": []any{"name", "value"},
		"properties": Schema{
			"name":  Schema{"type": "string", "minLength": 1},
			"value": Schema{"type": "string"},
		},
		"additionalProperties": false,
	}
}
