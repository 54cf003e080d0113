package drillgen

import "github.com/abhisek/kotoba/internal/llm"

// DrillSchema is the JSON schema for a batch of generated drills.
var DrillSchema = &llm.Schema{
	Name:        "grammar-drills",
	Description: "A batch of practice drills for one Japanese grammar point",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"drills": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"kind": map[string]any{
							"type":        "string",
							"enum":        []any{"choice", "judge", "fill"},
							"description": "How the learner answers",
						},
						"stem": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner",
						},
						"options": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id":   map[string]any{"type": "string"},
									"text": map[string]any{"type": "string"},
								},
								"required":             []any{"id", "text"},
								"additionalProperties": false,
							},
							"description": "For choice: 4 options with ids a, b, c, d. Empty otherwise.",
						},
						"correct_option_id": map[string]any{
							"type":        "string",
							"description": "For choice: id of the correct option. Empty otherwise.",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "For judge: \"true\" or \"false\". For fill: the exact missing text. Empty for choice.",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "One or two sentences on why the answer is right",
						},
					},
					"required":             []any{"kind", "stem", "options", "correct_option_id", "correct_answer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"drills"},
		"additionalProperties": false,
	},
}
