package drillgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/llm"
)

// LLMGenerator implements Generator with an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// NewLLMGenerator creates an LLMGenerator.
func NewLLMGenerator(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

type drillOutput struct {
	Kind            string           `json:"kind"`
	Stem            string           `json:"stem"`
	Options         []content.Option `json:"options"`
	CorrectOptionID string           `json:"correct_option_id"`
	CorrectAnswer   string           `json:"correct_answer"`
	Explanation     string           `json:"explanation"`
}

type batchOutput struct {
	Drills []drillOutput `json:"drills"`
}

// Generate asks the model for req.Count drills. Extra drills are dropped;
// a short batch is returned as is.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) ([]content.Drill, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeDrillGen)

	llmReq := llm.UserPrompt(systemPrompt, buildUserMessage(req, g.config))
	llmReq.Schema = DrillSchema
	llmReq.MaxTokens = g.config.MaxTokens
	llmReq.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw batchOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if req.Count > 0 && len(raw.Drills) > req.Count {
		raw.Drills = raw.Drills[:req.Count]
	}

	drills := make([]content.Drill, 0, len(raw.Drills))
	for _, o := range raw.Drills {
		d := content.Drill{
			Kind:            content.DrillKind(o.Kind),
			Stem:            o.Stem,
			Options:         o.Options,
			CorrectOptionID: o.CorrectOptionID,
			CorrectAnswer:   o.CorrectAnswer,
			Explanation:     o.Explanation,
			GrammarID:       req.Grammar.ID,
		}
		if d.Kind != content.KindChoice {
			d.Options = nil
			d.CorrectOptionID = ""
		}
		for _, v := range g.config.Validators {
			if verr := v.Validate(&d, req); verr != nil {
				return nil, verr
			}
		}
		drills = append(drills, d)
	}
	return drills, nil
}
