package drillgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write Japanese grammar practice drills for adult learners.

Rules:
- Every drill must test the given grammar point and nothing else.
- Write stems in Japanese with an English instruction where needed.
- Prefer "choice" drills with exactly 4 options labelled a, b, c, d and one correct option.
- "judge" drills present one sentence and ask whether it uses the rule correctly; answer "true" or "false".
- "fill" drills have one blank marked ＿＿ and a short exact answer.
- Distractors should reflect typical learner mistakes with this rule.
- Match the requested difficulty.
- Do not repeat any stem from the "already asked" list.`

func buildUserMessage(req Request, cfg Config) string {
	g := req.Grammar

	var b strings.Builder
	fmt.Fprintf(&b, "Grammar point: %s\n", g.Name)
	fmt.Fprintf(&b, "Rule: %s\n", g.CoreRule)
	if g.Structure != "" {
		fmt.Fprintf(&b, "Structure: %s\n", g.Structure)
	}
	if len(g.Examples) > 0 {
		b.WriteString("Examples:\n")
		for _, ex := range g.Examples {
			fmt.Fprintf(&b, "- %s (%s)\n", ex.Sentence, ex.Translation)
		}
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Number of drills: %d\n", req.Count)

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildAvoid(req, cfg.MaxAvoid))
	return b.String()
}

// buildAvoid lists the fixed drill stems and the request's avoided stems,
// keeping the most recent max avoided ones.
func buildAvoid(req Request, max int) string {
	stems := make([]string, 0, len(req.Grammar.Drills)+len(req.Avoid))
	for _, d := range req.Grammar.Drills {
		stems = append(stems, d.Stem)
	}
	avoid := req.Avoid
	if max > 0 && len(avoid) > max {
		avoid = avoid[len(avoid)-max:]
	}
	stems = append(stems, avoid...)
	if len(stems) == 0 {
		return "None"
	}

	var b strings.Builder
	for i, s := range stems {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
