// Package mastery assesses a finished session: how grammar mastery should
// move, whether the learner's level changes, and which words got in the
// way of reading.
package mastery

// Verdict is the level change recommended after a session.
type Verdict string

const (
	VerdictUp   Verdict = "up"
	VerdictStay Verdict = "stay"
	VerdictDown Verdict = "down"
)

// Delta returns the level change for v.
func (v Verdict) Delta() int {
	switch v {
	case VerdictUp:
		return 1
	case VerdictDown:
		return -1
	}
	return 0
}

// SentenceOutcome is the result of one sentence application.
type SentenceOutcome struct {
	SentenceID       int
	Passed           bool
	BlockingVocabIDs []int
}

// Input is everything the assessor looks at. Skipped questions are not
// counted in the totals.
type Input struct {
	GrammarID int

	Step1Correct, Step1Total int
	Step2Correct, Step2Total int
	VocabCorrect, VocabTotal int
	VocabAvgMs               int
	VocabBestStreak          int

	Sentences []SentenceOutcome
}

// GrammarAccuracy is the Step1+Step2 accuracy.
func (in Input) GrammarAccuracy() float64 {
	return ratio(in.Step1Correct+in.Step2Correct, in.Step1Total+in.Step2Total)
}

// VocabAccuracy is the Step3 accuracy.
func (in Input) VocabAccuracy() float64 {
	return ratio(in.VocabCorrect, in.VocabTotal)
}

// SentencesPassed counts passed sentences.
func (in Input) SentencesPassed() int {
	n := 0
	for _, s := range in.Sentences {
		if s.Passed {
			n++
		}
	}
	return n
}

// OverallAccuracy is the accuracy over every graded item in the session.
func (in Input) OverallAccuracy() float64 {
	correct := in.Step1Correct + in.Step2Correct + in.VocabCorrect + in.SentencesPassed()
	total := in.Step1Total + in.Step2Total + in.VocabTotal + len(in.Sentences)
	return ratio(correct, total)
}

// Adjustment is a mastery change for one grammar point.
type Adjustment struct {
	GrammarID int
	Delta     int
}

// Assessment is the outcome of Assess.
type Assessment struct {
	Adjustments      []Adjustment
	Verdict          Verdict
	BlockingVocabIDs []int
	Fluency          float64 // Step3 fluency, 0..1
}

// Assessor turns session outcomes into progress changes.
type Assessor interface {
	Assess(in Input) Assessment
}

// Config holds the RuleAssessor thresholds.
type Config struct {
	MasteryBonus   int
	MasteryPenalty int

	// PenaltyBelow is the grammar accuracy under which mastery drops.
	PenaltyBelow float64

	UpGrammarAccuracy float64
	UpVocabAccuracy   float64
	DownOverall       float64

	VocabTargetMs int
	StreakCap     int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MasteryBonus:      5,
		MasteryPenalty:    5,
		PenaltyBelow:      0.5,
		UpGrammarAccuracy: 0.9,
		UpVocabAccuracy:   0.8,
		DownOverall:       0.4,
		VocabTargetMs:     DefaultTargetMs,
		StreakCap:         DefaultStreakCap,
	}
}

// RuleAssessor is a fixed-threshold Assessor.
type RuleAssessor struct {
	config Config
}

// NewRuleAssessor creates a RuleAssessor.
func NewRuleAssessor(cfg Config) *RuleAssessor {
	return &RuleAssessor{config: cfg}
}

// Assess applies the rules:
//   - mastery +MasteryBonus when every transfer question was right and at
//     least one sentence passed;
//   - mastery -MasteryPenalty when grammar accuracy is under PenaltyBelow;
//   - level up when grammar and vocab accuracy clear their thresholds,
//     down when overall accuracy is under DownOverall.
func (a *RuleAssessor) Assess(in Input) Assessment {
	cfg := a.config
	out := Assessment{Verdict: VerdictStay}

	grammarTotal := in.Step1Total + in.Step2Total
	switch {
	case in.Step2Total > 0 && in.Step2Correct == in.Step2Total && in.SentencesPassed() > 0:
		out.Adjustments = append(out.Adjustments, Adjustment{GrammarID: in.GrammarID, Delta: cfg.MasteryBonus})
	case grammarTotal > 0 && in.GrammarAccuracy() < cfg.PenaltyBelow:
		out.Adjustments = append(out.Adjustments, Adjustment{GrammarID: in.GrammarID, Delta: -cfg.MasteryPenalty})
	}

	vocabOK := in.VocabTotal == 0 || in.VocabAccuracy() >= cfg.UpVocabAccuracy
	switch {
	case grammarTotal > 0 && in.GrammarAccuracy() >= cfg.UpGrammarAccuracy && vocabOK:
		out.Verdict = VerdictUp
	case in.OverallAccuracy() < cfg.DownOverall && hasGraded(in):
		out.Verdict = VerdictDown
	}

	seen := map[int]bool{}
	for _, s := range in.Sentences {
		if s.Passed {
			continue
		}
		for _, vid := range s.BlockingVocabIDs {
			if !seen[vid] {
				seen[vid] = true
				out.BlockingVocabIDs = append(out.BlockingVocabIDs, vid)
			}
		}
	}

	if in.VocabTotal > 0 {
		out.Fluency = FluencyScore(
			in.VocabAccuracy(),
			SpeedScore(in.VocabAvgMs, cfg.VocabTargetMs),
			ConsistencyScore(in.VocabBestStreak, cfg.StreakCap),
		)
	}
	return out
}

func hasGraded(in Input) bool {
	return in.Step1Total+in.Step2Total+in.VocabTotal+len(in.Sentences) > 0
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
