package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drill"
	"github.com/abhisek/kotoba/internal/drillgen"
	"github.com/abhisek/kotoba/internal/spacedrep"
	"github.com/abhisek/kotoba/internal/store"
)

// Planner builds the day's four-phase plan from the content graph, the
// learner's progress and the review scheduler.
type Planner struct {
	content  content.Repository
	progress store.ProgressRepo
	sched    *spacedrep.Scheduler
	gen      *drillgen.Service
	config   Config
	rng      *rand.Rand
	log      *slog.Logger
}

// NewPlanner creates a Planner. gen may be nil when drill generation is
// not configured.
func NewPlanner(repo content.Repository, progress store.ProgressRepo, sched *spacedrep.Scheduler, gen *drillgen.Service, cfg Config, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	seed := uint64(time.Now().UnixNano())
	return &Planner{
		content:  repo,
		progress: progress,
		sched:    sched,
		gen:      gen,
		config:   cfg,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
		log:      log,
	}
}

// SetRand replaces the source used for review drill picks.
func (p *Planner) SetRand(r *rand.Rand) {
	p.rng = r
}

// Build plans the session for date.
func (p *Planner) Build(ctx context.Context, date string, now time.Time) (*Plan, error) {
	up, err := p.progress.UserProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	lessonID, gid, err := p.SelectCurrentGrammar(ctx, up.CurrentLessonID, up.CurrentGrammarIndex)
	if err != nil {
		return nil, err
	}
	g, _ := p.content.GrammarPoint(gid)
	lesson, _ := p.content.Lesson(lessonID)
	level := max(up.CurrentLevel, 1)

	plan := &Plan{Date: date, LessonID: lessonID, GrammarID: gid, Level: level}

	plan.Step1, plan.Generated, err = p.Step1(ctx, g, now)
	if err != nil {
		return nil, err
	}
	plan.Step2, err = p.Step2(ctx, g)
	if err != nil {
		return nil, err
	}
	plan.Step3, err = p.Step3(ctx, lesson, level, now)
	if err != nil {
		return nil, err
	}
	plan.Step4 = p.Step4(g, level)

	p.log.Info("planned session",
		"date", date, "lesson", lessonID, "grammar", gid,
		"step1", len(plan.Step1.QuestionIDs), "step2", len(plan.Step2.QuestionIDs),
		"step3", len(plan.Step3.VocabIDs), "step4", len(plan.Step4.SentenceIDs),
		"generated", len(plan.Generated))
	return plan, nil
}

// Step1 mixes due reviews of other grammar points with fresh drills of g.
// Fresh drills come from uncompleted fixed drills, then generation, then
// already completed fixed drills.
func (p *Planner) Step1(ctx context.Context, g content.GrammarPoint, now time.Time) (QuestionPhase, []content.Drill, error) {
	due, err := p.sched.DueGrammar(ctx, now, 0)
	if err != nil {
		return QuestionPhase{}, nil, fmt.Errorf("loading due grammar: %w", err)
	}
	var reviews []string
	for _, st := range due {
		if len(reviews) == p.config.Step1MaxReview {
			break
		}
		if st.GrammarID == g.ID {
			continue
		}
		rg, ok := p.content.GrammarPoint(st.GrammarID)
		if !ok || len(rg.Drills) == 0 {
			p.log.Debug("due grammar has no drills", "grammar", st.GrammarID)
			continue
		}
		d := rg.Drills[p.rng.IntN(len(rg.Drills))]
		reviews = append(reviews, drill.Review(rg.ID, d.ID).String())
	}

	completed, err := p.progress.CompletedDrills(ctx, g.ID)
	if err != nil {
		return QuestionPhase{}, nil, fmt.Errorf("loading completed drills: %w", err)
	}

	var generated []content.Drill
	fresh := fill(p.config.Step1Size-len(reviews),
		func(int, []string) []string {
			var ids []string
			for _, d := range g.Drills {
				if !completed[d.ID] {
					ids = append(ids, drill.Fixed(g.ID, d.ID).String())
				}
			}
			return ids
		},
		func(short int, have []string) []string {
			generated = p.generate(ctx, g, short, have)
			ids := make([]string, len(generated))
			for i, d := range generated {
				ids[i] = d.ID
			}
			return ids
		},
		func(int, []string) []string {
			ids := make([]string, len(g.Drills))
			for i, d := range g.Drills {
				ids[i] = drill.Fixed(g.ID, d.ID).String()
			}
			return ids
		},
	)

	return QuestionPhase{QuestionIDs: append(fresh, reviews...)}, generated, nil
}

// generate asks the generation service for count drills. Failure or an
// unavailable service yields nil.
func (p *Planner) generate(ctx context.Context, g content.GrammarPoint, count int, have []string) []content.Drill {
	if p.gen == nil || !p.gen.IsAvailable() {
		return nil
	}
	masteryScore := 0
	if st, err := p.progress.GrammarState(ctx, g.ID); err == nil && st != nil {
		masteryScore = st.Mastery
	}
	var avoid []string
	for _, id := range have {
		if d, ok := g.DrillByID(id); ok {
			avoid = append(avoid, d.Stem)
		}
	}

	if p.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.GenerationTimeout)
		defer cancel()
	}
	drills, err := p.gen.GenerateDrills(ctx, drillgen.Request{
		Grammar:    g,
		Count:      count,
		Difficulty: drillgen.DifficultyFor(masteryScore),
		Avoid:      avoid,
	})
	if err != nil {
		p.log.Warn("drill generation failed, using fixed drills", "grammar", g.ID, "err", err)
		return nil
	}
	return drills
}

// Step2 picks transfer questions: fixed drills past the first two that were
// never completed, then any drills past the first two, then synthesized
// transfer drills. Drills shown in Step1 today may repeat here.
func (p *Planner) Step2(ctx context.Context, g content.GrammarPoint) (QuestionPhase, error) {
	completed, err := p.progress.CompletedDrills(ctx, g.ID)
	if err != nil {
		return QuestionPhase{}, fmt.Errorf("loading completed drills: %w", err)
	}
	var tail []content.Drill
	if len(g.Drills) > 2 {
		tail = g.Drills[2:]
	}
	need := p.config.Step2Size

	ids := firstNonEmpty(
		func() []string {
			var ids []string
			for _, d := range tail {
				if !completed[d.ID] {
					ids = append(ids, drill.Fixed(g.ID, d.ID).String())
				}
			}
			if len(ids) < need {
				return nil
			}
			return ids[:need]
		},
		func() []string {
			if len(tail) < need {
				return nil
			}
			ids := make([]string, need)
			for i, d := range tail[:need] {
				ids[i] = drill.Fixed(g.ID, d.ID).String()
			}
			return ids
		},
		func() []string {
			p.log.Debug("synthesizing transfer drills", "grammar", g.ID)
			return []string{
				drill.Transfer(g.ID, drill.TransferMeaning).String(),
				drill.Transfer(g.ID, drill.TransferCounter).String(),
			}
		},
	)
	return QuestionPhase{QuestionIDs: ids}, nil
}

// Step3 orders the previous lesson's vocabulary and the lesson's primary
// pack by review urgency, then tops up with fun words.
func (p *Planner) Step3(ctx context.Context, lesson content.Lesson, level int, now time.Time) (VocabPhase, error) {
	var ids []int
	if prev, ok := p.content.PreviousLesson(lesson.ID); ok {
		for _, packID := range prev.VocabPackIDs {
			if pack, ok := p.content.VocabPack(packID); ok {
				ids = append(ids, pack.VocabIDs...)
			}
		}
	}
	packID := 0
	if len(lesson.VocabPackIDs) > 0 {
		packID = lesson.VocabPackIDs[0]
		if pack, ok := p.content.VocabPack(packID); ok {
			ids = append(ids, pack.VocabIDs...)
		}
	}

	// Drop ids the content no longer knows.
	known := p.content.Vocab(ids)
	ids = ids[:0]
	for _, v := range known {
		ids = append(ids, v.ID)
	}
	if len(ids) == 0 {
		p.log.Debug("no vocabulary for lesson", "lesson", lesson.ID)
		return VocabPhase{PackID: packID}, nil
	}

	ranked, err := p.sched.RankVocab(ctx, ids, now)
	if err != nil {
		return VocabPhase{}, fmt.Errorf("ranking vocabulary: %w", err)
	}
	core := ranked[:min(p.config.Step3Core, len(ranked))]

	selected := map[int]bool{}
	for _, id := range core {
		selected[id] = true
	}
	items := append([]int(nil), core...)
	funCount := min(p.config.Step3Fun, p.config.Step3Max-len(core))
	if funCount > 0 {
		for _, v := range p.content.FunVocab(level, funCount+len(core)) {
			if len(items) == len(core)+funCount {
				break
			}
			if !selected[v.ID] {
				selected[v.ID] = true
				items = append(items, v.ID)
			}
		}
	}
	return VocabPhase{PackID: packID, VocabIDs: items}, nil
}

// Step4 picks application sentences through the style cascade, preferring
// sentences within LevelTolerance of level.
func (p *Planner) Step4(g content.GrammarPoint, level int) SentencePhase {
	candidates := firstNonEmpty(
		func() []content.Sentence { return p.content.SentencesByGrammar(g.ID, content.StyleImmersive) },
		func() []content.Sentence { return p.content.SentencesByGrammar(g.ID, content.StyleTextbook) },
		func() []content.Sentence { return p.content.SentencesByGrammar(g.ID, "") },
		func() []content.Sentence { return p.content.SentencesByLesson(g.LessonID) },
	)

	var near []content.Sentence
	for _, s := range candidates {
		if abs(s.Level-level) <= p.config.LevelTolerance {
			near = append(near, s)
		}
	}
	if len(near) == 0 {
		near = candidates
	}

	var ids []int
	for _, s := range near {
		if len(ids) == p.config.Step4Size {
			break
		}
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		p.log.Debug("no sentences for grammar", "grammar", g.ID)
	}
	return SentencePhase{SentenceIDs: ids}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
