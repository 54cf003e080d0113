// Package app wires the store, content, generation and session layers
// into one object the CLI commands share.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/kotoba/internal/content"
	"github.com/abhisek/kotoba/internal/drillgen"
	"github.com/abhisek/kotoba/internal/llm"
	"github.com/abhisek/kotoba/internal/mastery"
	"github.com/abhisek/kotoba/internal/session"
	"github.com/abhisek/kotoba/internal/spacedrep"
	"github.com/abhisek/kotoba/internal/store"
)

// Options configures New.
type Options struct {
	DBPath      string
	ContentPath string // empty uses the embedded seed bundle

	LLM      llm.Config
	DrillGen drillgen.Config
	Session  session.Config
	Review   spacedrep.Policy
	Assessor mastery.Config

	Log *slog.Logger
}

// DefaultOptions returns options with every package default and the LLM
// configuration taken from the environment.
func DefaultOptions() Options {
	return Options{
		LLM:      llm.ConfigFromEnv(),
		DrillGen: drillgen.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Review:   spacedrep.DefaultPolicy(),
		Assessor: mastery.DefaultConfig(),
	}
}

// App holds the wired dependencies.
type App struct {
	Store     *store.Store
	Content   *content.Catalog
	Provider  llm.Provider // nil when generation is off
	Drills    *drillgen.Service
	Scheduler *spacedrep.Scheduler
	Planner   *session.Planner
	Machine   *session.Machine
	Log       *slog.Logger
}

// New opens the store and builds every service. A misconfigured LLM
// provider is reported and generation is switched off.
func New(ctx context.Context, opts Options) (*App, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	cat, err := content.Load(opts.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider, err := llm.NewProvider(ctx, opts.LLM, st.EventRepo(), log)
	if err != nil {
		log.Warn("LLM provider not configured, drill generation unavailable", "err", err)
		provider = nil
	}
	var gen drillgen.Generator
	if provider != nil {
		gen = drillgen.NewLLMGenerator(provider, opts.DrillGen)
	}
	drills := drillgen.NewService(gen, drillgen.NewCache(opts.DrillGen.CacheTTL), opts.DrillGen, log)

	sched := spacedrep.NewScheduler(st.ProgressRepo(), opts.Review)
	planner := session.NewPlanner(cat, st.ProgressRepo(), sched, drills, opts.Session, log)
	machine := session.NewMachine(session.Deps{
		Planner:   planner,
		Content:   cat,
		Cache:     drills.Cache(),
		Sessions:  st.SessionRepo(),
		Progress:  st.ProgressRepo(),
		Events:    st.EventRepo(),
		Tx:        st,
		Scheduler: sched,
		Assessor:  mastery.NewRuleAssessor(opts.Assessor),
		Log:       log,
	}, opts.Session)

	return &App{
		Store:     st,
		Content:   cat,
		Provider:  provider,
		Drills:    drills,
		Scheduler: sched,
		Planner:   planner,
		Machine:   machine,
		Log:       log,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
