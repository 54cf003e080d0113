package session

import (
	"errors"
	"time"

	"github.com/abhisek/kotoba/internal/store"
)

var (
	// ErrNoGrammarContent means neither the learner's lesson nor the default
	// lesson has any grammar point. Planning cannot proceed.
	ErrNoGrammarContent = errors.New("no grammar content available")

	// ErrWrongPhase is returned when an event does not apply to the current phase.
	ErrWrongPhase = errors.New("event does not apply to the current phase")

	// ErrSessionFinished is returned for events after the summary was reached.
	ErrSessionFinished = errors.New("session already finished")

	// ErrUnknownQuestion is returned when there is no current item to act on.
	ErrUnknownQuestion = errors.New("no current question")

	// ErrNotAnswered is returned by Continue before the current question was answered.
	ErrNotAnswered = errors.New("current question not answered yet")

	// ErrAlreadyAnswered is returned when the current question already has an answer.
	ErrAlreadyAnswered = errors.New("current question already answered")

	// ErrNoSession is returned when no session exists for the requested date.
	ErrNoSession = errors.New("no session for date")

	// ErrNotStarted is returned when an event arrives before Start.
	ErrNotStarted = errors.New("session not started")
)

// PassMode selects which sentence check a submission uses.
type PassMode string

const (
	PassAny     PassMode = "any"     // either check
	PassChecked PassMode = "checked" // hit count only
	PassRate    PassMode = "rate"    // hit rate only
)

// PassPolicy decides whether a sentence submission passed.
type PassPolicy struct {
	MinChecked int
	MinHitRate float64
	Mode       PassMode
}

// Passed reports whether hits out of total key points is a pass.
func (p PassPolicy) Passed(hits, total int) bool {
	if total == 0 {
		return false
	}
	byCount := hits >= p.MinChecked
	byRate := float64(hits)/float64(total) >= p.MinHitRate
	switch p.Mode {
	case PassChecked:
		return byCount
	case PassRate:
		return byRate
	}
	return byCount || byRate
}

// Config holds the planner and state machine policy.
type Config struct {
	// MasteryThreshold is the mastery at which a grammar point counts as learned.
	MasteryThreshold int
	DefaultLessonID  int

	Step1Size      int
	Step1MaxReview int
	Step2Size      int

	Step3Core int
	Step3Fun  int
	Step3Max  int

	Step4Size      int
	LevelTolerance int

	Pass PassPolicy

	// UnlockStreak completed sessions of one lesson, each at or above
	// UnlockAccuracy grammar accuracy, unlock the next lesson.
	UnlockStreak   int
	UnlockAccuracy float64

	MaxLevel int

	// GenerationTimeout bounds drill generation while planning.
	GenerationTimeout time.Duration

	// MaxIdle caps how much of a pause between events counts as elapsed time.
	MaxIdle time.Duration
}

// DefaultConfig returns the standard policy.
func DefaultConfig() Config {
	return Config{
		MasteryThreshold:  50,
		DefaultLessonID:   store.DefaultLessonID,
		Step1Size:         3,
		Step1MaxReview:    2,
		Step2Size:         2,
		Step3Core:         12,
		Step3Fun:          5,
		Step3Max:          15,
		Step4Size:         2,
		LevelTolerance:    1,
		Pass:              PassPolicy{MinChecked: 3, MinHitRate: 0.7, Mode: PassAny},
		UnlockStreak:      3,
		UnlockAccuracy:    0.85,
		MaxLevel:          5,
		GenerationTimeout: 10 * time.Second,
		MaxIdle:           5 * time.Minute,
	}
}
