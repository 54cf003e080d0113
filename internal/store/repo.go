package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	Purpose string // LLM events only; empty matches all
}

// GrammarState is the learner's mastery of one grammar point.
type GrammarState struct {
	GrammarID    int
	Mastery      int        // 0-100
	NextReviewAt *time.Time // nil = never scheduled
	UpdatedAt    time.Time
}

// VocabState is the learner's strength on one word.
type VocabState struct {
	VocabID      int
	Strength     int // 0-100
	LastSeenAt   *time.Time
	NextReviewAt *time.Time
	Blocking     bool // impeded comprehension of a sentence

	// WrongCount counts wrong answers since WrongWindowStart; the window
	// is rolled forward after 7 days.
	WrongCount       int
	WrongWindowStart *time.Time
}

// DefaultLessonID is the lesson a learner with no saved progress starts on.
const DefaultLessonID = 1

// UserProgress is the learner's position on the lesson track.
type UserProgress struct {
	CurrentLessonID     int
	CurrentGrammarIndex int
	CurrentLevel        int
	StreakDays          int
	LastCompletedDate   string // YYYY-MM-DD, empty if never
}

// DefaultUserProgress is returned when no progress has been saved.
func DefaultUserProgress() UserProgress {
	return UserProgress{CurrentLessonID: DefaultLessonID, CurrentLevel: 1}
}

// ProgressUpdate is a partial update; nil fields are left unchanged.
type ProgressUpdate struct {
	LessonID          *int
	GrammarIndex      *int
	Level             *int
	StreakDays        *int
	LastCompletedDate *string
}

// ProgressRepo persists mastery, strength, and track position.
type ProgressRepo interface {
	// UserProgress returns the saved progress, or DefaultUserProgress.
	UserProgress(ctx context.Context) (UserProgress, error)

	// UpdateUserProgress applies a partial update.
	UpdateUserProgress(ctx context.Context, u ProgressUpdate) error

	// GrammarState returns the state for id, or nil if never attempted.
	GrammarState(ctx context.Context, id int) (*GrammarState, error)

	// VocabState returns the state for id, or nil if never seen.
	VocabState(ctx context.Context, id int) (*VocabState, error)

	// VocabStates returns the states that exist for ids.
	VocabStates(ctx context.Context, ids []int) (map[int]VocabState, error)

	// DueGrammar returns states whose next review is unset or at/before
	// now, most overdue first. limit <= 0 means unlimited.
	DueGrammar(ctx context.Context, now time.Time, limit int) ([]GrammarState, error)

	// DueVocab is DueGrammar for vocabulary.
	DueVocab(ctx context.Context, now time.Time, limit int) ([]VocabState, error)

	UpsertGrammarState(ctx context.Context, s GrammarState) error
	UpsertVocabState(ctx context.Context, s VocabState) error

	// CompletedDrills returns the fixed drill ids answered for grammarID.
	CompletedDrills(ctx context.Context, grammarID int) (map[string]bool, error)

	// MarkDrillCompleted records a fixed drill as answered. Idempotent.
	MarkDrillCompleted(ctx context.Context, grammarID int, drillID string, at time.Time) error

	// Reset deletes all learner progress and sessions.
	Reset(ctx context.Context) error
}

// SessionStatus is the lifecycle state of a persisted session.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionCompleted SessionStatus = "completed"
)

// SessionRecord is a persisted daily session. Data is the session's own
// JSON encoding and is opaque to the store.
type SessionRecord struct {
	ID              string
	Date            string // YYYY-MM-DD
	Status          SessionStatus
	GrammarAccuracy float64 // set on completion
	Data            []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SessionRepo persists daily sessions. At most one session exists per date.
type SessionRepo interface {
	// OpenSessionForDate returns the unfinished session for date, or nil.
	OpenSessionForDate(ctx context.Context, date string) (*SessionRecord, error)

	// CompletedSessionForDate returns the finished session for date, or nil.
	CompletedSessionForDate(ctx context.Context, date string) (*SessionRecord, error)

	// SaveSession inserts or updates rec by id.
	SaveSession(ctx context.Context, rec *SessionRecord) error

	// RecentCompleted returns up to limit completed sessions, newest first.
	RecentCompleted(ctx context.Context, limit int) ([]SessionRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM usage for one purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// AnswerEventData captures a single answered item.
type AnswerEventData struct {
	SessionID  string
	Phase      string
	ItemID     string
	GrammarID  int
	VocabID    int
	Correct    bool
	ResponseMs int64
}

// AnswerStat aggregates answers per phase.
type AnswerStat struct {
	Phase   string
	Total   int
	Correct int
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if not found.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)

	// AppendAnswerEvent records one answered item.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error

	// AnswerStats aggregates all answers per phase.
	AnswerStats(ctx context.Context) ([]AnswerStat, error)
}
