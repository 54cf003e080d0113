package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repositories.
const (
	tableGrammarStates   = "grammar_states"
	tableVocabStates     = "vocab_states"
	tableUserProgress    = "user_progress"
	tableCompletedDrills = "completed_drills"
	tableSessions        = "sessions"
	tableAnswerEvents    = "answer_events"
	tableLLMEvents       = "llm_events"
)

var (
	grammarStatesColumns = []*schema.Column{
		{Name: "grammar_id", Type: field.TypeInt},
		{Name: "mastery", Type: field.TypeInt, Default: 0},
		{Name: "next_review_at", Type: field.TypeInt64, Nullable: true},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	grammarStatesTable = &schema.Table{
		Name:       tableGrammarStates,
		Columns:    grammarStatesColumns,
		PrimaryKey: []*schema.Column{grammarStatesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "grammarstate_next_review_at", Columns: []*schema.Column{grammarStatesColumns[2]}},
		},
	}

	vocabStatesColumns = []*schema.Column{
		{Name: "vocab_id", Type: field.TypeInt},
		{Name: "strength", Type: field.TypeInt, Default: 0},
		{Name: "last_seen_at", Type: field.TypeInt64, Nullable: true},
		{Name: "next_review_at", Type: field.TypeInt64, Nullable: true},
		{Name: "blocking", Type: field.TypeBool, Default: false},
		{Name: "wrong_count", Type: field.TypeInt, Default: 0},
		{Name: "wrong_window_start", Type: field.TypeInt64, Nullable: true},
	}
	vocabStatesTable = &schema.Table{
		Name:       tableVocabStates,
		Columns:    vocabStatesColumns,
		PrimaryKey: []*schema.Column{vocabStatesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "vocabstate_next_review_at", Columns: []*schema.Column{vocabStatesColumns[3]}},
		},
	}

	userProgressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "lesson_id", Type: field.TypeInt},
		{Name: "grammar_index", Type: field.TypeInt, Default: 0},
		{Name: "level", Type: field.TypeInt, Default: 1},
		{Name: "streak_days", Type: field.TypeInt, Default: 0},
		{Name: "last_completed_date", Type: field.TypeString, Default: ""},
	}
	userProgressTable = &schema.Table{
		Name:       tableUserProgress,
		Columns:    userProgressColumns,
		PrimaryKey: []*schema.Column{userProgressColumns[0]},
	}

	completedDrillsColumns = []*schema.Column{
		{Name: "grammar_id", Type: field.TypeInt},
		{Name: "drill_id", Type: field.TypeString},
		{Name: "completed_at", Type: field.TypeInt64},
	}
	completedDrillsTable = &schema.Table{
		Name:       tableCompletedDrills,
		Columns:    completedDrillsColumns,
		PrimaryKey: []*schema.Column{completedDrillsColumns[0], completedDrillsColumns[1]},
	}

	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "date", Type: field.TypeString, Unique: true},
		{Name: "status", Type: field.TypeString},
		{Name: "grammar_accuracy", Type: field.TypeFloat64, Default: 0},
		{Name: "data", Type: field.TypeBytes},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_status_date", Columns: []*schema.Column{sessionsColumns[2], sessionsColumns[1]}},
		},
	}

	answerEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "phase", Type: field.TypeString},
		{Name: "item_id", Type: field.TypeString},
		{Name: "grammar_id", Type: field.TypeInt, Default: 0},
		{Name: "vocab_id", Type: field.TypeInt, Default: 0},
		{Name: "correct", Type: field.TypeBool},
		{Name: "response_ms", Type: field.TypeInt64, Default: 0},
	}
	answerEventsTable = &schema.Table{
		Name:       tableAnswerEvents,
		Columns:    answerEventsColumns,
		PrimaryKey: []*schema.Column{answerEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answerevent_session_id", Columns: []*schema.Column{answerEventsColumns[3]}},
		},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
	}

	tables = []*schema.Table{
		grammarStatesTable,
		vocabStatesTable,
		userProgressTable,
		completedDrillsTable,
		sessionsTable,
		answerEventsTable,
		llmEventsTable,
	}
)

// migrate creates or alters the tables above through ent's schema migrator.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
