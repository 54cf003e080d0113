// Package play is the interactive Bubble Tea front end for a daily session.
package play

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/kotoba/internal/session"
	"github.com/abhisek/kotoba/internal/ui/render"
	"github.com/abhisek/kotoba/internal/ui/theme"
)

// Machine is the part of the session state machine the screen drives.
type Machine interface {
	Current() (session.View, error)
	Answer(ctx context.Context, answer string, responseMs int64) (*session.AnswerOutcome, error)
	Continue(ctx context.Context) (session.View, error)
	SubmitVocab(ctx context.Context, correct bool, responseMs int64) (*session.VocabOutcome, error)
	SubmitSentence(ctx context.Context, checked []string) (*session.Submission, error)
}

// Model walks through one session: each line typed into the input is an
// answer, an empty line continues, and q quits keeping progress.
type Model struct {
	ctx     context.Context
	machine Machine
	input   textinput.Model

	view   session.View
	notice string
	shown  time.Time
	now    func() time.Time

	quit bool
	err  error
}

// New creates the screen starting at v.
func New(ctx context.Context, m Machine, v session.View) Model {
	ti := textinput.New()
	ti.Placeholder = "answer, or enter to continue"
	ti.CharLimit = 120
	ti.Focus()

	return Model{
		ctx:     ctx,
		machine: m,
		input:   ti,
		view:    v,
		shown:   time.Now(),
		now:     time.Now,
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "q" {
		m.quit = true
		return m, tea.Quit
	}

	notice, err := m.dispatch(line, m.now().Sub(m.shown).Milliseconds())
	switch {
	case errors.Is(err, session.ErrNotAnswered), errors.Is(err, session.ErrAlreadyAnswered):
		m.notice = theme.Hint.Render(err.Error())
		return m, nil
	case err != nil:
		m.err = err
		return m, tea.Quit
	}

	v, err := m.machine.Current()
	if err != nil {
		m.err = err
		return m, tea.Quit
	}
	m.view = v
	m.notice = notice
	m.shown = m.now()
	if v.Phase == session.Step5 {
		return m, tea.Quit
	}
	return m, nil
}

// dispatch sends line to the machine according to the current phase and
// returns the feedback to show above the next item.
func (m Model) dispatch(line string, ms int64) (string, error) {
	v := m.view
	switch {
	case v.Phase == session.Step1 || v.Phase == session.Step2:
		if line == "" || v.Answer != nil || v.Missing {
			_, err := m.machine.Continue(m.ctx)
			return "", err
		}
		out, err := m.machine.Answer(m.ctx, line, ms)
		if err != nil {
			return "", err
		}
		return render.Feedback(out), nil

	case v.Phase == session.Step3:
		if line == "" && !v.Missing {
			return "", session.ErrNotAnswered
		}
		out, err := m.machine.SubmitVocab(m.ctx, v.Vocab != nil && v.Vocab.Check(line), ms)
		switch {
		case err != nil:
			return "", err
		case out.Skipped:
			return theme.Skipped.Render("This word is unavailable and was skipped."), nil
		case out.Correct:
			return theme.Correct.Render("✓ Correct"), nil
		}
		return theme.Incorrect.Render("✗ Not quite"), nil

	case v.Sentence != nil || v.Missing:
		sub, err := m.machine.SubmitSentence(m.ctx, strings.Fields(line))
		if err != nil {
			return "", err
		}
		return render.Submission(sub), nil
	}
	_, err := m.machine.Continue(m.ctx)
	return "", err
}

// View renders feedback, the current item and the input line.
func (m Model) View() tea.View {
	return tea.NewView(m.content())
}

func (m Model) content() string {
	var parts []string
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	parts = append(parts, render.View(m.view))
	switch {
	case m.quit:
		parts = append(parts, theme.Hint.Render("Progress saved. kotoba play resumes where you left off."))
	case m.err != nil:
	case m.view.Phase != session.Step5:
		parts = append(parts, m.input.View(), theme.Subtitle.Render("enter on an empty line continues · q quits"))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// Err returns the error that stopped the screen, if any.
func (m Model) Err() error {
	return m.err
}

// Quit reports whether the learner left before the session finished.
func (m Model) Quit() bool {
	return m.quit
}

// Phase returns the phase currently shown.
func (m Model) Phase() session.Phase {
	return m.view.Phase
}
