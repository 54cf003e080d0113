package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/kotoba/internal/app"
	"github.com/abhisek/kotoba/internal/session"
	"github.com/abhisek/kotoba/internal/ui/render"
	"github.com/abhisek/kotoba/internal/ui/theme"
)

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withSession opens the app, starts or resumes today's session and calls fn.
func withSession(cmd *cobra.Command, fn func(a *app.App, v session.View) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.Machine.Start(cmd.Context())
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return fn(a, v)
}

func show(cmd *cobra.Command, parts ...string) {
	lipgloss.Fprintln(cmd.OutOrStdout(), strings.Join(parts, "\n\n"))
}

// responseMs returns --ms when set, otherwise the time since the last
// recorded event of the session.
func responseMs(cmd *cobra.Command, a *app.App) int64 {
	if ms, _ := cmd.Flags().GetInt64("ms"); ms > 0 {
		return ms
	}
	s, err := a.Machine.Session()
	if err != nil || s.Timing.LastEventAt.IsZero() {
		return 0
	}
	return time.Since(s.Timing.LastEventAt).Milliseconds()
}

// showNext prints feedback followed by the next item.
func showNext(cmd *cobra.Command, a *app.App, feedback string) error {
	v, err := a.Machine.Current()
	if err != nil {
		return err
	}
	show(cmd, feedback, render.View(v))
	return nil
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Start or resume today's session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ *app.App, v session.View) error {
			show(cmd, render.View(v))
			return nil
		})
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer <option|text>",
	Short: "Answer the current grammar question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, _ session.View) error {
			out, err := a.Machine.Answer(cmd.Context(), strings.Join(args, " "), responseMs(cmd, a))
			if err != nil {
				return err
			}
			show(cmd, render.Feedback(out))
			return nil
		})
	},
}

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Move past the current item",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, _ session.View) error {
			v, err := a.Machine.Continue(cmd.Context())
			if errors.Is(err, session.ErrNotAnswered) {
				return fmt.Errorf("%w: use kotoba answer first", err)
			}
			if err != nil {
				return err
			}
			show(cmd, render.View(v))
			return nil
		})
	},
}

var vocabCmd = &cobra.Command{
	Use:   "vocab <option>",
	Short: "Answer the current vocabulary quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, v session.View) error {
			if v.Phase != session.Step3 {
				return session.ErrWrongPhase
			}
			correct := v.Vocab != nil && v.Vocab.Check(args[0])
			out, err := a.Machine.SubmitVocab(cmd.Context(), correct, responseMs(cmd, a))
			if err != nil {
				return err
			}
			feedback := theme.Correct.Render("✓ Correct")
			switch {
			case out.Skipped:
				feedback = theme.Skipped.Render("This word is unavailable and was skipped.")
			case !out.Correct:
				feedback = theme.Incorrect.Render("✗ Not quite")
				if v.Vocab != nil {
					feedback += theme.Incorrect.Render(". Answer: " + correctOption(v))
				}
			}
			return showNext(cmd, a, feedback)
		})
	},
}

func correctOption(v session.View) string {
	for _, o := range v.Vocab.Options {
		if o.ID == v.Vocab.CorrectOptionID {
			return o.Text
		}
	}
	return ""
}

var sentenceCmd = &cobra.Command{
	Use:   "sentence [key-point-id...]",
	Short: "Submit the key points you noticed in the current sentence",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, _ session.View) error {
			sub, err := a.Machine.SubmitSentence(cmd.Context(), args)
			if err != nil {
				return err
			}
			return showNext(cmd, a, render.Submission(sub))
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM-DD]",
	Short: "Show the summary of a completed session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().Format(time.DateOnly)
		if len(args) == 1 {
			if _, err := time.Parse(time.DateOnly, args[0]); err != nil {
				return fmt.Errorf("invalid date %q: %w", args[0], err)
			}
			date = args[0]
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Machine.Review(cmd.Context(), date)
		if err != nil {
			return err
		}
		if s.Result == nil {
			return fmt.Errorf("session %s has no summary", s.ID)
		}
		show(cmd, theme.Title.Render("Session "+s.Plan.Date), render.Result(s.Result))
		return nil
	},
}

func init() {
	answerCmd.Flags().Int64("ms", 0, "Response time in milliseconds (default: time since the last event)")
	vocabCmd.Flags().Int64("ms", 0, "Response time in milliseconds (default: time since the last event)")
}
