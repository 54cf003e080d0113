package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotoba/internal/spacedrep"
	"github.com/abhisek/kotoba/internal/ui/render"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		up, err := s.ProgressRepo().UserProgress(ctx)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Lesson:    %d (grammar #%d)\n", up.CurrentLessonID, up.CurrentGrammarIndex+1)
		fmt.Fprintf(out, "Level:     %d\n", up.CurrentLevel)
		fmt.Fprintf(out, "Streak:    %d day(s)\n", up.StreakDays)
		if up.LastCompletedDate != "" {
			fmt.Fprintf(out, "Last done: %s\n", up.LastCompletedDate)
		}

		stats, err := s.EventRepo().AnswerStats(ctx)
		if err != nil {
			return fmt.Errorf("query answers: %w", err)
		}
		if len(stats) == 0 {
			fmt.Fprintln(out, "\nNo answers recorded yet.")
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-8s  %7s  %7s  %s\n", "Phase", "Answers", "Correct", "Accuracy")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, st := range stats {
			label := fmt.Sprintf("%-8s  %7d  %7d  ", st.Phase, st.Total, st.Correct)
			fmt.Fprintln(out, render.ProgressBar(label, st.Correct, st.Total, 60))
		}
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List grammar and vocabulary due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		now := time.Now()
		grammar, err := a.Scheduler.DueGrammar(ctx, now, limit)
		if err != nil {
			return fmt.Errorf("query due grammar: %w", err)
		}
		vocab, err := a.Scheduler.DueVocab(ctx, now, limit)
		if err != nil {
			return fmt.Errorf("query due vocab: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(grammar) == 0 && len(vocab) == 0 {
			fmt.Fprintln(out, "Nothing due. Nice.")
			return nil
		}
		if len(grammar) > 0 {
			fmt.Fprintf(out, "Grammar (%d)\n", len(grammar))
			for _, g := range grammar {
				name := fmt.Sprintf("g%d", g.GrammarID)
				if gp, ok := a.Content.GrammarPoint(g.GrammarID); ok {
					name = gp.Name
				}
				fmt.Fprintf(out, "  %-24s  mastery %3d  %s\n", name, g.Mastery, dueLabel(a.Scheduler, g.NextReviewAt, now))
			}
		}
		if len(vocab) > 0 {
			fmt.Fprintf(out, "Vocabulary (%d)\n", len(vocab))
			for _, v := range vocab {
				name := fmt.Sprintf("v%d", v.VocabID)
				if words := a.Content.Vocab([]int{v.VocabID}); len(words) == 1 {
					name = words[0].Surface
				}
				flag := ""
				if v.Blocking {
					flag = "  blocking"
				}
				fmt.Fprintf(out, "  %-24s  strength %3d  %s%s\n", name, v.Strength, dueLabel(a.Scheduler, v.NextReviewAt, now), flag)
			}
		}
		return nil
	},
}

func dueLabel(s *spacedrep.Scheduler, next *time.Time, now time.Time) string {
	switch {
	case next == nil:
		return "unscheduled"
	case s.IsOverdue(next, now):
		return fmt.Sprintf("overdue %.0fd", spacedrep.OverdueDays(next, now))
	}
	return "due"
}

func init() {
	dueCmd.Flags().IntP("limit", "n", 20, "Maximum items per kind")
}
