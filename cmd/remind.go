package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/kotoba/internal/reminder"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Prepare the daily session on a schedule",
	Long: `Remind stays in the foreground and prepares each day's session at --at
local time, printing how much review is waiting. With --now it runs once
and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		notify := reminder.NotifierFunc(func(_ context.Context, s reminder.Summary) error {
			if s.Finished {
				_, err := fmt.Fprintf(out, "[%s] Today's session is done. %d grammar and %d words due tomorrow.\n",
					s.Date, s.DueGrammar, s.DueVocab)
				return err
			}
			_, err := fmt.Fprintf(out, "[%s] Your session is ready at %s. %d grammar and %d words due for review.\n",
				s.Date, s.Phase.Title(), s.DueGrammar, s.DueVocab)
			return err
		})
		job := reminder.NewJob(a.Machine, a.Scheduler, notify, a.Log)

		if once, _ := cmd.Flags().GetBool("now"); once {
			_, err := job.Run(cmd.Context())
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		at, _ := cmd.Flags().GetString("at")
		sched := reminder.NewScheduler(job, at, time.Local)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		fmt.Fprintf(out, "Next reminder at %s. Ctrl-C to stop.\n", sched.NextRun().Format("2006-01-02 15:04"))
		<-ctx.Done()
		return nil
	},
}

func init() {
	remindCmd.Flags().String("at", reminder.DefaultAt, "Daily run time (HH:MM, local)")
	remindCmd.Flags().Bool("now", false, "Run once immediately and exit")
}
