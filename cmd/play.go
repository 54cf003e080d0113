package cmd

import (
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/kotoba/internal/app"
	"github.com/abhisek/kotoba/internal/session"
	"github.com/abhisek/kotoba/internal/ui/play"
	"github.com/abhisek/kotoba/internal/ui/render"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run today's session interactively",
	Long:  "Play walks through today's session in one sitting. Type an answer and press enter; enter on an empty line continues and q quits keeping progress.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, v session.View) error {
			if v.Phase == session.Step5 {
				show(cmd, render.View(v))
				return nil
			}

			p := tea.NewProgram(play.New(cmd.Context(), a.Machine, v),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			final, err := p.Run()
			if err != nil && !errors.Is(err, tea.ErrInterrupted) {
				return fmt.Errorf("run session: %w", err)
			}
			if m, ok := final.(play.Model); ok {
				return m.Err()
			}
			return nil
		})
	},
}
