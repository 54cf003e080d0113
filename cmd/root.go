package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/abhisek/kotoba/internal/app"
	"github.com/abhisek/kotoba/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kotoba",
	Short: "Daily Japanese grammar and vocabulary practice",
	Long:  "Kotoba runs one adaptive five-step study session per day: grammar drill, transfer, vocab combo, sentence application and a summary.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return todayCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides KOTOBA_DB env var)")
	rootCmd.PersistentFlags().String("content", "", "Path to a content bundle (overrides KOTOBA_CONTENT env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(continueCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(sentenceCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then KOTOBA_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveContentPath returns the bundle path from --content or
// KOTOBA_CONTENT. Empty means the embedded seed bundle.
func resolveContentPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("content"); p != "" {
		return p
	}
	return os.Getenv("KOTOBA_CONTENT")
}

// openApp wires the application for one command invocation.
func openApp(cmd *cobra.Command) (*app.App, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	opts := app.DefaultOptions()
	opts.DBPath = dbPath
	opts.ContentPath = resolveContentPath(cmd)
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		opts.Log = newLogger(true)
	}
	return app.New(cmd.Context(), opts)
}

// openStore opens the database without loading content or a provider.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
