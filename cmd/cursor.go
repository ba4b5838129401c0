package cmd

import (
	"fmt"

	"stash-ingest/core/config"
	"stash-ingest/core/cursor"
	"stash-ingest/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cursorCmd groups the resume cursor commands
var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or reset the feed resume cursor",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// cursorShowCmd represents the cursor show command
var cursorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last committed cursor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, closeFn, err := openCursor(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		stored, err := store.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load cursor: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend:  %s\n", cfg.Cursor.Backend)
		if stored == "" {
			fmt.Fprintf(out, "cursor:   (none, starting from %q)\n", cfg.Feed.InitialCursor)
			return nil
		}
		fmt.Fprintf(out, "cursor:   %s\n", stored)
		return nil
	},
}

// cursorSetCmd represents the cursor set command
var cursorSetCmd = &cobra.Command{
	Use:   "set <cursor>",
	Short: "Overwrite the committed cursor",
	Long:  `Stores the given cursor so that the next start resumes from it. Run it while the service is stopped.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, closeFn, err := openCursor(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Save(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to save cursor: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cursor set to %s (%s backend)\n", args[0], cfg.Cursor.Backend)
		return nil
	},
}

// openCursor opens the configured backend without the CURSOR_OVERRIDE wrapper.
func openCursor(cmd *cobra.Command) (*config.Config, cursor.Store, func(), error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	b, err := openBackends(cmd.Context(), cfg, logg)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg.Cursor.Override = ""
	store, err := b.cursorStore(cmd.Context(), cfg)
	if err != nil {
		b.close()
		return nil, nil, nil, err
	}
	logg.Debug("Cursor store opened", zap.String("backend", cfg.Cursor.Backend))
	return cfg, store, b.close, nil
}

func init() {
	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorSetCmd)
	RootCmd.AddCommand(cursorCmd)
}
