// Command boardctl edits the local planning workspace and, when a server is
// configured, mirrors every change to it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/config"
	"github.com/harrylevesque/boardroom/internal/files"
	"github.com/harrylevesque/boardroom/internal/remote"
	"github.com/harrylevesque/boardroom/internal/utils"
)

var (
	configPath string
	serverURL  string
	offline    bool
	asJSON     bool

	cfg    *config.Config
	logger *zap.Logger
	client *remote.Client
	ws     *board.Workspace
)

var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "Strategic planning boards from the terminal",
	Long: `boardctl manages planning boards, their items and the discussion feed.

State lives in a workspace file under the configured data directory. When a
server is configured every change is mirrored to it in order; sync failures
are reported but never undo the local change.`,
	SilenceUsage:      true,
	PersistentPreRunE: openWorkspace,
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return closeWorkspace(cmd.Context(), cmd.ErrOrStderr())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL, overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "do not sync with the server")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(boardCmd(), itemCmd(), templateCmd(), postCmd(), demoCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if ws != nil {
			_ = closeWorkspace(context.Background(), os.Stderr)
		}
		os.Exit(1)
	}
}

func openWorkspace(cmd *cobra.Command, _ []string) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Workspace.Server = serverURL
	}
	if offline {
		cfg.Workspace.Server = ""
	}
	logCfg := cfg.Logging
	if logCfg.File == "" {
		// Keep stderr for the user; log to a file beside the workspace.
		logCfg.File = filepath.Join(cfg.Workspace.Dir, "boardctl.log")
	}
	if err := os.MkdirAll(cfg.Workspace.Dir, 0o700); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}
	if logger, err = utils.NewLogger(logCfg); err != nil {
		return err
	}

	var storeOpts []files.StoreOption
	if cfg.Workspace.Seal {
		key, err := files.ReadMasterKey(filepath.Join(cfg.Workspace.Dir, files.MasterKeyFile))
		if err != nil {
			return err
		}
		storeOpts = append(storeOpts, files.WithSealKey(key))
	}
	store, err := files.NewSnapshotStore(filepath.Join(cfg.Workspace.Dir, files.DefaultSnapshotName), storeOpts...)
	if err != nil {
		return err
	}

	opts := []board.Option{
		board.WithStore(store),
		board.WithLogger(logger),
		board.WithSyncTimeout(cfg.Workspace.SyncTimeout),
	}
	if cfg.Workspace.Server != "" {
		if client, err = remote.New(cfg.Workspace.Server); err != nil {
			return err
		}
		opts = append(opts, board.WithRemote(client))
	}
	ws, err = board.Open(cmd.Context(), opts...)
	return err
}

// closeWorkspace flushes pending syncs and prints the notifications they
// produced.
func closeWorkspace(ctx context.Context, out io.Writer) error {
	if ws == nil {
		return nil
	}
	err := ws.Close(ctx)
	for _, n := range ws.Notifications() {
		fmt.Fprintln(out, "»", n)
	}
	if logger != nil {
		_ = logger.Sync()
	}
	ws = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
