package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github/itish2003/ddqchat/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the DDQ assistant API server.

The server keeps sessions in memory, answers questions from the default
knowledge base or a per-session upload, and appends every exchange to the
conversation log.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.WatchKnowledgeBase && a.library.Path() != "" {
		watcher := services.NewKnowledgeWatcher(a.library, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("Knowledge base watcher stopped", zap.Error(err))
			}
		}()
	}

	go pruneSessions(ctx, a, time.Duration(cfg.SessionIdleMinutes)*time.Minute)

	port := cfg.Port
	if servePort > 0 {
		port = servePort
	}

	info := a.library.Info(a.library.Default())
	logger.Info("Knowledge base loaded",
		zap.String("name", info.Name),
		zap.Int("entries", info.Entries),
		zap.String("hash", info.Hash))

	return a.server(cfg, logger).Start(ctx, fmt.Sprintf(":%d", port))
}

// pruneSessions drops idle sessions until ctx is done.
func pruneSessions(ctx context.Context, a *app, maxIdle time.Duration) {
	interval := maxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pruneIdle(maxIdle)
		}
	}
}
