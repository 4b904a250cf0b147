package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nebolabs/webagent/internal/browser"
	"github.com/nebolabs/webagent/internal/config"
	"github.com/nebolabs/webagent/internal/consolesink"
	"github.com/nebolabs/webagent/internal/events"
	"github.com/nebolabs/webagent/internal/httpapi"
	"github.com/nebolabs/webagent/internal/runstore"
	"github.com/nebolabs/webagent/internal/webagent"
)

func newRunCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run the agent loop once against a task",
		Long: `run loads the configured browser and LLM capabilities, runs the
planner, then iterates the action loop until the model reports done and the
task validator agrees, printing the final answer on success.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.Join(args, " ")
			if task == "" {
				return fmt.Errorf("run requires a task, e.g. webagent run \"find the wikipedia page for alan turing\"")
			}
			return runTask(cmd.Context(), task, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "hot-reload the config file while the run is in progress")
	return cmd
}

func runTask(parentCtx context.Context, task string, watch bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	raw, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	resolved, err := config.Resolve(raw)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if watch {
		go func() {
			_ = config.Watch(ctx, cfgFile, logger, func(c config.Config) {
				logger.Info("config changed; restart the run to apply it")
			})
		}()
	}

	store, err := runstore.Open(resolved.Store)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	var httpServer *httpapi.Server
	if resolved.HTTP.Addr != "" {
		httpServer = httpapi.NewServer(resolved.HTTP, store, logger)
		go func() {
			if err := httpServer.ListenAndServe(ctx); err != nil {
				logger.Error("http api stopped", "error", err)
			}
		}()
	}

	runID := uuid.NewString()
	bus := events.NewBus(logger)
	defer bus.Close()

	consolesink.New(logger).Attach(bus)
	store.Sink(ctx, bus, runID)

	if httpServer != nil {
		httpServer.RegisterLive(runID, bus)
		defer httpServer.UnregisterLive(runID)
	}

	if err := store.CreateRun(ctx, runID, task); err != nil {
		return fmt.Errorf("create run record: %w", err)
	}

	browserCap := browser.New(*resolved.Browser)
	if err := browserCap.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browserCap.Shutdown(context.Background())

	loop := webagent.NewLoop(browserCap, resolved.NewLLMCapability(), bus, webagent.LoopConfig{
		MaxIterations:             resolved.MaxIterations,
		MaxSchemaRepairAttempts:   resolved.MaxSchemaRepairAttempts,
		MaxTaskValidationAttempts: resolved.MaxTaskValidationAttempts,
	})

	answer, runErr := loop.Run(ctx, task)

	status := runstore.StatusCompleted
	errMsg := ""
	switch {
	case runErr != nil:
		status = runstore.StatusFailed
		errMsg = runErr.Error()
	case ctx.Err() != nil:
		status = runstore.StatusCancelled
	}
	_ = store.Finish(context.Background(), runID, status, answer, errMsg)

	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	if ctx.Err() != nil {
		fmt.Println("cancelled")
		return nil
	}

	fmt.Println(answer)
	return nil
}
