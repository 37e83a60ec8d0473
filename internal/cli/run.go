package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marlonsouza/magic-pipe/internal/backend"
	"github.com/marlonsouza/magic-pipe/internal/cache"
	"github.com/marlonsouza/magic-pipe/internal/chunk"
	"github.com/marlonsouza/magic-pipe/internal/config"
	"github.com/marlonsouza/magic-pipe/internal/dispatch"
	"github.com/marlonsouza/magic-pipe/internal/gitdiff"
	"github.com/marlonsouza/magic-pipe/internal/github"
	"github.com/marlonsouza/magic-pipe/internal/output"
	"github.com/marlonsouza/magic-pipe/internal/report"
)

var (
	flagConfig   string
	flagBaseRef  string
	flagHeadRef  string
	flagModel    string
	flagMode     string
	flagOut      string
	flagDetailed bool
	flagNoPost   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Review the changes between two git refs",
	Long:  "Diff the configured base and head refs, review the changes with the configured backend, and write the markdown report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitConfigError
			return nil
		}
		applyFlags(&cfg)

		logger := newLogger(os.Stderr, cfg.Debug)
		slog.SetDefault(logger)

		exitCode = runReview(cmd.Context(), cfg, logger)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a TOML settings file")
	runCmd.Flags().StringVar(&flagBaseRef, "base", "", "Base ref to diff against")
	runCmd.Flags().StringVar(&flagHeadRef, "head", "", "Head ref to review")
	runCmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	runCmd.Flags().StringVar(&flagMode, "mode", "", "Review mode (direct, mcp)")
	runCmd.Flags().StringVar(&flagOut, "out", "", "Report output path")
	runCmd.Flags().BoolVar(&flagDetailed, "detailed", false, "Include the full review of every file")
	runCmd.Flags().BoolVar(&flagNoPost, "no-post", false, "Skip posting the report as a PR comment")
}

func applyFlags(cfg *config.Config) {
	if flagBaseRef != "" {
		cfg.BaseRef = flagBaseRef
	}
	if flagHeadRef != "" {
		cfg.HeadRef = flagHeadRef
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagMode != "" {
		cfg.Mode = flagMode
	}
	if flagOut != "" {
		cfg.OutputPath = flagOut
	}
	if flagDetailed {
		cfg.Detailed = true
	}
	if flagNoPost {
		cfg.GitHub.PostComment = false
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runReview executes the whole pipeline and returns the process exit code.
// Whatever happens, it tries to leave a report artifact behind: a real one
// when the run got far enough, a fallback note otherwise.
func runReview(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	changes, err := gitdiff.Extract(ctx, cfg.BaseRef, cfg.HeadRef, gitdiff.Options{
		RepoDir:      cfg.RepoDir,
		ContextLines: cfg.ContextLines,
	})
	if err != nil {
		return fail(cfg, logger, ExitRuntimeError, fmt.Errorf("extracting diff: %w", err))
	}
	logger.Info("extracted diff",
		"base", changes.BaseRef, "head", changes.HeadRef, "files", len(changes.Files))

	builder := chunk.NewBuilder(
		chunk.TokenBudget{MaxPromptTokens: cfg.MaxPromptTokens},
		chunk.Options{Detailed: cfg.Detailed, RedactSecrets: cfg.RedactSecrets},
	)
	requests, err := builder.BuildAll(changes)
	if err != nil {
		return fail(cfg, logger, ExitRuntimeError, fmt.Errorf("building review requests: %w", err))
	}
	logger.Info("built review requests", "requests", len(requests))

	be, err := backend.New(backend.Config{
		Mode:        backend.Mode(cfg.Mode),
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.APIBaseURL,
		MCPEndpoint: cfg.MCPEndpoint,
	})
	if err != nil {
		return fail(cfg, logger, ExitConfigError, fmt.Errorf("creating %s backend: %w", cfg.Mode, err))
	}
	if closer, ok := be.(io.Closer); ok {
		defer closer.Close()
	}

	respCache, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		logger.Warn("cache unavailable, continuing without it", "error", err)
		respCache = nil
	}

	results, dispatchErr := dispatch.Run(ctx, requests, be, dispatch.Options{
		MaxInFlight: cfg.MaxInFlight,
		MaxAttempts: cfg.MaxAttempts,
		CallTimeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		RunDeadline: time.Duration(cfg.RunDeadlineSeconds) * time.Second,
		Cache:       respCache,
		Model:       cfg.Model,
		Logger:      logger,
	})

	rep, err := report.Aggregate(requests, results, len(changes.Files))
	if err != nil {
		return fail(cfg, logger, ExitRuntimeError, err)
	}

	if dispatchErr != nil {
		code := ExitRuntimeError
		var fatal *backend.FatalError
		if errors.As(dispatchErr, &fatal) && (fatal.Status == 401 || fatal.Status == 403) {
			code = ExitConfigError
		}
		anyReviewed := false
		for _, sec := range rep.Sections {
			if sec.Reviewed() {
				anyReviewed = true
				break
			}
		}
		if !anyReviewed {
			// Nothing was reviewed before the abort, so a partial
			// report would carry only placeholders. Leave the
			// fallback note instead.
			return fail(cfg, logger, code, dispatchErr)
		}
		logger.Error("review run aborted, writing partial report", "error", dispatchErr)
		if doc, rerr := output.Render(rep, cfg.Detailed); rerr == nil {
			if werr := output.WriteArtifact(cfg.OutputPath, doc); werr != nil {
				logger.Error("writing report artifact", "error", werr)
			}
		}
		return code
	}

	doc, err := output.Render(rep, cfg.Detailed)
	if err != nil {
		return fail(cfg, logger, ExitRuntimeError, fmt.Errorf("rendering report: %w", err))
	}
	if err := output.WriteArtifact(cfg.OutputPath, doc); err != nil {
		logger.Error("writing report artifact", "error", err)
		return ExitRuntimeError
	}
	logger.Info("report written",
		"path", cfg.OutputPath, "files", rep.TotalFiles, "failed", rep.Failed, "skipped", rep.Skipped)

	if cfg.GitHub.PostComment {
		if err := postComment(ctx, cfg, doc); err != nil {
			logger.Error("posting PR comment", "error", err)
			return ExitRuntimeError
		}
		logger.Info("posted PR comment",
			"repository", cfg.GitHub.Repository, "pr", cfg.GitHub.PRNumber)
	}
	return ExitSuccess
}

func postComment(ctx context.Context, cfg config.Config, doc string) error {
	if cfg.GitHub.Token == "" || cfg.GitHub.Repository == "" || cfg.GitHub.PRNumber <= 0 {
		return fmt.Errorf("posting requires GITHUB_TOKEN, GITHUB_REPOSITORY and PR_NUMBER")
	}
	client, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Repository)
	if err != nil {
		return err
	}
	return client.PostReviewComment(ctx, cfg.GitHub.PRNumber, doc)
}

// fail logs the error, leaves a fallback artifact explaining it, and
// returns the exit code.
func fail(cfg config.Config, logger *slog.Logger, code int, err error) int {
	logger.Error("review failed", "error", err)
	if _, werr := output.WriteFallback(cfg.OutputPath, err.Error()); werr != nil {
		logger.Error("writing fallback artifact", "error", werr)
	}
	return code
}
