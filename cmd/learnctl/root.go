package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/config"
	"github.com/okian/auralearn/pkg/logger"
)

// buildService constructs the service for one invocation. Tests replace it.
var buildService = func(ctx context.Context) (*service.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.InitWith(os.Stderr, cfg.LogFormat); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return service.FromConfig(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "learnctl",
		Short:         "Grounded learning path generation",
		Long:          "learnctl interprets a learning goal, extracts skills grounded in the knowledge base,\nstructures them into stages and refines the result from learner feedback.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newLearningPathCmd())
	root.AddCommand(newRefineCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newMCPCmd())
	return root
}

// withService builds and starts a service, runs fn and stops it again.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := buildService(ctx)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()
	return fn(ctx, svc)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
