package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/auralearn/internal/adapters/mcp"
	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/domain/model"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <goal>",
		Short: "Run the full pipeline for a goal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.RunPipeline(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}
}

func newLearningPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learning-path <goal>",
		Short: "Extract grounded skills and structure them into stages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.BuildLearningPath(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}
}

func newRefineCmd() *cobra.Command {
	var pathFile, pathID, feedbackFile, goal string

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Refine a learning path from per-skill feedback",
		Long: `Refine reads feedback as JSON: {"skill_feedback":{"<skill>":"<rating>"},"general_feedback":"..."}.
Ratings are already_known, too_advanced, not_relevant and want_more.
The path comes from --path (a JSON file with foundation, intermediate and advanced)
or --path-id (a stored path, which yields a proposal to commit).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (pathFile == "") == (pathID == "") {
				return errors.New("exactly one of --path or --path-id is required")
			}
			req := service.RefineRequest{PathID: pathID, Goal: goal}
			if err := readJSONFile(feedbackFile, &req.Feedback); err != nil {
				return fmt.Errorf("read feedback: %w", err)
			}
			if pathFile != "" {
				var path model.LearningPath
				if err := readJSONFile(pathFile, &path); err != nil {
					return fmt.Errorf("read path: %w", err)
				}
				req.LearningPath = &path
			}
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Refine(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&pathFile, "path", "", "JSON file holding the learning path")
	cmd.Flags().StringVar(&pathID, "path-id", "", "id of a stored learning path")
	cmd.Flags().StringVar(&feedbackFile, "feedback", "", "JSON file holding the feedback (required)")
	cmd.Flags().StringVar(&goal, "goal", "", "goal context for the refinement")
	_ = cmd.MarkFlagRequired("feedback")
	return cmd
}

// batchItem is one line of a batch run. Runs are independent; a failure is
// reported in Error and does not stop the others.
type batchItem struct {
	Goal   string           `json:"goal"`
	Result *model.RunResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var file string
	var parallel int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the pipeline for every goal in a file, one goal per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			goals, err := readGoals(file)
			if err != nil {
				return err
			}
			if parallel < 1 {
				parallel = 1
			}
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				items := make([]batchItem, len(goals))
				g, gCtx := errgroup.WithContext(ctx)
				g.SetLimit(parallel)
				for i, goal := range goals {
					g.Go(func() error {
						items[i].Goal = goal
						res, err := svc.RunPipeline(gCtx, goal)
						if err != nil {
							items[i].Error = err.Error()
							return nil
						}
						items[i].Result = res
						return nil
					})
				}
				_ = g.Wait()
				return writeJSON(cmd, items)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "file with one goal per line; blank lines and # comments are skipped (required)")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "number of concurrent runs")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Query the knowledge base directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				docs, err := svc.Search(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if docs == nil {
					docs = []model.RetrievedDocument{}
				}
				return writeJSON(cmd, docs)
			})
		},
	}
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				return mcp.NewServer(svc).Run(ctx)
			})
		},
	}
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func readGoals(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var goals []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		goals = append(goals, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("no goals in %s", path)
	}
	return goals, nil
}
