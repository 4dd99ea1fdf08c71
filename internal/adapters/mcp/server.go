// Package mcp exposes the learning pipeline as MCP tools over stdio.
package mcp

import (
	"context"
	"errors"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okian/auralearn/internal/adapters/repository"
	service "github.com/okian/auralearn/internal/app"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/pkg/logger"
)

const (
	serverName    = "auralearn"
	serverVersion = "1.0.0"
)

// Dependencies is the subset of the service the tools call.
type Dependencies interface {
	RunPipeline(ctx context.Context, goal string) (*model.RunResult, error)
	BuildLearningPath(ctx context.Context, goal string) (service.PathResult, error)
	Refine(ctx context.Context, req service.RefineRequest) (model.RefinementResult, error)
	Commit(ctx context.Context, pathID, proposalID string) (repository.Record, error)
	Search(ctx context.Context, query string) ([]model.RetrievedDocument, error)
}

// Server wraps the SDK server with the registered tools.
type Server struct {
	MCPServer *sdkmcp.Server

	deps   Dependencies
	logger logger.Logger
}

var errMissingGoal = errors.New("goal is required")

// NewServer registers every tool against deps.
func NewServer(deps Dependencies) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		deps:      deps,
		logger:    logger.Named("mcp"),
	}

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_pipeline",
		Description: "Run the full pipeline for a learning goal. Check status first: only trust the plan when it is success.",
	}, s.handleRunPipeline)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "build_learning_path",
		Description: "Extract grounded skills for a goal and structure them into foundation, intermediate and advanced stages.",
	}, s.handleBuildLearningPath)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "refine_path",
		Description: "Refine a stored (path_id) or inline learning path from per-skill feedback. Stored paths get a proposal to commit.",
	}, s.handleRefinePath)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "commit_path",
		Description: "Commit a refinement proposal, making it the stored path.",
	}, s.handleCommitPath)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "search_knowledge",
		Description: "Query the knowledge base directly and return ranked documents.",
	}, s.handleSearchKnowledge)

	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

type goalInput struct {
	Goal string `json:"goal" jsonschema:"the learner's goal in free text"`
}

type refineInput struct {
	PathID          string              `json:"path_id,omitempty" jsonschema:"id of a stored path"`
	LearningPath    *model.LearningPath `json:"learning_path,omitempty" jsonschema:"inline path when no path_id is given"`
	Goal            string              `json:"goal,omitempty" jsonschema:"goal context, defaults to the stored goal"`
	SkillFeedback   map[string]string   `json:"skill_feedback,omitempty" jsonschema:"skill to rating: already_known, too_advanced, not_relevant, want_more"`
	GeneralFeedback string              `json:"general_feedback,omitempty" jsonschema:"free text feedback"`
}

type commitInput struct {
	PathID     string `json:"path_id" jsonschema:"id of the stored path"`
	ProposalID string `json:"proposal_id" jsonschema:"proposal returned by refine_path"`
}

type searchInput struct {
	Query string `json:"query" jsonschema:"search text"`
}

type searchOutput struct {
	Query     string                    `json:"query"`
	Documents []model.RetrievedDocument `json:"documents"`
}

func (s *Server) handleRunPipeline(ctx context.Context, _ *sdkmcp.CallToolRequest, in goalInput) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Goal) == "" {
		return nil, nil, errMissingGoal
	}
	res, err := s.deps.RunPipeline(ctx, in.Goal)
	if err != nil {
		return nil, nil, err
	}
	return nil, res, nil
}

func (s *Server) handleBuildLearningPath(ctx context.Context, _ *sdkmcp.CallToolRequest, in goalInput) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Goal) == "" {
		return nil, nil, errMissingGoal
	}
	res, err := s.deps.BuildLearningPath(ctx, in.Goal)
	if err != nil {
		return nil, nil, err
	}
	return nil, res, nil
}

func (s *Server) handleRefinePath(ctx context.Context, _ *sdkmcp.CallToolRequest, in refineInput) (*sdkmcp.CallToolResult, any, error) {
	res, err := s.deps.Refine(ctx, service.RefineRequest{
		PathID:       in.PathID,
		LearningPath: in.LearningPath,
		Goal:         in.Goal,
		Feedback: model.FeedbackRecord{
			SkillFeedback:   in.SkillFeedback,
			GeneralFeedback: in.GeneralFeedback,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, res, nil
}

func (s *Server) handleCommitPath(ctx context.Context, _ *sdkmcp.CallToolRequest, in commitInput) (*sdkmcp.CallToolResult, any, error) {
	rec, err := s.deps.Commit(ctx, in.PathID, in.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	return nil, rec, nil
}

func (s *Server) handleSearchKnowledge(ctx context.Context, _ *sdkmcp.CallToolRequest, in searchInput) (*sdkmcp.CallToolResult, any, error) {
	docs, err := s.deps.Search(ctx, in.Query)
	if err != nil {
		return nil, nil, err
	}
	if docs == nil {
		docs = []model.RetrievedDocument{}
	}
	return nil, searchOutput{Query: in.Query, Documents: docs}, nil
}
