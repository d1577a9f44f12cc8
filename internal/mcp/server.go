// Package mcp exposes the analysis engine over the Model Context Protocol.
// An MCP client points the server at an image on disk; the server runs a
// full analysis session and keeps the result available for later queries.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"percept/internal/analyze"
	"percept/internal/store"
	"percept/internal/trigger"
)

// Server wraps the MCP SDK server around one orchestrator and one result
// store. Results of analyze_image calls persist for get_result lookups.
type Server struct {
	MCPServer *sdkmcp.Server

	orch  *analyze.Orchestrator
	descs []analyze.Descriptor
	store store.Store
	log   *slog.Logger
}

// NewServer creates a percept MCP server with analysis tools registered.
// The store may be shared with the CLI; pass a MemStore for ephemeral use.
func NewServer(version string, orch *analyze.Orchestrator, descs []analyze.Descriptor, st store.Store, log *slog.Logger) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "percept", Version: version},
			nil,
		),
		orch:  orch,
		descs: descs,
		store: st,
		log:   log,
	}
	s.registerTools()
	return s
}

// Run serves MCP over the given transport until ctx is canceled.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, transport)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_image",
		Description: "Analyze an image file on disk. Runs all eligible analysis units and returns the session summary with collected signals.",
	}, s.handleAnalyzeImage)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_result",
		Description: "Fetch the full result of a previous analyze_image session by session ID.",
	}, s.handleGetResult)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_units",
		Description: "List the registered analysis units with their priorities and trigger conditions.",
	}, s.handleListUnits)
}

// --- Tool input/output types ---

type analyzeImageInput struct {
	Path string `json:"path" jsonschema:"path to the image file to analyze"`
}

type analyzeImageOutput struct {
	SessionID       string         `json:"session_id"`
	Success         bool           `json:"success"`
	Error           string         `json:"error,omitempty"`
	DurationMS      int64          `json:"duration_ms"`
	Confidence      float64        `json:"confidence"`
	EarlyExit       bool           `json:"early_exit"`
	EarlyExitReason string         `json:"early_exit_reason,omitempty"`
	Completed       []string       `json:"completed"`
	Failed          map[string]string `json:"failed,omitempty"`
	Signals         map[string]any `json:"signals"`
}

type getResultInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from analyze_image"`
}

type getResultOutput struct {
	SessionID   string          `json:"session_id"`
	ArtifactRef string          `json:"artifact_ref"`
	Result      *analyze.Result `json:"result"`
}

type listUnitsInput struct{}

type unitInfo struct {
	Name     string   `json:"name"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
	Optional bool     `json:"optional"`
	Disabled bool     `json:"disabled"`
	Triggers string   `json:"triggers"`
}

type listUnitsOutput struct {
	Units []unitInfo `json:"units"`
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeImage(ctx context.Context, _ *sdkmcp.CallToolRequest, input analyzeImageInput) (*sdkmcp.CallToolResult, analyzeImageOutput, error) {
	if input.Path == "" {
		return nil, analyzeImageOutput{}, fmt.Errorf("path is required")
	}

	started := time.Now().UTC()
	res := s.orch.AnalyzeFile(ctx, input.Path, s.descs)

	rec, err := store.FromResult(res, input.Path, "", started)
	if err != nil {
		s.log.Warn("result not persisted", "session", res.SessionID, "error", err)
	} else if err := s.store.SaveSession(rec); err != nil {
		s.log.Warn("result not persisted", "session", res.SessionID, "error", err)
	}

	s.log.Info("analysis complete",
		"session", res.SessionID, "path", input.Path,
		"success", res.Success, "completed", len(res.Completed), "failed", len(res.Failed))

	return nil, analyzeImageOutput{
		SessionID:       res.SessionID,
		Success:         res.Success,
		Error:           res.Error,
		DurationMS:      res.ProcessingTime.Milliseconds(),
		Confidence:      res.Confidence,
		EarlyExit:       res.EarlyExit,
		EarlyExitReason: res.EarlyExitReason,
		Completed:       res.Completed,
		Failed:          res.Failed,
		Signals:         res.Signals,
	}, nil
}

func (s *Server) handleGetResult(_ context.Context, _ *sdkmcp.CallToolRequest, input getResultInput) (*sdkmcp.CallToolResult, getResultOutput, error) {
	if input.SessionID == "" {
		return nil, getResultOutput{}, fmt.Errorf("session_id is required")
	}

	rec, err := s.store.GetSession(input.SessionID)
	if err != nil {
		return nil, getResultOutput{}, err
	}
	res, err := rec.Result()
	if err != nil {
		return nil, getResultOutput{}, fmt.Errorf("decode stored result: %w", err)
	}

	return nil, getResultOutput{
		SessionID:   rec.ID,
		ArtifactRef: rec.ArtifactRef,
		Result:      res,
	}, nil
}

func (s *Server) handleListUnits(_ context.Context, _ *sdkmcp.CallToolRequest, _ listUnitsInput) (*sdkmcp.CallToolResult, listUnitsOutput, error) {
	out := listUnitsOutput{Units: make([]unitInfo, 0, len(s.descs))}
	for _, d := range s.descs {
		out.Units = append(out.Units, unitInfo{
			Name:     d.Name,
			Priority: d.Priority,
			Tags:     d.Tags,
			Optional: d.Optional,
			Disabled: d.Disabled,
			Triggers: trigger.Describe(d.Triggers),
		})
	}
	return nil, out, nil
}
