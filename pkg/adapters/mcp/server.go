// Package mcp exposes the research service as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const workflowURI = "espalier://workflow"

// ResearchResponse mirrors the HTTP response body.
type ResearchResponse struct {
	RequestID string            `json:"request_id" jsonschema_description:"Identifier of the run"`
	Topic     string            `json:"topic" jsonschema_description:"Sanitized research topic"`
	Result    domain.Projection `json:"result" jsonschema_description:"Queries, findings and summary"`
}

// Server wraps the research service and exposes it as an MCP Server.
type Server struct {
	service   ports.Service
	logger    *slog.Logger
	maxTopic  int
	mcpServer *server.MCPServer
}

type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxTopicLength bounds accepted topics, in bytes.
func WithMaxTopicLength(n int) Option {
	return func(s *Server) {
		s.maxTopic = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(service ports.Service, opts ...Option) *Server {
	s := &Server{
		service:   service,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		maxTopic:  domain.DefaultMaxTopicLength,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	researchTool := mcp.NewTool("research",
		mcp.WithDescription("Research a topic: generate search queries, search the web, extract key findings and write a summary."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("The subject to research")),
		mcp.WithOutputSchema[ResearchResponse](),
	)
	s.mcpServer.AddTool(researchTool, mcp.NewStructuredToolHandler(s.handleResearch))

	s.mcpServer.AddTool(mcp.NewTool("describe_workflow",
		mcp.WithDescription("Describe the research workflow as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.service.Steps(), nil)), nil
	})
}

func (s *Server) handleResearch(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ResearchResponse, error) {
	raw, _ := args["topic"].(string)
	topic, err := domain.SanitizeTopic(raw, s.maxTopic)
	if err != nil {
		s.logger.Warn("MCP research: topic rejected", "err", err, "size", len(raw))
		return ResearchResponse{}, fmt.Errorf("topic rejected: %w", err)
	}

	report, err := s.service.Research(ctx, topic)
	if err != nil {
		if report != nil {
			return ResearchResponse{}, fmt.Errorf("research %s failed: %w", report.RequestID, err)
		}
		return ResearchResponse{}, fmt.Errorf("research failed: %w", err)
	}

	return ResearchResponse{
		RequestID: report.RequestID,
		Topic:     topic,
		Result:    report.Result,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(workflowURI, "Research Workflow",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      workflowURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.service.Steps(), nil),
			},
		}, nil
	})
}
