package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is the part of the concierge engine exposed as MCP tools.
type Engine interface {
	Process(ctx context.Context, conversationID, utterance string) (domain.Reply, error)
	Progress(ctx context.Context, conversationID string) (domain.Progress, error)
	Abandon(ctx context.Context, conversationID string) error
	Documents(ctx context.Context, conversationID string) ([]domain.Document, error)
	Catalog() *catalog.Catalog
}

// MessageArgs are the arguments of send_message.
type MessageArgs struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// ConversationArgs select a conversation.
type ConversationArgs struct {
	ConversationID string `json:"conversation_id"`
}

// ProgressResponse is the result of get_progress. Active is false when the
// conversation has no open form.
type ProgressResponse struct {
	Active   bool             `json:"active" jsonschema_description:"Whether a form is being filled"`
	Progress *domain.Progress `json:"progress,omitempty" jsonschema_description:"Progress of the open form"`
}

// FormsResponse is the result of list_forms.
type FormsResponse struct {
	Forms []domain.FormDefinition `json:"forms" jsonschema_description:"Forms in trigger priority order"`
}

// DocumentsResponse is the result of list_documents.
type DocumentsResponse struct {
	Documents []domain.Document `json:"documents" jsonschema_description:"Documents in append order"`
}

// Server wraps the concierge Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("concierge-mcp", version),
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send one user utterance to a conversation. Starts, continues or completes a form, or answers free text."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithOutputSchema[domain.Reply](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Report the form being filled in a conversation, if any."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithOutputSchema[ProgressResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetProgress))

	s.mcpServer.AddTool(mcp.NewTool("abandon_session",
		mcp.WithDescription("Drop the open form of a conversation without producing a document."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		if err := s.engine.Abandon(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("abandon failed: %v", err)), nil
		}
		return mcp.NewToolResultText("ok"), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_forms",
		mcp.WithDescription("List the forms the assistant can fill."),
		mcp.WithOutputSchema[FormsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListForms))

	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List generated documents, optionally for one conversation."),
		mcp.WithString("conversation_id", mcp.Description("Only documents produced by this conversation")),
		mcp.WithOutputSchema[DocumentsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListDocuments))
}

func (s *Server) handleSendMessage(ctx context.Context, _ mcp.CallToolRequest, args MessageArgs) (domain.Reply, error) {
	if args.ConversationID == "" {
		return domain.Reply{}, errors.New("conversation_id is required")
	}
	reply, err := s.engine.Process(ctx, args.ConversationID, args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message failed", "conversation_id", args.ConversationID, "err", err)
		return domain.Reply{}, fmt.Errorf("process failed: %w", err)
	}
	return reply, nil
}

func (s *Server) handleGetProgress(ctx context.Context, _ mcp.CallToolRequest, args ConversationArgs) (ProgressResponse, error) {
	p, err := s.engine.Progress(ctx, args.ConversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return ProgressResponse{}, nil
	}
	if err != nil {
		return ProgressResponse{}, fmt.Errorf("progress failed: %w", err)
	}
	return ProgressResponse{Active: true, Progress: &p}, nil
}

func (s *Server) handleListForms(context.Context, mcp.CallToolRequest, struct{}) (FormsResponse, error) {
	return FormsResponse{Forms: s.engine.Catalog().All()}, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ mcp.CallToolRequest, args ConversationArgs) (DocumentsResponse, error) {
	docs, err := s.engine.Documents(ctx, args.ConversationID)
	if err != nil {
		return DocumentsResponse{}, fmt.Errorf("list documents failed: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return DocumentsResponse{Documents: docs}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("concierge://forms", "Form Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog().All())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "concierge://forms",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
