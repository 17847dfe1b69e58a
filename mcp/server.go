// Package mcp provides the MCP (Model Context Protocol) server for the LDN
// inbox client.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/phochste/AcmeInboxViewer/internal/config"
	"github.com/phochste/AcmeInboxViewer/internal/inbox"
	"github.com/phochste/AcmeInboxViewer/internal/search"
)

// Server represents the MCP server.
type Server struct {
	service *inbox.Service
	config  func() *config.Config
	logger  *zap.Logger
	server  *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// NewServer creates a new MCP server. cfg is consulted on every call, so
// a reloaded configuration takes effect without a restart.
func NewServer(service *inbox.Service, cfg func() *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		config:  cfg,
		logger:  logger,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "ldn",
		Version: "0.1.0",
	}, nil)

	s.registerTools()

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "ldn_profile",
			Description: "Read a WebID profile: name, inbox and storage. Defaults to the configured WebID.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"webid": {Type: "string", Description: "WebID to look up"},
				},
			},
		},
		{
			Name:        "ldn_list_inbox",
			Description: "List the notifications of an LDN inbox, most recently modified first.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"inbox": {Type: "string", Description: "Inbox URL; defaults to the configured or advertised inbox"},
					"limit": {Type: "integer", Description: "Maximum number of notifications"},
					"query": {Type: "string", Description: "Only list notifications matching these words"},
				},
			},
		},
		{
			Name:        "ldn_show_notification",
			Description: "Show one notification: its activity fields and every property of its root subject.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"url": {Type: "string", Description: "Notification URL"},
				},
				Required: []string{"url"},
			},
		},
		{
			Name:        "ldn_send_reply",
			Description: "Reply to a notification. The reply goes to the inbox of the original actor.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"url":    {Type: "string", Description: "Notification replied to"},
					"object": {Type: "string", Description: "IRI the reply is about"},
					"type":   {Type: "string", Description: "Activity type, e.g. Accept or Announce"},
					"inbox":  {Type: "string", Description: "Deliver here instead of the original actor's inbox"},
				},
				Required: []string{"url", "object"},
			},
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	str := func(key string) string {
		v, _ := args[key].(string)
		return strings.TrimSpace(v)
	}

	switch name {
	case "ldn_profile":
		return s.handleProfile(ctx, str("webid"))
	case "ldn_list_inbox":
		limit, _ := args["limit"].(float64)
		return s.handleListInbox(ctx, str("inbox"), str("query"), int(limit))
	case "ldn_show_notification":
		return s.handleShow(ctx, str("url"))
	case "ldn_send_reply":
		var types []string
		if t := str("type"); t != "" {
			types = []string{t}
		}
		return s.handleReply(ctx, inbox.ReplyRequest{
			URL:    str("url"),
			Object: str("object"),
			Types:  types,
			Inbox:  str("inbox"),
		})
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// Run serves MCP over stdin and stdout until the client disconnects or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools registers every tool with the MCP server.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, s.toolHandler(tool.Name))
	}
}

func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]any)
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		text, err := s.CallTool(ctx, name, args)
		if err != nil {
			s.logger.Warn("tool failed", zap.String("tool", name), zap.Error(err))
			return errorResult(err), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// Tool Handlers

func (s *Server) handleProfile(ctx context.Context, webID string) (string, error) {
	if webID == "" {
		webID = s.config().WebID
	}
	p, err := s.service.Profile(ctx, webID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.DisplayName())
	fmt.Fprintf(&b, "WebID: %s\n", p.WebID)
	if inboxURL, err := p.InboxURL(); err == nil {
		fmt.Fprintf(&b, "Inbox: %s\n", inboxURL)
	}
	for _, st := range p.Storage {
		fmt.Fprintf(&b, "Storage: %s\n", st)
	}
	return b.String(), nil
}

func (s *Server) handleListInbox(ctx context.Context, explicit, query string, limit int) (string, error) {
	cfg := s.config()
	inboxURL, err := s.service.ResolveInbox(ctx, explicit, cfg.Inbox, cfg.WebID)
	if err != nil {
		return "", err
	}

	messages, err := s.service.Loader().Load(ctx, inboxURL)
	if err != nil {
		return "", err
	}
	if query != "" {
		messages = search.Rank(messages, query)
		if len(messages) == 0 {
			return fmt.Sprintf("No notifications in %s match %q", inboxURL, query), nil
		}
	}
	if len(messages) == 0 {
		return fmt.Sprintf("Inbox %s is empty", inboxURL), nil
	}
	if limit > 0 && limit < len(messages) {
		messages = messages[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Inbox %s\n\n", inboxURL)
	for i, m := range messages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, messageLine(m))
		fmt.Fprintf(&b, "   %s\n", m.URL)
	}
	return b.String(), nil
}

func messageLine(m inbox.Message) string {
	var modified string
	if m.Resource != nil && m.Resource.Modified != nil {
		modified = "[" + m.Resource.Modified.UTC().Format("2006-01-02 15:04") + "] "
	}
	if m.Err != nil {
		return modified + "(unreadable: " + m.Err.Error() + ")"
	}
	return modified + inbox.Summary(m.Activity)
}

func (s *Server) handleShow(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("url required")
	}

	detail, err := s.service.Loader().Show(ctx, url)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", inbox.Summary(detail.Activity))
	for _, f := range inbox.Fields(detail.Activity) {
		fmt.Fprintf(&b, "**%s:** %s\n", f.Label, f.Value)
	}

	props, err := json.MarshalIndent(detail.Properties, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering properties: %w", err)
	}
	fmt.Fprintf(&b, "\n```json\n%s\n```\n", props)
	return b.String(), nil
}

func (s *Server) handleReply(ctx context.Context, req inbox.ReplyRequest) (string, error) {
	if req.URL == "" || req.Object == "" {
		return "", fmt.Errorf("url and object required")
	}
	req.WebID = s.config().WebID

	sent, err := s.service.Reply(ctx, req)
	if err != nil {
		return "", err
	}
	if !sent.Result.Delivered {
		return fmt.Sprintf("Inbox %s refused the reply (HTTP %d)", sent.Inbox, sent.Result.StatusCode), nil
	}

	msg := fmt.Sprintf("Delivered %s to %s", sent.Activity.ID, sent.Inbox)
	if sent.Result.Location != "" {
		msg += "\nLocation: " + sent.Result.Location
	}
	return msg, nil
}
