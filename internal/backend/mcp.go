package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marlonsouza/magic-pipe/internal/chunk"
)

// reviewToolName is the capability the intermediary server must expose.
const reviewToolName = "review"

// mcpConnectTimeout bounds session establishment at startup.
const mcpConnectTimeout = 30 * time.Second

// MCP routes review requests through a Model Context Protocol server. The
// server owns model selection and any server-side policy; this backend only
// calls its "review" tool and reads back text.
type MCP struct {
	endpoint string
	client   *mcpclient.Client
}

// NewMCP connects to the MCP server and performs the initialize handshake.
// An unreachable or incompatible server is a fatal configuration error: no
// review can possibly succeed, so the run should not start.
func NewMCP(cfg Config) (*MCP, error) {
	if cfg.MCPEndpoint == "" {
		return nil, &FatalError{Message: "MCP_ENDPOINT is not set"}
	}

	c, err := mcpclient.NewStreamableHttpClient(cfg.MCPEndpoint)
	if err != nil {
		return nil, &FatalError{Message: fmt.Sprintf("creating MCP client: %v", err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), mcpConnectTimeout)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		return nil, &FatalError{Message: fmt.Sprintf("connecting to MCP server %s: %v", cfg.MCPEndpoint, err)}
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "magic-pipe",
		Version: "1.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, &FatalError{Message: fmt.Sprintf("initializing MCP session: %v", err)}
	}

	return &MCP{endpoint: cfg.MCPEndpoint, client: c}, nil
}

func (m *MCP) Name() string { return "mcp" }

// Send calls the server's review tool with the chunk's prompt. Transport
// faults are transient; a tool-level error result is reported as transient
// too, since the server may be shedding load.
func (m *MCP) Send(ctx context.Context, req chunk.ReviewRequest) (string, error) {
	call := mcp.CallToolRequest{}
	call.Params.Name = reviewToolName
	call.Params.Arguments = map[string]any{
		"file_path":   req.FilePath,
		"prompt":      req.Prompt,
		"chunk_index": req.ChunkIndex,
		"chunk_count": req.ChunkCount,
	}

	result, err := m.client.CallTool(ctx, call)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("calling %s tool: %w", reviewToolName, err)}
	}

	var b strings.Builder
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			b.WriteString(text.Text)
		}
	}

	if result.IsError {
		return "", &TransientError{Err: fmt.Errorf("%s tool returned an error: %s", reviewToolName, b.String())}
	}
	if b.Len() == 0 {
		return "", &TransientError{Err: fmt.Errorf("%s tool returned no text content", reviewToolName)}
	}

	return b.String(), nil
}

// Close tears down the MCP session.
func (m *MCP) Close() error {
	return m.client.Close()
}
