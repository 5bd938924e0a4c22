// Package mcpserve exposes the endpoint registry as MCP tools so agents can
// drive the site backend through sitectl.
package mcpserve

import (
	"context"
	"errors"
	"strings"

	"github.com/lydakis/sitectl/internal/api"
	"github.com/lydakis/sitectl/internal/response"
	"github.com/lydakis/sitectl/internal/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Caller runs a registry operation by name. *api.Service satisfies it.
type Caller interface {
	Call(ctx context.Context, name string, args map[string]any, opts ...transport.RequestOption) (*response.Result, error)
}

// ToolName converts a logical operation name into an MCP tool name.
func ToolName(op string) string {
	return strings.ReplaceAll(op, ".", "_")
}

// NewServer registers one tool per endpoint.
func NewServer(caller Caller, version string, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer("sitectl", version, server.WithToolCapabilities(false))
	for _, ep := range api.Endpoints() {
		s.AddTool(toolFor(ep), handlerFor(caller, ep, logger))
	}
	return s
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects.
func ServeStdio(caller Caller, version string, logger *zap.Logger) error {
	return server.ServeStdio(NewServer(caller, version, logger))
}

// ServeHTTP serves the tools over streamable HTTP on addr.
func ServeHTTP(caller Caller, version string, logger *zap.Logger, addr string) error {
	if logger != nil {
		logger.Info("serving MCP over HTTP", zap.String("addr", addr))
	}
	return server.NewStreamableHTTPServer(NewServer(caller, version, logger)).Start(addr)
}

func toolFor(ep api.Endpoint) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(ep.Description + " (" + ep.Method + " " + ep.Path + ")"),
	}
	for _, arg := range ep.Args {
		var props []mcp.PropertyOption
		if arg.Required {
			props = append(props, mcp.Required())
		}
		if arg.Description != "" {
			props = append(props, mcp.Description(arg.Description))
		}
		opts = append(opts, mcp.WithString(arg.Name, props...))
	}
	return mcp.NewTool(ToolName(ep.Name), opts...)
}

func handlerFor(caller Caller, ep api.Endpoint, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := caller.Call(ctx, ep.Name, request.GetArguments())
		if err != nil {
			logger.Warn("tool call failed", zap.String("operation", ep.Name), zap.Error(err))
			return mcp.NewToolResultError(describeError(err)), nil
		}
		if obj, ok := res.Object(); ok {
			return mcp.NewToolResultStructured(obj, strings.TrimSpace(string(response.Render(res)))), nil
		}
		return mcp.NewToolResultText(strings.TrimSpace(string(response.Render(res)))), nil
	}
}

func describeError(err error) string {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) && len(statusErr.Body) > 0 {
		return err.Error() + ": " + strings.TrimSpace(string(statusErr.Body))
	}
	return err.Error()
}
