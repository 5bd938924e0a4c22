package mcpserve

import (
	"context"
	"errors"
	"testing"

	"github.com/lydakis/sitectl/internal/api"
	"github.com/lydakis/sitectl/internal/response"
	"github.com/lydakis/sitectl/internal/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCaller struct {
	name   string
	args   map[string]any
	result *response.Result
	err    error
}

func (r *recordingCaller) Call(_ context.Context, name string, args map[string]any, _ ...transport.RequestOption) (*response.Result, error) {
	r.name = name
	r.args = args
	return r.result, r.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "tools_update", ToolName(api.OpUpdateTool))
	assert.Equal(t, "dashboard_analytics", ToolName(api.OpDashboardAnalytics))
}

func TestToolsCoverEveryEndpoint(t *testing.T) {
	require.NotNil(t, NewServer(&recordingCaller{}, "test", nil))

	seen := make(map[string]bool)
	for _, ep := range api.Endpoints() {
		tool := toolFor(ep)
		assert.Equal(t, ToolName(ep.Name), tool.Name)
		assert.Contains(t, tool.Description, ep.Path)
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true

		if ep.NeedsID {
			assert.Contains(t, tool.InputSchema.Required, "id", ep.Name)
		}
	}

	avatar, _ := api.Lookup(api.OpUploadAvatar)
	assert.Contains(t, toolFor(avatar).InputSchema.Required, "file")
}

func TestHandlerReturnsStructuredContentForObjects(t *testing.T) {
	res, err := response.Unwrap("application/json", []byte(`{"visits":10}`))
	require.NoError(t, err)
	caller := &recordingCaller{result: res}

	ep, _ := api.Lookup(api.OpDashboardStats)
	out, err := handlerFor(caller, ep, nil)(context.Background(), callRequest(nil))
	require.NoError(t, err)

	assert.False(t, out.IsError)
	assert.Equal(t, map[string]any{"visits": float64(10)}, out.StructuredContent)
	assert.Equal(t, api.OpDashboardStats, caller.name)
}

func TestHandlerReturnsTextForNonObjects(t *testing.T) {
	res, err := response.Unwrap("text/plain", []byte("pong"))
	require.NoError(t, err)
	caller := &recordingCaller{result: res}

	ep, _ := api.Lookup(api.OpGetProfile)
	out, err := handlerFor(caller, ep, nil)(context.Background(), callRequest(nil))
	require.NoError(t, err)

	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "pong", text.Text)
}

func TestHandlerPassesArgumentsAndReportsErrors(t *testing.T) {
	caller := &recordingCaller{err: &transport.StatusError{StatusCode: 404, Body: []byte(`{"error":"no such tool"}`)}}

	ep, _ := api.Lookup(api.OpDeleteTool)
	out, err := handlerFor(caller, ep, nil)(context.Background(), callRequest(map[string]any{"id": "42"}))
	require.NoError(t, err)

	assert.True(t, out.IsError)
	assert.Equal(t, map[string]any{"id": "42"}, caller.args)
	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "status 404")
	assert.Contains(t, text.Text, "no such tool")
}

func TestDescribeErrorWithoutBody(t *testing.T) {
	assert.Equal(t, "boom", describeError(errors.New("boom")))
}
