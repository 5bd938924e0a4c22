package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lydakis/sitectl/internal/response"
	"github.com/lydakis/sitectl/internal/transport"
)

// UnknownOperationError is returned by Call for names missing from the registry.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

// ErrInvalidArguments marks arguments Call could not map onto an operation.
var ErrInvalidArguments = errors.New("invalid arguments")

// Call runs the operation called name with loosely typed arguments, as
// collected from command line flags or tool calls.
//
// "id" selects the tool for tools.update and tools.delete, "period" the
// analytics window, "email" the newsletter address and "file" the local
// path uploaded by user.avatar. Remaining arguments form the payload.
// opts apply to user.avatar only.
func (s *Service) Call(ctx context.Context, name string, args map[string]any, opts ...transport.RequestOption) (*response.Result, error) {
	if _, ok := Lookup(name); !ok {
		return nil, &UnknownOperationError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}

	switch name {
	case OpLogin:
		var creds Credentials
		if err := decodeArgs(args, &creds); err != nil {
			return nil, err
		}
		return s.Login(ctx, creds)
	case OpRegister:
		var reg Registration
		if err := decodeArgs(args, &reg); err != nil {
			return nil, err
		}
		return s.Register(ctx, reg)
	case OpLogout:
		return s.Logout(ctx)
	case OpRefreshToken:
		return s.RefreshToken(ctx)
	case OpGetProfile:
		return s.GetUserProfile(ctx)
	case OpUpdateProfile:
		return s.UpdateUserProfile(ctx, args)
	case OpUploadAvatar:
		return s.uploadFromArgs(ctx, args, opts)
	case OpListTools:
		filters := make(ToolFilters, len(args))
		for k, v := range args {
			filters[k] = stringArg(v)
		}
		return s.GetTools(ctx, filters)
	case OpCreateTool:
		return s.CreateTool(ctx, args)
	case OpUpdateTool:
		id, rest := splitID(args)
		return s.UpdateTool(ctx, id, rest)
	case OpDeleteTool:
		id, _ := splitID(args)
		return s.DeleteTool(ctx, id)
	case OpToolCategories:
		return s.GetToolCategories(ctx)
	case OpSendContact:
		var msg ContactMessage
		if err := decodeArgs(args, &msg); err != nil {
			return nil, err
		}
		return s.SendContactMessage(ctx, msg)
	case OpSubscribe:
		return s.SubscribeNewsletter(ctx, stringArg(args["email"]))
	case OpDashboardStats:
		return s.GetDashboardStats(ctx)
	case OpDashboardAnalytics:
		return s.GetDashboardAnalytics(ctx, stringArg(args["period"]))
	}
	return nil, &UnknownOperationError{Name: name}
}

func (s *Service) uploadFromArgs(ctx context.Context, args map[string]any, opts []transport.RequestOption) (*response.Result, error) {
	path := stringArg(args["file"])
	if path == "" {
		return nil, fmt.Errorf("%s: missing file argument: %w", OpUploadAvatar, ErrInvalidArguments)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpUploadAvatar, err)
	}
	defer f.Close() //nolint:errcheck

	ep := mustLookup(OpUploadAvatar)
	return s.req.UploadFile(ctx, ep.Path, transport.File{Name: filepath.Base(path), Reader: f}, opts...)
}

func splitID(args map[string]any) (ToolID, map[string]any) {
	rest := make(map[string]any, len(args))
	for k, v := range args {
		if k != "id" {
			rest[k] = v
		}
	}
	return ToolID(stringArg(args["id"])), rest
}

func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func stringArg(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
