// Package api maps the site's logical backend operations onto HTTP calls.
//
// Each Service method fills in its endpoint and hands the payload to the
// transport unchanged; there is no local validation or caching.
package api

import (
	"context"
	"net/http"

	"github.com/lydakis/sitectl/internal/response"
	"github.com/lydakis/sitectl/internal/transport"
)

// Requester is the transport a Service delegates to. *transport.Client
// satisfies it.
type Requester interface {
	Do(ctx context.Context, method, path string, payload any, opts ...transport.RequestOption) (*response.Result, error)
	UploadFile(ctx context.Context, path string, file transport.File, opts ...transport.RequestOption) (*response.Result, error)
}

// Service exposes one method per backend operation.
type Service struct {
	req Requester
}

// NewService returns a Service sending through req.
func NewService(req Requester) *Service {
	return &Service{req: req}
}

func (s *Service) send(ctx context.Context, name string, payload any) (*response.Result, error) {
	ep := mustLookup(name)
	return s.req.Do(ctx, ep.Method, ep.Path, payload)
}

// Login authenticates with credentials.
func (s *Service) Login(ctx context.Context, creds Credentials) (*response.Result, error) {
	return s.send(ctx, OpLogin, creds)
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, reg Registration) (*response.Result, error) {
	return s.send(ctx, OpRegister, reg)
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context) (*response.Result, error) {
	return s.send(ctx, OpLogout, nil)
}

// RefreshToken renews the session token.
func (s *Service) RefreshToken(ctx context.Context) (*response.Result, error) {
	return s.send(ctx, OpRefreshToken, nil)
}

// GetUserProfile fetches the profile of the current user.
func (s *Service) GetUserProfile(ctx context.Context) (*response.Result, error) {
	return s.send(ctx, OpGetProfile, nil)
}

// UpdateUserProfile replaces profile fields with data.
func (s *Service) UpdateUserProfile(ctx context.Context, data any) (*response.Result, error) {
	return s.send(ctx, OpUpdateProfile, data)
}

// UploadAvatar uploads a profile picture. onProgress may be nil.
func (s *Service) UploadAvatar(ctx context.Context, file transport.File, onProgress transport.ProgressFunc) (*response.Result, error) {
	ep := mustLookup(OpUploadAvatar)
	return s.req.UploadFile(ctx, ep.Path, file, transport.WithProgress(onProgress))
}

// GetTools lists tools. Filters are sent as query parameters.
func (s *Service) GetTools(ctx context.Context, filters ToolFilters) (*response.Result, error) {
	var payload any
	if len(filters) > 0 {
		payload = map[string]string(filters)
	}
	return s.send(ctx, OpListTools, payload)
}

// CreateTool creates a tool from data.
func (s *Service) CreateTool(ctx context.Context, data any) (*response.Result, error) {
	return s.send(ctx, OpCreateTool, data)
}

// UpdateTool replaces the tool identified by id with data.
func (s *Service) UpdateTool(ctx context.Context, id ToolID, data any) (*response.Result, error) {
	path, err := ToolPath(id)
	if err != nil {
		return nil, err
	}
	return s.req.Do(ctx, http.MethodPut, path, data)
}

// DeleteTool removes the tool identified by id.
func (s *Service) DeleteTool(ctx context.Context, id ToolID) (*response.Result, error) {
	path, err := ToolPath(id)
	if err != nil {
		return nil, err
	}
	return s.req.Do(ctx, http.MethodDelete, path, nil)
}

// GetToolCategories lists the tool categories.
func (s *Service) GetToolCategories(ctx context.Context) (*response.Result, error) {
	return s.send(ctx, OpToolCategories, nil)
}

// SendContactMessage posts a contact form message.
func (s *Service) SendContactMessage(ctx context.Context, msg ContactMessage) (*response.Result, error) {
	return s.send(ctx, OpSendContact, msg)
}

// SubscribeNewsletter subscribes email to the newsletter.
func (s *Service) SubscribeNewsletter(ctx context.Context, email string) (*response.Result, error) {
	return s.send(ctx, OpSubscribe, newsletterSubscription{Email: email})
}

// GetDashboardStats fetches the dashboard summary.
func (s *Service) GetDashboardStats(ctx context.Context) (*response.Result, error) {
	return s.send(ctx, OpDashboardStats, nil)
}

// GetDashboardAnalytics fetches analytics for period, DefaultAnalyticsPeriod when empty.
func (s *Service) GetDashboardAnalytics(ctx context.Context, period string) (*response.Result, error) {
	if period == "" {
		period = DefaultAnalyticsPeriod
	}
	return s.send(ctx, OpDashboardAnalytics, analyticsQuery{Period: period})
}
