package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Logical operation names.
const (
	OpLogin              = "auth.login"
	OpRegister           = "auth.register"
	OpLogout             = "auth.logout"
	OpRefreshToken       = "auth.refresh"
	OpGetProfile         = "user.profile"
	OpUpdateProfile      = "user.update"
	OpUploadAvatar       = "user.avatar"
	OpListTools          = "tools.list"
	OpCreateTool         = "tools.create"
	OpUpdateTool         = "tools.update"
	OpDeleteTool         = "tools.delete"
	OpToolCategories     = "tools.categories"
	OpSendContact        = "contact.send"
	OpSubscribe          = "contact.subscribe"
	OpDashboardStats     = "dashboard.stats"
	OpDashboardAnalytics = "dashboard.analytics"
)

// DefaultAnalyticsPeriod is used when no analytics period is given.
const DefaultAnalyticsPeriod = "30d"

// Arg documents one argument accepted by Service.Call for an endpoint.
type Arg struct {
	Name        string
	Required    bool
	Description string
}

// Endpoint describes one backend operation.
// Path may contain an ":id" segment; use ToolPath to build it.
type Endpoint struct {
	Name        string
	Method      string
	Path        string
	Multipart   bool
	NeedsID     bool
	Description string
	Args        []Arg
}

var idArg = Arg{Name: "id", Required: true, Description: "Tool id"}

var endpoints = []Endpoint{
	{Name: OpLogin, Method: http.MethodPost, Path: "/api/auth/login", Description: "Log in with email and password",
		Args: []Arg{{Name: "email", Required: true}, {Name: "password", Required: true}}},
	{Name: OpRegister, Method: http.MethodPost, Path: "/api/auth/register", Description: "Create an account",
		Args: []Arg{{Name: "name"}, {Name: "email", Required: true}, {Name: "password", Required: true}}},
	{Name: OpLogout, Method: http.MethodPost, Path: "/api/auth/logout", Description: "End the current session"},
	{Name: OpRefreshToken, Method: http.MethodPost, Path: "/api/auth/refresh", Description: "Refresh the session token"},
	{Name: OpGetProfile, Method: http.MethodGet, Path: "/api/user/profile", Description: "Fetch the user profile"},
	{Name: OpUpdateProfile, Method: http.MethodPut, Path: "/api/user/update", Description: "Update the user profile"},
	{Name: OpUploadAvatar, Method: http.MethodPost, Path: "/api/user/avatar", Multipart: true, Description: "Upload a profile picture",
		Args: []Arg{{Name: "file", Required: true, Description: "Local path of the image to upload"}}},
	{Name: OpListTools, Method: http.MethodGet, Path: "/api/tools", Description: "List tools, optionally filtered"},
	{Name: OpCreateTool, Method: http.MethodPost, Path: "/api/tools", Description: "Create a tool"},
	{Name: OpUpdateTool, Method: http.MethodPut, Path: "/api/tools/:id", NeedsID: true, Description: "Update a tool by id",
		Args: []Arg{idArg}},
	{Name: OpDeleteTool, Method: http.MethodDelete, Path: "/api/tools/:id", NeedsID: true, Description: "Delete a tool by id",
		Args: []Arg{idArg}},
	{Name: OpToolCategories, Method: http.MethodGet, Path: "/api/tools/categories", Description: "List tool categories"},
	{Name: OpSendContact, Method: http.MethodPost, Path: "/api/contact/send", Description: "Send a contact message",
		Args: []Arg{
			{Name: "name", Required: true},
			{Name: "email", Required: true},
			{Name: "phone"},
			{Name: "subject"},
			{Name: "message", Required: true},
		}},
	{Name: OpSubscribe, Method: http.MethodPost, Path: "/api/contact/subscribe", Description: "Subscribe an email to the newsletter",
		Args: []Arg{{Name: "email", Required: true, Description: "Address to subscribe"}}},
	{Name: OpDashboardStats, Method: http.MethodGet, Path: "/api/dashboard/stats", Description: "Fetch dashboard statistics"},
	{Name: OpDashboardAnalytics, Method: http.MethodGet, Path: "/api/dashboard/analytics", Description: "Fetch dashboard analytics for a period (default 30d)",
		Args: []Arg{{Name: "period", Description: "Reporting window, default " + DefaultAnalyticsPeriod}}},
}

// Endpoints returns the registry in declaration order.
func Endpoints() []Endpoint {
	return append([]Endpoint(nil), endpoints...)
}

// Lookup finds an endpoint by logical name.
func Lookup(name string) (Endpoint, bool) {
	for _, ep := range endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}

func mustLookup(name string) Endpoint {
	ep, ok := Lookup(name)
	if !ok {
		panic("api: unknown endpoint " + name)
	}
	return ep
}

// ToolID identifies a tool record.
type ToolID string

// ErrEmptyToolID is returned when a tool operation is called without an id.
var ErrEmptyToolID = errors.New("tool id is required")

// ToolPath builds /api/tools/{id}. The id is path-escaped.
func ToolPath(id ToolID) (string, error) {
	trimmed := strings.TrimSpace(string(id))
	if trimmed == "" {
		return "", ErrEmptyToolID
	}
	return "/api/tools/" + url.PathEscape(trimmed), nil
}
