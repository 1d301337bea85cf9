// Package mcp exposes personal records to MCP clients.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Option configures the tool handlers.
type Option func(*handlers)

// WithSnapshots serves tools from snaps instead of reading ds and
// recalculating on every call. snaps is bound to a single user, so use it
// only where every request carries that user.
func WithSnapshots(snaps SnapshotSource) Option {
	return func(h *handlers) { h.snaps = snaps }
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger, opts ...Option) *server.MCPServer {
	s := server.NewMCPServer("Fithub Records", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Fithub personal record server. A PR is a set that raised an exercise's top weight, or its reps at that top weight. Current PRs are still unbeaten. Dates are YYYY-MM-DD."),
	)

	h := &handlers{ds: ds, log: log}
	for _, opt := range opts {
		opt(h)
	}

	s.AddTools(
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetRecordPRs, Handler: h.getRecordPRs},
		server.ServerTool{Tool: toolGetPRCalendar, Handler: h.getPRCalendar},
		server.ServerTool{Tool: toolGetExerciseBests, Handler: h.getExerciseBests},
		server.ServerTool{Tool: toolGetTrainingRecords, Handler: h.getTrainingRecords},
	)

	s.AddResources(
		server.ServerResource{Resource: resCurrentPRs, Handler: h.currentPRs},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds    DataSource
	snaps SnapshotSource
	log   *slog.Logger
}

// --- Resource definitions ---

var resCurrentPRs = mcp.NewResource(
	"fithub://current_prs",
	"Current Personal Records",
	mcp.WithResourceDescription("Every PR set that is still unbeaten, with per-exercise bests"),
	mcp.WithMIMEType("application/json"),
)
