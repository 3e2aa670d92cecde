// Package agentctx stores the authenticated agent identity for the current
// request. The identity arrives from the auth proxy as an opaque id; nothing
// in this service validates credentials.
package agentctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type agentIDKey struct{}

// WithAgentID stores the authenticated agent id in the context.
func WithAgentID(ctx context.Context, agentID snowflake.ID) context.Context {
	return context.WithValue(ctx, agentIDKey{}, agentID)
}

// AgentIDFromContext returns the authenticated agent id, or zero when the
// request carried no identity.
func AgentIDFromContext(ctx context.Context) snowflake.ID {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(agentIDKey{}).(snowflake.ID); ok {
		return id
	}
	return 0
}
