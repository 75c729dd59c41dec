package requestdata

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleViewer = "Viewer"
	RoleEditor = "Editor"
	RoleAdmin  = "Admin"
	RoleOwner  = "Owner"
)

type contextKey struct{}

var requestDataKey = contextKey{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData carries the verified bearer-token claims for one request.
// Handlers must only trust tenant and role values that arrived here, never
// raw headers.
type RequestData struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
}

// CanAdminister reports whether the role may start cycles, manage rules and
// create exceptions.
func (rd *RequestData) CanAdminister() bool {
	if rd == nil {
		return false
	}
	return rd.Role == RoleAdmin || rd.Role == RoleOwner
}
