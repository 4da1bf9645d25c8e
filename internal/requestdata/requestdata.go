package requestdata

import (
	"context"

	"github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData carries the resolved identity for one request. UserID is
// uuid.Nil for anonymous sessions: preferences still apply in-memory for
// the session but are never persisted. SessionID always has a value; it
// keys the session preference cache and the SSE channel.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	SessionID   uuid.UUID
}

// Identity returns the persistence key for the request, or uuid.Nil when
// the session is anonymous.
func (rd *RequestData) Identity() uuid.UUID {
	if rd == nil {
		return uuid.Nil
	}
	return rd.UserID
}
