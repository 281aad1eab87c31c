package identity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockcart/internal/response"
)

// Header carries the authenticated user id set by the upstream gateway.
const Header = "X-User-ID"

type ctxKey struct{}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// Middleware rejects requests without a positive user id header.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(r.Header.Get(Header), 10, 64)
			if err != nil || userID <= 0 {
				response.WriteStatus(w, logger, uuid.New().String(), http.StatusUnauthorized,
					"UNAUTHORIZED", "missing or invalid "+Header+" header")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
