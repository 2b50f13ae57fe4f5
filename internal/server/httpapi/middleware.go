package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type ctxKey string

const userKey ctxKey = "user"

// userFromContext returns the identity bound by requireAuth.
func userFromContext(ctx context.Context) string {
	u, _ := ctx.Value(userKey).(string)
	return u
}

// presentedCredentials takes the identity and token from the request's
// first cookie: its name is the user, its value the token.
func presentedCredentials(r *http.Request) (string, string) {
	cookies := r.Cookies()
	if len(cookies) == 0 {
		return "", ""
	}
	return cookies[0].Name, cookies[0].Value
}

// requireAuth rejects requests without a valid session cookie with 403 and
// otherwise stores the bound user name in the request context.
func (h *Handler) requireAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := r.Context()
		identity, token := presentedCredentials(r)

		acc, err := h.auth.Authenticate(ctx, identity, token)
		if err != nil && !errors.Is(err, common.ErrInvalidToken) {
			h.logger.Error(ctx, "authenticate failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err != nil || acc.Status != services.StatusAccepted {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		if err := h.files.EnsureHome(ctx, acc.User); err != nil {
			h.logger.Error(ctx, "ensure home failed", "user", acc.User, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next(w, r.WithContext(context.WithValue(ctx, userKey, acc.User)), ps)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestLog tags every request with an id and logs its outcome.
func (h *Handler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		h.logger.Info(r.Context(), "request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
