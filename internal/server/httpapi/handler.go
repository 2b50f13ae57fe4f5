package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	auth          *services.AuthService
	quota         *services.QuotaService
	files         *services.FileService
	logger        logging.Logger
	maxUploadSize int64
}

// NewHandler wires the routes. A maxUploadSize of 0 disables the per-request
// size cap; quotas still apply.
func NewHandler(as *services.AuthService, qs *services.QuotaService, fsvc *services.FileService,
	l logging.Logger, maxUploadSize int64) http.Handler {

	h := &Handler{
		auth:          as,
		quota:         qs,
		files:         fsvc,
		logger:        l.With("module", "http_handler"),
		maxUploadSize: maxUploadSize,
	}

	router := httprouter.New()
	router.GET("/healthz", h.healthz)
	router.POST("/login", h.login)
	router.POST("/logout", h.requireAuth(h.logout))
	router.GET("/user/*path", h.requireAuth(h.getNode))
	router.PUT("/upload/*path", h.requireAuth(h.upload))
	router.POST("/mkdir", h.requireAuth(h.mkdir))
	router.POST("/share", h.requireAuth(h.share))
	router.GET("/public/:id", h.getPublic)

	return h.withRequestLog(router)
}

type quotaResponse struct {
	Limited bool   `json:"limited"`
	Current uint64 `json:"current,omitempty"`
	Limit   uint64 `json:"limit,omitempty"`
}

type listingResponse struct {
	Path    string           `json:"path"`
	Entries []services.Entry `json:"entries"`
	Quota   quotaResponse    `json:"quota"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps service errors onto status codes. Unknown errors are logged and
// reported as 500 without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid path")
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, "already exists")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}

	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusUnauthorized, "missing credentials")
		return
	}

	res, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Status != services.StatusAccepted {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	c := &http.Cookie{
		Name:     username,
		Value:    res.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	// http.SetCookie silently drops invalid cookies
	if err := c.Valid(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: user %q cannot be a cookie name: %v", common.ErrMalformedRecord, username, err))
		return
	}

	http.SetCookie(w, c)
	http.Redirect(w, r, "/user/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.SetCookie(w, &http.Cookie{
		Name:     userFromContext(r.Context()),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) getNode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	user := userFromContext(ctx)
	p := ps.ByName("path")

	fi, err := h.files.Stat(ctx, user, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch {
	case fi.IsDir():
		entries, err := h.files.List(ctx, user, p)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		u, err := h.quota.Usage(ctx, user)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, listingResponse{
			Path:    p,
			Entries: entries,
			Quota: quotaResponse{
				Limited: u.Quota.Available,
				Current: u.Current,
				Limit:   u.Quota.LimitBytes,
			},
		})
	case fi.Mode().IsRegular():
		f, fi, err := h.files.Open(ctx, user, p)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		defer f.Close()
		http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	user := userFromContext(ctx)
	p := ps.ByName("path")

	if strings.HasSuffix(p, "/") {
		writeError(w, http.StatusBadRequest, "missing file name")
		return
	}
	dir, name := path.Split(p)

	if h.maxUploadSize > 0 {
		if r.ContentLength > h.maxUploadSize {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	if r.ContentLength < 0 {
		u, err := h.quota.Usage(ctx, user)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if u.Quota.Available {
			writeError(w, http.StatusLengthRequired, "content length required")
			return
		}
	} else {
		qc, err := h.quota.CheckUpload(ctx, user, uint64(r.ContentLength))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := qc.Err(); err != nil {
			h.logger.Info(ctx, "upload rejected",
				"user", user, "length", r.ContentLength, "error", err)
			writeJSON(w, http.StatusRequestEntityTooLarge, quotaResponse{
				Limited: true,
				Current: qc.Current,
				Limit:   qc.Limit,
			})
			return
		}
	}

	n, err := h.files.Upload(ctx, user, dir, name, r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"path": p, "size": n})
}

func (h *Handler) mkdir(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}

	rel, err := h.files.Mkdir(r.Context(), userFromContext(r.Context()),
		r.PostForm.Get("dir"), r.PostForm.Get("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/user"+rel, http.StatusSeeOther)
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}

	p := r.PostForm.Get("path")
	if p == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	url, err := h.files.Share(r.Context(), userFromContext(r.Context()), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) getPublic(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	f, fi, err := h.files.OpenPublic(r.Context(), ps.ByName("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
