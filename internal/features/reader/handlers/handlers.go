package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"feedmark/internal/auth"
	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// EntryReader is the reader feature as seen by HTTP
type EntryReader interface {
	GetEntries(ctx context.Context, userID int, req models.GetRequest) (*models.Entries, error)
	Mark(ctx context.Context, userID int, req models.MarkRequest) error
}

// Handlers contains all reader feature HTTP handlers
type Handlers struct {
	logger *core.Logger
	reader EntryReader
}

// NewHandlers creates a new handlers instance
func NewHandlers(logger *core.Logger, reader EntryReader) *Handlers {
	return &Handlers{
		logger: logger,
		reader: reader,
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user := auth.GetUserFromContext(r)
	if user.IsAnonymous() {
		core.HandleError(w, core.NewUnauthorizedError("you must be authenticated to access this resource", nil))
		return nil, false
	}
	return user, true
}

func intParam(query url.Values, name string, defaultValue int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

func parseGetRequest(query url.Values) (models.GetRequest, error) {
	var req models.GetRequest

	target, err := models.ParseTarget(query.Get("type"), query.Get("id"))
	if err != nil {
		return req, err
	}

	readType, err := models.ParseReadType(query.Get("readType"))
	if err != nil {
		return req, err
	}

	offset, err := intParam(query, "offset", 0)
	if err != nil {
		return req, err
	}
	limit, err := intParam(query, "limit", models.Unbounded)
	if err != nil {
		return req, err
	}

	req.Target = target
	req.ReadType = readType
	req.Page = models.Page{Offset: offset, Limit: limit}
	return req, nil
}

func parseMarkRequest(query url.Values) (models.MarkRequest, error) {
	var req models.MarkRequest

	target, err := models.ParseTarget(query.Get("type"), query.Get("id"))
	if err != nil {
		return req, err
	}

	raw := query.Get("read")
	if raw == "" {
		return req, fmt.Errorf("read is required")
	}
	read, err := strconv.ParseBool(raw)
	if err != nil {
		return req, fmt.Errorf("read must be a boolean")
	}

	req.Target = target
	req.Read = read
	return req, nil
}

// GetEntries serves a page of entries by feed or category
func (h *Handlers) GetEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseGetRequest(r.URL.Query())
	if err != nil {
		core.HandleError(w, core.NewValidationError(err.Error(), err))
		return
	}

	entries, err := h.reader.GetEntries(r.Context(), user.ID, req)
	if err != nil {
		h.logFailure(r, user, "get entries", err)
		core.HandleError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, entries)
}

// MarkEntries sets the read flag of an entry or of every entry of a feed
func (h *Handlers) MarkEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			core.HandleError(w, core.NewValidationError("invalid form body", err))
			return
		}
	}

	query := r.URL.Query()
	if r.Method == http.MethodPost {
		query = r.Form
	}

	req, err := parseMarkRequest(query)
	if err != nil {
		core.HandleError(w, core.NewValidationError(err.Error(), err))
		return
	}

	if err := h.reader.Mark(r.Context(), user.ID, req); err != nil {
		h.logFailure(r, user, "mark entries", err)
		core.HandleError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) logFailure(r *http.Request, user *auth.User, action string, err error) {
	logger := h.logger.WithContext(r.Context()).WithUser(user.ID)

	switch core.ErrorCode(err) {
	case core.ErrCodeValidation, core.ErrCodeNotFound:
		logger.Debug("Reader request rejected", "action", action, "error", err)
	case core.ErrCodeInconsistentState:
		// already logged with entry and feed ids where it was detected
		logger.Debug("Reader request failed", "action", action, "error", err)
	default:
		logger.Error("Reader request failed", "action", action, "error", err)
	}
}
