package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/compass/internal/api/response"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/storage/signal"
)

// SignalsHandler handles signal-history API requests.
type SignalsHandler struct {
	store signal.Store
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(store signal.Store) *SignalsHandler {
	return &SignalsHandler{store: store}
}

// List returns signals matching query parameters. Supported filters:
// symbol, source, pattern, kind, outcome, from, to, limit, offset.
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := signal.ListFilter{
		Symbol:  q.Get("symbol"),
		Source:  q.Get("source"),
		Pattern: q.Get("pattern"),
	}

	if kind := q.Get("kind"); kind != "" {
		filter.Kind = core.SignalKind(kind)
	}
	if outcome := q.Get("outcome"); outcome != "" {
		filter.Outcome = core.Outcome(outcome)
	}

	if from := q.Get("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, err))
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidInput, err))
			return
		}
		filter.To = t
	}

	filter.Limit = 50
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	records, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	count, _ := h.store.Count(r.Context(), filter)

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": records,
		"total":   count,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// GetByID returns a single signal record by ID.
func (h *SignalsHandler) GetByID(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, rec)
}

// Stats returns the aggregate track record, optionally for one source.
func (h *SignalsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	stats, err := h.store.Stats(r.Context(), source)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"source": source,
		"stats":  stats,
	})
}

// parseDate accepts RFC3339 or plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
