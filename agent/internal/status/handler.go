package status

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads composite state from the status store and returns JSON responses.
type Handler struct {
	store *Store
	mux   *http.ServeMux
}

// NewHandler creates a Handler wired to st and registers all routes.
func NewHandler(st *Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/status", h.status)
	h.mux.HandleFunc("/api/v1/composites", h.listComposites)
	h.mux.HandleFunc("/api/v1/composites/", h.getComposite) // subtree, extracts {name}
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// status returns GET /api/v1/status: composite and run counts.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, summarize(h.store.List()))
}

// listComposites returns GET /api/v1/composites: every live composite.
func (h *Handler) listComposites(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	out := make([]CompositeResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toCompositeResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// getComposite returns GET /api/v1/composites/{name}.
func (h *Handler) getComposite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/composites/")
	if name == "" {
		h.listComposites(w, r)
		return
	}

	e, ok := h.store.Get(name)
	if !ok {
		jsonErr(w, http.StatusNotFound, "composite not found")
		return
	}
	jsonResp(w, http.StatusOK, toCompositeResponse(e))
}

// snapshot returns GET /api/v1/snapshot: counts and every composite in one
// payload, the same document the stream pushes.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// BuildSnapshot assembles the full status document from st.
func BuildSnapshot(st *Store) SnapshotResponse {
	entries := st.List()
	out := SnapshotResponse{
		Status:      summarize(entries),
		Composites:  make([]CompositeResponse, 0, len(entries)),
		GeneratedAt: st.now().UTC().Format(time.RFC3339),
	}
	for _, e := range entries {
		out.Composites = append(out.Composites, toCompositeResponse(e))
	}
	return out
}

// --- helpers ----------------------------------------------------------------

func summarize(entries []Entry) StatusResponse {
	resp := StatusResponse{CompositeCount: len(entries)}
	for _, e := range entries {
		resp.Runs += e.Runs
		resp.Failures += e.Failures
		if stateOf(e) == StateOK {
			resp.OKCount++
		} else {
			resp.FailingCount++
		}
	}
	return resp
}

func stateOf(e Entry) string {
	if e.LastError != "" {
		return StateFailing
	}
	return StateOK
}

func toCompositeResponse(e Entry) CompositeResponse {
	resp := CompositeResponse{
		Name:           e.Name,
		Output:         e.Output,
		Inputs:         e.Inputs,
		State:          stateOf(e),
		Runs:           e.Runs,
		Failures:       e.Failures,
		LastRun:        e.LastRun.UTC().Format(time.RFC3339),
		LastDurationMs: float64(e.LastDuration) / float64(time.Millisecond),
		LastError:      e.LastError,
		ErrorKind:      e.LastErrorKind,
		Result:         e.LastResult,
		RequestID:      e.RequestID,
	}
	if !e.LastSuccess.IsZero() {
		resp.LastSuccess = e.LastSuccess.UTC().Format(time.RFC3339)
	}
	return resp
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
