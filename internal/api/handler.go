package api

import (
	"net/http"
	"strconv"
	"time"

	"FlowTagger/internal/query"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler holds the dependencies for API handlers.
type Handler struct {
	querier query.Querier
	log     logrus.FieldLogger
}

// NewRouter wires the API routes.
func NewRouter(querier query.Querier, log logrus.FieldLogger) *mux.Router {
	h := &Handler{querier: querier, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/runs", h.runsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/runs/{run_id}/tags", h.tagsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/runs/{run_id}/combinations", h.combinationsHandler).Methods(http.MethodGet)
	return r
}

// runsHandler lists the most recent runs.
func (h *Handler) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.querier.Runs(r.Context(), limit)
	if err != nil {
		h.fail(w, "failed to list runs", err)
		return
	}

	items := make([]interface{}, 0, len(runs))
	for _, run := range runs {
		items = append(items, map[string]interface{}{
			"run_id":       run.RunID,
			"source":       run.Source,
			"generated_at": run.GeneratedAt.UTC().Format(time.RFC3339),
			"records":      run.Records,
		})
	}
	h.respond(w, map[string]interface{}{"runs": items})
}

// tagsHandler returns the tag counts of a run.
func (h *Handler) tagsHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]
	counts, err := h.querier.TagCounts(r.Context(), runID)
	if err != nil {
		h.fail(w, "failed to query tag counts", err)
		return
	}
	if len(counts) == 0 {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	items := make([]interface{}, 0, len(counts))
	for _, tc := range counts {
		items = append(items, map[string]interface{}{"tag": tc.Tag, "count": tc.Count})
	}
	h.respond(w, map[string]interface{}{"run_id": runID, "tag_counts": items})
}

// combinationsHandler returns the port/protocol combination counts of a run.
func (h *Handler) combinationsHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]
	counts, err := h.querier.CombinationCounts(r.Context(), runID)
	if err != nil {
		h.fail(w, "failed to query combination counts", err)
		return
	}
	if len(counts) == 0 {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	items := make([]interface{}, 0, len(counts))
	for _, cc := range counts {
		items = append(items, map[string]interface{}{
			"port":     cc.Key.Port,
			"protocol": cc.Key.Protocol,
			"count":    cc.Count,
		})
	}
	h.respond(w, map[string]interface{}{"run_id": runID, "combination_counts": items})
}

func (h *Handler) respond(w http.ResponseWriter, body map[string]interface{}) {
	msg, err := structpb.NewStruct(body)
	if err != nil {
		h.fail(w, "failed to build response", err)
		return
	}
	jsonBytes, err := protojson.Marshal(msg)
	if err != nil {
		h.fail(w, "failed to marshal response", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.log.WithError(err).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}
