package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quantbt/internal/backtest"
	"github.com/wonny/quantbt/pkg/logger"
)

// ResultsHandler serves persisted backtest runs
// ⭐ SSOT: 결과 조회 API는 여기서만
type ResultsHandler struct {
	repo   *backtest.ResultRepository
	logger *logger.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(repo *backtest.ResultRepository, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{repo: repo, logger: log}
}

type runResponse struct {
	TableName  string    `json:"table_name"`
	Note       string    `json:"note"`
	Horizon    int       `json:"horizon_days"`
	RowCount   int       `json:"row_count"`
	Tax        float64   `json:"tax"`
	Commission float64   `json:"commission"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListRuns handles GET /api/runs
func (h *ResultsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repo.ListRuns(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			TableName:  run.TableName,
			Note:       run.Note,
			Horizon:    run.Horizon,
			RowCount:   run.RowCount,
			Tax:        run.Tax,
			Commission: run.Commission,
			CreatedAt:  run.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  out,
		"count": len(out),
	})
}

// GetSummary handles GET /api/runs/{table}/summary
// Returns the same plain-text report the CLI prints.
func (h *ResultsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	res, err := h.repo.Load(r.Context(), table)
	if err != nil {
		h.logger.WithError(err).WithField("table", table).Error("Failed to load run")
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(backtest.Summarize(res)))
}

// GetCurve handles GET /api/runs/{table}/groups/{group}/curve?stat=mean
// JSON cannot carry NaN, so missing cells come back as null.
func (h *ResultsHandler) GetCurve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	table := vars["table"]
	group := vars["group"]

	stat := r.URL.Query().Get("stat")
	if stat == "" {
		stat = backtest.StatMean
	}
	if !backtest.IsStatCode(stat) {
		writeError(w, http.StatusBadRequest, "unknown statistic: "+stat)
		return
	}

	res, err := h.repo.Load(r.Context(), table)
	if err != nil {
		h.logger.WithError(err).WithField("table", table).Error("Failed to load run")
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	series, ok := res.StatSeries(group, stat)
	if !ok {
		writeError(w, http.StatusNotFound, "group not found: "+group)
		return
	}

	curve := make([]*float64, len(series))
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		vv := v
		curve[i] = &vv
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"table":        table,
		"group":        group,
		"stat":         stat,
		"horizon_days": res.Horizon,
		"observations": res.ObservationCount(group),
		"curve":        curve,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
