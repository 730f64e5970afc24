package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/internal/selection"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
)

// LeaderboardHandler serves and admits into the daily and weekly leaderboards
// ⭐ SSOT: 리더보드 API 핸들러는 이 구조체에서만
type LeaderboardHandler struct {
	store   *leaderboard.Store
	rule    *selection.Rule
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
// rule fills reasons for posted stocks that carry none; it may be nil.
func NewLeaderboardHandler(store *leaderboard.Store, rule *selection.Rule, m *metrics.Metrics, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		store:   store,
		rule:    rule,
		metrics: m,
		logger:  log,
	}
}

// BoardResponse is a leaderboard as served over HTTP
type BoardResponse struct {
	Kind       contracts.Kind       `json:"kind"`
	Entries    []contracts.Snapshot `json:"entries"`
	Count      int                  `json:"count"`
	ValidUntil time.Time            `json:"valid_until"`
	Label      string               `json:"label,omitempty"` // set when empty
}

func newBoardResponse(lb *leaderboard.Leaderboard) BoardResponse {
	entries := lb.Rank()
	if entries == nil {
		entries = []contracts.Snapshot{}
	}
	resp := BoardResponse{
		Kind:       lb.Kind(),
		Entries:    entries,
		Count:      len(entries),
		ValidUntil: lb.ValidUntil(),
	}
	if len(entries) == 0 {
		resp.Label = lb.Kind().EmptyLabel()
	}
	return resp
}

// StockInput is an externally supplied snapshot
type StockInput struct {
	Symbol     string           `json:"symbol"`
	Price      decimal.Decimal  `json:"price"`
	PriorClose decimal.Decimal  `json:"prior_close"`
	PERatio    *decimal.Decimal `json:"pe_ratio,omitempty"`
	EPS        *decimal.Decimal `json:"eps,omitempty"`
	Reasons    []string         `json:"reasons,omitempty"`
}

// AdmitRequest accepts either a batch ("stocks") or a single stock ("stock")
type AdmitRequest struct {
	Stocks []StockInput `json:"stocks,omitempty"`
	Stock  *StockInput  `json:"stock,omitempty"`
}

// AdmitResponse reports which symbols were new to the board
type AdmitResponse struct {
	Admitted []string      `json:"admitted"`
	Existing []string      `json:"existing"`
	Board    BoardResponse `json:"board"`
}

// Get returns the current board
// GET /api/daily, GET /api/weekly
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := contracts.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	lb, err := h.store.Current(r.Context(), kind)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Leaderboard store unavailable")
		return
	}

	respondJSON(w, http.StatusOK, newBoardResponse(lb))
}

// Admit validates posted stocks and admits them, first writer wins.
// Any invalid stock rejects the whole request.
// POST /api/daily {"stocks": [...]}, POST /api/weekly {"stock": {...}}
func (h *LeaderboardHandler) Admit(w http.ResponseWriter, r *http.Request) {
	kind, err := contracts.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var req AdmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inputs := req.Stocks
	if req.Stock != nil {
		inputs = append(inputs, *req.Stock)
	}
	if len(inputs) == 0 {
		respondError(w, http.StatusBadRequest, "No stocks supplied")
		return
	}

	snapshots := make([]contracts.Snapshot, 0, len(inputs))
	fetchedAt := h.store.Now()
	for _, in := range inputs {
		snap, err := h.toSnapshot(in, fetchedAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		snapshots = append(snapshots, snap)
	}

	resp := AdmitResponse{Admitted: []string{}, Existing: []string{}}
	lb, err := h.store.Update(r.Context(), kind, func(lb *leaderboard.Leaderboard) error {
		for _, snap := range snapshots {
			if lb.Admit(snap) {
				resp.Admitted = append(resp.Admitted, snap.Symbol)
			} else {
				resp.Existing = append(resp.Existing, snap.Symbol)
			}
		}
		return nil
	})
	if err != nil {
		var serr *contracts.StoreError
		if errors.As(err, &serr) {
			respondError(w, http.StatusServiceUnavailable, fmt.Sprintf("Leaderboard store %s failed", serr.Op))
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update leaderboard")
		return
	}

	h.metrics.CountAdmissions(string(kind), len(resp.Admitted))
	h.logger.WithFields(map[string]interface{}{
		"kind":     kind,
		"admitted": len(resp.Admitted),
		"existing": len(resp.Existing),
	}).Info("External snapshots admitted")

	resp.Board = newBoardResponse(lb)
	respondJSON(w, http.StatusOK, resp)
}

func (h *LeaderboardHandler) toSnapshot(in StockInput, fetchedAt time.Time) (contracts.Snapshot, error) {
	var f contracts.Fundamentals
	if in.PERatio != nil {
		f.PERatio = contracts.Available(*in.PERatio)
	}
	if in.EPS != nil {
		f.EPS = contracts.Available(*in.EPS)
	}

	snap, err := contracts.NewSnapshot(in.Symbol, in.Price, in.PriorClose, f, fetchedAt)
	if err != nil {
		return contracts.Snapshot{}, err
	}

	if len(in.Reasons) > 0 {
		return snap.WithReasons(in.Reasons), nil
	}
	if h.rule != nil {
		return snap.WithReasons(h.rule.Evaluate(snap).Reasons), nil
	}
	return snap, nil
}
