package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/domain"
	"mysterybox/internal/streaming"
)

type Tracker interface {
	Acknowledge(ctx context.Context, hash, senderID string, effect application.Effect) application.AckResult
	IsAlreadyProcessed(ctx context.Context, hash string) bool
}

type QuestViews interface {
	Boxes(ctx context.Context, questID uint64, accountID string, page domain.Pagination) ([]domain.Box, error)
	TotalSupply(ctx context.Context, questID uint64) (string, error)
	AvailableRewards(ctx context.Context, questID uint64, rarity domain.Rarity, page domain.Pagination) ([]map[string]any, error)
	IsVerified(ctx context.Context, accountID string) (bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type Server struct {
	tracker   Tracker
	quests    QuestViews
	store     Pinger
	rpc       Pinger
	metrics   *Metrics
	buildInfo BuildInfo
}

// NewServer wires the HTTP API. quests may be nil when no contract is
// configured; the quest endpoints then answer 503.
func NewServer(tracker Tracker, quests QuestViews, store, rpc Pinger, metrics *Metrics, buildInfo BuildInfo) (*Server, error) {
	if tracker == nil || store == nil || rpc == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{tracker: tracker, quests: quests, store: store, rpc: rpc, metrics: metrics, buildInfo: buildInfo}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /acknowledge", s.handleAcknowledge)
	mux.HandleFunc("GET /processed", s.handleProcessed)
	mux.HandleFunc("GET /quests/{id}/boxes", s.handleBoxes)
	mux.HandleFunc("GET /quests/{id}/supply", s.handleSupply)
	mux.HandleFunc("GET /quests/{id}/rewards", s.handleRewards)
	mux.HandleFunc("GET /verification", s.handleVerification)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /version", s.handleVersion)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	if err := s.rpc.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "rpc not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type acknowledgeRequest struct {
	TxHash    string `json:"tx_hash"`
	AccountID string `json:"account_id"`
	Kind      string `json:"kind"`
}

type acknowledgeResponse struct {
	TxHash  string               `json:"tx_hash"`
	State   application.AckState `json:"state"`
	Outcome json.RawMessage      `json:"outcome,omitempty"`
	Event   *streaming.AckEvent  `json:"event,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.TxHash = strings.TrimSpace(req.TxHash)
	req.AccountID = strings.TrimSpace(req.AccountID)
	if req.TxHash == "" {
		respondError(w, http.StatusBadRequest, "tx_hash is required")
		return
	}
	if req.AccountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	kind, err := streaming.ParseAckKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	effect, err := application.EffectFor(kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.tracker.Acknowledge(r.Context(), req.TxHash, req.AccountID, effect)
	resp := acknowledgeResponse{
		TxHash: result.Hash,
		State:  result.State,
		Event:  result.Event,
	}
	if result.Outcome != nil && !result.Outcome.Empty() {
		resp.Outcome = result.Outcome.Raw()
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	// Failures are part of the normal flow and retried by the caller.
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProcessed(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimSpace(r.URL.Query().Get("tx_hash"))
	if hash == "" {
		respondError(w, http.StatusBadRequest, "tx_hash is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"tx_hash":   hash,
		"processed": s.tracker.IsAlreadyProcessed(r.Context(), hash),
	})
}

func (s *Server) handleBoxes(w http.ResponseWriter, r *http.Request) {
	questID, ok := s.questRequest(w, r)
	if !ok {
		return
	}
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	boxes, err := s.quests.Boxes(r.Context(), questID, accountID, page)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if boxes == nil {
		boxes = []domain.Box{}
	}
	respondJSON(w, http.StatusOK, boxes)
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	questID, ok := s.questRequest(w, r)
	if !ok {
		return
	}
	supply, err := s.quests.TotalSupply(r.Context(), questID)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"quest_id": questID, "total_supply": supply})
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	questID, ok := s.questRequest(w, r)
	if !ok {
		return
	}
	rarity := domain.Rarity(r.URL.Query().Get("rarity"))
	if !rarity.Valid() {
		respondError(w, http.StatusBadRequest, "invalid rarity")
		return
	}
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rewards, err := s.quests.AvailableRewards(r.Context(), questID, rarity, page)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rewards)
}

func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	if s.quests == nil {
		respondError(w, http.StatusServiceUnavailable, "contract not configured")
		return
	}
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	verified, err := s.quests.IsVerified(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"account_id": accountID, "verified": verified})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func (s *Server) questRequest(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	if s.quests == nil {
		respondError(w, http.StatusServiceUnavailable, "contract not configured")
		return 0, false
	}
	questID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quest id")
		return 0, false
	}
	return questID, true
}

func parsePagination(r *http.Request) (domain.Pagination, error) {
	var page domain.Pagination
	if raw := r.URL.Query().Get("page"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || value > domain.MaxPage {
			return domain.Pagination{}, fmt.Errorf("page must be between 0 and %d", domain.MaxPage)
		}
		page.Page = value
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return domain.Pagination{}, errors.New("invalid size")
		}
		page.Size = value
	}
	return page, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
