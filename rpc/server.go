// Package rpc exposes a read-only HTTP query API over the producer,
// voter, and unstake relations. This sits outside spec.md's scope (the
// core exposes no network surface of its own) but gives the store
// abstraction's ordered iteration a concrete host-side consumer, the way
// the teacher's gateway layer fronts its own state stores.
package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/crypto"
)

// Server serves read-only JSON views over a Store.
type Server struct {
	store store.Store
	log   *slog.Logger
}

// New constructs a Server. A nil logger defaults to slog.Default().
func New(s store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: s, log: log}
}

// Handler builds the chi router for this server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/producers", s.listProducers)
	r.Get("/producers/{owner}", s.getProducer)
	r.Get("/voters/{owner}", s.getVoter)
	r.Get("/unstake/{id}", s.getUnstakeRequest)
	return r
}

type producerView struct {
	Owner       uint64                    `json:"owner"`
	Address     string                    `json:"address"`
	TotalVotes  string                    `json:"totalVotes"`
	Active      bool                      `json:"active"`
	Preferences types.ProducerPreferences `json:"preferences"`
}

func newProducerView(p *types.Producer, active bool) producerView {
	return producerView{
		Owner:       p.Owner,
		Address:     crypto.NewAddress(p.Owner).String(),
		TotalVotes:  p.TotalVotes.String(),
		Active:      active,
		Preferences: p.Preferences,
	}
}

type voterView struct {
	Address      string                `json:"address"`
	Proxy        string                `json:"proxy,omitempty"`
	IsProxy      bool                  `json:"isProxy"`
	Staked       uint64                `json:"staked"`
	ProxiedVotes string                `json:"proxiedVotes"`
	Producers    []string              `json:"producers,omitempty"`
	LastUpdate   int64                 `json:"lastUpdate"`
}

func newVoterView(v *types.Voter) voterView {
	view := voterView{
		Address:      crypto.NewAddress(v.Owner).String(),
		IsProxy:      v.IsProxy,
		Staked:       v.Staked,
		ProxiedVotes: v.ProxiedVotes.String(),
		LastUpdate:   v.LastUpdate,
	}
	if v.Proxy != 0 {
		view.Proxy = crypto.NewAddress(v.Proxy).String()
	}
	for _, id := range v.Producers {
		view.Producers = append(view.Producers, crypto.NewAddress(id).String())
	}
	return view
}

type unstakeRequestView struct {
	ID                 uint64 `json:"id"`
	Account            string `json:"account"`
	CurrentAmount      uint64 `json:"currentAmount"`
	WeeklyRefundAmount uint64 `json:"weeklyRefundAmount"`
	NextRefundTime     int64  `json:"nextRefundTime"`
}

func newUnstakeRequestView(r *types.UnstakeRequest) unstakeRequestView {
	return unstakeRequestView{
		ID:                 r.ID,
		Account:            crypto.NewAddress(r.Account).String(),
		CurrentAmount:      r.CurrentAmount,
		WeeklyRefundAmount: r.WeeklyRefundAmount,
		NextRefundTime:     r.NextRefundTime,
	}
}

func (s *Server) listProducers(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var views []producerView
	err := s.store.Producers().IterateByVotesDescending(func(p *types.Producer) (bool, error) {
		cfg, _, cfgErr := s.store.ProducerConfigs().Find(p.Owner)
		if cfgErr != nil {
			return false, cfgErr
		}
		views = append(views, newProducerView(p, cfg.Active()))
		return len(views) < limit, nil
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, views)
}

func (s *Server) getProducer(w http.ResponseWriter, r *http.Request) {
	owner, err := strconv.ParseUint(chi.URLParam(r, "owner"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	p, found, err := s.store.Producers().Find(owner)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	cfg, _, err := s.store.ProducerConfigs().Find(owner)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, newProducerView(p, cfg.Active()))
}

func (s *Server) getVoter(w http.ResponseWriter, r *http.Request) {
	owner, err := strconv.ParseUint(chi.URLParam(r, "owner"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	v, found, err := s.store.Voters().Find(owner)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, newVoterView(v))
}

func (s *Server) getUnstakeRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	req, found, err := s.store.UnstakeRequests().Find(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, newUnstakeRequestView(req))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("rpc: failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
