package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/ddorjelama/KeyUsageProfiler/internal/archive"
	"github.com/ddorjelama/KeyUsageProfiler/internal/invite"
	"github.com/ddorjelama/KeyUsageProfiler/internal/runtime"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("http"))
	}
	mux := http.NewServeMux()
	s := &Server{rt: rt, logger: logger, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/invites/create", s.handleInviteCreate)
	mux.HandleFunc("/v1/invites/redeem", s.handleInviteRedeem)
	mux.HandleFunc("/v1/history", s.handleHistory)
	return s
}

// Handler exposes the root handler for in-process tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// streamFrame is one websocket message: the topic plus the published JSON
// payload, unmodified.
type streamFrame struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}
	var topics []string
	if t := r.URL.Query().Get("topics"); t != "" {
		topics = strings.Split(t, ",")
	}
	sub, err := s.rt.Hub().Subscribe(user, topics, r.URL.Query().Get("filter"))
	if err != nil {
		http.Error(w, "bad filter: "+err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		sub.Close()
		return
	}
	defer conn.CloseNow()
	defer sub.Close()
	s.logger.Debug("stream opened", logpkg.Str("user", user))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case m, ok := <-sub.Messages():
			if !ok {
				return
			}
			frame, err := json.Marshal(streamFrame{Topic: m.Topic, Payload: m.Payload})
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				s.logger.Debug("stream closed", logpkg.Str("user", user), logpkg.Err(err))
				return
			}
		}
	}
}

type inviteCreateReq struct {
	TeamID int64 `json:"teamId"`
}

func (s *Server) handleInviteCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req inviteCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TeamID <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	_, found, err := s.rt.Directory().FindTeam(r.Context(), req.TeamID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	token, err := s.rt.Invites().Create(r.Context(), req.TeamID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

type inviteRedeemReq struct {
	Token string `json:"token"`
}

func (s *Server) handleInviteRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req inviteRedeemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	teamID, err := s.rt.Invites().Redeem(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrInvalid), errors.Is(err, invite.ErrExpired):
			w.WriteHeader(http.StatusGone)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]int64{"teamId": teamID})
}

type historyEntry struct {
	Seq   uint64          `json:"seq"`
	TS    int64           `json:"ts"`
	Event json.RawMessage `json:"event"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	author := q.Get("author")
	if author == "" {
		http.Error(w, "author is required", http.StatusBadRequest)
		return
	}
	opts := archive.ReadOptions{Limit: 100}
	if v := q.Get("start"); v != "" {
		start, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "bad start", http.StatusBadRequest)
			return
		}
		opts.Start = start
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		opts.Limit = limit
	}
	opts.Reverse = q.Get("reverse") == "true"

	entries, err := s.rt.Archive().Read(author, opts)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	out := make([]historyEntry, len(entries))
	for i, e := range entries {
		out[i] = historyEntry{Seq: e.Seq, TS: e.TS, Event: e.Payload}
	}
	_ = json.NewEncoder(w).Encode(out)
}
