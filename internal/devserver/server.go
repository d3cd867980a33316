// Package devserver is a local stand-in for the program's remote API.
//
// It serves the same routes and status codes the remote client expects and
// keeps what it receives in its own store namespace, so the whole
// submit-locally-then-remotely flow can run on one machine.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/remote"
	"github.com/roach88/fieldsync/internal/store"
)

// KeyPrefix namespaces the server's logs when it shares a medium with a
// local store.
const KeyPrefix = "server:"

// MsgDuplicateAggregator is the 409 body error for a reused aggregator name.
const MsgDuplicateAggregator = "Aggregator name must be unique."

const maxBodyBytes = 4 << 20

// Server handles the remote API routes.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	router *mux.Router

	// mu makes the uniqueness and idempotency checks atomic with the append.
	mu sync.Mutex
}

// New creates a server persisting into st. Callers sharing a medium with a
// local store should create st with store.WithKeyPrefix(KeyPrefix).
func New(st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: st, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc(remote.ListAggregators.Path, s.handleListAggregators).Methods(remote.ListAggregators.Method)

	for _, t := range store.KnownTypes {
		ep, ok := remote.SubmitEndpoint(t)
		if !ok {
			continue
		}
		r.HandleFunc(ep.Path, s.handleSubmit(t)).Methods(ep.Method)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("dev server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleListAggregators(w http.ResponseWriter, r *http.Request) {
	log, err := s.store.ListAll(r.Context(), store.Aggregator)
	if err != nil {
		s.storeFailure(w, err)
		return
	}
	arr := make(record.Array, len(log))
	for i, rec := range log {
		arr[i] = rec
	}
	writeJSON(w, http.StatusOK, arr)
}

func (s *Server) handleSubmit(t store.RecordType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}
		v, err := record.UnmarshalValue(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "request body must be valid JSON")
			return
		}
		rec, ok := v.(record.Object)
		if !ok {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object")
			return
		}

		ctx := r.Context()
		s.mu.Lock()
		defer s.mu.Unlock()

		if key := r.Header.Get(remote.IdempotencyHeader); key != "" {
			prev, found, err := s.store.Find(ctx, t, "submissionId", record.String(key))
			if err != nil {
				s.storeFailure(w, err)
				return
			}
			if found {
				s.logger.Debug("idempotent replay", "record_type", t, "key", key)
				w.Header().Set("Idempotent-Replayed", "true")
				writeJSON(w, http.StatusCreated, prev)
				return
			}
		}

		if t == store.Aggregator {
			name, _ := rec.Field("aggregatorName")
			if name != nil {
				exists, err := s.store.ExistsWithKey(ctx, t, "aggregatorName", name)
				if err != nil {
					s.storeFailure(w, err)
					return
				}
				if exists {
					writeError(w, http.StatusConflict, MsgDuplicateAggregator)
					return
				}
			}
		}

		if err := s.store.Append(ctx, t, rec); err != nil {
			s.storeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) storeFailure(w http.ResponseWriter, err error) {
	if store.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("store failure", "error", err)
	writeError(w, http.StatusInternalServerError, "internal storage error")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var (
		data []byte
		err  error
	)
	if rv, ok := v.(record.Value); ok {
		data, err = record.MarshalValue(rv)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
