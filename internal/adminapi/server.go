package adminapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/accounts"
	"github.com/radieske/betbot/internal/adminapi/ws"
	"github.com/radieske/betbot/internal/betting"
	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/odds"
	"github.com/radieske/betbot/internal/payments"
	"github.com/radieske/betbot/internal/storage/postgres"
)

// MatchLister é implementado pelo store postgres (tabela matches)
type MatchLister interface {
	Matches(ctx context.Context, since time.Time, limit int) ([]postgres.Match, error)
}

// API expõe as operações de admin: liquidação, aprovação e consulta
// A identidade do admin vem do header X-Admin-ID; o core decide se ela é admin
type API struct {
	Log      *zap.Logger
	Accounts *accounts.Service
	Bets     *betting.Manager
	Payments *payments.Workflow
	Matches  MatchLister // opcional
	Hub      *ws.Hub     // opcional
	Token    string      // bearer opcional
}

// Router retorna o roteador HTTP com os endpoints REST e o /ws/odds
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.accessLog)

	if a.Hub != nil {
		r.Get("/ws/odds", a.Hub.HandleWS) // feed público de odds
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.requireAdmin)

		r.Get("/stats", a.stats)
		r.Get("/audit", a.auditLog)

		r.Get("/users", a.listUsers)
		r.Get("/users/{id}", a.getUser)
		r.Get("/users/{id}/bets", a.userBets)
		r.Get("/users/{id}/transactions", a.userTransactions)

		r.Get("/bets/{id}", a.getBet)
		r.Post("/bets/{id}/settle", a.settleBet)
		r.Post("/matches/{id}/settle", a.settleMatch)
		if a.Matches != nil {
			r.Get("/matches", a.listMatches)
		}

		r.Get("/transactions/pending", a.pendingTransactions)
		r.Get("/transactions/{id}", a.getTransaction)
		r.Post("/transactions/{id}/approve", a.approve)
		r.Post("/transactions/{id}/reject", a.reject)

		r.Get("/wallets", a.listWallets)
		r.Put("/wallets/{asset}", a.setWallet)
	})
	return r
}

type ctxKey struct{}

func adminFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKey{}).(int64)
	return id
}

// requireAdmin valida o bearer (se configurado) e o X-Admin-ID
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
				return
			}
		}
		id, err := strconv.ParseInt(r.Header.Get("X-Admin-ID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "X-Admin-ID header required"})
			return
		}
		if !a.Accounts.IsAdmin(id) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: ledger.ErrUnauthorized.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError mapeia os erros do core para status HTTP
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrNotPending):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidResult),
		errors.Is(err, ledger.ErrInvalidSelection),
		errors.Is(err, ledger.ErrInvalidOdds),
		errors.Is(err, ledger.ErrUnsupportedAsset),
		errors.Is(err, odds.ErrMatchNotFound):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.Log.Error("admin api", zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	if err := dst.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func limitParam(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 500 {
		return n
	}
	return def
}
