package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/betbot/internal/ledger"
)

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.Accounts.Stats(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) auditLog(w http.ResponseWriter, r *http.Request) {
	list, err := a.Accounts.AuditLog(r.Context(), limitParam(r, 100))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.Accounts.Users(r.Context(), limitParam(r, 100))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	u, err := a.Accounts.User(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) userBets(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	list, err := a.Bets.UserBets(r.Context(), id, limitParam(r, 50))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (a *API) userTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	list, err := a.Payments.UserTransactions(r.Context(), id, limitParam(r, 50))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (a *API) getBet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	b, err := a.Bets.Bet(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// settleBet: POST /v1/bets/{id}/settle {"result":"won","win_amount":"24.00"}
func (a *API) settleBet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req SettleBetRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := req.amount()
	if err != nil {
		a.writeError(w, err)
		return
	}
	b, err := a.Bets.SettleBet(r.Context(), adminFrom(r.Context()), id, ledger.BetResult(req.Result), amount)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// settleMatch liquida todas as apostas pendentes da partida.
// Falhas parciais voltam 207 com o resumo.
func (a *API) settleMatch(w http.ResponseWriter, r *http.Request) {
	var req SettleMatchRequest
	if !decode(w, r, &req) {
		return
	}
	sum, err := a.Bets.SettleMatch(r.Context(), adminFrom(r.Context()), chi.URLParam(r, "id"), req.Winner)
	if err != nil {
		if len(sum.Failed) > 0 {
			writeJSON(w, http.StatusMultiStatus, sum)
			return
		}
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-6 * time.Hour)
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since must be RFC3339"})
			return
		}
		since = t
	}
	list, err := a.Matches.Matches(r.Context(), since, limitParam(r, 100))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

// pendingTransactions: ?type=deposit|withdraw (vazio = ambos)
func (a *API) pendingTransactions(w http.ResponseWriter, r *http.Request) {
	kind := ledger.TxKind(strings.ToLower(r.URL.Query().Get("type")))
	if kind != "" && kind != ledger.KindDeposit && kind != ledger.KindWithdraw {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be deposit or withdraw"})
		return
	}
	list, err := a.Payments.Pending(r.Context(), kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := a.Payments.Transaction(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := a.Payments.Approve(r.Context(), id, adminFrom(r.Context()))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	t, err := a.Payments.Reject(r.Context(), id, adminFrom(r.Context()))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) listWallets(w http.ResponseWriter, r *http.Request) {
	list, err := a.Payments.WalletAddresses(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (a *API) setWallet(w http.ResponseWriter, r *http.Request) {
	var req WalletRequest
	if !decode(w, r, &req) {
		return
	}
	wa, err := a.Payments.SetWalletAddress(r.Context(), adminFrom(r.Context()), chi.URLParam(r, "asset"), req.Address)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wa)
}

// orEmpty garante [] em vez de null no JSON
func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
