package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bankbot/internal/repo"

	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var accountParamRegex = regexp.MustCompile(`^\d{6,16}$`)

type transactionView struct {
	Reference    string    `json:"reference"`
	Direction    string    `json:"direction"`
	Counterparty string    `json:"counterparty"`
	Amount       int64     `json:"amount"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// HandleTransactions lists the account's recent transfers in both directions.
func (h *Handler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.Error(w, "transaction history not configured", http.StatusNotImplemented)
		return
	}
	account := strings.TrimSpace(chi.URLParam(r, "account"))
	if !accountParamRegex.MatchString(account) {
		http.Error(w, "invalid account number", http.StatusBadRequest)
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	txns, err := h.history.ListTransactions(r.Context(), account, limit)
	if err != nil {
		h.metrics.Errors.WithLabelValues("ledger").Inc()
		h.logger.Error("list transactions failed", "account", account, "error", err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}
	out := make([]transactionView, 0, len(txns))
	for _, txn := range txns {
		out = append(out, viewOf(account, txn))
	}
	writeJSON(w, http.StatusOK, out)
}

func viewOf(account string, txn repo.Transaction) transactionView {
	v := transactionView{
		Reference: txn.Reference,
		Direction: "debit",
		Amount:    txn.Amount,
		Mode:      txn.Mode,
		Status:    txn.Status,
		CreatedAt: txn.CreatedAt,
	}
	if txn.Sender == account {
		v.Counterparty = txn.ReceiverName
		if v.Counterparty == "" {
			v.Counterparty = txn.Receiver
		}
	} else {
		v.Direction = "credit"
		v.Counterparty = txn.Sender
	}
	return v
}
