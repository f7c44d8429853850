package gateway

import (
	"net/http"
)

func (s *Server) handleCustodyBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddr("account", pathParam(r, "account"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := parseAddr("asset", pathParam(r, "asset"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.RLock()
	balance := s.custody.BalanceOf(account, asset)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, holdingResponse{Asset: asset.Hex(), Balance: balance.String()})
}

type approveRequest struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

// handleApprove grants a spender an allowance over the owner's custody
// balance. Token deposits and factory seeding pull funds against these
// allowances.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	owner, err := parseAddr("owner", req.Owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := parseAddr("spender", req.Spender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := parseAddr("asset", req.Asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.custody.Approve(owner, spender, asset, amount)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type depositRequest struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

// handleDeposit credits a custody account directly. This is the faucet for
// local environments; production substrates fund custody out of band.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	account, err := parseAddr("account", req.Account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := parseAddr("asset", req.Asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.custody.Deposit(account, asset, amount)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
