package gateway

import (
	"math/big"
	"net/http"
	"time"

	"mosaica/native/portfolio"
	"mosaica/observability"
)

// swapLeg is the wire form of a batch instruction; amounts travel as decimal
// strings.
type swapLeg struct {
	SrcToken  string `json:"srcToken"`
	Connector string `json:"dexConnectorAddress"`
	DestToken string `json:"destToken"`
	Amount    string `json:"amount"`
	Slippage  uint8  `json:"slippage"`
}

func decodeBatch(legs []swapLeg) ([]portfolio.SwapInstruction, error) {
	batch := make([]portfolio.SwapInstruction, 0, len(legs))
	for _, leg := range legs {
		src, err := parseAddr("batch.srcToken", leg.SrcToken)
		if err != nil {
			return nil, err
		}
		dest, err := parseAddr("batch.destToken", leg.DestToken)
		if err != nil {
			return nil, err
		}
		instruction := portfolio.SwapInstruction{
			SrcToken:    src,
			DestToken:   dest,
			SlippagePct: leg.Slippage,
		}
		// Plain withdrawal legs may omit the connector.
		if leg.Connector != "" {
			conn, err := parseAddr("batch.dexConnectorAddress", leg.Connector)
			if err != nil {
				return nil, err
			}
			instruction.Connector = conn
		}
		// Zero amounts pass through; the engine raises the typed error for
		// the leg's asset family.
		amount, err := parseAmount("batch.amount", leg.Amount)
		if err != nil {
			return nil, err
		}
		instruction.Amount = amount
		batch = append(batch, instruction)
	}
	return batch, nil
}

func parseOptionalValue(value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	return parseAmount("value", value)
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddr("owner", r.URL.Query().Get("owner"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.RLock()
	handles, err := s.factory.GetPortfolios(owner)
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]string, 0, len(handles))
	for _, handle := range handles {
		out = append(out, handle.Hex())
	}
	writeJSON(w, http.StatusOK, out)
}

type holdingResponse struct {
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
	Symbol  string `json:"symbol,omitempty"`
}

type portfolioResponse struct {
	Address  string            `json:"address"`
	Holdings []holdingResponse `json:"holdings"`
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets, err := s.engine.GetAssetAddresses(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := portfolioResponse{Address: addr.Hex(), Holdings: make([]holdingResponse, 0, len(assets))}
	for _, asset := range assets {
		balance, err := s.engine.GetAssetBalance(addr, asset)
		if err != nil {
			s.writeError(w, err)
			return
		}
		holding := holdingResponse{Asset: asset.Hex(), Balance: balance.String()}
		// Metadata is best effort; an unreachable token contract must not
		// hide the balance.
		if info, err := s.infos.Info(asset); err == nil {
			holding.Symbol = info.Symbol
		}
		resp.Holdings = append(resp.Holdings, holding)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssetAddresses(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.RLock()
	assets, err := s.engine.GetAssetAddresses(addr)
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]string, 0, len(assets))
	for _, asset := range assets {
		out = append(out, asset.Hex())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAssetBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr("address", pathParam(r, "address"))
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
	balance, err := s.engine.GetAssetBalance(addr, asset)
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holdingResponse{Asset: asset.Hex(), Balance: balance.String()})
}

type actionResponse struct {
	Kind      string `json:"kind"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) handlePortfolioActions(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.RLock()
	actions, err := portfolio.ActionsFromEvents(addr, s.actionLog.Events())
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]actionResponse, 0, len(actions))
	for _, action := range actions {
		out = append(out, actionResponse{
			Kind:      string(action.Kind),
			Asset:     action.Asset.Hex(),
			Amount:    action.Amount.String(),
			Timestamp: action.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createPortfolioRequest struct {
	Owner string    `json:"owner"`
	Value string    `json:"value"`
	Batch []swapLeg `json:"batch"`
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	owner, err := parseAddr("owner", req.Owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	value, err := parseOptionalValue(req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	batch, err := decodeBatch(req.Batch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	start := time.Now()
	handle, err := s.factory.CreatePortfolio(owner, batch, value)
	observability.Swaps().ObserveBatch("create", time.Since(start), err)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"portfolio": handle.Hex()})
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	caller, err := parseAddr("caller", r.URL.Query().Get("caller"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	err = s.factory.DeletePortfolio(caller, addr)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addAssetRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
	Value  string `json:"value"`
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req addAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
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
	value, err := parseOptionalValue(req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.engine.AddAsset(addr, caller, asset, amount, value)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchRequest struct {
	Caller string    `json:"caller"`
	Value  string    `json:"value"`
	Batch  []swapLeg `json:"batch"`
}

func (s *Server) handleBuyAssets(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	value, err := parseOptionalValue(req.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	batch, err := decodeBatch(req.Batch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	start := time.Now()
	err = s.engine.BuyAssets(addr, caller, batch, value)
	observability.Swaps().ObserveBatch("buy", time.Since(start), err)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWithdrawAssets(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Value != "" {
		s.writeError(w, badRequestf("withdrawals do not accept attached value"))
		return
	}
	batch, err := decodeBatch(req.Batch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	start := time.Now()
	err = s.engine.WithdrawAssets(addr, caller, batch)
	observability.Swaps().ObserveBatch("withdraw", time.Since(start), err)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
