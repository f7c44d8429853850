package gateway

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"mosaica/native/dex"
)

// toggler is the lifecycle surface every registered connector family carries
// via its embedded connector state.
type toggler interface {
	Enable(caller common.Address) error
	Disable(caller common.Address) error
}

func parseAddr(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, badRequestf("%s is not a hex address: %q", field, value)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, badRequestf("%s is not a decimal amount: %q", field, value)
	}
	return amount, nil
}

type venueResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	venues := make([]venueResponse, 0)
	for _, conn := range s.registry.Connectors() {
		venues = append(venues, venueResponse{
			Address: conn.Address().Hex(),
			Name:    conn.DexName(),
			Enabled: conn.Enabled(),
		})
	}
	writeJSON(w, http.StatusOK, venues)
}

type quoteResponse struct {
	Connector string `json:"connector"`
	Price     string `json:"price"`
}

type pricesResponse struct {
	Quotes []quoteResponse `json:"quotes"`
	Best   *quoteResponse  `json:"best,omitempty"`
}

func (s *Server) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	src, err := parseAddr("src", r.URL.Query().Get("src"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	dest, err := parseAddr("dest", r.URL.Query().Get("dest"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", r.URL.Query().Get("amount"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.RLock()
	quotes := s.aggregator.GetPrices(src, dest, amount)
	s.mu.RUnlock()

	resp := pricesResponse{Quotes: make([]quoteResponse, 0, len(quotes))}
	for _, q := range quotes {
		resp.Quotes = append(resp.Quotes, quoteResponse{
			Connector: q.Connector.Hex(),
			Price:     q.Price.String(),
		})
	}
	if best, ok := dex.BestQuote(quotes); ok {
		resp.Best = &quoteResponse{Connector: best.Connector.Hex(), Price: best.Price.String()}
	}
	writeJSON(w, http.StatusOK, resp)
}

type addVenueRequest struct {
	Caller  string `json:"caller"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Address string `json:"address"`
}

func (s *Server) handleAddVenue(w http.ResponseWriter, r *http.Request) {
	var req addVenueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	addr, err := parseAddr("address", req.Address)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.newConnector == nil {
		s.writeError(w, badRequestf("venue provisioning is not configured"))
		return
	}
	conn, err := s.newConnector(req.Kind, req.Name, addr)
	if err != nil {
		s.writeError(w, badRequestf("provision venue: %v", err))
		return
	}

	s.mu.Lock()
	err = s.registry.Add(caller, conn)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, venueResponse{
		Address: conn.Address().Hex(),
		Name:    conn.DexName(),
		Enabled: conn.Enabled(),
	})
}

func (s *Server) handleRemoveVenue(w http.ResponseWriter, r *http.Request) {
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
	err = s.registry.Remove(caller, addr)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleEnableVenue(w http.ResponseWriter, r *http.Request) {
	s.toggleVenue(w, r, true)
}

func (s *Server) handleDisableVenue(w http.ResponseWriter, r *http.Request) {
	s.toggleVenue(w, r, false)
}

func (s *Server) toggleVenue(w http.ResponseWriter, r *http.Request, enable bool) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	caller, err := parseAddr("caller", req.Caller)
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
	defer s.mu.Unlock()
	conn, ok := s.registry.Get(addr)
	if !ok {
		s.writeError(w, dex.ErrConnectorNotFound)
		return
	}
	lifecycle, ok := conn.(toggler)
	if !ok {
		s.writeError(w, badRequestf("venue %s does not support toggling", addr.Hex()))
		return
	}
	if enable {
		err = lifecycle.Enable(caller)
	} else {
		err = lifecycle.Disable(caller)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, venueResponse{
		Address: conn.Address().Hex(),
		Name:    conn.DexName(),
		Enabled: conn.Enabled(),
	})
}

func (s *Server) handleAssetInfo(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddr("address", pathParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	info, err := s.infos.Info(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
