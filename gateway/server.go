package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mosaica/core/types"
	"mosaica/native/bank"
	"mosaica/native/dex"
	"mosaica/native/portfolio"
)

// Server exposes the engines over REST. Mutating operations execute under a
// write lock so the strictly serial execution model holds even though the
// HTTP layer is concurrent; reads share a read lock.
type Server struct {
	mu           sync.RWMutex
	engine       *portfolio.Engine
	factory      *portfolio.Factory
	registry     *dex.Registry
	aggregator   *dex.PriceAggregator
	custody      *bank.Book
	infos        *portfolio.InfoCache
	actionLog    ActionLog
	newConnector ConnectorProvisioner
	authToken    string
	log          *slog.Logger
}

// ConnectorProvisioner builds a connector of the requested kind over the
// daemon's venue substrate. The gateway stays agnostic of how venues are
// backed.
type ConnectorProvisioner func(kind, name string, addr common.Address) (dex.Connector, error)

// ActionLog supplies the recorded event stream backing the portfolio history
// endpoint.
type ActionLog interface {
	Events() []*types.Event
}

// Config wires the server's collaborators.
type Config struct {
	Engine       *portfolio.Engine
	Factory      *portfolio.Factory
	Registry     *dex.Registry
	Aggregator   *dex.PriceAggregator
	Custody      *bank.Book
	Infos        *portfolio.InfoCache
	ActionLog    ActionLog
	NewConnector ConnectorProvisioner
	AuthToken    string
	Logger       *slog.Logger
}

// NewServer constructs a server. An empty auth token leaves mutations open,
// intended only for local development.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:       cfg.Engine,
		factory:      cfg.Factory,
		registry:     cfg.Registry,
		aggregator:   cfg.Aggregator,
		custody:      cfg.Custody,
		infos:        cfg.Infos,
		actionLog:    cfg.ActionLog,
		newConnector: cfg.NewConnector,
		authToken:    cfg.AuthToken,
		log:          logger,
	}
}

// Router assembles the REST surface. Reads are unauthenticated; mutations
// require the bearer token.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/dex/venues", s.handleListVenues)
		v1.Get("/dex/prices", s.handleGetPrices)
		v1.Get("/assets/{address}", s.handleAssetInfo)
		v1.Get("/portfolios", s.handleListPortfolios)
		v1.Get("/portfolios/{address}", s.handleGetPortfolio)
		v1.Get("/portfolios/{address}/assets", s.handleAssetAddresses)
		v1.Get("/portfolios/{address}/assets/{asset}", s.handleAssetBalance)
		v1.Get("/portfolios/{address}/actions", s.handlePortfolioActions)
		v1.Get("/custody/{account}/assets/{asset}", s.handleCustodyBalance)

		v1.Group(func(priv chi.Router) {
			priv.Use(bearerAuth(s.authToken))
			priv.Post("/dex/venues", s.handleAddVenue)
			priv.Post("/dex/venues/{address}/enable", s.handleEnableVenue)
			priv.Post("/dex/venues/{address}/disable", s.handleDisableVenue)
			priv.Delete("/dex/venues/{address}", s.handleRemoveVenue)
			priv.Post("/portfolios", s.handleCreatePortfolio)
			priv.Delete("/portfolios/{address}", s.handleDeletePortfolio)
			priv.Post("/portfolios/{address}/assets", s.handleAddAsset)
			priv.Post("/portfolios/{address}/buy", s.handleBuyAssets)
			priv.Post("/portfolios/{address}/withdraw", s.handleWithdrawAssets)
			priv.Post("/custody/approve", s.handleApprove)
			priv.Post("/custody/deposit", s.handleDeposit)
		})
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Asset string `json:"asset,omitempty"`
}

// writeError maps the engine error taxonomy onto HTTP statuses, preserving
// the structured asset argument of balance shortfalls.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var insufficient *portfolio.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		status = http.StatusUnprocessableEntity
		resp.Asset = insufficient.Asset.Hex()
	case errors.Is(err, dex.ErrUnauthorized), errors.Is(err, portfolio.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, portfolio.ErrNotFound), errors.Is(err, dex.ErrConnectorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dex.ErrConnectorFound),
		errors.Is(err, dex.ErrConnectorEnabled),
		errors.Is(err, dex.ErrConnectorDisabled):
		status = http.StatusConflict
	case errors.Is(err, dex.ErrInvalidAddress),
		errors.Is(err, dex.ErrIdenticalTokens),
		errors.Is(err, dex.ErrMissingValue),
		errors.Is(err, dex.ErrValueAmountMismatch),
		errors.Is(err, dex.ErrInvalidSlippage),
		errors.Is(err, portfolio.ErrAmountRequired),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status >= 500 {
		s.log.Error("gateway request failed", "error", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequestf("invalid request body: %v", err)
	}
	return nil
}
