package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/natefinch/lumberjack.v2"

	"mosaica/config"
	"mosaica/core/events"
	"mosaica/core/state"
	"mosaica/gateway"
	"mosaica/native/bank"
	"mosaica/native/dex"
	"mosaica/native/portfolio"
	"mosaica/observability/logging"
	"mosaica/storage"
)

const gatewayTokenEnv = "MOSAICA_GATEWAY_TOKEN"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var logOut io.Writer = os.Stdout
	if strings.TrimSpace(cfg.LogFile) != "" {
		logOut = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}
	logger := logging.Setup("mosaicad", cfg.Environment, logOut)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	custody := bank.NewBook()
	recorder := events.NewRecorder()

	admin := cfg.Admin()
	weth := cfg.WETH()

	amm := dex.NewAMM()
	for i, pool := range cfg.Pools {
		if err := seedPool(amm, pool); err != nil {
			logger.Error("Failed to seed pool", slog.Int("pool", i), slog.Any("error", err))
			os.Exit(1)
		}
	}
	for i, seed := range cfg.Seeds {
		if err := applySeed(custody, seed); err != nil {
			logger.Error("Failed to apply custody seed", slog.Int("seed", i), slog.Any("error", err))
			os.Exit(1)
		}
	}

	venueKinds := make(map[common.Address]string)
	persister := &connectorPersister{manager: manager, kinds: venueKinds, log: logger}
	emitter := events.Fanout{recorder, persister}
	registry := dex.NewRegistry(admin, emitter)
	persister.registry = registry

	provision := func(kind, name string, addr common.Address) (dex.Connector, error) {
		var conn dex.Connector
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "uniswapv2":
			conn = dex.NewUniswapV2Connector(name, admin, addr, amm, weth, emitter)
		case "kyber":
			conn = dex.NewKyberConnector(name, admin, addr, amm, emitter)
		default:
			return nil, fmt.Errorf("unknown venue kind %q", kind)
		}
		venueKinds[addr] = strings.ToLower(strings.TrimSpace(kind))
		return conn, nil
	}

	records, err := manager.ConnectorsGet()
	if err != nil {
		panic(fmt.Sprintf("Failed to load connector records: %v", err))
	}
	if len(records) == 0 {
		for _, cc := range cfg.Connectors {
			records = append(records, state.ConnectorRecord{
				Address: common.HexToAddress(cc.Address),
				Name:    cc.Name,
				Kind:    cc.Kind,
				Enabled: cc.Enabled,
			})
		}
	}
	for _, record := range records {
		conn, err := provision(record.Kind, record.Name, record.Address)
		if err != nil {
			logger.Error("Failed to provision venue", slog.String("address", record.Address.Hex()), slog.Any("error", err))
			os.Exit(1)
		}
		if err := registry.Add(admin, conn); err != nil {
			logger.Error("Failed to register venue", slog.String("address", record.Address.Hex()), slog.Any("error", err))
			os.Exit(1)
		}
		if record.Enabled {
			if toggle, ok := conn.(interface{ Enable(common.Address) error }); ok {
				if err := toggle.Enable(admin); err != nil {
					logger.Error("Failed to enable venue", slog.String("address", record.Address.Hex()), slog.Any("error", err))
					os.Exit(1)
				}
			}
		}
	}

	aggregator := dex.NewPriceAggregator(registry)

	engine := portfolio.NewEngine()
	engine.SetState(manager)
	engine.SetCustody(custody)
	engine.SetRegistry(registry)
	engine.SetEmitter(emitter)

	factory := portfolio.NewFactory(cfg.Factory(), engine)
	factory.SetState(manager)
	factory.SetCustody(custody)
	factory.SetEmitter(emitter)

	infos := portfolio.NewInfoCache(nil)

	server := gateway.NewServer(gateway.Config{
		Engine:       engine,
		Factory:      factory,
		Registry:     registry,
		Aggregator:   aggregator,
		Custody:      custody,
		Infos:        infos,
		ActionLog:    recorder,
		NewConnector: provision,
		AuthToken:    strings.TrimSpace(os.Getenv(gatewayTokenEnv)),
		Logger:       logger,
	})

	logger.Info("Gateway listening", slog.String("address", cfg.ListenAddress))
	if err := http.ListenAndServe(cfg.ListenAddress, server.Router()); err != nil {
		logger.Error("Gateway stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%s is not a decimal amount: %q", field, value)
	}
	return amount, nil
}

func seedPool(amm *dex.AMM, pool config.PoolConfig) error {
	tokenA := common.HexToAddress(pool.TokenA)
	tokenB := common.HexToAddress(pool.TokenB)
	reserveA, err := parseAmount("ReserveA", pool.ReserveA)
	if err != nil {
		return err
	}
	reserveB, err := parseAmount("ReserveB", pool.ReserveB)
	if err != nil {
		return err
	}
	return amm.AddLiquidity(tokenA, tokenB, reserveA, reserveB)
}

func applySeed(custody *bank.Book, seed config.SeedConfig) error {
	amount, err := parseAmount("Amount", seed.Amount)
	if err != nil {
		return err
	}
	return custody.Deposit(common.HexToAddress(seed.Account), common.HexToAddress(seed.Asset), amount)
}

// connectorPersister mirrors registry membership and lifecycle changes into
// durable state so the daemon can rebuild the registry after a restart.
type connectorPersister struct {
	manager  *state.Manager
	registry *dex.Registry
	kinds    map[common.Address]string
	log      *slog.Logger
}

// Emit implements the events.Emitter interface.
func (p *connectorPersister) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	switch evt.EventType() {
	case events.TypeConnectorAdded, events.TypeConnectorRemoved,
		events.TypeConnectorEnabled, events.TypeConnectorDisabled:
	default:
		return
	}
	records := make([]state.ConnectorRecord, 0)
	for _, conn := range p.registry.Connectors() {
		records = append(records, state.ConnectorRecord{
			Address: conn.Address(),
			Name:    conn.DexName(),
			Kind:    p.kinds[conn.Address()],
			Enabled: conn.Enabled(),
		})
	}
	if err := p.manager.ConnectorsPut(records); err != nil {
		p.log.Error("Failed to persist connector records", slog.Any("error", err))
	}
}
