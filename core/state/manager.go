package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"mosaica/native/portfolio"
	"mosaica/storage"
)

const (
	ledgerPrefix  = "portfolio/ledger/"
	ownerPrefix   = "portfolio/owner/"
	noncePrefix   = "portfolio/nonce"
	connectorsKey = "dex/connectors"
)

// Manager persists the authoritative engine state (portfolio ledgers, the
// per-owner portfolio index, the factory nonce and the registry membership)
// into a key-value store. It implements portfolio.FactoryState.
type Manager struct {
	db storage.Database
}

// NewManager binds a manager to a database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedBalance struct {
	Asset  common.Address
	Amount *big.Int
}

type storedLedger struct {
	Address  common.Address
	Owner    common.Address
	Balances []storedBalance
}

func ledgerKey(addr common.Address) []byte {
	return append([]byte(ledgerPrefix), addr.Bytes()...)
}

func ownerKey(owner common.Address) []byte {
	return append([]byte(ownerPrefix), owner.Bytes()...)
}

// PortfolioGet loads a ledger; the second return reports existence.
func (m *Manager) PortfolioGet(addr common.Address) (*portfolio.Ledger, bool, error) {
	raw, err := m.db.Get(ledgerKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedLedger
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode ledger %s: %w", addr.Hex(), err)
	}
	ledger := portfolio.NewLedger(stored.Address, stored.Owner)
	for _, entry := range stored.Balances {
		ledger.Balances[entry.Asset] = new(big.Int).Set(entry.Amount)
		ledger.AssetIndex = append(ledger.AssetIndex, entry.Asset)
	}
	return ledger, true, nil
}

// PortfolioPut stores a ledger. Balances are serialised in asset-index
// order so the first-added enumeration survives restarts.
func (m *Manager) PortfolioPut(ledger *portfolio.Ledger) error {
	if ledger == nil {
		return fmt.Errorf("state: nil ledger")
	}
	stored := storedLedger{Address: ledger.Address, Owner: ledger.Owner}
	for _, asset := range ledger.AssetIndex {
		amount := ledger.BalanceOf(asset)
		stored.Balances = append(stored.Balances, storedBalance{Asset: asset, Amount: amount})
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode ledger %s: %w", ledger.Address.Hex(), err)
	}
	return m.db.Put(ledgerKey(ledger.Address), raw)
}

// PortfolioDelete removes a ledger record.
func (m *Manager) PortfolioDelete(addr common.Address) error {
	return m.db.Delete(ledgerKey(addr))
}

// PortfolioIndexGet lists an owner's portfolio handles in creation order.
func (m *Manager) PortfolioIndexGet(owner common.Address) ([]common.Address, error) {
	raw, err := m.db.Get(ownerKey(owner))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var handles []common.Address
	if err := rlp.DecodeBytes(raw, &handles); err != nil {
		return nil, fmt.Errorf("state: decode portfolio index %s: %w", owner.Hex(), err)
	}
	return handles, nil
}

// PortfolioIndexPut replaces an owner's portfolio index.
func (m *Manager) PortfolioIndexPut(owner common.Address, handles []common.Address) error {
	raw, err := rlp.EncodeToBytes(handles)
	if err != nil {
		return fmt.Errorf("state: encode portfolio index %s: %w", owner.Hex(), err)
	}
	return m.db.Put(ownerKey(owner), raw)
}

// PortfolioNonce returns the next handle-derivation nonce.
func (m *Manager) PortfolioNonce() (uint64, error) {
	raw, err := m.db.Get([]byte(noncePrefix))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var nonce uint64
	if err := rlp.DecodeBytes(raw, &nonce); err != nil {
		return 0, fmt.Errorf("state: decode portfolio nonce: %w", err)
	}
	return nonce, nil
}

// SetPortfolioNonce stores the next handle-derivation nonce.
func (m *Manager) SetPortfolioNonce(nonce uint64) error {
	raw, err := rlp.EncodeToBytes(nonce)
	if err != nil {
		return fmt.Errorf("state: encode portfolio nonce: %w", err)
	}
	return m.db.Put([]byte(noncePrefix), raw)
}

// ConnectorRecord is the durable descriptor of one registered venue. Kind
// names the adapter family so the daemon can re-provision the connector after
// a restart.
type ConnectorRecord struct {
	Address common.Address
	Name    string
	Kind    string
	Enabled bool
}

// ConnectorsGet returns the persisted registry membership in registration
// order.
func (m *Manager) ConnectorsGet() ([]ConnectorRecord, error) {
	raw, err := m.db.Get([]byte(connectorsKey))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []ConnectorRecord
	if err := rlp.DecodeBytes(raw, &records); err != nil {
		return nil, fmt.Errorf("state: decode connector set: %w", err)
	}
	return records, nil
}

// ConnectorsPut replaces the persisted registry membership.
func (m *Manager) ConnectorsPut(records []ConnectorRecord) error {
	raw, err := rlp.EncodeToBytes(records)
	if err != nil {
		return fmt.Errorf("state: encode connector set: %w", err)
	}
	return m.db.Put([]byte(connectorsKey), raw)
}
