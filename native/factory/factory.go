package factory

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"dsponsor/core/events"
	"dsponsor/native/nft"
	"dsponsor/native/splitter"
	"dsponsor/native/sponsor"
)

var (
	// ErrProtocolFeeAddressZero rejects a zero protocol fee recipient.
	ErrProtocolFeeAddressZero = errors.New("factory: protocol fee address is the zero address")
	// ErrProtocolFeeTooHigh rejects a protocol fee above 100 percent.
	ErrProtocolFeeTooHigh = errors.New("factory: protocol fee exceeds 100 percent")
	// ErrUnknownCampaign signals a lookup for a campaign id never issued.
	ErrUnknownCampaign = errors.New("factory: unknown campaign")
)

// Factory deploys sponsorship campaigns: a mint gateway with its treasury
// splitter, a sponsorship data store, or both bound together. Module
// accounts for the deployed pieces are derived from the factory's own
// address and a deployment nonce, so addresses are deterministic and never
// collide.
type Factory struct {
	mu sync.Mutex

	addr   common.Address
	ledger Ledger

	protocolFeeAddr    common.Address
	protocolFeePercent uint32

	nonce     uint64
	campaigns []*Campaign

	emitter events.Emitter
}

// NewFactory creates a factory. protocolFeeAddr receives protocolFeePercent
// of every campaign's proceeds through the treasury splitter; the percent
// must not exceed 100.
func NewFactory(addr common.Address, ledger Ledger, protocolFeeAddr common.Address, protocolFeePercent uint32) (*Factory, error) {
	if protocolFeeAddr == (common.Address{}) {
		return nil, ErrProtocolFeeAddressZero
	}
	if protocolFeePercent > 100 {
		return nil, ErrProtocolFeeTooHigh
	}
	return &Factory{
		addr:               addr,
		ledger:             ledger,
		protocolFeeAddr:    protocolFeeAddr,
		protocolFeePercent: protocolFeePercent,
		emitter:            events.NoopEmitter{},
	}, nil
}

// SetEmitter configures the event emitter for the factory and every campaign
// module it deploys afterwards. Passing nil resets it to a no-op.
func (f *Factory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitter = emitter
}

// ProtocolFeeAddress returns the protocol's share recipient.
func (f *Factory) ProtocolFeeAddress() common.Address { return f.protocolFeeAddr }

// ProtocolFeePercent returns the protocol's percentage share of proceeds.
func (f *Factory) ProtocolFeePercent() uint32 { return f.protocolFeePercent }

func (f *Factory) nextAddr() common.Address {
	derived := ethcrypto.CreateAddress(f.addr, f.nonce)
	f.nonce++
	return derived
}

func bigShares(values []int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

// treasuryFor builds the proceeds splitter for a campaign controller: the
// controller takes the complement of the protocol fee. A zero or total fee
// collapses the payee set to a single account.
func (f *Factory) treasuryFor(controller common.Address) (*splitter.Splitter, common.Address, error) {
	treasuryAddr := f.nextAddr()
	var (
		payees []common.Address
		shares []int64
	)
	if f.protocolFeePercent < 100 {
		payees = append(payees, controller)
		shares = append(shares, int64(100-f.protocolFeePercent))
	}
	if f.protocolFeePercent > 0 {
		payees = append(payees, f.protocolFeeAddr)
		shares = append(shares, int64(f.protocolFeePercent))
	}
	treasury, err := splitter.NewSplitter(treasuryAddr, f.ledger, payees, bigShares(shares))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("factory: deploy treasury: %w", err)
	}
	treasury.SetEmitter(f.emitter)
	return treasury, treasuryAddr, nil
}

// CreateNFT deploys a mint gateway plus its treasury splitter and registers
// the campaign.
func (f *Factory) CreateNFT(params NFTParams) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createNFTLocked(params)
}

func (f *Factory) createNFTLocked(params NFTParams) (*Campaign, error) {
	treasury, treasuryAddr, err := f.treasuryFor(params.Controller)
	if err != nil {
		return nil, err
	}
	gatewayAddr := f.nextAddr()
	gateway, err := nft.NewEngine(params.Name, params.Symbol, params.MaxSupply, params.Controller, treasuryAddr, gatewayAddr, f.ledger)
	if err != nil {
		return nil, fmt.Errorf("factory: deploy gateway: %w", err)
	}
	gateway.SetEmitter(f.emitter)
	if err := f.applyNFTParams(gateway, params); err != nil {
		return nil, err
	}

	campaign := &Campaign{
		ID:             uint64(len(f.campaigns)),
		Controller:     params.Controller,
		Gateway:        gateway,
		GatewayAddr:    gatewayAddr,
		Treasury:       treasury,
		TreasuryAddr:   treasuryAddr,
		CollectionAddr: gatewayAddr,
	}
	f.campaigns = append(f.campaigns, campaign)
	f.emitter.Emit(events.NFTCampaignCreated{
		Gateway:    gatewayAddr,
		Controller: params.Controller,
		Treasury:   treasuryAddr,
	})
	return campaign, nil
}

func (f *Factory) applyNFTParams(gateway *nft.Engine, params NFTParams) error {
	controller := params.Controller
	for _, price := range params.Prices {
		if err := gateway.SetPrice(controller, price.Currency, price.Enabled, price.Amount); err != nil {
			return fmt.Errorf("factory: initial price: %w", err)
		}
	}
	if params.BaseURI != "" {
		if err := gateway.SetBaseURI(controller, params.BaseURI); err != nil {
			return err
		}
	}
	if params.ContractURI != "" {
		if err := gateway.SetContractURI(controller, params.ContractURI); err != nil {
			return err
		}
	}
	if params.RoyaltyBps > 0 {
		if err := gateway.SetRoyalty(controller, params.RoyaltyBps); err != nil {
			return fmt.Errorf("factory: initial royalty: %w", err)
		}
	}
	return nil
}

// CreateFromCollection deploys a sponsorship data store over an existing slot
// collection and registers the campaign.
func (f *Factory) CreateFromCollection(collection sponsor.Collection, collectionAddr common.Address, rulesURI string, sponsee common.Address) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dataStore, err := sponsor.NewEngine(collection, rulesURI, sponsee)
	if err != nil {
		return nil, err
	}
	dataStore.SetEmitter(f.emitter)
	dataStoreAddr := f.nextAddr()

	campaign := &Campaign{
		ID:             uint64(len(f.campaigns)),
		Sponsee:        sponsee,
		RulesURI:       rulesURI,
		DataStore:      dataStore,
		DataStoreAddr:  dataStoreAddr,
		CollectionAddr: collectionAddr,
	}
	f.campaigns = append(f.campaigns, campaign)
	f.emitter.Emit(events.SponsorCampaignCreated{
		DataStore:  dataStoreAddr,
		Collection: collectionAddr,
		Sponsee:    sponsee,
		RulesURI:   rulesURI,
	})
	return campaign, nil
}

// CreateWithNFT deploys a full campaign in one shot: mint gateway, treasury
// splitter and a sponsorship data store bound to the fresh collection.
func (f *Factory) CreateWithNFT(params NFTParams, rulesURI string, sponsee common.Address) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	campaign, err := f.createNFTLocked(params)
	if err != nil {
		return nil, err
	}
	dataStore, err := sponsor.NewEngine(campaign.Gateway, rulesURI, sponsee)
	if err != nil {
		// The half-built campaign must not stay registered.
		f.campaigns = f.campaigns[:len(f.campaigns)-1]
		return nil, err
	}
	dataStore.SetEmitter(f.emitter)
	campaign.Sponsee = sponsee
	campaign.RulesURI = rulesURI
	campaign.DataStore = dataStore
	campaign.DataStoreAddr = f.nextAddr()
	f.emitter.Emit(events.SponsorCampaignCreated{
		DataStore:  campaign.DataStoreAddr,
		Collection: campaign.GatewayAddr,
		Sponsee:    sponsee,
		RulesURI:   rulesURI,
	})
	return campaign, nil
}

// Campaigns returns every registered campaign in deployment order.
func (f *Factory) Campaigns() []*Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Campaign, len(f.campaigns))
	copy(out, f.campaigns)
	return out
}

// Campaign returns the campaign with the given id.
func (f *Factory) Campaign(id uint64) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id >= uint64(len(f.campaigns)) {
		return nil, ErrUnknownCampaign
	}
	return f.campaigns[id], nil
}
