package events

import (
	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/types"
)

const (
	TypeNFTCampaignCreated     = "factory.nft_created"
	TypeSponsorCampaignCreated = "factory.sponsor_created"
)

// NFTCampaignCreated mirrors NewDSponsorNFT: the factory deployed a mint
// gateway together with its treasury splitter.
type NFTCampaignCreated struct {
	Gateway    common.Address
	Controller common.Address
	Treasury   common.Address
}

func (NFTCampaignCreated) EventType() string { return TypeNFTCampaignCreated }

func (e NFTCampaignCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTCampaignCreated,
		Attributes: map[string]string{
			"gateway":    e.Gateway.Hex(),
			"controller": e.Controller.Hex(),
			"treasury":   e.Treasury.Hex(),
		},
	}
}

// SponsorCampaignCreated mirrors NewDSponsor: the factory deployed a
// sponsorship data store bound to a slot collection.
type SponsorCampaignCreated struct {
	DataStore  common.Address
	Collection common.Address
	Sponsee    common.Address
	RulesURI   string
}

func (SponsorCampaignCreated) EventType() string { return TypeSponsorCampaignCreated }

func (e SponsorCampaignCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeSponsorCampaignCreated,
		Attributes: map[string]string{
			"dataStore":  e.DataStore.Hex(),
			"collection": e.Collection.Hex(),
			"sponsee":    e.Sponsee.Hex(),
			"rulesURI":   e.RulesURI,
		},
	}
}
