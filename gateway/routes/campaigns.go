package routes

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"dsponsor/native/factory"
	"dsponsor/native/nft"
)

type campaignSummary struct {
	ID         uint64 `json:"id"`
	Controller string `json:"controller,omitempty"`
	Sponsee    string `json:"sponsee,omitempty"`
	RulesURI   string `json:"rulesUri,omitempty"`
	Gateway    string `json:"gateway,omitempty"`
	Treasury   string `json:"treasury,omitempty"`
	DataStore  string `json:"dataStore,omitempty"`
	Collection string `json:"collection,omitempty"`
}

type campaignDetail struct {
	campaignSummary
	Name        string `json:"name,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	MaxSupply   uint64 `json:"maxSupply,omitempty"`
	TotalSupply uint64 `json:"totalSupply"`
	ContractURI string `json:"contractUri,omitempty"`
}

type priceResponse struct {
	Currency string `json:"currency"`
	Enabled  bool   `json:"enabled"`
	Amount   string `json:"amount"`
}

type slotResponse struct {
	SlotID uint64 `json:"slotId"`
	Owner  string `json:"owner"`
	URI    string `json:"uri,omitempty"`
}

type sponsoDataResponse struct {
	SlotID        uint64 `json:"slotId"`
	Property      string `json:"property"`
	Allowed       bool   `json:"allowed"`
	LastValidated string `json:"lastValidated"`
	Pending       string `json:"pending"`
	RejectReason  string `json:"rejectReason"`
}

type royaltyResponse struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

type treasuryResponse struct {
	Account    string `json:"account"`
	Token      string `json:"token,omitempty"`
	Shares     string `json:"shares"`
	Released   string `json:"released"`
	Releasable string `json:"releasable"`
}

type campaignRoutes struct {
	factory *factory.Factory
}

func (cr *campaignRoutes) mount(r chi.Router) {
	r.Get("/campaigns", cr.listCampaigns)
	r.Route("/campaigns/{campaignID}", func(sr chi.Router) {
		sr.Get("/", cr.getCampaign)
		sr.Get("/prices/{currency}", cr.getPrice)
		sr.Get("/slots/{slotID}", cr.getSlot)
		sr.Get("/sponso/{slotID}/{property}", cr.getSponsoData)
		sr.Get("/royalty", cr.getRoyalty)
		sr.Get("/treasury/{account}", cr.getTreasury)
	})
}

func summarize(c *factory.Campaign) campaignSummary {
	s := campaignSummary{ID: c.ID, RulesURI: c.RulesURI}
	if c.Controller != (common.Address{}) {
		s.Controller = c.Controller.Hex()
	}
	if c.Sponsee != (common.Address{}) {
		s.Sponsee = c.Sponsee.Hex()
	}
	if c.Gateway != nil {
		s.Gateway = c.GatewayAddr.Hex()
	}
	if c.Treasury != nil {
		s.Treasury = c.TreasuryAddr.Hex()
	}
	if c.DataStore != nil {
		s.DataStore = c.DataStoreAddr.Hex()
	}
	if c.CollectionAddr != (common.Address{}) {
		s.Collection = c.CollectionAddr.Hex()
	}
	return s
}

func (cr *campaignRoutes) listCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns := cr.factory.Campaigns()
	out := make([]campaignSummary, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, summarize(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (cr *campaignRoutes) campaign(w http.ResponseWriter, r *http.Request) (*factory.Campaign, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "campaignID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return nil, false
	}
	campaign, err := cr.factory.Campaign(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown campaign")
		return nil, false
	}
	return campaign, true
}

func (cr *campaignRoutes) gatewayFor(w http.ResponseWriter, r *http.Request) (*factory.Campaign, *nft.Engine, bool) {
	campaign, ok := cr.campaign(w, r)
	if !ok {
		return nil, nil, false
	}
	if campaign.Gateway == nil {
		writeError(w, http.StatusNotFound, "campaign has no mint gateway")
		return nil, nil, false
	}
	return campaign, campaign.Gateway, true
}

func (cr *campaignRoutes) getCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, ok := cr.campaign(w, r)
	if !ok {
		return
	}
	detail := campaignDetail{campaignSummary: summarize(campaign)}
	if campaign.Gateway != nil {
		detail.Name = campaign.Gateway.Name()
		detail.Symbol = campaign.Gateway.Symbol()
		detail.MaxSupply = campaign.Gateway.MaxSupply()
		detail.TotalSupply = campaign.Gateway.TotalSupply()
		detail.ContractURI = campaign.Gateway.ContractURI()
	}
	writeJSON(w, http.StatusOK, detail)
}

func (cr *campaignRoutes) getPrice(w http.ResponseWriter, r *http.Request) {
	_, gateway, ok := cr.gatewayFor(w, r)
	if !ok {
		return
	}
	raw := chi.URLParam(r, "currency")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid currency address")
		return
	}
	currency := common.HexToAddress(raw)
	enabled, amount := gateway.MintPrice(currency)
	writeJSON(w, http.StatusOK, priceResponse{
		Currency: currency.Hex(),
		Enabled:  enabled,
		Amount:   amount.String(),
	})
}

func (cr *campaignRoutes) getSlot(w http.ResponseWriter, r *http.Request) {
	_, gateway, ok := cr.gatewayFor(w, r)
	if !ok {
		return
	}
	slotID, err := strconv.ParseUint(chi.URLParam(r, "slotID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	owner, err := gateway.OwnerOf(slotID)
	if err != nil {
		writeError(w, http.StatusNotFound, "slot not minted")
		return
	}
	uri, err := gateway.TokenURI(slotID)
	if err != nil {
		uri = ""
	}
	writeJSON(w, http.StatusOK, slotResponse{SlotID: slotID, Owner: owner.Hex(), URI: uri})
}

func (cr *campaignRoutes) getSponsoData(w http.ResponseWriter, r *http.Request) {
	campaign, ok := cr.campaign(w, r)
	if !ok {
		return
	}
	if campaign.DataStore == nil {
		writeError(w, http.StatusNotFound, "campaign has no sponsorship data store")
		return
	}
	slotID, err := strconv.ParseUint(chi.URLParam(r, "slotID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	property := chi.URLParam(r, "property")
	last, pending, reason := campaign.DataStore.GetSponsoData(slotID, property)
	writeJSON(w, http.StatusOK, sponsoDataResponse{
		SlotID:        slotID,
		Property:      property,
		Allowed:       campaign.DataStore.IsAllowedProperty(property),
		LastValidated: last,
		Pending:       pending,
		RejectReason:  reason,
	})
}

func (cr *campaignRoutes) getRoyalty(w http.ResponseWriter, r *http.Request) {
	_, gateway, ok := cr.gatewayFor(w, r)
	if !ok {
		return
	}
	salePrice := big.NewInt(0)
	if raw := r.URL.Query().Get("salePrice"); raw != "" {
		parsed, valid := new(big.Int).SetString(raw, 10)
		if !valid || parsed.Sign() < 0 {
			writeError(w, http.StatusBadRequest, "invalid sale price")
			return
		}
		salePrice = parsed
	}
	receiver, amount := gateway.RoyaltyInfo(0, salePrice)
	writeJSON(w, http.StatusOK, royaltyResponse{Receiver: receiver.Hex(), Amount: amount.String()})
}

func (cr *campaignRoutes) getTreasury(w http.ResponseWriter, r *http.Request) {
	campaign, ok := cr.campaign(w, r)
	if !ok {
		return
	}
	if campaign.Treasury == nil {
		writeError(w, http.StatusNotFound, "campaign has no treasury")
		return
	}
	raw := chi.URLParam(r, "account")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}
	account := common.HexToAddress(raw)
	resp := treasuryResponse{
		Account: account.Hex(),
		Shares:  campaign.Treasury.Shares(account).String(),
	}
	if rawToken := r.URL.Query().Get("token"); rawToken != "" {
		if !common.IsHexAddress(rawToken) {
			writeError(w, http.StatusBadRequest, "invalid token address")
			return
		}
		token := common.HexToAddress(rawToken)
		resp.Token = token.Hex()
		resp.Released = campaign.Treasury.TokenReleased(token, account).String()
		resp.Releasable = campaign.Treasury.ReleasableToken(token, account).String()
	} else {
		resp.Released = campaign.Treasury.Released(account).String()
		resp.Releasable = campaign.Treasury.Releasable(account).String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
