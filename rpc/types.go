package rpc

type GetInfoRequest struct{}

type GetInfoResponse struct {
	NodeID                string   `json:"node_id"`
	Alias                 string   `json:"alias"`
	NumPeers              uint64   `json:"num_peers"`
	NumConnectedPeers     uint64   `json:"num_connected_peers"`
	NumActiveChannels     uint64   `json:"num_active_channels"`
	NumInactiveChannels   uint64   `json:"num_inactive_channels"`
	AnnouncementAddresses []string `json:"announcement_addresses"`
	ListeningAddresses    []string `json:"listening_addresses"`
}

type GetNewAddressRequest struct{}

type GetNewAddressResponse struct {
	Address string `json:"address"`
}

type OpenChannelRequest struct {
	NodeID                  string  `json:"node_id"`
	Address                 string  `json:"address"`
	Port                    uint32  `json:"port"`
	AmountMsats             uint64  `json:"amount_msats"`
	PushToCounterPartyMsats *uint64 `json:"push_to_counter_party_msats,omitempty"`
}

type OpenChannelResponse struct {
	ChannelID string `json:"channel_id"`
}

type CloseChannelRequest struct {
	ChannelID  string `json:"channel_id"`
	NodePubkey string `json:"node_pubkey"`
}

type CloseChannelResponse struct{}

type ListBalanceRequest struct{}

type ListBalanceResponse struct {
	TotalOnchainBalanceSats     uint64 `json:"total_onchain_balance_sats"`
	SpendableOnchainBalanceSats uint64 `json:"spendable_onchain_balance_sats"`
	TotalLightningBalanceSats   uint64 `json:"total_lightning_balance_sats"`
}

type ListChannelsRequest struct{}

type ListChannelsResponse struct {
	Channels []ChannelInfo `json:"channels"`
}

type ChannelInfo struct {
	ChannelID            string  `json:"channel_id"`
	CounterpartyNodeID   string  `json:"counterparty_node_id"`
	BalanceMsat          uint64  `json:"balance_msat"`
	OutboundCapacityMsat uint64  `json:"outbound_capacity_msat"`
	InboundCapacityMsat  uint64  `json:"inbound_capacity_msat"`
	IsUsable             bool    `json:"is_usable"`
	IsPublic             bool    `json:"is_public"`
	ShortChannelID       *uint64 `json:"short_channel_id,omitempty"`
}

type SendOnchainRequest struct {
	AmountSat uint64 `json:"amount_sat"`
	Address   string `json:"address"`
}

type SendOnchainResponse struct {
	Txid string `json:"txid"`
}

type PayBolt11InvoiceRequest struct {
	Invoice     string  `json:"invoice"`
	AmountMsats *uint64 `json:"amount_msats,omitempty"`
}

type PayBolt12OfferRequest struct {
	Offer       string  `json:"offer"`
	AmountMsats *uint64 `json:"amount_msats,omitempty"`
}

// PaymentResponse carries node reported payment failures with Success false;
// they are not RPC errors.
type PaymentResponse struct {
	PaymentHash     string  `json:"payment_hash"`
	PaymentPreimage string  `json:"payment_preimage"`
	FeeMsats        uint64  `json:"fee_msats"`
	Success         bool    `json:"success"`
	FailureReason   *string `json:"failure_reason,omitempty"`
}

type CreateBolt11InvoiceRequest struct {
	AmountMsats   uint64  `json:"amount_msats"`
	Description   string  `json:"description"`
	ExpirySeconds *uint64 `json:"expiry_seconds,omitempty"`
}

type CreateBolt11InvoiceResponse struct {
	PaymentHash string `json:"payment_hash"`
	Invoice     string `json:"invoice"`
	// ExpiryTime is a unix timestamp in seconds.
	ExpiryTime uint64 `json:"expiry_time"`
}

type CreateBolt12OfferRequest struct {
	AmountMsats   *uint64 `json:"amount_msats,omitempty"`
	Description   string  `json:"description"`
	ExpirySeconds *uint64 `json:"expiry_seconds,omitempty"`
}

type CreateBolt12OfferResponse struct {
	OfferID    string `json:"offer_id"`
	Offer      string `json:"offer"`
	ExpiryTime uint64 `json:"expiry_time"`
}

// Payment processor messages.

const (
	UnitSat  = "sat"
	UnitMsat = "msat"

	RequestTypeBolt11 = "bolt11"
	RequestTypeBolt12 = "bolt12"
)

type QuoteState string

const (
	QuoteUnpaid  QuoteState = "UNPAID"
	QuotePaid    QuoteState = "PAID"
	QuotePending QuoteState = "PENDING"
	QuoteFailed  QuoteState = "FAILED"
	QuoteUnknown QuoteState = "UNKNOWN"
)

type EmptyRequest struct{}

type SettingsResponse struct {
	// Inner is the settings document as JSON text.
	Inner string `json:"inner"`
}

type Settings struct {
	MPP                bool   `json:"mpp"`
	Unit               string `json:"unit"`
	InvoiceDescription bool   `json:"invoice_description"`
	Amountless         bool   `json:"amountless"`
	Bolt12             bool   `json:"bolt12"`
}

type CreatePaymentRequest struct {
	Unit    string                 `json:"unit"`
	Options IncomingPaymentOptions `json:"options"`
}

// IncomingPaymentOptions holds exactly one of its fields.
type IncomingPaymentOptions struct {
	Bolt11 *Bolt11IncomingOptions `json:"bolt11,omitempty"`
	Bolt12 *Bolt12IncomingOptions `json:"bolt12,omitempty"`
}

type Bolt11IncomingOptions struct {
	Description string  `json:"description"`
	Amount      uint64  `json:"amount"`
	UnixExpiry  *uint64 `json:"unix_expiry,omitempty"`
}

type Bolt12IncomingOptions struct {
	Description string  `json:"description"`
	Amount      *uint64 `json:"amount,omitempty"`
	UnixExpiry  *uint64 `json:"unix_expiry,omitempty"`
}

type CreatePaymentResponse struct {
	RequestLookupID string `json:"request_lookup_id"`
	Request         string `json:"request"`
	Expiry          uint64 `json:"expiry"`
}

type PaymentQuoteRequest struct {
	Request     string       `json:"request"`
	Unit        string       `json:"unit"`
	RequestType string       `json:"request_type"`
	Options     *MeltOptions `json:"options,omitempty"`
}

type MeltOptions struct {
	AmountMsat *uint64 `json:"amount_msat,omitempty"`
}

type PaymentQuoteResponse struct {
	RequestLookupID string     `json:"request_lookup_id"`
	Amount          uint64     `json:"amount"`
	Fee             uint64     `json:"fee"`
	State           QuoteState `json:"state"`
	Unit            string     `json:"unit"`
}

type MakePaymentRequest struct {
	// Unit applies to MaxFeeAmount, sat when empty.
	Unit           string                 `json:"unit,omitempty"`
	PaymentOptions OutgoingPaymentOptions `json:"payment_options"`
}

// OutgoingPaymentOptions holds exactly one of its fields.
type OutgoingPaymentOptions struct {
	Bolt11 *Bolt11OutgoingOptions `json:"bolt11,omitempty"`
	Bolt12 *Bolt12OutgoingOptions `json:"bolt12,omitempty"`
}

type Bolt11OutgoingOptions struct {
	Bolt11         string  `json:"bolt11"`
	MaxFeeAmount   *uint64 `json:"max_fee_amount,omitempty"`
	MeltAmountMsat *uint64 `json:"melt_amount_msat,omitempty"`
}

type Bolt12OutgoingOptions struct {
	Offer          string  `json:"offer"`
	MaxFeeAmount   *uint64 `json:"max_fee_amount,omitempty"`
	MeltAmountMsat *uint64 `json:"melt_amount_msat,omitempty"`
}

type MakePaymentResponse struct {
	PaymentLookupID string     `json:"payment_lookup_id"`
	PaymentProof    *string    `json:"payment_proof,omitempty"`
	Status          QuoteState `json:"status"`
	TotalSpent      uint64     `json:"total_spent"`
	Unit            string     `json:"unit"`
}

type CheckIncomingPaymentRequest struct {
	RequestIdentifier string `json:"request_identifier"`
}

type CheckIncomingPaymentResponse struct {
	Payments []WaitIncomingPaymentResponse `json:"payments"`
}

type CheckOutgoingPaymentRequest struct {
	RequestIdentifier string `json:"request_identifier"`
}

type WaitIncomingPaymentResponse struct {
	PaymentIdentifier string `json:"payment_identifier"`
	PaymentAmount     uint64 `json:"payment_amount"`
	Unit              string `json:"unit"`
	PaymentID         string `json:"payment_id"`
}
