package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/40acres/cashu-lnd/channels"
	"github.com/40acres/cashu-lnd/money"
	"github.com/40acres/cashu-lnd/payments"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", payments.ErrValidation, fmt.Sprintf(format, args...))
}

// ManagementServer implements the management service on top of the channel
// manager and the payment components. It keeps no state of its own.
type ManagementServer struct {
	channels   *channels.Manager
	dispatcher *payments.Dispatcher
	issuer     *payments.Issuer
}

func NewManagementServer(manager *channels.Manager, dispatcher *payments.Dispatcher, issuer *payments.Issuer) *ManagementServer {
	return &ManagementServer{
		channels:   manager,
		dispatcher: dispatcher,
		issuer:     issuer,
	}
}

func (s *ManagementServer) GetInfo(ctx context.Context, _ *GetInfoRequest) (*GetInfoResponse, error) {
	info, err := s.channels.Info(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &GetInfoResponse{
		NodeID:                info.NodeID,
		Alias:                 info.Alias,
		NumPeers:              info.NumPeers,
		NumConnectedPeers:     info.NumConnectedPeers,
		NumActiveChannels:     info.NumActiveChannels,
		NumInactiveChannels:   info.NumInactiveChannels,
		AnnouncementAddresses: emptyIfNil(info.AnnouncementAddresses),
		ListeningAddresses:    emptyIfNil(info.ListeningAddresses),
	}, nil
}

func (s *ManagementServer) GetNewAddress(ctx context.Context, _ *GetNewAddressRequest) (*GetNewAddressResponse, error) {
	address, err := s.channels.NewAddress(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &GetNewAddressResponse{Address: address}, nil
}

func (s *ManagementServer) OpenChannel(ctx context.Context, req *OpenChannelRequest) (*OpenChannelResponse, error) {
	log.WithContext(ctx).WithFields(log.Fields{
		"node_id": req.NodeID,
		"amount":  req.AmountMsats,
	}).Info("Received OpenChannel request")

	switch {
	case strings.TrimSpace(req.NodeID) == "":
		return nil, toStatus(ctx, invalidRequest("node_id is required"))
	case strings.TrimSpace(req.Address) == "":
		return nil, toStatus(ctx, invalidRequest("address is required"))
	case req.AmountMsats == 0:
		return nil, toStatus(ctx, invalidRequest("amount_msats must be greater than 0"))
	}

	channelID, err := s.channels.OpenChannel(ctx, channels.OpenParams{
		NodeID:     req.NodeID,
		Address:    strings.TrimSpace(req.Address),
		Port:       req.Port,
		AmountMsat: lnwire.MilliSatoshi(req.AmountMsats),
		PushMsat:   optionalMsat(req.PushToCounterPartyMsats),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &OpenChannelResponse{ChannelID: channelID}, nil
}

func (s *ManagementServer) CloseChannel(ctx context.Context, req *CloseChannelRequest) (*CloseChannelResponse, error) {
	log.WithContext(ctx).WithField("channel_id", req.ChannelID).Info("Received CloseChannel request")

	if strings.TrimSpace(req.ChannelID) == "" {
		return nil, toStatus(ctx, invalidRequest("channel_id is required"))
	}
	if strings.TrimSpace(req.NodePubkey) == "" {
		return nil, toStatus(ctx, invalidRequest("node_pubkey is required"))
	}

	if err := s.channels.CloseChannel(ctx, req.ChannelID, req.NodePubkey); err != nil {
		return nil, toStatus(ctx, err)
	}

	return &CloseChannelResponse{}, nil
}

func (s *ManagementServer) ListBalance(ctx context.Context, _ *ListBalanceRequest) (*ListBalanceResponse, error) {
	balance, err := s.channels.ListBalance(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toBalanceResponse(balance), nil
}

func (s *ManagementServer) ListChannels(ctx context.Context, _ *ListChannelsRequest) (*ListChannelsResponse, error) {
	list, err := s.channels.ListChannels(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	resp := &ListChannelsResponse{Channels: make([]ChannelInfo, 0, len(list))}
	for _, c := range list {
		resp.Channels = append(resp.Channels, toChannelInfo(c))
	}

	return resp, nil
}

func (s *ManagementServer) SendOnchain(ctx context.Context, req *SendOnchainRequest) (*SendOnchainResponse, error) {
	log.WithContext(ctx).WithField("amount", req.AmountSat).Info("Received SendOnchain request")

	if req.AmountSat == 0 {
		return nil, toStatus(ctx, invalidRequest("amount_sat must be greater than 0"))
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, toStatus(ctx, invalidRequest("address is required"))
	}

	txid, err := s.channels.SendOnchain(ctx, money.Money(req.AmountSat), req.Address)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &SendOnchainResponse{Txid: txid}, nil
}

func (s *ManagementServer) PayBolt11Invoice(ctx context.Context, req *PayBolt11InvoiceRequest) (*PaymentResponse, error) {
	if strings.TrimSpace(req.Invoice) == "" {
		return nil, toStatus(ctx, invalidRequest("invoice is required"))
	}

	outcome, err := s.dispatcher.PayInvoice(ctx, payments.InvoicePayment{
		Invoice:    req.Invoice,
		AmountMsat: optionalMsat(req.AmountMsats),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toPaymentResponse(outcome), nil
}

func (s *ManagementServer) PayBolt12Offer(ctx context.Context, req *PayBolt12OfferRequest) (*PaymentResponse, error) {
	if strings.TrimSpace(req.Offer) == "" {
		return nil, toStatus(ctx, invalidRequest("offer is required"))
	}

	outcome, err := s.dispatcher.PayOffer(ctx, payments.OfferPayment{
		Offer:      req.Offer,
		AmountMsat: optionalMsat(req.AmountMsats),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toPaymentResponse(outcome), nil
}

func (s *ManagementServer) CreateBolt11Invoice(ctx context.Context, req *CreateBolt11InvoiceRequest) (*CreateBolt11InvoiceResponse, error) {
	if req.AmountMsats == 0 {
		return nil, toStatus(ctx, invalidRequest("amount_msats must be greater than 0"))
	}

	invoice, err := s.issuer.CreateInvoice(ctx, payments.InvoiceParams{
		AmountMsat:    lnwire.MilliSatoshi(req.AmountMsats),
		Description:   req.Description,
		ExpirySeconds: req.ExpirySeconds,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &CreateBolt11InvoiceResponse{
		PaymentHash: invoice.PaymentHash.String(),
		Invoice:     invoice.PaymentRequest,
		ExpiryTime:  unixSeconds(invoice.ExpiresAt),
	}, nil
}

func (s *ManagementServer) CreateBolt12Offer(ctx context.Context, req *CreateBolt12OfferRequest) (*CreateBolt12OfferResponse, error) {
	offer, err := s.issuer.CreateOffer(ctx, payments.OfferParams{
		AmountMsat:    optionalMsat(req.AmountMsats),
		Description:   req.Description,
		ExpirySeconds: req.ExpirySeconds,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &CreateBolt12OfferResponse{
		OfferID:    offer.OfferID,
		Offer:      offer.Offer,
		ExpiryTime: unixSeconds(offer.ExpiresAt),
	}, nil
}
