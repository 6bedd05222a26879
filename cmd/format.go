package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/40acres/cashu-lnd/money"
	"github.com/40acres/cashu-lnd/rpc"
	"github.com/lightningnetwork/lnd/lnwire"
)

func formatSats(sats uint64) string {
	return fmt.Sprintf("%d sats (%s BTC)", sats, money.Money(sats).ToBtc().StringFixed(8))
}

func formatExpiry(unix uint64) string {
	return time.Unix(int64(unix), 0).UTC().Format(time.RFC3339) // nolint:gosec
}

func formatNodeInfo(info *rpc.GetInfoResponse) string {
	var b strings.Builder

	b.WriteString("Node Information:\n")
	b.WriteString("----------------\n")
	fmt.Fprintf(&b, "Node ID: %s\n", info.NodeID)
	fmt.Fprintf(&b, "Alias: %s\n", info.Alias)
	fmt.Fprintf(&b, "Listening Addresses: %s\n", strings.Join(info.ListeningAddresses, ", "))
	fmt.Fprintf(&b, "Announcement Addresses: %s\n", strings.Join(info.AnnouncementAddresses, ", "))
	fmt.Fprintf(&b, "Connected peer count: %d\n", info.NumConnectedPeers)
	fmt.Fprintf(&b, "Peer count: %d\n", info.NumPeers)
	fmt.Fprintf(&b, "Active channel count: %d\n", info.NumActiveChannels)
	fmt.Fprintf(&b, "Inactive channel count: %d\n", info.NumInactiveChannels)

	return b.String()
}

func formatBalance(balance *rpc.ListBalanceResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total onchain balance: %s\n", formatSats(balance.TotalOnchainBalanceSats))
	fmt.Fprintf(&b, "Spendable onchain balance: %s\n", formatSats(balance.SpendableOnchainBalanceSats))
	fmt.Fprintf(&b, "Total lightning balance: %s\n", formatSats(balance.TotalLightningBalanceSats))

	return b.String()
}

func formatChannels(resp *rpc.ListChannelsResponse) string {
	var b strings.Builder

	b.WriteString("Lightning Channels:\n")
	b.WriteString("-----------------\n")
	if len(resp.Channels) == 0 {
		b.WriteString("No channels found.\n")

		return b.String()
	}

	for i, c := range resp.Channels {
		fmt.Fprintf(&b, "Channel #%d:\n", i+1)
		fmt.Fprintf(&b, "  ID: %s\n", c.ChannelID)
		fmt.Fprintf(&b, "  Counterparty: %s\n", c.CounterpartyNodeID)
		fmt.Fprintf(&b, "  Balance: %d msats\n", c.BalanceMsat)
		fmt.Fprintf(&b, "  Outbound Capacity: %d msats\n", c.OutboundCapacityMsat)
		fmt.Fprintf(&b, "  Inbound Capacity: %d msats\n", c.InboundCapacityMsat)
		fmt.Fprintf(&b, "  Usable: %t\n", c.IsUsable)
		fmt.Fprintf(&b, "  Public: %t\n", c.IsPublic)
		if c.ShortChannelID != nil {
			fmt.Fprintf(&b, "  Short Channel ID: %s\n", lnwire.NewShortChanIDFromInt(*c.ShortChannelID))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatPayment(payment *rpc.PaymentResponse) string {
	var b strings.Builder

	if !payment.Success {
		reason := "Unknown reason"
		if payment.FailureReason != nil && *payment.FailureReason != "" {
			reason = *payment.FailureReason
		}
		fmt.Fprintf(&b, "Payment failed: %s\n", reason)

		return b.String()
	}

	b.WriteString("Payment succeeded!\n")
	fmt.Fprintf(&b, "Payment hash: %s\n", payment.PaymentHash)
	fmt.Fprintf(&b, "Payment preimage: %s\n", payment.PaymentPreimage)
	fmt.Fprintf(&b, "Fee paid: %d msats\n", payment.FeeMsats)

	return b.String()
}

func formatInvoice(invoice *rpc.CreateBolt11InvoiceResponse) string {
	var b strings.Builder

	b.WriteString("Invoice created successfully!\n")
	fmt.Fprintf(&b, "Payment hash: %s\n", invoice.PaymentHash)
	fmt.Fprintf(&b, "Invoice: %s\n", invoice.Invoice)
	fmt.Fprintf(&b, "Expires: %s\n", formatExpiry(invoice.ExpiryTime))

	return b.String()
}

func formatOffer(offer *rpc.CreateBolt12OfferResponse) string {
	var b strings.Builder

	b.WriteString("Offer created successfully!\n")
	fmt.Fprintf(&b, "Offer ID: %s\n", offer.OfferID)
	fmt.Fprintf(&b, "Offer: %s\n", offer.Offer)
	fmt.Fprintf(&b, "Expires: %s\n", formatExpiry(offer.ExpiryTime))

	return b.String()
}
