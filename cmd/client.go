package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/40acres/cashu-lnd/rpc"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const defaultManagementAddress = "127.0.0.1:50051"

// withClient connects to the management service named by the global flags.
// TLS material is read from <work-dir>/tls when it exists.
func withClient(run func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		tlsDir := filepath.Join(cmd.String("work-dir"), "tls")
		conn, err := rpc.NewConnection(cmd.String("address"), rpc.WithTLSDir(afero.NewOsFs(), tlsDir))
		if err != nil {
			return err
		}
		defer conn.Close()

		return run(ctx, cmd, rpc.NewManagementClient(conn))
	}
}

func amount(cmd *cli.Command, name string) (uint64, error) {
	v := cmd.Int(name)
	if v < 0 {
		return 0, fmt.Errorf("--%s must not be negative", name)
	}

	return uint64(v), nil
}

// optionalAmount is nil when the flag was not given.
func optionalAmount(cmd *cli.Command, name string) (*uint64, error) {
	if !cmd.IsSet(name) {
		return nil, nil
	}
	v, err := amount(cmd, name)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func clientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "get-info",
			Usage: "Get node info",
			Action: withClient(func(ctx context.Context, _ *cli.Command, client *rpc.ManagementClient) error {
				info, err := client.GetInfo(ctx, &rpc.GetInfoRequest{})
				if err != nil {
					return err
				}
				fmt.Print(formatNodeInfo(info))

				return nil
			}),
		},
		{
			Name:  "get-new-address",
			Usage: "Get a new bitcoin address",
			Action: withClient(func(ctx context.Context, _ *cli.Command, client *rpc.ManagementClient) error {
				resp, err := client.GetNewAddress(ctx, &rpc.GetNewAddressRequest{})
				if err != nil {
					return err
				}
				fmt.Printf("New address: %s\n", resp.Address)

				return nil
			}),
		},
		{
			Name:  "open-channel",
			Usage: "Open a new channel",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "node-id", Usage: "Peer node id", Required: true},
				&cli.StringFlag{Name: "peer-address", Usage: "Peer host or IP", Required: true},
				&cli.IntFlag{Name: "port", Usage: "Peer port", Value: 9735},
				&cli.IntFlag{Name: "amount-msats", Usage: "Channel size in msats, whole sats only", Required: true},
				&cli.IntFlag{Name: "push-msats", Usage: "Amount pushed to the peer"},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				port := cmd.Int("port")
				if port < 1 || port > 65535 {
					return fmt.Errorf("port number %d is invalid: must be between 1 and 65535", port)
				}
				amountMsats, err := amount(cmd, "amount-msats")
				if err != nil {
					return err
				}
				push, err := optionalAmount(cmd, "push-msats")
				if err != nil {
					return err
				}

				resp, err := client.OpenChannel(ctx, &rpc.OpenChannelRequest{
					NodeID:                  cmd.String("node-id"),
					Address:                 cmd.String("peer-address"),
					Port:                    uint32(port),
					AmountMsats:             amountMsats,
					PushToCounterPartyMsats: push,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Opened channel with ID: %s\n", resp.ChannelID)

				return nil
			}),
		},
		{
			Name:  "close-channel",
			Usage: "Close a channel",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "channel-id", Usage: "Funding outpoint txid:index", Required: true},
				&cli.StringFlag{Name: "node-pubkey", Usage: "Counterparty node id", Required: true},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				_, err := client.CloseChannel(ctx, &rpc.CloseChannelRequest{
					ChannelID:  cmd.String("channel-id"),
					NodePubkey: cmd.String("node-pubkey"),
				})
				if err != nil {
					return err
				}
				fmt.Println("Channel close initiated")

				return nil
			}),
		},
		{
			Name:  "list-balance",
			Usage: "List balances",
			Action: withClient(func(ctx context.Context, _ *cli.Command, client *rpc.ManagementClient) error {
				balance, err := client.ListBalance(ctx, &rpc.ListBalanceRequest{})
				if err != nil {
					return err
				}
				fmt.Print(formatBalance(balance))

				return nil
			}),
		},
		{
			Name:  "list-channels",
			Usage: "List channels",
			Action: withClient(func(ctx context.Context, _ *cli.Command, client *rpc.ManagementClient) error {
				channels, err := client.ListChannels(ctx, &rpc.ListChannelsRequest{})
				if err != nil {
					return err
				}
				fmt.Print(formatChannels(channels))

				return nil
			}),
		},
		{
			Name:  "send-onchain",
			Usage: "Send bitcoin on-chain",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "amount-sat", Usage: "Amount in sats", Required: true},
				&cli.StringFlag{Name: "to", Usage: "Destination address", Required: true},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				sats, err := amount(cmd, "amount-sat")
				if err != nil {
					return err
				}

				resp, err := client.SendOnchain(ctx, &rpc.SendOnchainRequest{
					AmountSat: sats,
					Address:   cmd.String("to"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("Transaction sent with txid: %s\n", resp.Txid)

				return nil
			}),
		},
		{
			Name:  "pay-bolt11",
			Usage: "Pay a bolt11 invoice",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "invoice", Usage: "Bolt11 payment request", Required: true},
				&cli.IntFlag{Name: "amount-msats", Usage: "Amount for invoices without one"},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				amountMsats, err := optionalAmount(cmd, "amount-msats")
				if err != nil {
					return err
				}

				payment, err := client.PayBolt11Invoice(ctx, &rpc.PayBolt11InvoiceRequest{
					Invoice:     cmd.String("invoice"),
					AmountMsats: amountMsats,
				})
				if err != nil {
					return err
				}
				fmt.Print(formatPayment(payment))

				return nil
			}),
		},
		{
			Name:  "pay-bolt12",
			Usage: "Pay a bolt12 offer",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "offer", Usage: "Bolt12 offer", Required: true},
				&cli.IntFlag{Name: "amount-msats", Usage: "Amount to pay", Required: true},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				amountMsats, err := optionalAmount(cmd, "amount-msats")
				if err != nil {
					return err
				}

				payment, err := client.PayBolt12Offer(ctx, &rpc.PayBolt12OfferRequest{
					Offer:       cmd.String("offer"),
					AmountMsats: amountMsats,
				})
				if err != nil {
					return err
				}
				fmt.Print(formatPayment(payment))

				return nil
			}),
		},
		{
			Name:  "create-bolt11-invoice",
			Usage: "Create a bolt11 invoice",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "amount-msats", Usage: "Invoice amount", Required: true},
				&cli.StringFlag{Name: "description", Usage: "Invoice description"},
				&cli.IntFlag{Name: "expiry-seconds", Usage: "Seconds until the invoice expires"},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				amountMsats, err := amount(cmd, "amount-msats")
				if err != nil {
					return err
				}
				expiry, err := optionalAmount(cmd, "expiry-seconds")
				if err != nil {
					return err
				}

				invoice, err := client.CreateBolt11Invoice(ctx, &rpc.CreateBolt11InvoiceRequest{
					AmountMsats:   amountMsats,
					Description:   cmd.String("description"),
					ExpirySeconds: expiry,
				})
				if err != nil {
					return err
				}
				fmt.Print(formatInvoice(invoice))

				return nil
			}),
		},
		{
			Name:  "create-bolt12-offer",
			Usage: "Create a bolt12 offer",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "amount-msats", Usage: "Offer amount, variable when omitted"},
				&cli.StringFlag{Name: "description", Usage: "Offer description"},
				&cli.IntFlag{Name: "expiry-seconds", Usage: "Seconds until the offer expires"},
			},
			Action: withClient(func(ctx context.Context, cmd *cli.Command, client *rpc.ManagementClient) error {
				amountMsats, err := optionalAmount(cmd, "amount-msats")
				if err != nil {
					return err
				}
				expiry, err := optionalAmount(cmd, "expiry-seconds")
				if err != nil {
					return err
				}

				offer, err := client.CreateBolt12Offer(ctx, &rpc.CreateBolt12OfferRequest{
					AmountMsats:   amountMsats,
					Description:   cmd.String("description"),
					ExpirySeconds: expiry,
				})
				if err != nil {
					return err
				}
				fmt.Print(formatOffer(offer))

				return nil
			}),
		},
	}
}
