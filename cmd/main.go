package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/40acres/cashu-lnd/config"
	"github.com/40acres/cashu-lnd/daemon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	_ "github.com/40acres/cashu-lnd/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info("Received signal, shutting down")
		cancel()
	}()

	app := &cli.Command{
		Name:    "cashu-lnd",
		Usage:   "Lightning backend for a Cashu mint, backed by LND",
		Version: version,
		Flags: []cli.Flag{
			&workDir,
			&cli.StringFlag{
				Name:  "address",
				Usage: "Management service address used by the client commands",
				Value: defaultManagementAddress,
			},
		},
		Commands: append([]*cli.Command{
			{
				Name:  "start",
				Usage: "Start the cashu-lnd daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "Config file, <work-dir>/config.toml when empty",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fs := afero.NewOsFs()

					var cfg *config.Config
					var err error
					if path := cmd.String("config"); path != "" {
						cfg, err = config.LoadFile(fs, path, os.LookupEnv)
					} else {
						cfg, err = config.Load(fs, cmd.String("work-dir"), os.LookupEnv)
					}
					if err != nil {
						return err
					}

					return daemon.Start(ctx, cfg, fs, version)
				},
			},
		}, clientCommands()...),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

var workDir = cli.StringFlag{
	Name:  "work-dir",
	Usage: "Directory holding config.toml and the tls material",
	Value: config.DefaultWorkDir(),
}
