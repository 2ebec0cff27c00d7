package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/merxpay/merx/internal/alert"
	"github.com/merxpay/merx/internal/chain"
	"github.com/merxpay/merx/internal/config"
	"github.com/merxpay/merx/internal/http_api"
	"github.com/merxpay/merx/internal/merx"
	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/internal/quote"
	"github.com/merxpay/merx/internal/repository"
	"github.com/merxpay/merx/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "merx",
		Usage: "Merx settles token purchases against the chain",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "chain-rpc-url", Aliases: []string{"b"}, Usage: "Chain RPC URL"},
			&cli.StringFlag{Name: "contract-address", Aliases: []string{"s"}, Usage: "Shop contract address"},
			&cli.StringFlag{Name: "redis-addr", Aliases: []string{"r"}, Usage: "Redis address for the quote store"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("chain-rpc-url") {
		cfg.ChainRPCURL = c.String("chain-rpc-url")
	}
	if c.IsSet("contract-address") {
		cfg.ContractAddress = c.String("contract-address")
	}
	if c.IsSet("redis-addr") {
		cfg.RedisAddr = c.String("redis-addr")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Initialize chain client
	chainClient := chain.NewClient(cfg.ChainRPCURL, cfg.ContractAddress, cfg.ChainRPCTimeout, log)
	if err := chainClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect to chain RPC: %v", err)
	}
	defer chainClient.Close()

	// Initialize quote store: Redis when configured, in-process otherwise
	var store quote.Store
	if cfg.RedisAddr != "" {
		store = quote.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		log.Info("Using Redis quote store", "addr", cfg.RedisAddr)
	} else {
		store = quote.NewMemoryStore()
		log.Info("Using in-process quote store")
	}
	engine := quote.NewEngine(store, db, log, cfg.QuoteTTL, cfg.MaxDiscountBps, cfg.DiscountEnabled)

	// Initialize alerting
	var alerts models.AlertService
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		alerts, err = alert.NewTelegramAlerter(log, cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram alerter: %v", err)
		}
	} else {
		alerts = alert.NewLogAlerter(log)
	}

	// Create the settlement core
	core := merx.New(db, chainClient, engine, alerts, log, cfg)

	apiServer := http_api.NewHTTPServer(core, cfg.APIPort, log)

	go apiServer.Start()
	core.Start()

	// Wait for shutdown signal
	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, syscall.SIGINT, syscall.SIGTERM)
	<-quitCh

	core.Stop()
	if err := apiServer.Shutdown(); err != nil {
		log.Error("Failed to shut down HTTP server: ", err)
	}

	return nil
}
