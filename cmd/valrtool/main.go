package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"valrgo/config"
	"valrgo/logger"
	"valrgo/models"
	"valrgo/stream"
	"valrgo/valr"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	symbol := flag.String("symbol", "BTCZAR", "Symbol for the ticker and trade queries")
	live := flag.Bool("live", false, "Allow credentialed calls in production-like environments")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	env := config.AppEnvironment()
	log.WithFields(logger.Fields{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": env,
	}).Info("starting valrtool")

	if config.IsProductionLike(env) && cfg.Credentials.APIKey != "" && !*live {
		log.WithComponent("main").Warn("credentialed calls disabled in production-like environment; pass -live to enable")
		cfg.Credentials.APIKey = ""
		cfg.Credentials.APISecret = ""
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel, log)

	if cfg.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.CloudWatch.Region, cfg.CloudWatch.Namespace)
		logger.StartReport(ctx, log, 30*time.Second)
	}

	client := valr.NewClient(cfg)

	status, err := client.FetchStatus(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch exchange status")
		os.Exit(1)
	}
	serverTime, err := client.FetchTime(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch server time")
		os.Exit(1)
	}
	log.WithComponent("main").WithFields(logger.Fields{
		"status":      status,
		"server_time": serverTime.Format(time.RFC3339),
	}).Info("exchange reachable")

	markets, err := client.FetchMarkets(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch markets")
		os.Exit(1)
	}
	log.WithComponent("main").WithFields(logger.Fields{"markets": len(markets)}).Info("market catalog loaded")

	ticker, err := client.FetchTicker(ctx, *symbol)
	if err != nil {
		log.WithError(err).Error("failed to fetch ticker")
		os.Exit(1)
	}
	fmt.Printf("%s last=%s bid=%s ask=%s\n", ticker.Symbol, decimalOrDash(ticker.Last), decimalOrDash(ticker.Bid), decimalOrDash(ticker.Ask))

	book, err := client.FetchOrderBook(ctx, *symbol)
	if err != nil {
		log.WithError(err).Error("failed to fetch order book")
		os.Exit(1)
	}
	fmt.Printf("%s book: %d bids, %d asks\n", book.Symbol, len(book.Bids), len(book.Asks))

	if cfg.Credentials.APIKey != "" {
		balances, err := client.FetchBalance(ctx)
		if err != nil {
			log.WithError(err).Error("failed to fetch balances")
			os.Exit(1)
		}
		for currency, balance := range balances {
			fmt.Printf("%s free=%s used=%s total=%s\n", currency, decimalOrDash(balance.Free), decimalOrDash(balance.Used), decimalOrDash(balance.Total))
		}
	}

	if cfg.Stream.Enabled {
		runStream(ctx, cfg, client, log)
	}

	log.WithComponent("main").Info("valrtool finished")
}

// runStream prints live trades until the context is canceled.
func runStream(ctx context.Context, cfg *config.Config, client *valr.Client, log *logger.Log) {
	trades := make(chan models.Trade, cfg.Stream.Buffer)
	feed := stream.NewTradeFeed(cfg, client, trades)
	if err := feed.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start trade feed")
		return
	}
	defer feed.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case trade := <-trades:
			fmt.Printf("%s %s %s @ %s\n", trade.Symbol, trade.Side, decimalOrDash(trade.Amount), decimalOrDash(trade.Price))
		}
	}
}

func handleShutdown(cancel context.CancelFunc, log *logger.Log) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.WithComponent("main").WithFields(logger.Fields{"signal": s.String()}).Info("shutting down")
	cancel()
}

func decimalOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
