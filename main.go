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

	"ffuniverse/internal/alerts"
	"ffuniverse/internal/config"
	"ffuniverse/internal/db"
	"ffuniverse/internal/engine"
	"ffuniverse/internal/logger"
	"ffuniverse/internal/notify"
	"ffuniverse/internal/universalis"
	"ffuniverse/internal/xivapi"
)

var version = "dev"

func main() {
	settingsPath := flag.String("settings", "settings.json", "Path to the settings file")
	alertsPath := flag.String("alerts", "alerts.json", "Path to the alerts file")
	scanItem := flag.Int("scan", 0, "Run a one-shot arbitrage scan for this item ID and exit")
	scanWorld := flag.String("world", "", "Reference world for -scan (overrides settings)")
	scanDC := flag.String("dc", "", "Data center for -scan (overrides settings)")
	allDCs := flag.Bool("all-dcs", false, "Extend -scan across every data center")
	flag.Parse()

	logger.Banner(version)

	// .env values fill in for missing environment variables; both feed the
	// config overrides.
	godotenv.Load()

	cfg, err := config.Load(*settingsPath)
	if err != nil {
		logger.Warn("Config", fmt.Sprintf("Using defaults: %v", err))
	}
	cfg.ApplyEnv()

	database, err := db.Open()
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	if removed, err := database.CleanupOldAlertHistory(90); err == nil && removed > 0 {
		logger.Info("DB", fmt.Sprintf("Pruned %d old alert history entries", removed))
	}

	market := universalis.NewClient(cfg.FetchConcurrency)
	items := xivapi.NewClient(database)

	if *scanItem > 0 {
		os.Exit(runScan(cfg, market, items, *scanItem, *scanWorld, *scanDC, *allDCs))
	}

	runMonitor(cfg, market, items, database, *alertsPath)
}

func runScan(cfg *config.Config, market *universalis.Client, items *xivapi.Client, itemID int, world, dc string, allDCs bool) int {
	if world == "" {
		world = cfg.World
	}
	if dc == "" {
		dc = cfg.DataCenter
	}
	if world == "" || dc == "" {
		logger.Error("Arbitrage", "A reference world and data center are required (flags or settings)")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataCenters, err := market.FetchDataCenters(ctx)
	if err != nil {
		logger.Error("Arbitrage", fmt.Sprintf("Could not load data-center directory: %v", err))
		return 1
	}

	scanner := engine.NewScanner(market, items, dataCenters)
	scanner.Margin = cfg.ArbitrageMargin
	scanner.Concurrency = cfg.FetchConcurrency
	scanner.Language = cfg.Language

	result, err := scanner.FindArbitrage(ctx, itemID, world, dc, allDCs)
	if err != nil {
		logger.Error("Arbitrage", fmt.Sprintf("Scan failed: %v", err))
		return 1
	}
	if result == nil {
		logger.Info("Arbitrage", fmt.Sprintf("No opportunity for item %d (reference %s on %s)", itemID, world, dc))
		return 0
	}

	name := result.ItemName
	if name == "" {
		name = fmt.Sprintf("Item %d", result.ItemID)
	}
	logger.Section("Arbitrage opportunity: " + name)
	logger.Stats("Reference price", result.ReferencePrice)
	logger.Stats("Lowest price", result.LowestPrice)
	logger.Stats("Potential profit", result.PotentialProfit)
	logger.Success("Arbitrage", fmt.Sprintf("Buy on %s (%s) for %d, %.2f%% below %s",
		result.LowestWorld, result.LowestDataCenter, result.LowestPrice, result.ProfitPercentage, result.ReferenceWorld))
	if result.SaleVelocity >= cfg.HotItemVelocity {
		logger.Info("Arbitrage", fmt.Sprintf("Hot item: sells %.1f/day on %s", result.SaleVelocity, dc))
	}
	return 0
}

func runMonitor(cfg *config.Config, market *universalis.Client, items *xivapi.Client, database *db.DB, alertsPath string) {
	var sinks []notify.Sink
	if cfg.DesktopAlerts {
		sinks = append(sinks, notify.Desktop{})
	}
	sinks = append(sinks, notify.NewDiscord(cfg.DiscordWebhookURL))

	monitor := alerts.NewMonitor(alerts.MonitorConfig{
		StorePath: alertsPath,
		Interval:  cfg.MonitorInterval(),
	}, market, items, sinks, database)

	monitor.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("Main", "Shutting down...")
	monitor.Stop()
}
