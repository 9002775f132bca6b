package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/config"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/strategy"
	"StockSentinel/internal/universe"
)

func newFetcher(c *config.Config) collector.Fetcher {
	var f collector.Fetcher
	switch c.DataSource.Provider {
	case "rest":
		f = collector.NewRestFetcher(c.DataSource.BaseURL, c.DataSource.APIKey, c.Proxy)
	case "mock":
		f = &collector.MockFetcher{}
	default:
		f = collector.NewYahooFetcher(c.Proxy)
	}
	log.Info().Str("source", f.Name()).Msg("data source selected")
	return f
}

func newSink(ctx context.Context, c *config.Config) (recorder.Sink, error) {
	switch c.Database.Driver {
	case "postgres":
		return recorder.NewPostgresSink(ctx, c.Database.PostgresURL)
	case "none":
		return recorder.NewNoopSink(), nil
	default:
		if dir := filepath.Dir(c.Database.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return recorder.NewSQLiteSink(c.Database.SQLitePath)
	}
}

func newAnalyzer(c *config.Config) *analyzer.Analyzer {
	col := collector.NewCollector(newFetcher(c), strategy.BiasLookback)
	return analyzer.New(col, c.Analysis.Workers)
}

func loadUniverse(c *config.Config) ([]string, error) {
	return universe.Load(c.Universe.Tickers, c.Universe.File)
}

// newNotifier returns nil when Telegram is not configured.
func newNotifier(c *config.Config) *notifier.TelegramNotifier {
	if c.Telegram.BotToken == "" {
		return nil
	}
	return notifier.NewTelegramNotifier(c.Telegram.BotToken, c.Telegram.ChatID, c.Proxy)
}
