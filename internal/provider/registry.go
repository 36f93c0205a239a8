package provider

import (
	"fmt"

	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/repository"
	"DivPulse/pkg/config"
	xhttp "DivPulse/pkg/http"
	applogger "DivPulse/pkg/logger"
)

// Build constructs retry-wrapped fetchers for every configured dataset.
func Build(cfg *config.Config, client *xhttp.Client, log *applogger.Logger) (map[string]repository.Fetcher, error) {
	retry := RetryConfig{
		MaxRetries: cfg.Fetch.RetryMax,
		BackoffMin: cfg.Fetch.BackoffMin,
		BackoffMax: cfg.Fetch.BackoffMax,
	}

	fetchers := make(map[string]repository.Fetcher, len(cfg.Datasets))
	for _, d := range cfg.Datasets {
		var inner repository.Fetcher
		switch d.Source {
		case "binance":
			inner = NewBinanceFetcher(client, cfg.Binance.BaseURL, d.Symbol)
		case "simple":
			shape := models.ShapeSimple
			if d.Shape == "ohlcv" {
				shape = models.ShapeOHLCV
			}
			inner = NewSimpleFetcher(client, d.URL, shape)
		default:
			return nil, fmt.Errorf("dataset %q: unknown source %q", d.Name, d.Source)
		}
		fetchers[d.Name] = WithRetry(d.Name, inner, retry, log)
	}
	return fetchers, nil
}
