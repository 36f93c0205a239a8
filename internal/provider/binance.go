package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"DivPulse/internal/domain/models"
	xhttp "DivPulse/pkg/http"
)

const binanceKlineLimit = 1000

// BinanceFetcher pulls daily klines for one symbol from the Binance REST
// API, paging through the kline limit until the requested range is covered.
type BinanceFetcher struct {
	client  *xhttp.Client
	baseURL string
	symbol  string
}

func NewBinanceFetcher(client *xhttp.Client, baseURL, symbol string) *BinanceFetcher {
	return &BinanceFetcher{client: client, baseURL: baseURL, symbol: symbol}
}

func (f *BinanceFetcher) Shape() models.Shape { return models.ShapeOHLCV }

func (f *BinanceFetcher) Fetch(ctx context.Context, start, end int64) ([]models.RawRecord, error) {
	var out []models.RawRecord
	cursor := start
	for cursor <= end {
		batch, err := f.fetchPage(ctx, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
		lastTS, ok := batch[len(batch)-1].Timestamp()
		if !ok || lastTS < cursor {
			break
		}
		cursor = lastTS + 1
		if len(batch) < binanceKlineLimit {
			break
		}
	}
	return out, nil
}

func (f *BinanceFetcher) fetchPage(ctx context.Context, start, end int64) ([]models.RawRecord, error) {
	resp, err := f.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    f.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":    {f.symbol},
			"interval":  {"1d"},
			"startTime": {strconv.FormatInt(start, 10)},
			"endTime":   {strconv.FormatInt(end, 10)},
			"limit":     {strconv.Itoa(binanceKlineLimit)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("binance %s: %w", f.symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance %s: read body: %w", f.symbol, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("binance %s: status %d: %s", f.symbol, resp.StatusCode, body)
	}

	// Klines come as mixed-type arrays with prices quoted as strings.
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("binance %s: decode: %w", f.symbol, err)
	}

	out := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		rec := make(models.RawRecord, 6)
		var openTime float64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		rec[0] = &openTime
		ok := true
		for i := 1; i < 6; i++ {
			var s string
			if err := json.Unmarshal(row[i], &s); err != nil {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			val := v
			rec[i] = &val
		}
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
