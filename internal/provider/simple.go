package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"DivPulse/internal/domain/models"
	xhttp "DivPulse/pkg/http"
)

// SimpleFetcher pulls positional [timestamp, value...] arrays from a JSON
// endpoint. The URL template's {start} and {end} placeholders expand to the
// requested range in epoch milliseconds.
type SimpleFetcher struct {
	client *xhttp.Client
	url    string
	shape  models.Shape
}

func NewSimpleFetcher(client *xhttp.Client, url string, shape models.Shape) *SimpleFetcher {
	if shape == models.ShapeUnknown {
		shape = models.ShapeSimple
	}
	return &SimpleFetcher{client: client, url: url, shape: shape}
}

func (f *SimpleFetcher) Shape() models.Shape { return f.shape }

func (f *SimpleFetcher) Fetch(ctx context.Context, start, end int64) ([]models.RawRecord, error) {
	url := strings.NewReplacer(
		"{start}", strconv.FormatInt(start, 10),
		"{end}", strconv.FormatInt(end, 10),
	).Replace(f.url)

	resp, err := f.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	var records []models.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("fetch %s: decode: %w", url, err)
	}
	return records, nil
}
