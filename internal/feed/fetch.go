package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oskarh/feedgate/internal/storage"
)

// Fetcher retrieves raw feed text from a local path, an HTTP(S) URL,
// or an object-storage key.
type Fetcher struct {
	http    *resty.Client
	storage storage.ObjectStorage
}

// FetcherConfig holds configuration for feed fetching.
type FetcherConfig struct {
	Timeout    time.Duration
	RetryCount int
}

// NewFetcher creates a Fetcher.
// Parameters:
//   - cfg: HTTP timeout and retry settings; nil uses defaults.
//   - objectStorage: storage client for s3:// sources; may be nil.
// Returns:
//   - *Fetcher: fetcher instance.
func NewFetcher(cfg *FetcherConfig, objectStorage storage.ObjectStorage) *Fetcher {
	if cfg == nil {
		cfg = &FetcherConfig{Timeout: 30 * time.Second, RetryCount: 2}
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount)
	return &Fetcher{http: client, storage: objectStorage}
}

// Fetch retrieves feed text from the given source. Sources starting
// with http:// or https:// are downloaded, s3:// sources are read from
// object storage, anything else is treated as a local file path.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - source: feed location.
// Returns:
//   - string: raw feed text.
//   - error: non-nil if the source cannot be read.
func (f *Fetcher) Fetch(ctx context.Context, source string) (string, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return f.fetchURL(ctx, source)
	case strings.HasPrefix(source, "s3://"):
		return f.fetchStorage(ctx, strings.TrimPrefix(source, "s3://"))
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("failed to read feed file: %w", err)
		}
		return string(data), nil
	}
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) (string, error) {
	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download feed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("failed to download feed: status %d", resp.StatusCode())
	}
	return resp.String(), nil
}

func (f *Fetcher) fetchStorage(ctx context.Context, key string) (string, error) {
	if f.storage == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	reader, err := f.storage.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to download feed from storage: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read feed from storage: %w", err)
	}
	return string(data), nil
}
