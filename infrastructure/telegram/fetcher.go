package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
)

// MaxDownloadBytes is the Bot API ceiling for getFile downloads
const MaxDownloadBytes = 20 << 20

// Fetcher downloads attachment bytes through the Bot API file endpoint
type Fetcher struct {
	bot      BotAPI
	client   *http.Client
	maxBytes int64
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// NewFetcher creates a new Fetcher
func NewFetcher(bot BotAPI, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{bot: bot, client: client, maxBytes: MaxDownloadBytes}
}

// Fetch resolves the file handle and reads the whole body into memory
func (f *Fetcher) Fetch(ctx context.Context, file entities.FileRef) ([]byte, error) {
	link, err := f.bot.GetFileDirectURL(file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file %s: %w", file.UniqueID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", withoutURL(err))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", file.UniqueID, withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file %s: status %d", file.UniqueID, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", file.UniqueID, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", file.UniqueID, f.maxBytes)
	}
	return data, nil
}

// withoutURL strips the request URL from transport errors. The direct file
// link embeds the bot token and these errors end up in logs and events.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
