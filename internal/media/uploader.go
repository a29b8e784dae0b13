// Package media turns the draft's Telegram photo references into public URLs
// that can be stored with a listing and rendered by the admin UI.
package media

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Uploader stores photo content somewhere public and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content []byte) (string, error)
}

// httpClient is reused for file transfers to avoid creating new clients per request
var httpClient = resty.New().SetDebug(false).SetTimeout(30 * time.Second)

// HTTPUploader uploads photo content with a PUT to a bucket-style endpoint and
// derives the public URL from the configured base.
type HTTPUploader struct {
	endpoint      string
	publicBaseURL string
}

// NewHTTPUploader creates an uploader that PUTs to endpoint/<name> and reports
// the object as publicBaseURL/<name>.
func NewHTTPUploader(endpoint, publicBaseURL string) *HTTPUploader {
	return &HTTPUploader{endpoint: endpoint, publicBaseURL: publicBaseURL}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), filename)
	res, err := httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "image/jpeg").
		SetBody(content).
		Put(u.endpoint + "/" + name)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("upload %s: status %s", name, res.Status())
	}
	return u.publicBaseURL + "/" + name, nil
}

// Publisher resolves Telegram file references to downloadable URLs, fetches
// their content and hands it to an Uploader.
type Publisher struct {
	getFileDirectURL func(fileID string) (string, error)
	uploader         Uploader
}

// NewPublisher builds a Publisher. getFileDirectURL is the Telegram bot API's
// file metadata lookup.
func NewPublisher(getFileDirectURL func(fileID string) (string, error), uploader Uploader) *Publisher {
	return &Publisher{getFileDirectURL: getFileDirectURL, uploader: uploader}
}

// PublishPhotos downloads each Telegram file and uploads it, preserving order.
// Transfers run concurrently; any failure fails the whole batch so a partially
// published set is never stored.
func (p *Publisher) PublishPhotos(ctx context.Context, fileIDs []string) ([]string, error) {
	urls := make([]string, len(fileIDs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range fileIDs {
		g.Go(func() error {
			content, name, err := p.download(ctx, fileIDs[i])
			if err != nil {
				return err
			}
			url, err := p.uploader.Upload(ctx, name, content)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (p *Publisher) download(ctx context.Context, fileID string) ([]byte, string, error) {
	log.Info().Str("fileID", fileID).Msg("downloading telegram file")
	url, err := p.getFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	res, err := httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("download file %s: %w", fileID, err)
	}
	if res.IsError() {
		return nil, "", fmt.Errorf("download file %s: status %s", fileID, res.Status())
	}
	return res.Body(), path.Base(url), nil
}
