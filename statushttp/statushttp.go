// Package statushttp forwards videosource.StatusUpdate events to a remote
// HTTP endpoint as JSON, in the same fire-and-forget POST style the
// teacher's exporter package uses to ship snapshots.
package statushttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mverra/videosource"
)

// ErrInvalidArguments is returned by New when baseURL or httpCli is unusable.
var ErrInvalidArguments = errors.New("statushttp: invalid arguments")

// Listener posts every StatusUpdate it receives to baseURL+"/status" as a
// JSON body. It never blocks the emitting goroutine for longer than
// Timeout; failures are swallowed after an OnSendError callback, matching
// StatusListener's "must not block for long" contract.
type Listener struct {
	baseURL *url.URL
	cli     *http.Client
	timeout time.Duration

	// OnSendError, if set, is invoked with any error encountered sending
	// an update. It must not block.
	OnSendError func(error)
}

// New builds a Listener posting to baseURL using httpCli, which may be
// http.DefaultClient. timeout bounds every individual send; it defaults to
// 2 seconds if non-positive.
func New(baseURL string, httpCli *http.Client, timeout time.Duration) (*Listener, error) {
	if baseURL == "" || httpCli == nil {
		return nil, ErrInvalidArguments
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("statushttp: invalid base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Listener{baseURL: u, cli: httpCli, timeout: timeout}, nil
}

// OnStatusUpdate sends u to the configured endpoint. It runs synchronously
// on the caller's goroutine, bounded by the configured timeout.
func (l *Listener) OnStatusUpdate(u videosource.StatusUpdate) {
	if err := l.send(u); err != nil && l.OnSendError != nil {
		l.OnSendError(err)
	}
}

func (l *Listener) send(u videosource.StatusUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	endpoint := *l.baseURL
	endpointURL, err := url.JoinPath(endpoint.String(), "status")
	if err != nil {
		return fmt.Errorf("statushttp: invalid base URL: %w", err)
	}

	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("statushttp: could not marshal status update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("statushttp: could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.cli.Do(req)
	if err != nil {
		return fmt.Errorf("statushttp: could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("statushttp: unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
