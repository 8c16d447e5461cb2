// Package seamless is the HTTP client for operator-hosted ("seamless")
// wallets. When an operator does not keep its ledger on the platform, every
// wallet operation is forwarded to the operator's remote endpoint.
//
// Retries are the client's responsibility and are bounded by configuration;
// callers must not retry on top of it, since a replayed mutation risks
// double settlement.
package seamless

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"gamepay/internal/config"
	"gamepay/internal/events"
	"gamepay/internal/models"

	"github.com/cenkalti/backoff/v5"
)

const wtokenHeader = "wtoken"

// Client forwards wallet operations to one operator's remote wallet.
type Client struct {
	host   string
	wtoken string
	http   *http.Client
	cfg    config.SeamlessConfig
	sink   events.Sink
}

// NewClient builds a client for the operator's seamless endpoint. The
// connection pool and retry policy come from cfg, never from code.
func NewClient(setting models.SeamlessSetting, cfg config.SeamlessConfig, sink events.Sink) *Client {
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: cfg.ConnWaitTime}).DialContext,
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		MaxConnsPerHost:     cfg.MaxConnections,
		IdleConnTimeout:     cfg.MaxIdleTime,
	}
	return &Client{
		host:   setting.Host,
		wtoken: setting.WToken,
		cfg:    cfg,
		sink:   sink,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
	}
}

// Transact posts a balance-changing request to path and decodes the remote
// wallet's result.
func (c *Client) Transact(ctx context.Context, path string, req Request) (*Result, error) {
	var out Result
	if err := c.post(ctx, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance queries the remote balance for one member/vendor pair.
func (c *Client) Balance(ctx context.Context, memberAccount, vendorCode string) (*Result, error) {
	var out Result
	req := balanceRequest{MemberAccount: memberAccount, VendorCode: vendorCode}
	if err := c.post(ctx, PathPlayerBalance, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryLog fetches the remote transaction log for a trace id.
func (c *Client) QueryLog(ctx context.Context, memberAccount, traceID string) ([]LogEntry, error) {
	var out []LogEntry
	req := logRequest{MemberAccount: memberAccount, TraceID: traceID}
	if err := c.post(ctx, PathQueryTransLog, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("seamless: encode payload: %w", err)
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := c.exchange(ctx, path, body, out, attempt)
		if err == nil {
			return struct{}{}, nil
		}
		var re *RemoteError
		if errors.As(err, &re) && re.Permanent() {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.RetryDelay)),
		backoff.WithMaxTries(c.cfg.Retries+1),
	)
	if err != nil {
		var re *RemoteError
		if errors.As(err, &re) && re.Permanent() {
			return err
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// exchange performs one HTTP round trip and always emits transfer
// statistics, success or failure.
func (c *Client) exchange(ctx context.Context, path string, body []byte, out interface{}, attempt int) error {
	start := time.Now()
	stats := events.TransferStats{Host: c.host, Path: path, Attempts: attempt}
	defer func() {
		stats.Duration = time.Since(start)
		_ = c.sink.Emit(ctx, events.NewSeamlessStats(stats))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		stats.Err = err.Error()
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(wtokenHeader, c.wtoken)

	resp, err := c.http.Do(req)
	if err != nil {
		stats.Err = err.Error()
		return err
	}
	defer resp.Body.Close()
	stats.StatusCode = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		stats.Err = err.Error()
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{StatusCode: resp.StatusCode, Path: path, Body: string(raw)}
		stats.Err = rerr.Error()
		return rerr
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			stats.Err = err.Error()
			return fmt.Errorf("seamless: decode response: %w", err)
		}
	}
	return nil
}
