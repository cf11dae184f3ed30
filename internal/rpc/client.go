package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Proxy is the read-only blockchain RPC connection the provider forwards
// unmodeled methods to.
type Proxy interface {
	// Send performs a raw JSON-RPC call and returns the decoded result.
	Send(ctx context.Context, method string, params []any) (any, error)
}

// Client wraps the upstream JSON-RPC endpoint, supporting multiple URLs with
// failover. Connections are dialed lazily and retried on use.
type Client struct {
	urls    []string
	clients []*gethrpc.Client
	timeout time.Duration
	mu      sync.RWMutex
	current int
}

// NewClient creates a new upstream RPC client. A zero timeout means calls are
// bounded only by the caller's context.
func NewClient(urls []string, timeout time.Duration) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*gethrpc.Client, 0, len(urls))
	for _, url := range urls {
		client, err := gethrpc.Dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			clients = append(clients, nil)
			continue
		}
		clients = append(clients, client)
	}

	return &Client{
		urls:    urls,
		clients: clients,
		timeout: timeout,
		current: 0,
	}, nil
}

// Close closes all underlying connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

// Send performs a raw JSON-RPC call against the current endpoint, rotating to
// the next one on transport failure.
func (c *Client) Send(ctx context.Context, method string, params []any) (any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt < len(c.urls); attempt++ {
		client, url, err := c.getClient(attempt)
		if err != nil {
			lastErr = err
			continue
		}

		var result json.RawMessage
		if err := client.CallContext(ctx, &result, method, params...); err != nil {
			// RPC-level errors (method not found, execution reverted) come from
			// the node itself and are returned verbatim. Only rotate on
			// transport failures.
			if _, ok := err.(gethrpc.Error); ok {
				return nil, err
			}

			log.Warn().
				Str("method", method).
				Str("url", url).
				Err(err).
				Msg("Upstream RPC call failed, rotating endpoint")
			lastErr = err
			continue
		}

		return decodeResult(result)
	}

	return nil, errors.Wrap(lastErr, "all upstream RPC endpoints failed")
}

// getClient returns the client and URL at the given offset from the current
// index, redialing it if the initial connection attempt failed. The URL is
// resolved under the lock so rotation by concurrent calls stays consistent.
func (c *Client) getClient(offset int) (*gethrpc.Client, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := (c.current + offset) % len(c.clients)
	url := c.urls[idx]
	if c.clients[idx] == nil {
		client, err := gethrpc.Dial(url)
		if err != nil {
			return nil, url, errors.Wrapf(err, "failed to dial RPC node %s", url)
		}
		c.clients[idx] = client
	}

	if offset > 0 {
		c.current = idx
	}

	return c.clients[idx], url, nil
}

// decodeResult unmarshals a raw JSON-RPC result into a generic value so it
// can be re-encoded into the response envelope untouched.
func decodeResult(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode upstream RPC result")
	}

	return result, nil
}
