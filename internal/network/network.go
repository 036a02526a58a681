// Package network talks to the node's peers over their HTTP node API.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Response is one peer's answer to a broadcast. Either Body or Err is set.
type Response struct {
	Address string
	Body    json.RawMessage
	Err     error
}

// Broadcaster fans a node API action out to every peer.
type Broadcaster interface {
	// Broadcast posts the body to /api/node/{action} on each peer and
	// returns one response per peer, failures included.
	Broadcast(ctx context.Context, action string, body any) []Response
	// Send posts to a single peer.
	Send(ctx context.Context, address, action string, body any) Response
	// SendFile posts a multipart upload to a single peer. The extra fields
	// ride alongside the file part.
	SendFile(ctx context.Context, address, action string, file io.Reader, filename string, fields map[string]string) Response
	// Peers lists the configured peer addresses.
	Peers() []string
}

// Client is the resty-backed Broadcaster.
type Client struct {
	http     *resty.Client
	protocol string
	peers    []string
	self     string
	logger   *slog.Logger
}

// NewClient builds a peer client. The per-call timeout bounds one peer
// request; the caller's context bounds the whole broadcast. The node's own
// address is skipped when present in the peer list.
func NewClient(protocol, self string, peers []string, timeout time.Duration, logger *slog.Logger) *Client {
	filtered := make([]string, 0, len(peers))
	for _, p := range peers {
		if p != "" && p != self {
			filtered = append(filtered, p)
		}
	}

	return &Client{
		http:     resty.New().SetTimeout(timeout),
		protocol: protocol,
		peers:    filtered,
		self:     self,
		logger:   logger,
	}
}

func (c *Client) Peers() []string {
	return append([]string(nil), c.peers...)
}

func (c *Client) Send(ctx context.Context, address, action string, body any) Response {
	url := fmt.Sprintf("%s://%s/api/node/%s", c.protocol, address, action)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetHeader("X-Node-Address", c.self).
		SetBody(body).
		Post(url)
	if err != nil {
		return Response{Address: address, Err: fmt.Errorf("peer %s unreachable: %w", address, err)}
	}
	if resp.IsError() {
		return Response{
			Address: address,
			Err:     fmt.Errorf("peer %s answered %d: %s", address, resp.StatusCode(), resp.String()),
		}
	}

	return Response{Address: address, Body: resp.Body()}
}

func (c *Client) SendFile(ctx context.Context, address, action string, file io.Reader, filename string, fields map[string]string) Response {
	url := fmt.Sprintf("%s://%s/api/node/%s", c.protocol, address, action)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetHeader("X-Node-Address", c.self).
		SetFileReader("file", filename, file).
		SetFormData(fields).
		Post(url)
	if err != nil {
		return Response{Address: address, Err: fmt.Errorf("peer %s unreachable: %w", address, err)}
	}
	if resp.IsError() {
		return Response{
			Address: address,
			Err:     fmt.Errorf("peer %s answered %d: %s", address, resp.StatusCode(), resp.String()),
		}
	}

	return Response{Address: address, Body: resp.Body()}
}

func (c *Client) Broadcast(ctx context.Context, action string, body any) []Response {
	responses := make([]Response, len(c.peers))

	var wg sync.WaitGroup
	for i, peer := range c.peers {
		wg.Add(1)
		go func(i int, peer string) {
			defer wg.Done()
			responses[i] = c.Send(ctx, peer, action, body)
			if responses[i].Err != nil {
				c.logger.Warn("peer request failed",
					"action", action, "peer", peer, "error", responses[i].Err)
			}
		}(i, peer)
	}
	wg.Wait()

	return responses
}
