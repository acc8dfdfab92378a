package bitshares

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"venuegw/internal/infra/metrics"
	"venuegw/internal/infra/network"
)

// rpcClient is the one-shot transport used during bootstrap: one HTTP POST
// per call, same envelope as the websocket.
type rpcClient struct {
	url  string
	http *http.Client
	next atomic.Uint64
}

func newRPCClient(url string) *rpcClient {
	return &rpcClient{url: url, http: network.NewHTTPClient()}
}

// call invokes method on the named api and decodes the result into out.
// The context bounds the whole exchange.
func (c *rpcClient) call(ctx context.Context, api, method string, args []any, out any) error {
	body, err := encodeCall(c.next.Add(1), api, method, args)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(Name, method).Inc()
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.APIErrorsTotal.WithLabelValues(Name, method).Inc()
		return fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, bytes.TrimSpace(raw))
	}
	f, kind, err := decodeFrame(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if kind != frameReply {
		return fmt.Errorf("%s: %w: not a reply", method, errMalformedFrame)
	}
	if f.Error != nil {
		metrics.APIErrorsTotal.WithLabelValues(Name, method).Inc()
		return fmt.Errorf("%s: %w", method, f.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(f.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}
