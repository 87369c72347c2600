// Package feedrpc fetches price feed accounts from a Solana JSON-RPC node.
package feedrpc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/httpx"
)

// ErrAccountMissing is returned when the node has no account at the key.
var ErrAccountMissing = errors.New("feedrpc: account not found")

type Client struct {
	URL        string
	HTTP       *httpx.Client
	Commitment string
}

var _ application.FeedSource = (*Client)(nil)

func NewClient(url string, http *httpx.Client) *Client {
	return &Client{URL: url, HTTP: http, Commitment: "confirmed"}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResp struct {
	Result *struct {
		Value *struct {
			Data     []string `json:"data"`
			Lamports uint64   `json:"lamports"`
			Owner    string   `json:"owner"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error,omitempty"`
}

// Fetch returns the raw data of the account at key.
func (c *Client) Fetch(ctx context.Context, key domain.Identity) ([]byte, error) {
	if c.URL == "" || c.HTTP == nil {
		return nil, errors.New("feedrpc: missing configuration")
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAccountInfo",
		Params: []any{
			key.String(),
			map[string]string{"encoding": "base64", "commitment": c.Commitment},
		},
	}
	var body accountInfoResp
	if err := c.HTTP.PostJSON(ctx, c.URL, req, &body); err != nil {
		return nil, fmt.Errorf("feedrpc: getAccountInfo: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("feedrpc: %d %s", body.Error.Code, body.Error.Message)
	}
	if body.Result == nil || body.Result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountMissing, key)
	}
	v := body.Result.Value
	if len(v.Data) != 2 || v.Data[1] != "base64" {
		return nil, fmt.Errorf("feedrpc: unexpected data encoding for %s", key)
	}
	data, err := base64.StdEncoding.DecodeString(v.Data[0])
	if err != nil {
		return nil, fmt.Errorf("feedrpc: decode account data: %w", err)
	}
	return data, nil
}
