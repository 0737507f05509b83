package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
)

// Client talks to a remote decryption service over HTTP. The wire
// request re-serializes the signed authorization alongside the pairs
// so the backend verifies the same signature the registry did.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type wireRequest struct {
	Pairs           []Pair   `json:"pairs"`
	Requester       string   `json:"requester"`
	Contracts       []string `json:"contracts"`
	EphemeralKey    string   `json:"ephemeral_key"`
	StartUnix       int64    `json:"start_unix"`
	DurationSeconds int64    `json:"duration_s"`
	Signature       string   `json:"signature"`
}

func (c *Client) Decrypt(ctx context.Context, req Request) (map[seal.Handle]Ticket, error) {
	auth := req.Authorization

	contracts := make([]string, 0, len(auth.Contracts))
	for _, addr := range auth.Contracts {
		contracts = append(contracts, addr.String())
	}

	body, err := json.Marshal(wireRequest{
		Pairs:           req.Pairs,
		Requester:       auth.Requester.String(),
		Contracts:       contracts,
		EphemeralKey:    auth.EphemeralKey.String(),
		StartUnix:       auth.Start.Unix(),
		DurationSeconds: int64(auth.Duration / time.Second),
		Signature:       auth.Signature.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode decrypt request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/user-decrypt", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("decryption backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("decryption backend returned %d", resp.StatusCode)
	}

	var out struct {
		Tickets map[seal.Handle]Ticket `json:"tickets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode decrypt response: %w", err)
	}
	return out.Tickets, nil
}
