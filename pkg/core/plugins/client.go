package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
)

// GatewayClient executes gateway payloads against the external gateway
// service, which performs the actual upstream HTTP call.
type GatewayClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewGatewayClient creates a client for the gateway at baseURL,
// authenticating every dispatch with token.
func NewGatewayClient(baseURL, token string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Execute posts one payload to the gateway and returns the upstream
// response body verbatim. The gateway relays the upstream body without
// reshaping it, so the model sees exactly what the plugin produced.
func (c *GatewayClient) Execute(ctx context.Context, payload *types.GatewayPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", core.NewDispatchError(fmt.Sprintf("encode gateway payload: %v", err))
	}

	endpoint := c.baseURL + "/gateway?token=" + url.QueryEscape(c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", core.NewDispatchError(fmt.Sprintf("build gateway request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", core.NewDispatchError(fmt.Sprintf("gateway unreachable: %v", err))
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", core.NewDispatchError(fmt.Sprintf("read gateway response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", &core.Error{
			Type:       core.ErrDispatch,
			Message:    fmt.Sprintf("gateway rejected dispatch: %s", string(out)),
			StatusCode: resp.StatusCode,
		}
	}
	return string(out), nil
}
