// Package recommend is the HTTP client for the remediation text generator.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gosuda/auditor/internal/domain"
)

// maxBody bounds how much of an upstream response is read.
const maxBody = 1 << 20

// Client posts recommendation requests to {baseURL}/recommendations.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client. A zero timeout means no client-side limit beyond ctx.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type requestBody struct {
	ChatHistoryID      string  `json:"chat_history_id"`
	RecommendationType string  `json:"recommendation_type"`
	ISOControl         *string `json:"iso_control,omitempty"`
}

type responseBody struct {
	RecommendationText string `json:"recommendation_text"`
}

// errorBody matches both {"code","message"} and {"detail"} style error payloads.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Recommend returns the generated text untouched. Any non-2xx response is a
// *domain.RemoteError carrying the upstream status.
func (c *Client) Recommend(ctx context.Context, req domain.RecommendationRequest) (string, error) {
	payload, err := json.Marshal(requestBody{
		ChatHistoryID:      req.ChatHistoryID,
		RecommendationType: string(req.RecommendationType),
		ISOControl:         req.ISOControl,
	})
	if err != nil {
		return "", fmt.Errorf("recommend.Recommend: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommendations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("recommend.Recommend: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", &domain.RemoteError{Status: http.StatusBadGateway, Code: "read_failed", Message: err.Error(), Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamError(resp.StatusCode, body)
	}

	var out responseBody
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &domain.RemoteError{Status: http.StatusBadGateway, Code: "bad_response", Message: "malformed recommendation response", Cause: err}
	}
	return out.RecommendationText, nil
}

func upstreamError(status int, body []byte) *domain.RemoteError {
	rerr := &domain.RemoteError{Status: status, Message: http.StatusText(status)}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		rerr.Code = eb.Code
		switch {
		case eb.Message != "":
			rerr.Message = eb.Message
		case eb.Detail != "":
			rerr.Message = eb.Detail
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		rerr.Message = text
	}
	return rerr
}

func transportError(err error) *domain.RemoteError {
	rerr := &domain.RemoteError{Status: http.StatusBadGateway, Code: "unreachable", Message: err.Error(), Cause: err}
	if errors.Is(err, context.DeadlineExceeded) {
		rerr.Status = http.StatusGatewayTimeout
		rerr.Code = "timeout"
	}
	return rerr
}
