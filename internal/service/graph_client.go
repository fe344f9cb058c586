package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/igscheduler/internal/transfer"
	"golang.org/x/oauth2"
)

// GraphClient speaks the Instagram content publishing endpoints of the Graph
// API. Every call is authenticated with the credential's bearer token.
type GraphClient struct {
	baseURL string
	client  *http.Client
}

func NewGraphClient(baseURL string, timeout time.Duration) *GraphClient {
	return &GraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *GraphClient) authorized(token string) *http.Client {
	return &http.Client{
		Timeout: g.client.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   g.client.Transport,
		},
	}
}

func (g *GraphClient) do(ctx context.Context, cred *transfer.Credential, method, path string, query url.Values, payload, out any) error {
	reqURL := g.baseURL + "/" + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.authorized(cred.AccessToken).Do(req)
	if err != nil {
		slog.Info(err.Error())
		return &GraphError{Message: fmt.Sprintf("request to instagram failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GraphError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("error reading instagram response: %v", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		graphErr := &GraphError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request to instagram failed with status %d", resp.StatusCode),
		}
		var errResp transfer.InstagramErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			graphErr.Message = errResp.Error.Message
			graphErr.Code = errResp.Error.Code
		}
		slog.Info("instagram error response", "path", path, "status", resp.StatusCode, "message", graphErr.Message)
		return graphErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &GraphError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("error parsing instagram response: %v", err)}
	}
	return nil
}

// CreateContainer creates a media container under the credential's account.
func (g *GraphClient) CreateContainer(ctx context.Context, cred *transfer.Credential, payload transfer.ContainerRequest) (string, error) {
	var result transfer.IDResponse
	if err := g.do(ctx, cred, http.MethodPost, cred.InstagramUserID+"/media", nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &GraphError{Message: "no media ID returned from Instagram"}
	}
	return result.ID, nil
}

func (g *GraphClient) ContainerStatus(ctx context.Context, cred *transfer.Credential, containerID string) (transfer.ContainerStatus, error) {
	var result transfer.ContainerStatusResponse
	query := url.Values{"fields": {"status_code"}}
	if err := g.do(ctx, cred, http.MethodGet, containerID, query, nil, &result); err != nil {
		return "", err
	}
	return result.StatusCode, nil
}

// PublishContainer commits a finished container and returns the new media id.
func (g *GraphClient) PublishContainer(ctx context.Context, cred *transfer.Credential, containerID string) (string, error) {
	var result transfer.IDResponse
	payload := transfer.PublishRequest{CreationID: containerID}
	if err := g.do(ctx, cred, http.MethodPost, cred.InstagramUserID+"/media_publish", nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &GraphError{Message: "no post ID returned from Instagram"}
	}
	return result.ID, nil
}

// PublishingLimit returns how many posts the account published in the current
// quota window and the window's total.
func (g *GraphClient) PublishingLimit(ctx context.Context, cred *transfer.Credential) (usage, total int, err error) {
	var result transfer.PublishingLimitResponse
	query := url.Values{"fields": {"quota_usage,config"}}
	if err := g.do(ctx, cred, http.MethodGet, cred.InstagramUserID+"/content_publishing_limit", query, nil, &result); err != nil {
		return 0, 0, err
	}
	if len(result.Data) == 0 {
		return 0, 0, nil
	}
	return result.Data[0].QuotaUsage, result.Data[0].Config.QuotaTotal, nil
}
