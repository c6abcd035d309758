package opserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Client ходит в carrier-proxy сервер, который скрейпит сайты перевозчиков и
// отдаёт унифицированный parcel payload.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type envelope struct {
	Status string          `json:"status"`
	Parcel json.RawMessage `json:"parcel"`
}

func (c *Client) GetParcel(ctx context.Context, carrierID, trackingCode string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = fmt.Sprintf("/v1/parcel/%s/%s", url.PathEscape(carrierID), url.PathEscape(trackingCode))
	if c.apiKey != "" {
		q := u.Query()
		q.Set("apiKey", c.apiKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("carrier server http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	if env.Status != "ok" {
		return nil, fmt.Errorf("carrier server status=%s", env.Status)
	}
	if len(env.Parcel) == 0 {
		return nil, errors.New("carrier server returned no parcel")
	}

	return env.Parcel, nil
}
