// Package pvgis forwards photovoltaic yield estimates to the PVGIS pvcalc
// service.
package pvgis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultURL is the public PVGIS pvcalc endpoint.
const DefaultURL = "https://re.jrc.ec.europa.eu/api/pvcalc"

const maxResponseBytes = 10 << 20

var (
	// ErrUpstream is returned when PVGIS answers with a failure or an unreadable body.
	ErrUpstream = errors.New("estimation service error")

	// ErrTimeout is returned when PVGIS does not answer within the client timeout.
	ErrTimeout = errors.New("estimation service timed out")
)

// Params are the physical parameters of an estimate.
type Params struct {
	Lat       float64
	Lon       float64
	PeakPower float64 // kWp
	Loss      float64 // percent
}

// Estimator produces a yield estimate for a PV installation.
type Estimator interface {
	Estimate(ctx context.Context, p Params) (json.RawMessage, error)
}

// Client is an Estimator backed by the PVGIS HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for baseURL with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Estimate calls pvcalc with optimal inclination and azimuth and returns the
// JSON document unchanged.
func (c *Client) Estimate(ctx context.Context, p Params) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("lat", formatFloat(p.Lat))
	q.Set("lon", formatFloat(p.Lon))
	q.Set("peakpower", formatFloat(p.PeakPower))
	q.Set("loss", formatFloat(p.Loss))
	q.Set("outputformat", "json")
	q.Set("optimalinclination", "1")
	q.Set("optimalazimuth", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building pvgis request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUpstream)
	}

	return json.RawMessage(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
