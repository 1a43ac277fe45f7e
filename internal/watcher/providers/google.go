package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/brayo-pip/aw-watcher-network/internal/common"
)

// ErrNotFound is returned when the geolocation service has no fix for the
// submitted access points.
var ErrNotFound = errors.New("location not found")

// Coordinates is a position with its accuracy radius in meters.
type Coordinates struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// GoogleGeolocator resolves access points through the Google Geolocation API.
type GoogleGeolocator struct {
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewGoogleGeolocator creates a geolocator. Requests are attempted once per
// call; the circuit breaker keeps a failing API from being hammered.
func NewGoogleGeolocator(client *http.Client, apiKey string) *GoogleGeolocator {
	return &GoogleGeolocator{
		apiKey:  apiKey,
		baseURL: "https://www.googleapis.com/geolocation/v1/geolocate",
		httpCfg: common.HTTPClientConfig{Client: client},
		circuit: common.NewBreaker("google-geolocation"),
	}
}

func (g *GoogleGeolocator) Geolocate(ctx context.Context, aps []AccessPoint) (Coordinates, error) {
	if g.apiKey == "" {
		return Coordinates{}, fmt.Errorf("google api key is not configured")
	}

	payload, err := json.Marshal(struct {
		ConsiderIP       bool          `json:"considerIp"`
		WifiAccessPoints []AccessPoint `json:"wifiAccessPoints"`
	}{
		ConsiderIP:       false,
		WifiAccessPoints: aps,
	})
	if err != nil {
		return Coordinates{}, err
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", g.apiKey)

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := common.DoRequest(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Coordinates{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Coordinates{}, fmt.Errorf("geolocate: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		Accuracy float64 `json:"accuracy"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Coordinates{}, fmt.Errorf("decode geolocation response: %w", err)
	}

	return Coordinates{
		Latitude:  out.Location.Lat,
		Longitude: out.Location.Lng,
		Accuracy:  out.Accuracy,
	}, nil
}
