package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// ReverseGeocoder turns coordinates into human-readable addresses, best first.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c Coordinates) ([]string, error)
}

// geocoderMu guards the geocoder package's global API key.
var geocoderMu sync.Mutex

// GoogleReverseGeocoder resolves addresses with the Google Geocoding API.
type GoogleReverseGeocoder struct {
	apiKey string
}

// NewGoogleReverseGeocoder creates a reverse geocoder using apiKey.
func NewGoogleReverseGeocoder(apiKey string) *GoogleReverseGeocoder {
	return &GoogleReverseGeocoder{apiKey: apiKey}
}

func (g *GoogleReverseGeocoder) Reverse(ctx context.Context, c Coordinates) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	geocoderMu.Lock()
	geocoder.ApiKey = g.apiKey
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	})
	geocoderMu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		formatted := strings.TrimSpace(a.FormattedAddress)
		if formatted == "" {
			formatted = strings.TrimSpace(a.FormatAddress())
		}
		if formatted != "" {
			out = append(out, formatted)
		}
	}
	return out, nil
}
