package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brayo-pip/aw-watcher-network/internal/watcher"
)

// Geolocator resolves a set of access points to a position.
type Geolocator interface {
	Geolocate(ctx context.Context, aps []AccessPoint) (Coordinates, error)
}

// WifiLocator implements watcher.LocationProvider by scanning access points,
// geolocating them and reverse geocoding the result.
type WifiLocator struct {
	scanner  Scanner
	geo      Geolocator
	reverser ReverseGeocoder
	logger   *slog.Logger
}

// NewWifiLocator creates a new WifiLocator.
func NewWifiLocator(scanner Scanner, geo Geolocator, reverser ReverseGeocoder, logger *slog.Logger) *WifiLocator {
	return &WifiLocator{
		scanner:  scanner,
		geo:      geo,
		reverser: reverser,
		logger:   logger.With("component", "locator"),
	}
}

func (l *WifiLocator) Name() string {
	return "wifi"
}

// Candidates returns one candidate per address the reverse geocoder knows for
// the position, in the geocoder's order. With no address the position is
// still returned as a single candidate with an empty address.
func (l *WifiLocator) Candidates(ctx context.Context) ([]watcher.Candidate, error) {
	aps, err := l.scanner.Scan(ctx)
	if err != nil {
		if errors.Is(err, ErrNoAccessPoints) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan access points: %w", err)
	}

	pos, err := l.geo.Geolocate(ctx, aps)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("geolocate %d access points: %w", len(aps), err)
	}

	addresses, err := l.reverser.Reverse(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if len(addresses) == 0 {
		l.logger.Debug("no address for position", "lat", pos.Latitude, "lng", pos.Longitude)
		addresses = []string{""}
	}

	candidates := make([]watcher.Candidate, 0, len(addresses))
	for _, addr := range addresses {
		candidates = append(candidates, watcher.Candidate{
			Longitude: pos.Longitude,
			Latitude:  pos.Latitude,
			Accuracy:  pos.Accuracy,
			Address:   addr,
		})
	}
	return candidates, nil
}
