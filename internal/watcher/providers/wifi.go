package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/brayo-pip/aw-watcher-network/internal/common"
)

var (
	// ErrNoAccessPoints is returned when a scan sees no wireless networks.
	ErrNoAccessPoints = errors.New("no wifi access points visible")
	// ErrScannerUnavailable is returned when the scanning tool cannot run.
	ErrScannerUnavailable = errors.New("wifi scanner unavailable")
)

// AccessPoint is a visible wireless access point.
type AccessPoint struct {
	MACAddress     string `json:"macAddress"`
	SignalStrength int    `json:"signalStrength"`
	Channel        int    `json:"channel,omitempty"`
}

// Scanner lists the access points visible to the host.
type Scanner interface {
	Scan(ctx context.Context) ([]AccessPoint, error)
}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if errors.Is(err, exec.ErrNotFound) || common.HasAny(msg, "not running", "no wi-fi device", "not found") {
			return nil, fmt.Errorf("%w: %s: %v %s", ErrScannerUnavailable, name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w %s", name, err, msg)
	}
	return out, nil
}

// NmcliScanner scans through NetworkManager's command line client.
type NmcliScanner struct {
	run CommandRunner
}

// NewNmcliScanner creates a scanner that shells out to nmcli.
func NewNmcliScanner() *NmcliScanner {
	return &NmcliScanner{run: execRunner}
}

func (s *NmcliScanner) Scan(ctx context.Context) ([]AccessPoint, error) {
	out, err := s.run(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL,CHAN", "device", "wifi", "list")
	if err != nil {
		return nil, err
	}
	aps := parseNmcli(out)
	if len(aps) == 0 {
		return nil, ErrNoAccessPoints
	}
	return aps, nil
}

// parseNmcli reads nmcli terse output, where colons inside a field are
// escaped as "\:". Malformed lines are skipped.
func parseNmcli(out []byte) []AccessPoint {
	var aps []AccessPoint
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := splitTerse(line)
		if len(fields) != 3 {
			continue
		}
		signal, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		channel, _ := strconv.Atoi(fields[2])
		aps = append(aps, AccessPoint{
			MACAddress:     strings.ToLower(fields[0]),
			SignalStrength: qualityToDBm(signal),
			Channel:        channel,
		})
	}
	return aps
}

func splitTerse(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case line[i] == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	return append(fields, cur.String())
}

// qualityToDBm converts NetworkManager's 0-100 signal quality to dBm.
func qualityToDBm(q int) int {
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}
	return q/2 - 100
}
