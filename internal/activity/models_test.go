package activity

import (
	"testing"
	"time"
)

func TestMergeHeartbeat(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data := map[string]any{"location": "-122.4194,37.7749", "address": "San Francisco"}
	last := NewEvent(base, 10*time.Second, data)

	tests := []struct {
		name      string
		hb        Event
		pulsetime time.Duration
		merged    bool
		duration  float64
	}{
		{
			name:      "gap within pulsetime",
			hb:        NewEvent(base.Add(15*time.Second), 10*time.Second, data),
			pulsetime: 10 * time.Second,
			merged:    true,
			duration:  25,
		},
		{
			name:      "gap exactly pulsetime",
			hb:        NewEvent(base.Add(20*time.Second), 10*time.Second, data),
			pulsetime: 10 * time.Second,
			merged:    true,
			duration:  30,
		},
		{
			name:      "gap beyond pulsetime",
			hb:        NewEvent(base.Add(21*time.Second), 10*time.Second, data),
			pulsetime: 10 * time.Second,
			merged:    false,
		},
		{
			name:      "different data",
			hb:        NewEvent(base.Add(5*time.Second), 10*time.Second, map[string]any{"location": "0,0", "address": ""}),
			pulsetime: 10 * time.Second,
			merged:    false,
		},
		{
			name:      "heartbeat before last start",
			hb:        NewEvent(base.Add(-time.Second), 10*time.Second, data),
			pulsetime: 10 * time.Second,
			merged:    false,
		},
		{
			name:      "heartbeat inside last keeps end",
			hb:        NewEvent(base.Add(2*time.Second), 0, data),
			pulsetime: 10 * time.Second,
			merged:    true,
			duration:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MergeHeartbeat(last, tt.hb, tt.pulsetime)
			if ok != tt.merged {
				t.Fatalf("expected merged=%v, got %v", tt.merged, ok)
			}
			if !ok {
				return
			}
			if !got.Timestamp.Equal(base) {
				t.Fatalf("merged event must keep start %v, got %v", base, got.Timestamp)
			}
			if got.Duration != tt.duration {
				t.Fatalf("expected duration %v, got %v", tt.duration, got.Duration)
			}
		})
	}
}

func TestNewEventNormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ev := NewEvent(time.Date(2024, 5, 1, 15, 0, 0, 0, loc), 10*time.Second, nil)
	if ev.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", ev.Timestamp.Location())
	}
	if ev.Duration != 10 {
		t.Fatalf("expected 10s duration, got %v", ev.Duration)
	}
}
