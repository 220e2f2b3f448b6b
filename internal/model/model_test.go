package model

import (
	"math"
	"testing"
	"time"
)

func TestComputePCR(t *testing.T) {
	tests := []struct {
		name   string
		putOI  int64
		callOI int64
		want   float64
	}{
		{"balanced", 1000, 1000, 1.0},
		{"put heavy", 1500, 1000, 1.5},
		{"rounds to two decimals", 1, 3, 0.33},
		{"rounds half up", 125, 100, 1.25},
		{"zero call OI falls back", 5000, 0, 1.0},
		{"negative call OI falls back", 5000, -10, 1.0},
		{"zero put OI", 0, 1000, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePCR(tt.putOI, tt.callOI)
			if got != tt.want {
				t.Errorf("ComputePCR(%d, %d) = %v, want %v", tt.putOI, tt.callOI, got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("ComputePCR(%d, %d) = %v, must be finite", tt.putOI, tt.callOI, got)
			}
		})
	}
}

func TestBucketRange(t *testing.T) {
	buckets, err := BucketRange("09:15", "09:20")
	if err != nil {
		t.Fatalf("BucketRange failed: %v", err)
	}

	want := []string{"09:15", "09:16", "09:17", "09:18", "09:19", "09:20"}
	if len(buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(want))
	}
	for i, b := range buckets {
		if b != want[i] {
			t.Errorf("bucket[%d] = %s, want %s", i, b, want[i])
		}
	}
}

func TestBucketRange_SingleMinute(t *testing.T) {
	buckets, err := BucketRange("10:00", "10:00")
	if err != nil {
		t.Fatalf("BucketRange failed: %v", err)
	}
	if len(buckets) != 1 || buckets[0] != "10:00" {
		t.Errorf("got %v, want [10:00]", buckets)
	}
}

func TestBucketRange_Inverted(t *testing.T) {
	if _, err := BucketRange("15:30", "09:15"); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestBucketRange_Malformed(t *testing.T) {
	if _, err := BucketRange("9am", "10am"); err == nil {
		t.Error("expected error for malformed bucket")
	}
}

func TestEpochMillis(t *testing.T) {
	ms, err := EpochMillis("2026-01-05", "09:15")
	if err != nil {
		t.Fatalf("EpochMillis failed: %v", err)
	}

	// 2026-01-05 09:15 IST == 03:45 UTC.
	want := time.Date(2026, 1, 5, 3, 45, 0, 0, time.UTC).UnixMilli()
	if ms != want {
		t.Errorf("EpochMillis = %d, want %d", ms, want)
	}
}

func TestBucketOf(t *testing.T) {
	// 04:00 UTC == 09:30 IST.
	instant := time.Date(2026, 1, 5, 4, 0, 30, 0, time.UTC)
	if got := BucketOf(instant); got != "09:30" {
		t.Errorf("BucketOf = %s, want 09:30", got)
	}
	if got := DateOf(instant); got != "2026-01-05" {
		t.Errorf("DateOf = %s, want 2026-01-05", got)
	}
}

func TestMinuteAlignedMillis(t *testing.T) {
	instant := time.Date(2026, 1, 5, 4, 0, 59, 500_000_000, time.UTC)
	want := time.Date(2026, 1, 5, 4, 0, 0, 0, time.UTC).UnixMilli()
	if got := MinuteAlignedMillis(instant); got != want {
		t.Errorf("MinuteAlignedMillis = %d, want %d", got, want)
	}
}
