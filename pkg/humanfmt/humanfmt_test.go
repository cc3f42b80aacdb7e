package humanfmt

import (
	"testing"
	"time"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1572864, "1.50 MiB"},
		{1073741824, "1.00 GiB"},
		{1649267441664, "1.50 TiB"},
		{-100, "-100 B"},
	}

	for _, tt := range tests {
		got := Bytes(tt.input)
		if got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGB(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0.00 GB"},
		{GiB, "1.00 GB"},
		{9126805504, "8.50 GB"},
	}

	for _, tt := range tests {
		if got := GB(tt.input); got != tt.want {
			t.Errorf("GB(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMB(t *testing.T) {
	if got := MB(100 * MiB); got != "100.0 MB" {
		t.Errorf("MB(100MiB) = %q, want %q", got, "100.0 MB")
	}
	if got := MB(MiB + MiB/2); got != "1.5 MB" {
		t.Errorf("MB(1.5MiB) = %q, want %q", got, "1.5 MB")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0µs"},
		{500 * time.Microsecond, "500µs"},
		{1 * time.Millisecond, "1.0ms"},
		{1230 * time.Millisecond, "1.23s"},
		{60 * time.Second, "1m"},
		{90 * time.Second, "1m30s"},
		{3600 * time.Second, "1h"},
		{8100 * time.Second, "2h15m"},
	}

	for _, tt := range tests {
		got := Duration(tt.input)
		if got != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
