package subtitles

import (
	"errors"
	"math"
	"math/rand"
	"regexp"
	"testing"
)

func TestFormatSRTTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.2346, "00:00:01,235"},
		{59.9994, "00:00:59,999"},
		{59.9996, "00:01:00,000"},
		{3661.5, "01:01:01,500"},
		{360000, "100:00:00,000"},
	}
	for _, tc := range cases {
		got, err := FormatSRTTimestamp(tc.seconds)
		if err != nil {
			t.Fatalf("FormatSRTTimestamp(%v) returned error: %v", tc.seconds, err)
		}
		if got != tc.want {
			t.Fatalf("FormatSRTTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatASSTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{3725.456, "1:02:05.46"},
		{59.999, "0:01:00.00"},
		{36000, "10:00:00.00"},
		{0.004, "0:00:00.00"},
		{0.006, "0:00:00.01"},
	}
	for _, tc := range cases {
		got, err := FormatASSTimestamp(tc.seconds)
		if err != nil {
			t.Fatalf("FormatASSTimestamp(%v) returned error: %v", tc.seconds, err)
		}
		if got != tc.want {
			t.Fatalf("FormatASSTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTimestampFormattersRejectInvalidInput(t *testing.T) {
	for _, value := range []float64{-0.001, -10, math.NaN(), math.Inf(1), math.Inf(-1), 1e16, 1e20, math.MaxFloat64} {
		if out, err := FormatSRTTimestamp(value); err == nil || out != "" {
			t.Fatalf("expected SRT formatter to reject %v, got %q, %v", value, out, err)
		} else if !errors.Is(err, ErrInvalidTiming) {
			t.Fatalf("expected ErrInvalidTiming for %v, got %v", value, err)
		}
		if out, err := FormatASSTimestamp(value); err == nil || out != "" {
			t.Fatalf("expected ASS formatter to reject %v, got %q, %v", value, out, err)
		} else if !errors.Is(err, ErrInvalidTiming) {
			t.Fatalf("expected ErrInvalidTiming for %v, got %v", value, err)
		}
	}
}

func TestSRTTimestampRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := []float64{0, 0.0004, 0.0005, 0.999, 59.9995, 3599.9999, 86399.123}
	for i := 0; i < 5000; i++ {
		values = append(values, rng.Float64()*400000)
	}
	for _, d := range values {
		formatted, err := FormatSRTTimestamp(d)
		if err != nil {
			t.Fatalf("format %v: %v", d, err)
		}
		parsed, err := ParseSRTTimestamp(formatted)
		if err != nil {
			t.Fatalf("parse %q: %v", formatted, err)
		}
		if math.Abs(parsed-d) > 0.001 {
			t.Fatalf("round trip drift for %v: formatted %q parsed %v", d, formatted, parsed)
		}
	}
}

func TestASSTimestampShape(t *testing.T) {
	pattern := regexp.MustCompile(`^(0|[1-9][0-9]*):[0-5][0-9]:[0-5][0-9]\.[0-9]{2}$`)
	rng := rand.New(rand.NewSource(7))
	values := []float64{0, 9.995, 599.999, 3599.996, 35999.99}
	for i := 0; i < 5000; i++ {
		values = append(values, rng.Float64()*200000)
	}
	for _, d := range values {
		got, err := FormatASSTimestamp(d)
		if err != nil {
			t.Fatalf("format %v: %v", d, err)
		}
		if !pattern.MatchString(got) {
			t.Fatalf("unexpected ASS timestamp shape for %v: %q", d, got)
		}
	}
}

func TestParseSRTTimestampRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "00:00:01", "00:00,500", "aa:bb:cc,ddd", "00:61:00,000", "00:00:00,1000"} {
		if _, err := ParseSRTTimestamp(value); err == nil {
			t.Fatalf("expected error parsing %q", value)
		}
	}
	got, err := ParseSRTTimestamp("01:02:03.004")
	if err != nil {
		t.Fatalf("expected period separator to parse: %v", err)
	}
	if math.Abs(got-3723.004) > 1e-9 {
		t.Fatalf("unexpected parse result %v", got)
	}
}
