package output

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     string
	}{
		{"empty", 0, "[          ]"},
		{"half", 0.5, "[====>     ]"},
		{"full", 1, "[=========>]"},
		{"clamped high", 3, "[=========>]"},
		{"clamped low", -1, "[          ]"},
		{"nan", math.NaN(), "[          ]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderBar(tt.fraction, 10); got != tt.want {
				t.Errorf("RenderBar(%v) = %q, want %q", tt.fraction, got, tt.want)
			}
		})
	}
}

func TestProgressBar_NonTTYOneLinePerPercentage(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress("wget")
	p.SetWriter(&buf)
	p.SetWidth(10)

	p.Set(0.25)
	p.Set(0.25)
	p.Set(0.251)
	p.Set(math.NaN())
	p.Set(1.5)
	p.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], " 25% wget") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "100% wget") {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestProgressBar_SetDescription(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress("queued")
	p.SetWriter(&buf)

	p.SetDescription("installing wget")
	p.Set(0.1)

	if !strings.Contains(buf.String(), "installing wget") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinner_NonTTYPrintsOnce(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Searching")
	s.SetWriter(&buf)

	s.Start()
	s.Start()
	s.StopWithMessage("done")
	s.Stop()

	if got := buf.String(); got != "Searching...\ndone\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSpinner_FormatMessageRemaining(t *testing.T) {
	s := NewSpinner("Loading").WithTimeout(30 * time.Second)
	s.startTime = time.Now()

	msg := s.formatMessage()
	if !strings.Contains(msg, "remaining") {
		t.Errorf("formatMessage() = %q, want remaining time", msg)
	}
}
