// Package render selects and runs the rendering strategy for streaming
// message content. While a block streams, rendering cost must stay bounded
// regardless of how much content has accumulated; once the stream completes,
// a single full-fidelity pass restores markdown rendering.
package render

import (
	"runtime"
	"time"

	"github.com/muesli/termenv"
)

// Tier is a coarse classification of the client's rendering capacity.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseTier parses a config override. Empty and "auto" mean no override.
func ParseTier(s string) (Tier, bool) {
	switch s {
	case "low":
		return TierLow, true
	case "medium":
		return TierMedium, true
	case "high":
		return TierHigh, true
	default:
		return 0, false
	}
}

// DetectTier classifies the host once at startup from CPU core count and
// terminal color capability. An explicit override wins.
func DetectTier(override string, profile termenv.Profile) Tier {
	if t, ok := ParseTier(override); ok {
		return t
	}

	// A 16-color or monochrome terminal caps at low: the richer strategies
	// buy nothing without styled output, whatever the CPU looks like.
	if profile == termenv.Ascii || profile == termenv.ANSI {
		return TierLow
	}

	switch cores := runtime.NumCPU(); {
	case cores >= 8:
		return TierHigh
	case cores >= 4:
		return TierMedium
	default:
		return TierLow
	}
}

// ThrottleInterval is the text commit cadence for the tier.
func (t Tier) ThrottleInterval() time.Duration {
	switch t {
	case TierHigh:
		return 16 * time.Millisecond
	case TierMedium:
		return 33 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}
