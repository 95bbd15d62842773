// Package stealth shapes outbound scraping traffic: robots rules, request
// pacing, browser identities and proxy rotation.
package stealth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// DelayProfile names a pacing preset.
type DelayProfile string

const (
	ProfileCautious   DelayProfile = "cautious"
	ProfileNormal     DelayProfile = "normal"
	ProfileAggressive DelayProfile = "aggressive"
	ProfileOff        DelayProfile = "off"
)

// ParseDelayProfile validates a profile name; "" means normal.
func ParseDelayProfile(s string) (DelayProfile, error) {
	switch p := DelayProfile(s); p {
	case "":
		return ProfileNormal, nil
	case ProfileCautious, ProfileNormal, ProfileAggressive, ProfileOff:
		return p, nil
	default:
		return "", fmt.Errorf("unknown delay profile %q", s)
	}
}

// HumanDelay waits a random duration between MinDelay and MaxDelay.
type HumanDelay struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewHumanDelay returns the pause range for profile. The off profile never waits.
func NewHumanDelay(profile DelayProfile) *HumanDelay {
	switch profile {
	case ProfileCautious:
		return &HumanDelay{MinDelay: 3 * time.Second, MaxDelay: 8 * time.Second}
	case ProfileAggressive:
		return &HumanDelay{MinDelay: 300 * time.Millisecond, MaxDelay: time.Second}
	case ProfileOff:
		return &HumanDelay{}
	default:
		return &HumanDelay{MinDelay: time.Second, MaxDelay: 3 * time.Second}
	}
}

// FixedDelay always waits exactly d.
func FixedDelay(d time.Duration) *HumanDelay {
	return &HumanDelay{MinDelay: d, MaxDelay: d}
}

// Wait blocks for one pause or until ctx is done.
func (h *HumanDelay) Wait(ctx context.Context) error {
	d := h.RequestDelay()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestDelay draws the next pause.
func (h *HumanDelay) RequestDelay() time.Duration {
	if h.MinDelay >= h.MaxDelay {
		return h.MinDelay
	}
	return h.MinDelay + time.Duration(rand.Int64N(int64(h.MaxDelay-h.MinDelay)))
}
