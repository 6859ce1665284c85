package service

import "time"

// Expiration policy values accepted on create.
const (
	ExpirationNever = "never"
	Expiration1h    = "1h"
	Expiration1d    = "1d"
	Expiration1w    = "1w"
)

// resolveExpiration maps a policy to an absolute expiration instant, or nil
// for "never". Unrecognized values fall back to "never" rather than erroring,
// preserving the original deployment's permissive behavior.
func resolveExpiration(policy string, now time.Time) *time.Time {
	var d time.Duration
	switch policy {
	case Expiration1h:
		d = time.Hour
	case Expiration1d:
		d = 24 * time.Hour
	case Expiration1w:
		d = 7 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(d)
	return &t
}
