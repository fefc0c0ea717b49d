// Package timezone resolves the civil timezone CashBarber schedules in.
package timezone

import "time"

const (
	DefaultTimezone = "America/Sao_Paulo"

	// Sao Paulo has observed no daylight saving since 2019.
	saoPauloOffset = -3 * 60 * 60
)

// Location loads tz, falling back to the default zone and finally to a fixed
// UTC-3 zone when the host has no tzdata.
func Location(tz string) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return Fixed()
}

// Fixed returns the UTC-3 zone used when tzdata is unavailable.
func Fixed() *time.Location {
	return time.FixedZone(DefaultTimezone, saoPauloOffset)
}

// IsValid reports whether tz names a loadable location. The default zone is
// always valid since Location can fall back to Fixed.
func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	if tz == DefaultTimezone {
		return true
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
