package domain

import "time"

// IsPolicyActive reports whether a policy covers the instant now:
// status is active and now lies inside [start, end].
func IsPolicyActive(status PolicyStatus, start, end, now time.Time) bool {
	return status == PolicyActive && !now.Before(start) && !now.After(end)
}

// IsPolicyLapsed reports whether an active policy has passed its end date
// and should be reconciled to expired.
func IsPolicyLapsed(status PolicyStatus, end, now time.Time) bool {
	return status == PolicyActive && end.Before(now)
}

// ExpiryWindow returns the [from, to] range used to find policies ending within days of now
func ExpiryWindow(now time.Time, days int) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, days)
}
