package domain

import "time"

// UnlimitedQuota is the sentinel limit meaning unconstrained usage.
const UnlimitedQuota = -1

// QuotaPeriod is the rolling window after which per-category usage resets.
const QuotaPeriod = 30 * 24 * time.Hour

// QuotaRecord tracks per-user, per-category usage against a rolling period.
// Mutated only by the quota ledger.
type QuotaRecord struct {
	UserID      string
	Category    Category
	PeriodStart time.Time
	Used        int
	Limit       int
}

// Expired reports whether the record's period has elapsed at the given time.
func (r QuotaRecord) Expired(now time.Time) bool {
	return now.Sub(r.PeriodStart) >= QuotaPeriod
}

// Unlimited reports whether the record carries the unconstrained sentinel.
func (r QuotaRecord) Unlimited() bool {
	return r.Limit == UnlimitedQuota
}

// Remaining returns the usage headroom, floored at zero. Unlimited records
// report the sentinel.
func (r QuotaRecord) Remaining() int {
	if r.Unlimited() {
		return UnlimitedQuota
	}
	if rem := r.Limit - r.Used; rem > 0 {
		return rem
	}
	return 0
}

// QuotaStat is the read-only view returned to API consumers.
type QuotaStat struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}
