/*
eligibility.go - Next-eligible-donation-date calculator

PURPOSE:
  Pure date arithmetic for the donation eligibility window. A donor must
  wait RecoveryMonths calendar months after their most recent donation
  before donating again.

MONTH-END OVERFLOW:
  AddDate normalizes overflowing dates instead of clamping them:
  Nov 30 + 3 months = Feb 30 = Mar 1 or Mar 2 depending on leap year,
  and Jan 31 + 3 months = Apr 31 = May 1. This matches the behavior the
  registry has always had and is pinned down in eligibility_test.go, so a
  change of date library would be caught rather than silently shifting
  eligibility windows.

SEE ALSO:
  - ledger.go: derives summary fields with these functions
  - eligibility_test.go: overflow and granularity cases
*/
package donor

import "time"

// RecoveryMonths is the eligibility window after a donation, in calendar
// months.
const RecoveryMonths = 3

// NextEligibleDate returns the first date the donor may donate again after
// a donation on last. A nil last (no donations ever recorded) means no
// restriction, so the result is nil too.
func NextEligibleDate(last *time.Time) *time.Time {
	if last == nil {
		return nil
	}
	next := truncateToDay(*last).AddDate(0, RecoveryMonths, 0)
	return &next
}

// IsEligibleNow reports whether a donor with the given next-eligible date
// may donate on now's calendar day. A nil next means the donor has never
// donated and is always eligible. Comparison is at day granularity: a donor
// becomes eligible at midnight of the next-eligible date.
func IsEligibleNow(next *time.Time, now time.Time) bool {
	if next == nil {
		return true
	}
	return !truncateToDay(*next).After(truncateToDay(now))
}
