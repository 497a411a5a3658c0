package reminder

import (
	"fmt"
	"time"
)

// MonthKey identifies one monthly rent obligation.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Compact is the YYYYMM form used in callback payloads.
func (k MonthKey) Compact() string {
	return fmt.Sprintf("%04d%02d", k.Year, int(k.Month))
}

// ParseMonthKey parses the Compact form.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("200601", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// RentObligation is the paid flag of one month. There is exactly one per
// MonthKey; a month without a stored record is unpaid.
type RentObligation struct {
	Key  MonthKey
	Paid bool
}
