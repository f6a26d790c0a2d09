package recur

import (
	"testing"

	"kanri/internal/model"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current string
		rule    model.RecurrenceRule
		want    string
	}{
		{"daily", "2026-03-10", model.RecurDaily, "2026-03-11"},
		{"daily across month end", "2026-01-31", model.RecurDaily, "2026-02-01"},
		{"weekdays from friday skips weekend", "2026-01-09", model.RecurWeekdays, "2026-01-12"},
		{"weekdays from saturday", "2026-01-10", model.RecurWeekdays, "2026-01-12"},
		{"weekdays midweek", "2026-01-06", model.RecurWeekdays, "2026-01-07"},
		{"weekly", "2026-01-05", model.RecurWeekly, "2026-01-12"},
		{"biweekly", "2026-01-05", model.RecurBiweekly, "2026-01-19"},
		{"monthly", "2026-03-15", model.RecurMonthly, "2026-04-15"},
		{"monthly clamps to month end", "2026-01-30", model.RecurMonthly, "2026-02-28"},
		{"monthly clamp on the 31st", "2026-08-31", model.RecurMonthly, "2026-09-30"},
		{"monthly december wraps year", "2026-12-15", model.RecurMonthly, "2027-01-15"},
		{"yearly", "2026-05-01", model.RecurYearly, "2027-05-01"},
		{"yearly leap day clamps", "2028-02-29", model.RecurYearly, "2029-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.rule)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if got != tt.want {
				t.Errorf("Next(%s, %s) = %s, want %s", tt.current, tt.rule, got, tt.want)
			}
		})
	}
}

func TestNext_BadInput(t *testing.T) {
	if _, err := Next("not-a-date", model.RecurDaily); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := Next("2026-01-01", model.RecurrenceRule("hourly")); err == nil {
		t.Error("expected error for unknown rule")
	}
}
