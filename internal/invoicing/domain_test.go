package invoicing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	cases := []struct {
		name    string
		status  PaymentStatus
		dueDate time.Time
		want    bool
	}{
		{"pending past due", StatusPending, past, true},
		{"partial past due", StatusPartial, past, true},
		{"pending due in future", StatusPending, future, false},
		{"pending due right now", StatusPending, now, false},
		{"paid past due", StatusPaid, past, false},
		{"cancelled past due", StatusCancelled, past, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &Invoice{Status: tc.status, DueDate: tc.dueDate}
			require.Equal(t, tc.want, inv.IsOverdue(now))
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	inv := &Invoice{Status: StatusPending, DueDate: now.AddDate(0, 0, -1)}
	require.Equal(t, StatusOverdue, inv.EffectiveStatus(now))

	inv.Status = StatusPaid
	require.Equal(t, StatusPaid, inv.EffectiveStatus(now))
}

func TestDueDateFor(t *testing.T) {
	issue := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	require.Equal(t, issue, DueDateFor(issue, TermsImmediate))
	require.Equal(t, issue.AddDate(0, 0, 15), DueDateFor(issue, Terms15Days))
	require.Equal(t, issue.AddDate(0, 0, 30), DueDateFor(issue, Terms30Days))
	require.Equal(t, issue.AddDate(0, 0, 90), DueDateFor(issue, Terms90Days))
}

func TestCloneKeepsCustomPaymentWindow(t *testing.T) {
	issue := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	inv := &Invoice{
		Series:       "FAC",
		UserID:       7,
		IssueDate:    issue,
		DueDate:      issue.AddDate(0, 0, 21),
		PaymentTerms: TermsCustom,
		Status:       StatusPaid,
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	dup := inv.Clone(now)
	require.Equal(t, now, dup.IssueDate)
	require.Equal(t, now.AddDate(0, 0, 21), dup.DueDate)

	// derived terms still recompute from the new issue date
	inv.PaymentTerms = Terms15Days
	dup = inv.Clone(now)
	require.Equal(t, now.AddDate(0, 0, 15), dup.DueDate)
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{
		From: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	require.True(t, r.Contains(r.From))
	require.True(t, r.Contains(r.To))
	require.True(t, r.Contains(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	require.False(t, r.Contains(r.From.AddDate(0, 0, -1)))
	require.False(t, r.Contains(r.To.AddDate(0, 0, 1)))
}
