package billing

import (
	"testing"

	"github.com/stripe/stripe-go/v74"
)

func TestEntitlingStatus(t *testing.T) {
	tests := []struct {
		status stripe.SubscriptionStatus
		want   bool
	}{
		{status: stripe.SubscriptionStatusActive, want: true},
		{status: stripe.SubscriptionStatusTrialing, want: true},
		{status: stripe.SubscriptionStatusPastDue, want: true},
		{status: stripe.SubscriptionStatusCanceled, want: false},
		{status: stripe.SubscriptionStatusUnpaid, want: false},
		{status: stripe.SubscriptionStatusIncomplete, want: false},
		{status: stripe.SubscriptionStatusIncompleteExpired, want: false},
	}

	for _, tt := range tests {
		if got := entitlingStatus(tt.status); got != tt.want {
			t.Fatalf("entitlingStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
