package payment

import "time"

type EventKind string

const (
	KindCurrencyTopup       EventKind = "currency_topup"
	KindSubscriptionUpgrade EventKind = "subscription_upgrade"
)

// SettlementEvent is a payment-provider confirmation after signature
// verification. SessionID doubles as the idempotency key: redeliveries
// carry the same id and must settle at most once.
type SettlementEvent struct {
	SessionID  string    `json:"session_id"`
	UserID     int       `json:"user_id"`
	Kind       EventKind `json:"kind"`
	CoinAmount int64     `json:"coin_amount,omitempty"`
	PlanID     string    `json:"plan_id,omitempty"`
}

type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Days        int    `json:"days"`
	BonusNovels int    `json:"bonus_novels"`
}

// The yearly plan additionally grants the two most-viewed novels the
// subscriber does not already own.
func getPlans() []Plan {
	return []Plan{
		{ID: "monthly", Name: "Premium Monthly", Price: 500, Days: 30},
		{ID: "quarterly", Name: "Premium Quarterly", Price: 1350, Days: 90},
		{ID: "half_yearly", Name: "Premium Half-Yearly", Price: 2500, Days: 182},
		{ID: "yearly", Name: "Premium Yearly", Price: 4500, Days: 365, BonusNovels: 2},
	}
}

func findPlan(planID string) (Plan, bool) {
	for _, p := range getPlans() {
		if p.ID == planID {
			return p, true
		}
	}
	return Plan{}, false
}

func (p Plan) ExpiryFrom(start time.Time) time.Time {
	return start.AddDate(0, 0, p.Days)
}
