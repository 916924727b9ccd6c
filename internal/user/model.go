package user

import "time"

const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"

	PlanFree = "free"

	SubscriptionActive = "active"
)

type User struct {
	ID                 int        `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	Role               string     `db:"role" json:"role"`
	SubscriptionPlan   string     `db:"subscription_plan" json:"subscription_plan"`
	SubscriptionStatus string     `db:"subscription_status" json:"subscription_status"`
	SubscribedAt       *time.Time `db:"subscribed_at" json:"subscribed_at,omitempty"`
	SubscriptionEnd    *time.Time `db:"subscription_end" json:"subscription_end,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// HasPaidSubscription reports whether the user is on an active non-free
// plan that has not yet expired.
func (u *User) HasPaidSubscription(now time.Time) bool {
	if u.SubscriptionPlan == "" || u.SubscriptionPlan == PlanFree {
		return false
	}
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	if u.SubscriptionEnd == nil || u.SubscriptionEnd.Before(now) {
		return false
	}
	return true
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}
