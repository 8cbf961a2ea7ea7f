package entity

import "time"

// User is an actor in the approval workflow. IsFinance and IsDirector are
// capability flags orthogonal to Role: a manager may additionally sign off
// at the finance or director step.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	CompanyID  string    `json:"company_id"`
	ManagerID  string    `json:"manager_id,omitempty"`
	IsFinance  bool      `json:"is_finance"`
	IsDirector bool      `json:"is_director"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
