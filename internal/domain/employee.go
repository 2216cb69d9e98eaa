package domain

import "time"

// Account status constants for provisioned identities
const (
	AccountActive    = "active"
	AccountInactive  = "inactive"
	AccountSuspended = "suspended"
)

// Employee is the durable account identity an approved applicant logs in
// with. Unique by email. Created or reactivated by identity provisioning;
// never deleted by this service.
type Employee struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`    // bcrypt hash from self-service signup
	Role          string    `json:"role"` // engineer or contractor
	AccountStatus string    `json:"account_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
