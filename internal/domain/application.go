package domain

import (
	"context"
	"fmt"
	"time"
)

// ApplicationKind selects which professional registry an application targets.
type ApplicationKind string

const (
	KindEngineer   ApplicationKind = "engineer"
	KindContractor ApplicationKind = "contractor"
)

// ParseKind validates a kind taken from a route parameter. Unknown kinds are
// treated as a misrouted request (404), not a validation failure.
func ParseKind(s string) (ApplicationKind, error) {
	switch ApplicationKind(s) {
	case KindEngineer:
		return KindEngineer, nil
	case KindContractor:
		return KindContractor, nil
	}
	return "", fmt.Errorf("unknown application kind %q", s)
}

// Application status constants
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusVerified    = "verified"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusSuspended   = "suspended"
	StatusBlacklisted = "blacklisted" // contractor only
)

// AllowedStatuses returns the closed status set for the kind.
// Blacklisting applies to contracting firms only.
func (k ApplicationKind) AllowedStatuses() []string {
	statuses := []string{
		StatusPending, StatusUnderReview, StatusVerified,
		StatusApproved, StatusRejected, StatusSuspended,
	}
	if k == KindContractor {
		statuses = append(statuses, StatusBlacklisted)
	}
	return statuses
}

// IsNegativeStatus reports whether the status is a negative outcome, which
// always requires a stated reason.
func IsNegativeStatus(status string) bool {
	switch status {
	case StatusRejected, StatusSuspended, StatusBlacklisted:
		return true
	}
	return false
}

// Application is a professional-license application under review. Rows are
// created by the public submission flow and only ever mutated through the
// status transition engine; they are never physically deleted.
type Application struct {
	ID   int64           `json:"id"`
	Kind ApplicationKind `json:"kind"`

	// Name holds the engineer's full name or the contracting firm's
	// company name, depending on kind.
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone,omitempty"`
	Specialization  *string    `json:"specialization,omitempty"`
	Area            *string    `json:"area,omitempty"`
	LicenseNumber   *string    `json:"license_number,omitempty"`
	LicenseExpiry   *time.Time `json:"license_expiry,omitempty"`
	YearsExperience *int       `json:"years_experience,omitempty"`
	ExpertiseAreas  []string   `json:"expertise_areas,omitempty"`

	// PasswordHash is captured during self-service signup and consumed by
	// identity provisioning on approval. Never serialized.
	PasswordHash *string `json:"-"`

	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	BlacklistReason *string `json:"blacklist_reason,omitempty"`
	AdminRemarks    *string `json:"admin_remarks,omitempty"`

	UserID     *int64     `json:"user_id,omitempty"` // set once approved
	ApprovedBy *int64     `json:"approved_by,omitempty"`
	VerifiedBy *int64     `json:"verified_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ApplicationDocument is an upload attached to one application. Immutable
// once created; byte retrieval is served elsewhere.
type ApplicationDocument struct {
	ID               int64           `json:"id"`
	Kind             ApplicationKind `json:"kind"`
	ApplicationID    int64           `json:"application_id"`
	DocumentType     string          `json:"document_type"`
	StoragePath      string          `json:"storage_path"`
	OriginalFilename string          `json:"original_filename"`
	MimeType         string          `json:"mime_type"`
	SizeBytes        int64           `json:"size_bytes"`
	UploadedAt       time.Time       `json:"uploaded_at"`
}

// TransitionLogEntry is the append-only record of a status change. Entries
// are never updated or deleted; they are the sole historical truth for
// status changes.
type TransitionLogEntry struct {
	ID            int64           `json:"id"`
	ApplicantType ApplicationKind `json:"applicant_type"`
	ApplicationID int64           `json:"application_id"`
	Action        string          `json:"action"`
	ActorID       *int64          `json:"actor_id,omitempty"`
	Remarks       string          `json:"remarks"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ApplicationFilter narrows the admin list view.
type ApplicationFilter struct {
	Query          string `json:"query,omitempty"` // matches name, email, license number
	Status         string `json:"status,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Area           string `json:"area,omitempty"`
	DateSubmitted  string `json:"date_submitted,omitempty"` // YYYY-MM-DD
}

// ApplicationDetail bundles an application with its documents for the
// admin detail view.
type ApplicationDetail struct {
	Application *Application          `json:"application"`
	Documents   []ApplicationDocument `json:"documents"`
}

// StatusUpdateInput carries one requested transition. ActorID is the staff
// employee performing the change, threaded explicitly from the auth layer.
type StatusUpdateInput struct {
	NewStatus     string `json:"new_status" binding:"required"`
	AdminRemarks  string `json:"admin_remarks" binding:"omitempty,no_emoji"`
	Reason        string `json:"reason" binding:"omitempty,no_emoji"`
	ChecklistJSON string `json:"checklist_json"`
	ActorID       int64  `json:"-"`
}

// TransitionResult reports what the committed transition did.
type TransitionResult struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	// EmployeeID is the provisioned (or reused) identity on approval, 0 otherwise.
	EmployeeID int64 `json:"employee_id,omitempty"`
}

// ApplicationRepository provides read and field-level write access to
// per-kind application rows, their documents and transition logs.
type ApplicationRepository interface {
	FindByID(ctx context.Context, kind ApplicationKind, id int64) (*Application, error)
	List(ctx context.Context, kind ApplicationKind, filter ApplicationFilter) ([]Application, error)
	SummaryCounts(ctx context.Context, kind ApplicationKind) (map[string]int64, error)
	DocumentsFor(ctx context.Context, kind ApplicationKind, id int64) ([]ApplicationDocument, error)
	TransitionLogsFor(ctx context.Context, kind ApplicationKind, id int64) ([]TransitionLogEntry, error)
	ListByStatus(ctx context.Context, kind ApplicationKind, status string) ([]Application, error)
	UpdateFields(ctx context.Context, kind ApplicationKind, id int64, fields map[string]any) error
}

// TransitionRepository applies a validated status transition as one atomic
// unit: application row update, identity provisioning and profile sync on
// approval, identity deactivation on negative outcomes, and exactly one
// transition log append. Everything commits or everything rolls back.
type TransitionRepository interface {
	ApplyTransition(ctx context.Context, app *Application, input StatusUpdateInput) (*TransitionResult, error)
}

// ApplicationUsecase covers the read-only admin views.
type ApplicationUsecase interface {
	Summary(ctx context.Context, kind ApplicationKind) (map[string]int64, error)
	List(ctx context.Context, kind ApplicationKind, filter ApplicationFilter) ([]Application, error)
	Detail(ctx context.Context, kind ApplicationKind, id int64) (*ApplicationDetail, error)
	Logs(ctx context.Context, kind ApplicationKind, id int64) ([]TransitionLogEntry, error)
	UsersByStatus(ctx context.Context, kind ApplicationKind, status string) ([]Application, error)
}

// TransitionUsecase is the state machine over application statuses.
type TransitionUsecase interface {
	UpdateStatus(ctx context.Context, kind ApplicationKind, id int64, input StatusUpdateInput) (*TransitionResult, error)
}
