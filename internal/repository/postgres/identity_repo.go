package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-publicworks-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

// IdentityProvisioner creates or reactivates the durable account identity an
// approved applicant logs in with. Keyed by email: approving the same
// application twice reuses the existing row, so no duplicate identities can
// exist for one professional.
//
// Methods take a DBTX because provisioning always runs inside the transition
// engine's transaction; log writes are the caller's responsibility.
type IdentityProvisioner struct{}

func NewIdentityProvisioner() *IdentityProvisioner {
	return &IdentityProvisioner{}
}

// CreateOrActivate looks up the identity by email. When found, it refreshes
// the role and reactivates the account and returns the existing id — calling
// it N times for one email yields the same identity. When absent, it inserts
// a new active row, requiring the applicant's signup password hash.
func (p *IdentityProvisioner) CreateOrActivate(
	ctx context.Context,
	q DBTX,
	caps *Capabilities,
	kind domain.ApplicationKind,
	email, displayName, passwordHash string,
	actorID int64,
) (int64, error) {
	if !caps.Has(employeesTable) {
		return 0, domain.ErrTableMissing
	}

	var existingID int64
	err := q.QueryRow(ctx,
		`SELECT id FROM employees WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&existingID)

	if err == nil {
		fields := map[string]any{
			"role":       string(kind),
			"updated_at": time.Now(),
		}
		if caps.HasColumn(employeesTable, "account_status") {
			fields["account_status"] = domain.AccountActive
		}
		query, args := buildUpdate(employeesTable, fields, caps, existingID)
		if query != "" {
			if _, err := q.Exec(ctx, query, args...); err != nil {
				return 0, err
			}
		}
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// First approval for this email. The professional must have completed
	// self-service signup, otherwise there is no credential to provision.
	if passwordHash == "" {
		return 0, domain.ErrMissingCredential
	}

	firstName, lastName := SplitDisplayName(kind, displayName)

	now := time.Now()
	columns := `first_name, last_name, email, password, role, created_at, updated_at`
	placeholders := `$1, $2, $3, $4, $5, $6, $7`
	args := []any{firstName, lastName, email, passwordHash, string(kind), now, now}
	if caps.HasColumn(employeesTable, "account_status") {
		columns += `, account_status`
		placeholders += `, $8`
		args = append(args, domain.AccountActive)
	}

	var newID int64
	err = q.QueryRow(ctx,
		`INSERT INTO employees (`+columns+`) VALUES (`+placeholders+`) RETURNING id`,
		args...,
	).Scan(&newID)
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// Deactivate marks an identity inactive or suspended after a negative
// outcome, gated on the account_status column existing.
func (p *IdentityProvisioner) Deactivate(ctx context.Context, q DBTX, caps *Capabilities, employeeID int64, accountStatus string) error {
	if !caps.HasColumn(employeesTable, "account_status") {
		return nil
	}
	_, err := q.Exec(ctx,
		`UPDATE employees SET account_status = $1, updated_at = $2 WHERE id = $3`,
		accountStatus, time.Now(), employeeID,
	)
	return err
}

// SplitDisplayName splits a free-form applicant name into first/last tokens:
// whitespace-collapsed, the final token is the surname, the remainder the
// given name. A single-word contracting firm name gets the explicit
// "<name> Contractor" convention so companies acting as a single
// professional entity stay distinguishable in staff listings.
func SplitDisplayName(kind domain.ApplicationKind, displayName string) (string, string) {
	tokens := strings.Fields(displayName)
	if len(tokens) == 0 {
		return "", ""
	}

	var firstName, lastName string
	if len(tokens) == 1 {
		firstName = tokens[0]
		lastName = tokens[0]
	} else {
		firstName = strings.Join(tokens[:len(tokens)-1], " ")
		lastName = tokens[len(tokens)-1]
	}

	if kind == domain.KindContractor && firstName == lastName {
		firstName = strings.Join(tokens, " ")
		lastName = "Contractor"
	}
	return firstName, lastName
}
