package postgres

import (
	"context"
	"errors"
	"time"

	"go-publicworks-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

// profileField is one entry in the fixed source→target mapping between
// application fields and profile columns. Only columns present in the live
// schema are written.
type profileField struct {
	column string
	value  func(app *domain.Application) any
}

var engineerProfileFields = []profileField{
	{"full_name", func(a *domain.Application) any { return a.Name }},
	{"email", func(a *domain.Application) any { return a.Email }},
	{"contact_number", func(a *domain.Application) any { return a.Phone }},
	{"specialization", func(a *domain.Application) any { return a.Specialization }},
	{"area", func(a *domain.Application) any { return a.Area }},
	{"prc_license_number", func(a *domain.Application) any { return a.LicenseNumber }},
	{"license_expiry", func(a *domain.Application) any { return a.LicenseExpiry }},
	{"years_experience", func(a *domain.Application) any { return a.YearsExperience }},
}

var contractorProfileFields = []profileField{
	{"company_name", func(a *domain.Application) any { return a.Name }},
	{"email", func(a *domain.Application) any { return a.Email }},
	{"contact_number", func(a *domain.Application) any { return a.Phone }},
	{"specialization", func(a *domain.Application) any { return a.Specialization }},
	{"service_area", func(a *domain.Application) any { return a.Area }},
	{"pcab_license_number", func(a *domain.Application) any { return a.LicenseNumber }},
	{"license_expiry", func(a *domain.Application) any { return a.LicenseExpiry }},
	{"years_experience", func(a *domain.Application) any { return a.YearsExperience }},
}

// ProfileSyncer upserts the domain profile (engineer or contractor) from
// application data on approval. Best effort by design: a missing profile
// table is a silent no-op and missing optional columns are skipped, so
// profile sync can never block an approval on schema drift.
type ProfileSyncer struct{}

func NewProfileSyncer() *ProfileSyncer {
	return &ProfileSyncer{}
}

// Sync looks up the profile by email and updates it, or inserts a fresh row.
// When the columns exist it always links employee_id and reactivates the
// account.
func (s *ProfileSyncer) Sync(ctx context.Context, q DBTX, caps *Capabilities, app *domain.Application, employeeID int64) error {
	table := profileTable(app.Kind)
	if !caps.Has(table) {
		return nil
	}

	mapping := engineerProfileFields
	if app.Kind == domain.KindContractor {
		mapping = contractorProfileFields
	}

	fields := make(map[string]any, len(mapping)+2)
	for _, f := range mapping {
		fields[f.column] = f.value(app)
	}
	if caps.HasColumn(table, "account_status") {
		fields["account_status"] = domain.AccountActive
	}
	if caps.HasColumn(table, "employee_id") {
		fields["employee_id"] = employeeID
	}
	now := time.Now()
	fields["updated_at"] = now

	var existingID int64
	err := q.QueryRow(ctx,
		`SELECT id FROM `+table+` WHERE LOWER(email) = LOWER($1)`,
		app.Email,
	).Scan(&existingID)

	if err == nil {
		query, args := buildUpdate(table, fields, caps, existingID)
		if query == "" {
			return nil
		}
		_, err = q.Exec(ctx, query, args...)
		return err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	fields["created_at"] = now
	query, args := buildInsert(table, fields, caps)
	if query == "" {
		return nil
	}
	_, err = q.Exec(ctx, query, args...)
	return err
}
