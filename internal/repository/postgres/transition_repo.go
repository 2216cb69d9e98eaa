package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-publicworks-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transitionRepo struct {
	db         *pgxpool.Pool
	probe      *SchemaProbe
	identities *IdentityProvisioner
	profiles   *ProfileSyncer
}

// NewTransitionRepository wires the transactional transition engine backend.
func NewTransitionRepository(db *pgxpool.Pool, probe *SchemaProbe, identities *IdentityProvisioner, profiles *ProfileSyncer) domain.TransitionRepository {
	return &transitionRepo{
		db:         db,
		probe:      probe,
		identities: identities,
		profiles:   profiles,
	}
}

// ApplyTransition runs one status transition as a single transaction:
// application row update, identity provisioning and profile sync when
// approving, identity deactivation on negative outcomes, and exactly one
// status log append. Any failure rolls the whole unit back.
//
// The application row is re-read with FOR UPDATE inside the transaction, so
// concurrent transitions on the same id serialize instead of racing.
func (r *transitionRepo) ApplyTransition(ctx context.Context, app *domain.Application, input domain.StatusUpdateInput) (*domain.TransitionResult, error) {
	table := applicationTable(app.Kind)
	caps, err := r.probe.Snapshot(ctx, []string{table, employeesTable, profileTable(app.Kind), logTable})
	if err != nil {
		return nil, err
	}
	if !caps.Has(table) || !caps.Has(logTable) {
		return nil, domain.ErrTableMissing
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Reload the volatile fields under a row lock; the snapshot the caller
	// validated against may be stale by now.
	var (
		oldStatus    string
		userID       *int64
		passwordHash *string
		email, name  string
	)
	query := fmt.Sprintf(`SELECT status, user_id, password, email, %s FROM %s WHERE id = $1 FOR UPDATE`,
		nameColumn(app.Kind), table)
	err = tx.QueryRow(ctx, query, app.ID).Scan(&oldStatus, &userID, &passwordHash, &email, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	result := &domain.TransitionResult{
		OldStatus: oldStatus,
		NewStatus: input.NewStatus,
	}

	if input.NewStatus == domain.StatusApproved {
		hash := ""
		if passwordHash != nil {
			hash = *passwordHash
		}
		employeeID, err := r.identities.CreateOrActivate(ctx, tx, caps, app.Kind, email, name, hash, input.ActorID)
		if err != nil {
			return nil, err
		}
		result.EmployeeID = employeeID

		if err := r.profiles.Sync(ctx, tx, caps, app, employeeID); err != nil {
			return nil, err
		}

		fields := map[string]any{
			"status":           domain.StatusApproved,
			"user_id":          employeeID,
			"admin_remarks":    nullableText(input.AdminRemarks),
			"rejection_reason": nil,
			"approved_by":      nullableID(input.ActorID),
			"approved_at":      now,
			"updated_at":       now,
		}
		if err := r.updateRow(ctx, tx, table, app.ID, fields, caps); err != nil {
			return nil, err
		}
	} else {
		fields := map[string]any{
			"status":        input.NewStatus,
			"admin_remarks": nullableText(input.AdminRemarks),
			"updated_at":    now,
		}
		switch input.NewStatus {
		case domain.StatusVerified:
			fields["verified_by"] = nullableID(input.ActorID)
			fields["verified_at"] = now
		case domain.StatusRejected, domain.StatusSuspended:
			fields["rejection_reason"] = input.Reason
		case domain.StatusBlacklisted:
			fields["blacklist_reason"] = input.Reason
		}
		if err := r.updateRow(ctx, tx, table, app.ID, fields, caps); err != nil {
			return nil, err
		}

		// A negative outcome disables the linked account, when one exists.
		if domain.IsNegativeStatus(input.NewStatus) && userID != nil && *userID > 0 {
			accountStatus := domain.AccountSuspended
			if input.NewStatus == domain.StatusRejected {
				accountStatus = domain.AccountInactive
			}
			if err := r.identities.Deactivate(ctx, tx, caps, *userID, accountStatus); err != nil {
				return nil, err
			}
		}
	}

	remarks := transitionRemarks(oldStatus, input.NewStatus, input.AdminRemarks, input.Reason, input.ChecklistJSON)
	_, err = tx.Exec(ctx,
		`INSERT INTO application_status_logs (applicant_type, application_id, action, actor_id, remarks, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(app.Kind), app.ID, input.NewStatus, nullableID(input.ActorID), remarks, now,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *transitionRepo) updateRow(ctx context.Context, tx pgx.Tx, table string, id int64, fields map[string]any, caps *Capabilities) error {
	query, args := buildUpdate(table, fields, caps, id)
	if query == "" {
		return nil
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableID keeps audit columns NULL when the token carried no resolvable
// employee id (zero is the unknown-actor sentinel, never a real id).
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// transitionRemarks composes the log line for one status change:
// "Status: {old} -> {new}." plus the staff remarks, the stated reason for
// negative outcomes, and the opaque checklist summary when supplied.
func transitionRemarks(oldStatus, newStatus, remarks, reason, checklist string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s -> %s.", oldStatus, newStatus)
	if remarks != "" {
		b.WriteString(" ")
		b.WriteString(remarks)
	}
	if reason != "" && domain.IsNegativeStatus(newStatus) {
		fmt.Fprintf(&b, " Reason: %s", reason)
	}
	if checklist != "" {
		fmt.Fprintf(&b, " Checklist: %s", checklist)
	}
	return b.String()
}
