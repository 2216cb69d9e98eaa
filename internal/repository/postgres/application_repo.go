package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-publicworks-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// listCap bounds the admin list view; the UI never pages past this.
const listCap = 500

// The repo only needs the shared query surface, so reads and column-gated
// writes work identically on the pool or inside a transaction.
type applicationRepo struct {
	db    DBTX
	probe *SchemaProbe
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *pgxpool.Pool, probe *SchemaProbe) domain.ApplicationRepository {
	return &applicationRepo{db: db, probe: probe}
}

func applicationColumns(kind domain.ApplicationKind) string {
	return nameColumn(kind) + `, email, phone, specialization, area, license_number, license_expiry,
		years_experience, expertise_areas, password, status, rejection_reason, blacklist_reason,
		admin_remarks, user_id, approved_by, verified_by, approved_at, verified_at, created_at, updated_at`
}

func scanApplication(row pgx.Row, kind domain.ApplicationKind) (*domain.Application, error) {
	var app domain.Application
	app.Kind = kind
	err := row.Scan(
		&app.ID, &app.Name, &app.Email, &app.Phone, &app.Specialization, &app.Area,
		&app.LicenseNumber, &app.LicenseExpiry, &app.YearsExperience, pq.Array(&app.ExpertiseAreas),
		&app.PasswordHash, &app.Status, &app.RejectionReason, &app.BlacklistReason,
		&app.AdminRemarks, &app.UserID, &app.ApprovedBy, &app.VerifiedBy,
		&app.ApprovedAt, &app.VerifiedAt, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// mapTableError converts "relation does not exist" into the configuration
// sentinel so the caller can advise running the migration.
func mapTableError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" { // undefined_table
		return domain.ErrTableMissing
	}
	return err
}

// FindByID retrieves one application row
func (r *applicationRepo) FindByID(ctx context.Context, kind domain.ApplicationKind, id int64) (*domain.Application, error) {
	query := fmt.Sprintf(`SELECT id, %s FROM %s WHERE id = $1`, applicationColumns(kind), applicationTable(kind))
	app, err := scanApplication(r.db.QueryRow(ctx, query, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapTableError(err)
	}
	return app, nil
}

// List retrieves applications matching the filters, newest first, capped.
// Filters are assembled dynamically with positional args.
func (r *applicationRepo) List(ctx context.Context, kind domain.ApplicationKind, filter domain.ApplicationFilter) ([]domain.Application, error) {
	query := fmt.Sprintf(`SELECT id, %s FROM %s WHERE 1=1`, applicationColumns(kind), applicationTable(kind))

	args := []interface{}{}
	argCounter := 1

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (%s ILIKE $%d OR email ILIKE $%d OR license_number ILIKE $%d)",
			nameColumn(kind), argCounter, argCounter, argCounter)
		args = append(args, "%"+filter.Query+"%")
		argCounter++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCounter)
		args = append(args, filter.Status)
		argCounter++
	}
	if filter.Specialization != "" {
		query += fmt.Sprintf(" AND specialization = $%d", argCounter)
		args = append(args, filter.Specialization)
		argCounter++
	}
	if filter.Area != "" {
		query += fmt.Sprintf(" AND area = $%d", argCounter)
		args = append(args, filter.Area)
		argCounter++
	}
	if filter.DateSubmitted != "" {
		query += fmt.Sprintf(" AND DATE(created_at) = $%d", argCounter)
		args = append(args, filter.DateSubmitted)
		argCounter++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", listCap)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapTableError(err)
	}
	defer rows.Close()

	return collectApplications(rows, kind)
}

// ListByStatus backs the verified/rejected user views.
func (r *applicationRepo) ListByStatus(ctx context.Context, kind domain.ApplicationKind, status string) ([]domain.Application, error) {
	query := fmt.Sprintf(`SELECT id, %s FROM %s WHERE status = $1 ORDER BY created_at DESC LIMIT %d`,
		applicationColumns(kind), applicationTable(kind), listCap)

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, mapTableError(err)
	}
	defer rows.Close()

	return collectApplications(rows, kind)
}

func collectApplications(rows pgx.Rows, kind domain.ApplicationKind) ([]domain.Application, error) {
	applications := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows, kind)
		if err != nil {
			return nil, err
		}
		applications = append(applications, *app)
	}
	// The pool runs the simple protocol, which defers execution errors to
	// Err(); a missing table surfaces here, not from Query itself.
	if err := rows.Err(); err != nil {
		return nil, mapTableError(err)
	}
	return applications, nil
}

// SummaryCounts returns per-status counts for the dashboard cards.
func (r *applicationRepo) SummaryCounts(ctx context.Context, kind domain.ApplicationKind) (map[string]int64, error) {
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM %s GROUP BY status`, applicationTable(kind))

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapTableError(err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for _, status := range kind.AllowedStatuses() {
		counts[status] = 0
	}
	var total int64
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, mapTableError(err)
	}
	counts["total"] = total
	return counts, nil
}

// DocumentsFor lists the uploads attached to one application, newest first.
func (r *applicationRepo) DocumentsFor(ctx context.Context, kind domain.ApplicationKind, id int64) ([]domain.ApplicationDocument, error) {
	query := fmt.Sprintf(`SELECT id, application_id, document_type, storage_path, original_filename, mime_type, size_bytes, uploaded_at
		FROM %s WHERE application_id = $1 ORDER BY uploaded_at DESC`, documentTable(kind))

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		// Document tables arrived in a later migration; absence means
		// no documents, not a broken deployment.
		if errors.Is(mapTableError(err), domain.ErrTableMissing) {
			return []domain.ApplicationDocument{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	documents, err := collectDocuments(rows, kind)
	if errors.Is(err, domain.ErrTableMissing) {
		return []domain.ApplicationDocument{}, nil
	}
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func collectDocuments(rows pgx.Rows, kind domain.ApplicationKind) ([]domain.ApplicationDocument, error) {
	documents := []domain.ApplicationDocument{}
	for rows.Next() {
		doc := domain.ApplicationDocument{Kind: kind}
		if err := rows.Scan(
			&doc.ID, &doc.ApplicationID, &doc.DocumentType, &doc.StoragePath,
			&doc.OriginalFilename, &doc.MimeType, &doc.SizeBytes, &doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapTableError(err)
	}
	return documents, nil
}

// TransitionLogsFor returns the append-only history for one application.
func (r *applicationRepo) TransitionLogsFor(ctx context.Context, kind domain.ApplicationKind, id int64) ([]domain.TransitionLogEntry, error) {
	query := `SELECT id, applicant_type, application_id, action, actor_id, remarks, created_at
		FROM application_status_logs WHERE applicant_type = $1 AND application_id = $2 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, string(kind), id)
	if err != nil {
		return nil, mapTableError(err)
	}
	defer rows.Close()

	entries := []domain.TransitionLogEntry{}
	for rows.Next() {
		var entry domain.TransitionLogEntry
		var applicantType string
		if err := rows.Scan(
			&entry.ID, &applicantType, &entry.ApplicationID, &entry.Action,
			&entry.ActorID, &entry.Remarks, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.ApplicantType = domain.ApplicationKind(applicantType)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapTableError(err)
	}
	return entries, nil
}

// UpdateFields updates only the requested fields that exist in the current
// schema, so partially-migrated deployments keep working.
func (r *applicationRepo) UpdateFields(ctx context.Context, kind domain.ApplicationKind, id int64, fields map[string]any) error {
	table := applicationTable(kind)
	caps, err := r.probe.Snapshot(ctx, []string{table})
	if err != nil {
		return err
	}
	if !caps.Has(table) {
		return domain.ErrTableMissing
	}

	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}

	query, args := buildUpdate(table, fields, caps, id)
	if query == "" {
		return nil
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
