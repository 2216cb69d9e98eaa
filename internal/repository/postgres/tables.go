package postgres

import (
	"fmt"
	"sort"

	"go-publicworks-backend/internal/domain"
)

const (
	employeesTable = "employees"
	logTable       = "application_status_logs"
)

func applicationTable(kind domain.ApplicationKind) string {
	if kind == domain.KindContractor {
		return "contractor_applications"
	}
	return "engineer_applications"
}

func documentTable(kind domain.ApplicationKind) string {
	if kind == domain.KindContractor {
		return "contractor_application_documents"
	}
	return "engineer_application_documents"
}

func profileTable(kind domain.ApplicationKind) string {
	if kind == domain.KindContractor {
		return "contractors"
	}
	return "engineers"
}

// nameColumn is the per-kind applicant name column: engineers submit a full
// name, contracting firms a company name.
func nameColumn(kind domain.ApplicationKind) string {
	if kind == domain.KindContractor {
		return "company_name"
	}
	return "full_name"
}

// buildUpdate assembles a parameterized UPDATE from the requested fields
// intersected with the columns that actually exist. Keys are sorted so the
// statement is deterministic. Returns "" when nothing survives the
// intersection. The id predicate is always the last argument.
func buildUpdate(table string, fields map[string]any, caps *Capabilities, id int64) (string, []any) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if caps.HasColumn(table, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)

	setClause := ""
	args := make([]any, 0, len(keys)+1)
	for i, key := range keys {
		if i > 0 {
			setClause += ", "
		}
		setClause += fmt.Sprintf("%s = $%d", key, i+1)
		args = append(args, fields[key])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, setClause, len(args))
	return query, args
}

// buildInsert assembles a parameterized INSERT with the same column
// intersection rules as buildUpdate.
func buildInsert(table string, fields map[string]any, caps *Capabilities) (string, []any) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if caps.HasColumn(table, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)

	cols := ""
	placeholders := ""
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		if i > 0 {
			cols += ", "
			placeholders += ", "
		}
		cols += key
		placeholders += fmt.Sprintf("$%d", i+1)
		args = append(args, fields[key])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, placeholders)
	return query, args
}
