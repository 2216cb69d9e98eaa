package postgres

import (
	"testing"

	"go-publicworks-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestSplitDisplayName(t *testing.T) {
	t.Run("Two tokens split into given and surname", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindEngineer, "Maria Santos")
		assert.Equal(t, "Maria", first)
		assert.Equal(t, "Santos", last)
	})

	t.Run("Middle names stay with the given name", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindEngineer, "Jose Protacio Rizal")
		assert.Equal(t, "Jose Protacio", first)
		assert.Equal(t, "Rizal", last)
	})

	t.Run("Whitespace is collapsed before splitting", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindEngineer, "  Maria   Santos  ")
		assert.Equal(t, "Maria", first)
		assert.Equal(t, "Santos", last)
	})

	t.Run("Single-word contractor gets the Contractor surname convention", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindContractor, "Acme")
		assert.Equal(t, "Acme", first)
		assert.Equal(t, "Contractor", last)
	})

	t.Run("Single-word engineer keeps the token for both halves", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindEngineer, "Acme")
		assert.Equal(t, "Acme", first)
		assert.Equal(t, "Acme", last)
	})

	t.Run("Multi-word contractor splits normally", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindContractor, "Acme Builders Inc.")
		assert.Equal(t, "Acme Builders", first)
		assert.Equal(t, "Inc.", last)
	})

	t.Run("Empty name yields empty halves", func(t *testing.T) {
		first, last := SplitDisplayName(domain.KindContractor, "   ")
		assert.Equal(t, "", first)
		assert.Equal(t, "", last)
	})
}

func TestBuildUpdate(t *testing.T) {
	caps := NewCapabilities(map[string][]string{
		"engineer_applications": {"status", "admin_remarks", "updated_at"},
	})

	t.Run("Fields are intersected with existing columns", func(t *testing.T) {
		query, args := buildUpdate("engineer_applications", map[string]any{
			"status":        "approved",
			"admin_remarks": "ok",
			"approved_at":   "2026-01-01", // column absent, must be dropped
		}, caps, 7)

		assert.Equal(t, "UPDATE engineer_applications SET admin_remarks = $1, status = $2 WHERE id = $3", query)
		assert.Equal(t, []any{"ok", "approved", int64(7)}, args)
	})

	t.Run("Column order is deterministic", func(t *testing.T) {
		fields := map[string]any{"status": "verified", "admin_remarks": nil, "updated_at": "now"}
		first, _ := buildUpdate("engineer_applications", fields, caps, 1)
		for i := 0; i < 20; i++ {
			again, _ := buildUpdate("engineer_applications", fields, caps, 1)
			assert.Equal(t, first, again)
		}
	})

	t.Run("Nothing surviving the intersection yields empty query", func(t *testing.T) {
		query, args := buildUpdate("engineer_applications", map[string]any{"ghost": 1}, caps, 1)
		assert.Empty(t, query)
		assert.Nil(t, args)
	})
}

func TestBuildInsert(t *testing.T) {
	caps := NewCapabilities(map[string][]string{
		"contractors": {"company_name", "email"},
	})

	query, args := buildInsert("contractors", map[string]any{
		"company_name": "Acme Builders",
		"email":        "acme@example.com",
		"missing_col":  true,
	}, caps)

	assert.Equal(t, "INSERT INTO contractors (company_name, email) VALUES ($1, $2)", query)
	assert.Equal(t, []any{"Acme Builders", "acme@example.com"}, args)
}

func TestCapabilities(t *testing.T) {
	caps := NewCapabilities(map[string][]string{
		"employees": {"id", "email", "account_status"},
	})

	assert.True(t, caps.Has("employees"))
	assert.False(t, caps.Has("ghost_table"))
	assert.True(t, caps.HasColumn("employees", "account_status"))
	assert.False(t, caps.HasColumn("employees", "ghost"))
	assert.Equal(t, "email", caps.FirstColumn("employees", "mail", "email", "id"))
	assert.Equal(t, "", caps.FirstColumn("employees", "mail"))
}

func TestTransitionRemarks(t *testing.T) {
	t.Run("Approval line combines old and new status with remarks", func(t *testing.T) {
		got := transitionRemarks("pending", "approved", "All documents in order", "", "")
		assert.Equal(t, "Status: pending -> approved. All documents in order", got)
	})

	t.Run("Negative outcome appends the reason", func(t *testing.T) {
		got := transitionRemarks("verified", "rejected", "", "Expired license", "")
		assert.Equal(t, "Status: verified -> rejected. Reason: Expired license", got)
	})

	t.Run("Checklist summary is appended opaquely", func(t *testing.T) {
		got := transitionRemarks("pending", "under_review", "", "", `{"docs":true}`)
		assert.Equal(t, `Status: pending -> under_review. Checklist: {"docs":true}`, got)
	})

	t.Run("Reason is ignored for non-negative outcomes", func(t *testing.T) {
		got := transitionRemarks("pending", "verified", "", "should not appear", "")
		assert.Equal(t, "Status: pending -> verified.", got)
	})
}
