package validation_test

import (
	"testing"
	"time"

	"go-publicworks-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sampleInput struct {
	Name    string    `validate:"omitempty,valid_name"`
	Phone   string    `validate:"omitempty,valid_phone"`
	Remarks string    `validate:"omitempty,no_emoji"`
	License string    `validate:"omitempty,prc_license"`
	Applied time.Time `validate:"omitempty,not_future"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	validation.RegisterValidators(v)
	return v
}

func TestCustomValidators(t *testing.T) {
	v := newValidator()

	t.Run("Accepts realistic values", func(t *testing.T) {
		err := v.Struct(sampleInput{
			Name:    "Juan D. Dela Cruz / Sons, Inc.",
			Phone:   "+639171234567",
			Remarks: "Checklist complete, documents verified.",
			License: "0012345",
			Applied: time.Now().Add(-24 * time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("Rejects emoji in remarks", func(t *testing.T) {
		err := v.Struct(sampleInput{Remarks: "approved \U0001F44D"})
		assert.Error(t, err)
	})

	t.Run("Rejects malformed phone", func(t *testing.T) {
		err := v.Struct(sampleInput{Phone: "09-17-123"})
		assert.Error(t, err)
	})

	t.Run("Accepts dash-grouped license numbers", func(t *testing.T) {
		assert.NoError(t, v.Struct(sampleInput{License: "123-4567"}))
		assert.Error(t, v.Struct(sampleInput{License: "12a4567"}))
	})

	t.Run("Rejects future submission dates", func(t *testing.T) {
		err := v.Struct(sampleInput{Applied: time.Now().Add(48 * time.Hour)})
		assert.Error(t, err)
	})

	t.Run("Empty optional fields pass", func(t *testing.T) {
		assert.NoError(t, v.Struct(sampleInput{}))
	})
}
