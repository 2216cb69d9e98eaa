package validation

import (
	"regexp"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Letters, numbers, spaces, and common professional punctuation: . ' - / & ( ) ,
	nameRegex = regexp.MustCompile(`^[\p{L}0-9 .'/&(),-]+$`)

	// E164-like phone: optional +, digits 7-15 length
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	// PRC license numbers are 4-10 digits, optionally dash-grouped
	licenseRegex = regexp.MustCompile(`^[0-9]{4,10}$|^[0-9]{2,7}-[0-9]{2,7}$`)
)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	_ = v.RegisterValidation("prc_license", ValidLicenseNumber)
	_ = v.RegisterValidation("not_future", NotFuture)
}

// ValidName validates that a string contains only valid name characters.
// Empty is allowed; combine with required when the field is mandatory.
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return nameRegex.MatchString(val)
}

// ValidPhone validates a phone number structure
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(val)
}

// ValidLicenseNumber validates a professional license number format
func ValidLicenseNumber(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return licenseRegex.MatchString(val)
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, r := range val {
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}

// NotFuture rejects timestamps later than now (submission dates, expiry is separate)
func NotFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return true
	}
	return !t.After(time.Now())
}
