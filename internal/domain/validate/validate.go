// Package validate collects field-level input errors for request types.
//
// Request types run their checks through a Validator and return v.Err():
//
//	func (r AddRequest) Validate() error {
//		var v validate.Validator
//		v.Required("variantId", r.VariantID)
//		v.Range("quantity", r.Quantity, 1, 1000)
//		return v.Err()
//	}
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Validator accumulates field errors. The zero value is ready to use.
type Validator struct {
	fields []apperr.FieldError
}

// Check records msg for field when ok is false.
func (v *Validator) Check(ok bool, field, msg string) {
	if !ok {
		v.fields = append(v.fields, apperr.FieldError{Field: field, Message: msg})
	}
}

// Required rejects empty or whitespace-only values.
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// MaxLen rejects values longer than n runes.
func (v *Validator) MaxLen(field, value string, n int) {
	v.Check(utf8.RuneCountInString(value) <= n, field, fmt.Sprintf("must be at most %d characters", n))
}

// Length rejects values whose rune count is outside [min, max].
func (v *Validator) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	v.Check(n >= min && n <= max, field, fmt.Sprintf("must be between %d and %d characters", min, max))
}

// Range rejects integers outside [min, max].
func (v *Validator) Range(field string, value, min, max int) {
	v.Check(value >= min && value <= max, field, fmt.Sprintf("must be between %d and %d", min, max))
}

// Positive rejects integers below one.
func (v *Validator) Positive(field string, value int) {
	v.Check(value > 0, field, "must be greater than 0")
}

// NonNegative rejects negative amounts.
func (v *Validator) NonNegative(field string, value decimal.Decimal) {
	v.Check(!value.IsNegative(), field, "must not be negative")
}

// Email rejects malformed addresses. Empty values pass; combine with
// Required when the address is mandatory.
func (v *Validator) Email(field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	v.Check(err == nil && addr.Address == value, field, "must be a valid email address")
}

// Match rejects values that do not match re.
func (v *Validator) Match(field, value string, re *regexp.Regexp, msg string) {
	v.Check(re.MatchString(value), field, msg)
}

// NotBefore rejects end times that precede start.
func (v *Validator) NotBefore(field string, end, start time.Time) {
	v.Check(!end.Before(start), field, "must not be before the start date")
}

// Valid reports whether no errors were recorded.
func (v *Validator) Valid() bool { return len(v.fields) == 0 }

// Err returns a validation error listing every recorded field, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperr.InvalidFields(v.fields)
}
