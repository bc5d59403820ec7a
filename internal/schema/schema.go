// Package schema holds the shape rules for users and orders. The same rule
// functions back both checkpoints: ParseX at the request boundary and
// ValidateX at the storage boundary.
package schema

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
)

// Record is a candidate record as decoded from a request body.
type Record map[string]any

const (
	FieldCompanyName  = "company_name"
	FieldPINumber     = "pi_number"
	FieldETD          = "etd"
	FieldETA          = "eta"
	FieldPaymentTerms = "payment_terms"
	FieldUsername     = "username"
	FieldPassword     = "password"
)

// bcrypt ignores everything past 72 bytes.
const passwordMaxBytes = 72

const validationFailed = "validation failed"

type details []apperrors.ValidationDetail

func (d *details) add(field, format string, args ...any) {
	*d = append(*d, apperrors.ValidationDetail{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d details) has(field string) bool {
	for _, v := range d {
		if v.Field == field {
			return true
		}
	}
	return false
}

func (d details) err() error {
	if len(d) == 0 {
		return nil
	}
	return apperrors.NewValidationError(validationFailed, d...)
}

// stringField extracts a required string value. A failure is recorded in d
// and reported through ok.
func stringField(r Record, field string, d *details) (string, bool) {
	raw, present := r[field]
	if !present || raw == nil {
		d.add(field, "%s is required", field)
		return "", false
	}
	s, isString := raw.(string)
	if !isString {
		d.add(field, "%s must be a string", field)
		return "", false
	}
	return strings.TrimSpace(s), true
}

func dateField(r Record, field string, d *details) time.Time {
	s, ok := stringField(r, field, d)
	if !ok {
		return time.Time{}
	}
	if s == "" {
		d.add(field, "%s must not be empty", field)
		return time.Time{}
	}
	t, err := ParseDate(s)
	if err != nil {
		d.add(field, "%s must be a date in YYYY-MM-DD format", field)
		return time.Time{}
	}
	return t
}

// ParseDate parses a calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(domain.DateLayout, s, time.UTC)
}

// ParseOrder turns a candidate record into a normalized order draft. Any
// user_id in the record is ignored; ownership comes from the session.
func ParseOrder(r Record) (domain.OrderDraft, error) {
	var d details

	company, _ := stringField(r, FieldCompanyName, &d)
	pi, _ := stringField(r, FieldPINumber, &d)
	etd := dateField(r, FieldETD, &d)
	eta := dateField(r, FieldETA, &d)
	terms, _ := stringField(r, FieldPaymentTerms, &d)

	draft := domain.OrderDraft{
		CompanyName:  company,
		PINumber:     pi,
		ETD:          etd,
		ETA:          eta,
		PaymentTerms: domain.PaymentTerms(terms),
	}

	checkOrder(draft, &d)
	if err := d.err(); err != nil {
		return domain.OrderDraft{}, err
	}
	return draft, nil
}

// ValidateOrder re-checks a draft right before it is persisted.
func ValidateOrder(draft domain.OrderDraft) error {
	var d details
	checkOrder(draft, &d)
	return d.err()
}

func checkOrder(draft domain.OrderDraft, d *details) {
	checkText(FieldCompanyName, draft.CompanyName, domain.CompanyNameMaxLength, d)
	checkText(FieldPINumber, draft.PINumber, domain.PINumberMaxLength, d)
	if !d.has(FieldETD) && draft.ETD.IsZero() {
		d.add(FieldETD, "%s is required", FieldETD)
	}
	if !d.has(FieldETA) && draft.ETA.IsZero() {
		d.add(FieldETA, "%s is required", FieldETA)
	}
	if !d.has(FieldETD) && !d.has(FieldETA) && !draft.ETD.IsZero() && !draft.ETA.IsZero() && draft.ETA.Before(draft.ETD) {
		d.add(FieldETA, "%s must not be before %s", FieldETA, FieldETD)
	}
	if !d.has(FieldPaymentTerms) && !draft.PaymentTerms.Valid() {
		d.add(FieldPaymentTerms, "%s must be one of %s", FieldPaymentTerms, paymentTermsList())
	}
}

func checkText(field, value string, maxLen int, d *details) {
	if d.has(field) {
		return
	}
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		d.add(field, "%s must not be empty", field)
	case utf8.RuneCountInString(value) > maxLen:
		d.add(field, "%s must be at most %d characters", field, maxLen)
	}
}

func paymentTermsList() string {
	values := make([]string, len(domain.PaymentTermsValues))
	for i, v := range domain.PaymentTermsValues {
		values[i] = string(v)
	}
	return strings.Join(values, ", ")
}

// ParseCredentials extracts a username and password from a candidate
// record. The username is trimmed; the password is kept verbatim.
func ParseCredentials(r Record) (username, password string, err error) {
	var d details

	username, _ = stringField(r, FieldUsername, &d)

	if raw, present := r[FieldPassword]; !present || raw == nil {
		d.add(FieldPassword, "%s is required", FieldPassword)
	} else if s, ok := raw.(string); !ok {
		d.add(FieldPassword, "%s must be a string", FieldPassword)
	} else {
		password = s
	}

	checkCredentials(username, password, &d)
	if err := d.err(); err != nil {
		return "", "", err
	}
	return username, password, nil
}

func ValidateCredentials(username, password string) error {
	var d details
	checkCredentials(strings.TrimSpace(username), password, &d)
	return d.err()
}

func checkCredentials(username, password string, d *details) {
	if !d.has(FieldUsername) {
		switch n := utf8.RuneCountInString(username); {
		case n < domain.UsernameMinLength:
			d.add(FieldUsername, "%s must be at least %d characters", FieldUsername, domain.UsernameMinLength)
		case n > domain.UsernameMaxLength:
			d.add(FieldUsername, "%s must be at most %d characters", FieldUsername, domain.UsernameMaxLength)
		}
	}
	if d.has(FieldPassword) {
		return
	}
	if utf8.RuneCountInString(password) < domain.PasswordMinLength {
		d.add(FieldPassword, "%s must be at least %d characters", FieldPassword, domain.PasswordMinLength)
	} else if len(password) > passwordMaxBytes {
		d.add(FieldPassword, "%s must be at most %d bytes", FieldPassword, passwordMaxBytes)
	}
}
