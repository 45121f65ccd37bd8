package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)
)

// optionalFields may be absent from a payload.
var optionalFields = map[string]bool{
	"data.personal.email":             true,
	"data.medical.allergies":          true,
	"data.medical.medications":        true,
	"data.medical.conditions":         true,
	"data.medical.notes":              true,
	"data.emergency.secondaryContact": true,
}

// DecodeWebhookPayload maps a parsed JSON object onto WebhookPayload and
// validates it against the patient schema. Structural problems (missing
// fields, wrong primitive types) are reported first; value rules run only
// on a structurally sound document. The returned error is always a
// KindValidationFailed *Error listing every offending field.
func DecodeWebhookPayload(doc map[string]any) (*WebhookPayload, error) {
	var (
		payload WebhookPayload
		meta    mapstructure.Metadata
	)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Metadata: &meta,
		Result:   &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build payload decoder: %w", err)
	}

	var fields []FieldError
	if err := dec.Decode(doc); err != nil {
		fields = append(fields, decodeFieldErrors(err)...)
	}
	for _, key := range meta.Unset {
		if optionalFields[key] {
			continue
		}
		fields = append(fields, FieldError{Field: key, Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}

	if fields := payload.check(); len(fields) > 0 {
		return nil, validationError(fields)
	}
	return &payload, nil
}

func validationError(fields []FieldError) *Error {
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return &Error{
		Kind:    KindValidationFailed,
		Message: "payload does not match schema: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

// decodeFieldErrors turns mapstructure's aggregated messages into field
// errors. Messages carry the dotted field path in the first quoted segment.
func decodeFieldErrors(err error) []FieldError {
	var msErr *mapstructure.Error
	if !errors.As(err, &msErr) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(msErr.Errors))
	for _, msg := range msErr.Errors {
		out = append(out, FieldError{Field: quotedField(msg), Message: msg})
	}
	return out
}

func quotedField(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

type checker struct {
	fields []FieldError
}

func (c *checker) fail(field, msg string) {
	c.fields = append(c.fields, FieldError{Field: field, Message: msg})
}

func (c *checker) required(field, v string) bool {
	if strings.TrimSpace(v) == "" {
		c.fail(field, "is required")
		return false
	}
	return true
}

func (c *checker) length(field, v string, min, max int) {
	n := utf8.RuneCountInString(v)
	if n < min || n > max {
		c.fail(field, fmt.Sprintf("must be between %d and %d characters", min, max))
	}
}

func (c *checker) date(field, v string) {
	if !c.required(field, v) {
		return
	}
	if !dateRe.MatchString(v) {
		c.fail(field, "must be a date in YYYY-MM-DD format")
		return
	}
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		c.fail(field, "is not a valid calendar date")
	}
}

func (c *checker) phone(field, v string) {
	if !c.required(field, v) {
		return
	}
	if !phoneRe.MatchString(v) {
		c.fail(field, "must contain only digits, spaces, dashes, parentheses and an optional leading +")
	}
}

func (c *checker) contact(prefix string, ct Contact) {
	c.required(prefix+".name", ct.Name)
	c.required(prefix+".relationship", ct.Relationship)
	c.required(prefix+".phone", ct.Phone)
}

func (p *WebhookPayload) check() []FieldError {
	c := &checker{}

	if !ValidShareID(p.ShareID) {
		c.fail("shareId", fmt.Sprintf("must be %d lowercase hexadecimal characters", ShareIDLength))
	}
	c.required("source", p.Source)
	c.required("signature", p.Signature)

	pi := p.Data.Personal
	if c.required("data.personal.firstName", pi.FirstName) {
		c.length("data.personal.firstName", pi.FirstName, 1, 100)
	}
	if c.required("data.personal.lastName", pi.LastName) {
		c.length("data.personal.lastName", pi.LastName, 1, 100)
	}
	c.date("data.personal.dateOfBirth", pi.DateOfBirth)
	c.required("data.personal.gender", pi.Gender)
	c.phone("data.personal.phone", pi.Phone)
	if pi.Email != "" {
		if addr, err := mail.ParseAddress(pi.Email); err != nil || addr.Address != pi.Email {
			c.fail("data.personal.email", "must be a valid email address")
		}
	}
	c.required("data.personal.address.street", pi.Address.Street)
	c.required("data.personal.address.city", pi.Address.City)
	c.required("data.personal.address.state", pi.Address.State)
	c.required("data.personal.address.zipCode", pi.Address.ZipCode)
	c.required("data.personal.address.country", pi.Address.Country)

	m := p.Data.Medical
	c.required("data.medical.patientId", m.PatientID)
	c.required("data.medical.bloodType", m.BloodType)
	for i, med := range m.Medications {
		prefix := fmt.Sprintf("data.medical.medications[%d]", i)
		c.required(prefix+".name", med.Name)
		c.required(prefix+".dosage", med.Dosage)
		c.required(prefix+".frequency", med.Frequency)
	}
	c.date("data.medical.lastVisit", m.LastVisit)

	c.contact("data.emergency.primaryContact", p.Data.Emergency.PrimaryContact)
	if sc := p.Data.Emergency.SecondaryContact; sc != nil {
		c.contact("data.emergency.secondaryContact", *sc)
	}

	return c.fields
}
