package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

const validPayload = `{
  "shareId": "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
  "source": "clinic-frontdesk",
  "signature": "sha256=00",
  "data": {
    "personal": {
      "firstName": "Asha",
      "lastName": "Rao",
      "dateOfBirth": "1988-04-12",
      "gender": "female",
      "phone": "+91 (80) 1234-5678",
      "email": "asha.rao@example.com",
      "address": {"street": "12 MG Road", "city": "Bengaluru", "state": "KA", "zipCode": "560001", "country": "IN"}
    },
    "medical": {
      "patientId": "P-0042",
      "bloodType": "O+",
      "allergies": ["penicillin"],
      "medications": [{"name": "Metformin", "dosage": "500mg", "frequency": "twice daily"}],
      "conditions": ["type 2 diabetes"],
      "lastVisit": "2024-11-02"
    },
    "emergency": {
      "primaryContact": {"name": "Ravi Rao", "relationship": "spouse", "phone": "+91 80 8765 4321"}
    }
  }
}`

func decodeDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func fieldSet(err error) map[string]bool {
	var de *Error
	if !errors.As(err, &de) {
		return nil
	}
	set := make(map[string]bool, len(de.Fields))
	for _, f := range de.Fields {
		set[f.Field] = true
	}
	return set
}

func TestDecodeWebhookPayloadValid(t *testing.T) {
	p, err := DecodeWebhookPayload(decodeDoc(t, validPayload))
	if err != nil {
		t.Fatalf("DecodeWebhookPayload() error = %v", err)
	}
	if p.ShareID != "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4" {
		t.Errorf("ShareID = %q", p.ShareID)
	}
	if p.Data.Personal.Address.City != "Bengaluru" {
		t.Errorf("City = %q, want Bengaluru", p.Data.Personal.Address.City)
	}
	if len(p.Data.Medical.Medications) != 1 || p.Data.Medical.Medications[0].Name != "Metformin" {
		t.Errorf("Medications = %+v", p.Data.Medical.Medications)
	}
	if p.Data.Emergency.SecondaryContact != nil {
		t.Errorf("SecondaryContact should be nil when absent")
	}
}

func TestDecodeWebhookPayloadRejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(doc map[string]any)
		wantField string
	}{
		{
			name:      "missing source",
			mutate:    func(doc map[string]any) { delete(doc, "source") },
			wantField: "source",
		},
		{
			name:      "missing data",
			mutate:    func(doc map[string]any) { delete(doc, "data") },
			wantField: "data",
		},
		{
			name: "missing nested address",
			mutate: func(doc map[string]any) {
				delete(doc["data"].(map[string]any)["personal"].(map[string]any), "address")
			},
			wantField: "data.personal.address",
		},
		{
			name: "wrong primitive type",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["personal"].(map[string]any)["firstName"] = 42.0
			},
			wantField: "data.personal.firstName",
		},
		{
			name: "allergies not an array",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["medical"].(map[string]any)["allergies"] = "penicillin"
			},
			wantField: "data.medical.allergies",
		},
		{
			name:      "share id too short",
			mutate:    func(doc map[string]any) { doc["shareId"] = "a1b2c3d4e5" },
			wantField: "shareId",
		},
		{
			name:      "share id uppercase",
			mutate:    func(doc map[string]any) { doc["shareId"] = "A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4" },
			wantField: "shareId",
		},
		{
			name: "bad date of birth",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["personal"].(map[string]any)["dateOfBirth"] = "12/04/1988"
			},
			wantField: "data.personal.dateOfBirth",
		},
		{
			name: "impossible calendar date",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["medical"].(map[string]any)["lastVisit"] = "2024-02-31"
			},
			wantField: "data.medical.lastVisit",
		},
		{
			name: "bad phone",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["personal"].(map[string]any)["phone"] = "call me"
			},
			wantField: "data.personal.phone",
		},
		{
			name: "bad email",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["personal"].(map[string]any)["email"] = "not-an-email"
			},
			wantField: "data.personal.email",
		},
		{
			name: "medication without dosage",
			mutate: func(doc map[string]any) {
				meds := doc["data"].(map[string]any)["medical"].(map[string]any)["medications"].([]any)
				delete(meds[0].(map[string]any), "dosage")
			},
			wantField: "data.medical.medications[0].dosage",
		},
		{
			name: "incomplete secondary contact",
			mutate: func(doc map[string]any) {
				doc["data"].(map[string]any)["emergency"].(map[string]any)["secondaryContact"] = map[string]any{"name": "Meera"}
			},
			wantField: "data.emergency.secondaryContact.phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodeDoc(t, validPayload)
			tt.mutate(doc)

			_, err := DecodeWebhookPayload(doc)
			if err == nil {
				t.Fatal("DecodeWebhookPayload() should have failed")
			}
			if KindOf(err) != KindValidationFailed {
				t.Fatalf("KindOf() = %v, want %v", KindOf(err), KindValidationFailed)
			}
			if fields := fieldSet(err); !fields[tt.wantField] {
				t.Errorf("expected field %q in %v", tt.wantField, fields)
			}
		})
	}
}

func TestDecodeWebhookPayloadOptionalFields(t *testing.T) {
	doc := decodeDoc(t, validPayload)
	personal := doc["data"].(map[string]any)["personal"].(map[string]any)
	medical := doc["data"].(map[string]any)["medical"].(map[string]any)
	delete(personal, "email")
	delete(medical, "allergies")
	delete(medical, "medications")
	delete(medical, "conditions")

	if _, err := DecodeWebhookPayload(doc); err != nil {
		t.Fatalf("optional fields should be accepted when absent: %v", err)
	}
}

func TestDecodeWebhookPayloadExtraFieldsAllowed(t *testing.T) {
	doc := decodeDoc(t, validPayload)
	doc["timestamp"] = "2024-11-02T10:00:00Z"

	if _, err := DecodeWebhookPayload(doc); err != nil {
		t.Fatalf("extra top-level fields should be ignored: %v", err)
	}
}

func TestQuotedField(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"'data.personal.firstName' expected type 'string', got unconvertible type 'float64'", "data.personal.firstName"},
		{"error decoding 'data.medical.allergies': source data must be an array or slice, got string", "data.medical.allergies"},
		{"no quotes here", ""},
	}
	for _, tt := range tests {
		if got := quotedField(tt.msg); got != tt.want {
			t.Errorf("quotedField(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}
