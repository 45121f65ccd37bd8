// Package sharetest provides signed webhook bodies for tests.
package sharetest

import (
	"github.com/tidwall/sjson"

	"github.com/MrSnakeDoc/patientshare/internal/signer"
)

// Secret is the signing secret the fixtures are meant to be used with.
const Secret = "test-webhook-secret"

// ShareID is a well formed share id.
const ShareID = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"

// Data is a patient document that passes schema validation.
const Data = `{"personal":{"firstName":"Asha","lastName":"Rao","dateOfBirth":"1988-04-12","gender":"female","phone":"+91 (80) 1234-5678","email":"asha.rao@example.com","address":{"street":"12 MG Road","city":"Bengaluru","state":"KA","zipCode":"560001","country":"IN"}},"medical":{"patientId":"P-0042","bloodType":"O+","allergies":["penicillin"],"medications":[{"name":"Metformin","dosage":"500mg","frequency":"twice daily"}],"conditions":["type 2 diabetes"],"lastVisit":"2024-11-02","notes":"dose 1.50 <b>"},"emergency":{"primaryContact":{"name":"Ravi Rao","relationship":"spouse","phone":"+91 80 8765 4321"}}}`

// Unsigned returns a webhook body for shareID without a signature.
func Unsigned(shareID string) []byte {
	body := []byte(`{"source":"clinic-frontdesk"}`)
	body, _ = sjson.SetBytes(body, "shareId", shareID)
	body, _ = sjson.SetRawBytes(body, "data", []byte(Data))
	return body
}

// Sign sets the signature field of body using s.
func Sign(s *signer.Signer, body []byte) []byte {
	canonical, err := signer.Canonicalize(body)
	if err != nil {
		panic(err)
	}
	out, err := sjson.SetBytes(body, "signature", "sha256="+s.Sign(canonical))
	if err != nil {
		panic(err)
	}
	return out
}

// Signed returns a valid signed webhook body for shareID.
func Signed(s *signer.Signer, shareID string) []byte {
	return Sign(s, Unsigned(shareID))
}

// MustSigner builds a signer for Secret.
func MustSigner() *signer.Signer {
	s, err := signer.New(Secret)
	if err != nil {
		panic(err)
	}
	return s
}
