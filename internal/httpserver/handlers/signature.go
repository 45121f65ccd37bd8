package handlers

import (
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/signer"
)

type signatureResponse struct {
	ShareID   string `json:"shareId"`
	Signature string `json:"signature"`
	Canonical string `json:"canonical"`
}

// GenerateSignature signs {"payload": {...}} for trusted senders testing
// their integration. A payload without a shareId gets a fresh one.
func GenerateSignature(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.MaxBodyBytes))
		if err != nil {
			writeError(w, r, d.Logger, domain.WrapError(domain.KindMalformedInput, "failed to read request body", err))
			return
		}
		if !gjson.ValidBytes(raw) {
			writeError(w, r, d.Logger, domain.NewError(domain.KindMalformedInput, "invalid JSON format"))
			return
		}

		payload := gjson.GetBytes(raw, "payload")
		if !payload.IsObject() {
			writeError(w, r, d.Logger, domain.NewError(domain.KindMalformedInput, "payload is required"))
			return
		}
		doc := []byte(payload.Raw)

		shareID := payload.Get("shareId").String()
		if shareID == "" {
			if shareID, err = domain.GenerateShareID(); err != nil {
				writeError(w, r, d.Logger, domain.WrapError(domain.KindInternal, "failed to generate share id", err))
				return
			}
			if doc, err = sjson.SetBytes(doc, "shareId", shareID); err != nil {
				writeError(w, r, d.Logger, domain.WrapError(domain.KindInternal, "failed to set share id", err))
				return
			}
		}

		canonical, err := signer.Canonicalize(doc)
		if err != nil {
			writeError(w, r, d.Logger, domain.WrapError(domain.KindMalformedInput, "payload must be a JSON object", err))
			return
		}

		writeData(w, r, http.StatusOK, signatureResponse{
			ShareID:   shareID,
			Signature: d.Signer.Sign(canonical),
			Canonical: string(canonical),
		})
	}
}
