// Package signer computes and checks the HMAC-SHA256 signatures that
// guard webhook ingestion.
//
// Both sides sign the canonical form of the payload: the JSON object with
// volatile fields removed and keys sorted at every level. See Canonicalize.
package signer

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// signaturePrefix is the optional algorithm prefix senders may attach.
const signaturePrefix = "sha256="

// volatileFields never take part in the signed bytes.
var volatileFields = []string{"signature", "timestamp"}

var (
	ErrEmptySecret = errors.New("signing secret must not be empty")
	ErrNotObject   = errors.New("payload must be a JSON object")
)

// Signer holds the pre-shared secret. It is safe for concurrent use.
type Signer struct {
	secret []byte
}

// New creates a Signer for the given secret.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of canonical.
func (s *Signer) Sign(canonical []byte) string {
	return hex.EncodeToString(s.mac(canonical))
}

// Verify reports whether provided is the signature of canonical.
// A leading "sha256=" is accepted; comparison is constant time.
func (s *Signer) Verify(canonical []byte, provided string) bool {
	provided = strings.TrimSpace(provided)
	if len(provided) >= len(signaturePrefix) && strings.EqualFold(provided[:len(signaturePrefix)], signaturePrefix) {
		provided = provided[len(signaturePrefix):]
	}
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(s.mac(canonical), got)
}

func (s *Signer) mac(b []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(b)
	return h.Sum(nil)
}

// Canonicalize returns the bytes that get signed for a raw JSON object.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return CanonicalizeObject(obj)
}

// CanonicalizeObject is Canonicalize for an already parsed object.
// obj is not modified.
func CanonicalizeObject(obj map[string]any) ([]byte, error) {
	trimmed := make(map[string]any, len(obj))
	for k, v := range obj {
		trimmed[k] = v
	}
	for _, f := range volatileFields {
		delete(trimmed, f)
	}

	// encoding/json writes map keys in sorted order at every depth.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(trimmed); err != nil {
		return nil, fmt.Errorf("failed to encode canonical payload: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
