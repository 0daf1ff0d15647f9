// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encrypt applies AES-256 password protection to PDF bytes via
// pdfcpu. Inputs that already carry access restrictions are rejected up
// front: the step never re-encrypts or strips existing protection, per
// the product policy that protected PDFs must be unlocked out-of-band
// first. See docs/ARCHITECTURE § Encryption.
package encrypt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdflock/pkg/types"
)

// keyLength selects AES-256 in pdfcpu's encryption configuration.
const keyLength = 256

// Error is an encryption failure carrying a taxonomy reason.
type Error struct {
	Reason types.Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Protect returns pdf encrypted with AES-256, applying password as both
// user and owner password. Failures are structural, never transient, so
// there is no retry: AlreadyEncrypted for restricted inputs, CorruptInput
// for byte streams pdfcpu cannot parse.
func Protect(pdf []byte, password string) ([]byte, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return nil, &Error{Reason: types.ReasonCorruptInput,
			Err: fmt.Errorf("input does not start with a PDF header")}
	}

	// A restricted document cannot be opened without its password, so a
	// failed read with default (empty) credentials distinguishes the two
	// failure modes.
	if _, err := api.ReadContext(bytes.NewReader(pdf), model.NewDefaultConfiguration()); err != nil {
		if isEncryptedErr(err) {
			return nil, &Error{Reason: types.ReasonAlreadyEncrypted, Err: err}
		}
		return nil, &Error{Reason: types.ReasonCorruptInput, Err: err}
	}

	var out bytes.Buffer
	conf := model.NewAESConfiguration(password, password, keyLength)
	if err := api.Encrypt(bytes.NewReader(pdf), &out, conf); err != nil {
		// Documents protected with an empty user password open fine above
		// but still refuse re-encryption here.
		if isEncryptedErr(err) {
			return nil, &Error{Reason: types.ReasonAlreadyEncrypted, Err: err}
		}
		return nil, &Error{Reason: types.ReasonCorruptInput, Err: err}
	}
	return out.Bytes(), nil
}

// isEncryptedErr reports whether a pdfcpu error indicates existing
// access restrictions rather than a broken file.
func isEncryptedErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// ValidatePassword enforces the password policy before a batch starts.
// The password itself never appears in the returned error.
func ValidatePassword(password string, policy types.PasswordPolicy) error {
	switch {
	case password == "":
		return fmt.Errorf("password must not be empty")
	case len(password) < policy.MinLength:
		return fmt.Errorf("password must be at least %d characters", policy.MinLength)
	case policy.MaxLength > 0 && len(password) > policy.MaxLength:
		return fmt.Errorf("password must be at most %d characters", policy.MaxLength)
	}
	return nil
}
