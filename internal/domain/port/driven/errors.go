package driven

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// FISCALSYNC_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set FISCALSYNC_SECRET_KEY")

// ErrCredentialNotFound is returned when no credential row exists for a tenant.
var ErrCredentialNotFound = errors.New("no credential stored for tenant")

// ErrDuplicateMapping is returned by DocumentMappingStore.Record when the
// unique (system, type, key) constraint rejects the insert. The constraint
// is the enforcement point for idempotency across concurrent runs, so this
// error means another writer posted the document first.
var ErrDuplicateMapping = errors.New("document mapping already recorded")

// AuthError reports a failed credential decryption or token fetch. It is
// fatal for the run: no documents are processed without a usable token.
type AuthError struct {
	Platform model.Platform
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failure for %s: %v", e.Platform, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a network failure or non-2xx response from a
// remote gateway. Body carries the raw response body so callers can match
// ledger rejection messages.
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a ledger-side rejection of a payload. Message is the
// ledger's own error text; IsBenignLedgerRejection matches against it.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "ledger rejected payload: " + e.Message
}

// benignPatterns are ledger rejection messages that indicate a per-document
// data condition rather than a systemic failure: the ledger already holds
// the document number, the counter-party exists under another entity type,
// or the document number failed the ledger's format validation.
//
// TODO: switch to structured error codes once the ledger API surfaces them
// instead of free-text Fault messages.
var benignPatterns = []string{
	"duplicate document number",
	"vendor type",
	"name supplied already exists",
	"invalid number",
}

// IsBenignLedgerRejection reports whether err is a ledger rejection that
// should downgrade to a per-document skip instead of aborting the run.
func IsBenignLedgerRejection(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return matchesBenign(verr.Message)
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return matchesBenign(terr.Body)
	}
	return false
}

func matchesBenign(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range benignPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
