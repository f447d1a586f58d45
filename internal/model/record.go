package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// fieldSeparator keeps "ab"+"c" and "a"+"bc" from hashing to the same identity.
const fieldSeparator = "\x1f"

// Record is a single email to be triaged. Subject, snippet and sender are all optional.
type Record struct {
	ID      string `json:"id,omitempty"` // Source-side id (e.g. Gmail message id); not part of the identity
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Sender  string `json:"from"`
}

// Fingerprint returns the content-derived identity of the record.
// Records with identical subject, snippet and sender share an identity.
func (r Record) Fingerprint() string {
	data := strings.Join([]string{r.Subject, r.Snippet, r.Sender}, fieldSeparator)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Text returns the subject and snippet joined for rule matching.
func (r Record) Text() string {
	return r.Subject + " " + r.Snippet
}
