package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// FingerprintSpace is the namespace of name-based fingerprints.
var FingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jpfielding/astroimg.go/fingerprint"))

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Fingerprint returns a version 5 UUID of the JSON encoding of value, stable
// across runs for equal values.
func Fingerprint(value any) (uuid.UUID, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fingerprint: %w", err)
	}
	return uuid.NewSHA1(FingerprintSpace, raw), nil
}

// RunID returns a random id tagging the log lines of one run.
func RunID() string {
	return uuid.NewString()
}
