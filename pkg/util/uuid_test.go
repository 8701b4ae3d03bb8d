package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMd5ThenHex(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Md5ThenHex(nil))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", Md5ThenHex([]byte("abc")))
}

func TestFingerprint(t *testing.T) {
	type params struct {
		Sigma float64 `json:"sigma"`
	}
	a, err := Fingerprint(params{2})
	require.NoError(t, err)
	b, err := Fingerprint(params{2})
	require.NoError(t, err)
	c, err := Fingerprint(params{3})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, uuid.Version(5), a.Version())

	_, err = Fingerprint(func() {})
	assert.Error(t, err)
}

func TestRunID(t *testing.T) {
	id := RunID()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotEqual(t, id, RunID())
}
