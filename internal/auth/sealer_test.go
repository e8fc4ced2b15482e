package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	sealer, err := NewSealer(testSecret)
	require.NoError(t, err)

	sealed, err := sealer.Seal("provider-refresh-token-value")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "provider-refresh-token-value")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "provider-refresh-token-value", opened)
}

func TestSealer_OpenTampered(t *testing.T) {
	sealer, err := NewSealer(testSecret)
	require.NoError(t, err)

	sealed, err := sealer.Seal("secret value")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered == sealed {
		tampered = sealed[:len(sealed)-2] + "BB"
	}
	_, err = sealer.Open(tampered)
	assert.Error(t, err)
}

func TestSealer_OpenWrongKey(t *testing.T) {
	sealer, err := NewSealer(testSecret)
	require.NoError(t, err)
	other, err := NewSealer("another-secret")
	require.NoError(t, err)

	sealed, err := sealer.Seal("secret value")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestSealer_OpenMalformed(t *testing.T) {
	sealer, err := NewSealer(testSecret)
	require.NoError(t, err)

	for _, input := range []string{"", "!!!", "c2hvcnQ"} {
		_, err := sealer.Open(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}
