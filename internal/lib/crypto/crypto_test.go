package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_EncryptDecrypt(t *testing.T) {
	c, err := New("test-secret")
	require.NoError(t, err)

	url := "https://bucket.s3.ap-southeast-1.amazonaws.com/proofOfPayment/1700000000_receipt.png"
	enc, err := c.EncryptString(url)
	require.NoError(t, err)
	assert.NotContains(t, enc, "amazonaws")

	dec, err := c.DecryptString(enc)
	require.NoError(t, err)
	assert.Equal(t, url, dec)
}

func TestCipher_WrongSecret(t *testing.T) {
	c1, err := New("secret-one")
	require.NoError(t, err)
	c2, err := New("secret-two")
	require.NoError(t, err)

	enc, err := c1.EncryptString("Juan")
	require.NoError(t, err)

	_, err = c2.DecryptString(enc)
	assert.Error(t, err)
}

func TestCipher_Malformed(t *testing.T) {
	c, err := New("test-secret")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "plain text"},
		{name: "missing fields", input: `{"iv":"00"}`},
		{name: "bad iv length", input: `{"iv":"00","data":"00","authTag":"00000000000000000000000000000000"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.DecryptString(tt.input)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestNew_EmptySecret(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
