package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeal_RoundTrip(t *testing.T) {
	plain := []byte(`{"timestamp":1,"characters":[]}`)

	sealed, err := Seal(plain, "correct horse")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, string(sealed), "characters")

	got, err := Unseal(sealed, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestSeal_WrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "right")
	require.NoError(t, err)

	_, err = Unseal(sealed, "wrong")
	assert.ErrorIs(t, err, ErrBadPassphrase)
}

func TestSeal_TamperedBody(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "pw")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = Unseal(sealed, "pw")
	assert.ErrorIs(t, err, ErrBadPassphrase)

	_, err = Unseal(sealed[:len(sealMagic)+4], "pw")
	assert.ErrorIs(t, err, ErrBadPassphrase)
}

func TestSeal_RequiresPassphrase(t *testing.T) {
	_, err := Seal([]byte("x"), "")
	assert.Error(t, err)
}

func TestSeal_PlainInput(t *testing.T) {
	assert.False(t, IsSealed([]byte(`{"timestamp":1}`)))

	_, err := Unseal([]byte(`{"timestamp":1}`), "pw")
	assert.Error(t, err)
}

func TestSeal_FreshSaltEachTime(t *testing.T) {
	a, err := Seal([]byte("same"), "pw")
	require.NoError(t, err)
	b, err := Seal([]byte("same"), "pw")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeFull, false},
		{"full", ModeFull, false},
		{"text", ModeText, false},
		{"media", ModeMedia, false},
		{"FULL", "", true},
		{"images", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
