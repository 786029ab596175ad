package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup14Constants(t *testing.T) {
	group := Group14()

	// Константы группы — часть протокола, любое изменение ломает
	// совместимость с сервером без локальной ошибки
	assert.Equal(t, 2048, group.Prime.BitLen())
	assert.Equal(t, int64(2), group.Generator.Int64())

	hex := group.Prime.Text(16)
	assert.Equal(t, "ffffffffffffffffc90fdaa2", hex[:24])
	assert.Equal(t, "15728e5a8aacaa68ffffffffffffffff", hex[len(hex)-32:])
}

func TestSharedSecretSymmetry(t *testing.T) {
	group := Group14()

	alice, err := NewKeyPair(group)
	require.NoError(t, err)

	bob, err := NewKeyPair(group)
	require.NoError(t, err)

	secretA, err := alice.SharedSecret(bob.PublicKey)
	require.NoError(t, err)

	secretB, err := bob.SharedSecret(alice.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, secretA, secretB)
	assert.NotEmpty(t, secretA)
}

func TestKeyPairsAreDistinct(t *testing.T) {
	group := Group14()

	first, err := NewKeyPair(group)
	require.NoError(t, err)

	second, err := NewKeyPair(group)
	require.NoError(t, err)

	// Пара ключей эфемерная: верификация и процессинг обязаны получать
	// разные публичные значения
	assert.NotEqual(t, first.PublicKey, second.PublicKey)
}

func TestPublicKeyIsBase64(t *testing.T) {
	kp, err := NewKeyPair(Group14())
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(kp.PublicKey)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestSharedSecretBadPeerKey(t *testing.T) {
	kp, err := NewKeyPair(Group14())
	require.NoError(t, err)

	_, err = kp.SharedSecret("не base64 вообще")
	assert.ErrorIs(t, err, ErrBadPublicKey)
}
