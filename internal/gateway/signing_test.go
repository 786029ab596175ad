package gateway

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceDataSignature(t *testing.T) {
	signer := newRequestSigner("placement-1", "secret-1")

	serviceData := signer.serviceData(1567000000000)

	expected := sha512.Sum512([]byte("placement-1" + "secret-1" + "1567000000000"))
	assert.Equal(t, hex.EncodeToString(expected[:]), serviceData["signature"])
	assert.Equal(t, "msignature512", serviceData["signatureType"])
	assert.Equal(t, "placement-1", serviceData["placementId"])
	assert.Equal(t, int64(1567000000000), serviceData["nonce"])
	require.NotEmpty(t, serviceData["deviceFingerprint"])
}

func TestDeviceFingerprintIsStablePerSigner(t *testing.T) {
	signer := newRequestSigner("placement-1", "secret-1")
	first := signer.serviceData(1)["deviceFingerprint"]
	second := signer.serviceData(2)["deviceFingerprint"]
	assert.Equal(t, first, second, "отпечаток устройства должен жить всю сессию")

	other := newRequestSigner("placement-1", "secret-1")
	assert.NotEqual(t, first, other.serviceData(1)["deviceFingerprint"])
}

func TestOrderSecret(t *testing.T) {
	signer := newRequestSigner("placement-1", "secret-1")

	secret := signer.orderSecret("user@example.com", "order-1", 1567000000000)

	expected := sha512.Sum512([]byte("user@example.com" + "order-1" + "1567000000000"))
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(expected[:])), secret)
	assert.Equal(t, secret, strings.ToUpper(secret), "серверу нужен верхний регистр")
}

func TestNonceGrows(t *testing.T) {
	signer := newRequestSigner("placement-1", "secret-1")
	first := signer.nonce()
	second := signer.nonce()
	assert.GreaterOrEqual(t, second, first)
}
