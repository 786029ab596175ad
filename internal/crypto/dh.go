package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrBadPublicKey возвращается когда публичный ключ сервера не
// декодируется из base64
var ErrBadPublicKey = errors.New("некорректный публичный ключ")

// DHGroup определяет группу Диффи-Хеллмана. Простое число и генератор —
// константы протокола, они обязаны совпадать с сервером: при расхождении
// обе стороны молча получат разные секреты.
type DHGroup struct {
	Prime     *big.Int
	Generator *big.Int
	Bits      int
}

// group14PrimeHex — 2048-битная MODP группа 14 из RFC 3526.
// Не менять и не "переизвлекать": это часть совместимости с сервером.
const group14PrimeHex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

// Group14 возвращает группу 14 (2048 бит, генератор 2)
func Group14() DHGroup {
	prime, ok := new(big.Int).SetString(strings.ToLower(group14PrimeHex), 16)
	if !ok {
		panic("crypto: некорректная константа простого числа группы 14")
	}

	return DHGroup{
		Prime:     prime,
		Generator: big.NewInt(2),
		Bits:      2048,
	}
}

// KeyPair представляет эфемерную пару ключей Диффи-Хеллмана.
// Пара живет один запрос: на каждую передачу карточных данных
// генерируется новая и после запроса выбрасывается.
type KeyPair struct {
	// PublicKey — base64 от big-endian сериализации публичного значения
	PublicKey string

	group DHGroup
	x     *big.Int
}

// NewKeyPair генерирует новую пару ключей в группе group
func NewKeyPair(group DHGroup) (*KeyPair, error) {
	x, err := rand.Int(rand.Reader, group.Prime)
	if err != nil {
		return nil, fmt.Errorf("не удалось сгенерировать приватную экспоненту: %w", err)
	}

	y := new(big.Int).Exp(group.Generator, x, group.Prime)

	return &KeyPair{
		PublicKey: base64.StdEncoding.EncodeToString(y.Bytes()),
		group:     group,
		x:         x,
	}, nil
}

// SharedSecret вычисляет общий секрет из публичного ключа сервера.
// Результат — base64 от big-endian сериализации секрета.
func (kp *KeyPair) SharedSecret(peerPublicKey string) (string, error) {
	peerData, err := base64.StdEncoding.DecodeString(peerPublicKey)
	if err != nil {
		return "", ErrBadPublicKey
	}

	peer := new(big.Int).SetBytes(peerData)
	secret := new(big.Int).Exp(peer, kp.x, kp.group.Prime)

	return base64.StdEncoding.EncodeToString(secret.Bytes()), nil
}
