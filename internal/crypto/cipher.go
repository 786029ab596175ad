package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	fillerPartKey      = "randomFillerPart"
	randomRangeString  = "0123456789"
	fillerRandomLength = 16
	jsonRandomLength   = 5
	vectorRandomLength = 3
)

// Encrypted содержит результат шифрования полезной нагрузки
type Encrypted struct {
	InitialVector  string `json:"initialVector"`  // base64 вектора инициализации
	EncryptedValue string `json:"encryptedValue"` // base64 шифртекста
	SecretID       string `json:"secretId"`       // серверный идентификатор сессии ключей
}

// Encrypt шифрует набор полей для передачи на сервер.
//
// В нагрузку добавляется случайный филлер, а перед JSON дописывается
// случайный префикс — одинаковые карточные данные дают шифртексты разной
// длины и содержания. Ключ AES-256 — SHA-256 от строки общего секрета,
// вектор инициализации случайный на каждый вызов.
//
// При любой ошибке возвращается только ошибка: частично зашифрованная
// нагрузка наружу не отдается.
func Encrypt(fields map[string]string, sharedSecretKey string, secretID string) (Encrypted, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	filler, err := randomDigits(fillerRandomLength)
	if err != nil {
		return Encrypted{}, err
	}

	encoding := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		encoding[k] = v
	}
	encoding[fillerPartKey] = filler + timestamp

	encodingData, err := json.Marshal(encoding)
	if err != nil {
		return Encrypted{}, fmt.Errorf("не удалось сериализовать нагрузку: %w", err)
	}

	jsonPrefix, err := randomDigits(jsonRandomLength)
	if err != nil {
		return Encrypted{}, err
	}
	plaintext := append([]byte(jsonPrefix), encodingData...)

	key := sha256.Sum256([]byte(sharedSecretKey))

	vectorPrefix, err := randomDigits(vectorRandomLength)
	if err != nil {
		return Encrypted{}, err
	}
	iv := []byte(vectorPrefix + timestamp)
	if len(iv) != aes.BlockSize {
		return Encrypted{}, errors.New("некорректная длина вектора инициализации")
	}

	ciphertext, err := encryptAES256CBC(plaintext, key[:], iv)
	if err != nil {
		return Encrypted{}, err
	}

	return Encrypted{
		InitialVector:  base64.StdEncoding.EncodeToString(iv),
		EncryptedValue: base64.StdEncoding.EncodeToString(ciphertext),
		SecretID:       secretID,
	}, nil
}

// randomDigits возвращает строку из length случайных десятичных цифр
func randomDigits(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("не удалось получить случайные байты: %w", err)
	}

	out := make([]byte, length)
	for i, b := range raw {
		out[i] = randomRangeString[int(b)%len(randomRangeString)]
	}
	return string(out), nil
}

func encryptAES256CBC(input, secretKey, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(secretKey)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать шифр: %w", err)
	}

	padded := pkcs7Pad(input, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func decryptAES256CBC(input, secretKey, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(secretKey)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать шифр: %w", err)
	}

	if len(input) == 0 || len(input)%aes.BlockSize != 0 {
		return nil, errors.New("некорректная длина шифртекста")
	}

	out := make([]byte, len(input))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, input)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("некорректная длина данных")
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, errors.New("некорректный паддинг")
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("некорректный паддинг")
		}
	}
	return data[:len(data)-padding], nil
}
