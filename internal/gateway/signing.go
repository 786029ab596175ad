package gateway

import (
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// requestSigner подписывает запросы к серверу. Подпись не секрет сессии,
// а доказательство владения секретом размещения: сервер пересчитывает
// ее по тем же входам.
type requestSigner struct {
	placementID       string
	secret            string
	deviceFingerprint string
	sourceURI         string
}

func newRequestSigner(placementID, secret string) *requestSigner {
	return &requestSigner{
		placementID:       placementID,
		secret:            secret,
		deviceFingerprint: uuid.NewString(),
		sourceURI:         "go://" + placementID,
	}
}

// nonce возвращает метку времени в миллисекундах. Используется и как
// защита от повторов, и как вход подписи, поэтому берется заново на
// каждый запрос.
func (s *requestSigner) nonce() int64 {
	return time.Now().UnixMilli()
}

// serviceData собирает служебный блок запроса с подписью по nonce
func (s *requestSigner) serviceData(nonce int64) map[string]interface{} {
	signature := sha512Hex(s.placementID + s.secret + strconv.FormatInt(nonce, 10))
	return map[string]interface{}{
		"nonce":             nonce,
		"deviceFingerprint": s.deviceFingerprint,
		"placementId":       s.placementID,
		"signatureType":     "msignature512",
		"signature":         signature,
	}
}

// orderSecret вычисляет подпись владения заказом. Сервер требует
// верхний регистр, в отличие от подписи запроса.
func (s *requestSigner) orderSecret(email, orderID string, nonce int64) string {
	return strings.ToUpper(sha512Hex(email + orderID + strconv.FormatInt(nonce, 10)))
}

func sha512Hex(input string) string {
	sum := sha512.Sum512([]byte(input))
	return hex.EncodeToString(sum[:])
}
