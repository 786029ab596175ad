package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"CEXDirect/internal/core"
	"CEXDirect/pkg/interfaces"
)

var (
	// ErrLocationNotSupported — сервис недоступен в стране пользователя
	ErrLocationNotSupported = errors.New("сервис недоступен в этой локации")

	// ErrBadResponse — сервер ответил, но тело не удалось разобрать
	ErrBadResponse = errors.New("некорректный ответ сервера")

	// ErrIncompleteOrder — в заказе не хватает полей для запроса
	ErrIncompleteOrder = errors.New("в заказе не хватает данных для запроса")
)

// серверный код "страна не обслуживается"
const statusLocationNotSupported = 475

const defaultRequestTimeout = 30 * time.Second

// httpClient — тонкая обертка над http.Client: базовый адрес, JSON
// и разбор конверта {"data": ...}, общего для всех ответов API
type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(cfg interfaces.APIConfig) *httpClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.DisableCertificateEvaluation {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}
}

// do выполняет запрос и возвращает сырое тело ответа
func (c *httpClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("не удалось сериализовать запрос: %w", err)
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать запрос: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	core.Debug("запрос %s %s", method, path)

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("не удалось выполнить запрос %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать ответ %s: %w", path, err)
	}

	switch {
	case response.StatusCode == statusLocationNotSupported:
		return nil, ErrLocationNotSupported
	case response.StatusCode >= 400:
		return nil, fmt.Errorf("запрос %s %s: сервер вернул статус %d", method, path, response.StatusCode)
	}

	return responseBody, nil
}

// doData выполняет запрос и разбирает поле data конверта в out.
// Если out == nil, тело ответа игнорируется.
func (c *httpClient) doData(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	responseBody, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(responseBody, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if envelope.Data == nil {
		return ErrBadResponse
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
