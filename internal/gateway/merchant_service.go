package gateway

import (
	"context"
	"net/http"

	"CEXDirect/pkg/interfaces"
)

// Placement — настройки размещения SDK у мерчанта
type Placement struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Activated bool     `json:"activated"`
	RuleIDs   []string `json:"rulesIds"`
}

// Rule — юридический документ размещения (условия, политика)
type Rule struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CurrencyPrecision — точности и лимиты одной валюты размещения
type CurrencyPrecision struct {
	Type              string `json:"type"` // "fiat" или "crypto"
	Currency          string `json:"currency"`
	VisiblePrecision  int    `json:"visiblePrecision"`
	CurrencyPrecision int    `json:"currencyPrecision"`
	VisibleRoundRule  string `json:"visibleRoundRule"`
	MinLimit          string `json:"minLimit"`
	MaxLimit          string `json:"maxLimit"`
}

// MerchantService загружает настройки размещения: активность, правила
// и точности валют
type MerchantService struct {
	client      *httpClient
	placementID string
}

// NewMerchantService создает сервис мерчанта
func NewMerchantService(cfg interfaces.APIConfig, placementID string) *MerchantService {
	return &MerchantService{
		client:      newHTTPClient(cfg),
		placementID: placementID,
	}
}

// LoadPlacementInfo проверяет размещение на сервере
func (s *MerchantService) LoadPlacementInfo(ctx context.Context) (Placement, error) {
	var placement Placement
	if err := s.client.doData(ctx, http.MethodGet, "merchant/placement/check/"+s.placementID, nil, &placement); err != nil {
		return Placement{}, err
	}
	return placement, nil
}

// LoadRule загружает один юридический документ по идентификатору
func (s *MerchantService) LoadRule(ctx context.Context, id string) (Rule, error) {
	var rule Rule
	if err := s.client.doData(ctx, http.MethodGet, "merchant/rules/"+id, nil, &rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// LoadCurrencyPrecisions загружает точности и лимиты валют размещения
func (s *MerchantService) LoadCurrencyPrecisions(ctx context.Context) ([]CurrencyPrecision, error) {
	var response struct {
		Precisions []CurrencyPrecision `json:"precisions"`
	}
	if err := s.client.doData(ctx, http.MethodGet, "merchant/precisions/"+s.placementID, nil, &response); err != nil {
		return nil, err
	}
	return response.Precisions, nil
}
