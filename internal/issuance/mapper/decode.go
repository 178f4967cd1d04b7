package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/schema"
)

func decode[T any](body []byte, check func([]byte) error, what string) (*T, error) {
	if err := check(body); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, what, err)
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, what, err)
	}
	return &v, nil
}

// DecodeBoleto decodes a /api/boleto/data body. All six required keys must
// be present with their JSON types; everything else is optional.
func DecodeBoleto(body []byte) (*domain.BoletoResponse, error) {
	return decode[domain.BoletoResponse](body, schema.Boleto, "boleto")
}

// DecodeNossoNumero decodes a /api/boleto/nosso_numero body.
func DecodeNossoNumero(body []byte) (*domain.NossoNumero, error) {
	return decode[domain.NossoNumero](body, schema.NossoNumero, "nosso_numero")
}

// DecodeHealth decodes a /api/health body.
func DecodeHealth(body []byte) (*domain.Health, error) {
	return decode[domain.Health](body, schema.Health, "health")
}

// DecodeInfo decodes a /api/info body.
func DecodeInfo(body []byte) (*domain.Info, error) {
	return decode[domain.Info](body, schema.Info, "info")
}

// DecodeValidation decodes a /api/boleto/validate body. The service reports
// field errors under "validation_errors" on rejection and "errors"
// elsewhere; both land in Errors.
func DecodeValidation(body []byte) (*domain.ValidationResult, error) {
	if err := schema.Validation(body); err != nil {
		return nil, fmt.Errorf("%w: validation: %w", ErrDecode, err)
	}

	var raw struct {
		Valid            bool   `json:"valid"`
		Message          string `json:"message"`
		Hint             string `json:"hint"`
		Errors           any    `json:"errors"`
		ValidationErrors any    `json:"validation_errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: validation: %w", ErrDecode, err)
	}

	res := &domain.ValidationResult{Valid: raw.Valid, Message: raw.Message}
	if res.Message == "" {
		res.Message = raw.Hint
	}
	res.Errors = mergeErrors(raw.ValidationErrors, raw.Errors)
	return res, nil
}

// mergeErrors folds the service's error shapes into one map. Objects are
// copied; a bare list is kept under "base".
func mergeErrors(sources ...any) map[string]any {
	var out map[string]any
	for _, src := range sources {
		switch v := src.(type) {
		case map[string]any:
			if len(v) == 0 {
				continue
			}
			if out == nil {
				out = make(map[string]any, len(v))
			}
			for k, e := range v {
				if _, ok := out[k]; !ok {
					out[k] = e
				}
			}
		case []any:
			if len(v) == 0 {
				continue
			}
			if out == nil {
				out = make(map[string]any, 1)
			}
			if _, ok := out["base"]; !ok {
				out["base"] = v
			}
		}
	}
	return out
}

// DecodeRetorno decodes a /api/retorno body: a JSON array of payments.
func DecodeRetorno(body []byte) ([]domain.RetornoRecord, error) {
	if err := schema.Retorno(body); err != nil {
		return nil, fmt.Errorf("%w: retorno: %w", ErrDecode, err)
	}
	var records []domain.RetornoRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: retorno: %w", ErrDecode, err)
	}
	if records == nil {
		records = []domain.RetornoRecord{}
	}
	return records, nil
}
