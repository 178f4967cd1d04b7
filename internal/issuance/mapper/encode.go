// Package mapper converts typed requests into wire payloads and service
// response bodies into typed values.
package mapper

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
)

var (
	// ErrDecode is wrapped by every response decoding failure.
	ErrDecode = errors.New("decode response")
	// ErrInvalidExtra is returned when an Extra entry is not a JSON primitive
	// or shadows a typed field.
	ErrInvalidExtra = errors.New("invalid extra field")
)

// Payload is a wire-ready key/value mapping. Absent keys tell the service
// to apply its bank default.
type Payload map[string]any

func putString(p Payload, key string, v *string) {
	if v != nil {
		p[key] = *v
	}
}

func putFloat(p Payload, key string, v *float64) {
	if v != nil {
		p[key] = *v
	}
}

func putInt(p Payload, key string, v *int) {
	if v != nil {
		p[key] = *v
	}
}

func withDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// Encode maps a boleto request to its payload. Unset optionals are dropped;
// explicit zero values are kept. req is not modified.
func Encode(req domain.BoletoRequest) (Payload, error) {
	p := Payload{
		"agencia":           req.Agencia,
		"conta_corrente":    req.ContaCorrente,
		"nosso_numero":      req.NossoNumero,
		"valor":             req.Valor,
		"cedente":           req.Cedente,
		"documento_cedente": req.DocumentoCedente,
		"sacado":            req.Sacado,
		"sacado_documento":  req.SacadoDocumento,

		"moeda":             withDefault(req.Moeda, domain.DefaultMoeda),
		"especie":           withDefault(req.Especie, domain.DefaultEspecie),
		"especie_documento": withDefault(req.EspecieDocumento, domain.DefaultEspecieDocumento),
		"aceite":            withDefault(req.Aceite, domain.DefaultAceite),
		"local_pagamento":   withDefault(req.LocalPagamento, domain.DefaultLocalPagamento),
	}

	putString(p, "convenio", req.Convenio)
	putString(p, "carteira", req.Carteira)
	putString(p, "digito_conta", req.DigitoConta)
	putString(p, "variacao", req.Variacao)
	putString(p, "numero_documento", req.NumeroDocumento)
	putString(p, "documento_numero", req.DocumentoNumero)
	putString(p, "data_vencimento", req.DataVencimento)
	putString(p, "data_documento", req.DataDocumento)
	putString(p, "data_processamento", req.DataProcessamento)
	putString(p, "sacado_endereco", req.SacadoEndereco)
	putString(p, "cedente_endereco", req.CedenteEndereco)

	instrucoes := [...]*string{
		req.Instrucao1, req.Instrucao2, req.Instrucao3, req.Instrucao4,
		req.Instrucao5, req.Instrucao6, req.Instrucao7,
	}
	for i, v := range instrucoes {
		putString(p, fmt.Sprintf("instrucao%d", i+1), v)
	}

	if err := mergeExtra(p, req.Extra, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeItem encodes a batch item, adding its normalized "bank" key.
func EncodeItem(item domain.BatchItem) (Payload, error) {
	bank, err := domain.ParseBank(string(item.Bank))
	if err != nil {
		return nil, err
	}
	if _, ok := item.Request.Extra["bank"]; ok {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidExtra, "bank")
	}

	p, err := Encode(item.Request)
	if err != nil {
		return nil, err
	}
	p["bank"] = string(bank)
	return p, nil
}

// EncodeRemessa maps a remessa request, including its payments.
func EncodeRemessa(req domain.RemessaRequest) (Payload, error) {
	p := Payload{
		"empresa_mae":       req.EmpresaMae,
		"documento_cedente": req.DocumentoCedente,
		"agencia":           req.Agencia,
		"conta_corrente":    req.ContaCorrente,
	}
	putString(p, "digito_conta", req.DigitoConta)
	putString(p, "convenio", req.Convenio)
	putString(p, "carteira", req.Carteira)
	putInt(p, "sequencial_remessa", req.SequencialRemessa)

	pagamentos := make([]Payload, 0, len(req.Pagamentos))
	for i, pg := range req.Pagamentos {
		pp, err := EncodePagamento(pg)
		if err != nil {
			return nil, fmt.Errorf("pagamento %d: %w", i+1, err)
		}
		pagamentos = append(pagamentos, pp)
	}

	if err := mergeExtra(p, req.Extra, []string{"pagamentos"}); err != nil {
		return nil, err
	}
	p["pagamentos"] = pagamentos
	return p, nil
}

// EncodePagamento maps one remessa payment.
func EncodePagamento(pg domain.Pagamento) (Payload, error) {
	p := Payload{
		"nosso_numero":     pg.NossoNumero,
		"valor":            pg.Valor,
		"nome_sacado":      pg.Sacado,
		"documento_sacado": pg.SacadoDocumento,
	}
	putString(p, "data_vencimento", pg.DataVencimento)
	putString(p, "numero_documento", pg.NumeroDocumento)
	putString(p, "data_emissao", pg.DataDocumento)
	putString(p, "data_desconto", pg.DataDesconto)
	putFloat(p, "valor_iof", pg.ValorIOF)
	putFloat(p, "valor_abatimento", pg.ValorAbatimento)
	putFloat(p, "valor_desconto", pg.ValorDesconto)
	putFloat(p, "valor_mora", pg.ValorMora)
	putFloat(p, "valor_multa", pg.ValorMulta)
	putString(p, "endereco_sacado", pg.SacadoEndereco)
	putString(p, "cidade_sacado", pg.SacadoCidade)
	putString(p, "uf_sacado", pg.SacadoUF)
	putString(p, "cep_sacado", pg.SacadoCEP)
	putString(p, "instrucao1", pg.Instrucao1)
	putString(p, "instrucao2", pg.Instrucao2)
	putString(p, "codigo_protesto", pg.CodigoProtesto)
	putInt(p, "dias_protesto", pg.DiasProtesto)

	if err := mergeExtra(p, pg.Extra, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// mergeExtra copies extension keys into p. A key that the typed fields may
// produce (present in p, or listed in reserved) is rejected even when the
// typed field is unset, so Extra can never override it.
func mergeExtra(p Payload, extra map[string]any, reserved []string) error {
	if len(extra) == 0 {
		return nil
	}
	for k, v := range extra {
		if k == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidExtra)
		}
		if _, ok := p[k]; ok || isTypedKey(k) || contains(reserved, k) {
			return fmt.Errorf("%w: %q shadows a typed field", ErrInvalidExtra, k)
		}
		if !isPrimitive(v) {
			return fmt.Errorf("%w: %q has non-primitive value of type %T", ErrInvalidExtra, k, v)
		}
		p[k] = v
	}
	return nil
}

var typedKeys = map[string]struct{}{
	"convenio": {}, "carteira": {}, "digito_conta": {}, "variacao": {},
	"numero_documento": {}, "documento_numero": {}, "data_vencimento": {},
	"data_documento": {}, "data_processamento": {}, "sacado_endereco": {},
	"cedente_endereco": {}, "instrucao1": {}, "instrucao2": {}, "instrucao3": {},
	"instrucao4": {}, "instrucao5": {}, "instrucao6": {}, "instrucao7": {},
	"sequencial_remessa": {}, "data_emissao": {}, "data_desconto": {},
	"valor_iof": {}, "valor_abatimento": {}, "valor_desconto": {},
	"valor_mora": {}, "valor_multa": {}, "endereco_sacado": {},
	"cidade_sacado": {}, "uf_sacado": {}, "cep_sacado": {},
	"codigo_protesto": {}, "dias_protesto": {},
}

func isTypedKey(k string) bool {
	_, ok := typedKeys[k]
	return ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isPrimitive(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
