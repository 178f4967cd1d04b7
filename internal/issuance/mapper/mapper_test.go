package mapper

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
)

func exampleRequest() domain.BoletoRequest {
	return domain.BoletoRequest{
		Agencia:          "3073",
		ContaCorrente:    "12345678",
		NossoNumero:      "123",
		Valor:            150.00,
		Cedente:          "Empresa Exemplo LTDA",
		DocumentoCedente: "12345678000100",
		Sacado:           "João da Silva",
		SacadoDocumento:  "12345678900",
		Convenio:         domain.String("01234567"),
		Carteira:         domain.String("18"),
	}
}

func TestEncode_UnsetOptionalsOmitted(t *testing.T) {
	p, err := Encode(exampleRequest())
	require.NoError(t, err)

	for _, key := range []string{
		"digito_conta", "variacao", "numero_documento", "documento_numero",
		"data_vencimento", "data_documento", "data_processamento",
		"sacado_endereco", "cedente_endereco", "instrucao1", "instrucao7",
	} {
		assert.NotContains(t, p, key)
	}

	assert.Equal(t, "01234567", p["convenio"])
	assert.Equal(t, "18", p["carteira"])
	assert.Equal(t, 150.0, p["valor"])
}

func TestEncode_ExplicitZeroValuesKept(t *testing.T) {
	req := exampleRequest()
	req.Valor = 0
	req.Carteira = domain.String("")
	req.Instrucao3 = domain.String("")
	req.Extra = map[string]any{"dias_tolerancia": 0}

	p, err := Encode(req)
	require.NoError(t, err)

	require.Contains(t, p, "valor")
	assert.Equal(t, 0.0, p["valor"])
	require.Contains(t, p, "carteira")
	assert.Equal(t, "", p["carteira"])
	require.Contains(t, p, "instrucao3")
	assert.Equal(t, "", p["instrucao3"])
	require.Contains(t, p, "dias_tolerancia")
	assert.Equal(t, 0, p["dias_tolerancia"])

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"carteira":""`)
	assert.Contains(t, string(data), `"valor":0`)
	assert.NotContains(t, string(data), "instrucao1")
}

func TestEncode_Defaults(t *testing.T) {
	p, err := Encode(exampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "9", p["moeda"])
	assert.Equal(t, "R$", p["especie"])
	assert.Equal(t, "DM", p["especie_documento"])
	assert.Equal(t, "N", p["aceite"])
	assert.Equal(t, domain.DefaultLocalPagamento, p["local_pagamento"])

	req := exampleRequest()
	req.Aceite = domain.String("S")
	req.Especie = domain.String("")
	p, err = Encode(req)
	require.NoError(t, err)
	assert.Equal(t, "S", p["aceite"])
	assert.Equal(t, "", p["especie"])
}

func TestEncode_DoesNotMutateRequest(t *testing.T) {
	req := exampleRequest()
	req.Extra = map[string]any{"variacao_carteira": "019"}

	p, err := Encode(req)
	require.NoError(t, err)
	p["agencia"] = "changed"

	assert.Equal(t, "3073", req.Agencia)
	assert.Len(t, req.Extra, 1)
	assert.Nil(t, req.Moeda)
}

func TestEncode_Extra(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]any
		ok    bool
	}{
		{"primitives", map[string]any{"codigo_beneficiario": "99", "emitir_pix": true, "posto": 7, "taxa": 1.5}, true},
		{"shadows required", map[string]any{"valor": 1.0}, false},
		{"shadows default", map[string]any{"moeda": "10"}, false},
		{"shadows unset optional", map[string]any{"instrucao5": "x"}, false},
		{"nested object", map[string]any{"pix": map[string]any{"chave": "x"}}, false},
		{"slice", map[string]any{"linhas": []string{"a"}}, false},
		{"nil value", map[string]any{"x": nil}, false},
		{"empty key", map[string]any{"": "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := exampleRequest()
			req.Extra = tt.extra
			_, err := Encode(req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidExtra)
			}
		})
	}
}

func TestEncodeItem(t *testing.T) {
	p, err := EncodeItem(domain.BatchItem{Bank: "Banco-Brasil", Request: exampleRequest()})
	require.NoError(t, err)
	assert.Equal(t, "banco_brasil", p["bank"])

	_, err = EncodeItem(domain.BatchItem{Bank: "nubank", Request: exampleRequest()})
	assert.ErrorIs(t, err, domain.ErrUnsupportedBank)

	req := exampleRequest()
	req.Extra = map[string]any{"bank": "itau"}
	_, err = EncodeItem(domain.BatchItem{Bank: domain.BankSicoob, Request: req})
	assert.ErrorIs(t, err, ErrInvalidExtra)
}

func TestEncodeRemessa(t *testing.T) {
	req := domain.RemessaRequest{
		EmpresaMae:        "Empresa Exemplo LTDA",
		DocumentoCedente:  "12345678000100",
		Agencia:           "3073",
		ContaCorrente:     "12345678",
		Carteira:          domain.String("18"),
		SequencialRemessa: domain.Int(0),
		Pagamentos: []domain.Pagamento{
			{
				NossoNumero:     "123",
				Valor:           150,
				Sacado:          "João da Silva",
				SacadoDocumento: "12345678900",
				ValorDesconto:   domain.Float(0),
				DiasProtesto:    domain.Int(5),
			},
		},
	}

	p, err := EncodeRemessa(req)
	require.NoError(t, err)
	assert.Equal(t, "18", p["carteira"])
	assert.Equal(t, 0, p["sequencial_remessa"])
	assert.NotContains(t, p, "convenio")

	pags, ok := p["pagamentos"].([]Payload)
	require.True(t, ok)
	require.Len(t, pags, 1)
	assert.Equal(t, "João da Silva", pags[0]["nome_sacado"])
	assert.Equal(t, 0.0, pags[0]["valor_desconto"])
	assert.Equal(t, 5, pags[0]["dias_protesto"])
	assert.NotContains(t, pags[0], "data_vencimento")

	req.Extra = map[string]any{"pagamentos": "x"}
	_, err = EncodeRemessa(req)
	assert.ErrorIs(t, err, ErrInvalidExtra)

	req.Extra = nil
	req.Pagamentos[0].Extra = map[string]any{"valor": 1}
	_, err = EncodeRemessa(req)
	assert.ErrorIs(t, err, ErrInvalidExtra)
	assert.Contains(t, err.Error(), "pagamento 1")
}

const fullBoleto = `{
	"bank": "banco_brasil",
	"nosso_numero": "123-4",
	"codigo_barras": "00000000000000000000000000000000000000000000",
	"valor": 150.0,
	"cedente": "Empresa Exemplo LTDA",
	"sacado": "João da Silva",
	"linha_digitavel": "00190.00009 01234.567004 00000.123180 1 00000000015000",
	"valor_documento": 150.0,
	"carteira": "18"
}`

func TestDecodeBoleto(t *testing.T) {
	res, err := DecodeBoleto([]byte(fullBoleto))
	require.NoError(t, err)
	assert.Equal(t, "banco_brasil", res.Bank)
	assert.Equal(t, "123-4", res.NossoNumero)
	assert.Equal(t, 150.0, res.Valor)
	require.NotNil(t, res.LinhaDigitavel)
	require.NotNil(t, res.ValorDocumento)
	assert.Equal(t, 150.0, *res.ValorDocumento)
	assert.Nil(t, res.Convenio)
	assert.True(t, res.BarcodeWellFormed())
}

func TestDecodeBoleto_IntegerCheckDigit(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(fullBoleto), &doc))
	doc["nosso_numero_dv"] = 4
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := DecodeBoleto(body)
	require.NoError(t, err)
	require.NotNil(t, res.NossoNumeroDV)
	assert.Equal(t, "4", res.NossoNumeroDV.String())

	nn, err := DecodeNossoNumero([]byte(`{"nosso_numero":"0000123","nosso_numero_dv":4}`))
	require.NoError(t, err)
	require.NotNil(t, nn.NossoNumeroDV)
	assert.Equal(t, domain.CheckDigit("4"), *nn.NossoNumeroDV)

	nn, err = DecodeNossoNumero([]byte(`{"nosso_numero":"0000123","nosso_numero_dv":null}`))
	require.NoError(t, err)
	assert.Nil(t, nn.NossoNumeroDV)

	_, err = DecodeNossoNumero([]byte(`{"nosso_numero":"0000123","nosso_numero_dv":true}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeBoleto_MissingRequiredKeyFails(t *testing.T) {
	for _, key := range []string{"bank", "nosso_numero", "codigo_barras", "valor", "cedente", "sacado"} {
		t.Run(key, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(fullBoleto), &doc))
			delete(doc, key)
			body, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = DecodeBoleto(body)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeBoleto_LinhaDigitavelAbsentSucceeds(t *testing.T) {
	body := `{"bank":"sicoob","nosso_numero":"1","codigo_barras":"756","valor":10,"cedente":"a","sacado":"b"}`
	res, err := DecodeBoleto([]byte(body))
	require.NoError(t, err)
	assert.Nil(t, res.LinhaDigitavel)
	assert.False(t, res.BarcodeWellFormed(), "length is reported, never enforced")
}

func TestDecodeBoleto_NoCoercion(t *testing.T) {
	bodies := []string{
		`{"bank":"itau","nosso_numero":"1","codigo_barras":"0","valor":"150.00","cedente":"a","sacado":"b"}`,
		`{"bank":"itau","nosso_numero":1,"codigo_barras":"0","valor":150,"cedente":"a","sacado":"b"}`,
		`{"bank":null,"nosso_numero":"1","codigo_barras":"0","valor":150,"cedente":"a","sacado":"b"}`,
		`[]`,
		`not json`,
		``,
	}
	for _, b := range bodies {
		_, err := DecodeBoleto([]byte(b))
		assert.ErrorIs(t, err, ErrDecode, b)
	}
}

func TestDecodeNossoNumero(t *testing.T) {
	res, err := DecodeNossoNumero([]byte(`{"nosso_numero":"0000123","nosso_numero_dv":"4","codigo_barras":null}`))
	require.NoError(t, err)
	assert.Equal(t, "0000123", res.NossoNumero)
	require.NotNil(t, res.NossoNumeroDV)
	assert.Equal(t, domain.CheckDigit("4"), *res.NossoNumeroDV)
	assert.Nil(t, res.CodigoBarras)

	_, err = DecodeNossoNumero([]byte(`{"codigo_barras":"1"}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeValidation(t *testing.T) {
	res, err := DecodeValidation([]byte(`{"valid":true,"message":"Dados do boleto são válidos"}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "Dados do boleto são válidos", res.Message)
	assert.Nil(t, res.Errors)

	res, err = DecodeValidation([]byte(`{"valid":false,"validation_errors":{"agencia":["não pode estar em branco"]},"hint":"Corrija os erros"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Corrija os erros", res.Message)
	assert.Contains(t, res.Errors, "agencia")

	res, err = DecodeValidation([]byte(`{"valid":false,"errors":["arquivo vazio"]}`))
	require.NoError(t, err)
	assert.Equal(t, []any{"arquivo vazio"}, res.Errors["base"])

	_, err = DecodeValidation([]byte(`{"error":"x"}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeHealthAndInfo(t *testing.T) {
	h, err := DecodeHealth([]byte(`{"status":"OK","timestamp":"2026-10-19T10:00:00-03:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "OK", h.Status)

	info, err := DecodeInfo([]byte(`{"name":"Boleto CNAB API","version":"1.4.0","supported_banks":["itau","sicoob"],"supported_formats":["pdf"],"cnab_types":["cnab400","cnab240"]}`))
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, []string{"itau", "sicoob"}, info.SupportedBanks)
	assert.Equal(t, []string{"cnab400", "cnab240"}, info.CNABTypes)

	_, err = DecodeHealth([]byte(`{"status":200}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRetorno(t *testing.T) {
	recs, err := DecodeRetorno([]byte(`[{"nosso_numero":"123","valor_titulo":150.5,"data_credito":null},{"nosso_numero":"124"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	nn, ok := recs[0].String("nosso_numero")
	assert.True(t, ok)
	assert.Equal(t, "123", nn)
	v, ok := recs[0].Number("valor_titulo")
	assert.True(t, ok)
	assert.Equal(t, 150.5, v)
	_, ok = recs[1].Number("valor_titulo")
	assert.False(t, ok)

	recs, err = DecodeRetorno([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = DecodeRetorno([]byte(`{"error":"x"}`))
	assert.True(t, strings.Contains(err.Error(), "retorno"))
}
