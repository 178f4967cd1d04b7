package domain

import (
	"encoding/json"
	"fmt"
)

// Protocol defaults sent when the caller leaves the field unset.
const (
	DefaultMoeda            = "9"
	DefaultEspecie          = "R$"
	DefaultEspecieDocumento = "DM"
	DefaultAceite           = "N"
	DefaultLocalPagamento   = "Pagavel em qualquer banco ate o vencimento"
)

// BoletoRequest is the payload for a single boleto. Value fields are always
// sent; pointer fields are sent only when non-nil, so a pointer to "" is an
// explicit empty value while nil lets the service apply its bank default.
type BoletoRequest struct {
	Agencia          string
	ContaCorrente    string
	NossoNumero      string
	Valor            float64
	Cedente          string
	DocumentoCedente string
	Sacado           string
	SacadoDocumento  string

	Convenio          *string
	Carteira          *string
	DigitoConta       *string
	Variacao          *string
	NumeroDocumento   *string
	DocumentoNumero   *string
	DataVencimento    *string // YYYY/MM/DD
	DataDocumento     *string
	DataProcessamento *string
	SacadoEndereco    *string
	CedenteEndereco   *string

	Moeda            *string
	Especie          *string
	EspecieDocumento *string
	Aceite           *string
	LocalPagamento   *string

	Instrucao1 *string
	Instrucao2 *string
	Instrucao3 *string
	Instrucao4 *string
	Instrucao5 *string
	Instrucao6 *string
	Instrucao7 *string

	// Extra holds bank-specific keys the typed fields do not cover.
	// Values must be JSON primitives.
	Extra map[string]any
}

// BatchItem is a boleto tagged with the bank that issues it.
type BatchItem struct {
	Bank    BankCode
	Request BoletoRequest
}

// BoletoResponse is the decoded body of /api/boleto/data.
type BoletoResponse struct {
	Bank         string  `json:"bank"`
	NossoNumero  string  `json:"nosso_numero"`
	CodigoBarras string  `json:"codigo_barras"`
	Valor        float64 `json:"valor"`
	Cedente      string  `json:"cedente"`
	Sacado       string  `json:"sacado"`

	LinhaDigitavel           *string     `json:"linha_digitavel,omitempty"`
	NossoNumeroDV            *CheckDigit `json:"nosso_numero_dv,omitempty"`
	AgenciaContaBoleto       *string     `json:"agencia_conta_boleto,omitempty"`
	CodigoBarrasSegundaParte *string     `json:"codigo_barras_segunda_parte,omitempty"`
	Carteira                 *string     `json:"carteira,omitempty"`
	NumeroDocumento          *string     `json:"numero_documento,omitempty"`
	ValorDocumento           *float64    `json:"valor_documento,omitempty"`
	DataVencimento           *string     `json:"data_vencimento,omitempty"`
	DataDocumento            *string     `json:"data_documento,omitempty"`
	DataProcessamento        *string     `json:"data_processamento,omitempty"`
	DocumentoCedente         *string     `json:"documento_cedente,omitempty"`
	SacadoDocumento          *string     `json:"sacado_documento,omitempty"`
	Agencia                  *string     `json:"agencia,omitempty"`
	ContaCorrente            *string     `json:"conta_corrente,omitempty"`
	Convenio                 *string     `json:"convenio,omitempty"`
}

// BarcodeLength is the size of a well-formed codigo_barras.
const BarcodeLength = 44

// BarcodeWellFormed reports whether CodigoBarras is 44 ASCII digits.
// The service does not guarantee it, so decoding never enforces it.
func (r *BoletoResponse) BarcodeWellFormed() bool {
	if len(r.CodigoBarras) != BarcodeLength {
		return false
	}
	for i := 0; i < len(r.CodigoBarras); i++ {
		if r.CodigoBarras[i] < '0' || r.CodigoBarras[i] > '9' {
			return false
		}
	}
	return true
}

// CheckDigit is a derived verification digit. Some banks compute it as an
// integer, so it decodes from a JSON string or number and keeps the text form.
type CheckDigit string

// UnmarshalJSON implements json.Unmarshaler.
func (d *CheckDigit) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = CheckDigit(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("check digit: %w", err)
	}
	*d = CheckDigit(n.String())
	return nil
}

func (d CheckDigit) String() string { return string(d) }

// NossoNumero is the decoded body of /api/boleto/nosso_numero.
type NossoNumero struct {
	NossoNumero        string      `json:"nosso_numero"`
	NossoNumeroDV      *CheckDigit `json:"nosso_numero_dv,omitempty"`
	CodigoBarras       *string     `json:"codigo_barras,omitempty"`
	LinhaDigitavel     *string     `json:"linha_digitavel,omitempty"`
	AgenciaContaBoleto *string     `json:"agencia_conta_boleto,omitempty"`
}

// ValidationResult is the decoded body of /api/boleto/validate.
// Errors holds whichever of "errors"/"validation_errors" the service sent.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Message string         `json:"message,omitempty"`
	Errors  map[string]any `json:"errors,omitempty"`
}

// Health is the decoded body of /api/health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Info is the decoded body of /api/info.
type Info struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	SupportedBanks   []string `json:"supported_banks"`
	SupportedFormats []string `json:"supported_formats"`
	CNABTypes        []string `json:"cnab_types"`
}

// Artifact is a rendered binary returned by the service.
type Artifact struct {
	ContentType string
	Filename    string
	Data        []byte
}

// String returns a pointer to s, for filling optional request fields.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
