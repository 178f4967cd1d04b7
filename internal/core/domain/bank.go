package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedBank   = errors.New("unsupported bank")
	ErrUnsupportedOutput = errors.New("unsupported output type")
	ErrUnsupportedCNAB   = errors.New("unsupported cnab type")
)

// BankCode is the service's bank selector (e.g. "banco_brasil").
type BankCode string

const (
	BankBancoBrasil   BankCode = "banco_brasil"
	BankItau          BankCode = "itau"
	BankBradesco      BankCode = "bradesco"
	BankCaixa         BankCode = "caixa"
	BankSantander     BankCode = "santander"
	BankSicoob        BankCode = "sicoob"
	BankSicredi       BankCode = "sicredi"
	BankBanrisul      BankCode = "banrisul"
	BankBanestes      BankCode = "banestes"
	BankBancoNordeste BankCode = "banco_nordeste"
	BankBancoBrasilia BankCode = "banco_brasilia"
	BankUnicred       BankCode = "unicred"
	BankCredisis      BankCode = "credisis"
	BankSafra         BankCode = "safra"
	BankCitibank      BankCode = "citibank"
	BankHSBC          BankCode = "hsbc"
	BankAilos         BankCode = "ailos"
)

// SupportedBanks lists the bank selectors accepted by the boleto endpoints.
var SupportedBanks = []BankCode{
	BankBancoBrasil, BankItau, BankBradesco, BankCaixa, BankSantander,
	BankSicoob, BankSicredi, BankBanrisul, BankBanestes, BankBancoNordeste,
	BankBancoBrasilia, BankUnicred, BankCredisis, BankSafra, BankCitibank,
	BankHSBC, BankAilos,
}

// Normalize lowercases the code and turns dashes into underscores,
// matching how the service resolves bank names.
func (b BankCode) Normalize() BankCode {
	return BankCode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(b))), "-", "_"))
}

// Supported reports whether the normalized code is a known bank.
func (b BankCode) Supported() bool {
	n := b.Normalize()
	for _, s := range SupportedBanks {
		if s == n {
			return true
		}
	}
	return false
}

// ParseBank normalizes and checks a bank selector.
func ParseBank(s string) (BankCode, error) {
	b := BankCode(s).Normalize()
	if !b.Supported() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBank, s)
	}
	return b, nil
}

// OutputType selects the artifact format rendered by the service.
type OutputType string

const (
	OutputPDF OutputType = "pdf"
	OutputJPG OutputType = "jpg"
	OutputPNG OutputType = "png"
	OutputTIF OutputType = "tif"
)

// OutputContentTypes maps each output type to the content type the service answers with.
var OutputContentTypes = map[OutputType]string{
	OutputPDF: "application/pdf",
	OutputJPG: "image/jpeg",
	OutputPNG: "image/png",
	OutputTIF: "image/tiff",
}

// ContentType returns the expected MIME type, or application/octet-stream
// for unknown types.
func (o OutputType) ContentType() string {
	if ct, ok := OutputContentTypes[OutputType(strings.ToLower(string(o)))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ParseOutput validates an output type; an empty string means pdf.
func ParseOutput(s string) (OutputType, error) {
	o := OutputType(strings.ToLower(strings.TrimSpace(s)))
	if o == "" {
		return OutputPDF, nil
	}
	if _, ok := OutputContentTypes[o]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOutput, s)
	}
	return o, nil
}

// CNABType selects the interchange layout for remessa/retorno files.
type CNABType string

const (
	CNAB400 CNABType = "cnab400"
	CNAB240 CNABType = "cnab240"
)

// ParseCNAB validates a CNAB type. "400" and "240" are accepted as shorthands.
func ParseCNAB(s string) (CNABType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(v, "cnab") {
		v = "cnab" + v
	}
	switch CNABType(v) {
	case CNAB400, CNAB240:
		return CNABType(v), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCNAB, s)
}
