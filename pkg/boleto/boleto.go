// Package boleto is a resilient client for the Boleto CNAB API.
//
// This package offers:
//   - Boleto data, nosso número, validation and artifact rendering (pdf, jpg, png, tif)
//   - Multi-boleto batches in one combined artifact
//   - CNAB remessa generation and retorno parsing
//   - Per-attempt timeouts, exponential backoff and a typed error taxonomy
//   - Optional Redis response cache, Prometheus metrics and rate limiting
//
// # Quick Start
//
//	import "github.com/Maxwbh/boleto-cnab-api/pkg/boleto"
//
//	client, err := boleto.NewClient(ctx, boleto.DefaultConfig("https://boleto.example.com"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	data, err := client.Data(ctx, boleto.BankBancoBrasil, boleto.Request{
//	    Agencia:          "3073",
//	    ContaCorrente:    "12345678",
//	    NossoNumero:      "123",
//	    Valor:            150.00,
//	    Cedente:          "Empresa Exemplo LTDA",
//	    DocumentoCedente: "12345678000100",
//	    Sacado:           "João da Silva",
//	    SacadoDocumento:  "12345678900",
//	    Convenio:         boleto.String("01234567"),
//	})
//
// # Errors
//
// Every failure is an *Error. Branch on its Kind, never on the message:
//
//	switch boleto.KindOf(err) {
//	case boleto.KindValidation:   // payload rejected (400) or invalid locally
//	case boleto.KindConnectivity: // no response
//	case boleto.KindTimeout:      // attempt deadline exceeded
//	case boleto.KindGeneric:      // any other status >= 400
//	}
//
// # Validation
//
// Validate is the one call that can return a result and an error together.
// When the service rejects the payload with a 400, the returned
// *ValidationResult (Valid false, per-field Errors) is non-nil and err has
// KindValidation. Read the result before returning on err:
//
//	res, err := client.Validate(ctx, boleto.BankItau, req)
//	if res != nil && !res.Valid {
//	    for field, msgs := range res.Errors {
//	        log.Printf("%s: %v", field, msgs)
//	    }
//	}
//	if err != nil {
//	    return err
//	}
//
// Optional request fields are pointers: nil lets the service apply the bank
// default, while a pointer to "" or 0 is sent as is.
package boleto

import (
	"context"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/config"
	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/redis"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/transport"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/schema"
)

// =============================================================================
// Client
// =============================================================================

// Client talks to one Boleto CNAB API deployment. Safe for concurrent use.
type Client = issuance.Client

// Option customizes a Client.
type Option = issuance.Option

// Config is the client configuration.
type Config = config.AppConfig

// NewClient builds a client from cfg.
func NewClient(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	return issuance.New(ctx, cfg, opts...)
}

// DefaultConfig returns a configuration for baseURL with defaults filled in.
func DefaultConfig(baseURL string) *Config {
	return config.Default(baseURL)
}

// LoadConfig reads a YAML configuration file, loading envFiles first.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	return config.Load(path, envFiles...)
}

var (
	WithLogger    = issuance.WithLogger
	WithMetrics   = issuance.WithMetrics
	WithRegistry  = issuance.WithRegistry
	WithCache     = issuance.WithCache
	WithObserver  = issuance.WithObserver
	WithTransport = issuance.WithTransport
)

// =============================================================================
// Data model
// =============================================================================

// Request is the payload of a single boleto.
type Request = domain.BoletoRequest

// Response is the decoded boleto data.
type Response = domain.BoletoResponse

// BatchItem is a boleto tagged with its bank, for GenerateMulti.
type BatchItem = domain.BatchItem

// NossoNumero is the decoded nosso número lookup.
type NossoNumero = domain.NossoNumero

// CheckDigit is a verification digit the service may send as text or integer.
type CheckDigit = domain.CheckDigit

// ValidationResult is the decoded validation verdict.
type ValidationResult = domain.ValidationResult

// Health is the service health answer.
type Health = domain.Health

// Info describes the service deployment.
type Info = domain.Info

// Artifact is a rendered file.
type Artifact = domain.Artifact

// RemessaRequest describes a CNAB remittance.
type RemessaRequest = domain.RemessaRequest

// Pagamento is one payment inside a remessa.
type Pagamento = domain.Pagamento

// RetornoRecord is one payment parsed from a retorno file.
type RetornoRecord = domain.RetornoRecord

// Bank selects the issuing bank.
type Bank = domain.BankCode

// OutputType selects the rendered format.
type OutputType = domain.OutputType

// CNABType selects the CNAB layout.
type CNABType = domain.CNABType

// Supported banks
const (
	BankBancoBrasil   = domain.BankBancoBrasil
	BankItau          = domain.BankItau
	BankBradesco      = domain.BankBradesco
	BankCaixa         = domain.BankCaixa
	BankSantander     = domain.BankSantander
	BankSicoob        = domain.BankSicoob
	BankSicredi       = domain.BankSicredi
	BankBanrisul      = domain.BankBanrisul
	BankBanestes      = domain.BankBanestes
	BankBancoNordeste = domain.BankBancoNordeste
	BankBancoBrasilia = domain.BankBancoBrasilia
	BankUnicred       = domain.BankUnicred
	BankCredisis      = domain.BankCredisis
	BankSafra         = domain.BankSafra
	BankCitibank      = domain.BankCitibank
	BankHSBC          = domain.BankHSBC
	BankAilos         = domain.BankAilos
)

// Output types
const (
	OutputPDF = domain.OutputPDF
	OutputJPG = domain.OutputJPG
	OutputPNG = domain.OutputPNG
	OutputTIF = domain.OutputTIF
)

// CNAB layouts
const (
	CNAB400 = domain.CNAB400
	CNAB240 = domain.CNAB240
)

// String returns a pointer to s.
func String(s string) *string { return domain.String(s) }

// Int returns a pointer to n.
func Int(n int) *int { return domain.Int(n) }

// Float returns a pointer to f.
func Float(f float64) *float64 { return domain.Float(f) }

// =============================================================================
// Errors
// =============================================================================

// Error is the envelope every failed call returns.
type Error = transport.Error

// Kind classifies an Error.
type Kind = transport.Kind

// Error kinds
const (
	KindValidation   = transport.KindValidation
	KindConnectivity = transport.KindConnectivity
	KindTimeout      = transport.KindTimeout
	KindGeneric      = transport.KindGeneric
)

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	k, _ := transport.KindOf(err)
	return k
}

// AsError extracts the *Error from err.
var AsError = transport.AsError

// =============================================================================
// Observability and extension
// =============================================================================

// Attempt describes one HTTP attempt.
type Attempt = transport.Attempt

// Observer is notified after every attempt.
type Observer = transport.Observer

// ObserverFunc adapts a function to Observer.
type ObserverFunc = transport.ObserverFunc

// MonitorStats is the snapshot returned by Client.Stats.
type MonitorStats = transport.MonitorStats

// SchemaRegistry holds per-bank required fields.
type SchemaRegistry = schema.Registry

// NewSchemaRegistry returns a registry with only the common required fields.
func NewSchemaRegistry() *SchemaRegistry {
	return schema.NewRegistry()
}

// Cache is the Redis response cache.
type Cache = redis.Cache

// CacheConfig configures a Cache.
type CacheConfig = redis.Config

// NewCache connects to Redis.
func NewCache(ctx context.Context, cfg CacheConfig) (*Cache, error) {
	return redis.NewCache(ctx, cfg)
}
