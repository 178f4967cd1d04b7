// Package schema holds the JSON Schemas the client checks documents against:
// a per-bank registry for outgoing boleto payloads and fixed schemas for the
// service's response bodies.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
)

// ErrInvalidDocument is wrapped by every schema violation.
var ErrInvalidDocument = errors.New("document does not match schema")

// CommonRequired lists the fields every bank needs in a boleto payload.
var CommonRequired = []string{
	"agencia",
	"conta_corrente",
	"nosso_numero",
	"valor",
	"cedente",
	"documento_cedente",
	"sacado",
	"sacado_documento",
}

// Registry maps banks to request schemas. Banks without an entry use the
// common schema. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	extra    map[domain.BankCode][]string
	compiled map[domain.BankCode]*gojsonschema.Schema
	common   *gojsonschema.Schema
}

// NewRegistry builds a registry holding only the common schema.
func NewRegistry() *Registry {
	return &Registry{
		extra:    make(map[domain.BankCode][]string),
		compiled: make(map[domain.BankCode]*gojsonschema.Schema),
		common:   mustCompile(requestSchema(nil)),
	}
}

// Register adds bank-specific required fields on top of CommonRequired.
// Registering a bank again replaces its previous extra fields.
func (r *Registry) Register(bank domain.BankCode, required ...string) error {
	b, err := domain.ParseBank(string(bank))
	if err != nil {
		return err
	}

	fields := make([]string, 0, len(required))
	for _, f := range required {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	s, err := compile(requestSchema(fields))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", b, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.extra[b] = fields
	r.compiled[b] = s
	return nil
}

// Required returns every field required for bank.
func (r *Registry) Required(bank domain.BankCode) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), CommonRequired...)
	return append(out, r.extra[bank.Normalize()]...)
}

// Validate checks an encoded payload against bank's schema.
func (r *Registry) Validate(bank domain.BankCode, payload map[string]any) error {
	r.mu.RLock()
	s, ok := r.compiled[bank.Normalize()]
	r.mu.RUnlock()
	if !ok {
		s = r.common
	}
	return validate(s, gojsonschema.NewGoLoader(payload))
}

func requestSchema(extraRequired []string) map[string]any {
	required := append([]string(nil), CommonRequired...)
	required = append(required, extraRequired...)

	props := map[string]any{"valor": map[string]any{"type": "number"}}
	for _, f := range CommonRequired {
		if f != "valor" {
			props[f] = map[string]any{"type": "string"}
		}
	}

	return map[string]any{
		"type":                 "object",
		"required":             required,
		"properties":           props,
		"additionalProperties": map[string]any{"type": []string{"string", "number", "boolean"}},
	}
}

func compile(doc map[string]any) (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
}

func mustCompile(doc map[string]any) *gojsonschema.Schema {
	s, err := compile(doc)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return s
}

func validate(s *gojsonschema.Schema, doc gojsonschema.JSONLoader) error {
	result, err := s.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(errs, "; "))
	}

	return nil
}
