// Package builder turns encoded payloads into endpoint parameters: query
// values for single-item calls and temp-file backed multipart bodies for
// batch, remessa and retorno uploads.
package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/mapper"
)

// ErrEmptyBatch is returned for a batch with no items.
var ErrEmptyBatch = errors.New("batch has no items")

// Query builds the bank/data parameters shared by the single-item endpoints.
// The payload travels as one opaque JSON blob because its field set varies
// by bank.
func Query(bank domain.BankCode, payload mapper.Payload) (url.Values, error) {
	b, err := domain.ParseBank(string(bank))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return url.Values{
		"bank": {string(b)},
		"data": {string(data)},
	}, nil
}

// ArtifactQuery is Query plus the output type for /api/boleto.
func ArtifactQuery(bank domain.BankCode, out domain.OutputType, payload mapper.Payload) (url.Values, error) {
	o, err := domain.ParseOutput(string(out))
	if err != nil {
		return nil, err
	}
	q, err := Query(bank, payload)
	if err != nil {
		return nil, err
	}
	q.Set("type", string(o))
	return q, nil
}

// BatchPayload writes the multi-boleto upload: form field "type" and file
// field "data" holding the JSON array of items, order preserved.
func BatchPayload(dir string, entries []mapper.Payload, out domain.OutputType) (*Multipart, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}
	o, err := domain.ParseOutput(string(out))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	return NewMultipart(dir, []Field{{Name: "type", Value: string(o)}}, &File{
		Field:       "data",
		Filename:    "boletos.json",
		ContentType: "application/json",
		Data:        data,
	})
}

// RemessaPayload writes the remessa upload: fields "bank" and "type" plus
// file field "data" holding the remessa JSON.
func RemessaPayload(dir string, bank domain.BankCode, cnab domain.CNABType, payload mapper.Payload) (*Multipart, error) {
	fields, err := cnabFields(bank, cnab)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal remessa: %w", err)
	}
	return NewMultipart(dir, fields, &File{
		Field:       "data",
		Filename:    "remessa.json",
		ContentType: "application/json",
		Data:        data,
	})
}

// RetornoPayload writes the retorno upload: fields "bank" and "type" plus the
// raw CNAB return file under "data".
func RetornoPayload(dir string, bank domain.BankCode, cnab domain.CNABType, filename string, content []byte) (*Multipart, error) {
	fields, err := cnabFields(bank, cnab)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = "retorno.ret"
	}
	return NewMultipart(dir, fields, &File{
		Field:       "data",
		Filename:    filename,
		ContentType: "text/plain",
		Data:        content,
	})
}

func cnabFields(bank domain.BankCode, cnab domain.CNABType) ([]Field, error) {
	b, err := domain.ParseBank(string(bank))
	if err != nil {
		return nil, err
	}
	c, err := domain.ParseCNAB(string(cnab))
	if err != nil {
		return nil, err
	}
	return []Field{
		{Name: "bank", Value: string(b)},
		{Name: "type", Value: string(c)},
	}, nil
}
