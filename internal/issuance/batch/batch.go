// Package batch packages several boletos into one combined artifact request.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/transport"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/builder"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/mapper"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/schema"
)

// Path is the multi-boleto endpoint.
const Path = "/api/boleto/multi"

// Executor runs one logical call. *transport.Engine satisfies it.
type Executor interface {
	Execute(ctx context.Context, call transport.Call) (*transport.RawResult, error)
}

// Packager issues multi-boleto requests. It holds no per-call state.
type Packager struct {
	exec     Executor
	tempDir  string
	registry *schema.Registry
	logger   *slog.Logger
}

// Option configures a Packager.
type Option func(*Packager)

// WithTempDir sets where transient payloads are written.
func WithTempDir(dir string) Option {
	return func(p *Packager) { p.tempDir = dir }
}

// WithRegistry validates every encoded item against its bank schema before
// anything is written.
func WithRegistry(r *schema.Registry) Option {
	return func(p *Packager) { p.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Packager) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPackager creates a Packager over exec.
func NewPackager(exec Executor, opts ...Option) *Packager {
	p := &Packager{
		exec:   exec,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Package encodes items in order, writes one transient multipart payload and
// sends it in exactly one call. The service reports no partial success, so
// any failure is returned for the whole batch. The payload is removed on
// every exit path.
func (p *Packager) Package(ctx context.Context, items []domain.BatchItem, out domain.OutputType) (*domain.Artifact, error) {
	if len(items) == 0 {
		return nil, transport.LocalError(builder.ErrEmptyBatch)
	}
	o, err := domain.ParseOutput(string(out))
	if err != nil {
		return nil, transport.LocalError(err)
	}

	entries := make([]mapper.Payload, 0, len(items))
	for i, item := range items {
		entry, err := mapper.EncodeItem(item)
		if err != nil {
			return nil, transport.LocalError(fmt.Errorf("item %d: %w", i+1, err))
		}
		if p.registry != nil {
			if err := p.registry.Validate(item.Bank, entry); err != nil {
				return nil, transport.LocalError(fmt.Errorf("item %d (%s): %w", i+1, entry["bank"], err))
			}
		}
		entries = append(entries, entry)
	}

	payload, err := builder.BatchPayload(p.tempDir, entries, o)
	if err != nil {
		return nil, transport.LocalError(err)
	}
	defer func() {
		if cerr := payload.Close(); cerr != nil {
			p.logger.Warn("failed to remove batch payload", "path", payload.Path(), "error", cerr)
		}
	}()

	p.logger.Debug("sending batch", "items", len(items), "type", o, "bytes", payload.Size())

	res, err := p.exec.Execute(ctx, transport.Call{
		Method: http.MethodPost,
		Path:   Path,
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}

	art, err := mapper.DecodeArtifact(res.Header, res.Body, o.ContentType(), "boletos."+string(o))
	if err != nil {
		return nil, transport.DecodeError(res.StatusCode, res.Body, err)
	}
	return art, nil
}
