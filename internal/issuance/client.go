// Package issuance is the boleto service client: it wires the mapper,
// builder, batch packager and transport engine behind one method per
// endpoint.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/config"
	"github.com/Maxwbh/boleto-cnab-api/internal/core/domain"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/logging"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/metrics"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/redis"
	"github.com/Maxwbh/boleto-cnab-api/internal/infra/transport"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/batch"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/builder"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/mapper"
	"github.com/Maxwbh/boleto-cnab-api/internal/issuance/schema"
)

// Service endpoints.
const (
	PathHealth      = "/api/health"
	PathInfo        = "/api/info"
	PathValidate    = "/api/boleto/validate"
	PathData        = "/api/boleto/data"
	PathNossoNumero = "/api/boleto/nosso_numero"
	PathBoleto      = "/api/boleto"
	PathMulti       = batch.Path
	PathRemessa     = "/api/remessa"
	PathRetorno     = "/api/retorno"
)

// Client is safe for concurrent use. Independent clients share nothing.
type Client struct {
	engine   *transport.Engine
	packager *batch.Packager
	registry *schema.Registry
	monitor  *transport.Monitor
	cache    *redis.Cache
	logger   *slog.Logger
	tempDir  string

	ownsCache bool
}

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	registry   *schema.Registry
	cache      *redis.Cache
	observers  []transport.Observer
	transport  http.RoundTripper
}

// Option customizes a Client.
type Option func(*options)

// WithLogger overrides the logger built from the logging config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics exports per-attempt Prometheus metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithRegistry validates payloads against per-bank schemas before sending.
func WithRegistry(r *schema.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithCache uses c for lookups instead of connecting to cache.redis_url.
// The caller keeps ownership of c.
func WithCache(c *redis.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithObserver adds an attempt observer.
func WithObserver(obs transport.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithTransport replaces the pooled HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New builds a client from cfg. cfg is validated; when cache.redis_url is set
// and no cache is supplied, New connects to Redis.
func New(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.New(cfg.Logging)
	}

	monitor := transport.NewMonitor()
	observers := append([]transport.Observer{monitor}, o.observers...)
	if o.registerer != nil {
		observers = append(observers, metrics.NewCollector(o.registerer))
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	engine, err := transport.NewEngine(transport.Config{
		BaseURL:            cfg.Service.BaseURL,
		Timeout:            cfg.Service.Timeout,
		InsecureSkipVerify: cfg.Service.InsecureSkipVerify,
		UserAgent:          cfg.Service.UserAgent,
		Retry:              retryConfig(cfg.Retry),
		Limiter:            limiter,
		Logger:             logger,
		Observers:          observers,
		Transport:          o.transport,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		engine:   engine,
		registry: o.registry,
		monitor:  monitor,
		cache:    o.cache,
		logger:   logger,
		tempDir:  cfg.Batch.TempDir,
	}

	if c.cache == nil && cfg.Cache.RedisURL != "" {
		cache, err := redis.NewCache(ctx, redis.Config{
			URL:      cfg.Cache.RedisURL,
			Password: cfg.Cache.Password,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			_ = engine.Close()
			return nil, err
		}
		c.cache = cache
		c.ownsCache = true
	}

	c.packager = batch.NewPackager(engine,
		batch.WithTempDir(c.tempDir),
		batch.WithRegistry(c.registry),
		batch.WithLogger(logger),
	)
	return c, nil
}

func retryConfig(rc config.RetryConfig) transport.RetryConfig {
	r := transport.DefaultRetryConfig()
	r.MaxAttempts = rc.MaxAttempts
	r.InitialDelay = rc.InitialDelay
	r.MaxDelay = rc.MaxDelay
	if rc.RetryPost {
		r = r.WithMethod(http.MethodPost)
	}
	return r
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) (*domain.Health, error) {
	res, err := c.engine.Execute(ctx, transport.Call{Path: PathHealth})
	if err != nil {
		return nil, err
	}
	h, err := mapper.DecodeHealth(res.Body)
	if err != nil {
		return nil, transport.DecodeError(res.StatusCode, res.Body, err)
	}
	return h, nil
}

// Info returns the service name, version and supported banks and formats.
func (c *Client) Info(ctx context.Context) (*domain.Info, error) {
	res, err := c.engine.Execute(ctx, transport.Call{Path: PathInfo})
	if err != nil {
		return nil, err
	}
	info, err := mapper.DecodeInfo(res.Body)
	if err != nil {
		return nil, transport.DecodeError(res.StatusCode, res.Body, err)
	}
	return info, nil
}

// Validate asks the service to validate req without rendering anything.
// The service rejects invalid data with 400 and a {valid:false} body; in
// that case both the decoded result and the Validation error are returned.
func (c *Client) Validate(ctx context.Context, bank domain.BankCode, req domain.BoletoRequest) (*domain.ValidationResult, error) {
	q, err := c.query(bank, req, false)
	if err != nil {
		return nil, err
	}

	var res *domain.ValidationResult
	err = c.lookup(ctx, PathValidate, q, func(body []byte) (err error) {
		res, err = mapper.DecodeValidation(body)
		return err
	})
	if err != nil {
		if te, ok := transport.AsError(err); ok && te.Kind == transport.KindValidation && len(te.Body) > 0 {
			if rejected, derr := mapper.DecodeValidation(te.Body); derr == nil {
				return rejected, err
			}
		}
		return nil, err
	}
	return res, nil
}

// Data returns the full boleto data (barcode, digitable line, ...) without
// rendering an artifact.
func (c *Client) Data(ctx context.Context, bank domain.BankCode, req domain.BoletoRequest) (*domain.BoletoResponse, error) {
	q, err := c.query(bank, req, true)
	if err != nil {
		return nil, err
	}
	var res *domain.BoletoResponse
	err = c.lookup(ctx, PathData, q, func(body []byte) (err error) {
		res, err = mapper.DecodeBoleto(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// NossoNumero returns the formatted nosso número and its derived values.
func (c *Client) NossoNumero(ctx context.Context, bank domain.BankCode, req domain.BoletoRequest) (*domain.NossoNumero, error) {
	q, err := c.query(bank, req, true)
	if err != nil {
		return nil, err
	}
	var res *domain.NossoNumero
	err = c.lookup(ctx, PathNossoNumero, q, func(body []byte) (err error) {
		res, err = mapper.DecodeNossoNumero(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Generate renders one boleto as out (pdf when empty).
func (c *Client) Generate(ctx context.Context, bank domain.BankCode, req domain.BoletoRequest, out domain.OutputType) (*domain.Artifact, error) {
	b, payload, err := c.encode(bank, req, true)
	if err != nil {
		return nil, err
	}
	o, err := domain.ParseOutput(string(out))
	if err != nil {
		return nil, transport.LocalError(err)
	}
	q, err := builder.ArtifactQuery(b, o, payload)
	if err != nil {
		return nil, transport.LocalError(err)
	}

	res, err := c.engine.Execute(ctx, transport.Call{Path: PathBoleto, Query: q})
	if err != nil {
		return nil, err
	}
	art, err := mapper.DecodeArtifact(res.Header, res.Body, o.ContentType(), fmt.Sprintf("boleto-%s.%s", b, o))
	if err != nil {
		return nil, transport.DecodeError(res.StatusCode, res.Body, err)
	}
	return art, nil
}

// GenerateMulti renders several boletos, possibly from different banks, into
// one artifact. It is all-or-nothing.
func (c *Client) GenerateMulti(ctx context.Context, items []domain.BatchItem, out domain.OutputType) (*domain.Artifact, error) {
	return c.packager.Package(ctx, items, out)
}

// Remessa generates a CNAB remittance file for bank.
func (c *Client) Remessa(ctx context.Context, bank domain.BankCode, cnab domain.CNABType, req domain.RemessaRequest) (*domain.Artifact, error) {
	b, err := domain.ParseBank(string(bank))
	if err != nil {
		return nil, transport.LocalError(err)
	}
	ct, err := domain.ParseCNAB(string(cnab))
	if err != nil {
		return nil, transport.LocalError(err)
	}
	if len(req.Pagamentos) == 0 {
		return nil, transport.LocalError(fmt.Errorf("remessa: %w", builder.ErrEmptyBatch))
	}
	payload, err := mapper.EncodeRemessa(req)
	if err != nil {
		return nil, transport.LocalError(err)
	}

	body, err := builder.RemessaPayload(c.tempDir, b, ct, payload)
	if err != nil {
		return nil, transport.LocalError(err)
	}
	defer c.release(body)

	res, err := c.engine.Execute(ctx, transport.Call{Method: http.MethodPost, Path: PathRemessa, Body: body})
	if err != nil {
		return nil, err
	}
	art, err := mapper.DecodeArtifact(res.Header, res.Body, "text/plain", fmt.Sprintf("remessa-%s-%s.rem", b, ct))
	if err != nil {
		return nil, transport.DecodeError(res.StatusCode, res.Body, err)
	}
	return art, nil
}

// Retorno parses a CNAB return file into payment records.
func (c *Client) Retorno(ctx context.Context, bank domain.BankCode, cnab domain.CNABType, filename string, content []byte) ([]domain.RetornoRecord, error) {
	if len(content) == 0 {
		return nil, transport.LocalError(errors.New("retorno: empty file"))
	}
	body, err := builder.RetornoPayload(c.tempDir, bank, cnab, filename, content)
	if err != nil {
		return nil, transport.LocalError(err)
	}
	defer c.release(body)

	res, err := c.engine.Execute(ctx, transport.Call{Method: http.MethodPost, Path: PathRetorno, Body: body})
	if err != nil {
		return nil, err
	}
	records, err := mapper.DecodeRetorno(res.Body)
	if err != nil {
		return nil, transport.DecodeError(res.StatusCode, res.Body, err)
	}
	return records, nil
}

// Stats returns the client's attempt health statistics.
func (c *Client) Stats() transport.MonitorStats {
	return c.monitor.Stats()
}

// Close releases pooled connections and, when the client opened it, the cache.
func (c *Client) Close() error {
	err := c.engine.Close()
	if c.ownsCache && c.cache != nil {
		err = errors.Join(err, c.cache.Close())
	}
	return err
}

func (c *Client) encode(bank domain.BankCode, req domain.BoletoRequest, checkSchema bool) (domain.BankCode, mapper.Payload, error) {
	b, err := domain.ParseBank(string(bank))
	if err != nil {
		return "", nil, transport.LocalError(err)
	}
	payload, err := mapper.Encode(req)
	if err != nil {
		return "", nil, transport.LocalError(err)
	}
	if checkSchema && c.registry != nil {
		if err := c.registry.Validate(b, payload); err != nil {
			return "", nil, transport.LocalError(err)
		}
	}
	return b, payload, nil
}

func (c *Client) query(bank domain.BankCode, req domain.BoletoRequest, checkSchema bool) (url.Values, error) {
	b, payload, err := c.encode(bank, req, checkSchema)
	if err != nil {
		return nil, err
	}
	q, err := builder.Query(b, payload)
	if err != nil {
		return nil, transport.LocalError(err)
	}
	return q, nil
}

// lookup runs an idempotent GET through the cache when one is configured.
// decode runs on every body, cached or fresh; only bodies that decode are
// stored. Cache failures are logged and never fail the call.
func (c *Client) lookup(ctx context.Context, path string, q url.Values, decode func([]byte) error) error {
	var key string
	if c.cache != nil {
		key = redis.Key(path, q.Get("bank"), []byte(q.Get("data")))
		data, found, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("cache read failed", "path", path, "error", err)
		case found:
			if derr := decode(data); derr == nil {
				c.logger.Debug("cache hit", "path", path)
				return nil
			}
			c.logger.Warn("discarding undecodable cache entry", "path", path)
		}
	}

	res, err := c.engine.Execute(ctx, transport.Call{Path: path, Query: q})
	if err != nil {
		return err
	}
	if err := decode(res.Body); err != nil {
		return transport.DecodeError(res.StatusCode, res.Body, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, res.Body); err != nil {
			c.logger.Warn("cache write failed", "path", path, "error", err)
		}
	}
	return nil
}

func (c *Client) release(body *builder.Multipart) {
	if err := body.Close(); err != nil {
		c.logger.Warn("failed to remove upload payload", "path", body.Path(), "error", err)
	}
}
