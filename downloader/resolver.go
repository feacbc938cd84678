package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"teraplay/internal"
	"teraplay/utils"
)

// maxUpstreamBody caps how much of a resolver response is decoded
const maxUpstreamBody = 10 << 20

var errNoEndpointSucceeded = errors.New("no resolver endpoint succeeded")

// EndpointResolver implements internal.LinkResolver by asking an ordered list
// of resolver services, one at a time, until one returns a usable file.
type EndpointResolver struct {
	endpoints []internal.ResolverEndpoint
	fetcher   internal.Fetcher
	timeout   time.Duration
	validator *utils.URLValidator
	metrics   *Metrics
}

var _ internal.LinkResolver = (*EndpointResolver)(nil)

// ResolverOption customizes an EndpointResolver
type ResolverOption func(*EndpointResolver)

// WithFetcher replaces the HTTP client, mostly for tests
func WithFetcher(fetcher internal.Fetcher) ResolverOption {
	return func(r *EndpointResolver) {
		r.fetcher = fetcher
	}
}

// WithMetrics records per-attempt outcomes
func WithMetrics(metrics *Metrics) ResolverOption {
	return func(r *EndpointResolver) {
		r.metrics = metrics
	}
}

// NewEndpointResolver builds a resolver from configuration. Each endpoint gets
// a single attempt bounded by config.EndpointTimeout.
func NewEndpointResolver(config *internal.Config, opts ...ResolverOption) (*EndpointResolver, error) {
	r := &EndpointResolver{
		endpoints: append([]internal.ResolverEndpoint(nil), config.Endpoints...),
		timeout:   config.EndpointTimeout,
	}
	if r.timeout <= 0 {
		r.timeout = internal.DefaultConfig().EndpointTimeout
	}
	if config.StrictHosts {
		r.validator = utils.NewURLValidator(config.AllowedDomains)
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.fetcher == nil {
		client, err := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
			ProxyURL:    config.ProxyURL,
			RetryConfig: utils.SingleAttempt(),
		})
		if err != nil {
			return nil, err
		}
		r.fetcher = client
	}

	return r, nil
}

// Endpoints returns the configured endpoints in trial order
func (r *EndpointResolver) Endpoints() []internal.ResolverEndpoint {
	return append([]internal.ResolverEndpoint(nil), r.endpoints...)
}

// Resolve returns the descriptor from the first endpoint that answers with
// success and a file. Errors are always *internal.ResolveError of kind
// input, exhausted or internal; individual endpoint failures are only logged.
func (r *EndpointResolver) Resolve(ctx context.Context, sourceURL string) (*internal.MediaDescriptor, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		r.metrics.observeResolution(resolutionInvalid)
		return nil, internal.NewInputError(internal.MsgURLRequired)
	}

	if r.validator != nil {
		info, err := r.validator.ParseURL(sourceURL)
		if err != nil {
			r.metrics.observeResolution(resolutionInvalid)
			return nil, err
		}
		internal.LogDebug("Share link accepted: %s", info)
	}

	attempts := lo.Map(r.endpoints, func(endpoint internal.ResolverEndpoint, i int) attempt[*internal.MediaDescriptor] {
		return func(ctx context.Context) mo.Result[*internal.MediaDescriptor] {
			return r.query(ctx, i+1, endpoint, sourceURL)
		}
	})

	outcome, failures := firstSuccess(ctx, attempts)
	if desc, err := outcome.Get(); err == nil {
		r.metrics.observeResolution(resolutionSuccess)
		internal.WithFields(map[string]interface{}{
			"endpoint": r.endpoints[len(failures)].Name,
			"attempt":  len(failures) + 1,
		}).Info("Resolved %s", desc.Filename)
		return desc, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		r.metrics.observeResolution(resolutionCancelled)
		return nil, internal.NewInternalError(ctxErr).WithURL(sourceURL)
	}

	r.metrics.observeResolution(resolutionExhausted)
	exhausted := internal.NewExhaustionError(len(failures)).WithURL(sourceURL)
	internal.LogResolveError(exhausted)
	return nil, exhausted
}

// query makes the single attempt against one endpoint
func (r *EndpointResolver) query(ctx context.Context, attemptNo int, endpoint internal.ResolverEndpoint, sourceURL string) mo.Result[*internal.MediaDescriptor] {
	start := time.Now()
	result := r.fetch(ctx, endpoint, sourceURL)
	r.metrics.observeAttempt(endpoint.Name, result.IsOk(), time.Since(start))

	if err := result.Error(); err != nil {
		fields := map[string]interface{}{
			"endpoint": endpoint.Name,
			"attempt":  attemptNo,
		}
		if resolveErr, ok := internal.AsResolveError(err); ok && resolveErr.Status != 0 {
			fields["status"] = resolveErr.Status
		}
		internal.WithFields(fields).Warn("Resolver endpoint failed: %v", err)
	}
	return result
}

func (r *EndpointResolver) fetch(ctx context.Context, endpoint internal.ResolverEndpoint, sourceURL string) mo.Result[*internal.MediaDescriptor] {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	queryURL := endpoint.URLTemplate + utils.EncodeURIComponent(sourceURL)
	resp, err := r.fetcher.GetWithContext(attemptCtx, queryURL, map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		status := 0
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		return mo.Err[*internal.MediaDescriptor](
			internal.NewEndpointError(endpoint.Name, status, "request failed", err))
	}
	defer resp.Body.Close()

	var payload internal.UpstreamPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBody)).Decode(&payload); err != nil {
		return mo.Err[*internal.MediaDescriptor](
			internal.NewEndpointError(endpoint.Name, resp.StatusCode, "malformed response", err))
	}

	if !payload.Success {
		return mo.Err[*internal.MediaDescriptor](
			internal.NewEndpointError(endpoint.Name, resp.StatusCode, "endpoint reported failure", nil))
	}
	if payload.File == nil {
		return mo.Err[*internal.MediaDescriptor](
			internal.NewEndpointError(endpoint.Name, resp.StatusCode, "response has no file", nil))
	}

	return mo.Ok(payload.File.Descriptor())
}

type attempt[T any] func(ctx context.Context) mo.Result[T]

// firstSuccess runs attempts in order and stops at the first Ok. Failures are
// returned in attempt order. When nothing succeeds the outcome carries
// errNoEndpointSucceeded, or the context error if ctx ended first.
func firstSuccess[T any](ctx context.Context, attempts []attempt[T]) (mo.Result[T], []error) {
	failures := make([]error, 0, len(attempts))
	for _, try := range attempts {
		if err := ctx.Err(); err != nil {
			return mo.Err[T](fmt.Errorf("stopped after %d attempts: %w", len(failures), err)), failures
		}
		outcome := try(ctx)
		if outcome.IsOk() {
			return outcome, failures
		}
		failures = append(failures, outcome.Error())
	}
	return mo.Err[T](errNoEndpointSucceeded), failures
}
