// Package client talks to the competition server.
//
// All requests are plain HTTP with JSON bodies. Protocol requests
// authenticate with a static X-Auth-Token header.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/protocol"
)

const (
	AuthHeader     = "X-Auth-Token"
	DefaultTimeout = 30 * time.Second
	logBodyLimit   = 500
)

type (
	Option func(*Client)
	Client struct {
		baseURL  *url.URL
		token    string
		timeout  time.Duration
		http     *http.Client
		l        *log.Logger
		tracer   trace.Tracer
		requests metric.Int64Counter
	}
)

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default instrumented client.
// WithTimeout is ignored in that case.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// New returns ErrInvalidURL if baseURL is not an absolute http(s) url
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}
	ret := &Client{
		baseURL: u,
		timeout: DefaultTimeout,
		l:       log.Default().Named("client"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.http == nil {
		ret.http = &http.Client{
			Timeout:   ret.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("spc")
	}
	ret.requests, err = otel.Meter("spc").Int64Counter("spc.client.requests",
		metric.WithDescription("requests sent to the competition server"))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// FetchCompetitions returns the competitions offered to athletes
func (c *Client) FetchCompetitions(ctx context.Context) ([]model.Competition, error) {
	endpoint := c.baseURL.JoinPath("api", "athlete", "competitions")
	body, err := c.do(ctx, "competitions.fetch", "", http.MethodGet, endpoint, nil, false)
	if err != nil {
		return nil, err
	}
	ret, err := protocol.DecodeCompetitions(body)
	if err != nil {
		return nil, err
	}
	c.l.Debug("competitions decoded", log.Int("count", len(ret)))
	return ret, nil
}

// FetchStartProtocol returns a freshly decoded protocol tree
//
//nolint:whitespace // editor/linter issue
func (c *Client) FetchStartProtocol(
	ctx context.Context,
	competitionID string,
) (*model.Protocol, error) {
	endpoint, err := c.competitionURL(competitionID, "start-protocol")
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "protocol.fetch", competitionID, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return nil, err
	}
	ret, err := protocol.Decode(body, protocol.WithLogger(c.l.Named("protocol")))
	if err != nil {
		c.l.Warn("could not decode start protocol",
			log.String("competitionId", competitionID),
			log.String("body", truncate(body)),
			log.ErrorField(err))
		return nil, err
	}
	c.l.Debug("start protocol decoded",
		log.String("competitionName", ret.CompetitionName),
		log.Int("disciplines", len(ret.Disciplines)))
	return ret, nil
}

// SubmitFinishProtocol posts all entries in a single request
//
//nolint:whitespace // editor/linter issue
func (c *Client) SubmitFinishProtocol(
	ctx context.Context,
	competitionID string,
	entries []model.FinishProtocolEntry,
) (*SubmitResult, error) {
	endpoint, err := c.competitionURL(competitionID, "finish-protocol")
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "protocol.submit", competitionID, http.MethodPost, endpoint,
		payload, true)
	if err != nil {
		return nil, err
	}
	ret := &SubmitResult{Submitted: len(entries), Stats: extractStats(body)}
	c.l.Info("finish protocol submitted",
		log.String("competitionId", competitionID),
		log.String("result", ret.Message()))
	return ret, nil
}

func (c *Client) competitionURL(competitionID, resource string) (*url.URL, error) {
	if competitionID == "" || competitionID == "." || competitionID == ".." ||
		strings.ContainsAny(competitionID, `/\?#`) {
		return nil, fmt.Errorf("%w: competition id %q", ErrInvalidURL, competitionID)
	}
	return c.baseURL.JoinPath("api", "competitions", competitionID, resource), nil
}

//nolint:whitespace,funlen // editor/linter issue
func (c *Client) do(
	ctx context.Context,
	op, competitionID, method string,
	endpoint *url.URL,
	payload []byte,
	auth bool,
) (respBody []byte, err error) {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("url", endpoint.String()),
		attribute.String("competition.id", competitionID),
	))
	status := 0
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("http.status", status))
		span.End()
		c.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.Int("status", status)))
	}()

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.token != "" {
		req.Header.Set(AuthHeader, c.token)
	}
	c.l.Debug("sending request",
		log.String("op", op),
		log.String("method", method),
		log.String("url", endpoint.String()),
		log.String("body", truncate(payload)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, URL: endpoint.String(), Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, URL: endpoint.String(), Err: err}
	}
	c.l.Debug("got response",
		log.String("op", op),
		log.Int("status", resp.StatusCode),
		log.String("body", truncate(respBody)))

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			URL:        endpoint.String(),
		}
	}
	return respBody, nil
}

func truncate(data []byte) string {
	if len(data) <= logBodyLimit {
		return string(data)
	}
	return string(data[:logBodyLimit]) + "..."
}
