package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"overlay/services"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stremovskyy/recorder"
)

const maxLoggedBody = 4096

// GatewayStatusError is a reply with a status other than 200.
type GatewayStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *GatewayStatusError) Error() string {
	if e == nil {
		return "gateway status error"
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	b := e.Body
	if len(b) > 512 {
		b = b[:512]
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, string(b))
}

// GatewayTransportError means no reply was received.
type GatewayTransportError struct {
	Err error
}

func (e *GatewayTransportError) Error() string {
	return fmt.Sprintf("gateway transport: %v", e.Err)
}

func (e *GatewayTransportError) Unwrap() error {
	return e.Err
}

// GatewayClient posts legacy forms. It never retries, a failed call is returned as is.
type GatewayClient struct {
	httpClient *http.Client
	logger     services.LogHandler
	recorder   recorder.Recorder
	logBodies  bool
}

func NewGatewayClient(timeout time.Duration, logger services.LogHandler) *GatewayClient {
	return &GatewayClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
	}
}

// SetRecorder attaches a recorder that stores every exchange with the gateway.
func (g *GatewayClient) SetRecorder(rec recorder.Recorder) {
	g.recorder = rec
}

func (g *GatewayClient) SetLogBodies(enabled bool) {
	g.logBodies = enabled
}

// Post sends the form and returns the raw reply. Replies with any status are returned
// without error; err is set only when no reply was received.
func (g *GatewayClient) Post(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	exchangeId := GetRequestID(ctx)
	if exchangeId == "" {
		exchangeId = uuid.NewString()
	}
	payload := form.Encode()
	g.recordRequest(ctx, exchangeId, []byte(payload))
	g.logger.Debug(fmt.Sprintf("[%s] POST %s: %s", exchangeId, endpoint, logBody([]byte(payload), g.logBodies)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/xml, text/xml, text/plain")

	started := time.Now()
	response, err := g.httpClient.Do(req)
	if err != nil {
		g.recordError(ctx, exchangeId, err)
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return 0, nil, &GatewayTransportError{Err: err}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			g.logger.Error("close response body", err)
		}
	}(response.Body)

	body, err := io.ReadAll(response.Body)
	if err != nil {
		g.recordError(ctx, exchangeId, err)
		return 0, nil, &GatewayTransportError{Err: fmt.Errorf("read response body: %w", err)}
	}
	g.recordResponse(ctx, exchangeId, body)
	g.recordMetrics(ctx, exchangeId, map[string]string{
		"endpoint":   endpoint,
		"status":     strconv.Itoa(response.StatusCode),
		"latency_ms": strconv.FormatInt(time.Since(started).Milliseconds(), 10),
	})
	g.logger.Debug(fmt.Sprintf("[%s] gateway replied %d in %s: %s", exchangeId, response.StatusCode,
		time.Since(started).Round(time.Millisecond), logBody(body, g.logBodies)))

	return response.StatusCode, body, nil
}

// Exchange posts the form and turns any status other than 200 into a GatewayStatusError.
func Exchange(ctx context.Context, gateway services.Gateway, endpoint string, form url.Values) ([]byte, error) {
	status, body, err := gateway.Post(ctx, endpoint, form)
	if err != nil {
		var transportError *GatewayTransportError
		if errors.As(err, &transportError) {
			return nil, err
		}
		return nil, &GatewayTransportError{Err: err}
	}
	if status != http.StatusOK {
		return nil, &GatewayStatusError{StatusCode: status, Body: body}
	}
	return body, nil
}

func (g *GatewayClient) recordRequest(ctx context.Context, requestID string, body []byte) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.RecordRequest(ctx, nil, requestID, body, nil); err != nil {
		g.logger.Warn(fmt.Sprintf("[%s] cannot record request: %v", requestID, err))
	}
}

func (g *GatewayClient) recordResponse(ctx context.Context, requestID string, body []byte) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.RecordResponse(ctx, nil, requestID, body, nil); err != nil {
		g.logger.Warn(fmt.Sprintf("[%s] cannot record response: %v", requestID, err))
	}
}

func (g *GatewayClient) recordError(ctx context.Context, requestID string, err error) {
	if g.recorder == nil || err == nil {
		return
	}
	if recErr := g.recorder.RecordError(ctx, nil, requestID, err, nil); recErr != nil {
		g.logger.Warn(fmt.Sprintf("[%s] cannot record error: %v", requestID, recErr))
	}
}

func (g *GatewayClient) recordMetrics(ctx context.Context, requestID string, metrics map[string]string) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.RecordMetrics(ctx, nil, requestID, metrics, nil); err != nil {
		g.logger.Warn(fmt.Sprintf("[%s] cannot record metrics: %v", requestID, err))
	}
}

func logBody(b []byte, verbose bool) string {
	if !verbose {
		return fmt.Sprintf("size=%d bytes", len(b))
	}
	if len(b) == 0 {
		return "<empty>"
	}
	if json.Valid(b) {
		return truncate(string(b), maxLoggedBody)
	}
	s := strings.TrimSpace(string(b))
	if !utf8.ValidString(s) {
		return fmt.Sprintf("<binary size=%d bytes>", len(b))
	}
	return truncate(s, maxLoggedBody)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
