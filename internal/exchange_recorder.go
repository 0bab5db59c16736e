package internal

import (
	"context"
	"time"

	"github.com/stremovskyy/recorder"
)

const (
	exchangeRequest  = "request"
	exchangeResponse = "response"
	exchangeError    = "error"
	exchangeMetrics  = "metrics"
)

// ExchangeRecord is one stored leg of a gateway exchange.
type ExchangeRecord struct {
	ExchangeId string            `bson:"exchange_id"`
	Kind       string            `bson:"kind"`
	Time       time.Time         `bson:"time"`
	Body       []byte            `bson:"body,omitempty"`
	Error      string            `bson:"error,omitempty"`
	Tags       []string          `bson:"tags,omitempty"`
	Values     map[string]string `bson:"values,omitempty"`
}

// ExchangeStore persists exchange records.
type ExchangeStore interface {
	SaveExchange(ctx context.Context, record *ExchangeRecord) error
	FindExchange(ctx context.Context, exchangeId, kind string) (*ExchangeRecord, error)
	FindExchangesByTag(ctx context.Context, tag string) ([]string, error)
}

// ExchangeRecorder keeps gateway exchanges in a store so disputes with the gateway can be
// traced back to the exact form that was sent.
type ExchangeRecorder struct {
	store ExchangeStore
}

var _ recorder.Recorder = (*ExchangeRecorder)(nil)

func NewExchangeRecorder(store ExchangeStore) *ExchangeRecorder {
	return &ExchangeRecorder{store: store}
}

func (r *ExchangeRecorder) RecordRequest(ctx context.Context, id *string, requestID string, request []byte, tags map[string]string) error {
	return r.save(ctx, id, requestID, exchangeRequest, request, "", tags)
}

func (r *ExchangeRecorder) RecordResponse(ctx context.Context, id *string, requestID string, response []byte, tags map[string]string) error {
	return r.save(ctx, id, requestID, exchangeResponse, response, "", tags)
}

func (r *ExchangeRecorder) RecordError(ctx context.Context, id *string, requestID string, err error, tags map[string]string) error {
	text := ""
	if err != nil {
		text = err.Error()
	}
	return r.save(ctx, id, requestID, exchangeError, nil, text, tags)
}

func (r *ExchangeRecorder) RecordMetrics(ctx context.Context, id *string, requestID string, metrics map[string]string, tags map[string]string) error {
	record := r.record(id, requestID, exchangeMetrics, tags)
	record.Values = metrics
	return r.store.SaveExchange(ctx, record)
}

func (r *ExchangeRecorder) GetRequest(ctx context.Context, requestID string) ([]byte, error) {
	return r.body(ctx, requestID, exchangeRequest)
}

func (r *ExchangeRecorder) GetResponse(ctx context.Context, requestID string) ([]byte, error) {
	return r.body(ctx, requestID, exchangeResponse)
}

func (r *ExchangeRecorder) FindByTag(ctx context.Context, tag string) ([]string, error) {
	return r.store.FindExchangesByTag(ctx, tag)
}

// Async is not supported, records are written inline.
func (r *ExchangeRecorder) Async() recorder.AsyncRecorder {
	return nil
}

func (r *ExchangeRecorder) save(ctx context.Context, id *string, requestID, kind string, body []byte, errText string, tags map[string]string) error {
	record := r.record(id, requestID, kind, tags)
	record.Body = body
	record.Error = errText
	return r.store.SaveExchange(ctx, record)
}

func (r *ExchangeRecorder) record(id *string, requestID, kind string, tags map[string]string) *ExchangeRecord {
	record := &ExchangeRecord{
		ExchangeId: requestID,
		Kind:       kind,
		Time:       time.Now(),
	}
	if id != nil && *id != "" {
		record.Tags = append(record.Tags, *id)
	}
	for _, value := range tags {
		record.Tags = append(record.Tags, value)
	}
	return record
}

func (r *ExchangeRecorder) body(ctx context.Context, requestID, kind string) ([]byte, error) {
	record, err := r.store.FindExchange(ctx, requestID, kind)
	if err != nil || record == nil {
		return nil, err
	}
	return record.Body, nil
}
