package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryExchangeStore struct {
	records []*ExchangeRecord
}

func (m *memoryExchangeStore) SaveExchange(_ context.Context, record *ExchangeRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memoryExchangeStore) FindExchange(_ context.Context, exchangeId, kind string) (*ExchangeRecord, error) {
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].ExchangeId == exchangeId && m.records[i].Kind == kind {
			return m.records[i], nil
		}
	}
	return nil, nil
}

func (m *memoryExchangeStore) FindExchangesByTag(_ context.Context, tag string) ([]string, error) {
	var ids []string
	for _, record := range m.records {
		for _, value := range record.Tags {
			if value == tag {
				ids = append(ids, record.ExchangeId)
				break
			}
		}
	}
	return ids, nil
}

func TestExchangeRecorder(t *testing.T) {
	store := &memoryExchangeStore{}
	rec := NewExchangeRecorder(store)
	ctx := context.Background()
	stamp := "1501589373178"

	require.NoError(t, rec.RecordRequest(ctx, &stamp, "req-1", []byte("AMOUNT=100"), map[string]string{"endpoint": "payment"}))
	require.NoError(t, rec.RecordResponse(ctx, nil, "req-1", []byte("<trade/>"), nil))
	require.NoError(t, rec.RecordError(ctx, nil, "req-2", errors.New("timeout"), nil))
	require.NoError(t, rec.RecordMetrics(ctx, nil, "req-1", map[string]string{"status": "200"}, nil))
	require.Len(t, store.records, 4)

	request, err := rec.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "AMOUNT=100", string(request))

	response, err := rec.GetResponse(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "<trade/>", string(response))

	missing, err := rec.GetResponse(ctx, "req-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, "timeout", store.records[2].Error)
	assert.Equal(t, "200", store.records[3].Values["status"])

	ids, err := rec.FindByTag(ctx, stamp)
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1"}, ids)

	ids, err = rec.FindByTag(ctx, "payment")
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1"}, ids)
	assert.Nil(t, rec.Async())
}

func TestGatewayClientWithExchangeRecorder(t *testing.T) {
	store := &memoryExchangeStore{}
	client := NewGatewayClient(0, NewLogger("test", false, nil))
	client.SetRecorder(NewExchangeRecorder(store))

	client.recordRequest(context.Background(), "req-1", []byte("a=b"))
	client.recordError(context.Background(), "req-1", nil)
	require.Len(t, store.records, 1)
	assert.Equal(t, exchangeRequest, store.records[0].Kind)
}
