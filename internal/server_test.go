package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"overlay/entity"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGateway is an httptest stand-in for the legacy gateway answering every post with reply.
func testGateway(t *testing.T, status int, reply []byte) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		w.WriteHeader(status)
		_, _ = w.Write(reply)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestServer(t *testing.T, env string, gatewayUrl string) *Server {
	t.Helper()
	conf := testConfig()
	conf.Env = env
	conf.Gateway.PaymentUrl = gatewayUrl
	conf.Gateway.PollUrl = gatewayUrl + "/poll"
	conf.Gateway.RefundUrl = gatewayUrl + "/refund2"

	payments := NewPayments(conf)
	payments.SetLogger(NewLogger("payments", false, nil))
	payments.SetMerchantStore(NewStaticMerchants([]entity.MerchantParameters{{MerchantId: testMerchant, Secret: testSecret}}))
	payments.SetGateway(NewGatewayClient(5*time.Second, NewLogger("gateway", false, nil)))

	server := NewServer(conf)
	server.SetLogger(NewLogger("server", false, nil))
	server.SetPaymentsService(payments)
	return server
}

func envelope(t *testing.T, key, body string) []byte {
	t.Helper()
	raw, hmac := signed(t, body)
	envelope, err := json.Marshal(map[string]interface{}{
		key:          raw,
		"merchantId": testMerchant,
		"hmac":       hmac,
	})
	require.NoError(t, err)
	return envelope
}

func serve(server *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decodeClientError(t *testing.T, recorder *httptest.ResponseRecorder) entity.ClientError {
	t.Helper()
	var clientErr entity.ClientError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &clientErr))
	return clientErr
}

func TestServerOpenPayment(t *testing.T) {
	gateway, calls := testGateway(t, http.StatusOK, readFixture(t, "payment_wall.xml"))
	server := newTestServer(t, "development", gateway.URL)

	recorder := serve(server, http.MethodPost, openSingle, envelope(t, "payment", singlePaymentJson))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.NotEmpty(t, recorder.Header().Get(requestIDHeader))

	var wall entity.PaymentWall
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &wall))
	assert.Equal(t, "58552843", wall.Payment.Id)
	assert.Len(t, wall.Buttons.List, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestServerOpenPaymentZeroAmount(t *testing.T) {
	gateway, calls := testGateway(t, http.StatusOK, readFixture(t, "payment_wall.xml"))
	server := newTestServer(t, "development", gateway.URL)

	body := strings.Replace(singlePaymentJson, `"totalAmount": 100`, `"totalAmount": 0`, 1)
	recorder := serve(server, http.MethodPost, openSingle, envelope(t, "payment", body))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "21003", decodeClientError(t, recorder).Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestServerOpenPaymentInvalidHmac(t *testing.T) {
	gateway, calls := testGateway(t, http.StatusOK, readFixture(t, "payment_wall.xml"))
	server := newTestServer(t, "development", gateway.URL)

	body := bytes.Replace(envelope(t, "payment", singlePaymentJson), []byte(`"hmac":"`), []byte(`"hmac":"00`), 1)
	recorder := serve(server, http.MethodPost, openSingle, body)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	clientErr := decodeClientError(t, recorder)
	assert.Equal(t, "21001", clientErr.Code)
	assert.Equal(t, http.StatusBadRequest, clientErr.Http)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestServerGatewayErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		code   string
		http   int
	}{
		{"status 500", http.StatusInternalServerError, "Internal Server Error", "11200", http.StatusBadGateway},
		{"empty post", http.StatusOK, "Yhtään tietoa ei siirtynyt POST:lla checkoutille", "11200", http.StatusBadGateway},
		{"unconfigured", http.StatusOK, "Virheellinen kauppiastunnus", "11100", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway, _ := testGateway(t, tt.status, []byte(tt.reply))
			server := newTestServer(t, "development", gateway.URL)

			recorder := serve(server, http.MethodPost, openSingle, envelope(t, "payment", singlePaymentJson))
			assert.Equal(t, tt.http, recorder.Code)
			clientErr := decodeClientError(t, recorder)
			assert.Equal(t, tt.code, clientErr.Code)
			assert.Equal(t, tt.reply, clientErr.RawError)
		})
	}
}

func TestServerMalformedEnvelope(t *testing.T) {
	server := newTestServer(t, "development", "http://127.0.0.1:1")

	recorder := serve(server, http.MethodPost, openSingle, []byte(`{"payment": `))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "21003", decodeClientError(t, recorder).Code)
}

func TestServerShopInShop(t *testing.T) {
	gateway, calls := testGateway(t, http.StatusOK, readFixture(t, "payment_wall.xml"))
	server := newTestServer(t, "development", gateway.URL)

	recorder := serve(server, http.MethodPost, openShopInShop, envelope(t, "payment", validPaymentJson))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestServerPoll(t *testing.T) {
	gateway, _ := testGateway(t, http.StatusOK, readFixture(t, "poll.xml"))
	server := newTestServer(t, "development", gateway.URL)

	recorder := serve(server, http.MethodPost, pollSingle, envelope(t, "poll", pollJson))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var result entity.PollResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, "2", result.Status)
	assert.Equal(t, "12344", result.Reference)
}

func TestServerRefund(t *testing.T) {
	gateway, _ := testGateway(t, http.StatusOK, readFixture(t, "refund.xml"))
	server := newTestServer(t, "development", gateway.URL)

	recorder := serve(server, http.MethodPost, refundPayment, envelope(t, "refund", refundJson))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var result entity.RefundResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, "2100", result.StatusCode)
}

func TestServerPing(t *testing.T) {
	server := newTestServer(t, "development", "http://127.0.0.1:1")

	before := time.Now().UnixMilli()
	recorder := serve(server, http.MethodGet, ping, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var pong struct {
		Message string `json:"message"`
		Time    int64  `json:"time"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &pong))
	assert.Equal(t, "pong", pong.Message)
	assert.GreaterOrEqual(t, pong.Time, before)
}

func TestServerUnknownRoute(t *testing.T) {
	production := newTestServer(t, "production", "http://127.0.0.1:1")
	recorder := serve(production, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	development := newTestServer(t, "development", "http://127.0.0.1:1")
	recorder = serve(development, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

type panickingPayments struct{}

func (panickingPayments) OpenPayment(context.Context, *entity.PaymentRequest) (*entity.PaymentWall, error) {
	panic("unexpected")
}

func (panickingPayments) OpenShopInShop(context.Context, *entity.PaymentRequest) (*entity.PaymentWall, error) {
	panic("unexpected")
}

func (panickingPayments) Poll(context.Context, *entity.PaymentRequest) (*entity.PollResult, error) {
	panic("unexpected")
}

func (panickingPayments) Refund(context.Context, *entity.PaymentRequest) (*entity.RefundResult, error) {
	panic("unexpected")
}

func TestServerRecoversPanic(t *testing.T) {
	server := newTestServer(t, "development", "http://127.0.0.1:1")
	server.SetPaymentsService(panickingPayments{})

	recorder := serve(server, http.MethodPost, openSingle, envelope(t, "payment", singlePaymentJson))
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Equal(t, "29999", decodeClientError(t, recorder).Code)
}
