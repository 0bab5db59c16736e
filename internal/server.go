package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"overlay/config"
	"overlay/entity"
	"overlay/services"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const (
	openSingle     = "/v1/payment/open/single"
	openShopInShop = "/v1/payment/open/shop-in-shop"
	pollSingle     = "/v1/payment/poll/single"
	refundPayment  = "/v1/payment/refund"
	ping           = "/ping"

	requestIDHeader = "X-Request-Id"
	maxBodySize     = 1 << 20
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler:           server.accessLog(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(openSingle, s.openPayment)
	router.POST(openShopInShop, s.openShopInShop)
	router.POST(pollSingle, s.poll)
	router.POST(refundPayment, s.refund)
	router.GET(ping, s.ping)

	router.PanicHandler = s.recoverPanic
	if s.conf != nil && s.conf.IsProduction() {
		router.NotFound = http.HandlerFunc(unauthorized)
		router.MethodNotAllowed = http.HandlerFunc(unauthorized)
	}
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

// Handler exposes the routed handler, used by tests and embedding servers.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) openPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, request, ok := s.readRequest(w, r, "open payment")
	if !ok {
		return
	}
	wall, err := s.payments.OpenPayment(ctx, request)
	s.respond(ctx, w, "open payment", wall, err)
}

func (s *Server) openShopInShop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, request, ok := s.readRequest(w, r, "shop-in-shop")
	if !ok {
		return
	}
	wall, err := s.payments.OpenShopInShop(ctx, request)
	s.respond(ctx, w, "shop-in-shop", wall, err)
}

func (s *Server) poll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, request, ok := s.readRequest(w, r, "poll")
	if !ok {
		return
	}
	result, err := s.payments.Poll(ctx, request)
	s.respond(ctx, w, "poll", result, err)
}

func (s *Server) refund(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, request, ok := s.readRequest(w, r, "refund")
	if !ok {
		return
	}
	result, err := s.payments.Refund(ctx, request)
	s.respond(ctx, w, "refund", result, err)
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJson(w, http.StatusOK, map[string]interface{}{
		"message": "pong",
		"time":    time.Now().UnixMilli(),
	})
}

// readRequest decodes the request envelope, answering the client itself when that fails.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request, operation string) (context.Context, *entity.PaymentRequest, bool) {
	ctx := WithGivenRequestID(r.Context(), r.Header.Get(requestIDHeader))
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] %s: read request body", reqID, operation), err)
		writeError(w, ErrInvalidProperties([]string{"body"}))
		return ctx, nil, false
	}

	var request entity.PaymentRequest
	err = json.Unmarshal(body, &request)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] %s: decode request body: %v", reqID, operation, err))
		writeError(w, ErrInvalidProperties([]string{"body"}))
		return ctx, nil, false
	}

	s.logger.Info(fmt.Sprintf("[%s] processing request: %s, merchant %s, hmac %s", reqID, operation, request.MerchantId, secret(request.Hmac)))
	return ctx, &request, true
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, operation string, result interface{}, err error) {
	if err != nil {
		clientErr := ToClientError(err)
		s.logger.Warn(fmt.Sprintf("[%s] %s: %d %s %s", GetRequestID(ctx), operation, clientErr.Http, clientErr.Code, clientErr.Message))
		writeError(w, clientErr)
		return
	}
	writeJson(w, http.StatusOK, result)
}

func (s *Server) recoverPanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	s.logger.Error(fmt.Sprintf("panic on %s %s", r.Method, r.URL.Path), fmt.Errorf("%v", recovered))
	writeError(w, ErrGeneral())
}

func unauthorized(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
}

func writeError(w http.ResponseWriter, clientErr *entity.ClientError) {
	writeJson(w, clientErr.Http, clientErr)
}

func writeJson(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// accessLog writes one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if r.Header.Get(requestIDHeader) == "" {
			r.Header.Set(requestIDHeader, GenerateRequestID())
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		sw.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
		next.ServeHTTP(sw, r)
		log.Info().
			Str("request_id", r.Header.Get(requestIDHeader)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}
