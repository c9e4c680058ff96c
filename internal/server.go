package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"webpay/config"
	"webpay/entity"
	"webpay/services"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	healthCheck       = "/health"
	createTransaction = "/webpay/create"
	commitTransaction = "/webpay/commit"
	transactionStatus = "/webpay/status"
	metricsEndpoint   = "/metrics"

	maxBodySize = 1 << 20
)

const (
	errorFailedStatus = "Failed to get status"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	validator  *Validator
	payments   services.Payments
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf:      conf,
		validator: NewValidator(conf.BaseUrl),
		logger:    newLogger(zap.NewNop(), "server", nil),
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler:           server.middleware(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.GET(healthCheck, s.health)
	router.POST(createTransaction, s.createTransaction)
	router.POST(commitTransaction, s.commitTransaction)
	router.GET(transactionStatus, s.transactionStatus)
	router.Handler(http.MethodGet, metricsEndpoint, promhttp.Handler())
	router.GlobalOPTIONS = http.HandlerFunc(s.preflight)
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
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

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// middleware attaches the request id and CORS header to every response.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestIDValue(r.Context(), r.Header.Get(headerRequestID))
		w.Header().Set(headerRequestID, GetRequestID(ctx))
		w.Header().Set("Access-Control-Allow-Origin", s.conf.Cors.AllowedOrigin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) preflight(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Access-Control-Request-Method") != "" {
		header := w.Header()
		header.Set("Access-Control-Allow-Methods", header.Get("Allow"))
		header.Set("Access-Control-Allow-Headers", "Content-Type, "+headerRequestID)
		header.Set("Access-Control-Max-Age", "600")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"service":      s.conf.ServiceName,
		"environment":  s.conf.Transbank.Environment,
		"commerceCode": s.conf.Transbank.CommerceCode,
	})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] create: read request body: %v", reqID, err))
		writeError(w, http.StatusBadRequest, entity.ErrNoData.Error())
		return
	}

	request, err := s.validator.TransactionRequest(body)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] create: %v", reqID, err))
		writeValidationError(w, err)
		return
	}

	result, err := s.payments.Create(ctx, request)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   entity.ErrGatewayCreate.Error(),
			"details": details(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) commitTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] commit: read request body: %v", reqID, err))
		writeError(w, http.StatusBadRequest, entity.ErrNoData.Error())
		return
	}

	token, err := s.validator.CommitToken(body)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] commit: %v", reqID, err))
		writeValidationError(w, err)
		return
	}

	result, err := s.payments.Commit(ctx, token)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   entity.ErrGatewayCommit.Error(),
			"details": details(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) transactionStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	token, err := s.validator.Token(r.URL.Query().Get("token"))
	if err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := s.payments.Status(ctx, token)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   errorFailedStatus,
			"details": details(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *entity.ValidationError
	if !errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(validationErr.Required) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    validationErr.Err.Error(),
			"required": validationErr.Required,
		})
		return
	}
	writeError(w, http.StatusBadRequest, validationErr.Err.Error())
}

// details is the client-safe description of a gateway failure.
func details(err error) string {
	var gatewayErr *entity.GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr.Details()
	}
	return "internal error"
}
