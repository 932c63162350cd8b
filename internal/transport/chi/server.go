package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chronik/internal/domain"
	"github.com/kailas-cloud/chronik/internal/domain/search/request"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
	"github.com/kailas-cloud/chronik/internal/logger"
	healthuc "github.com/kailas-cloud/chronik/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Searcher runs an aggregated search for one user.
type Searcher interface {
	Search(ctx context.Context, userID string, req *request.Request) (result.Response, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the search HTTP API.
type Server struct {
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery, "Invalid search query"),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized"),
	}
	return s
}

// Mount registers the API routes. /search requires a session cookie.
func (s *Server) Mount(r chirouter.Router, sessionCookie string) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Group(func(r chirouter.Router) {
		r.Use(SessionMiddleware(sessionCookie))
		r.Get("/search", s.Search)
	})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		s.handleDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, "Invalid query parameters: "+err.Error())
		return
	}

	req, err := request.New(params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), userID, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// bindSearchParams reads q, types (or types[]) and limit from the query string.
// All three are optional here; request.New decides what is missing.
func bindSearchParams(r *http.Request) (request.Params, error) {
	values := r.URL.Query()

	var q, limit *string
	if err := runtime.BindQueryParameter("form", true, false, "q", values, &q); err != nil {
		return request.Params{}, fmt.Errorf("parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", values, &limit); err != nil {
		return request.Params{}, fmt.Errorf("parameter limit: %w", err)
	}

	p := request.Params{Q: deref(q), Limit: deref(limit)}
	for _, name := range []string{"types", "types[]"} {
		var types *[]string
		if err := runtime.BindQueryParameter("form", true, false, name, values, &types); err != nil {
			return request.Params{}, fmt.Errorf("parameter %s: %w", name, err)
		}
		if types != nil {
			p.Types = append(p.Types, *types...)
		}
	}
	return p, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// validationHandler surfaces the first validation message to the client.
func validationHandler(w http.ResponseWriter, err error) bool {
	var verr *request.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidQuery, verr.Message)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeServerError, "Internal server error")
}
