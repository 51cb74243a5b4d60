package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/redisx"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Idempotency guards order creation against client retries.
// *redisx.Idempotency satisfies it.
type Idempotency interface {
	Begin(ctx context.Context, key string) (orderID string, fresh bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Abort(ctx context.Context, key string) error
}

// StatusReader serves cached order statuses. *redisx.StatusCache satisfies it.
type StatusReader interface {
	Status(ctx context.Context, orderID string) (redisx.OrderStatus, bool, error)
}

type Deps struct {
	Engine  *orders.Engine
	Store   orders.UnitOfWork
	Reports *reports.Service
	Auth    auth.Authenticator
	Log     *zap.Logger

	// Optional.
	Idem   Idempotency
	Status StatusReader

	// Dev exposes internal error text in 500 responses.
	Dev bool
	Now func() time.Time
}

type server struct {
	engine  *orders.Engine
	store   orders.UnitOfWork
	reports *reports.Service
	authn   auth.Authenticator
	idem    Idempotency
	status  StatusReader
	log     *zap.Logger
	dev     bool
	now     func() time.Time
}

func NewRouter(d Deps) *chi.Mux {
	s := &server{
		engine:  d.Engine,
		store:   d.Store,
		reports: d.Reports,
		authn:   d.Auth,
		idem:    d.Idem,
		status:  d.Status,
		log:     d.Log,
		dev:     d.Dev,
		now:     d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/me", s.me)
		s.orderRoutes(r)
		s.catalogRoutes(r)
		s.tableRoutes(r)
		s.reservationRoutes(r)
		s.inventoryRoutes(r)
		s.reportRoutes(r)
	})
	return r
}

// requestLogger replaces middleware.Logger with a structured access log.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		next.ServeHTTP(ww, r.WithContext(orders.WithTraceID(r.Context(), reqID)))
		s.log.Info("http request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found || token == "" {
			s.writeError(w, r, auth.ErrUnauthenticated)
			return
		}
		p, err := s.authn.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// require rejects callers whose role lacks capability c.
func (s *server) require(c auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.FromContext(r.Context())
			if !auth.Can(p.Role, c) {
				s.writeError(w, r, auth.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	ok(w, principal(r))
}
