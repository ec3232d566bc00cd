package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/config"
	"eduadmin/internal/dashboard"
	"eduadmin/internal/jobs"
	"eduadmin/internal/logging"
	"eduadmin/internal/metrics"
	"eduadmin/internal/roles"
	"eduadmin/internal/schedule"
	"eduadmin/internal/session"
)

type Server struct {
	cfg     config.Config
	client  *apiclient.Client
	store   *session.Store
	freezer *jobs.Freezer
	metrics *metrics.Metrics
	logger  *zap.Logger
	policy  schedule.Policy
	now     func() time.Time
}

// NewServer builds the console server. freezer may be nil, in which case the
// manual freeze trigger answers 503.
func NewServer(cfg config.Config, client *apiclient.Client, freezer *jobs.Freezer, m *metrics.Metrics, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		client:  client,
		store:   client.Store(),
		freezer: freezer,
		metrics: m,
		logger:  logging.OrNop(logger),
		policy:  schedule.Policy{Excluded: cfg.ClassExcludedWeekdays},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, s.accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/", roles.Redirect(s.store))
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.With(roles.Gate(s.store, roles.SuperAdmin, roles.Admin, roles.HeadMentor, roles.Mentor)).Get("/me", s.handleMe)

	r.Route("/superadmin", func(r chi.Router) {
		r.Use(roles.Gate(s.store, roles.SuperAdmin))
		r.Get("/dashboard", s.handleSuperAdminDashboard)
		r.Get("/employees/{kind}", s.handleListEmployees)
		r.Post("/employees/{kind}", s.handleRegisterEmployee)
		r.Put("/employees/{kind}/{id}", s.handleUpdateEmployee)
		r.Delete("/employees/{kind}/{id}", s.handleDeleteEmployee)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(roles.Gate(s.store, roles.Admin, roles.SuperAdmin))
		r.Get("/courses", s.handleCourses)
		r.Post("/courses", s.handleCreateCourse)
		r.Put("/courses/{id}", s.handleUpdateCourse)
		r.Delete("/courses/{id}", s.handleDeleteCourse)
		r.Get("/leads", s.handleLeads)
		r.Post("/leads", s.handleCreateLead)
		r.Put("/leads/{id}", s.handleUpdateLead)
		r.Delete("/leads/{id}", s.handleDeleteLead)
	})

	r.Route("/headmentor", func(r chi.Router) {
		r.Use(roles.Gate(s.store, roles.HeadMentor))
		r.Get("/dashboard", s.handleHeadMentorDashboard)
		r.Post("/freeze-expired", s.handleFreezeExpired)
	})

	r.Route("/mentor", func(r chi.Router) {
		r.Use(roles.Gate(s.store, roles.Mentor))
		r.Get("/groups", s.handleMentorGroups)
		r.Get("/groups/{groupId}/calendar", s.handleGroupCalendar)
		r.Post("/groups/{groupId}/attendance", s.handleMarkAttendance)
		r.Put("/students/{id}/status", s.handleStudentStatus)
	})

	return r
}

// Middleware

const requestIDHeader = "X-Request-ID"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(apiclient.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", apiclient.RequestIDFrom(r.Context())))
	})
}

// Errors

// writeUpstreamError converts a client error into the page's error state.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *apiclient.ValidationError
		authErr    *apiclient.AuthError
		httpErr    *apiclient.HTTPError
		netErr     *apiclient.NetworkError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "validation_failed", "fields": validation.Fields})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session_expired", "redirect": roles.LoginRoute})
	case errors.As(err, &httpErr):
		s.logger.Warn("upstream error", zap.String("method", httpErr.Method), zap.String("path", httpErr.Path), zap.Int("status", httpErr.Status))
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": "upstream_error", "status": httpErr.Status})
	case errors.As(err, &netErr):
		if r.Context().Err() != nil {
			return
		}
		s.logger.Warn("upstream unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_unreachable")
	case errors.Is(err, apiclient.ErrMalformedBody):
		s.logger.Warn("upstream sent malformed body", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_error")
	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// loadPage fetches the collections a page needs. It answers the request itself
// and returns false only when the session is gone; other failures stay in the
// snapshot for the page to report next to whatever did load.
func (s *Server) loadPage(w http.ResponseWriter, r *http.Request, cols ...apiclient.Collection) (dashboard.Snapshot, bool) {
	snap := dashboard.Load(r.Context(), s.client, cols...)
	if err := snap.FirstAuthError(); err != nil {
		s.writeUpstreamError(w, r, err)
		return snap, false
	}
	for col, err := range snap.Errors {
		s.logger.Warn("collection load failed", zap.String("collection", string(col)), zap.Error(err))
	}
	return snap, true
}

func snapshotErrors(snap dashboard.Snapshot) map[string]string {
	if len(snap.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(snap.Errors))
	for col, err := range snap.Errors {
		out[string(col)] = err.Error()
	}
	return out
}

// Helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
