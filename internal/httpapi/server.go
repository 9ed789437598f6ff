package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
)

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Logger     *log.Logger
	Addr       string
	Attendance *service.AttendanceService
	DB         Pinger
	// AdminToken guards mutating endpoints. Empty disables them.
	AdminToken string
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	attendance *service.AttendanceService
	db         Pinger
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger,
		mux:        mux,
		attendance: d.Attendance,
		db:         d.DB,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/occupancy", s.handleOccupancy)
	mux.HandleFunc("GET /v1/log", s.handleLog)
	mux.HandleFunc("GET /v1/mirrors", s.handleMirrors)
	mux.Handle("POST /v1/mirrors/sync", requireAdminKey(d.AdminToken, http.HandlerFunc(s.handleSync)))

	handler := requestIDMiddleware(loggingMiddleware(d.Logger, mux))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Printf("healthz: db ping: %v", err)
			respond(w, r, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database_unavailable"})
			return
		}
	}
	respond(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	names, err := s.attendance.Occupancy(r.Context())
	if err != nil {
		s.internalError(w, r, "occupancy", err)
		return
	}
	respond(w, r, http.StatusOK, occupancyPayload(names))
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.attendance.RecentLog(r.Context(), limit)
	if err != nil {
		s.internalError(w, r, "log", err)
		return
	}
	respond(w, r, http.StatusOK, eventsPayload(events))
}

func (s *Server) handleMirrors(w http.ResponseWriter, r *http.Request) {
	mirrors, err := s.attendance.Mirrors(r.Context())
	if err != nil {
		s.internalError(w, r, "mirrors", err)
		return
	}
	respond(w, r, http.StatusOK, mirrorsPayload(mirrors))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.attendance.SyncAll(r.Context())
	if err != nil {
		s.internalError(w, r, "sync", err)
		return
	}
	respond(w, r, http.StatusOK, syncReportPayload(report))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, service.ErrStoreUnavailable) {
		s.logger.Printf("%s: %v", op, err)
		writeError(w, r, http.StatusServiceUnavailable, "store_unavailable", "attendance store unavailable")
		return
	}
	s.logger.Printf("%s error: %v", op, err)
	writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
}
