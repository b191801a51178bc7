package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/bryanwahyu/policylens/internal/application/analysis"
	domain "github.com/bryanwahyu/policylens/internal/domain/analysis"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

// Options carries the optional pieces of the router. Zero values disable them.
type Options struct {
	MaxBodyBytes   int64
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	Limiter        *middleware.RateLimiter
	Metrics        *middleware.Metrics
	Checkers       map[string]middleware.Checker
	// Lister enables GET /analyses when the archive can page back through records.
	Lister domain.Lister
}

type Router struct {
	svc    *appanalysis.Service
	opts   Options
	logger *slog.Logger
}

func NewRouter(svc *appanalysis.Service, logger *slog.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if len(opts.AllowedMethods) == 0 {
		opts.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(opts.AllowedHeaders) == 0 {
		opts.AllowedHeaders = []string{"Content-Type"}
	}
	r := &Router{svc: svc, opts: opts, logger: logger}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(logger))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(middleware.CORS(opts.AllowedOrigins, opts.AllowedMethods, opts.AllowedHeaders))
	mux.Use(middleware.RateLimit(opts.Limiter))

	mux.Get("/health", middleware.Liveness)
	mux.Get("/ready", middleware.Readiness(opts.Checkers, 5*time.Second))
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Options("/analyze", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Post("/analyze", r.wrap(r.handleAnalyze))
	mux.Get("/analyses", r.wrap(r.handleList))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

var errNotFound = errors.New("not found")

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrNoText):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "No text provided"})
		case errors.Is(err, errNotFound):
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
		default:
			r.logger.ErrorContext(req.Context(), "request failed",
				slog.String("request_id", middleware.GetRequestID(req.Context())),
				slog.String("path", req.URL.Path),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody{
				Error:   "Failed to process document",
				Details: err.Error(),
			})
		}
	}
}

// POST /analyze
// Body: {"text": "...", "type": "privacy" | "terms"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.opts.MaxBodyBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxBodyBytes)
	}
	var body domain.Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	res, err := r.svc.Analyze(req.Context(), body)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// GET /analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	if r.opts.Lister == nil {
		return errNotFound
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	page, size = domain.PageBounds(page, size)

	list, err := r.opts.Lister.Paginate(req.Context(), page, size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, domain.Page{Data: list, Page: page, PageSize: size})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
