package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"findash/internal/cache"
	"findash/internal/log"
	"findash/internal/middleware/ratelimit"
	"findash/internal/middleware/security"
	"findash/internal/middleware/trace"
	"findash/internal/services"
	"findash/internal/summary"
	appweb "findash/web"
)

const (
	defaultMaxUploadBytes       = 10 << 20
	defaultCacheCleanupInterval = 5 * time.Minute
	multipartMemory             = 4 << 20
)

// Options are the tunables of the server.
type Options struct {
	Addr                 string
	MaxUploadBytes       int64
	RateLimitPerMinute   int
	CacheCleanupInterval time.Duration
	ReadHeaderTimeout    time.Duration
}

// Deps are the collaborators the handlers call. History may be nil.
type Deps struct {
	Summarizer *summary.Summarizer
	Reports    *cache.Reports
	History    *services.HistoryService
	Logger     *log.Logger
}

// Server is an http.Server wired with the findash routes.
type Server struct {
	http.Server

	templates  *template.Template
	summarizer *summary.Summarizer
	reports    *cache.Reports
	history    *services.HistoryService
	logger     *log.Logger
	maxUpload  int64

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager
	metrics  appMetrics

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

type appMetrics struct {
	started        time.Time
	uploads        atomic.Int64
	uploadFailures atomic.Int64
	reportHits     atomic.Int64
	reportMisses   atomic.Int64
}

// NewServer builds the handler chain and starts cache cleanup. Call Shutdown to stop it.
func NewServer(opts Options, deps Deps) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = defaultCacheCleanupInterval
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	summarizer := deps.Summarizer
	if summarizer == nil {
		summarizer = summary.New()
	}
	reports := deps.Reports
	if reports == nil {
		reports = cache.NewReports(100, 30*time.Minute)
	}

	rl := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		summarizer: summarizer,
		reports:    reports,
		history:    deps.History,
		logger:     logger.WithComponent(log.ComponentHTTP),
		maxUpload:  opts.MaxUploadBytes,
		limiter:    ratelimit.NewLimiter(rl),
		detector:   security.NewDetector(),
	}
	s.metrics.started = time.Now()
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	cacheLogger := logger.WithComponent(log.ComponentCache)
	s.caches = cache.NewManager(func(n int) {
		cacheLogger.Debug("Cache cleanup completed", "entries_removed", n)
	})
	s.caches.Register(s.reports)
	bg, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go s.caches.Run(bg, opts.CacheCleanupInterval)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(rl.Methods),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) routes(limitedMethods []string) http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticCache(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /reports/{id}", s.handleReport)
	mux.HandleFunc("GET /reports/{id}/charts", s.handleCharts)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ClientIP, limitedMethods, s.onRateLimited)(h)
	h = s.detector.Middleware(h)
	h = log.Middleware(s.logger, trace.RequestID)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.tracer.Middleware(h)
	return h
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	retry := strconv.Itoa(retryAfter)
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded", log.FieldClientIP, s.detector.ClientIP(r), log.FieldPath, r.URL.Path)
	if wantsJSON(r) {
		w.Header().Set("Retry-After", retry)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Kind: "rate_limited"})
		return
	}
	TooManyRequestsError(retry).Write(w)
}

// Shutdown stops background work and then the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		s.caches.Wait()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
