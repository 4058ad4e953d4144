package server

import (
	"net/http"
	"time"

	"fitmate/internal/app"
	"fitmate/internal/auth"
	"fitmate/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	userCacheSize = 1024
	userCacheTTL  = time.Minute
)

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins    []string
	AuthRatePerMinute int
	GenerationTimeout time.Duration
	// DataPath is the directory whose size /health reports. Empty skips it.
	DataPath string
}

// Server exposes the application over HTTP.
type Server struct {
	app               *app.App
	tokens            *auth.TokenManager
	users             *expirable.LRU[string, *user.User]
	limiter           *ipRateLimiter
	generationTimeout time.Duration
	dataPath          string
	engine            *gin.Engine
}

// New builds the gin engine with all routes registered.
func New(a *app.App, tokens *auth.TokenManager, opts Options) *Server {
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 2 * time.Minute
	}
	s := &Server{
		app:               a,
		tokens:            tokens,
		users:             expirable.NewLRU[string, *user.User](userCacheSize, nil, userCacheTTL),
		limiter:           newIPRateLimiter(opts.AuthRatePerMinute),
		generationTimeout: opts.GenerationTimeout,
		dataPath:          opts.DataPath,
	}
	s.engine = s.routes(opts.AllowedOrigins)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer wraps the handler in an http.Server whose write timeout leaves
// room for a full generation run.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.generationTimeout + 30*time.Second,
	}
}
