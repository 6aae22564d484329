package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/far4599/ytgrab/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templates embed.FS

const shutdownTimeout = 10 * time.Second

// Server is the browser front end.
type Server struct {
	conf *config.Config
	vs   *service.VideoService
	hub  *Hub

	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func NewServer(conf *config.Config, vs *service.VideoService) (*Server, error) {
	s := &Server{
		conf: conf,
		vs:   vs,
		hub:  NewHub(),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware())
	if len(conf.HTTP.AllowOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     conf.HTTP.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	engine.Use(sessionMiddleware())

	engine.GET("/", s.handleIndex)
	engine.POST("/submit", s.handleSubmit)
	engine.GET("/files/:token", s.handleFile)
	engine.GET("/ws", s.handleWS)

	api := engine.Group("/api")
	{
		api.POST("/probe", s.handleProbe)
		api.GET("/session", s.handleSession)
		api.POST("/select/:key", s.handleSelect)
	}

	s.engine = engine

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.conf.HTTP.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Infow("http server listening", "addr", s.conf.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Logger.Info("shutting down http server")

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(origin) == 0 {
		return true
	}

	for _, allowed := range s.conf.HTTP.AllowOrigins {
		if origin == allowed {
			return true
		}
	}

	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
