package httpserver

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"kirana-agent/internal/agent/graph"
	logx "kirana-agent/pkg/logger"
)

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	gin         *gin.Engine
	port        int
	mode        string
	environment string

	runner graph.Runner
}

// Config is the dependency bag passed to New().
type Config struct {
	Port        int
	Mode        string
	Environment string

	Runner graph.Runner
}

// New creates a new HTTPServer instance.
func New(cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		gin:         gin.Default(),
		port:        cfg.Port,
		mode:        cfg.Mode,
		environment: cfg.Environment,
		runner:      cfg.Runner,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	srv.mapHandlers()

	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.runner == nil {
		return errors.New("runner is required")
	}
	return nil
}

// Run starts the HTTP server and blocks until it exits.
func (srv *HTTPServer) Run() error {
	addr := fmt.Sprintf(":%d", srv.port)
	logx.Info().Str("addr", addr).Str("environment", srv.environment).Msg("HTTP server starting")
	return srv.gin.Run(addr)
}
