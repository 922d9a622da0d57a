package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/shaiso/toolflow/internal/cli"
	"github.com/shaiso/toolflow/internal/nodes"
)

const (
	serverName = "toolflow"

	// defaultCallTimeout — предел одного вызова API из инструмента.
	defaultCallTimeout = 2 * time.Minute
)

// Server — MCP-сервер поверх toolflow API.
type Server struct {
	client   *cli.Client
	registry *nodes.Registry
	logger   *slog.Logger
	timeout  time.Duration
}

// Config — конфигурация Server.
type Config struct {
	Client *cli.Client

	// Registry — типы узлов для описания триггеров (default: nodes.DefaultRegistry).
	Registry *nodes.Registry

	// CallTimeout — таймаут вызова API (default: 2m).
	CallTimeout time.Duration

	// Logger должен писать в stderr: stdout занят протоколом.
	Logger *slog.Logger
}

// NewServer создаёт Server.
func NewServer(cfg Config) *Server {
	client := cfg.Client
	if client == nil {
		client = cli.NewClient("")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = nodes.DefaultRegistry(nodes.Options{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Server{
		client:   client,
		registry: registry,
		logger:   logger,
		timeout:  timeout,
	}
}

// MCPServer строит gomcp сервер с зарегистрированными инструментами.
func (s *Server) MCPServer() server.Server {
	srv := server.NewServer(serverName, server.WithLogger(s.logger))
	s.registerTools(srv)
	return srv
}

// Run обслуживает MCP поверх stdin/stdout до закрытия входа.
func (s *Server) Run() error {
	s.logger.Info("mcp server starting", "transport", "stdio")
	return s.MCPServer().AsStdio().Run()
}

// callContext — контекст одного обращения к API.
func (s *Server) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
