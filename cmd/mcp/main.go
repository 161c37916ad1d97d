package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/api"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/setup/logger"
)

func main() {
	// Load env
	_ = godotenv.Load()

	cfg := setup.LoadConfig()

	// stdout carries the protocol, so logs go to stderr as JSON
	log := logger.New(cfg.LogLevel)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire dependencies
	deps, err := setup.Wire(ctx, cfg, &log)
	if err != nil {
		log.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}
	defer deps.Close()

	// Tools are only offered once the index is loaded
	if err := deps.LoadAndPublish(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to load index")
		deps.Close()
		os.Exit(1)
	}
	if !deps.Gate.Ready() {
		return
	}

	server := createMCPServer(deps)

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF / "server is closing" is expected when stdin closes
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			log.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		log.Error().Err(err).Msg("Failed to run mcp server")
		deps.Close()
		os.Exit(1)
	}
}

func createMCPServer(deps *setup.Dependencies) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "rag-agent",
			Version: api.Version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a question from the course knowledge base. Returns an answer and two source links.",
	}, mcpadapter.NewAnswerHandler(deps.Service, deps.Gate))
	return server
}
