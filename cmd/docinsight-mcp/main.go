package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/docinsight/internal/app"
	"github.com/ternarybob/docinsight/internal/common"
)

func main() {
	defer common.RecoverWithCrashFile()

	configPath := os.Getenv("DOCINSIGHT_CONFIG")
	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	} else if _, err := os.Stat("docinsight.toml"); err == nil {
		paths = append(paths, "docinsight.toml")
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs only go to file
	config.Logging.Output = []string{"file"}
	// one conversation per process, nothing to expire
	config.Session.SweepSchedule = ""

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	application, err := app.New(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	sess := application.NewSession(context.Background())

	mcpServer := server.NewMCPServer(
		"docinsight",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createLoadDocumentTool(), handleLoadDocument(sess, application.Intake, logger))
	mcpServer.AddTool(createAskQuestionTool(), handleAskQuestion(sess, logger))
	mcpServer.AddTool(createResetSessionTool(), handleResetSession(sess))
	mcpServer.AddTool(createGetTranscriptTool(), handleGetTranscript(sess, application.Transcripts))

	logger.Info().Str("session_id", sess.ID()).Msg("MCP server ready on stdio")

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
		os.Exit(1)
	}
}
