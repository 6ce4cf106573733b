package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/models"
	"github.com/ternarybob/docinsight/internal/services/conversation"
	"github.com/ternarybob/docinsight/internal/services/documents"
)

// session is the slice of the conversation controller the tools drive
type session interface {
	SelectDocument(ctx context.Context, doc *models.Document) error
	SubmitQuestion(ctx context.Context, text string) error
	Reset(ctx context.Context)
	Snapshot() models.SessionSnapshot
}

type documentLoader interface {
	FromFile(path string) (*models.Document, error)
}

type transcriptWriter interface {
	Markdown(snapshot models.SessionSnapshot) string
}

// handleLoadDocument implements the load_document tool
func handleLoadDocument(sess session, loader documentLoader, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return mcp.NewToolResultError("Error: path parameter is required"), nil
		}

		doc, err := loader.FromFile(path)
		if err != nil {
			if errors.Is(err, documents.ErrUnsupportedMediaType) {
				return mcp.NewToolResultError("Please upload a valid PDF file."), nil
			}
			logger.Error().Err(err).Str("path", path).Msg("Failed to load document")
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load document: %v", err)), nil
		}

		if err := sess.SelectDocument(ctx, doc); err != nil {
			return mcp.NewToolResultError(rejectionMessage(err)), nil
		}

		return mcp.NewToolResultText(formatLoaded(sess.Snapshot())), nil
	}
}

// handleAskQuestion implements the ask_question tool
func handleAskQuestion(sess session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := request.GetString("question", "")

		if err := sess.SubmitQuestion(ctx, question); err != nil {
			return mcp.NewToolResultError(rejectionMessage(err)), nil
		}

		snap := sess.Snapshot()
		if snap.Error != nil {
			logger.Warn().Str("kind", string(snap.Error.Kind)).Msg("Question failed")
			return mcp.NewToolResultError(snap.Error.Message), nil
		}

		return mcp.NewToolResultText(lastAnswer(snap)), nil
	}
}

// handleResetSession implements the reset_session tool
func handleResetSession(sess session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.Reset(ctx)
		return mcp.NewToolResultText("Conversation cleared."), nil
	}
}

// handleGetTranscript implements the get_transcript tool
func handleGetTranscript(sess session, transcripts transcriptWriter) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(transcripts.Markdown(sess.Snapshot())), nil
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, conversation.ErrEmptyQuestion):
		return "Error: question must not be empty"
	case errors.Is(err, conversation.ErrNoDocument):
		return "Error: load a document with load_document first"
	case errors.Is(err, conversation.ErrRequestPending):
		return "Error: a question is already being answered"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
