package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createLoadDocumentTool returns the load_document tool definition
func createLoadDocumentTool() mcp.Tool {
	return mcp.NewTool("load_document",
		mcp.WithDescription("Load a local PDF file into the conversation. Replaces any loaded document and clears the history."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a PDF file on the local filesystem"),
		),
	)
}

// createAskQuestionTool returns the ask_question tool definition
func createAskQuestionTool() mcp.Tool {
	return mcp.NewTool("ask_question",
		mcp.WithDescription("Ask a question about the loaded PDF. The whole document and the conversation so far are sent to the model."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer from the document"),
		),
	)
}

// createResetSessionTool returns the reset_session tool definition
func createResetSessionTool() mcp.Tool {
	return mcp.NewTool("reset_session",
		mcp.WithDescription("Unload the document and clear the conversation"),
	)
}

// createGetTranscriptTool returns the get_transcript tool definition
func createGetTranscriptTool() mcp.Tool {
	return mcp.NewTool("get_transcript",
		mcp.WithDescription("Return the conversation so far as markdown"),
	)
}
