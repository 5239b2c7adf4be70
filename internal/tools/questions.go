package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/fieldline-ai/genie-bridge/pkg/metrics"
)

func (s *Service) askTool() mcp.Tool {
	return mcp.NewTool("ask_genie",
		mcp.WithDescription("Start a new Genie conversation with a natural-language question and return the generated SQL and query result. The response includes a conversation_id for follow_up."),
		mcp.WithString("space_id",
			mcp.Required(),
			mcp.Description("Genie space ID from list_genie_spaces"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to ask Genie"),
		),
	)
}

func (s *Service) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ans, err := s.client.Ask(ctx, spaceID, question)
	metrics.RecordToolCall("ask_genie", outcome(err))
	if err != nil {
		s.logger.Warn("ask failed", zap.String("space_id", spaceID), zap.Error(err))
		return mcp.NewToolResultError(errorResult(err)), nil
	}

	return mcp.NewToolResultText(ans.Markdown()), nil
}

func (s *Service) followUpTool() mcp.Tool {
	return mcp.NewTool("follow_up",
		mcp.WithDescription("Ask a follow-up question in an existing Genie conversation. Use the conversation_id returned by a previous ask_genie or follow_up response."),
		mcp.WithString("space_id",
			mcp.Required(),
			mcp.Description("Genie space ID the conversation belongs to"),
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation ID from a prior response"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Follow-up question"),
		),
	)
}

func (s *Service) handleFollowUp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ans, err := s.client.FollowUp(ctx, spaceID, conversationID, question)
	metrics.RecordToolCall("follow_up", outcome(err))
	if err != nil {
		s.logger.Warn("follow-up failed",
			zap.String("space_id", spaceID),
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return mcp.NewToolResultError(errorResult(err)), nil
	}

	return mcp.NewToolResultText(ans.Markdown()), nil
}
