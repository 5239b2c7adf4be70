// Package tools exposes the bridge to MCP clients: four tools over the
// conversation lifecycle client plus informational resources. This is the
// composition point between the protocol and the genie package; no
// lifecycle logic lives here.
package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/fieldline-ai/genie-bridge/internal/genie"
	"github.com/fieldline-ai/genie-bridge/internal/registry"
	"github.com/fieldline-ai/genie-bridge/pkg/logger"
)

// Service holds the collaborators the tool handlers need.
type Service struct {
	client   *genie.Client
	registry *registry.Registry
	logger   *logger.Logger
}

// NewService creates the tool service.
func NewService(client *genie.Client, reg *registry.Registry, log *logger.Logger) *Service {
	return &Service{
		client:   client,
		registry: reg,
		logger:   log,
	}
}

// NewServer builds the MCP server with all tools and resources registered.
func NewServer(svc *Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"genie-bridge",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	s.AddTool(svc.listSpacesTool(), svc.handleListSpaces)
	s.AddTool(svc.spaceInfoTool(), svc.handleSpaceInfo)
	s.AddTool(svc.askTool(), svc.handleAsk)
	s.AddTool(svc.followUpTool(), svc.handleFollowUp)

	s.AddResource(svc.aboutResource(), svc.handleAbout)
	s.AddResourceTemplate(svc.spaceResourceTemplate(), svc.handleSpaceResource)

	return s
}

func serverInstructions() string {
	return `This server interfaces with the Databricks Genie API. Genie is a
conversational assistant that answers natural-language questions about data
in defined spaces, returning generated SQL and query results.

Use ask_genie to start a new question in a space. When the user asks a
follow-up to a previous question, call follow_up with the conversation_id
from the earlier response instead of ask_genie. Space IDs are internal
identifiers; you do not need to show them to users.`
}

// errorResult renders a bridge failure as an MCP tool error with the
// machine-readable kind up front, plus resume identifiers when present.
func errorResult(err error) string {
	e := genie.AsError(err)
	if e == nil {
		return fmt.Sprintf("[internal] %v", err)
	}

	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.ConversationID != "" {
		msg += fmt.Sprintf(" (conversation_id: %s", e.ConversationID)
		if e.MessageID != "" {
			msg += fmt.Sprintf(", message_id: %s", e.MessageID)
		}
		msg += ")"
	}
	if e.Kind == genie.KindTimeout && e.ConversationID != "" {
		msg += ". The question is still running remotely; retry later with follow_up on this conversation_id."
	}
	return msg
}

// outcome returns the metrics label for a tool call result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if e := genie.AsError(err); e != nil {
		return string(e.Kind)
	}
	return "error"
}
