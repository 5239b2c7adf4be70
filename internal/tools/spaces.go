package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fieldline-ai/genie-bridge/pkg/metrics"
)

func (s *Service) listSpacesTool() mcp.Tool {
	return mcp.NewTool("list_genie_spaces",
		mcp.WithDescription("List the registered Genie spaces. Spaces represent data domains; each has an internal space_id, a title and a description."),
	)
}

func (s *Service) handleListSpaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaces := s.registry.List()

	data, err := json.MarshalIndent(spaces, "", "  ")
	if err != nil {
		metrics.RecordToolCall("list_genie_spaces", "error")
		return mcp.NewToolResultError(errorResult(err)), nil
	}

	metrics.RecordToolCall("list_genie_spaces", "ok")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Service) spaceInfoTool() mcp.Tool {
	return mcp.NewTool("get_space_info",
		mcp.WithDescription("Return metadata about a Genie space: its title and description."),
		mcp.WithString("space_id",
			mcp.Required(),
			mcp.Description("Genie space ID from list_genie_spaces"),
		),
	)
}

func (s *Service) handleSpaceInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	space, err := s.client.DescribeSpace(ctx, spaceID)
	metrics.RecordToolCall("get_space_info", outcome(err))
	if err != nil {
		return mcp.NewToolResultError(errorResult(err)), nil
	}

	return mcp.NewToolResultText(spaceMarkdown(space.ID, space.Title, space.Description)), nil
}

func spaceMarkdown(id, title, description string) string {
	var b strings.Builder
	b.WriteString("Genie Space\n\n")
	fmt.Fprintf(&b, "- `space_id`: `%s`\n", id)
	fmt.Fprintf(&b, "- `title`: %s\n", title)
	fmt.Fprintf(&b, "- `description`: %s\n", description)
	return b.String()
}

func (s *Service) aboutResource() mcp.Resource {
	return mcp.NewResource("genie://about", "About Genie",
		mcp.WithResourceDescription("What Genie is and how to use it"),
		mcp.WithMIMEType("text/markdown"),
	)
}

func (s *Service) handleAbout(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "genie://about",
			MIMEType: "text/markdown",
			Text: "Genie is a natural language interface to Databricks data. " +
				"You ask questions like 'What are the top 5 products sold last month?' " +
				"and Genie returns SQL plus the query result. Spaces represent data domains.",
		},
	}, nil
}

func (s *Service) spaceResourceTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate("genie://spaces/{space_id}", "Genie space metadata",
		mcp.WithTemplateDescription("Metadata for one registered Genie space"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

func (s *Service) handleSpaceResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	spaceID := strings.TrimPrefix(request.Params.URI, "genie://spaces/")
	if spaceID == "" || spaceID == request.Params.URI {
		return nil, fmt.Errorf("invalid space resource URI %q", request.Params.URI)
	}

	space, err := s.client.DescribeSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     spaceMarkdown(space.ID, space.Title, space.Description),
		},
	}, nil
}
