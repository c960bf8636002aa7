// ABOUTME: MCP prompt definitions and handlers
// ABOUTME: Provides workflow templates for reviewing reading history and tidying favorites

package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.registerReadingReviewPrompt()
	s.registerTidyFavoritesPrompt()
}

func (s *Server) registerReadingReviewPrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "reading-review",
			Description: "Review what you have been reading on Wikipedia over a period and suggest pages worth favoriting",
			Arguments: []mcp.PromptArgument{
				{
					Name:        "period",
					Description: "Period to review: 'today', 'week', 'month', 'year' or a day count like '30d' (default: week)",
					Required:    false,
				},
			},
		},
		s.handleReadingReview,
	)
}

func (s *Server) handleReadingReview(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	period := "week"
	if req.Params.Arguments != nil {
		if p, ok := req.Params.Arguments["period"]; ok && p != "" {
			period = p
		}
	}

	template := fmt.Sprintf(`# Reading Review (%s)

## Overview
Look back at the Wikipedia pages read during this period, find the threads that kept pulling you back, and decide which pages deserve a place in favorites.

## Workflow Steps

### Step 1: Get the big picture
Read the wikifaves://stats resource for collection sizes and the total number of recorded visits.

### Step 2: Pull the period's history
Call list_history with since='%s' and sort='mostVisited'.
- Pages with several visits are the ones you keep coming back to
- Note the first and last visit times to spot long-running interests

### Step 3: Compare with favorites
Call list_favorites with sort='dateAdded'.
- Which frequently visited pages are not favorites yet?
- Which favorites were never revisited this period?

### Step 4: Suggest changes
Present a short list:
- **Favorite:** frequently visited pages worth keeping (use toggle_favorite after confirmation)
- **Tidy:** one-off visits cluttering history (use move_to_trash with source_type='history')

Always ask before changing anything. Trashed items can be restored with restore_from_trash.

### Step 5: Summarize the themes
Group the period's reading into two to five topics and describe each in one sentence.
`, period, period)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Reading review workflow for %s", period),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: template,
				},
			},
		},
	}, nil
}

func (s *Server) registerTidyFavoritesPrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "tidy-favorites",
			Description: "Walk through favorites and trash to remove stale pages and recover ones deleted by mistake",
			Arguments:   []mcp.PromptArgument{},
		},
		s.handleTidyFavorites,
	)
}

func (s *Server) handleTidyFavorites(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	template := `# Tidy Favorites

## Overview
Keep the favorites list useful by trimming pages you no longer care about and checking the trash for anything removed by accident.

## Workflow Steps

### Step 1: List favorites by staleness
Call list_favorites with sort='recentlyVisited'. Favorites at the end of the list have not been visited in a long time.

### Step 2: Propose removals
For each stale favorite, suggest move_to_trash with source_type='favorites'. Removal is recoverable.

### Step 3: Review the trash
Read wikifaves://trash. For each item ask whether it should be restored (restore_from_trash) or deleted for good (delete_from_trash).

### Step 4: Back up
Call export_data and offer the result as a wikifaves.json backup.
`

	return &mcp.GetPromptResult{
		Description: "Workflow for tidying favorites and trash",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: template,
				},
			},
		},
	}, nil
}
