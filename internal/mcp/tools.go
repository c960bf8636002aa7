// ABOUTME: MCP tool definitions and handlers for favorites, visits, and trash
// ABOUTME: Each handler binds its arguments and delegates to the faves service

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/resolve"
	"github.com/harper/wikifaves/internal/timeutil"
)

// Type definitions for input/output structures

type PageInput struct {
	URL          string `json:"url,omitempty"`
	PageKey      string `json:"page_key,omitempty"`
	DisplayTitle string `json:"display_title,omitempty"`
}

type RecordVisitInput struct {
	PageInput
	IsReload bool `json:"is_reload,omitempty"`
}

type ListInput struct {
	Sort  string `json:"sort,omitempty"`
	Since string `json:"since,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type ListOutput struct {
	Collection string            `json:"collection"`
	Entries    []reconcile.Entry `json:"entries"`
	Count      int               `json:"count"`
	Filters    map[string]any    `json:"filters,omitempty"`
}

type TrashInput struct {
	PageKey    string `json:"page_key"`
	SourceType string `json:"source_type"`
}

type KeyInput struct {
	PageKey string `json:"page_key"`
}

type OutcomeOutput struct {
	PageKey     string `json:"page_key"`
	Changed     bool   `json:"changed"`
	Favorite    *bool  `json:"favorite,omitempty"`
	Message     string `json:"message"`
	SyncWarning string `json:"sync_warning,omitempty"`
}

var sortDescription = "Optional sort order: 'alpha', 'mostVisited', 'dateAdded', 'firstVisited' or 'recentlyVisited'."

var sinceDescription = "Optional cutoff. Accepts 'today', 'yesterday', 'week', 'month', 'year', a day count like '7d', or an ISO date (YYYY-MM-DD)."

// Tool registration

func (s *Server) registerTools() {
	s.registerPageTool("toggle_favorite",
		"Toggle the favorite state of a Wikipedia page. Favoriting records the current time as the date added; toggling again removes the favorite permanently (use move_to_trash for a recoverable removal). Identify the page by its URL or page key.",
		s.handleToggleFavorite, nil)
	s.registerPageTool("record_visit",
		"Record a visit to a Wikipedia page in reading history. Increments the visit count and keeps the 100 most recent visit timestamps. Set is_reload=true when the visit is a page reload; reloads of already-tracked pages are ignored.",
		s.handleRecordVisit, map[string]any{
			"is_reload": map[string]any{
				"type":        "boolean",
				"description": "True if this visit is a reload of the same page. Default: false",
			},
		})
	s.registerListTool("list_favorites", "Retrieve favorited pages joined with their visit statistics. Default order is newest favorite first.", s.handleListFavorites, true)
	s.registerListTool("list_history", "Retrieve reading history with visit counts and first/last visit times. Default order is most recently visited first.", s.handleListHistory, true)
	s.registerListTool("list_trash", "Retrieve soft-deleted favorites and history entries, newest deletion first. Items in the trash can be restored with restore_from_trash.", s.handleListTrash, false)
	s.registerMoveToTrashTool()
	s.registerKeyTool("restore_from_trash",
		"Restore a trashed item to the collection it came from. If the page was favorited or visited again while in the trash, the records are merged: visit counts add up and the earliest dates win.",
		s.handleRestoreFromTrash)
	s.registerKeyTool("delete_from_trash",
		"Permanently delete an item from the trash. This action cannot be undone.",
		s.handleDeleteFromTrash)
	s.registerKeyTool("get_page",
		"Show everything stored about one page: its favorite record, its history record and any trash entry.",
		s.handleGetPage)
	s.registerExportTool()
}

func pageProperties() map[string]any {
	return map[string]any{
		"url": map[string]any{
			"type":        "string",
			"description": "Wikipedia article URL. Example: 'https://en.wikipedia.org/wiki/Go_(programming_language)'",
		},
		"page_key": map[string]any{
			"type":        "string",
			"description": "Page key (the decoded article title with underscores), used when url is omitted. Example: 'Go_(programming_language)'",
		},
		"display_title": map[string]any{
			"type":        "string",
			"description": "Optional display title. Defaults to the page key with underscores replaced by spaces.",
		},
	}
}

func (s *Server) registerPageTool(name, description string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), extra map[string]any) {
	props := pageProperties()
	for k, v := range extra {
		props[k] = v
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}, handler)
}

func (s *Server) registerListTool(name, description string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), sortable bool) {
	props := map[string]any{
		"since": map[string]any{
			"type":        "string",
			"description": sinceDescription,
		},
		"limit": map[string]any{
			"type":        "integer",
			"description": "Maximum number of entries to return. If omitted, returns all. Example: 20",
		},
	}
	if sortable {
		props["sort"] = map[string]any{
			"type":        "string",
			"description": sortDescription,
			"enum":        []string{"alpha", "mostVisited", "dateAdded", "firstVisited", "recentlyVisited"},
		}
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}, handler)
}

func (s *Server) registerKeyTool(name, description string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"page_key": map[string]any{
					"type":        "string",
					"description": "Page key. Example: 'Go_(programming_language)'",
				},
			},
			Required: []string{"page_key"},
		},
	}, handler)
}

func (s *Server) registerMoveToTrashTool() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move_to_trash",
		Description: "Soft-delete a page from favorites or history. The record moves to the trash with the current time and can be restored later. A page that is not in the source collection is left untouched.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"page_key": map[string]any{
					"type":        "string",
					"description": "Page key. Example: 'Go_(programming_language)'",
				},
				"source_type": map[string]any{
					"type":        "string",
					"description": "Collection to remove the page from.",
					"enum":        []string{"favorites", "history"},
				},
			},
			Required: []string{"page_key", "source_type"},
		},
	}, s.handleMoveToTrash)
}

func (s *Server) registerExportTool() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "export_data",
		Description: "Export favorites, history and trash as a JSON document in the wikifaves.json import format. The output can be imported on another device without losing data.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleExportData)
}

// Handlers

func (s *Server) handleToggleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input PageInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	page, err := pageFromInput(input)
	if err != nil {
		return nil, err
	}

	out, err := s.svc.Toggle(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	output := outcomeOutput(page.Key, out)
	if output.Favorite != nil && *output.Favorite {
		output.Message = fmt.Sprintf("Added %q to favorites", page.DisplayTitle)
	} else {
		output.Message = fmt.Sprintf("Removed %q from favorites", page.DisplayTitle)
	}
	return jsonResult(output)
}

func (s *Server) handleRecordVisit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input RecordVisitInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	page, err := pageFromInput(input.PageInput)
	if err != nil {
		return nil, err
	}

	out, err := s.svc.Visit(ctx, page, input.IsReload)
	if err != nil {
		return nil, fmt.Errorf("failed to record visit: %w", err)
	}
	output := outcomeOutput(page.Key, out)
	output.Message = "Visit recorded"
	if !out.Changed {
		output.Message = "Reload of a tracked page ignored"
	}
	return jsonResult(output)
}

func (s *Server) handleListFavorites(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.list(ctx, req, models.CollectionFavorites)
}

func (s *Server) handleListHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.list(ctx, req, models.CollectionHistory)
}

func (s *Server) handleListTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.list(ctx, req, models.CollectionTrash)
}

func (s *Server) list(ctx context.Context, req mcp.CallToolRequest, c models.Collection) (*mcp.CallToolResult, error) {
	var input ListInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	filters := map[string]any{}
	method, err := reconcile.ParseSortMethod(input.Sort)
	if err != nil {
		return nil, err
	}
	if method != "" {
		filters["sort"] = string(method)
	}
	since, err := timeutil.ParsePeriod(input.Since, s.now())
	if err != nil {
		return nil, fmt.Errorf("invalid since: %w", err)
	}
	if !since.IsZero() {
		filters["since"] = since
	}
	if input.Limit > 0 {
		filters["limit"] = input.Limit
	}

	entries, err := s.svc.List(ctx, c, reconcile.QueryOptions{Sort: method, Since: since, Limit: input.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	return jsonResult(ListOutput{
		Collection: string(c),
		Entries:    entries,
		Count:      len(entries),
		Filters:    filters,
	})
}

func (s *Server) handleMoveToTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input TrashInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if input.PageKey == "" {
		return nil, errors.New("page_key is required")
	}
	source, err := models.ParseSourceType(input.SourceType)
	if err != nil {
		return nil, err
	}

	key := models.PageKey(input.PageKey)
	out, err := s.svc.Trash(ctx, key, source)
	if err != nil {
		return nil, fmt.Errorf("failed to move to trash: %w", err)
	}
	output := outcomeOutput(key, out)
	output.Message = fmt.Sprintf("Moved %s from %s to trash", key, source)
	if out.NotFound {
		output.Message = fmt.Sprintf("%s is not in %s; nothing changed", key, source)
	}
	return jsonResult(output)
}

func (s *Server) handleRestoreFromTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := bindKey(req)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Restore(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to restore: %w", err)
	}
	output := outcomeOutput(key, out)
	output.Message = fmt.Sprintf("Restored %s", key)
	if out.NotFound {
		output.Message = fmt.Sprintf("%s is not in the trash; nothing changed", key)
	}
	return jsonResult(output)
}

func (s *Server) handleDeleteFromTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := bindKey(req)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Purge(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to delete from trash: %w", err)
	}
	output := outcomeOutput(key, out)
	output.Message = fmt.Sprintf("Permanently deleted %s", key)
	if out.NotFound {
		output.Message = fmt.Sprintf("%s is not in the trash; nothing changed", key)
	}
	return jsonResult(output)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := bindKey(req)
	if err != nil {
		return nil, err
	}
	view, found, err := s.svc.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("page not found: %s", key)
	}
	return jsonResult(view)
}

func (s *Server) handleExportData(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := s.svc.Export(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// Helpers

func pageFromInput(input PageInput) (models.Page, error) {
	var page models.Page
	switch {
	case input.URL != "":
		p, err := resolve.Resolve(input.URL)
		if err != nil {
			return models.Page{}, err
		}
		page = p
	case input.PageKey != "":
		page = resolve.Lookup(resolve.KeyFromTitle(input.PageKey))
	default:
		return models.Page{}, errors.New("url or page_key is required")
	}
	if input.DisplayTitle != "" {
		page.DisplayTitle = input.DisplayTitle
	}
	return page, nil
}

func bindKey(req mcp.CallToolRequest) (models.PageKey, error) {
	var input KeyInput
	if err := req.BindArguments(&input); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if input.PageKey == "" {
		return "", errors.New("page_key is required")
	}
	return models.PageKey(input.PageKey), nil
}

func outcomeOutput(key models.PageKey, out faves.Outcome) OutcomeOutput {
	output := OutcomeOutput{PageKey: string(key), Changed: out.Changed}
	if out.Event != nil {
		fav := out.Event.Action == models.ActionFavorited
		output.Favorite = &fav
	}
	if out.SyncErr != nil {
		output.SyncWarning = out.SyncErr.Error()
	}
	return output
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
