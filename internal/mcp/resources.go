// ABOUTME: MCP resource providers for wikifaves
// ABOUTME: Exposes read-only views of favorites, history, trash, and statistics

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
)

// ResourceData is the standard response format for all resources.
type ResourceData struct {
	Metadata ResourceMetadata  `json:"metadata"`
	Data     interface{}       `json:"data"`
	Links    map[string]string `json:"links"`
}

// ResourceMetadata contains metadata about the resource response.
type ResourceMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	Count       int       `json:"count"`
	ResourceURI string    `json:"resource_uri"`
}

const (
	uriFavorites = "wikifaves://favorites"
	uriHistory   = "wikifaves://history"
	uriTrash     = "wikifaves://trash"
	uriStats     = "wikifaves://stats"
)

var resourceLinks = map[string]string{
	"favorites": uriFavorites,
	"history":   uriHistory,
	"trash":     uriTrash,
	"stats":     uriStats,
}

func (s *Server) registerResources() {
	s.registerCollectionResource(uriFavorites, "Favorites", "All favorited Wikipedia pages, newest first, with visit statistics", models.CollectionFavorites)
	s.registerCollectionResource(uriHistory, "Reading History", "Every visited page with visit counts, most recently visited first", models.CollectionHistory)
	s.registerCollectionResource(uriTrash, "Trash", "Soft-deleted favorites and history entries, newest deletion first", models.CollectionTrash)
	s.registerStatsResource()
}

func (s *Server) registerCollectionResource(uri, name, description string, c models.Collection) {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         uri,
			Name:        name,
			Description: description,
			MIMEType:    "application/json",
		},
		s.collectionHandler(uri, c),
	)
}

func (s *Server) collectionHandler(uri string, c models.Collection) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := s.svc.List(ctx, c, reconcile.QueryOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", c, err)
		}
		return s.resourceContents(request.Params.URI, uri, len(entries), entries)
	}
}

func (s *Server) registerStatsResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         uriStats,
			Name:        "Statistics",
			Description: "Counts of favorites, history entries and trash items plus total recorded visits",
			MIMEType:    "application/json",
		},
		s.handleStats,
	)
}

func (s *Server) handleStats(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate stats: %w", err)
	}
	return s.resourceContents(request.Params.URI, uriStats, 0, stats)
}

func (s *Server) resourceContents(requestURI, uri string, count int, data any) ([]mcp.ResourceContents, error) {
	links := make(map[string]string, len(resourceLinks)-1)
	for k, v := range resourceLinks {
		if v != uri {
			links[k] = v
		}
	}

	resourceData := ResourceData{
		Metadata: ResourceMetadata{
			Timestamp:   s.now(),
			Count:       count,
			ResourceURI: uri,
		},
		Data:  data,
		Links: links,
	}

	jsonBytes, err := json.MarshalIndent(resourceData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      requestURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
