package tools

import (
	"context"
	"fmt"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/sundial-ai/sundial/assistant"
)

const defaultSearchResults = 5

// SearchClient is the slice of the Custom Search API the web_search tool
// needs, extracted for testing.
type SearchClient interface {
	Search(ctx context.Context, query string, num int64) ([]SearchHit, error)
}

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// googleSearch backs SearchClient with Google Programmable Search.
type googleSearch struct {
	service  *customsearch.Service
	engineID string
}

// NewGoogleSearch creates a SearchClient using the Custom Search JSON API.
func NewGoogleSearch(ctx context.Context, apiKey, engineID string) (SearchClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("search api key required")
	}
	if engineID == "" {
		return nil, fmt.Errorf("search engine id required")
	}
	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}
	return &googleSearch{service: service, engineID: engineID}, nil
}

func (g *googleSearch) Search(ctx context.Context, query string, num int64) ([]SearchHit, error) {
	resp, err := g.service.Cse.List().
		Context(ctx).
		Q(query).
		Cx(g.engineID).
		Num(num).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search api error: %w", err)
	}

	hits := make([]SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		hits = append(hits, SearchHit{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return hits, nil
}

// NewWebSearchTool returns the web_search tool backed by the given client.
func NewWebSearchTool(client SearchClient) assistant.Tool {
	return NewFunc(
		"web_search",
		"Search the web for current information. Returns titles, links, and snippets.",
		assistant.ObjectSchema(map[string]*assistant.Schema{
			"query":       assistant.StringParam("The search query"),
			"num_results": assistant.IntParam("How many results to return, up to 10"),
		}, "query"),
		func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
			query, err := requireString(params, "query")
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			num := defaultSearchResults
			if n, ok := intParam(params, "num_results"); ok && n > 0 {
				num = n
			}
			if num > 10 {
				num = 10
			}

			hits, err := client.Search(ctx, query, int64(num))
			if err != nil {
				return assistant.NewToolError(err.Error()), nil
			}
			return assistant.NewToolResult(map[string]interface{}{
				"query":   query,
				"count":   len(hits),
				"results": hits,
			}), nil
		},
	)
}
