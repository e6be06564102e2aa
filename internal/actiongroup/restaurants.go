package actiongroup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	serpEngine      = "google_food"
	serpErrorSuffix = "Ask the user for more information related to the context received about the function."
)

// RestaurantFinder searches nearby restaurants through SerpApi.
type RestaurantFinder struct {
	url    string
	apiKey string
	client *http.Client
	cache  *expirable.LRU[string, any]
}

// NewRestaurantFinder creates a finder. A ttl of zero disables caching.
func NewRestaurantFinder(searchURL, apiKey string, client *http.Client, ttl time.Duration) *RestaurantFinder {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	f := &RestaurantFinder{url: searchURL, apiKey: apiKey, client: client}
	if ttl > 0 {
		f.cache = expirable.NewLRU[string, any](64, nil, ttl)
	}
	return f
}

// Find returns SerpApi local results for the food query. A SerpApi error is
// returned as text so the agent can ask the user for more detail.
func (f *RestaurantFinder) Find(ctx context.Context, req *Request) (any, error) {
	food := req.Param("food", "q")
	if food == "" {
		return nil, &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "parameter food is required"}
	}
	if f.apiKey == "" {
		return nil, &Error{Code: CodeActionGroup, Message: "SERPAPI_API_KEY environment variable is not set"}
	}

	key := strings.ToLower(food)
	if f.cache != nil {
		if v, ok := f.cache.Get(key); ok {
			return v, nil
		}
	}

	q := url.Values{}
	q.Set("api_key", f.apiKey)
	q.Set("engine", serpEngine)
	q.Set("q", food)

	// SerpApi reports bad keys, quota and empty searches as a JSON error
	// body, often with a 4xx status.
	var results map[string]json.RawMessage
	status, err := fetchJSON(ctx, f.client, f.url+"?"+q.Encode(), &results)
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}

	var out any
	switch {
	case len(results["error"]) > 0:
		var msg string
		_ = json.Unmarshal(results["error"], &msg)
		return msg + serpErrorSuffix, nil
	case status < 200 || status >= 300:
		return nil, &Error{Status: status, Code: CodeUpstream, Message: fmt.Sprintf("serpapi: unexpected status %d", status)}
	case len(results["local_results"]) > 0:
		out = results["local_results"]
	default:
		return "Unknown Error.", nil
	}

	if f.cache != nil {
		f.cache.Add(key, out)
	}
	return out, nil
}
