package actiongroup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TopBooksCount is how many books /top_books returns.
const TopBooksCount = 5

// TopBooks is the /top_books reply.
type TopBooks struct {
	Count int               `json:"count"`
	Books []json.RawMessage `json:"books"`
}

// BookClient reads the Gutendex catalogue.
type BookClient struct {
	url    string
	client *http.Client
	cache  *expirable.LRU[string, TopBooks]
}

// NewBookClient creates a client for the Gutendex /books endpoint. A ttl of
// zero disables caching.
func NewBookClient(booksURL string, client *http.Client, ttl time.Duration) *BookClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	bc := &BookClient{url: booksURL, client: client}
	if ttl > 0 {
		bc.cache = expirable.NewLRU[string, TopBooks](8, nil, ttl)
	}
	return bc
}

// Top returns the catalogue size and its first TopBooksCount entries.
func (b *BookClient) Top(ctx context.Context, _ *Request) (any, error) {
	return b.top(ctx, TopBooksCount)
}

func (b *BookClient) top(ctx context.Context, n int) (TopBooks, error) {
	key := fmt.Sprintf("top:%d", n)
	if b.cache != nil {
		if v, ok := b.cache.Get(key); ok {
			return v, nil
		}
	}

	var page struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	if err := getJSON(ctx, b.client, b.url, &page); err != nil {
		return TopBooks{}, fmt.Errorf("gutendex: %w", err)
	}

	books := page.Results
	if len(books) > n {
		books = books[:n]
	}
	out := TopBooks{Count: page.Count, Books: books}
	if b.cache != nil {
		b.cache.Add(key, out)
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	status, err := fetchJSON(ctx, client, url, dst)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &Error{Status: status, Code: CodeUpstream, Message: fmt.Sprintf("unexpected status %d", status)}
	}
	return nil
}

// fetchJSON decodes the reply into dst whatever its status, so APIs that
// explain failures in a JSON body can be read. A non-JSON error reply is
// left undecoded.
func fetchJSON(ctx context.Context, client *http.Client, url string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, &Error{Code: CodeUpstream, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, &Error{Code: CodeUpstream, Message: "read response", Err: err}
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok && !json.Valid(data) {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		if !ok {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, &Error{Code: CodeUpstream, Message: "decode response", Err: err}
	}
	return resp.StatusCode, nil
}
