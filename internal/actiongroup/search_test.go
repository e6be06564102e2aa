package actiongroup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBookClient_TopFiveCached(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		var results []string
		for i := 0; i < 8; i++ {
			results = append(results, fmt.Sprintf(`{"id":%d}`, i))
		}
		fmt.Fprintf(w, `{"count":72000,"results":[%s]}`, strings.Join(results, ","))
	}))
	defer srv.Close()

	r := NewDefaultRouter(Config{GutendexURL: srv.URL, CacheTTL: time.Minute}, quietLogger())
	for i := 0; i < 2; i++ {
		resp := r.Dispatch(context.Background(), &Event{APIPath: "/top_books", HTTPMethod: "GET"})
		if resp.Error != nil {
			t.Fatalf("unexpected error %+v", resp.Error)
		}
		var top TopBooks
		if err := json.Unmarshal([]byte(resp.Response.ResponseBody["application/json"].Body), &top); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if top.Count != 72000 || len(top.Books) != TopBooksCount {
			t.Errorf("unexpected top books %d/%d", top.Count, len(top.Books))
		}
	}
	if hits != 1 {
		t.Errorf("expected cached second call, got %d hits", hits)
	}
}

func TestBookClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewDefaultRouter(Config{GutendexURL: srv.URL}, quietLogger())
	resp := r.Dispatch(context.Background(), &Event{APIPath: "/top_books", HTTPMethod: "GET"})
	if resp.Error == nil || resp.Error.Code != CodeUpstream {
		t.Errorf("expected upstream error, got %+v", resp)
	}
}

func TestRestaurantFinder(t *testing.T) {
	var lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.RawQuery
		switch r.URL.Query().Get("q") {
		case "ramen":
			fmt.Fprint(w, `{"local_results":[{"title":"Ichiran"}]}`)
		case "zzz":
			fmt.Fprint(w, `{"error":"Google hasn't returned any results. "}`)
		default:
			fmt.Fprint(w, `{"search_metadata":{}}`)
		}
	}))
	defer srv.Close()

	r := NewDefaultRouter(Config{SerpAPIURL: srv.URL, SerpAPIKey: "k"}, quietLogger())
	find := func(food string) Response {
		return r.Dispatch(context.Background(), &Event{APIPath: "/get_restaurants", HTTPMethod: "GET", Parameters: []Parameter{{Name: "food", Value: food}}})
	}

	resp := find("ramen")
	if body := resp.Response.ResponseBody["application/json"].Body; body != `[{"title":"Ichiran"}]` {
		t.Errorf("unexpected body %s", body)
	}
	if !strings.Contains(lastQuery, "engine=google_food") || !strings.Contains(lastQuery, "api_key=k") {
		t.Errorf("unexpected query %q", lastQuery)
	}

	resp = find("zzz")
	if body := resp.Response.ResponseBody["application/json"].Body; !strings.HasSuffix(body, serpErrorSuffix) {
		t.Errorf("expected guidance text, got %q", body)
	}

	resp = find("other")
	if body := resp.Response.ResponseBody["application/json"].Body; body != "Unknown Error." {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRestaurantFinder_ErrorBodyWithStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		reply     string
		wantBody  string
		wantError bool
	}{
		{"bad key", http.StatusUnauthorized, `{"error":"Invalid API key. "}`, "Invalid API key. " + serpErrorSuffix, false},
		{"quota", http.StatusTooManyRequests, `{"error":"Your account has run out of searches. "}`, "Your account has run out of searches. " + serpErrorSuffix, false},
		{"html failure", http.StatusBadGateway, `<html>bad gateway</html>`, "", true},
		{"json without error", http.StatusInternalServerError, `{"search_metadata":{}}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.reply)
			}))
			defer srv.Close()

			r := NewDefaultRouter(Config{SerpAPIURL: srv.URL, SerpAPIKey: "bad"}, quietLogger())
			resp := r.Dispatch(context.Background(), &Event{APIPath: "/get_restaurants", HTTPMethod: "GET", Parameters: []Parameter{{Name: "food", Value: "pizza"}}})

			if tt.wantError {
				if resp.Error == nil || resp.Error.Code != CodeUpstream {
					t.Errorf("expected upstream error, got %+v", resp)
				}
				return
			}
			if resp.Response == nil {
				t.Fatalf("expected response, got error %+v", resp.Error)
			}
			if body := resp.Response.ResponseBody["application/json"].Body; body != tt.wantBody {
				t.Errorf("expected %q, got %q", tt.wantBody, body)
			}
		})
	}
}

func TestRestaurantFinder_Misconfigured(t *testing.T) {
	r := NewDefaultRouter(Config{}, quietLogger())
	resp := r.Dispatch(context.Background(), &Event{APIPath: "/get_restaurants", HTTPMethod: "GET", Parameters: []Parameter{{Name: "food", Value: "pho"}}})
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "SERPAPI_API_KEY") {
		t.Errorf("expected missing key error, got %+v", resp)
	}

	resp = r.Dispatch(context.Background(), &Event{APIPath: "/get_restaurants", HTTPMethod: "GET"})
	if resp.Error == nil || resp.Error.Code != CodeBadRequest {
		t.Errorf("expected bad request, got %+v", resp)
	}
}
