package wikia

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
)

const (
	DefaultSearchLimit  = 10
	DefaultSummaryChars = 500
	MaxRandomPages      = 10
)

type searchResponse struct {
	Items *[]struct {
		Title string `json:"title"`
	} `json:"items"`
}

// Search returns the titles matching query on subWiki, best match first.
// Results are memoized until the language changes.
func (c *Client) Search(ctx context.Context, subWiki, query string, limit int) ([]string, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	titles, err := cached(ctx, c.cache, CacheKey{Func: cacheSearch, Args: []any{query, subWiki, limit}},
		func(ctx context.Context) ([]string, error) {
			// Language is read after the cache epoch so a concurrent
			// SetLanguage never leaves an old-language result stored.
			params := url.Values{"query": {query}, "limit": {strconv.Itoa(limit)}}
			raw, err := c.request(ctx, Request{Action: ActionSearch, SubWiki: subWiki, Language: c.Language(), Params: params})
			if err != nil {
				return nil, err
			}
			var resp searchResponse
			if err := json.Unmarshal(raw, &resp); err != nil || resp.Items == nil {
				return nil, &PageNotFoundError{Title: query, SubWiki: subWiki}
			}
			titles := make([]string, 0, len(*resp.Items))
			for _, item := range *resp.Items {
				titles = append(titles, item.Title)
			}
			return titles, nil
		})
	if err != nil {
		return nil, err
	}
	return slices.Clone(titles), nil
}

// Summary returns the plain text abstract of a page, at most chars long.
// The title goes through full page resolution first, so disambiguation
// pages and (when redirect is false) redirects surface as errors.
func (c *Client) Summary(ctx context.Context, subWiki, title string, chars int, redirect bool) (string, error) {
	if chars <= 0 {
		chars = DefaultSummaryChars
	}
	return cached(ctx, c.cache, CacheKey{Func: cacheSummary, Args: []any{title, subWiki, chars, redirect}},
		func(ctx context.Context) (string, error) {
			page, err := c.Page(ctx, subWiki, ByTitle(title), FollowRedirects(redirect))
			if err != nil {
				return "", err
			}
			params := url.Values{
				"titles":   {page.Title},
				"ids":      {strconv.Itoa(page.PageID)},
				"abstract": {strconv.Itoa(chars)},
			}
			item, err := page.details(ctx, params)
			if err != nil {
				return "", err
			}
			return item.Abstract, nil
		})
}

type languagesResponse struct {
	Query *struct {
		Languages []struct {
			Code string `json:"code"`
			Name string `json:"*"`
		} `json:"languages"`
	} `json:"query"`
}

// Languages returns the language prefixes the wiki farm supports, mapped
// to each language's local name.
func (c *Client) Languages(ctx context.Context, subWiki string) (map[string]string, error) {
	langs, err := cached(ctx, c.cache, CacheKey{Func: cacheLanguages, Args: []any{subWiki}},
		func(ctx context.Context) (map[string]string, error) {
			params := url.Values{"meta": {"siteinfo"}, "siprop": {"languages"}}
			raw, err := c.request(ctx, Request{Action: ActionQuery, SubWiki: subWiki, Language: c.Language(), Params: params})
			if err != nil {
				return nil, err
			}
			var resp languagesResponse
			if err := json.Unmarshal(raw, &resp); err != nil || resp.Query == nil {
				return nil, fmt.Errorf("unexpected siteinfo response from %s", subWiki)
			}
			out := make(map[string]string, len(resp.Query.Languages))
			for _, l := range resp.Query.Languages {
				out[l.Code] = l.Name
			}
			return out, nil
		})
	if err != nil {
		return nil, err
	}
	return maps.Clone(langs), nil
}

type randomResponse struct {
	Query *struct {
		Random []struct {
			Title string `json:"title"`
		} `json:"random"`
	} `json:"query"`
}

// Random returns up to n random article titles (namespace 0 only).
func (c *Client) Random(ctx context.Context, subWiki string, n int) ([]string, error) {
	if n <= 0 {
		n = 1
	}
	if n > MaxRandomPages {
		n = MaxRandomPages
	}
	params := url.Values{
		"list":        {"random"},
		"rnnamespace": {"0"},
		"rnlimit":     {strconv.Itoa(n)},
	}
	raw, err := c.request(ctx, Request{Action: ActionQuery, SubWiki: subWiki, Language: c.Language(), Params: params})
	if err != nil {
		return nil, err
	}
	var resp randomResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Query == nil {
		return nil, fmt.Errorf("unexpected random response from %s", subWiki)
	}
	titles := make([]string, 0, len(resp.Query.Random))
	for _, r := range resp.Query.Random {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// PageInfo is one page yielded by ListPages.
type PageInfo struct {
	PageID    int    `json:"pageid"`
	Namespace int    `json:"ns"`
	Title     string `json:"title"`
}

// ListPages returns a cursor over the articles whose titles start with
// prefix, fetching batchSize pages per request. Nothing is fetched until
// the cursor is advanced.
func (c *Client) ListPages(subWiki, prefix string, batchSize int) *Cursor {
	if batchSize <= 0 {
		batchSize = 50
	}
	params := url.Values{
		"generator":    {"allpages"},
		"gapnamespace": {"0"},
		"gaplimit":     {strconv.Itoa(batchSize)},
		"prop":         {"info"},
	}
	if prefix != "" {
		params.Set("gapprefix", prefix)
	}
	return c.newCursor(subWiki, c.Language(), params, 0)
}
