package wikia

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MCP tool wrapper methods.
// ToolSession wraps the client methods with Args/Result types and keeps
// recently resolved pages so that facet tools called one after another on
// the same page reuse its loaded facets.

const (
	DefaultSessionPages = 256
	MaxToolContentBytes = 50000
	maxListPages        = 500
)

// ToolSession adapts a Client to MCP tool handlers.
type ToolSession struct {
	client *Client
	pages  *lru.Cache[string, *sessionPage]
}

// sessionPage serializes facet loads on a shared Page.
type sessionPage struct {
	mu   sync.Mutex
	page *Page
}

// NewToolSession creates a session remembering up to size pages.
func NewToolSession(client *Client, size int) (*ToolSession, error) {
	if size <= 0 {
		size = DefaultSessionPages
	}
	pages, err := lru.New[string, *sessionPage](size)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	return &ToolSession{client: client, pages: pages}, nil
}

// Client returns the underlying client.
func (s *ToolSession) Client() *Client {
	return s.client
}

// withPage resolves (or recalls) the page named by the arguments and runs
// fn while holding that page's lock. The cache key includes the language so
// a language switch never serves stale pages.
func (s *ToolSession) withPage(ctx context.Context, subWiki, title string, pageID int, redirect *bool, fn func(*Page) error) error {
	follow := redirect == nil || *redirect
	key := fmt.Sprintf("%s|%s|%s|%d|%t", s.client.Language(), subWiki, title, pageID, follow)

	entry, ok := s.pages.Get(key)
	if !ok {
		p, err := s.client.Page(ctx, subWiki, PageRef{Title: title, PageID: pageID}, FollowRedirects(follow))
		if err != nil {
			return err
		}
		entry = &sessionPage{page: p}
		if prev, found, _ := s.pages.PeekOrAdd(key, entry); found {
			entry = prev
		}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.page)
}

// CachedPages returns how many resolved pages the session holds.
func (s *ToolSession) CachedPages() int {
	return s.pages.Len()
}

// SearchMCP is the MCP wrapper for Search
func (s *ToolSession) SearchMCP(ctx context.Context, args SearchArgs) (SearchResult, error) {
	titles, err := s.client.Search(ctx, args.SubWiki, args.Query, args.Limit)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Titles: titles, Count: len(titles)}, nil
}

// GetPageMCP is the MCP wrapper for Page
func (s *ToolSession) GetPageMCP(ctx context.Context, args PageArgs) (PageResult, error) {
	var result PageResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		sections, err := p.SectionTitles(ctx)
		if err != nil {
			return err
		}
		result = PageResult{
			PageID:        p.PageID,
			Title:         p.Title,
			OriginalTitle: p.OriginalTitle,
			URL:           p.URL,
			Language:      p.Language,
			Sections:      sections,
		}
		return nil
	})
	return result, err
}

// GetSummaryMCP is the MCP wrapper for Summary
func (s *ToolSession) GetSummaryMCP(ctx context.Context, args SummaryArgs) (SummaryResult, error) {
	follow := args.Redirect == nil || *args.Redirect
	summary, err := s.client.Summary(ctx, args.SubWiki, args.Title, args.Chars, follow)
	if err != nil {
		return SummaryResult{}, err
	}
	return SummaryResult{Title: args.Title, Summary: summary}, nil
}

// GetContentMCP is the MCP wrapper for Page.Content
func (s *ToolSession) GetContentMCP(ctx context.Context, args PageArgs) (ContentResult, error) {
	var result ContentResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		content, err := p.Content(ctx)
		if err != nil {
			return err
		}
		rev, err := p.RevisionID(ctx)
		if err != nil {
			return err
		}
		result = ContentResult{PageID: p.PageID, Title: p.Title, RevisionID: rev, Content: content}
		if len(content) > MaxToolContentBytes {
			result.Content = truncateUTF8(content, MaxToolContentBytes)
			result.Truncated = true
		}
		return nil
	})
	return result, err
}

// GetSectionsMCP is the MCP wrapper for Page.Sections
func (s *ToolSession) GetSectionsMCP(ctx context.Context, args PageArgs) (SectionsResult, error) {
	var result SectionsResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		titles, err := p.SectionTitles(ctx)
		result = SectionsResult{Title: p.Title, Sections: titles}
		return err
	})
	return result, err
}

// GetSectionMCP is the MCP wrapper for Page.Section
func (s *ToolSession) GetSectionMCP(ctx context.Context, args SectionArgs) (SectionResult, error) {
	if args.Section == "" {
		return SectionResult{}, &ValidationError{Field: "section", Message: "must not be empty"}
	}
	var result SectionResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		text, found, err := p.Section(ctx, args.Section)
		result = SectionResult{Title: p.Title, Section: args.Section, Found: found, Text: text}
		return err
	})
	return result, err
}

// GetImagesMCP is the MCP wrapper for Page.Images
func (s *ToolSession) GetImagesMCP(ctx context.Context, args PageArgs) (ImagesResult, error) {
	var result ImagesResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		images, err := p.Images(ctx)
		result = ImagesResult{Title: p.Title, Images: images}
		return err
	})
	return result, err
}

// GetRelatedPagesMCP is the MCP wrapper for Page.RelatedPages
func (s *ToolSession) GetRelatedPagesMCP(ctx context.Context, args PageArgs) (RelatedPagesResult, error) {
	var result RelatedPagesResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		urls, err := p.RelatedPages(ctx)
		result = RelatedPagesResult{Title: p.Title, URLs: urls}
		return err
	})
	return result, err
}

// GetLinksMCP is the MCP wrapper for Page.Links
func (s *ToolSession) GetLinksMCP(ctx context.Context, args PageArgs) (TitlesResult, error) {
	var result TitlesResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		links, err := p.Links(ctx)
		result = TitlesResult{Title: p.Title, Titles: links, Count: len(links)}
		return err
	})
	return result, err
}

// GetCategoriesMCP is the MCP wrapper for Page.Categories
func (s *ToolSession) GetCategoriesMCP(ctx context.Context, args PageArgs) (TitlesResult, error) {
	var result TitlesResult
	err := s.withPage(ctx, args.SubWiki, args.Title, args.PageID, args.Redirect, func(p *Page) error {
		cats, err := p.Categories(ctx)
		result = TitlesResult{Title: p.Title, Titles: cats, Count: len(cats)}
		return err
	})
	return result, err
}

// ListPagesMCP is the MCP wrapper for ListPages
func (s *ToolSession) ListPagesMCP(ctx context.Context, args ListPagesArgs) (ListPagesResult, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListPages {
		limit = maxListPages
	}

	cur := s.client.ListPages(args.SubWiki, args.Prefix, limit)
	result := ListPagesResult{Pages: []PageInfo{}}
	for cur.Next(ctx) {
		if len(result.Pages) == limit {
			result.Truncated = true
			break
		}
		var info PageInfo
		if err := json.Unmarshal(cur.Item(), &info); err != nil {
			return ListPagesResult{}, fmt.Errorf("decoding page listing: %w", err)
		}
		result.Pages = append(result.Pages, info)
	}
	if err := cur.Err(); err != nil {
		return ListPagesResult{}, err
	}
	return result, nil
}

// RandomMCP is the MCP wrapper for Random
func (s *ToolSession) RandomMCP(ctx context.Context, args RandomArgs) (RandomResult, error) {
	titles, err := s.client.Random(ctx, args.SubWiki, args.Count)
	if err != nil {
		return RandomResult{}, err
	}
	return RandomResult{Titles: titles}, nil
}

// LanguagesMCP is the MCP wrapper for Languages
func (s *ToolSession) LanguagesMCP(ctx context.Context, args LanguagesArgs) (LanguagesResult, error) {
	langs, err := s.client.Languages(ctx, args.SubWiki)
	if err != nil {
		return LanguagesResult{}, err
	}
	return LanguagesResult{Languages: langs, Count: len(langs)}, nil
}

// SetLanguageMCP is the MCP wrapper for SetLanguage
func (s *ToolSession) SetLanguageMCP(_ context.Context, args SetLanguageArgs) (SetLanguageResult, error) {
	previous := s.client.Language()
	s.client.SetLanguage(args.Language)
	return SetLanguageResult{Previous: previous, Language: s.client.Language()}, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
