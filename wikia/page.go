package wikia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/olgasafonova/wikia-mcp-server/metrics"
)

// Page is a resolved wiki page. Identity fields are fixed at resolution;
// facets are fetched on first access and kept for the life of the value.
// A Page is not safe for concurrent use.
type Page struct {
	SubWiki       string
	PageID        int
	Title         string // canonical, lowercased
	OriginalTitle string // as requested, before redirects
	URL           string
	Language      string

	client *Client

	html         facet[string]
	content      facet[string]
	revisionID   int64
	summary      facet[string]
	images       facet[[]string]
	relatedPages facet[[]string]
	sections     facet[[]Section]
	links        facet[[]string]
	categories   facet[[]string]
}

// Section is one top-level block of an article.
type Section struct {
	Title      string
	Paragraphs []string
	Images     []string
}

// facet holds a lazily loaded value.
type facet[T any] struct {
	value  T
	loaded bool
}

func (f *facet[T]) get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if f.loaded {
		return f.value, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	f.value, f.loaded = v, true
	return v, nil
}

func (p *Page) String() string {
	return fmt.Sprintf("<WikiaPage %q>", p.Title)
}

// Equal reports whether two pages have the same id, title and URL.
func (p *Page) Equal(other *Page) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.PageID == other.PageID && p.Title == other.Title && p.URL == other.URL
}

func (p *Page) request(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	return p.client.request(ctx, Request{Action: action, SubWiki: p.SubWiki, Language: p.Language, Params: params})
}

func (p *Page) idParams() url.Values {
	id := strconv.Itoa(p.PageID)
	return url.Values{"id": {id}, "ids": {id}}
}

// HTML returns the full rendered page fetched from the page URL.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.html.get(ctx, func(ctx context.Context) (string, error) {
		body, err := p.client.fetchRaw(ctx, p.SubWiki, p.URL)
		if err != nil {
			return "", err
		}
		metrics.RecordContentSize("html", len(body))
		return string(body), nil
	})
}

// Content returns the plain text of every paragraph on the page, one per
// line. Loading it also loads the revision id.
func (p *Page) Content(ctx context.Context) (string, error) {
	return p.content.get(ctx, func(ctx context.Context) (string, error) {
		sections, err := p.Sections(ctx)
		if err != nil {
			return "", err
		}
		var paragraphs []string
		for _, s := range sections {
			paragraphs = append(paragraphs, s.Paragraphs...)
		}
		text := strings.Join(paragraphs, "\n")

		item, err := p.details(ctx, nil)
		if err != nil {
			return "", err
		}
		if item.Revision != nil {
			p.revisionID = item.Revision.ID
		}
		metrics.RecordContentSize("content", len(text))
		return text, nil
	})
}

// RevisionID returns the id of the page's current revision.
func (p *Page) RevisionID(ctx context.Context) (int64, error) {
	if _, err := p.Content(ctx); err != nil {
		return 0, err
	}
	return p.revisionID, nil
}

// Summary returns the plain text abstract of the page.
func (p *Page) Summary(ctx context.Context) (string, error) {
	return p.summary.get(ctx, func(ctx context.Context) (string, error) {
		item, err := p.details(ctx, url.Values{"abstract": {strconv.Itoa(DefaultSummaryChars)}})
		if err != nil {
			return "", err
		}
		return item.Abstract, nil
	})
}

// Images returns the URL of the first image of each section that has one.
func (p *Page) Images(ctx context.Context) ([]string, error) {
	return p.images.get(ctx, func(ctx context.Context) ([]string, error) {
		sections, err := p.Sections(ctx)
		if err != nil {
			return nil, err
		}
		images := []string{}
		for _, s := range sections {
			if len(s.Images) > 0 {
				images = append(images, s.Images[0])
			}
		}
		return images, nil
	})
}

type relatedPagesResponse struct {
	Items    map[string][]struct {
		URL string `json:"url"`
	} `json:"items"`
	Basepath string `json:"basepath"`
}

// RelatedPages returns up to ten absolute URLs of pages related to this one.
func (p *Page) RelatedPages(ctx context.Context) ([]string, error) {
	return p.relatedPages.get(ctx, func(ctx context.Context) ([]string, error) {
		params := url.Values{"ids": {strconv.Itoa(p.PageID)}, "limit": {"10"}}
		raw, err := p.request(ctx, ActionRelatedPages, params)
		if err != nil {
			return nil, err
		}
		var resp relatedPagesResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decoding related pages of %q: %w", p.Title, err)
		}
		urls := []string{}
		for _, item := range resp.Items[strconv.Itoa(p.PageID)] {
			urls = append(urls, resp.Basepath+item.URL)
		}
		return urls, nil
	})
}

type simpleJSONResponse struct {
	Sections []struct {
		Title   string `json:"title"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Images []struct {
			Src string `json:"src"`
		} `json:"images"`
	} `json:"sections"`
}

// Sections returns the page's sections in order, with their paragraphs.
func (p *Page) Sections(ctx context.Context) ([]Section, error) {
	return p.sections.get(ctx, func(ctx context.Context) ([]Section, error) {
		raw, err := p.request(ctx, ActionSimpleJSON, p.idParams())
		if err != nil {
			return nil, err
		}
		var resp simpleJSONResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decoding sections of %q: %w", p.Title, err)
		}
		sections := make([]Section, 0, len(resp.Sections))
		for _, s := range resp.Sections {
			sec := Section{Title: s.Title}
			for _, seg := range s.Content {
				if seg.Type == "paragraph" {
					sec.Paragraphs = append(sec.Paragraphs, seg.Text)
				}
			}
			for _, img := range s.Images {
				sec.Images = append(sec.Images, img.Src)
			}
			sections = append(sections, sec)
		}
		return sections, nil
	})
}

// SectionTitles returns the section titles in page order.
func (p *Page) SectionTitles(ctx context.Context) ([]string, error) {
	sections, err := p.Sections(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	return titles, nil
}

// Section returns the paragraphs of the named section joined by newlines.
// Subsections are separate sections and are not included. ok is false when
// the page has no section with that title.
func (p *Page) Section(ctx context.Context, title string) (text string, ok bool, err error) {
	sections, err := p.Sections(ctx)
	if err != nil {
		return "", false, err
	}
	for _, s := range sections {
		if s.Title == title {
			return strings.TrimSpace(strings.Join(s.Paragraphs, "\n")), true, nil
		}
	}
	return "", false, nil
}

type titleItem struct {
	Title string `json:"title"`
}

// Links returns the titles of wiki pages this page links to.
func (p *Page) Links(ctx context.Context) ([]string, error) {
	return p.links.get(ctx, func(ctx context.Context) ([]string, error) {
		return p.titleList(ctx, url.Values{"prop": {"links"}, "plnamespace": {"0"}, "pllimit": {"max"}})
	})
}

// Categories returns the titles of the categories this page belongs to.
func (p *Page) Categories(ctx context.Context) ([]string, error) {
	return p.categories.get(ctx, func(ctx context.Context) ([]string, error) {
		return p.titleList(ctx, url.Values{"prop": {"categories"}, "cllimit": {"max"}})
	})
}

func (p *Page) titleList(ctx context.Context, params url.Values) ([]string, error) {
	params.Set("pageids", strconv.Itoa(p.PageID))
	items, err := Drain[titleItem](ctx, p.client.newCursor(p.SubWiki, p.Language, params, p.PageID))
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	return titles, nil
}

// details runs a details lookup for this page and returns its entry.
func (p *Page) details(ctx context.Context, extra url.Values) (detailsItem, error) {
	params := url.Values{"ids": {strconv.Itoa(p.PageID)}}
	for k, v := range extra {
		params[k] = v
	}
	raw, err := p.request(ctx, ActionDetails, params)
	if err != nil {
		return detailsItem{}, err
	}
	var resp struct {
		Items map[string]detailsItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return detailsItem{}, fmt.Errorf("decoding details of %q: %w", p.Title, err)
	}
	item, ok := resp.Items[strconv.Itoa(p.PageID)]
	if !ok {
		return detailsItem{}, &PageNotFoundError{Title: p.Title, PageID: p.PageID, SubWiki: p.SubWiki}
	}
	return item, nil
}

func (p *Page) preload(ctx context.Context) error {
	loaders := []func(context.Context) error{
		func(ctx context.Context) error { _, err := p.Content(ctx); return err },
		func(ctx context.Context) error { _, err := p.Summary(ctx); return err },
		func(ctx context.Context) error { _, err := p.Images(ctx); return err },
		func(ctx context.Context) error { _, err := p.RelatedPages(ctx); return err },
		func(ctx context.Context) error { _, err := p.Links(ctx); return err },
	}
	for _, load := range loaders {
		if err := load(ctx); err != nil {
			return err
		}
	}
	return nil
}
