package wikia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/olgasafonova/wikia-mcp-server/metrics"
	"github.com/olgasafonova/wikia-mcp-server/tracing"
)

// PageRef names a page either by title or by numeric id.
type PageRef struct {
	Title  string
	PageID int
}

// ByTitle refers to a page by its title.
func ByTitle(title string) PageRef { return PageRef{Title: title} }

// ByID refers to a page by its numeric id.
func ByID(id int) PageRef { return PageRef{PageID: id} }

func (r PageRef) validate() error {
	switch {
	case r.Title == "" && r.PageID == 0:
		return &ValidationError{Field: "page", Message: "either a title or a pageid must be specified"}
	case r.Title != "" && r.PageID != 0:
		return &ValidationError{Field: "page", Message: "title and pageid are mutually exclusive"}
	case r.PageID < 0:
		return &ValidationError{Field: "pageid", Message: "must be positive"}
	}
	return nil
}

func (r PageRef) String() string {
	if r.Title != "" {
		return r.Title
	}
	return "#" + strconv.Itoa(r.PageID)
}

type pageOptions struct {
	followRedirects bool
	preload         bool
}

// PageOption tunes Client.Page.
type PageOption func(*pageOptions)

// FollowRedirects controls whether redirects are followed (the default) or
// reported as a RedirectError.
func FollowRedirects(follow bool) PageOption {
	return func(o *pageOptions) { o.followRedirects = follow }
}

// Preload loads every facet before Page returns.
func Preload() PageOption {
	return func(o *pageOptions) { o.preload = true }
}

type resolutionKind int

const (
	kindResolved resolutionKind = iota
	kindMissing
	kindRedirect
	kindDisambiguation
)

func (k resolutionKind) String() string {
	switch k {
	case kindResolved:
		return "resolved"
	case kindMissing:
		return "missing"
	case kindRedirect:
		return "redirect"
	case kindDisambiguation:
		return "disambiguation"
	}
	return "unknown"
}

// resolution is the classified outcome of one details lookup.
type resolution struct {
	kind   resolutionKind
	pageID int
	title  string

	// redirect
	from       string
	target     string
	normalized *titleMapping
}

type titleMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type detailsItem struct {
	ID         int             `json:"id"`
	Title      string          `json:"title"`
	Missing    json.RawMessage `json:"missing"`
	Redirects  []titleMapping  `json:"redirects"`
	Normalized []titleMapping  `json:"normalized"`
	PageProps  json.RawMessage `json:"pageprops"`
	Abstract   string          `json:"abstract"`
	Revision   *struct {
		ID int64 `json:"id"`
	} `json:"revision"`
}

type detailsResponse struct {
	Items    json.RawMessage `json:"items"`
	Basepath string          `json:"basepath"`
}

// Page resolves ref on subWiki. Missing pages, redirects (when not
// followed) and disambiguation pages surface as typed errors; anything
// else yields a fully resolved Page.
func (c *Client) Page(ctx context.Context, subWiki string, ref PageRef, opts ...PageOption) (_ *Page, err error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if subWiki == "" {
		return nil, &ValidationError{Field: "sub_wiki", Message: "must not be empty"}
	}

	o := pageOptions{followRedirects: true}
	for _, opt := range opts {
		opt(&o)
	}

	var chain []string
	ctx, span := tracing.StartResolve(ctx, subWiki, ref.String())
	defer func() {
		tracing.FinishResolve(span, len(chain))
		tracing.RecordError(span, err, ErrorCode(err))
		span.End()
	}()

	cfg := c.Config()
	lang := cfg.Language
	original := ref.Title
	visited := map[string]bool{}
	if ref.Title != "" {
		visited[ref.Title] = true
	}

	for {
		res, err := c.classify(ctx, subWiki, lang, ref)
		if err != nil {
			return nil, err
		}

		switch res.kind {
		case kindMissing:
			metrics.RecordResolution("missing")
			return nil, &PageNotFoundError{Title: ref.Title, PageID: ref.PageID, SubWiki: subWiki}

		case kindRedirect:
			if !o.followRedirects {
				metrics.RecordResolution("redirect")
				return nil, &RedirectError{Title: firstNonEmpty(ref.Title, res.title), Target: res.target, SubWiki: subWiki}
			}
			if ref.Title != "" {
				if err := checkRedirectConsistency(subWiki, ref.Title, res); err != nil {
					return nil, err
				}
			}
			chain = append(chain, res.target)
			if visited[res.target] || len(chain) > cfg.MaxRedirects {
				metrics.RecordResolution("loop")
				return nil, &RedirectLoopError{Title: firstNonEmpty(original, ref.String()), SubWiki: subWiki, Chain: chain}
			}
			visited[res.target] = true
			metrics.RecordRedirect()
			c.logger.Debug("Following redirect", "sub_wiki", subWiki, "from", ref.String(), "to", res.target)
			if original == "" {
				original = ref.String()
			}
			ref = ByTitle(res.target)

		case kindDisambiguation:
			metrics.RecordResolution("disambiguation")
			options, err := c.disambiguationCandidates(ctx, subWiki, lang, res.pageID)
			if err != nil {
				return nil, err
			}
			return nil, &DisambiguationError{Title: firstNonEmpty(ref.Title, res.title), SubWiki: subWiki, Options: options}

		default:
			metrics.RecordResolution("resolved")
			title := strings.ToLower(res.title)
			page := &Page{
				SubWiki:       subWiki,
				PageID:        res.pageID,
				Title:         title,
				OriginalTitle: firstNonEmpty(original, res.title),
				URL:           cfg.pageURL(lang, subWiki, title),
				Language:      lang,
				client:        c,
			}
			if o.preload {
				if err := page.preload(ctx); err != nil {
					return nil, err
				}
			}
			return page, nil
		}
	}
}

// classify issues the details lookup for ref and tags the outcome.
func (c *Client) classify(ctx context.Context, subWiki, lang string, ref PageRef) (resolution, error) {
	params := url.Values{}
	if ref.Title != "" {
		params.Set("titles", ref.Title)
	} else {
		params.Set("ids", strconv.Itoa(ref.PageID))
	}

	raw, err := c.request(ctx, Request{Action: ActionDetails, SubWiki: subWiki, Language: lang, Params: params})
	if err != nil {
		return resolution{}, err
	}

	item, ok := firstDetailsItem(raw)
	if !ok {
		return resolution{}, &PageNotFoundError{Title: ref.Title, PageID: ref.PageID, SubWiki: subWiki}
	}

	res := resolution{pageID: item.ID, title: item.Title}
	switch {
	case item.Missing != nil:
		res.kind = kindMissing
	case len(item.Redirects) > 0:
		res.kind = kindRedirect
		res.from = item.Redirects[0].From
		res.target = item.Redirects[0].To
		if len(item.Normalized) > 0 {
			res.normalized = &item.Normalized[0]
		}
	case item.PageProps != nil:
		res.kind = kindDisambiguation
	default:
		if item.ID == 0 || item.Title == "" {
			return resolution{}, &PageNotFoundError{Title: ref.Title, PageID: ref.PageID, SubWiki: subWiki}
		}
		res.kind = kindResolved
	}
	return res, nil
}

// checkRedirectConsistency verifies that the normalization and redirect
// metadata describe the title that was requested.
func checkRedirectConsistency(subWiki, requested string, res resolution) error {
	from := requested
	if res.normalized != nil {
		if res.normalized.From != requested {
			return &InconsistentResponseError{Requested: requested, Reported: res.normalized.From, SubWiki: subWiki}
		}
		from = res.normalized.To
	}
	if res.from != from {
		return &InconsistentResponseError{Requested: from, Reported: res.from, SubWiki: subWiki}
	}
	return nil
}

type revisionsResponse struct {
	Query *struct {
		Pages map[string]struct {
			Revisions []map[string]json.RawMessage `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// disambiguationCandidates fetches the parsed page HTML and lists the
// titles it links to.
func (c *Client) disambiguationCandidates(ctx context.Context, subWiki, lang string, pageID int) ([]string, error) {
	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvparse", "1")
	params.Set("pageids", strconv.Itoa(pageID))

	raw, err := c.request(ctx, Request{Action: ActionQuery, SubWiki: subWiki, Language: lang, Params: params})
	if err != nil {
		return nil, err
	}

	var resp revisionsResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Query == nil {
		return nil, fmt.Errorf("disambiguation page %d: unexpected revisions response", pageID)
	}
	page, ok := resp.Query.Pages[strconv.Itoa(pageID)]
	if !ok || len(page.Revisions) == 0 {
		return nil, fmt.Errorf("disambiguation page %d: no revision content", pageID)
	}
	doc := rawToString(page.Revisions[0]["*"])

	items, err := c.extractor.ExtractListItems(doc)
	if err != nil {
		return nil, fmt.Errorf("extracting disambiguation list: %w", err)
	}
	return disambiguationOptions(items), nil
}

// firstDetailsItem returns the first entry of a details response's items
// object, in document order.
func firstDetailsItem(raw json.RawMessage) (detailsItem, bool) {
	var resp detailsResponse
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Items) == 0 {
		return detailsItem{}, false
	}
	_, values, err := orderedObject(resp.Items)
	if err != nil || len(values) == 0 {
		return detailsItem{}, false
	}
	var item detailsItem
	if err := json.Unmarshal(values[0], &item); err != nil {
		return detailsItem{}, false
	}
	return item, true
}
