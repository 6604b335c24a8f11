package wikia

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/olgasafonova/wikia-mcp-server/tracing"
)

const (
	masterYodaRedirect = `{"items":{"123":{"id":123,"title":"Yoda","redirects":[{"from":"Master Yoda","to":"Yoda"}]}}}`
	mercuryDisambig    = `{"items":{"77":{"id":77,"title":"Mercury","pageprops":{"disambiguation":""}}}}`
	mercuryRevisions   = `{"query":{"pages":{"77":{"pageid":77,"title":"Mercury","revisions":[{"*":` +
		`"<div id=\"toc\"><ul><li class=\"toclevel-1 tocsection-1\"><a href=\"#Planets\">Planets</a></li></ul></div>` +
		`<ul><li><a href=\"/wiki/Mercury_(planet)\">Mercury (planet)</a>, the closest planet</li>` +
		`<li>Mercury, a figure with no article</li>` +
		`<li><a href=\"/wiki/Freddie_Mercury\">Freddie Mercury</a></li></ul>"}]}}}}`
)

func TestPage_MissingTitle(t *testing.T) {
	client, ft := newTestClient(t)
	ft.reply(ActionDetails, `{"items":{"-1":{"title":"Darth Jar Jar","missing":""}}}`)

	_, err := client.Page(context.Background(), "starwars", ByTitle("Darth Jar Jar"))

	var notFound *PageNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Darth Jar Jar", notFound.Title)
	assert.Equal(t, "starwars", notFound.SubWiki)
	assert.Contains(t, err.Error(), "Darth Jar Jar")
}

func TestPage_MissingID(t *testing.T) {
	client, ft := newTestClient(t)
	ft.reply(ActionDetails, `{"items":{"4040":{"id":4040,"missing":true}}}`)

	_, err := client.Page(context.Background(), "starwars", ByID(4040))

	var notFound *PageNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 4040, notFound.PageID)
	assert.Empty(t, notFound.Title)
}

func TestPage_UnexpectedShapeIsNotFound(t *testing.T) {
	bodies := []string{
		`{"basepath":"http://starwars.wikia.com"}`,
		`{"items":[]}`,
		`{"items":{}}`,
		`{"items":{"1":{"ns":0}}}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			client, ft := newTestClient(t)
			ft.reply(ActionDetails, body)

			_, err := client.Page(context.Background(), "starwars", ByTitle("Yoda"))
			assert.True(t, IsNotFound(err), "got %v", err)
		})
	}
}

func TestPage_Resolved(t *testing.T) {
	client, ft := newTestClient(t)
	serveYoda(ft)

	page, err := client.Page(context.Background(), "starwars", ByTitle("Yoda"))
	require.NoError(t, err)

	assert.Equal(t, 123, page.PageID)
	assert.Equal(t, "yoda", page.Title)
	assert.Equal(t, "Yoda", page.OriginalTitle)
	assert.Equal(t, "starwars", page.SubWiki)
	assert.Equal(t, "http://starwars.wikia.test/wiki/yoda", page.URL)
	assert.Equal(t, 1, ft.count())
	assert.Equal(t, "Yoda", ft.callsFor(ActionDetails)[0].Params.Get("titles"))
}

func TestPage_ResolvedByID(t *testing.T) {
	client, ft := newTestClient(t)
	serveYoda(ft)

	page, err := client.Page(context.Background(), "starwars", ByID(123))
	require.NoError(t, err)
	assert.Equal(t, "yoda", page.Title)
	assert.Equal(t, "123", ft.callsFor(ActionDetails)[0].Params.Get("ids"))
	assert.Empty(t, ft.callsFor(ActionDetails)[0].Params.Get("titles"))
}

func TestPage_URLUsesUnderscores(t *testing.T) {
	client, ft := newTestClient(t)
	ft.reply(ActionDetails, `{"items":{"9":{"id":9,"title":"Luke Skywalker"}}}`)

	page, err := client.Page(context.Background(), "starwars", ByTitle("Luke Skywalker"))
	require.NoError(t, err)
	assert.Equal(t, "luke skywalker", page.Title)
	assert.Equal(t, "http://starwars.wikia.test/wiki/luke_skywalker", page.URL)
}

func TestPage_RedirectNotFollowed(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{"Master Yoda": masterYodaRedirect}))

	_, err := client.Page(context.Background(), "starwars", ByTitle("Master Yoda"), FollowRedirects(false))

	var redirect *RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "Master Yoda", redirect.Title)
	assert.Equal(t, "Yoda", redirect.Target)
	assert.Equal(t, 1, ft.count())
}

func TestPage_RedirectFollowed(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{
		"Master Yoda": masterYodaRedirect,
		"Yoda":        yodaDetails,
	}))

	page, err := client.Page(context.Background(), "starwars", ByTitle("Master Yoda"))
	require.NoError(t, err)
	assert.Equal(t, "yoda", page.Title)
	assert.Equal(t, "Master Yoda", page.OriginalTitle)
	assert.Equal(t, 123, page.PageID)

	calls := ft.callsFor(ActionDetails)
	require.Len(t, calls, 2)
	assert.Equal(t, "Yoda", calls[1].Params.Get("titles"))
}

func TestPage_RedirectFollowedWithZeroValueConfig(t *testing.T) {
	ft := newFakeTransport()
	client := NewClient(Config{APIURL: testAPIURL, QueryURL: testQueryURL, PageURL: testPageURL}, testLogger(), WithTransport(ft))
	ft.on(ActionDetails, byTitle(map[string]string{
		"Master Yoda": masterYodaRedirect,
		"Yoda":        yodaDetails,
	}))

	page, err := client.Page(context.Background(), "starwars", ByTitle("Master Yoda"))
	require.NoError(t, err)
	assert.Equal(t, 123, page.PageID)
	assert.Equal(t, "Master Yoda", page.OriginalTitle)
	assert.Equal(t, 2, ft.count())
}

func TestPage_RedirectSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{
		"Master Yoda": masterYodaRedirect,
		"Yoda":        yodaDetails,
	}))

	_, err := client.Page(context.Background(), "starwars", ByTitle("Master Yoda"))
	require.NoError(t, err)

	var requests, resolves []sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		switch s.Name() {
		case tracing.SpanRequest:
			requests = append(requests, s)
		case tracing.SpanResolve:
			resolves = append(resolves, s)
		}
	}
	require.Len(t, requests, 2)
	require.Len(t, resolves, 1)
	for _, r := range requests {
		assert.Equal(t, resolves[0].SpanContext().SpanID(), r.Parent().SpanID())
	}
	for _, kv := range resolves[0].Attributes() {
		if kv.Key == tracing.AttrHops {
			assert.Equal(t, int64(1), kv.Value.AsInt64())
		}
	}
}

func TestPage_SetMaxRedirects(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{
		"A": `{"items":{"1":{"id":1,"title":"B","redirects":[{"from":"A","to":"B"}]}}}`,
		"B": `{"items":{"2":{"id":2,"title":"C","redirects":[{"from":"B","to":"C"}]}}}`,
		"C": `{"items":{"3":{"id":3,"title":"C"}}}`,
	}))
	ctx := context.Background()

	client.SetMaxRedirects(1)
	_, err := client.Page(ctx, "starwars", ByTitle("A"))
	var loop *RedirectLoopError
	require.ErrorAs(t, err, &loop)

	client.SetMaxRedirects(0)
	assert.Equal(t, DefaultMaxRedirects, client.Config().MaxRedirects)
	page, err := client.Page(ctx, "starwars", ByTitle("A"))
	require.NoError(t, err)
	assert.Equal(t, 3, page.PageID)
}

func TestPage_RedirectWithNormalization(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{
		"master_yoda": `{"items":{"123":{"id":123,"title":"Yoda",` +
			`"normalized":[{"from":"master_yoda","to":"Master yoda"}],` +
			`"redirects":[{"from":"Master yoda","to":"Yoda"}]}}}`,
		"Yoda": yodaDetails,
	}))

	page, err := client.Page(context.Background(), "starwars", ByTitle("master_yoda"))
	require.NoError(t, err)
	assert.Equal(t, "yoda", page.Title)
}

func TestPage_RedirectInconsistentMetadata(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		body      string
	}{
		{
			name:      "normalization names another title",
			requested: "master_yoda",
			body: `{"items":{"1":{"id":1,"title":"Yoda","normalized":[{"from":"someone_else","to":"Someone else"}],` +
				`"redirects":[{"from":"Someone else","to":"Yoda"}]}}}`,
		},
		{
			name:      "redirect source differs from request",
			requested: "Master Yoda",
			body: `{"items":{"1":{"id":1,"title":"Yoda","redirects":[{"from":"Grand Master Yoda","to":"Yoda"}]}}}`,
		},
		{
			name:      "redirect source differs from normalized title",
			requested: "master_yoda",
			body: `{"items":{"1":{"id":1,"title":"Yoda","normalized":[{"from":"master_yoda","to":"Master yoda"}],` +
				`"redirects":[{"from":"Master Yoda","to":"Yoda"}]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, ft := newTestClient(t)
			ft.reply(ActionDetails, tt.body)

			_, err := client.Page(context.Background(), "starwars", ByTitle(tt.requested))

			var inconsistent *InconsistentResponseError
			require.ErrorAs(t, err, &inconsistent)
			assert.Equal(t, "starwars", inconsistent.SubWiki)
			assert.Equal(t, 1, ft.count())
		})
	}
}

func TestPage_RedirectByIDSkipsConsistencyCheck(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{
		"#55":  `{"items":{"55":{"id":55,"title":"Yoda","redirects":[{"from":"Master Yoda","to":"Yoda"}]}}}`,
		"Yoda": yodaDetails,
	}))

	page, err := client.Page(context.Background(), "starwars", ByID(55))
	require.NoError(t, err)
	assert.Equal(t, 123, page.PageID)
	assert.Equal(t, "#55", page.OriginalTitle)
}

func TestPage_RedirectLoop(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{
		"A": `{"items":{"1":{"id":1,"title":"B","redirects":[{"from":"A","to":"B"}]}}}`,
		"B": `{"items":{"2":{"id":2,"title":"A","redirects":[{"from":"B","to":"A"}]}}}`,
	}))

	_, err := client.Page(context.Background(), "starwars", ByTitle("A"))

	var loop *RedirectLoopError
	require.ErrorAs(t, err, &loop)
	assert.Equal(t, "A", loop.Title)
	assert.Equal(t, "starwars", loop.SubWiki)
	assert.Equal(t, []string{"B", "A"}, loop.Chain)
	assert.Equal(t, 2, ft.count())
}

func TestPage_RedirectHopBound(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRedirects = 2
	ft := newFakeTransport()
	client := NewClient(cfg, testLogger(), WithTransport(ft))
	ft.on(ActionDetails, byTitle(map[string]string{
		"A": `{"items":{"1":{"id":1,"title":"B","redirects":[{"from":"A","to":"B"}]}}}`,
		"B": `{"items":{"2":{"id":2,"title":"C","redirects":[{"from":"B","to":"C"}]}}}`,
		"C": `{"items":{"3":{"id":3,"title":"D","redirects":[{"from":"C","to":"D"}]}}}`,
		"D": `{"items":{"4":{"id":4,"title":"D"}}}`,
	}))

	_, err := client.Page(context.Background(), "starwars", ByTitle("A"))

	var loop *RedirectLoopError
	require.ErrorAs(t, err, &loop)
	assert.Equal(t, []string{"B", "C", "D"}, loop.Chain)
	assert.Equal(t, 3, ft.count())
}

func TestPage_Disambiguation(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{"Mercury": mercuryDisambig}))
	ft.reply(ActionQuery, mercuryRevisions)

	_, err := client.Page(context.Background(), "starwars", ByTitle("Mercury"))

	var disambig *DisambiguationError
	require.ErrorAs(t, err, &disambig)
	assert.Equal(t, "Mercury", disambig.Title)
	assert.Equal(t, []string{"Mercury (planet)", "Freddie Mercury"}, disambig.Options)

	calls := ft.callsFor(ActionQuery)
	require.Len(t, calls, 1)
	assert.Equal(t, "77", calls[0].Params.Get("pageids"))
	assert.Equal(t, "revisions", calls[0].Params.Get("prop"))
	assert.Equal(t, "content", calls[0].Params.Get("rvprop"))
	assert.Equal(t, "1", calls[0].Params.Get("rvparse"))
}

func TestPage_DisambiguationWithoutRevision(t *testing.T) {
	client, ft := newTestClient(t)
	ft.on(ActionDetails, byTitle(map[string]string{"Mercury": mercuryDisambig}))
	ft.reply(ActionQuery, `{"query":{"pages":{"77":{"pageid":77,"revisions":[]}}}}`)

	_, err := client.Page(context.Background(), "starwars", ByTitle("Mercury"))
	require.Error(t, err)
	assert.False(t, IsDisambiguation(err))
}

type stubExtractor struct {
	items []ListItem
}

func (s stubExtractor) ExtractListItems(string) ([]ListItem, error) {
	return s.items, nil
}

func TestPage_DisambiguationUsesInjectedExtractor(t *testing.T) {
	ft := newFakeTransport()
	client := NewClient(testConfig(), testLogger(), WithTransport(ft), WithExtractor(stubExtractor{items: []ListItem{
		{Text: "Contents", LinkText: "Contents", HasLink: true, TableOfContents: true},
		{Text: "Alpha", LinkText: "Alpha", HasLink: true},
		{Text: "Beta, no link"},
		{Text: "Gamma thing", LinkText: "Gamma", HasLink: true},
	}}))
	ft.on(ActionDetails, byTitle(map[string]string{"Mercury": mercuryDisambig}))
	ft.reply(ActionQuery, mercuryRevisions)

	_, err := client.Page(context.Background(), "starwars", ByTitle("Mercury"))

	var disambig *DisambiguationError
	require.ErrorAs(t, err, &disambig)
	assert.Equal(t, []string{"Alpha", "Gamma"}, disambig.Options)
}

func TestPage_Validation(t *testing.T) {
	client, ft := newTestClient(t)

	tests := []struct {
		name    string
		subWiki string
		ref     PageRef
	}{
		{"neither title nor id", "starwars", PageRef{}},
		{"both title and id", "starwars", PageRef{Title: "Yoda", PageID: 123}},
		{"negative id", "starwars", PageRef{PageID: -1}},
		{"no sub-wiki", "", ByTitle("Yoda")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Page(context.Background(), tt.subWiki, tt.ref)
			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid)
		})
	}
	assert.Zero(t, ft.count())
}

func TestPage_UsesActiveLanguage(t *testing.T) {
	client, ft := newTestClient(t)
	serveYoda(ft)
	client.SetLanguage("DE")

	page, err := client.Page(context.Background(), "starwars", ByTitle("Yoda"))
	require.NoError(t, err)
	assert.Equal(t, "de", page.Language)
	assert.Equal(t, "http://de.starwars.wikia.test/wiki/yoda", page.URL)
	assert.Equal(t, "http://de.starwars.wikia.test/api/v1/Articles/Details", ft.callsFor(ActionDetails)[0].URL)
}

func TestPage_Preload(t *testing.T) {
	client, ft := newTestClient(t)
	serveYoda(ft)
	ctx := context.Background()

	page, err := client.Page(ctx, "starwars", ByTitle("Yoda"), Preload())
	require.NoError(t, err)
	before := ft.count()
	assert.Len(t, ft.callsFor(ActionSimpleJSON), 1)
	assert.Len(t, ft.callsFor(ActionRelatedPages), 1)

	content, err := page.Content(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, content)
	_, err = page.Summary(ctx)
	require.NoError(t, err)
	_, err = page.Images(ctx)
	require.NoError(t, err)
	_, err = page.RelatedPages(ctx)
	require.NoError(t, err)
	_, err = page.Links(ctx)
	require.NoError(t, err)

	assert.Equal(t, before, ft.count())
}

func TestPageRef_String(t *testing.T) {
	assert.Equal(t, "Yoda", ByTitle("Yoda").String())
	assert.Equal(t, "#42", ByID(42).String())
}
