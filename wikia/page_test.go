package wikia

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yodaPage(t *testing.T) (*Page, *fakeTransport) {
	t.Helper()
	client, ft := newTestClient(t)
	serveYoda(ft)
	page, err := client.Page(context.Background(), "starwars", ByTitle("Yoda"))
	require.NoError(t, err)
	return page, ft
}

func TestPage_Content(t *testing.T) {
	page, ft := yodaPage(t)
	ctx := context.Background()

	content, err := page.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Yoda was a legendary Jedi Master.\n"+
		"He trained Jedi for 800 years.\n"+
		"Early life unknown.\n"+
		"Trained by N'Kata.", content)

	rev, err := page.RevisionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(999), rev)

	simple := ft.callsFor(ActionSimpleJSON)
	require.Len(t, simple, 1)
	assert.Equal(t, "123", simple[0].Params.Get("id"))

	// A second read is served from the page.
	before := ft.count()
	_, err = page.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, ft.count())
}

func TestPage_RevisionIDLoadsContent(t *testing.T) {
	page, ft := yodaPage(t)

	rev, err := page.RevisionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(999), rev)
	assert.Len(t, ft.callsFor(ActionSimpleJSON), 1)
}

func TestPage_Summary(t *testing.T) {
	page, ft := yodaPage(t)

	summary, err := page.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Yoda was a legendary Jedi Master.", summary)

	calls := ft.callsFor(ActionDetails)
	last := calls[len(calls)-1]
	assert.Equal(t, strconv.Itoa(DefaultSummaryChars), last.Params.Get("abstract"))
	assert.Equal(t, "123", last.Params.Get("ids"))
}

func TestPage_SummaryMatchesClientDefault(t *testing.T) {
	client, ft := newTestClient(t)
	serveYoda(ft)
	ctx := context.Background()

	_, err := client.Summary(ctx, "starwars", "Yoda", 0, true)
	require.NoError(t, err)
	page, err := client.Page(ctx, "starwars", ByTitle("Yoda"))
	require.NoError(t, err)
	_, err = page.Summary(ctx)
	require.NoError(t, err)

	var abstracts []string
	for _, c := range ft.callsFor(ActionDetails) {
		if a := c.Params.Get("abstract"); a != "" {
			abstracts = append(abstracts, a)
		}
	}
	assert.Equal(t, []string{"500", "500"}, abstracts)
}

func TestPage_Images(t *testing.T) {
	page, ft := yodaPage(t)

	images, err := page.Images(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"http://img.test/yoda.png", "http://img.test/early.png"}, images)

	_, err = page.Content(context.Background())
	require.NoError(t, err)
	assert.Len(t, ft.callsFor(ActionSimpleJSON), 1)
}

func TestPage_RelatedPages(t *testing.T) {
	page, ft := yodaPage(t)

	urls, err := page.RelatedPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://starwars.wikia.com/wiki/Dagobah",
		"http://starwars.wikia.com/wiki/Luke_Skywalker",
	}, urls)

	calls := ft.callsFor(ActionRelatedPages)
	require.Len(t, calls, 1)
	assert.Equal(t, "123", calls[0].Params.Get("ids"))
	assert.Equal(t, "10", calls[0].Params.Get("limit"))
}

func TestPage_RelatedPagesEmpty(t *testing.T) {
	page, ft := yodaPage(t)
	ft.reply(ActionRelatedPages, `{"items":{},"basepath":"http://starwars.wikia.com"}`)

	urls, err := page.RelatedPages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestPage_Sections(t *testing.T) {
	page, _ := yodaPage(t)

	titles, err := page.SectionTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Yoda", "Biography", "Early years"}, titles)

	sections, err := page.Sections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, []string{"Yoda was a legendary Jedi Master.", "He trained Jedi for 800 years."}, sections[0].Paragraphs)
	assert.Equal(t, []string{"http://img.test/yoda.png", "http://img.test/yoda2.png"}, sections[0].Images)
}

func TestPage_Section(t *testing.T) {
	page, _ := yodaPage(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		section   string
		wantText  string
		wantFound bool
	}{
		{"first section", "Yoda", "Yoda was a legendary Jedi Master.\nHe trained Jedi for 800 years.", true},
		{"subsections excluded", "Biography", "Early life unknown.", true},
		{"nested section", "Early years", "Trained by N'Kata.", true},
		{"unknown section", "Legacy", "", false},
		{"case sensitive", "biography", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, found, err := page.Section(ctx, tt.section)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestPage_Links(t *testing.T) {
	page, ft := yodaPage(t)

	links, err := page.Links(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dagobah", "Jedi", "Luke Skywalker"}, links)

	calls := ft.callsFor(ActionQuery)
	require.Len(t, calls, 2)
	assert.Equal(t, "123", calls[0].Params.Get("pageids"))
	assert.Equal(t, "0", calls[0].Params.Get("plnamespace"))
	assert.Empty(t, calls[0].Params.Get("plcontinue"))
	assert.Equal(t, "123|0|Luke", calls[1].Params.Get("plcontinue"))
}

func TestPage_Categories(t *testing.T) {
	page, ft := yodaPage(t)

	cats, err := page.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:Jedi Masters"}, cats)
	assert.Len(t, ft.callsFor(ActionQuery), 1)
}

func TestPage_HTML(t *testing.T) {
	page, ft := yodaPage(t)

	body, err := page.HTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<html><body>Yoda</body></html>", body)

	calls := ft.callsFor("page")
	require.Len(t, calls, 1)
	assert.Equal(t, "http://starwars.wikia.test/wiki/yoda", calls[0].URL)
}

func TestPage_HTMLErrorStatus(t *testing.T) {
	page, ft := yodaPage(t)
	ft.on("page", func(recordedCall) fakeResponse {
		return fakeResponse{Status: http.StatusNotFound, Body: "gone"}
	})

	_, err := page.HTML(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestPage_FacetErrorsAreRetried(t *testing.T) {
	page, ft := yodaPage(t)
	attempts := 0
	ft.on(ActionSimpleJSON, func(recordedCall) fakeResponse {
		attempts++
		if attempts == 1 {
			return fakeResponse{Status: http.StatusBadGateway, Body: "<html>oops</html>"}
		}
		return jsonOK(yodaSimpleJSON)
	})
	ctx := context.Background()

	_, err := page.Sections(ctx)
	assert.True(t, IsMalformed(err))

	titles, err := page.SectionTitles(ctx)
	require.NoError(t, err)
	assert.Len(t, titles, 3)
	assert.Len(t, ft.callsFor(ActionSimpleJSON), 2)
}

func TestPage_KeepsLanguageOfResolution(t *testing.T) {
	page, ft := yodaPage(t)
	page.client.SetLanguage("fr")

	_, err := page.Sections(context.Background())
	require.NoError(t, err)

	calls := ft.callsFor(ActionSimpleJSON)
	require.Len(t, calls, 1)
	assert.Equal(t, "http://starwars.wikia.test/api/v1/Articles/AsSimpleJson", calls[0].URL)
}

func TestPage_Equal(t *testing.T) {
	a := &Page{PageID: 1, Title: "yoda", URL: "http://starwars.wikia.test/wiki/yoda"}
	b := &Page{PageID: 1, Title: "yoda", URL: "http://starwars.wikia.test/wiki/yoda", OriginalTitle: "Master Yoda"}
	c := &Page{PageID: 2, Title: "yoda", URL: "http://starwars.wikia.test/wiki/yoda"}
	d := &Page{PageID: 1, Title: "yoda", URL: "http://de.starwars.wikia.test/wiki/yoda"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))
	assert.True(t, (*Page)(nil).Equal(nil))
}

func TestPage_String(t *testing.T) {
	assert.Equal(t, `<WikiaPage "yoda">`, (&Page{Title: "yoda"}).String())
}
