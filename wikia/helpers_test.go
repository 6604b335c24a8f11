package wikia

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	testAPIURL   = "http://{lang}{sub_wiki}.wikia.test/api/v1/{action}"
	testQueryURL = "http://{lang}{sub_wiki}.wikia.test/api.php"
	testPageURL  = "http://{lang}{sub_wiki}.wikia.test/wiki/{page}"
)

// recordedCall is one transport call seen by fakeTransport.
type recordedCall struct {
	URL    string
	Action string
	Params url.Values
	Header http.Header
	At     time.Time
}

type fakeResponse struct {
	Status int
	Body   string
	Err    error
}

func jsonOK(body string) fakeResponse {
	return fakeResponse{Status: http.StatusOK, Body: body}
}

// fakeTransport answers from per-action handlers and records every call.
type fakeTransport struct {
	mu       sync.Mutex
	handlers map[string]func(recordedCall) fakeResponse
	calls    []recordedCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: map[string]func(recordedCall) fakeResponse{}}
}

// on registers a handler for an action ("Articles/Details", "query", "page").
func (f *fakeTransport) on(action string, h func(recordedCall) fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[action] = h
}

// reply registers a fixed body for an action.
func (f *fakeTransport) reply(action, body string) {
	f.on(action, func(recordedCall) fakeResponse { return jsonOK(body) })
}

func (f *fakeTransport) Get(ctx context.Context, rawURL string, params url.Values, header http.Header) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	c := recordedCall{
		URL:    rawURL,
		Action: actionOf(rawURL),
		Params: params,
		Header: header.Clone(),
		At:     time.Now(),
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	h := f.handlers[c.Action]
	f.mu.Unlock()

	if h == nil {
		return http.StatusNotFound, []byte("<html>no handler</html>"), nil
	}
	resp := h(c)
	if resp.Err != nil {
		return 0, nil, resp.Err
	}
	return resp.Status, []byte(resp.Body), nil
}

func (f *fakeTransport) callsFor(action string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func actionOf(rawURL string) string {
	if i := strings.Index(rawURL, "/api/v1/"); i >= 0 {
		return rawURL[i+len("/api/v1/"):]
	}
	if strings.HasSuffix(rawURL, "/api.php") {
		return ActionQuery
	}
	return "page"
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.APIURL = testAPIURL
	cfg.QueryURL = testQueryURL
	cfg.PageURL = testPageURL
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	return NewClient(testConfig(), testLogger(), WithTransport(ft)), ft
}

// byTitle dispatches details lookups on the requested id ("#123") or,
// when no id is given, the title.
func byTitle(bodies map[string]string) func(recordedCall) fakeResponse {
	return func(c recordedCall) fakeResponse {
		key := c.Params.Get("titles")
		if id := c.Params.Get("ids"); id != "" {
			key = "#" + id
		}
		if body, ok := bodies[key]; ok {
			return jsonOK(body)
		}
		return jsonOK(`{"items":{}}`)
	}
}

// byProp dispatches api.php queries on their prop (or list/meta) parameter.
func byProp(handlers map[string]func(recordedCall) fakeResponse) func(recordedCall) fakeResponse {
	return func(c recordedCall) fakeResponse {
		key := firstNonEmpty(c.Params.Get("prop"), c.Params.Get("list"), c.Params.Get("meta"))
		if c.Params.Get("generator") != "" {
			key = "generator"
		}
		if h, ok := handlers[key]; ok {
			return h(c)
		}
		return jsonOK(`{}`)
	}
}

const (
	yodaDetails = `{"items":{"123":{"id":123,"title":"Yoda","ns":0,"url":"/wiki/Yoda",` +
		`"abstract":"Yoda was a legendary Jedi Master.","revision":{"id":999,"user":"Jedi","timestamp":"1400000000"}}},` +
		`"basepath":"http://starwars.wikia.com"}`

	yodaSimpleJSON = `{"sections":[
		{"title":"Yoda","level":1,"content":[
			{"type":"paragraph","text":"Yoda was a legendary Jedi Master."},
			{"type":"list","elements":[{"text":"not a paragraph","elements":[]}]},
			{"type":"paragraph","text":"He trained Jedi for 800 years."}],
		 "images":[{"src":"http://img.test/yoda.png","caption":""},{"src":"http://img.test/yoda2.png"}]},
		{"title":"Biography","level":2,"content":[
			{"type":"paragraph","text":"Early life unknown."}],"images":[]},
		{"title":"Early years","level":3,"content":[
			{"type":"paragraph","text":"Trained by N'Kata."}],
		 "images":[{"src":"http://img.test/early.png"}]}]}`

	yodaRelated = `{"items":{"123":[{"url":"/wiki/Dagobah","title":"Dagobah"},{"url":"/wiki/Luke_Skywalker","title":"Luke Skywalker"}]},` +
		`"basepath":"http://starwars.wikia.com"}`

	yodaCategories = `{"query":{"pages":{"123":{"pageid":123,"title":"Yoda","categories":[{"ns":14,"title":"Category:Jedi Masters"}]}}}}`
)

// yodaLinks answers a two-batch link listing.
func yodaLinks(c recordedCall) fakeResponse {
	if c.Params.Get("plcontinue") == "" {
		return jsonOK(`{"continue":{"plcontinue":"123|0|Luke","continue":"||"},` +
			`"query":{"pages":{"123":{"pageid":123,"title":"Yoda","links":[{"ns":0,"title":"Dagobah"},{"ns":0,"title":"Jedi"}]}}}}`)
	}
	return jsonOK(`{"query":{"pages":{"123":{"pageid":123,"title":"Yoda","links":[{"ns":0,"title":"Luke Skywalker"}]}}}}`)
}

// serveYoda registers every endpoint needed to resolve and load the Yoda page.
func serveYoda(ft *fakeTransport) {
	ft.on(ActionDetails, byTitle(map[string]string{"Yoda": yodaDetails, "#123": yodaDetails}))
	ft.reply(ActionSimpleJSON, yodaSimpleJSON)
	ft.reply(ActionRelatedPages, yodaRelated)
	ft.on(ActionQuery, byProp(map[string]func(recordedCall) fakeResponse{
		"links":      yodaLinks,
		"categories": func(recordedCall) fakeResponse { return jsonOK(yodaCategories) },
	}))
	ft.reply("page", "<html><body>Yoda</body></html>")
}
