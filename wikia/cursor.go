package wikia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Cursor walks a paginated MediaWiki query, fetching one batch at a time
// and following the "continue" token until the server stops sending one.
// A Cursor is single-use and not safe for concurrent use.
//
//	cur := client.ListPages("starwars", "Yo", 50)
//	for cur.Next(ctx) {
//		item := cur.Item()
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor struct {
	client   *Client
	subWiki  string
	language string
	params   url.Values

	// In generator mode every entry of query.pages is an item; otherwise
	// the items are query.pages[pageID][prop].
	generator bool
	pageID    string
	prop      string

	cont  map[string]string
	batch []json.RawMessage
	pos   int
	item  json.RawMessage
	done  bool
	err   error
	calls int
}

func (c *Client) newCursor(subWiki, language string, params url.Values, pageID int) *Cursor {
	cur := &Cursor{
		client:    c,
		subWiki:   subWiki,
		language:  language,
		params:    params,
		generator: params.Get("generator") != "",
		prop:      params.Get("prop"),
	}
	if pageID > 0 {
		cur.pageID = strconv.Itoa(pageID)
	}
	return cur
}

// Next advances to the next item, fetching another batch when needed. It
// returns false when the query is exhausted or a request failed.
func (cur *Cursor) Next(ctx context.Context) bool {
	for {
		if cur.pos < len(cur.batch) {
			cur.item = cur.batch[cur.pos]
			cur.pos++
			return true
		}
		if cur.done || cur.err != nil {
			cur.item = nil
			return false
		}
		cur.fetch(ctx)
	}
}

// Item returns the current item as raw JSON.
func (cur *Cursor) Item() json.RawMessage {
	return cur.item
}

// Err returns the first error encountered.
func (cur *Cursor) Err() error {
	return cur.err
}

// Requests returns how many batches have been fetched.
func (cur *Cursor) Requests() int {
	return cur.calls
}

type queryBatch struct {
	Query *struct {
		Pages json.RawMessage `json:"pages"`
	} `json:"query"`
	Continue map[string]json.RawMessage `json:"continue"`
}

func (cur *Cursor) fetch(ctx context.Context) {
	params := url.Values{}
	for k, v := range cur.params {
		params[k] = append([]string(nil), v...)
	}
	for k, v := range cur.cont {
		params.Set(k, v)
	}

	cur.calls++
	raw, err := cur.client.request(ctx, Request{
		Action:   ActionQuery,
		SubWiki:  cur.subWiki,
		Language: cur.language,
		Params:   params,
	})
	if err != nil {
		cur.err = err
		return
	}

	var resp queryBatch
	if err := json.Unmarshal(raw, &resp); err != nil {
		cur.err = fmt.Errorf("decoding query batch: %w", err)
		return
	}
	if resp.Query == nil {
		cur.done = true
		return
	}

	batch, err := cur.extract(resp.Query.Pages)
	if err != nil {
		cur.err = err
		return
	}
	cur.batch = batch
	cur.pos = 0

	if resp.Continue == nil {
		cur.done = true
		return
	}
	cur.cont = make(map[string]string, len(resp.Continue))
	for k, v := range resp.Continue {
		cur.cont[k] = rawToString(v)
	}
}

func (cur *Cursor) extract(pages json.RawMessage) ([]json.RawMessage, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	keys, values, err := orderedObject(pages)
	if err != nil {
		return nil, fmt.Errorf("decoding query pages: %w", err)
	}
	if cur.generator {
		return values, nil
	}

	for i, k := range keys {
		if cur.pageID != "" && k != cur.pageID {
			continue
		}
		var page map[string]json.RawMessage
		if err := json.Unmarshal(values[i], &page); err != nil {
			return nil, fmt.Errorf("decoding page %s: %w", k, err)
		}
		list, ok := page[cur.prop]
		if !ok {
			return nil, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(list, &items); err != nil {
			return nil, fmt.Errorf("decoding %s of page %s: %w", cur.prop, k, err)
		}
		return items, nil
	}
	return nil, nil
}

// Drain consumes the cursor and decodes every item into T.
func Drain[T any](ctx context.Context, cur *Cursor) ([]T, error) {
	var out []T
	for cur.Next(ctx) {
		var v T
		if err := json.Unmarshal(cur.Item(), &v); err != nil {
			return out, fmt.Errorf("decoding cursor item: %w", err)
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

// orderedObject splits a JSON object into its keys and values, keeping
// document order.
func orderedObject(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	var values []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	return keys, values, nil
}
