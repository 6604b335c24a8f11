package wikia

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ListItem is one <li> element of a rendered page.
type ListItem struct {
	// Text is the full text content of the item.
	Text string
	// LinkText is the text of the first anchor inside the item.
	LinkText string
	HasLink  bool
	// TableOfContents marks items belonging to the page's table of contents.
	TableOfContents bool
}

// ListItemExtractor pulls list items out of rendered HTML in document order.
type ListItemExtractor interface {
	ExtractListItems(doc string) ([]ListItem, error)
}

// HTMLExtractor implements ListItemExtractor with golang.org/x/net/html.
// Nested lists contribute their items too, each after its parent.
type HTMLExtractor struct{}

// ExtractListItems implements ListItemExtractor.
func (HTMLExtractor) ExtractListItems(doc string) ([]ListItem, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	var items []ListItem
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Li {
			item := ListItem{
				Text:            strings.TrimSpace(textContent(n)),
				TableOfContents: strings.Contains(attr(n, "class"), "tocsection"),
			}
			if a := firstElement(n, atom.A); a != nil {
				item.HasLink = true
				item.LinkText = textContent(a)
			}
			items = append(items, item)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return items, nil
}

// disambiguationOptions keeps the link text of every linked, non-TOC item.
func disambiguationOptions(items []ListItem) []string {
	options := make([]string, 0, len(items))
	for _, item := range items {
		if item.TableOfContents || !item.HasLink {
			continue
		}
		options = append(options, item.LinkText)
	}
	return options
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func firstElement(n *html.Node, tag atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			return c
		}
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
