package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/wikia-mcp-server/wikia"
)

var (
	searchLimit  int
	summaryChars int
	noRedirect   bool
	randomCount  int
	listPrefix   string
	listLimit    int
	pageByID     bool
	pageFacets   struct {
		content, images, related, links, categories bool
	}
)

// pageView is the printed form of a resolved page.
type pageView struct {
	PageID        int      `json:"page_id" yaml:"page_id"`
	Title         string   `json:"title" yaml:"title"`
	OriginalTitle string   `json:"original_title,omitempty" yaml:"original_title,omitempty"`
	URL           string   `json:"url" yaml:"url"`
	Language      string   `json:"language,omitempty" yaml:"language,omitempty"`
	Sections      []string `json:"sections" yaml:"sections"`
	RevisionID    int64    `json:"revision_id,omitempty" yaml:"revision_id,omitempty"`
	Content       string   `json:"content,omitempty" yaml:"content,omitempty"`
	Images        []string `json:"images,omitempty" yaml:"images,omitempty"`
	RelatedPages  []string `json:"related_pages,omitempty" yaml:"related_pages,omitempty"`
	Links         []string `json:"links,omitempty" yaml:"links,omitempty"`
	Categories    []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// listedPage is one row of the list command.
type listedPage struct {
	PageID int    `json:"page_id" yaml:"page_id"`
	Title  string `json:"title" yaml:"title"`
}

var searchCmd = &cobra.Command{
	Use:   "search <sub_wiki> <query>",
	Short: "Search a sub-wiki for page titles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		titles, err := client.Search(cmd.Context(), args[0], args[1], searchLimit)
		if err != nil {
			return err
		}
		return render(cmd, titles)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <sub_wiki> <title>",
	Short: "Print the plain text abstract of a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		summary, err := client.Summary(cmd.Context(), args[0], args[1], summaryChars, !noRedirect)
		if err != nil {
			return err
		}
		return render(cmd, map[string]string{"title": args[1], "summary": summary})
	},
}

var pageCmd = &cobra.Command{
	Use:   "page <sub_wiki> <title|id>",
	Short: "Resolve a page and print the requested facets",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		ref, err := pageRef(args[1])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		page, err := client.Page(ctx, args[0], ref, wikia.FollowRedirects(!noRedirect))
		if err != nil {
			return err
		}

		view := pageView{
			PageID:        page.PageID,
			Title:         page.Title,
			OriginalTitle: page.OriginalTitle,
			URL:           page.URL,
			Language:      page.Language,
		}
		if view.Sections, err = page.SectionTitles(ctx); err != nil {
			return err
		}
		if pageFacets.content {
			if view.Content, err = page.Content(ctx); err != nil {
				return err
			}
			if view.RevisionID, err = page.RevisionID(ctx); err != nil {
				return err
			}
		}
		if pageFacets.images {
			if view.Images, err = page.Images(ctx); err != nil {
				return err
			}
		}
		if pageFacets.related {
			if view.RelatedPages, err = page.RelatedPages(ctx); err != nil {
				return err
			}
		}
		if pageFacets.links {
			if view.Links, err = page.Links(ctx); err != nil {
				return err
			}
		}
		if pageFacets.categories {
			if view.Categories, err = page.Categories(ctx); err != nil {
				return err
			}
		}
		return render(cmd, view)
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section <sub_wiki> <title> <section>",
	Short: "Print the text of one section of a page",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		page, err := client.Page(ctx, args[0], wikia.ByTitle(args[1]), wikia.FollowRedirects(!noRedirect))
		if err != nil {
			return err
		}
		text, ok, err := page.Section(ctx, args[2])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("page %q has no section %q", page.Title, args[2])
		}
		return render(cmd, map[string]string{"title": page.Title, "section": args[2], "text": text})
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages <sub_wiki>",
	Short: "List the language prefixes a sub-wiki supports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		langs, err := client.Languages(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, langs)
	},
}

var randomCmd = &cobra.Command{
	Use:   "random <sub_wiki>",
	Short: "Print random article titles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		titles, err := client.Random(cmd.Context(), args[0], randomCount)
		if err != nil {
			return err
		}
		return render(cmd, titles)
	},
}

var listCmd = &cobra.Command{
	Use:   "list <sub_wiki>",
	Short: "List articles alphabetically, following continuation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		batch := listLimit
		if batch <= 0 || batch > 500 {
			batch = 500
		}
		cur := client.ListPages(args[0], listPrefix, batch)

		pages := []listedPage{}
		for (listLimit <= 0 || len(pages) < listLimit) && cur.Next(ctx) {
			var info wikia.PageInfo
			if err := json.Unmarshal(cur.Item(), &info); err != nil {
				return fmt.Errorf("decoding page listing: %w", err)
			}
			pages = append(pages, listedPage{PageID: info.PageID, Title: info.Title})
		}
		if err := cur.Err(); err != nil {
			return err
		}
		return render(cmd, pages)
	},
}

// pageRef treats a numeric argument as a page id when --id is set.
func pageRef(arg string) (wikia.PageRef, error) {
	if !pageByID {
		return wikia.ByTitle(arg), nil
	}
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return wikia.PageRef{}, fmt.Errorf("invalid page id %q", arg)
	}
	return wikia.ByID(id), nil
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", wikia.DefaultSearchLimit, "maximum titles")
	summaryCmd.Flags().IntVar(&summaryChars, "chars", 500, "maximum summary length")
	randomCmd.Flags().IntVar(&randomCount, "count", 1, "number of titles (max 10)")
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "only titles starting with this prefix")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum pages (0 lists everything)")

	for _, c := range []*cobra.Command{summaryCmd, pageCmd, sectionCmd} {
		c.Flags().BoolVar(&noRedirect, "no-redirect", false, "fail on redirects instead of following them")
	}

	pageCmd.Flags().BoolVar(&pageByID, "id", false, "treat the page argument as a numeric page id")
	pageCmd.Flags().BoolVar(&pageFacets.content, "content", false, "include the plain text content")
	pageCmd.Flags().BoolVar(&pageFacets.images, "images", false, "include image URLs")
	pageCmd.Flags().BoolVar(&pageFacets.related, "related", false, "include related page URLs")
	pageCmd.Flags().BoolVar(&pageFacets.links, "links", false, "include linked titles")
	pageCmd.Flags().BoolVar(&pageFacets.categories, "categories", false, "include categories")
}
