package tools

// AllTools contains all tool specifications for the Wikia MCP server.
// Tools are organized by category for easier maintenance.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SEARCH TOOLS
	// ==========================================================================
	{
		Name:     "wikia_search",
		Method:   "Search",
		Title:    "Search Sub-Wiki",
		Category: "search",
		Description: `Search one Wikia/Fandom sub-wiki for page titles matching a query.

USE WHEN: User asks "find X on the Star Wars wiki", "which page covers X", or does not know the exact page title.

NOT FOR: Reading a page you already know (use wikia_get_summary or wikia_get_content).

PARAMETERS:
- sub_wiki: Sub-wiki name, e.g. "starwars" (required)
- query: Search text (required)
- limit: Max titles (default 10)

RETURNS: Matching page titles, best match first. Results are cached until the language changes.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_random",
		Method:   "Random",
		Title:    "Random Articles",
		Category: "search",
		Description: `Pick random article titles from a sub-wiki.

USE WHEN: User asks for "a random page", "surprise me", or wants sample content from a wiki.

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- count: Number of titles (default 1, max 10)

RETURNS: Random article titles (main namespace only).`,
		ReadOnly:  true,
		OpenWorld: true,
	},
	{
		Name:     "wikia_list_pages",
		Method:   "ListPages",
		Title:    "List Pages",
		Category: "search",
		Description: `List articles of a sub-wiki alphabetically, optionally by title prefix.

USE WHEN: User asks "what pages start with X", "list all articles about Y*", or wants to browse titles.

NOT FOR: Relevance-ranked search (use wikia_search).

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- prefix: Title prefix filter (optional)
- limit: Max pages (default 50, max 500)

RETURNS: Page ids and titles; truncated=true when more pages exist.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// PAGE TOOLS
	// ==========================================================================
	{
		Name:     "wikia_get_page",
		Method:   "GetPage",
		Title:    "Resolve Page",
		Category: "page",
		Description: `Resolve a page by title or id and describe it.

USE WHEN: User names a page and you need its canonical title, URL, id, or table of contents before reading it.

NOT FOR: Reading the text (use wikia_get_summary or wikia_get_content).

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)
- redirect: Follow redirects (default true)

RETURNS: Page id, canonical (lowercased) title, original title, URL and section titles.

ERRORS: Disambiguation pages fail with the list of candidate titles; pick one and call again.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_summary",
		Method:   "GetSummary",
		Title:    "Get Page Summary",
		Category: "page",
		Description: `Get the plain text abstract of a page.

USE WHEN: User asks "what is X", "tell me briefly about X", "summarize the X article".

NOT FOR: Full article text (use wikia_get_content) or one section (use wikia_get_section).

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title: Page title (required)
- chars: Max characters (default 500)
- redirect: Follow redirects (default true)

RETURNS: The page abstract. Cached until the language changes.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_content",
		Method:   "GetContent",
		Title:    "Get Page Content",
		Category: "page",
		Description: `Get the full plain text of a page, one paragraph per line.

USE WHEN: User says "read the X page", "show the whole article", or needs detail beyond the summary.

NOT FOR: Quick overviews (use wikia_get_summary). Single sections (use wikia_get_section).

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)
- redirect: Follow redirects (default true)

RETURNS: Plain text and revision id. Large pages are truncated at 50KB.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_sections",
		Method:   "GetSections",
		Title:    "Get Section Titles",
		Category: "page",
		Description: `List the section titles of a page in order.

USE WHEN: User asks "what does the X article cover", or before wikia_get_section to find the exact section name.

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)

RETURNS: Section titles in page order.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_section",
		Method:   "GetSection",
		Title:    "Get Section Text",
		Category: "page",
		Description: `Get the plain text of one section of a page.

USE WHEN: User asks about one part of an article: "X's biography", "the powers section of Y".

NOT FOR: Whole articles (use wikia_get_content).

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)
- section: Exact section title from wikia_get_sections (required)

RETURNS: Section text, or found=false when the page has no such section. Subsections are not included.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_images",
		Method:   "GetImages",
		Title:    "Get Page Images",
		Category: "page",
		Description: `List image URLs used on a page.

USE WHEN: User asks "show me a picture of X", "what images are on the X page".

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)

RETURNS: The first image URL of each section that has one.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_related_pages",
		Method:   "GetRelatedPages",
		Title:    "Get Related Pages",
		Category: "page",
		Description: `Get URLs of pages the wiki considers related to a page.

USE WHEN: User asks "what else should I read about X", "similar pages to X".

NOT FOR: Pages the article links to (use wikia_get_links).

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)

RETURNS: Up to 10 absolute URLs.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_links",
		Method:   "GetLinks",
		Title:    "Get Page Links",
		Category: "page",
		Description: `List the article titles a page links to.

USE WHEN: User asks "what does the X page link to", or wants to follow connections between articles.

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)

RETURNS: Linked titles (main namespace), following every result batch.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_get_categories",
		Method:   "GetCategories",
		Title:    "Get Page Categories",
		Category: "page",
		Description: `List the categories a page belongs to.

USE WHEN: User asks "how is X classified", "what categories is X in".

PARAMETERS:
- sub_wiki: Sub-wiki name (required)
- title or page_id: Exactly one (required)

RETURNS: Category titles.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// SETTINGS TOOLS
	// ==========================================================================
	{
		Name:     "wikia_languages",
		Method:   "Languages",
		Title:    "List Languages",
		Category: "settings",
		Description: `List the language prefixes a sub-wiki farm supports.

USE WHEN: User wants content in another language and you need the right prefix for wikia_set_language.

PARAMETERS:
- sub_wiki: Sub-wiki name (required)

RETURNS: Map of language prefix to local language name.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wikia_set_language",
		Method:   "SetLanguage",
		Title:    "Set Language",
		Category: "settings",
		Description: `Switch the language used by all following requests.

USE WHEN: User asks to "read the German version", "switch to French".

PARAMETERS:
- language: Prefix such as "de" (required; empty selects the default wiki)

RETURNS: Previous and new language.

NOTE: Clears every cached search and summary.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  true,
		OpenWorld:   false,
	},
}
