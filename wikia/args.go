package wikia

// SearchArgs contains parameters for a wiki search
type SearchArgs struct {
	SubWiki string `json:"sub_wiki" jsonschema:"Sub-wiki name, e.g. starwars or runescape"`
	Query   string `json:"query" jsonschema:"Search text"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum titles to return (default 10)"`
}

// SearchResult is the result of a wiki search
type SearchResult struct {
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// PageArgs identifies a page for the page facet tools
type PageArgs struct {
	SubWiki  string `json:"sub_wiki" jsonschema:"Sub-wiki name, e.g. starwars"`
	Title    string `json:"title,omitempty" jsonschema:"Page title (give either title or page_id)"`
	PageID   int    `json:"page_id,omitempty" jsonschema:"Numeric page id (give either title or page_id)"`
	Redirect *bool  `json:"redirect,omitempty" jsonschema:"Follow redirects (default true)"`
}

// PageResult describes a resolved page
type PageResult struct {
	PageID        int      `json:"page_id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	URL           string   `json:"url"`
	Language      string   `json:"language,omitempty"`
	Sections      []string `json:"sections,omitempty"`
}

// SummaryArgs contains parameters for a page summary
type SummaryArgs struct {
	SubWiki  string `json:"sub_wiki" jsonschema:"Sub-wiki name"`
	Title    string `json:"title" jsonschema:"Page title"`
	Chars    int    `json:"chars,omitempty" jsonschema:"Maximum summary length in characters (default 500)"`
	Redirect *bool  `json:"redirect,omitempty" jsonschema:"Follow redirects (default true)"`
}

// SummaryResult is a page's plain text summary
type SummaryResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ContentResult is a page's full plain text
type ContentResult struct {
	PageID     int    `json:"page_id"`
	Title      string `json:"title"`
	RevisionID int64  `json:"revision_id"`
	Content    string `json:"content"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// SectionsResult lists a page's section titles
type SectionsResult struct {
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
}

// SectionArgs identifies one section of a page
type SectionArgs struct {
	SubWiki  string `json:"sub_wiki" jsonschema:"Sub-wiki name"`
	Title    string `json:"title,omitempty" jsonschema:"Page title (give either title or page_id)"`
	PageID   int    `json:"page_id,omitempty" jsonschema:"Numeric page id (give either title or page_id)"`
	Section  string `json:"section" jsonschema:"Exact section title as listed by wikia_get_sections"`
	Redirect *bool  `json:"redirect,omitempty" jsonschema:"Follow redirects (default true)"`
}

// SectionResult is the text of one section
type SectionResult struct {
	Title   string `json:"title"`
	Section string `json:"section"`
	Found   bool   `json:"found"`
	Text    string `json:"text,omitempty"`
}

// ImagesResult lists a page's image URLs
type ImagesResult struct {
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

// RelatedPagesResult lists URLs of related pages
type RelatedPagesResult struct {
	Title string   `json:"title"`
	URLs  []string `json:"urls"`
}

// TitlesResult lists page titles linked from or categorizing a page
type TitlesResult struct {
	Title  string   `json:"title"`
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// ListPagesArgs contains parameters for listing articles
type ListPagesArgs struct {
	SubWiki string `json:"sub_wiki" jsonschema:"Sub-wiki name"`
	Prefix  string `json:"prefix,omitempty" jsonschema:"Only list titles starting with this prefix"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum pages to return (default 50, max 500)"`
}

// ListPagesResult is a list of articles
type ListPagesResult struct {
	Pages     []PageInfo `json:"pages"`
	Truncated bool       `json:"truncated,omitempty"`
}

// RandomArgs contains parameters for random article titles
type RandomArgs struct {
	SubWiki string `json:"sub_wiki" jsonschema:"Sub-wiki name"`
	Count   int    `json:"count,omitempty" jsonschema:"Number of titles (default 1, max 10)"`
}

// RandomResult lists random article titles
type RandomResult struct {
	Titles []string `json:"titles"`
}

// LanguagesArgs contains parameters for the language listing
type LanguagesArgs struct {
	SubWiki string `json:"sub_wiki" jsonschema:"Sub-wiki name"`
}

// LanguagesResult maps language prefixes to local language names
type LanguagesResult struct {
	Languages map[string]string `json:"languages"`
	Count     int               `json:"count"`
}

// SetLanguageArgs switches the active language
type SetLanguageArgs struct {
	Language string `json:"language" jsonschema:"Language prefix such as de or fr; empty selects the default wiki"`
}

// SetLanguageResult reports the language change
type SetLanguageResult struct {
	Previous string `json:"previous"`
	Language string `json:"language"`
}
