package wikia

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// PageNotFoundError is returned when a title or page id does not exist on
// the sub-wiki, or when the details lookup comes back in a shape that
// cannot describe a page.
type PageNotFoundError struct {
	Title   string
	PageID  int
	SubWiki string
}

func (e *PageNotFoundError) Error() string {
	ref := fmt.Sprintf("%q", e.Title)
	if e.Title == "" {
		ref = fmt.Sprintf("with id %d", e.PageID)
	}
	return fmt.Sprintf(`Page not found: %s in sub-wiki %q

Possible causes:
1. The page title is misspelled
2. The page was deleted or moved
3. The page lives on a different sub-wiki or language

To find the correct page, use wikia_search on the same sub-wiki.`, ref, e.SubWiki)
}

// RedirectError is returned when a title redirects and following redirects
// is disabled.
type RedirectError struct {
	Title   string
	Target  string
	SubWiki string
}

func (e *RedirectError) Error() string {
	msg := fmt.Sprintf("%q resulted in a redirect", e.Title)
	if e.Target != "" {
		msg += fmt.Sprintf(" to %q", e.Target)
	}
	return msg + ". Set the redirect option to true to follow it."
}

// DisambiguationError is returned when a title names a disambiguation page.
// Options lists the candidate titles in document order.
type DisambiguationError struct {
	Title   string
	SubWiki string
	Options []string
}

func (e *DisambiguationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%q may refer to:", e.Title))
	for _, opt := range e.Options {
		sb.WriteString("\n  ")
		sb.WriteString(opt)
	}
	if len(e.Options) == 0 {
		sb.WriteString("\n  (no candidates listed)")
	}
	return sb.String()
}

// RedirectLoopError is returned when redirect following revisits a title or
// exceeds the configured hop bound.
type RedirectLoopError struct {
	Title   string
	SubWiki string
	Chain   []string
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("redirect loop while resolving %q on %q: %s",
		e.Title, e.SubWiki, strings.Join(append([]string{e.Title}, e.Chain...), " -> "))
}

// InconsistentResponseError is returned when the normalization or redirect
// metadata of a details response does not match the title that was asked for.
type InconsistentResponseError struct {
	Requested string
	Reported  string
	SubWiki   string
}

func (e *InconsistentResponseError) Error() string {
	return fmt.Sprintf(`Inconsistent redirect metadata: asked %q for %q but the wiki reported %q

This usually means the API changed shape. Please report it along with the title.`,
		e.SubWiki, e.Requested, e.Reported)
}

// TimeoutError is returned when the API reports a timeout (exception code 408).
type TimeoutError struct {
	Action  string
	SubWiki string
	Query   string
	Message string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf(`Request timed out: %s %s on %q

Wikia answered with a timeout. Enable rate limiting or retry later.`, e.Action, e.Query, e.SubWiki)
}

// MalformedResponseError is returned when a response body is not JSON.
type MalformedResponseError struct {
	URL    string
	Params url.Values
	Status int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf(`Malformed response: request to %q with parameters %q returned data in a format other than JSON (HTTP %d)

Check the sub-wiki name and the request parameters.`, e.URL, e.Params.Encode(), e.Status)
}

// APIError carries an error envelope returned by the wiki verbatim.
type APIError struct {
	Code    int
	Message string
	Details string
	SubWiki string
}

func (e *APIError) Error() string {
	if e.SubWiki == "" {
		return fmt.Sprintf("Error (%d) %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("Error (%d) %s: %s (sub-wiki %q)", e.Code, e.Message, e.Details, e.SubWiki)
}

// ValidationError represents an input validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound reports whether err is a PageNotFoundError.
func IsNotFound(err error) bool {
	var target *PageNotFoundError
	return errors.As(err, &target)
}

// IsRedirect reports whether err is a RedirectError.
func IsRedirect(err error) bool {
	var target *RedirectError
	return errors.As(err, &target)
}

// IsDisambiguation reports whether err is a DisambiguationError.
func IsDisambiguation(err error) bool {
	var target *DisambiguationError
	return errors.As(err, &target)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsMalformed reports whether err is a MalformedResponseError.
func IsMalformed(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// ErrorCode maps an error to a short metric label.
func ErrorCode(err error) string {
	var (
		notFound  *PageNotFoundError
		redirect  *RedirectError
		disambig  *DisambiguationError
		loop      *RedirectLoopError
		odd       *InconsistentResponseError
		timeout   *TimeoutError
		malformed *MalformedResponseError
		apiErr    *APIError
		invalid   *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &redirect):
		return "redirect"
	case errors.As(err, &disambig):
		return "disambiguation"
	case errors.As(err, &loop):
		return "redirect_loop"
	case errors.As(err, &odd):
		return "inconsistent"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("api_%d", apiErr.Code)
	case errors.As(err, &invalid):
		return "invalid_argument"
	default:
		return "transport"
	}
}
