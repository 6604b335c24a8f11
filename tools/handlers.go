package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/wikia-mcp-server/metrics"
	"github.com/olgasafonova/wikia-mcp-server/tracing"
	"github.com/olgasafonova/wikia-mcp-server/wikia"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	session *wikia.ToolSession
	logger  *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(session *wikia.ToolSession, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		session: session,
		logger:  logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)
	s := h.session

	switch spec.Method {
	// Search tools
	case "Search":
		register(h, server, tool, spec, s.SearchMCP)
	case "Random":
		register(h, server, tool, spec, s.RandomMCP)
	case "ListPages":
		register(h, server, tool, spec, s.ListPagesMCP)

	// Page tools
	case "GetPage":
		register(h, server, tool, spec, s.GetPageMCP)
	case "GetSummary":
		register(h, server, tool, spec, s.GetSummaryMCP)
	case "GetContent":
		register(h, server, tool, spec, s.GetContentMCP)
	case "GetSections":
		register(h, server, tool, spec, s.GetSectionsMCP)
	case "GetSection":
		register(h, server, tool, spec, s.GetSectionMCP)
	case "GetImages":
		register(h, server, tool, spec, s.GetImagesMCP)
	case "GetRelatedPages":
		register(h, server, tool, spec, s.GetRelatedPagesMCP)
	case "GetLinks":
		register(h, server, tool, spec, s.GetLinksMCP)
	case "GetCategories":
		register(h, server, tool, spec, s.GetCategoriesMCP)

	// Settings tools
	case "Languages":
		register(h, server, tool, spec, s.LanguagesMCP)
	case "SetLanguage":
		register(h, server, tool, spec, s.SetLanguageMCP)

	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	} else if !spec.ReadOnly {
		annotations.DestructiveHint = ptr(false)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	} else {
		annotations.OpenWorldHint = ptr(false)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the session method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, wrapHandler(h, spec, method))
}

// wrapHandler builds the instrumented handler. It is split from register
// so handlers can be called without a server.
func wrapHandler[Args, Result any](
	h *HandlerRegistry,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) mcp.ToolHandlerFor[Args, Result] {
	return func(ctx context.Context, req *mcp.CallToolRequest, args Args) (res *mcp.CallToolResult, result Result, err error) {
		defer h.recoverPanic(spec.Name, &err)

		// Start trace span
		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(
			attribute.Bool("mcp.tool.readonly", spec.ReadOnly),
			attribute.String("wiki.language", h.session.Client().Language()),
		)

		// Track in-flight requests
		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err = method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			h.logger.Warn("Tool failed", "tool", spec.Name, "code", wikia.ErrorCode(err), "error", err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, args, result)
		return nil, result, nil
	}
}

// recoverPanic recovers from panics in tool handlers and turns them into
// tool errors.
func (h *HandlerRegistry) recoverPanic(toolName string, err *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		if err != nil {
			*err = fmt.Errorf("%s failed: internal error", toolName)
		}
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	// Add extractable fields from args using type assertions
	switch a := args.(type) {
	case wikia.SearchArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki, "query", a.Query)
	case wikia.PageArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki, "title", a.Title, "page_id", a.PageID)
	case wikia.SummaryArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki, "title", a.Title)
	case wikia.SectionArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki, "title", a.Title, "section", a.Section)
	case wikia.ListPagesArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki, "prefix", a.Prefix)
	case wikia.RandomArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki, "count", a.Count)
	case wikia.LanguagesArgs:
		attrs = append(attrs, "sub_wiki", a.SubWiki)
	case wikia.SetLanguageArgs:
		// Logged from the result
	}

	// Add extractable fields from result
	switch r := result.(type) {
	case wikia.SearchResult:
		attrs = append(attrs, "results_count", r.Count)
	case wikia.PageResult:
		attrs = append(attrs, "resolved_title", r.Title, "sections", len(r.Sections))
	case wikia.SummaryResult:
		attrs = append(attrs, "chars", len(r.Summary))
	case wikia.ContentResult:
		attrs = append(attrs, "revision_id", r.RevisionID, "bytes", len(r.Content), "truncated", r.Truncated)
	case wikia.SectionsResult:
		attrs = append(attrs, "sections", len(r.Sections))
	case wikia.SectionResult:
		attrs = append(attrs, "found", r.Found)
	case wikia.ImagesResult:
		attrs = append(attrs, "images", len(r.Images))
	case wikia.RelatedPagesResult:
		attrs = append(attrs, "related", len(r.URLs))
	case wikia.TitlesResult:
		attrs = append(attrs, "titles", r.Count)
	case wikia.ListPagesResult:
		attrs = append(attrs, "pages", len(r.Pages), "truncated", r.Truncated)
	case wikia.RandomResult:
		attrs = append(attrs, "titles", len(r.Titles))
	case wikia.LanguagesResult:
		attrs = append(attrs, "languages", r.Count)
	case wikia.SetLanguageResult:
		attrs = append(attrs, "previous", r.Previous, "language", r.Language)
	}

	h.logger.Info("Tool executed", attrs...)
}
