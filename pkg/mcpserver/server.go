// Package mcpserver exposes resource search to MCP clients as the
// search_resources tool.
package mcpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/search"
	"github.com/kautilyadevaraj/univault/pkg/transport"
)

// ToolName is the name of the registered search tool.
const ToolName = "search_resources"

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"free-text query matched against titles, descriptions, courses, schools and tags"`
	Semantic bool   `json:"semantic,omitempty" jsonschema:"rank by embedding similarity instead of text matching"`
	Sort     string `json:"sort,omitempty" jsonschema:"one of relevance, date, title, year, school, course, similarity"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"number of results to skip"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []ResultOutput `json:"results"`
	Total    int            `json:"total"`
	Mode     string         `json:"mode"`
	FellBack bool           `json:"fell_back"`
}

// ResultOutput is one search hit. It mirrors api.SearchResult except that
// an unset course year is omitted rather than blank.
type ResultOutput struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	UploaderName   string   `json:"uploaderName"`
	UploadDate     string   `json:"uploadDate"`
	FileType       string   `json:"fileType"`
	Downloads      int      `json:"downloads"`
	School         string   `json:"school"`
	Program        string   `json:"program"`
	CourseName     string   `json:"courseName"`
	ResourceType   string   `json:"resourceType"`
	YearOfCreation int      `json:"yearOfCreation"`
	CourseYear     *int     `json:"courseYear,omitempty"`
	FileURL        string   `json:"fileUrl"`
	Status         string   `json:"status"`
	Similarity     *float64 `json:"similarity,omitempty"`
}

// defaultLimit applies when the caller does not ask for a page size.
const defaultLimit = 10

// Server is the MCP server for resource search.
type Server struct {
	searcher transport.Searcher
	server   *mcp.Server
	logger   *slog.Logger
}

// New creates an MCP server whose tool delegates to searcher.
func New(searcher transport.Searcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		searcher: searcher,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "univault",
			Version: version,
		}, nil),
		logger: logger,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolName,
		Description: "Search approved university resources by keyword or by meaning",
	}, s.handleSearch)

	return s
}

// MCPServer returns the underlying server, for callers that run it on a
// transport other than HTTP.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Handler returns a streamable HTTP handler serving this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	req := search.Normalize(input.Query, input.Semantic, input.Sort)
	page := search.NormalizePage(limit, input.Offset)

	resp, err := s.searcher.Search(ctx, req, page)
	if err != nil {
		s.logger.Warn("mcp search failed", "mode", req.Mode.String(), "error", err)
		return nil, SearchOutput{}, &toolError{msg: transport.PublicMessage(err), err: err}
	}

	out := SearchOutput{
		Results:  make([]ResultOutput, len(resp.Results)),
		Total:    resp.Total,
		Mode:     resp.Mode.String(),
		FellBack: resp.FellBack,
	}
	for i, r := range resp.Results {
		out.Results[i] = toOutput(r)
	}
	return nil, out, nil
}

func toOutput(r api.SearchResult) ResultOutput {
	out := ResultOutput{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Tags:           r.Tags,
		UploaderName:   r.UploaderName,
		UploadDate:     r.UploadDate,
		FileType:       r.FileType,
		Downloads:      r.Downloads,
		School:         r.School,
		Program:        r.Program,
		CourseName:     r.CourseName,
		ResourceType:   r.ResourceType,
		YearOfCreation: r.YearOfCreation,
		FileURL:        r.FileURL,
		Status:         string(r.Status),
		Similarity:     r.Similarity,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if r.CourseYear.Valid {
		y := r.CourseYear.Value
		out.CourseYear = &y
	}
	return out
}

// toolError reports the public message to the client and keeps the cause
// for errors.Is.
type toolError struct {
	msg string
	err error
}

func (e *toolError) Error() string { return e.msg }
func (e *toolError) Unwrap() error { return e.err }
