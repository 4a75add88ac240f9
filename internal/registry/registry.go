// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry fetches study records from the ClinicalTrials.gov
// StudyFields API and normalizes them into a deduplicated table.
//
// The registry serves results in inclusive 1-based rank windows of at most
// 1000 records, so a query matching more studies than one window holds is
// fetched page by page. Post-processing happens once over the accumulated
// records: the server-assigned rank is dropped, missing cells become empty
// strings, embedded tab and newline characters are replaced with spaces,
// list-valued cells are flattened to tab-joined strings, and exact duplicate
// rows are removed.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/BMiao10/DigitalHealthNotes/internal/httputil"
	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// defaultBaseURL is the public StudyFields search endpoint.
const defaultBaseURL = "https://clinicaltrials.gov/api/query/study_fields"

const (
	defaultPageSize = 1000

	// maxReturnFields is the largest field list the registry accepts per request.
	maxReturnFields = 20

	// rankField is the server-assigned rank the registry includes with every
	// record. It is positional, not study data, and never survives into the
	// result table.
	rankField = "Rank"
)

// Query holds the parameters of one registry search.
type Query struct {
	// Expression is the free-text search expression. An empty expression
	// means "no query issued": Fetch returns (nil, nil) without touching
	// the network.
	Expression string

	// ReturnFields lists the study fields to return, in column order.
	// The registry accepts at most 20 per request.
	ReturnFields []string

	// SearchField optionally restricts which study field the expression is
	// matched against.
	SearchField string

	// Limit caps the total number of records fetched. Zero falls back to
	// the configured ResultLimit, and zero there means unlimited.
	Limit int
}

// IsEmpty reports whether the query carries no search expression.
func (q Query) IsEmpty() bool { return q.Expression == "" }

// Fetcher downloads study records from the registry. The zero value is not
// usable; callers supply the HTTP client so tests can point the fetcher at
// a fixture server via cfg.BaseURL.
type Fetcher struct {
	Client *http.Client
}

// Fetch runs the query against the registry and returns the normalized,
// deduplicated result table.
//
// Outcomes are distinguishable: an empty query yields (nil, nil); a
// return-field list over the registry cap yields a *FieldLimitError before
// any network I/O; a query matching nothing yields ErrNoStudiesFound (never
// an empty table); network and HTTP-status failures yield a
// *httputil.TransportError and malformed bodies a *httputil.ParseError.
// Fetch never retries; retry policy belongs to the caller.
func (f *Fetcher) Fetch(ctx context.Context, q Query, cfg types.RegistryConfig) (*types.StudyTable, error) {
	if q.IsEmpty() {
		return nil, nil
	}
	if len(q.ReturnFields) == 0 {
		return nil, fmt.Errorf("no return fields requested")
	}
	if len(q.ReturnFields) > maxReturnFields {
		return nil, &FieldLimitError{Requested: len(q.ReturnFields)}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	minRank, maxRank := 1, pageSize
	page, err := f.fetchPage(ctx, q, cfg, minRank, maxRank)
	if err != nil {
		return nil, err
	}
	if page.NStudiesReturned == 0 {
		return nil, ErrNoStudiesFound
	}

	nTotal := page.NStudiesFound
	limit := q.Limit
	if limit <= 0 {
		limit = cfg.ResultLimit
	}
	if limit > 0 && nTotal > limit {
		nTotal = limit
	}

	records := page.StudyFields

	// Advance the rank window so consecutive windows partition [1, nTotal]:
	// each new lower bound is exactly one past the previous upper bound.
	for maxRank < nTotal {
		minRank = maxRank + 1
		maxRank = maxRank + pageSize
		if maxRank > nTotal {
			maxRank = nTotal
		}

		page, err = f.fetchPage(ctx, q, cfg, minRank, maxRank)
		if err != nil {
			return nil, err
		}
		records = append(records, page.StudyFields...)
	}

	return buildTable(q.ReturnFields, records), nil
}

// fetchPage requests one rank window and decodes the response envelope.
func (f *Fetcher) fetchPage(ctx context.Context, q Query, cfg types.RegistryConfig, minRank, maxRank int) (*studyFieldsResponse, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	params := url.Values{
		"expr":    {q.Expression},
		"fmt":     {"JSON"},
		"fields":  {strings.Join(q.ReturnFields, ",")},
		"min_rnk": {strconv.Itoa(minRank)},
		"max_rnk": {strconv.Itoa(maxRank)},
	}
	if q.SearchField != "" {
		params.Set("field", q.SearchField)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &httputil.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httputil.TransportError{Status: resp.StatusCode}
	}

	var envelope struct {
		StudyFieldsResponse *studyFieldsResponse `json:"StudyFieldsResponse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &httputil.ParseError{Err: err}
	}
	if envelope.StudyFieldsResponse == nil {
		return nil, &httputil.ParseError{Err: fmt.Errorf("missing StudyFieldsResponse envelope")}
	}
	return envelope.StudyFieldsResponse, nil
}

// StudyFields API JSON structures.
type studyFieldsResponse struct {
	NStudiesFound    int              `json:"NStudiesFound"`
	NStudiesReturned int              `json:"NStudiesReturned"`
	MinRank          int              `json:"MinRank"`
	MaxRank          int              `json:"MaxRank"`
	StudyFields      []map[string]any `json:"StudyFields"`
}
