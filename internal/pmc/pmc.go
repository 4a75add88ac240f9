// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pmc retrieves PubMed Central records through the NCBI E-utilities:
// esearch for UID discovery and efetch for full-text JATS XML. NCBI rate
// limits by IP (and by api_key), so requests go through the shared 429
// retry helper; batching stays with the caller.
package pmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/BMiao10/DigitalHealthNotes/internal/httputil"
	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// defaultBaseURL is the public E-utilities endpoint root.
const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

const defaultRetMax = 9999

// Client calls the E-utilities. Callers supply the HTTP client; the base URL
// comes from config so tests run against fixture servers.
type Client struct {
	Client *http.Client
}

// SearchOptions narrows an esearch beyond the bare term.
type SearchOptions struct {
	// RetStart is the 0-based offset into the UID list.
	RetStart int

	// Sort orders results (e.g. "pub_date", "relevance").
	Sort string

	// MinDate and MaxDate bound the search by DateType (format YYYY/MM/DD
	// or YYYY).
	MinDate  string
	MaxDate  string
	DateType string
}

// SearchResult holds the UIDs matching an esearch term.
type SearchResult struct {
	// Count is the total number of matching records, which can exceed
	// len(UIDs) when retmax truncates the list.
	Count int

	// UIDs are the matching PMC identifiers, without the "PMC" prefix.
	UIDs []string

	// QueryTranslation is how NCBI interpreted the term.
	QueryTranslation string
}

// Search runs an esearch against the pmc database and returns matching UIDs.
func (c *Client) Search(ctx context.Context, term string, opts SearchOptions, cfg types.EutilsConfig) (*SearchResult, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("empty search term")
	}

	retMax := cfg.RetMax
	if retMax <= 0 {
		retMax = defaultRetMax
	}

	params := url.Values{
		"db":      {"pmc"},
		"term":    {term},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(retMax)},
	}
	if opts.RetStart > 0 {
		params.Set("retstart", strconv.Itoa(opts.RetStart))
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	if opts.MinDate != "" {
		params.Set("mindate", opts.MinDate)
	}
	if opts.MaxDate != "" {
		params.Set("maxdate", opts.MaxDate)
	}
	if opts.DateType != "" {
		params.Set("datetype", opts.DateType)
	}
	addIdentity(params, cfg)

	body, err := c.get(ctx, cfg, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var er esearchResponse
	if err := json.NewDecoder(body).Decode(&er); err != nil {
		return nil, &httputil.ParseError{Err: err}
	}

	count, err := strconv.Atoi(er.Result.Count)
	if err != nil {
		return nil, &httputil.ParseError{Err: fmt.Errorf("esearch count %q: %w", er.Result.Count, err)}
	}

	return &SearchResult{
		Count:            count,
		UIDs:             er.Result.IDList,
		QueryTranslation: er.Result.QueryTranslation,
	}, nil
}

// FetchArticles runs an efetch for the given UIDs and parses the returned
// JATS XML into one Article per record. Sections absent from an article's
// XML come back as empty strings.
func (c *Client) FetchArticles(ctx context.Context, uids []string, cfg types.EutilsConfig) ([]types.Article, error) {
	if len(uids) == 0 {
		return nil, fmt.Errorf("no UIDs to fetch")
	}

	params := url.Values{
		"db":      {"pmc"},
		"id":      {strings.Join(uids, ",")},
		"retmode": {"xml"},
		"rettype": {"full"},
	}
	addIdentity(params, cfg)

	body, err := c.get(ctx, cfg, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	articles, err := parseArticleSet(body)
	if err != nil {
		return nil, &httputil.ParseError{Err: err}
	}
	return articles, nil
}

// get issues one GET against an E-utilities endpoint and returns the body.
func (c *Client) get(ctx context.Context, cfg types.EutilsConfig, endpoint string, params url.Values) (io.ReadCloser, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, &httputil.TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &httputil.TransportError{Status: resp.StatusCode}
	}
	return resp.Body, nil
}

// addIdentity attaches the NCBI identification parameters when configured.
func addIdentity(params url.Values, cfg types.EutilsConfig) {
	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}
	if cfg.Email != "" {
		params.Set("email", cfg.Email)
	}
	if cfg.Tool != "" {
		params.Set("tool", cfg.Tool)
	}
}

// E-utilities esearch JSON structures. NCBI serializes counts as strings.
type esearchResponse struct {
	Result struct {
		Count            string   `json:"count"`
		RetMax           string   `json:"retmax"`
		IDList           []string `json:"idlist"`
		QueryTranslation string   `json:"querytranslation"`
	} `json:"esearchresult"`
}
