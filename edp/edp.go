// Copyright 2025 GSU Analytics

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package edp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the portal. It may be overwritten in tests
// before creating a new client.
var URL = "https://educationdata.urban.org/api/v1"

// defaultTimeout bounds a single page request of the default HTTP client.
const defaultTimeout = 30 * time.Second

// Client for querying portal endpoints.
type Client struct {
	baseURL string       // the base URL of the portal
	ua      *http.Client // the underlying HTTP client
}

// newClient creates a new client. A nil ua installs the default HTTP client
// with a 30 second timeout.
func newClient(baseURL string, ua *http.Client) *Client {
	if ua == nil {
		ua = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		ua:      ua,
	}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client around the given HTTP client and injects it
// into the context.
func UseClient(ctx context.Context, ua *http.Client) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(URL, ua))
}

// Value is an arbitrary value of a row field, as decoded from JSON. A null
// field decodes as nil.
type Value = interface{}

// Row is a single result record, mapping a column name to its value. It is an
// alias, so portal rows interoperate directly with generic JSON values.
type Row = map[string]Value

// RowLoader is the interface that a typed row of a specific endpoint must
// implement.
type RowLoader interface {
	FromRow(r Row) error
}

// resultsPage is the format of a single page of results. Next and Previous
// are complete URLs of the neighboring pages, or empty at either end.
type resultsPage struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []Row  `json:"results"`
}

// TestResultsPage generates the JSON string in the envelope format returned
// by the portal endpoints. For use in tests.
func TestResultsPage(results []Row, count int, next string) (string, error) {
	bytes, err := json.Marshal(&resultsPage{
		Count:   count,
		Next:    next,
		Results: results,
	})
	return string(bytes), err
}

// RowIterator iterates over query results row by row. Paging is handled
// transparently.
type RowIterator struct {
	context   context.Context
	query     *Query
	page      resultsPage
	index     int  // the results element for Next() to return
	pageCount int  // which page number we're on, for logging
	started   bool // if at least one Next call was ever made
}

// newRowIterator creates a new iterator.
func newRowIterator(ctx context.Context, query *Query) *RowIterator {
	return &RowIterator{context: ctx, query: query}
}

// nextPage fetches and populates the iterator with the next page of data. When
// there are no more pages to load, or loading a page results in an error, the
// first return value becomes false.
func (it *RowIterator) nextPage() (bool, error) {
	if it.started && it.page.Next == "" {
		return false, nil
	}
	client := GetClient(it.context)
	if client == nil {
		return false, errors.Reason("Query.Read: no client in context")
	}
	uri := client.queryURL(it.query)
	if it.started {
		uri = it.page.Next
	}
	it.started = true
	// Clear the page, in case decoding doesn't overwrite some parts.
	it.page = resultsPage{}
	if err := client.getPage(it.context, uri, &it.page); err != nil {
		return false, errors.Annotate(err, "failed to query page %d", it.pageCount+1)
	}
	it.index = 0
	it.pageCount++
	logging.Infof(it.context,
		"education data portal: fetched page %d with %d rows; total count: %d",
		it.pageCount, len(it.page.Results), it.page.Count)
	return true, nil
}

// Next loads the next row. If there are no more rows, the second value is
// false.
func (it *RowIterator) Next() (Row, bool, error) {
	if it.query == nil {
		return nil, false, nil
	}
	if !it.started {
		if ok, err := it.nextPage(); !ok {
			return nil, false, err
		}
	}
	if it.index >= len(it.page.Results) {
		if ok, err := it.nextPage(); !ok {
			return nil, false, err
		}
	}
	if it.index >= len(it.page.Results) {
		return nil, false, nil
	}
	row := it.page.Results[it.index]
	it.index++
	return row, true, nil
}

// Query is a builder for a single endpoint query.
type Query struct {
	path    string // endpoint path relative to the base URL
	filters []queryFilter
}

// queryFilter is a single filter used in a query.
type queryFilter struct {
	Name   string
	Values []string
}

// NewQuery creates a new query for the given endpoint path. The path is used
// verbatim, including any trailing slash the endpoint requires, e.g.
// "schools/ccd/directory/2013/".
func NewQuery(path string) *Query {
	q := Query{path: path}
	return &q
}

// Copy creates a deep copy of the query. It is primarily used in its builder
// methods.
func (q *Query) Copy() *Query {
	q2 := Query{path: q.path}
	q2.filters = make([]queryFilter, len(q.filters))
	for i, f := range q.filters {
		q2.filters[i] = f
	}
	return &q2
}

// Filter adds a filter: the value of the parameter must equal one of the
// given values. This and other builder methods always create a deep copy of
// the query, leaving the original intact.
func (q *Query) Filter(name string, values ...string) *Query {
	q2 := q.Copy()
	q2.filters = append(q2.filters, queryFilter{name, values})
	return q2
}

// Path returns the URL path to add to the base URL.
func (q *Query) Path() string {
	return q.path
}

// Values returns the query values for the query. Each call creates a new
// object, so the caller is free to modify it without affecting the query.
func (q *Query) Values() url.Values {
	v := make(url.Values)
	for _, f := range q.filters {
		v[f.Name] = []string{strings.Join(f.Values, ",")}
	}
	return v
}

// queryURL assembles the complete URL of the query's first page. A query
// without filters has no query string at all.
func (c *Client) queryURL(q *Query) string {
	uri := c.baseURL + "/" + q.Path()
	if values := q.Values(); len(values) > 0 {
		uri += "?" + values.Encode()
	}
	return uri
}

// getJSON performs a single GET request and decodes the response body into
// res. There are no retries: a network failure is a TransportError, a non-2xx
// status is a StatusError carrying the status code and the raw body, and an
// undecodable body is a MalformedError.
func (c *Client) getJSON(ctx context.Context, uri string, res interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return errors.Annotate(err, "failed to create GET request for %s", uri)
	}
	resp, err := c.ua.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, res); err != nil {
		return &MalformedError{Reason: "response is not valid JSON", Err: err}
	}
	return nil
}

// getPage downloads a single page of results from the given URL. An envelope
// without the results field is malformed; an empty results list is a valid
// empty page.
func (c *Client) getPage(ctx context.Context, uri string, page *resultsPage) error {
	if err := c.getJSON(ctx, uri, page); err != nil {
		return err
	}
	if page.Results == nil {
		return &MalformedError{Reason: "response has no results field"}
	}
	return nil
}

// Read sets up the iterator over the result rows, which will execute the query
// as needed and handle paging transparently.
func (q *Query) Read(ctx context.Context) *RowIterator {
	return newRowIterator(ctx, q)
}

// ReadAll executes the query and collects the rows from all pages, in
// response order. Any page failure discards the rows fetched so far and
// returns the error.
func (q *Query) ReadAll(ctx context.Context) ([]Row, error) {
	it := q.Read(ctx)
	var rows []Row
	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}
