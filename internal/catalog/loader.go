package catalog

import (
	"context"
	"encoding/json"
	"errors"
)

// Response is the page loader payload. Failures never escape as panics or bare
// errors: they arrive as an empty item list with Error set.
type Response struct {
	Items       []Item  `json:"items"`
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
	Error       string  `json:"error,omitempty"`

	err error
}

// NewResponse packages a fetched page.
func NewResponse(page Page) Response {
	items := page.Items
	if items == nil {
		items = []Item{}
	}

	resp := Response{Items: items, HasNextPage: page.HasNextPage}
	if page.EndCursor != "" {
		cursor := page.EndCursor
		resp.EndCursor = &cursor
	}
	return resp
}

// FailedResponse packages a fetch failure as an explicit empty result.
func FailedResponse(err error) Response {
	return Response{Items: []Item{}, Error: err.Error(), err: err}
}

// Err returns the failure behind the response, if any.
func (r Response) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.Error != "" {
		return &FetchError{Op: "load page", Err: errors.New(r.Error)}
	}
	return nil
}

// Page converts the payload back into a Page.
func (r Response) Page() Page {
	page := Page{Items: r.Items, HasNextPage: r.HasNextPage}
	if r.EndCursor != nil {
		page.EndCursor = *r.EndCursor
	}
	return page
}

// MarshalJSON keeps items as [] rather than null on zero-value responses.
func (r Response) MarshalJSON() ([]byte, error) {
	type payload Response
	p := payload(r)
	if p.Items == nil {
		p.Items = []Item{}
	}
	return json.Marshal(p)
}

// Loader is the server-side page loader: one fresh upstream call per load,
// no retries and no caching at this layer.
type Loader struct {
	executor QueryExecutor
}

func NewLoader(executor QueryExecutor) *Loader {
	return &Loader{executor: executor}
}

// Load fetches the page after the given cursor. An empty cursor loads the
// first page.
func (l *Loader) Load(ctx context.Context, after string) Response {
	page, err := l.executor.ListProducts(ctx, after)
	if err == nil && page == nil {
		err = &FetchError{Op: "list products", Err: ErrMalformedResponse}
	}
	if err != nil {
		return FailedResponse(AsFetchError("list products", err))
	}
	return NewResponse(*page)
}

// FetchPage lets an in-process accumulator use the loader directly.
func (l *Loader) FetchPage(ctx context.Context, after string) (*Page, error) {
	resp := l.Load(ctx, after)
	if err := resp.Err(); err != nil {
		return nil, err
	}
	page := resp.Page()
	return &page, nil
}
