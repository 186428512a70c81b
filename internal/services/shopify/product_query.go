package shopify

import (
	"context"
	"time"

	"productpager/internal/catalog"
	"productpager/internal/metrics"
)

// GraphQLDoer is the part of Client a product query needs.
type GraphQLDoer interface {
	Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error
}

// ProductQuery runs the products query for one view and implements
// catalog.QueryExecutor.
type ProductQuery struct {
	client      GraphQLDoer
	view        catalog.View
	pageSize    int
	imagesFirst int
	transformer *Transformer
}

// NewListQuery fetches pageSize products with their first image.
func NewListQuery(client GraphQLDoer, pageSize int) *ProductQuery {
	return newProductQuery(client, catalog.ViewList, pageSize, 1)
}

// NewGalleryQuery fetches pageSize products with up to imagesPerProduct images each.
func NewGalleryQuery(client GraphQLDoer, pageSize, imagesPerProduct int) *ProductQuery {
	return newProductQuery(client, catalog.ViewGallery, pageSize, imagesPerProduct)
}

func newProductQuery(client GraphQLDoer, view catalog.View, pageSize, imagesFirst int) *ProductQuery {
	if imagesFirst < 1 {
		imagesFirst = 1
	}
	return &ProductQuery{
		client:      client,
		view:        view,
		pageSize:    pageSize,
		imagesFirst: imagesFirst,
		transformer: NewTransformer(),
	}
}

func (q *ProductQuery) View() catalog.View {
	return q.view
}

func (q *ProductQuery) PageSize() int {
	return q.pageSize
}

// ListProducts fetches the page after the given cursor. An empty cursor is
// sent as null and yields the first page.
func (q *ProductQuery) ListProducts(ctx context.Context, after string) (*catalog.Page, error) {
	vars := map[string]interface{}{
		"first":       q.pageSize,
		"imagesFirst": q.imagesFirst,
		"after":       nil,
	}
	if after != "" {
		vars["after"] = after
	}

	start := time.Now()
	var data ProductsData
	err := q.client.Do(ctx, productsQuery, vars, &data)
	metrics.UpstreamQueryDuration.WithLabelValues(string(q.view)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	return q.transformer.TransformPage(&data)
}
