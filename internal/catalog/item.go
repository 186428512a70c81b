// Package catalog holds the product page contract shared by the page loaders,
// the Shopify query executor and the client-side list accumulator.
package catalog

import "context"

// Image is one product image as returned by the Admin API.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

// Item is one product row. ImageURL mirrors the first entry of Images and is
// empty when the product has no image.
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Handle      string  `json:"handle,omitempty"`
	ImageURL    string  `json:"imageUrl"`
	Images      []Image `json:"images,omitempty"`
}

// PrimaryImage returns the first image of the item, if any.
func (i Item) PrimaryImage() (Image, bool) {
	if len(i.Images) > 0 {
		return i.Images[0], true
	}
	if i.ImageURL != "" {
		return Image{URL: i.ImageURL}, true
	}
	return Image{}, false
}

// Page is one batch of items in server order. EndCursor is empty when the
// upstream returned no cursor.
type Page struct {
	Items       []Item
	HasNextPage bool
	EndCursor   string
}

// View selects which page route a query serves.
type View string

const (
	ViewList    View = "list"
	ViewGallery View = "gallery"
)

// QueryExecutor issues the parameterized product list query. An empty after
// requests the first page.
type QueryExecutor interface {
	ListProducts(ctx context.Context, after string) (*Page, error)
}

// PageFetcher is what the accumulator needs to request the next page.
type PageFetcher interface {
	FetchPage(ctx context.Context, after string) (*Page, error)
}

// PageFetcherFunc adapts a plain function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, after string) (*Page, error)

func (f PageFetcherFunc) FetchPage(ctx context.Context, after string) (*Page, error) {
	return f(ctx, after)
}
