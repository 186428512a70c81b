package shopify

import (
	"fmt"
	"strconv"

	"productpager/internal/catalog"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformPage validates the products connection once and maps it to a
// catalog page. Everything past this point can rely on the typed shape.
func (t *Transformer) TransformPage(data *ProductsData) (*catalog.Page, error) {
	if data == nil || data.Products == nil {
		return nil, malformed("missing products connection")
	}
	conn := data.Products
	if conn.PageInfo == nil {
		return nil, malformed("missing pageInfo")
	}

	page := &catalog.Page{
		Items:       make([]catalog.Item, 0, len(conn.Edges)),
		HasNextPage: conn.PageInfo.HasNextPage,
	}
	if conn.PageInfo.EndCursor != nil {
		page.EndCursor = *conn.PageInfo.EndCursor
	}
	if page.HasNextPage && page.EndCursor == "" {
		return nil, malformed("hasNextPage without endCursor")
	}

	for i, edge := range conn.Edges {
		if edge.Node == nil {
			return nil, malformed("edge " + strconv.Itoa(i) + " has no node")
		}
		if edge.Node.ID == "" {
			return nil, malformed("edge " + strconv.Itoa(i) + " has no id")
		}
		page.Items = append(page.Items, t.TransformProduct(edge.Node))
	}

	return page, nil
}

// TransformProduct converts a product node to a catalog item. It never fails:
// a missing description or image connection becomes an empty value.
func (t *Transformer) TransformProduct(node *ProductNode) catalog.Item {
	item := catalog.Item{
		ID:     node.ID,
		Title:  node.Title,
		Handle: node.Handle,
	}
	if node.Description != nil {
		item.Description = *node.Description
	}

	if node.Images != nil {
		for _, edge := range node.Images.Edges {
			if edge.Node == nil || edge.Node.URL == "" {
				continue
			}
			img := catalog.Image{URL: edge.Node.URL}
			if edge.Node.AltText != nil {
				img.AltText = *edge.Node.AltText
			}
			item.Images = append(item.Images, img)
		}
	}
	if len(item.Images) > 0 {
		item.ImageURL = item.Images[0].URL
	}

	return item
}

func malformed(reason string) error {
	return &catalog.FetchError{Op: "transform products", Err: fmt.Errorf("%w: %s", catalog.ErrMalformedResponse, reason)}
}
