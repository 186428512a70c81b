// Package presentation turns accumulated catalog items into what the product
// views render: list rows, gallery cards and bulk-action feedback.
package presentation

import "productpager/internal/catalog"

// Row is one entry of the product list view.
type Row struct {
	ID                 string
	Title              string
	Description        string
	ImageURL           string
	AccessibilityLabel string
	Selected           bool
}

// RowFor maps an item to a list row. ImageURL is empty when the item has no
// image.
func RowFor(item catalog.Item) Row {
	row := Row{
		ID:                 item.ID,
		Title:              item.Title,
		Description:        item.Description,
		AccessibilityLabel: "View details for " + item.Title,
	}
	if img, ok := item.PrimaryImage(); ok {
		row.ImageURL = img.URL
	}
	return row
}
