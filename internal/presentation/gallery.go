package presentation

import (
	"fmt"
	"strconv"

	"productpager/internal/catalog"
)

// GalleryMode decides how many cards a product contributes to the gallery.
type GalleryMode string

const (
	// GalleryPerProduct renders one card per product using its first image.
	GalleryPerProduct GalleryMode = "product"
	// GalleryPerImage renders one card per product image.
	GalleryPerImage GalleryMode = "image"
)

func ParseGalleryMode(s string) (GalleryMode, error) {
	switch GalleryMode(s) {
	case GalleryPerProduct, GalleryPerImage:
		return GalleryMode(s), nil
	case "":
		return GalleryPerProduct, nil
	}
	return "", fmt.Errorf("unknown gallery mode %q", s)
}

// Card is one gallery tile.
type Card struct {
	Key         string
	ProductID   string
	Title       string
	Description string
	ImageURL    string
	AltText     string
}

// CardsFor maps an item to its gallery cards. Every item yields at least one
// card: a product without images gets a card with an empty image URL.
func CardsFor(item catalog.Item, mode GalleryMode) []Card {
	images := item.Images
	if len(images) == 0 && item.ImageURL != "" {
		images = []catalog.Image{{URL: item.ImageURL}}
	}

	if mode != GalleryPerImage || len(images) <= 1 {
		card := baseCard(item, 0)
		if len(images) > 0 {
			card.ImageURL = images[0].URL
			card.AltText = altText(images[0], 0)
		}
		return []Card{card}
	}

	cards := make([]Card, 0, len(images))
	for i, img := range images {
		card := baseCard(item, i)
		card.ImageURL = img.URL
		card.AltText = altText(img, i)
		cards = append(cards, card)
	}
	return cards
}

// BuildGallery flattens items into cards, preserving item order.
func BuildGallery(items []catalog.Item, mode GalleryMode) []Card {
	cards := make([]Card, 0, len(items))
	for _, item := range items {
		cards = append(cards, CardsFor(item, mode)...)
	}
	return cards
}

func baseCard(item catalog.Item, index int) Card {
	return Card{
		Key:         item.ID + "#" + strconv.Itoa(index),
		ProductID:   item.ID,
		Title:       item.Title,
		Description: item.Description,
		AltText:     "image" + strconv.Itoa(index),
	}
}

func altText(img catalog.Image, index int) string {
	if img.AltText != "" {
		return img.AltText
	}
	return "image" + strconv.Itoa(index)
}
