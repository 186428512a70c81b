package shopify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"productpager/internal/catalog"
)

// MockDoer is a mock implementation of GraphQLDoer
type MockDoer struct {
	mock.Mock
	body string
}

func (m *MockDoer) Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	args := m.Called(ctx, query, variables)
	if m.body != "" {
		if err := json.Unmarshal([]byte(m.body), out); err != nil {
			return err
		}
	}
	return args.Error(0)
}

const productsData = `{
  "products": {
    "edges": [
      {"cursor": "c1", "node": {"id": "gid://shopify/Product/1", "title": "Hat", "description": "Warm", "handle": "hat",
        "images": {"edges": [{"node": {"url": "https://cdn.example/hat.png", "altText": "A hat"}}]}}}
    ],
    "pageInfo": {"hasNextPage": false, "endCursor": "c1"}
  }
}`

func TestProductQuery_FirstPageSendsNullCursor(t *testing.T) {
	doer := &MockDoer{body: productsData}
	doer.On("Do", mock.Anything, productsQuery, map[string]interface{}{
		"first":       5,
		"imagesFirst": 1,
		"after":       nil,
	}).Return(nil).Once()

	page, err := NewListQuery(doer, 5).ListProducts(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "gid://shopify/Product/1", page.Items[0].ID)
	assert.Equal(t, "https://cdn.example/hat.png", page.Items[0].ImageURL)
	assert.False(t, page.HasNextPage)
	doer.AssertExpectations(t)
}

func TestProductQuery_GalleryPassesCursorAndImageCount(t *testing.T) {
	doer := &MockDoer{body: productsData}
	doer.On("Do", mock.Anything, productsQuery, map[string]interface{}{
		"first":       10,
		"imagesFirst": 4,
		"after":       "c10",
	}).Return(nil).Once()

	q := NewGalleryQuery(doer, 10, 4)
	_, err := q.ListProducts(context.Background(), "c10")

	require.NoError(t, err)
	assert.Equal(t, catalog.ViewGallery, q.View())
	assert.Equal(t, 10, q.PageSize())
	doer.AssertExpectations(t)
}

func TestProductQuery_PropagatesClientError(t *testing.T) {
	doer := &MockDoer{}
	doer.On("Do", mock.Anything, mock.Anything, mock.Anything).Return(catalog.ErrAuth).Once()

	page, err := NewListQuery(doer, 5).ListProducts(context.Background(), "")

	assert.Nil(t, page)
	assert.ErrorIs(t, err, catalog.ErrAuth)
}

func TestProductQuery_MissingConnectionIsMalformed(t *testing.T) {
	doer := &MockDoer{body: `{"products": null}`}
	doer.On("Do", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := NewListQuery(doer, 5).ListProducts(context.Background(), "")

	assert.ErrorIs(t, err, catalog.ErrMalformedResponse)
}
