package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productpager/internal/catalog"
	"productpager/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionStore_SaveAndFind(t *testing.T) {
	store := NewSessionStore(newTestDatabase(t))
	ctx := context.Background()

	_, err := store.FindByShop(ctx, "acme.myshopify.com")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, &models.Session{Shop: "acme.myshopify.com", AccessToken: "t1", Scope: "read_products"}))

	session, err := store.FindByShop(ctx, "acme.myshopify.com")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "t1", session.AccessToken)
}

func TestSessionStore_SaveReplacesToken(t *testing.T) {
	store := NewSessionStore(newTestDatabase(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.Session{Shop: "acme.myshopify.com", AccessToken: "t1"}))
	require.NoError(t, store.Save(ctx, &models.Session{Shop: "acme.myshopify.com", AccessToken: "t2", Scope: "write_products"}))

	session, err := store.FindByShop(ctx, "acme.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "t2", session.AccessToken)
	assert.Equal(t, "write_products", session.Scope)

	require.NoError(t, store.Delete(ctx, "acme.myshopify.com"))
	_, err = store.FindByShop(ctx, "acme.myshopify.com")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBulkActionStore_Lifecycle(t *testing.T) {
	store := NewBulkActionStore(newTestDatabase(t))
	ctx := context.Background()

	action := &models.BulkAction{
		Shop:       "acme.myshopify.com",
		Kind:       catalog.ActionAddTags,
		ProductIDs: []string{"gid://shopify/Product/1", "gid://shopify/Product/2"},
	}
	require.NoError(t, store.Create(ctx, action))
	assert.NotEmpty(t, action.ID)
	assert.Equal(t, models.BulkActionStatusQueued, action.Status)

	got, err := store.Get(ctx, "acme.myshopify.com", action.ID)
	require.NoError(t, err)
	assert.Equal(t, action.ProductIDs, got.ProductIDs)
	assert.Equal(t, catalog.ActionAddTags, got.Kind)

	_, err = store.Get(ctx, "other.myshopify.com", action.ID)
	assert.ErrorIs(t, err, ErrBulkActionNotFound)

	require.NoError(t, store.MarkCompleted(ctx, action.ID))
	got, err = store.Get(ctx, "acme.myshopify.com", action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BulkActionStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestBulkActionStore_MarkFailed(t *testing.T) {
	store := NewBulkActionStore(newTestDatabase(t))
	ctx := context.Background()

	action := &models.BulkAction{Shop: "acme.myshopify.com", Kind: catalog.ActionDeleteProducts, ProductIDs: []string{"1"}}
	require.NoError(t, store.Create(ctx, action))

	require.NoError(t, store.MarkFailed(ctx, action.ID, errors.New("product locked")))

	got, err := store.Get(ctx, "acme.myshopify.com", action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BulkActionStatusFailed, got.Status)
	assert.Equal(t, "product locked", got.Error)

	assert.ErrorIs(t, store.MarkCompleted(ctx, "missing"), ErrBulkActionNotFound)
}
