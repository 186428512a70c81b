package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockExecutor is a mock implementation of QueryExecutor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) ListProducts(ctx context.Context, after string) (*Page, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Page), args.Error(1)
}

func TestLoader_LoadFirstPage(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "").
		Return(&Page{Items: items("A", "B"), HasNextPage: true, EndCursor: "c2"}, nil).Once()

	resp := NewLoader(exec).Load(context.Background(), "")

	require.NoError(t, resp.Err())
	assert.Equal(t, []string{"A", "B"}, ids(resp.Items))
	assert.True(t, resp.HasNextPage)
	require.NotNil(t, resp.EndCursor)
	assert.Equal(t, "c2", *resp.EndCursor)
	assert.Empty(t, resp.Error)
	exec.AssertExpectations(t)
}

func TestLoader_LoadPassesCursor(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "c5").
		Return(&Page{Items: items("F")}, nil).Once()

	resp := NewLoader(exec).Load(context.Background(), "c5")

	require.NoError(t, resp.Err())
	assert.False(t, resp.HasNextPage)
	assert.Nil(t, resp.EndCursor)
	exec.AssertExpectations(t)
}

func TestLoader_FailureBecomesEmptyResponse(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "").
		Return(nil, errors.New("upstream unavailable")).Once()

	resp := NewLoader(exec).Load(context.Background(), "")

	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.False(t, resp.HasNextPage)
	assert.Contains(t, resp.Error, "upstream unavailable")

	var fe *FetchError
	require.ErrorAs(t, resp.Err(), &fe)
	assert.Equal(t, "list products", fe.Op)
}

func TestLoader_AuthFailureIsNotWrapped(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "").Return(nil, ErrAuth).Once()

	resp := NewLoader(exec).Load(context.Background(), "")

	assert.ErrorIs(t, resp.Err(), ErrAuth)
	var fe *FetchError
	assert.False(t, errors.As(resp.Err(), &fe))
}

func TestLoader_NilPageIsMalformed(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "").Return(nil, nil).Once()

	resp := NewLoader(exec).Load(context.Background(), "")

	assert.ErrorIs(t, resp.Err(), ErrMalformedResponse)
	assert.Empty(t, resp.Items)
}

func TestLoader_DeadlineIsTimeout(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "").Return(nil, context.DeadlineExceeded).Once()

	resp := NewLoader(exec).Load(context.Background(), "")

	assert.True(t, IsTimeout(resp.Err()))
}

func TestLoader_FetchPageAdapter(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("ListProducts", mock.Anything, "c1").
		Return(&Page{Items: items("B"), HasNextPage: true, EndCursor: "c2"}, nil).Once()
	exec.On("ListProducts", mock.Anything, "c2").
		Return(nil, errors.New("boom")).Once()

	loader := NewLoader(exec)

	page, err := loader.FetchPage(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c2", page.EndCursor)

	page, err = loader.FetchPage(context.Background(), "c2")
	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestResponse_JSONShape(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "last page has null cursor",
			resp: NewResponse(Page{Items: items("A")}),
			want: `{"items":[{"id":"A","title":"Product A","description":"","imageUrl":""}],"hasNextPage":false,"endCursor":null}`,
		},
		{
			name: "more pages carry the cursor",
			resp: NewResponse(Page{HasNextPage: true, EndCursor: "abc"}),
			want: `{"items":[],"hasNextPage":true,"endCursor":"abc"}`,
		},
		{
			name: "zero value keeps empty items",
			resp: Response{},
			want: `{"items":[],"hasNextPage":false,"endCursor":null}`,
		},
		{
			name: "failure carries error text",
			resp: FailedResponse(errors.New("bad gateway")),
			want: `{"items":[],"hasNextPage":false,"endCursor":null,"error":"bad gateway"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestResponse_DecodedErrorSurvives(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"items":[],"hasNextPage":false,"endCursor":null,"error":"timed out"}`), &resp))

	err := resp.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
