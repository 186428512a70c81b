package shopify

import (
	"encoding/json"
	"strings"
)

// GraphQLRequest is the body posted to the Admin GraphQL endpoint.
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse wraps the data payload and any top-level errors.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors GraphQLErrors   `json:"errors,omitempty"`
}

// GraphQLError is one entry of the errors array.
type GraphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Throttled reports whether Shopify rejected the query for cost reasons.
func (e GraphQLErrors) Throttled() bool {
	for _, ge := range e {
		if ge.Extensions.Code == "THROTTLED" {
			return true
		}
	}
	return false
}

// Unauthorized reports whether any error carries an access-denied code.
func (e GraphQLErrors) Unauthorized() bool {
	for _, ge := range e {
		switch ge.Extensions.Code {
		case "ACCESS_DENIED", "UNAUTHORIZED":
			return true
		}
	}
	return false
}

// ProductsData is the data payload of the products query. Optional fields are
// pointers so a missing connection can be told apart from an empty one.
type ProductsData struct {
	Products *ProductConnection `json:"products"`
}

type ProductConnection struct {
	Edges    []ProductEdge `json:"edges"`
	PageInfo *PageInfo     `json:"pageInfo"`
}

type ProductEdge struct {
	Cursor string       `json:"cursor"`
	Node   *ProductNode `json:"node"`
}

type ProductNode struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Handle      string           `json:"handle"`
	Images      *ImageConnection `json:"images"`
}

type ImageConnection struct {
	Edges []ImageEdge `json:"edges"`
}

type ImageEdge struct {
	Node *ImageNode `json:"node"`
}

type ImageNode struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
}

type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// TokenResponse is the OAuth access token exchange payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}
