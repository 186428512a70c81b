package shopify

// productsQuery serves both product views. Page size and image count are
// variables so the list and gallery routes share one typed response.
const productsQuery = `query ProductPage($first: Int!, $after: String, $imagesFirst: Int!) {
  products(first: $first, after: $after) {
    edges {
      cursor
      node {
        id
        title
        description
        handle
        images(first: $imagesFirst) {
          edges {
            node {
              url
              altText
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`
