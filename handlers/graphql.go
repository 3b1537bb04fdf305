// Package handlers wires the GraphQL schema to HTTP.
package handlers

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// NewGraphQLHandler serves the schema with GraphiQL enabled for interactive
// exploration.
func NewGraphQLHandler(schema *graphql.Schema) http.Handler {
	return handler.New(&handler.Config{
		Schema:   schema,
		Pretty:   true,
		GraphiQL: true,
	})
}
