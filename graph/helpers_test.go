package graph

import (
	"context"
	"io"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/CrowderSoup/wekan-graphql/wekan"
	"github.com/CrowderSoup/wekan-graphql/wekan/wekantest"
)

// newTestSchema wires a schema to a fake Wekan server and returns a context
// pre-authenticated against it.
func newTestSchema(t *testing.T, srv *wekantest.Server) (graphql.Schema, context.Context) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	client := wekan.NewClient(srv.URL(), log)
	schema, err := NewSchema(NewResolver(client, log))
	require.NoError(t, err)

	ctx := WithAuth(context.Background(), wekan.Auth{UserID: srv.UserID, Token: srv.Token})
	return schema, ctx
}

// exec runs a query that must succeed and returns its data.
func exec(t *testing.T, schema graphql.Schema, ctx context.Context, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	res := graphql.Do(graphql.Params{
		Schema:         schema,
		Context:        ctx,
		RequestString:  query,
		VariableValues: vars,
	})
	require.Empty(t, res.Errors, "query failed: %v", res.Errors)
	return res.Data.(map[string]interface{})
}

// execErr runs a query expected to fail and returns its first error message.
func execErr(t *testing.T, schema graphql.Schema, ctx context.Context, query string, vars map[string]interface{}) string {
	t.Helper()
	res := graphql.Do(graphql.Params{
		Schema:         schema,
		Context:        ctx,
		RequestString:  query,
		VariableValues: vars,
	})
	require.NotEmpty(t, res.Errors, "expected errors, got data: %v", res.Data)
	return res.Errors[0].Message
}

// dig walks nested result maps.
func dig(t *testing.T, data map[string]interface{}, path ...string) interface{} {
	t.Helper()
	var cur interface{} = data
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		require.True(t, ok, "expected map at %q, got %T", key, cur)
		cur = m[key]
	}
	return cur
}
