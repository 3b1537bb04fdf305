// Package graph exposes the Wekan hierarchy (boards, lists, swimlanes,
// cards, checklists) as a GraphQL schema. Entities are request-scoped
// projections of remote state: nothing is cached between resolutions, the
// remote service stays authoritative.
package graph

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CrowderSoup/wekan-graphql/wekan"
)

// Resolver holds the collaborators shared by every resolve function.
type Resolver struct {
	client *wekan.Client
	log    *logrus.Logger
}

// NewResolver returns a resolver backed by the given Wekan client.
func NewResolver(client *wekan.Client, log *logrus.Logger) *Resolver {
	return &Resolver{client: client, log: log}
}

// Authorization is the result of the authorize query.
type Authorization struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// Board is the root of the entity hierarchy. It carries the credentials it
// was resolved with, so nested field resolvers can re-resolve children
// without any shared mutable state.
type Board struct {
	ID    string `json:"_id"`
	Title string `json:"title"`

	auth wekan.Auth
}

// List is a board column. Board is a back-reference, never an ownership
// edge: each fetch re-resolves children from the remote side.
type List struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Board *Board `json:"-"`
}

// Swimlane is a board row.
type Swimlane struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Board *Board `json:"-"`
}

// Card is a full card projection plus the back-references needed to resolve
// its nested fields. Cards resolved through a swimlane are stubs: only id,
// title, description and ListID are populated until a detail fetch.
type Card struct {
	wekan.Card
	Board *Board
	List  *List
}

type ctxKey string

const authContextKey ctxKey = "wekanAuth"

// WithAuth returns a context carrying the given credentials.
func WithAuth(ctx context.Context, auth wekan.Auth) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext extracts credentials previously stored with WithAuth.
func AuthFromContext(ctx context.Context) (wekan.Auth, bool) {
	auth, ok := ctx.Value(authContextKey).(wekan.Auth)
	return auth, ok
}

// auth resolves the credentials for a root field: an explicit auth argument
// wins over the per-request context. The context value is never mutated.
func (r *Resolver) auth(p graphql.ResolveParams) (wekan.Auth, error) {
	if raw, ok := p.Args["auth"].(map[string]interface{}); ok {
		var in struct {
			UserID string `mapstructure:"userId"`
			Token  string `mapstructure:"token"`
		}
		if err := mapstructure.Decode(raw, &in); err != nil {
			return wekan.Auth{}, errors.Wrap(err, "decoding auth argument")
		}
		return wekan.Auth{UserID: in.UserID, Token: in.Token}, nil
	}
	if auth, ok := AuthFromContext(p.Context); ok {
		return auth, nil
	}
	return wekan.Auth{}, errors.New("not authorized: pass an auth argument or an Authorization header")
}

func stringArg(p graphql.ResolveParams, name string) string {
	if v, ok := p.Args[name].(string); ok {
		return v
	}
	return ""
}

func boolArg(p graphql.ResolveParams, name string) bool {
	v, _ := p.Args[name].(bool)
	return v
}
