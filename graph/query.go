package graph

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/CrowderSoup/wekan-graphql/wekan"
)

// resolveAuthorize exchanges credentials for a bearer token.
func (r *Resolver) resolveAuthorize(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.client.Authorize(p.Context, stringArg(p, "user"), stringArg(p, "password"))
	if err != nil {
		return nil, err
	}
	return Authorization{UserID: auth.UserID, Token: auth.Token}, nil
}

func (r *Resolver) resolveBoards(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.auth(p)
	if err != nil {
		return nil, err
	}
	return r.boards(p.Context, auth)
}

// resolveBoard looks a board up by title (exact match, hard error on miss)
// or by id (absent result on miss).
func (r *Resolver) resolveBoard(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.auth(p)
	if err != nil {
		return nil, err
	}
	if title := stringArg(p, "title"); title != "" {
		return r.boardByTitle(p.Context, auth, title)
	}
	if id := stringArg(p, "_id"); id != "" {
		boards, err := r.boards(p.Context, auth)
		if err != nil {
			return nil, err
		}
		for _, b := range boards {
			if b.ID == id {
				return b, nil
			}
		}
	}
	return nil, nil
}

func (r *Resolver) resolveBoardLists(p graphql.ResolveParams) (interface{}, error) {
	board := p.Source.(*Board)
	return r.lists(p.Context, board)
}

func (r *Resolver) resolveBoardList(p graphql.ResolveParams) (interface{}, error) {
	board := p.Source.(*Board)
	if title := stringArg(p, "title"); title != "" {
		return r.listByTitle(p.Context, board, title)
	}
	return r.listByID(p.Context, board, stringArg(p, "_id"))
}

func (r *Resolver) resolveBoardSwimlanes(p graphql.ResolveParams) (interface{}, error) {
	board := p.Source.(*Board)
	return r.swimlanes(p.Context, board)
}

func (r *Resolver) resolveBoardSwimlane(p graphql.ResolveParams) (interface{}, error) {
	board := p.Source.(*Board)
	if title := stringArg(p, "title"); title != "" {
		return r.swimlaneByTitle(p.Context, board, title)
	}
	return r.swimlaneByID(p.Context, board, stringArg(p, "_id"))
}

func (r *Resolver) resolveListCards(p graphql.ResolveParams) (interface{}, error) {
	list := p.Source.(*List)
	return r.cards(p.Context, list)
}

// resolveListCard prefers the title lookup when both arguments are given.
// Title misses are absent results, not errors: mutation orchestrators rely
// on this to detect whether a card already exists.
func (r *Resolver) resolveListCard(p graphql.ResolveParams) (interface{}, error) {
	list := p.Source.(*List)
	if title := stringArg(p, "title"); title != "" {
		card, err := r.cardByTitle(p.Context, list, title)
		if err != nil || card == nil {
			return nil, err
		}
		return card, nil
	}
	id := stringArg(p, "_id")
	if id == "" {
		return nil, nil
	}
	return r.cardDetail(p.Context, list, id)
}

func (r *Resolver) resolveSwimlaneCards(p graphql.ResolveParams) (interface{}, error) {
	sw := p.Source.(*Swimlane)
	stubs, err := r.client.SwimlaneCards(p.Context, sw.Board.auth, sw.Board.ID, sw.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Card, len(stubs))
	for i, stub := range stubs {
		out[i] = &Card{
			Card: wekan.Card{
				ID:          stub.ID,
				Title:       stub.Title,
				Description: stub.Description,
				ListID:      stub.ListID,
			},
			Board: sw.Board,
		}
	}
	return out, nil
}

func (r *Resolver) resolveCardList(p graphql.ResolveParams) (interface{}, error) {
	card := p.Source.(*Card)
	if card.List != nil {
		return card.List, nil
	}
	return r.listByID(p.Context, card.Board, card.ListID)
}

// resolveCardSwimlane re-resolves the swimlane from its id on the card; an
// id no longer present on the board yields an absent result.
func (r *Resolver) resolveCardSwimlane(p graphql.ResolveParams) (interface{}, error) {
	card := p.Source.(*Card)
	if card.SwimlaneID == "" {
		return nil, nil
	}
	return r.swimlaneByID(p.Context, card.Board, card.SwimlaneID)
}

func (r *Resolver) resolveCardChecklists(p graphql.ResolveParams) (interface{}, error) {
	card := p.Source.(*Card)
	return r.checklists(p.Context, card.Board.auth, card.Board.ID, card.ID)
}

// boards lists all boards visible to the user.
func (r *Resolver) boards(ctx context.Context, auth wekan.Auth) ([]*Board, error) {
	stubs, err := r.client.Boards(ctx, auth)
	if err != nil {
		return nil, err
	}
	out := make([]*Board, len(stubs))
	for i, stub := range stubs {
		out[i] = &Board{ID: stub.ID, Title: stub.Title, auth: auth}
	}
	return out, nil
}

// boardByTitle finds a board by exact title. First match wins; a miss is a
// hard failure because mutations depend on the board pre-existing.
func (r *Resolver) boardByTitle(ctx context.Context, auth wekan.Auth, title string) (*Board, error) {
	boards, err := r.boards(ctx, auth)
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		if b.Title == title {
			return b, nil
		}
	}
	return nil, errors.Errorf("board not found: %s", title)
}

func (r *Resolver) lists(ctx context.Context, board *Board) ([]*List, error) {
	stubs, err := r.client.Lists(ctx, board.auth, board.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*List, len(stubs))
	for i, stub := range stubs {
		out[i] = &List{ID: stub.ID, Title: stub.Title, Board: board}
	}
	return out, nil
}

func (r *Resolver) listByTitle(ctx context.Context, board *Board, title string) (*List, error) {
	lists, err := r.lists(ctx, board)
	if err != nil {
		return nil, err
	}
	for _, l := range lists {
		if l.Title == title {
			return l, nil
		}
	}
	return nil, errors.Errorf("list not found: %s", title)
}

func (r *Resolver) listByID(ctx context.Context, board *Board, id string) (*List, error) {
	if id == "" {
		return nil, nil
	}
	lists, err := r.lists(ctx, board)
	if err != nil {
		return nil, err
	}
	for _, l := range lists {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

func (r *Resolver) swimlanes(ctx context.Context, board *Board) ([]*Swimlane, error) {
	stubs, err := r.client.Swimlanes(ctx, board.auth, board.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Swimlane, len(stubs))
	for i, stub := range stubs {
		out[i] = &Swimlane{ID: stub.ID, Title: stub.Title, Board: board}
	}
	return out, nil
}

func (r *Resolver) swimlaneByTitle(ctx context.Context, board *Board, title string) (*Swimlane, error) {
	swimlanes, err := r.swimlanes(ctx, board)
	if err != nil {
		return nil, err
	}
	for _, sw := range swimlanes {
		if sw.Title == title {
			return sw, nil
		}
	}
	return nil, errors.Errorf("swimlane not found: %s", title)
}

func (r *Resolver) swimlaneByID(ctx context.Context, board *Board, id string) (*Swimlane, error) {
	if id == "" {
		return nil, nil
	}
	swimlanes, err := r.swimlanes(ctx, board)
	if err != nil {
		return nil, err
	}
	for _, sw := range swimlanes {
		if sw.ID == id {
			return sw, nil
		}
	}
	return nil, nil
}

// cardDetail fetches the full card and attaches the back-references of the
// list it was reached through.
func (r *Resolver) cardDetail(ctx context.Context, list *List, cardID string) (*Card, error) {
	detail, err := r.client.Card(ctx, list.Board.auth, list.Board.ID, list.ID, cardID)
	if err != nil {
		return nil, err
	}
	return &Card{Card: detail, Board: list.Board, List: list}, nil
}

// cards widens the one-to-many edge of a list: it fetches the stub listing,
// then the full detail of every stub in parallel. Results are written
// positionally so the output order matches the stub order regardless of
// completion order.
func (r *Resolver) cards(ctx context.Context, list *List) ([]*Card, error) {
	stubs, err := r.client.Cards(ctx, list.Board.auth, list.Board.ID, list.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Card, len(stubs))
	g, ctx := errgroup.WithContext(ctx)
	for i, stub := range stubs {
		i, stub := i, stub
		g.Go(func() error {
			card, err := r.cardDetail(ctx, list, stub.ID)
			if err != nil {
				return err
			}
			out[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cardByTitle scans the cards of a list for an exact title match. A miss is
// an absent result, not an error.
func (r *Resolver) cardByTitle(ctx context.Context, list *List, title string) (*Card, error) {
	stubs, err := r.client.Cards(ctx, list.Board.auth, list.Board.ID, list.ID)
	if err != nil {
		return nil, err
	}
	for _, stub := range stubs {
		if stub.Title == title {
			return r.cardDetail(ctx, list, stub.ID)
		}
	}
	return nil, nil
}

// checklists fetches every checklist of a card in parallel, preserving the
// stub order.
func (r *Resolver) checklists(ctx context.Context, auth wekan.Auth, boardID, cardID string) ([]wekan.Checklist, error) {
	stubs, err := r.client.Checklists(ctx, auth, boardID, cardID)
	if err != nil {
		return nil, err
	}
	out := make([]wekan.Checklist, len(stubs))
	g, ctx := errgroup.WithContext(ctx)
	for i, stub := range stubs {
		i, stub := i, stub
		g.Go(func() error {
			cl, err := r.client.Checklist(ctx, auth, boardID, cardID, stub.ID)
			if err != nil {
				return err
			}
			out[i] = cl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
