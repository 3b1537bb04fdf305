package graph

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/CrowderSoup/wekan-graphql/wekan"
)

// subtasksChecklistTitle is the checklist used as a denormalized view of a
// card's sub-cards: newCards records every child title here, on the parent,
// so a tree can be read at a glance without walking parentId links.
const subtasksChecklistTitle = "SubTasks"

// NewCardInput is one node of a card tree to create. Children address their
// own board/list/swimlane by title, so a tree can span lists.
type NewCardInput struct {
	BoardTitle    string         `mapstructure:"boardTitle"`
	ListTitle     string         `mapstructure:"listTitle"`
	SwimlaneTitle string         `mapstructure:"swimlaneTitle"`
	Title         string         `mapstructure:"title"`
	ParentID      string         `mapstructure:"parentId"`
	Children      []NewCardInput `mapstructure:"children"`
}

// resolveNewCards backs both the newCards and newTree mutations.
func (r *Resolver) resolveNewCards(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.auth(p)
	if err != nil {
		return nil, err
	}
	var input NewCardInput
	if err := mapstructure.Decode(p.Args["input"], &input); err != nil {
		return nil, errors.Wrap(err, "decoding newCards input")
	}
	cardID, err := r.createCardTree(p.Context, auth, input, input.ParentID)
	if err != nil {
		r.log.WithError(err).Error("newCards failed")
		return nil, err
	}
	return cardID, nil
}

// createCardTree creates a card and, recursively, its children.
//
// The create is idempotent on (list, title): when a card with the given
// title already exists under the list it is reused instead of duplicated.
// Board, list and swimlane must pre-exist; resolving any of them by title
// fails the whole mutation. Children are created sequentially because each
// child's duplicate check must observe its older siblings; there is no
// rollback if a step fails partway.
func (r *Resolver) createCardTree(ctx context.Context, auth wekan.Auth, in NewCardInput, parentID string) (string, error) {
	board, err := r.boardByTitle(ctx, auth, in.BoardTitle)
	if err != nil {
		return "", err
	}
	list, err := r.listByTitle(ctx, board, in.ListTitle)
	if err != nil {
		return "", err
	}
	swimlaneTitle := in.SwimlaneTitle
	if swimlaneTitle == "" {
		swimlaneTitle = "Default"
	}
	swimlane, err := r.swimlaneByTitle(ctx, board, swimlaneTitle)
	if err != nil {
		return "", err
	}

	var cardID string
	existing, err := r.cardByTitle(ctx, list, in.Title)
	if err != nil {
		return "", err
	}
	if existing != nil {
		cardID = existing.ID
	}
	if cardID == "" {
		cardID, err = r.client.PostCard(ctx, auth, board.ID, list.ID, swimlane.ID, parentID, in.Title)
		if err != nil {
			return "", err
		}
		// The creation endpoint drops parentId and members; they have to be
		// asserted in a follow-up update.
		_, err = r.client.PutCard(ctx, auth, board.ID, list.ID, cardID, map[string]interface{}{
			"_id":      cardID,
			"parentId": parentID,
			"members":  []string{},
		})
		if err != nil {
			return "", err
		}
	}

	for _, child := range in.Children {
		if _, err := r.createCardTree(ctx, auth, child, cardID); err != nil {
			return "", err
		}
		if err := r.setChecklistItem(ctx, auth, board.ID, cardID, subtasksChecklistTitle, child.Title, false); err != nil {
			return "", err
		}
	}
	return cardID, nil
}

func (r *Resolver) resolveUpdateCard(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.auth(p)
	if err != nil {
		return nil, err
	}
	fields, ok := p.Args["card"].(map[string]interface{})
	if !ok {
		return nil, errors.New("updateCard: missing card input")
	}
	cardID, _ := fields["_id"].(string)
	if cardID == "" {
		return nil, errors.New("updateCard: card input needs an _id")
	}
	id, err := r.updateCard(p.Context, auth, stringArg(p, "boardTitle"), stringArg(p, "listTitle"), cardID, fields)
	if err != nil {
		r.log.WithError(err).Error("updateCard failed")
		return nil, err
	}
	return id, nil
}

// updateCard resolves the board and list by title and issues a field-merge
// update with exactly the caller-supplied fields.
func (r *Resolver) updateCard(ctx context.Context, auth wekan.Auth, boardTitle, listTitle, cardID string, fields map[string]interface{}) (string, error) {
	board, err := r.boardByTitle(ctx, auth, boardTitle)
	if err != nil {
		return "", err
	}
	list, err := r.listByTitle(ctx, board, listTitle)
	if err != nil {
		return "", err
	}
	return r.client.PutCard(ctx, auth, board.ID, list.ID, cardID, fields)
}

func (r *Resolver) resolveSetParentID(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.auth(p)
	if err != nil {
		return nil, err
	}
	cardID := stringArg(p, "cardId")
	fields := map[string]interface{}{
		"_id":      cardID,
		"parentId": stringArg(p, "parentId"),
	}
	id, err := r.updateCard(p.Context, auth, stringArg(p, "boardTitle"), stringArg(p, "listTitle"), cardID, fields)
	if err != nil {
		r.log.WithError(err).Error("setParentId failed")
		return nil, err
	}
	return id, nil
}

func (r *Resolver) resolveSetChecklistItem(p graphql.ResolveParams) (interface{}, error) {
	auth, err := r.auth(p)
	if err != nil {
		return nil, err
	}
	err = r.setChecklistItem(p.Context, auth,
		stringArg(p, "boardId"), stringArg(p, "cardId"),
		stringArg(p, "checkListTitle"), stringArg(p, "itemTitle"),
		boolArg(p, "isFinished"))
	if err != nil {
		r.log.WithError(err).Error("setCheckListItem failed")
		return nil, err
	}
	return true, nil
}

// setChecklistItem upserts one checklist item, addressed by title. Three
// states:
//
//   - no checklist with that title: create one holding just the new item;
//   - checklist exists and contains the item (by title): update it in place;
//   - checklist exists but lacks the item: Wekan has no single-item append,
//     so rebuild — create a new checklist with the old items plus the new
//     one, delete the old checklist, then re-assert every old item's
//     finished flag against the rebuilt checklist. The re-assertion guards
//     against Wekan reassigning item ids and fields on recreation.
//
// Each recursive re-assertion finds its item already present in the new
// checklist, so it degrades to the in-place update and terminates. Cost is
// O(k) remote calls per insertion into a checklist of k items.
func (r *Resolver) setChecklistItem(ctx context.Context, auth wekan.Auth, boardID, cardID, checklistTitle, itemTitle string, isFinished bool) error {
	stubs, err := r.client.Checklists(ctx, auth, boardID, cardID)
	if err != nil {
		return err
	}
	var stub *wekan.ChecklistStub
	for i := range stubs {
		if stubs[i].Title == checklistTitle {
			stub = &stubs[i]
			break
		}
	}

	newItem := wekan.ChecklistItem{Title: itemTitle, IsFinished: isFinished}
	if stub == nil {
		_, err := r.client.PostChecklist(ctx, auth, boardID, cardID, checklistTitle, []wekan.ChecklistItem{newItem})
		return err
	}

	old, err := r.client.Checklist(ctx, auth, boardID, cardID, stub.ID)
	if err != nil {
		return err
	}
	if item := old.FindItem(itemTitle); item != nil {
		return r.client.PutChecklistItem(ctx, auth, boardID, cardID, old.ID, item.ID, itemTitle, isFinished)
	}

	items := append(append([]wekan.ChecklistItem{}, old.Items...), newItem)
	if _, err := r.client.PostChecklist(ctx, auth, boardID, cardID, checklistTitle, items); err != nil {
		return err
	}
	if err := r.client.DeleteChecklist(ctx, auth, boardID, cardID, old.ID); err != nil {
		return err
	}
	for _, item := range old.Items {
		if err := r.setChecklistItem(ctx, auth, boardID, cardID, checklistTitle, item.Title, item.IsFinished); err != nil {
			return err
		}
	}
	return nil
}
