package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrowderSoup/wekan-graphql/wekan/wekantest"
)

const newCardsMutation = `mutation($input: newCardInput!){newCards(input:$input)}`

func cardTree(title string, children ...map[string]interface{}) map[string]interface{} {
	input := map[string]interface{}{
		"boardTitle": "B",
		"listTitle":  "L",
		"title":      title,
	}
	if len(children) > 0 {
		input["children"] = children
	}
	return input
}

func TestNewCardsCreatesTree(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	srv.AddSwimlane(board, "Default")

	schema, ctx := newTestSchema(t, srv)
	data := exec(t, schema, ctx, newCardsMutation, map[string]interface{}{
		"input": cardTree("Parent", cardTree("Child")),
	})

	parentID, ok := data["newCards"].(string)
	require.True(t, ok, "newCards should return the root card id, got %v", data["newCards"])

	parents := srv.CardsByTitle(board.ID, list.ID, "Parent")
	require.Len(t, parents, 1)
	assert.Equal(t, parentID, parents[0].ID)
	assert.Equal(t, "", parents[0].ParentID)

	children := srv.CardsByTitle(board.ID, list.ID, "Child")
	require.Len(t, children, 1)
	assert.Equal(t, parentID, children[0].ParentID)

	// the tree is denormalized into a SubTasks checklist on the parent
	subtasks := srv.ChecklistByTitle(board.ID, parentID, "SubTasks")
	require.NotNil(t, subtasks)
	require.Len(t, subtasks.Items, 1)
	assert.Equal(t, "Child", subtasks.Items[0].Title)
	assert.False(t, subtasks.Items[0].IsFinished)
}

func TestNewCardsIsIdempotent(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	srv.AddSwimlane(board, "Default")

	schema, ctx := newTestSchema(t, srv)
	vars := map[string]interface{}{"input": cardTree("Parent", cardTree("Child"))}

	first := exec(t, schema, ctx, newCardsMutation, vars)
	second := exec(t, schema, ctx, newCardsMutation, vars)
	assert.Equal(t, first["newCards"], second["newCards"])

	assert.Len(t, srv.CardsByTitle(board.ID, list.ID, "Parent"), 1)
	assert.Len(t, srv.CardsByTitle(board.ID, list.ID, "Child"), 1)

	parentID := first["newCards"].(string)
	subtasks := srv.ChecklistByTitle(board.ID, parentID, "SubTasks")
	require.NotNil(t, subtasks)
	assert.Len(t, subtasks.Items, 1)
}

func TestNewCardsUsesNamedSwimlane(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	srv.AddSwimlane(board, "Default")
	lane := srv.AddSwimlane(board, "Urgent")

	schema, ctx := newTestSchema(t, srv)
	input := cardTree("Hot")
	input["swimlaneTitle"] = "Urgent"
	data := exec(t, schema, ctx, newCardsMutation, map[string]interface{}{"input": input})

	card := srv.CardByID(board.ID, data["newCards"].(string))
	require.NotNil(t, card)
	assert.Equal(t, lane.ID, card.SwimlaneID)
	assert.Equal(t, list.ID, card.ListID)
}

func TestNewCardsRequiresExistingEntities(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	srv.AddList(board, "L")
	// no swimlane at all

	schema, ctx := newTestSchema(t, srv)

	msg := execErr(t, schema, ctx, newCardsMutation, map[string]interface{}{
		"input": map[string]interface{}{"boardTitle": "Missing", "listTitle": "L", "title": "X"},
	})
	assert.Contains(t, msg, "board not found: Missing")

	msg = execErr(t, schema, ctx, newCardsMutation, map[string]interface{}{
		"input": cardTree("X"),
	})
	assert.Contains(t, msg, "swimlane not found: Default")
}

const setItemMutation = `mutation($boardId: ID!, $cardId: ID!, $checkList: String!, $item: String!, $done: Boolean!){
	setCheckListItem(boardId:$boardId, cardId:$cardId, checkListTitle:$checkList, itemTitle:$item, isFinished:$done)
}`

func TestSetChecklistItemStates(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	lane := srv.AddSwimlane(board, "Default")
	card := srv.AddCard(board, list.ID, lane.ID, "C")

	schema, ctx := newTestSchema(t, srv)
	set := func(item string, done bool) {
		t.Helper()
		data := exec(t, schema, ctx, setItemMutation, map[string]interface{}{
			"boardId":   board.ID,
			"cardId":    card.ID,
			"checkList": "Tasks",
			"item":      item,
			"done":      done,
		})
		assert.Equal(t, true, data["setCheckListItem"])
	}

	// state A: no checklist yet, one is created with just the item
	set("one", false)
	cl := srv.ChecklistByTitle(board.ID, card.ID, "Tasks")
	require.NotNil(t, cl)
	require.Len(t, cl.Items, 1)
	assert.Equal(t, "one", cl.Items[0].Title)
	assert.False(t, cl.Items[0].IsFinished)
	firstID := cl.ID

	// state C: the item exists, it is updated in place
	set("one", true)
	cl = srv.ChecklistByTitle(board.ID, card.ID, "Tasks")
	require.NotNil(t, cl)
	assert.Equal(t, firstID, cl.ID)
	require.Len(t, cl.Items, 1)
	assert.True(t, cl.Items[0].IsFinished)

	// state B: new item on an existing checklist forces a rebuild that
	// keeps the old items and their finished flags
	set("two", false)
	cl = srv.ChecklistByTitle(board.ID, card.ID, "Tasks")
	require.NotNil(t, cl)
	assert.NotEqual(t, firstID, cl.ID, "rebuild should replace the checklist")
	require.Len(t, cl.Items, 2)
	byTitle := map[string]bool{}
	for _, item := range cl.Items {
		byTitle[item.Title] = item.IsFinished
	}
	assert.Equal(t, map[string]bool{"one": true, "two": false}, byTitle)
}

func TestSetChecklistItemConverges(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	lane := srv.AddSwimlane(board, "Default")
	card := srv.AddCard(board, list.ID, lane.ID, "C")

	schema, ctx := newTestSchema(t, srv)
	calls := []struct {
		item string
		done bool
	}{
		{"i1", false},
		{"i2", true},
		{"i3", false},
		{"i1", true},
		{"i2", true},
	}
	for _, call := range calls {
		exec(t, schema, ctx, setItemMutation, map[string]interface{}{
			"boardId":   board.ID,
			"cardId":    card.ID,
			"checkList": "Tasks",
			"item":      call.item,
			"done":      call.done,
		})
	}

	// exactly one item per distinct title, each with its latest flag
	cl := srv.ChecklistByTitle(board.ID, card.ID, "Tasks")
	require.NotNil(t, cl)
	require.Len(t, cl.Items, 3)
	byTitle := map[string]bool{}
	for _, item := range cl.Items {
		byTitle[item.Title] = item.IsFinished
	}
	assert.Equal(t, map[string]bool{"i1": true, "i2": true, "i3": false}, byTitle)
}

func TestUpdateCard(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	lane := srv.AddSwimlane(board, "Default")
	card := srv.AddCard(board, list.ID, lane.ID, "C")

	schema, ctx := newTestSchema(t, srv)
	data := exec(t, schema, ctx,
		`mutation($card: CardInput!){updateCard(boardTitle:"B", listTitle:"L", card:$card)}`,
		map[string]interface{}{
			"card": map[string]interface{}{
				"_id":         card.ID,
				"description": "updated",
			},
		})
	assert.Equal(t, card.ID, data["updateCard"])

	got := srv.CardByID(board.ID, card.ID)
	assert.Equal(t, "updated", got.Description)
	// merge semantics: fields not supplied stay untouched
	assert.Equal(t, "C", got.Title)
}

func TestSetParentID(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	lane := srv.AddSwimlane(board, "Default")
	parent := srv.AddCard(board, list.ID, lane.ID, "P")
	child := srv.AddCard(board, list.ID, lane.ID, "C")

	schema, ctx := newTestSchema(t, srv)
	data := exec(t, schema, ctx,
		`mutation($cardId: ID!, $parentId: ID!){
			setParentId(boardTitle:"B", listTitle:"L", cardId:$cardId, parentId:$parentId)
		}`,
		map[string]interface{}{"cardId": child.ID, "parentId": parent.ID})
	assert.Equal(t, child.ID, data["setParentId"])

	assert.Equal(t, parent.ID, srv.CardByID(board.ID, child.ID).ParentID)
}

func TestNewTreeAliasesNewCards(t *testing.T) {
	srv := wekantest.New()
	defer srv.Close()
	board := srv.AddBoard("B")
	list := srv.AddList(board, "L")
	srv.AddSwimlane(board, "Default")

	schema, ctx := newTestSchema(t, srv)
	data := exec(t, schema, ctx,
		`mutation($input: newCardInput!){newTree(input:$input)}`,
		map[string]interface{}{"input": cardTree("Root", cardTree("Leaf"))})

	rootID := data["newTree"].(string)
	require.Len(t, srv.CardsByTitle(board.ID, list.ID, "Root"), 1)
	leaves := srv.CardsByTitle(board.ID, list.ID, "Leaf")
	require.Len(t, leaves, 1)
	assert.Equal(t, rootID, leaves[0].ParentID)
}
