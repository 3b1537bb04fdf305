package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"
)

// NewSchema builds the executable schema around a resolver. Type wiring
// mirrors the entity hierarchy: Board -> List/Swimlane -> Card -> CheckList.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	authorizationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Authorization",
		Fields: graphql.Fields{
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"token":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	customFieldType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomField",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"value": &graphql.Field{Type: graphql.String},
		},
	})

	checklistItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CheckListItems",
		Fields: graphql.Fields{
			"_id":        &graphql.Field{Type: graphql.ID},
			"title":      &graphql.Field{Type: graphql.String},
			"isFinished": &graphql.Field{Type: graphql.Boolean},
		},
	})

	checklistType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CheckList",
		Fields: graphql.Fields{
			"_id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":     &graphql.Field{Type: graphql.String},
			"cardId":    &graphql.Field{Type: graphql.ID},
			"sort":      &graphql.Field{Type: graphql.Int},
			"createdAt": &graphql.Field{Type: graphql.String},
			"items":     &graphql.Field{Type: graphql.NewList(checklistItemType)},
		},
	})

	boardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Board",
		Fields: graphql.Fields{
			"_id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	listType := graphql.NewObject(graphql.ObjectConfig{
		Name: "List",
		Fields: graphql.Fields{
			"_id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	swimlaneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Swimlane",
		Fields: graphql.Fields{
			"_id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	cardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Card",
		Fields: graphql.Fields{
			"_id":              cardField(graphql.NewNonNull(graphql.ID), func(c *Card) interface{} { return c.ID }),
			"title":            cardField(graphql.NewNonNull(graphql.String), func(c *Card) interface{} { return c.Title }),
			"description":      cardField(graphql.String, func(c *Card) interface{} { return c.Description }),
			"archived":         cardField(graphql.Boolean, func(c *Card) interface{} { return c.Archived }),
			"assignedBy":       cardField(graphql.ID, func(c *Card) interface{} { return c.AssignedBy }),
			"coverId":          cardField(graphql.ID, func(c *Card) interface{} { return c.CoverID }),
			"createdAt":        cardField(graphql.String, func(c *Card) interface{} { return c.CreatedAt }),
			"customFields":     cardField(graphql.NewList(customFieldType), func(c *Card) interface{} { return c.CustomFields }),
			"dateLastActivity": cardField(graphql.String, func(c *Card) interface{} { return c.DateLastActivity }),
			"isOvertime":       cardField(graphql.Boolean, func(c *Card) interface{} { return c.IsOvertime }),
			"labelIds":         cardField(graphql.NewList(graphql.ID), func(c *Card) interface{} { return c.LabelIDs }),
			"linkedId":         cardField(graphql.ID, func(c *Card) interface{} { return c.LinkedID }),
			"members":          cardField(graphql.NewList(graphql.ID), func(c *Card) interface{} { return c.Members }),
			"parentId":         cardField(graphql.ID, func(c *Card) interface{} { return c.ParentID }),
			"requestedBy":      cardField(graphql.ID, func(c *Card) interface{} { return c.RequestedBy }),
			"sort":             cardField(graphql.Int, func(c *Card) interface{} { return c.Sort }),
			"spentTime":        cardField(graphql.Int, func(c *Card) interface{} { return c.SpentTime }),
			"subtaskSort":      cardField(graphql.Int, func(c *Card) interface{} { return c.SubtaskSort }),
			"swimlaneId":       cardField(graphql.ID, func(c *Card) interface{} { return c.SwimlaneID }),
			"type":             cardField(graphql.String, func(c *Card) interface{} { return c.Type }),
			"userId":           cardField(graphql.ID, func(c *Card) interface{} { return c.UserID }),
		},
	})

	// Cross references between the entity types.
	boardType.AddFieldConfig("lists", &graphql.Field{
		Type:    graphql.NewList(listType),
		Resolve: r.resolveBoardLists,
	})
	boardType.AddFieldConfig("list", &graphql.Field{
		Type:    listType,
		Args:    lookupArgs(),
		Resolve: r.resolveBoardList,
	})
	boardType.AddFieldConfig("swimlanes", &graphql.Field{
		Type:    graphql.NewList(swimlaneType),
		Resolve: r.resolveBoardSwimlanes,
	})
	boardType.AddFieldConfig("swimlane", &graphql.Field{
		Type:    swimlaneType,
		Args:    lookupArgs(),
		Resolve: r.resolveBoardSwimlane,
	})

	listType.AddFieldConfig("board", &graphql.Field{
		Type: graphql.NewNonNull(boardType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return p.Source.(*List).Board, nil
		},
	})
	listType.AddFieldConfig("cards", &graphql.Field{
		Type:    graphql.NewList(cardType),
		Resolve: r.resolveListCards,
	})
	listType.AddFieldConfig("card", &graphql.Field{
		Type:    cardType,
		Args:    lookupArgs(),
		Resolve: r.resolveListCard,
	})

	swimlaneType.AddFieldConfig("board", &graphql.Field{
		Type: graphql.NewNonNull(boardType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return p.Source.(*Swimlane).Board, nil
		},
	})
	swimlaneType.AddFieldConfig("cards", &graphql.Field{
		Type:    graphql.NewList(cardType),
		Resolve: r.resolveSwimlaneCards,
	})

	cardType.AddFieldConfig("board", &graphql.Field{
		Type: graphql.NewNonNull(boardType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return p.Source.(*Card).Board, nil
		},
	})
	cardType.AddFieldConfig("list", &graphql.Field{
		Type:    listType,
		Resolve: r.resolveCardList,
	})
	cardType.AddFieldConfig("swimlane", &graphql.Field{
		Type:    swimlaneType,
		Resolve: r.resolveCardSwimlane,
	})
	cardType.AddFieldConfig("checklists", &graphql.Field{
		Type:    graphql.NewList(checklistType),
		Resolve: r.resolveCardChecklists,
	})

	authorizationInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AuthorizationInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"userId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"token":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	var newCardInput *graphql.InputObject
	newCardInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "newCardInput",
		Fields: (graphql.InputObjectConfigFieldMapThunk)(func() graphql.InputObjectConfigFieldMap {
			return graphql.InputObjectConfigFieldMap{
				"boardTitle":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
				"listTitle":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
				"swimlaneTitle": &graphql.InputObjectFieldConfig{Type: graphql.String},
				"title":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
				"parentId":      &graphql.InputObjectFieldConfig{Type: graphql.ID},
				"children":      &graphql.InputObjectFieldConfig{Type: graphql.NewList(newCardInput)},
			}
		}),
	})

	cardInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CardInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"_id":              &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"title":            &graphql.InputObjectFieldConfig{Type: graphql.String},
			"description":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"boardId":          &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"listId":           &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"archived":         &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"assignedBy":       &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"coverId":          &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"createdAt":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"dateLastActivity": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"isOvertime":       &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"labelIds":         &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.ID)},
			"linkedId":         &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"members":          &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.ID)},
			"parentId":         &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"requestedBy":      &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"sort":             &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"spentTime":        &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"subtaskSort":      &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"swimlaneId":       &graphql.InputObjectFieldConfig{Type: graphql.ID},
			"type":             &graphql.InputObjectFieldConfig{Type: graphql.String},
			"userId":           &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})

	authArg := &graphql.ArgumentConfig{Type: authorizationInput}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"authorize": &graphql.Field{
				Type: authorizationType,
				Args: graphql.FieldConfigArgument{
					"user":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveAuthorize,
			},
			"boards": &graphql.Field{
				Type:    graphql.NewList(boardType),
				Args:    graphql.FieldConfigArgument{"auth": authArg},
				Resolve: r.resolveBoards,
			},
			"board": &graphql.Field{
				Type: boardType,
				Args: graphql.FieldConfigArgument{
					"_id":   &graphql.ArgumentConfig{Type: graphql.ID},
					"title": &graphql.ArgumentConfig{Type: graphql.String},
					"auth":  authArg,
				},
				Resolve: r.resolveBoard,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"newCards": &graphql.Field{
				Type: graphql.ID,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(newCardInput)},
					"auth":  authArg,
				},
				Resolve: r.resolveNewCards,
			},
			"newTree": &graphql.Field{
				Type: graphql.ID,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(newCardInput)},
					"auth":  authArg,
				},
				Resolve: r.resolveNewCards,
			},
			"updateCard": &graphql.Field{
				Type: graphql.ID,
				Args: graphql.FieldConfigArgument{
					"boardTitle": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"listTitle":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"card":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(cardInput)},
					"auth":       authArg,
				},
				Resolve: r.resolveUpdateCard,
			},
			"setParentId": &graphql.Field{
				Type: graphql.ID,
				Args: graphql.FieldConfigArgument{
					"boardTitle": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"listTitle":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"cardId":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"parentId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"auth":       authArg,
				},
				Resolve: r.resolveSetParentID,
			},
			"setCheckListItem": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"boardId":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"cardId":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"checkListTitle": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"itemTitle":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isFinished":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
					"auth":           authArg,
				},
				Resolve: r.resolveSetChecklistItem,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// lookupArgs is the argument pair shared by all by-id-or-title lookups.
func lookupArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"_id":   &graphql.ArgumentConfig{Type: graphql.ID},
		"title": &graphql.ArgumentConfig{Type: graphql.String},
	}
}

// cardField adapts a typed getter to a field definition; Card embeds the
// wire struct, which the engine's default resolver cannot see through.
func cardField(t graphql.Output, get func(c *Card) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			card, ok := p.Source.(*Card)
			if !ok {
				return nil, errors.Errorf("expected card source, got %T", p.Source)
			}
			return get(card), nil
		},
	}
}
