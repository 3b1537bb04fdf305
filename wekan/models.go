package wekan

import (
	"encoding/json"
	"fmt"
)

// Auth is the per-request credential pair returned by the Wekan login
// endpoint. It is passed down the call graph as an immutable value and is
// never cached beyond a single request.
type Auth struct {
	UserID string
	Token  string
}

// BoardStub is the partial board representation returned by list endpoints.
type BoardStub struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// ListStub is the partial list representation returned by list endpoints.
type ListStub struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// SwimlaneStub is the partial swimlane representation returned by list
// endpoints.
type SwimlaneStub struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// CardStub is the partial card representation returned by the per-list and
// per-swimlane card listings. ListID is only populated by the swimlane
// variant.
type CardStub struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ListID      string `json:"listId,omitempty"`
}

// Card is the full card detail as returned by GET .../cards/{cardId}.
type Card struct {
	ID               string        `json:"_id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	BoardID          string        `json:"boardId"`
	ListID           string        `json:"listId"`
	SwimlaneID       string        `json:"swimlaneId"`
	UserID           string        `json:"userId"`
	Archived         bool          `json:"archived"`
	AssignedBy       string        `json:"assignedBy"`
	CoverID          string        `json:"coverId"`
	CreatedAt        string        `json:"createdAt"`
	CustomFields     []CustomField `json:"customFields"`
	DateLastActivity string        `json:"dateLastActivity"`
	IsOvertime       bool          `json:"isOvertime"`
	LabelIDs         []string      `json:"labelIds"`
	LinkedID         string        `json:"linkedId"`
	Members          []string      `json:"members"`
	ParentID         string        `json:"parentId"`
	RequestedBy      string        `json:"requestedBy"`
	Sort             float64       `json:"sort"`
	SpentTime        float64       `json:"spentTime"`
	SubtaskSort      float64       `json:"subtaskSort"`
	Type             string        `json:"type"`
}

// CustomField is a board-defined extra attribute on a card. Wekan returns
// it as {"_id": ..., "value": ...} where value can be any JSON scalar, so
// the value is stringified on decode.
type CustomField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (f *CustomField) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    string      `json:"_id"`
		Value interface{} `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Key = raw.ID
	if raw.Value != nil {
		f.Value = fmt.Sprint(raw.Value)
	}
	return nil
}

// ChecklistStub is the partial checklist representation returned by the
// per-card checklist listing.
type ChecklistStub struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Checklist is the full checklist detail including its item collection.
type Checklist struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title"`
	CardID    string          `json:"cardId"`
	Sort      float64         `json:"sort"`
	CreatedAt string          `json:"createdAt"`
	UserID    string          `json:"userId"`
	Items     []ChecklistItem `json:"items"`
}

// ChecklistItem is a single completable entry of a checklist. Items are
// addressed by title, not id, in all upsert paths: ids are reassigned by
// Wekan whenever a checklist is rebuilt.
type ChecklistItem struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	IsFinished bool   `json:"isFinished"`
}

// FindItem returns the first item whose title matches exactly, or nil.
// Duplicate titles are indistinguishable; first match wins.
func (c *Checklist) FindItem(title string) *ChecklistItem {
	for i := range c.Items {
		if c.Items[i].Title == title {
			return &c.Items[i]
		}
	}
	return nil
}
