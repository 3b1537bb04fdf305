// Package wekantest provides an in-memory fake of the Wekan REST API for
// tests. It implements the exact endpoint surface the client consumes,
// enforces bearer auth, and exposes its state so tests can assert on the
// remote side effects of an orchestration.
package wekantest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// List is a board column.
type List struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Swimlane is a board row.
type Swimlane struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Card is the full server-side card record.
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
	CustomFields     []interface{} `json:"customFields"`
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

// Item is a checklist item.
type Item struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	IsFinished bool   `json:"isFinished"`
}

// Checklist is the full server-side checklist record.
type Checklist struct {
	ID        string  `json:"_id"`
	Title     string  `json:"title"`
	CardID    string  `json:"cardId"`
	Sort      float64 `json:"sort"`
	CreatedAt string  `json:"createdAt"`
	UserID    string  `json:"userId"`
	Items     []*Item `json:"items"`
}

// Board holds the state hanging off one board.
type Board struct {
	ID         string
	Title      string
	Lists      []*List
	Swimlanes  []*Swimlane
	Cards      []*Card
	Checklists []*Checklist
}

// Server is a fake Wekan instance backed by an httptest.Server.
type Server struct {
	// Credentials accepted by the login endpoint and the token handed out.
	User     string
	Password string
	UserID   string
	Token    string

	// CardDelay, when set, delays each card detail response. Used to test
	// that fan-out results keep stub order regardless of completion order.
	CardDelay func(cardID string) time.Duration

	mu     sync.Mutex
	boards []*Board
	srv    *httptest.Server
}

// New starts a fake server with the given login identity.
func New() *Server {
	s := &Server{
		User:     "u1",
		Password: "p1",
		UserID:   "id1",
		Token:    "token1",
	}

	r := mux.NewRouter()
	r.HandleFunc("/users/login", s.handleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireToken)
	api.HandleFunc("/users/{userId}/boards", s.handleBoards).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/lists", s.handleLists).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/swimlanes", s.handleSwimlanes).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/swimlane/{swimlaneId}/cards", s.handleSwimlaneCards).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/lists/{listId}/cards", s.handleListCards).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/lists/{listId}/cards", s.handlePostCard).Methods(http.MethodPost)
	api.HandleFunc("/boards/{boardId}/lists/{listId}/cards/{cardId}", s.handleCard).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/lists/{listId}/cards/{cardId}", s.handlePutCard).Methods(http.MethodPut)
	api.HandleFunc("/boards/{boardId}/cards/{cardId}/checklists", s.handleChecklists).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/cards/{cardId}/checklists", s.handlePostChecklist).Methods(http.MethodPost)
	api.HandleFunc("/boards/{boardId}/cards/{cardId}/checklists/{checklistId}", s.handleChecklist).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/cards/{cardId}/checklists/{checklistId}", s.handleDeleteChecklist).Methods(http.MethodDelete)
	api.HandleFunc("/boards/{boardId}/cards/{cardId}/checklists/{checklistId}/items/{itemId}", s.handlePutItem).Methods(http.MethodPut)

	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the fake server.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the underlying httptest server down.
func (s *Server) Close() { s.srv.Close() }

// AddBoard creates a board.
func (s *Server) AddBoard(title string) *Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &Board{ID: newID(), Title: title}
	s.boards = append(s.boards, b)
	return b
}

// AddList adds a list to a board.
func (s *Server) AddList(b *Board, title string) *List {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &List{ID: newID(), Title: title}
	b.Lists = append(b.Lists, l)
	return l
}

// AddSwimlane adds a swimlane to a board.
func (s *Server) AddSwimlane(b *Board, title string) *Swimlane {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw := &Swimlane{ID: newID(), Title: title}
	b.Swimlanes = append(b.Swimlanes, sw)
	return sw
}

// AddCard adds a card to a board.
func (s *Server) AddCard(b *Board, listID, swimlaneID, title string) *Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Card{
		ID:         newID(),
		Title:      title,
		BoardID:    b.ID,
		ListID:     listID,
		SwimlaneID: swimlaneID,
		Type:       "cardType-card",
	}
	b.Cards = append(b.Cards, c)
	return c
}

// AddChecklist adds a checklist with the given items to a card.
func (s *Server) AddChecklist(b *Board, cardID, title string, items ...Item) *Checklist {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl := &Checklist{ID: newID(), Title: title, CardID: cardID}
	for i := range items {
		it := items[i]
		if it.ID == "" {
			it.ID = newID()
		}
		cl.Items = append(cl.Items, &it)
	}
	b.Checklists = append(b.Checklists, cl)
	return cl
}

// CardsByTitle returns all cards in a list with the given title.
func (s *Server) CardsByTitle(boardID, listID, title string) []*Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(boardID)
	if b == nil {
		return nil
	}
	var out []*Card
	for _, c := range b.Cards {
		if c.ListID == listID && c.Title == title {
			out = append(out, c)
		}
	}
	return out
}

// ChecklistByTitle returns the first checklist on a card with the given
// title, or nil.
func (s *Server) ChecklistByTitle(boardID, cardID, title string) *Checklist {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(boardID)
	if b == nil {
		return nil
	}
	for _, cl := range b.Checklists {
		if cl.CardID == cardID && cl.Title == title {
			return cl
		}
	}
	return nil
}

// CardByID returns a card by id, or nil.
func (s *Server) CardByID(boardID, cardID string) *Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(boardID)
	if b == nil {
		return nil
	}
	return findCard(b, cardID)
}

func newID() string {
	return uuid.NewString()
}

func (s *Server) board(id string) *Board {
	for _, b := range s.boards {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func findCard(b *Board, id string) *Card {
	for _, c := range b.Cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func findChecklist(b *Board, id string) (*Checklist, int) {
	for i, cl := range b.Checklists {
		if cl.ID == id {
			return cl, i
		}
	}
	return nil, -1
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":   true,
				"message": "unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("username") != s.User || r.PostFormValue("password") != s.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":   true,
			"message": "invalid credentials",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": s.UserID, "token": s.Token})
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]string{}
	for _, b := range s.boards {
		out = append(out, map[string]string{"_id": b.ID, "title": b.Title})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(mux.Vars(r)["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	out := []*List{}
	out = append(out, b.Lists...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSwimlanes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.board(mux.Vars(r)["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	out := []*Swimlane{}
	out = append(out, b.Swimlanes...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	out := []map[string]string{}
	for _, c := range b.Cards {
		if c.ListID == v["listId"] {
			out = append(out, map[string]string{
				"_id":         c.ID,
				"title":       c.Title,
				"description": c.Description,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSwimlaneCards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	out := []map[string]string{}
	for _, c := range b.Cards {
		if c.SwimlaneID == v["swimlaneId"] {
			out = append(out, map[string]string{
				"_id":         c.ID,
				"title":       c.Title,
				"description": c.Description,
				"listId":      c.ListID,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)

	s.mu.Lock()
	b := s.board(v["boardId"])
	var card *Card
	if b != nil {
		card = findCard(b, v["cardId"])
	}
	var delay time.Duration
	if card != nil && s.CardDelay != nil {
		delay = s.CardDelay(card.ID)
	}
	var copied Card
	if card != nil {
		copied = *card
	}
	s.mu.Unlock()

	if card == nil {
		notFound(w)
		return
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	writeJSON(w, http.StatusOK, &copied)
}

func (s *Server) handlePostCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	var body struct {
		Title      string `json:"title"`
		AuthorID   string `json:"authorId"`
		SwimlaneID string `json:"swimlaneId"`
		ParentID   string `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	// Like real Wekan, parentId is accepted but dropped at creation time.
	c := &Card{
		ID:         newID(),
		Title:      body.Title,
		BoardID:    b.ID,
		ListID:     v["listId"],
		SwimlaneID: body.SwimlaneID,
		UserID:     body.AuthorID,
		Type:       "cardType-card",
	}
	b.Cards = append(b.Cards, c)
	writeJSON(w, http.StatusOK, map[string]string{"_id": c.ID})
}

func (s *Server) handlePutCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	c := findCard(b, v["cardId"])
	if c == nil {
		notFound(w)
		return
	}
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if t, ok := fields["title"].(string); ok {
		c.Title = t
	}
	if d, ok := fields["description"].(string); ok {
		c.Description = d
	}
	if p, ok := fields["parentId"].(string); ok {
		c.ParentID = p
	}
	if l, ok := fields["listId"].(string); ok {
		c.ListID = l
	}
	if sw, ok := fields["swimlaneId"].(string); ok {
		c.SwimlaneID = sw
	}
	if m, ok := fields["members"].([]interface{}); ok {
		members := []string{}
		for _, v := range m {
			if str, ok := v.(string); ok {
				members = append(members, str)
			}
		}
		c.Members = members
	}
	writeJSON(w, http.StatusOK, map[string]string{"_id": c.ID})
}

func (s *Server) handleChecklists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	out := []map[string]string{}
	for _, cl := range b.Checklists {
		if cl.CardID == v["cardId"] {
			out = append(out, map[string]string{"_id": cl.ID, "title": cl.Title})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	cl, _ := findChecklist(b, v["checklistId"])
	if cl == nil || cl.CardID != v["cardId"] {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

func (s *Server) handlePostChecklist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	var body struct {
		Title string `json:"title"`
		Items []struct {
			Title      string `json:"title"`
			IsFinished bool   `json:"isFinished"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	cl := &Checklist{ID: newID(), Title: body.Title, CardID: v["cardId"]}
	for _, it := range body.Items {
		// Item ids are reassigned on every rebuild, like real Wekan.
		cl.Items = append(cl.Items, &Item{ID: newID(), Title: it.Title, IsFinished: it.IsFinished})
	}
	b.Checklists = append(b.Checklists, cl)
	writeJSON(w, http.StatusOK, map[string]string{"_id": cl.ID})
}

func (s *Server) handleDeleteChecklist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	cl, i := findChecklist(b, v["checklistId"])
	if cl == nil {
		notFound(w)
		return
	}
	b.Checklists = append(b.Checklists[:i], b.Checklists[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"_id": cl.ID})
}

func (s *Server) handlePutItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := mux.Vars(r)
	b := s.board(v["boardId"])
	if b == nil {
		notFound(w)
		return
	}
	cl, _ := findChecklist(b, v["checklistId"])
	if cl == nil {
		notFound(w)
		return
	}
	var body struct {
		Title      string `json:"title"`
		IsFinished bool   `json:"isFinished"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	for _, it := range cl.Items {
		if it.ID == v["itemId"] {
			it.Title = body.Title
			it.IsFinished = body.IsFinished
			writeJSON(w, http.StatusOK, map[string]string{"_id": it.ID})
			return
		}
	}
	notFound(w)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   true,
		"message": "not found",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
