// Package wekan is a thin client for the Wekan REST API. Every method maps
// to exactly one remote call, authenticated with the bearer token carried in
// an Auth value. There are no retries: a failed call surfaces a *APIError
// with enough context (method, URL, request body, raw response) to diagnose
// the remote side, and the caller decides what to abort.
package wekan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client talks to a single Wekan host. It is safe for concurrent use.
type Client struct {
	host string
	http *http.Client
	log  *logrus.Logger
}

// NewClient returns a client for the given host (scheme + authority, no
// trailing slash).
func NewClient(host string, log *logrus.Logger) *Client {
	return &Client{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{},
		log:  log,
	}
}

// APIError describes a failed remote call: transport failures, non-2xx
// statuses, unparseable bodies and remote-reported errors all end up here.
type APIError struct {
	Method      string
	URL         string
	StatusCode  int
	RequestBody string
	Response    string
	Message     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wekan: %s %s %s (status %d): %s",
		e.Method, e.URL, e.Message, e.StatusCode, e.Response)
}

// Authorize exchanges credentials for a bearer token via the form-encoded
// login endpoint. The returned Auth authenticates all other calls.
func (c *Client) Authorize(ctx context.Context, user, password string) (Auth, error) {
	endpoint := c.host + "/users/login"
	form := url.Values{
		"username": {user},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Auth{}, errors.Wrap(err, "building login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return Auth{}, errors.Wrapf(err, "POST %s", endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Auth{}, errors.Wrapf(err, "reading login response from %s", endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Auth{}, &APIError{
			Method:     http.MethodPost,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Response:   string(raw),
			Message:    "login failed",
		}
	}

	var body struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Auth{}, &APIError{
			Method:     http.MethodPost,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Response:   string(raw),
			Message:    "malformed login response",
		}
	}
	return Auth{UserID: body.ID, Token: body.Token}, nil
}

// Boards lists the boards visible to the authenticated user.
func (c *Client) Boards(ctx context.Context, auth Auth) ([]BoardStub, error) {
	var out []BoardStub
	path := fmt.Sprintf("/api/users/%s/boards", url.PathEscape(auth.UserID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// Lists lists the lists of a board.
func (c *Client) Lists(ctx context.Context, auth Auth, boardID string) ([]ListStub, error) {
	var out []ListStub
	path := fmt.Sprintf("/api/boards/%s/lists", url.PathEscape(boardID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// Swimlanes lists the swimlanes of a board.
func (c *Client) Swimlanes(ctx context.Context, auth Auth, boardID string) ([]SwimlaneStub, error) {
	var out []SwimlaneStub
	path := fmt.Sprintf("/api/boards/%s/swimlanes", url.PathEscape(boardID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// Cards lists the card stubs of a list.
func (c *Client) Cards(ctx context.Context, auth Auth, boardID, listID string) ([]CardStub, error) {
	var out []CardStub
	path := fmt.Sprintf("/api/boards/%s/lists/%s/cards",
		url.PathEscape(boardID), url.PathEscape(listID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// SwimlaneCards lists the card stubs of a swimlane. Unlike Cards, the stubs
// carry the owning list id.
func (c *Client) SwimlaneCards(ctx context.Context, auth Auth, boardID, swimlaneID string) ([]CardStub, error) {
	var out []CardStub
	path := fmt.Sprintf("/api/boards/%s/swimlane/%s/cards",
		url.PathEscape(boardID), url.PathEscape(swimlaneID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// Card fetches the full detail of a single card.
func (c *Client) Card(ctx context.Context, auth Auth, boardID, listID, cardID string) (Card, error) {
	var out Card
	path := fmt.Sprintf("/api/boards/%s/lists/%s/cards/%s",
		url.PathEscape(boardID), url.PathEscape(listID), url.PathEscape(cardID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// PostCard creates a card and returns its id. Wekan ignores parentId and
// members at creation time; callers that need them must follow up with
// PutCard.
func (c *Client) PostCard(ctx context.Context, auth Auth, boardID, listID, swimlaneID, parentID, title string) (string, error) {
	body := map[string]interface{}{
		"title":      title,
		"authorId":   auth.UserID,
		"swimlaneId": swimlaneID,
		"parentId":   parentID,
	}
	var out struct {
		ID string `json:"_id"`
	}
	path := fmt.Sprintf("/api/boards/%s/lists/%s/cards",
		url.PathEscape(boardID), url.PathEscape(listID))
	err := c.do(ctx, auth, http.MethodPost, path, body, &out)
	return out.ID, err
}

// PutCard merges the given fields into a card and returns its id. Only the
// fields present in the map are sent; everything else is left untouched by
// Wekan.
func (c *Client) PutCard(ctx context.Context, auth Auth, boardID, listID, cardID string, fields map[string]interface{}) (string, error) {
	var out struct {
		ID string `json:"_id"`
	}
	path := fmt.Sprintf("/api/boards/%s/lists/%s/cards/%s",
		url.PathEscape(boardID), url.PathEscape(listID), url.PathEscape(cardID))
	err := c.do(ctx, auth, http.MethodPut, path, fields, &out)
	return out.ID, err
}

// Checklists lists the checklist stubs of a card.
func (c *Client) Checklists(ctx context.Context, auth Auth, boardID, cardID string) ([]ChecklistStub, error) {
	var out []ChecklistStub
	path := fmt.Sprintf("/api/boards/%s/cards/%s/checklists",
		url.PathEscape(boardID), url.PathEscape(cardID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// Checklist fetches a checklist including its item collection.
func (c *Client) Checklist(ctx context.Context, auth Auth, boardID, cardID, checklistID string) (Checklist, error) {
	var out Checklist
	path := fmt.Sprintf("/api/boards/%s/cards/%s/checklists/%s",
		url.PathEscape(boardID), url.PathEscape(cardID), url.PathEscape(checklistID))
	err := c.do(ctx, auth, http.MethodGet, path, nil, &out)
	return out, err
}

// PostChecklist creates a checklist with an initial item set and returns the
// new checklist id. There is no single-item append endpoint; inserting into
// an existing checklist means recreating it.
func (c *Client) PostChecklist(ctx context.Context, auth Auth, boardID, cardID, title string, items []ChecklistItem) (string, error) {
	body := map[string]interface{}{
		"title": title,
		"items": items,
	}
	var out struct {
		ID string `json:"_id"`
	}
	path := fmt.Sprintf("/api/boards/%s/cards/%s/checklists",
		url.PathEscape(boardID), url.PathEscape(cardID))
	err := c.do(ctx, auth, http.MethodPost, path, body, &out)
	return out.ID, err
}

// DeleteChecklist removes a checklist by id.
func (c *Client) DeleteChecklist(ctx context.Context, auth Auth, boardID, cardID, checklistID string) error {
	path := fmt.Sprintf("/api/boards/%s/cards/%s/checklists/%s",
		url.PathEscape(boardID), url.PathEscape(cardID), url.PathEscape(checklistID))
	return c.do(ctx, auth, http.MethodDelete, path, nil, nil)
}

// PutChecklistItem updates a single checklist item in place.
func (c *Client) PutChecklistItem(ctx context.Context, auth Auth, boardID, cardID, checklistID, itemID, title string, isFinished bool) error {
	body := map[string]interface{}{
		"title":      title,
		"isFinished": isFinished,
	}
	path := fmt.Sprintf("/api/boards/%s/cards/%s/checklists/%s/items/%s",
		url.PathEscape(boardID), url.PathEscape(cardID), url.PathEscape(checklistID), url.PathEscape(itemID))
	return c.do(ctx, auth, http.MethodPut, path, body, nil)
}

// do performs one authenticated call and decodes the JSON response into out.
// Any of: transport error, empty body, malformed JSON, non-2xx status or a
// payload carrying an "error" field is reported as a *APIError.
func (c *Client) do(ctx context.Context, auth Auth, method, path string, body interface{}, out interface{}) error {
	endpoint := c.host + path

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding request body for %s %s", method, endpoint)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, endpoint)
	}
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"url":    endpoint,
	}).Debug("wekan request")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading response of %s %s", method, endpoint)
	}

	fail := func(msg string) *APIError {
		apiErr := &APIError{
			Method:      method,
			URL:         endpoint,
			StatusCode:  resp.StatusCode,
			RequestBody: string(reqBody),
			Response:    string(raw),
			Message:     msg,
		}
		c.log.WithFields(logrus.Fields{
			"method": method,
			"url":    endpoint,
			"status": resp.StatusCode,
		}).WithError(apiErr).Error("wekan request failed")
		return apiErr
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fail("empty response body")
	}

	// Wekan reports failures both via the status line and via an "error"
	// field in an otherwise 200 response.
	if trimmed[0] == '{' {
		var remote struct {
			Error   json.RawMessage `json:"error"`
			Message string          `json:"message"`
			Reason  string          `json:"reason"`
		}
		if json.Unmarshal(trimmed, &remote) == nil && remoteError(remote.Error) {
			msg := remote.Message
			if msg == "" {
				msg = remote.Reason
			}
			if msg == "" {
				msg = "remote error"
			}
			return fail(msg)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail("unexpected status")
	}

	if out != nil {
		if err := json.Unmarshal(trimmed, out); err != nil {
			return fail("malformed JSON: " + err.Error())
		}
	}
	return nil
}

func remoteError(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s != "" && s != "null" && s != "false"
}
