// Package github implements the tracker.Tracker contract against the GitHub
// Issues REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/daydemir/ralph/internal/task"
	"github.com/daydemir/ralph/internal/tracker"
)

func init() {
	tracker.Register("github", New)
}

// Adapter talks to the GitHub Issues REST API.
type Adapter struct {
	cfg    tracker.Config
	client *http.Client
	base   string
}

// New constructs a GitHub adapter from cfg. cfg.Project is "owner/repo".
func New(cfg tracker.Config) (tracker.Tracker, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.github.com"
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}, base: base}, nil
}

func (a *Adapter) Connect(ctx context.Context) error     { return nil }
func (a *Adapter) Disconnect(ctx context.Context) error  { return nil }
func (a *Adapter) HealthCheck(ctx context.Context) error { return a.do(ctx, "GET", "/rate_limit", nil, nil) }

type ghIssue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

func (a *Adapter) CreateIssue(ctx context.Context, t *task.Task) (tracker.IssueRef, error) {
	if a.cfg.DryRun {
		return tracker.IssueRef{ID: "dryrun-0", URL: "", Status: "open"}, nil
	}
	payload := map[string]string{"title": t.Title, "body": t.Description}
	var issue ghIssue
	path := fmt.Sprintf("/repos/%s/issues", a.cfg.Project)
	if err := a.do(ctx, "POST", path, payload, &issue); err != nil {
		return tracker.IssueRef{}, err
	}
	return tracker.IssueRef{ID: fmt.Sprintf("%d", issue.Number), URL: issue.HTMLURL, Status: issue.State}, nil
}

func (a *Adapter) UpdateIssue(ctx context.Context, id string, partial tracker.Partial) error {
	if a.cfg.DryRun {
		return nil
	}
	payload := map[string]string{}
	if partial.Title != nil {
		payload["title"] = *partial.Title
	}
	if partial.Description != nil {
		payload["body"] = *partial.Description
	}
	path := fmt.Sprintf("/repos/%s/issues/%s", a.cfg.Project, id)
	return a.do(ctx, "PATCH", path, payload, nil)
}

func (a *Adapter) GetIssue(ctx context.Context, id string) (tracker.IssueRef, error) {
	var issue ghIssue
	path := fmt.Sprintf("/repos/%s/issues/%s", a.cfg.Project, id)
	if err := a.do(ctx, "GET", path, nil, &issue); err != nil {
		return tracker.IssueRef{}, err
	}
	return tracker.IssueRef{ID: id, URL: issue.HTMLURL, Status: issue.State}, nil
}

func (a *Adapter) FindIssues(ctx context.Context, filter tracker.Filter) ([]tracker.IssueRef, error) {
	var issues []ghIssue
	path := fmt.Sprintf("/repos/%s/issues?state=%s", a.cfg.Project, firstNonEmpty(filter.Status, "all"))
	if err := a.do(ctx, "GET", path, nil, &issues); err != nil {
		return nil, err
	}
	refs := make([]tracker.IssueRef, 0, len(issues))
	for _, issue := range issues {
		refs = append(refs, tracker.IssueRef{ID: fmt.Sprintf("%d", issue.Number), URL: issue.HTMLURL, Status: issue.State})
	}
	return refs, nil
}

func (a *Adapter) CreateSubtask(ctx context.Context, parentID string, t *task.Task) (tracker.IssueRef, error) {
	return a.CreateIssue(ctx, t)
}

func (a *Adapter) LinkIssues(ctx context.Context, fromID, toID string, relation task.Relation) error {
	if a.cfg.DryRun {
		return nil
	}
	body := fmt.Sprintf("%s #%s", relation, toID)
	return a.AddComment(ctx, fromID, body)
}

func (a *Adapter) TransitionIssue(ctx context.Context, id, statusName string) error {
	if a.cfg.DryRun {
		return nil
	}
	state := "open"
	if statusName == "done" || statusName == "closed" || statusName == "cancelled" {
		state = "closed"
	}
	path := fmt.Sprintf("/repos/%s/issues/%s", a.cfg.Project, id)
	return a.do(ctx, "PATCH", path, map[string]string{"state": state}, nil)
}

func (a *Adapter) GetTransitions(ctx context.Context, id string) ([]tracker.Transition, error) {
	return []tracker.Transition{{ID: "open", Name: "open"}, {ID: "closed", Name: "closed"}}, nil
}

func (a *Adapter) AddComment(ctx context.Context, id, body string) error {
	if a.cfg.DryRun {
		return nil
	}
	path := fmt.Sprintf("/repos/%s/issues/%s/comments", a.cfg.Project, id)
	return a.do(ctx, "POST", path, map[string]string{"body": body}, nil)
}

func (a *Adapter) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if a.cfg.Auth.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Auth.BearerToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("github: %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode github response: %w", err)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
