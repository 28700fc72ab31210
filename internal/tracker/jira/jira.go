// Package jira implements the tracker.Tracker contract against the Jira
// REST API v3, demonstrating the statusMap/reverseStatusMap machinery
// against a tracker whose status vocabulary never matches Ralph's 1:1.
package jira

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
	tracker.Register("jira", New)
}

// Adapter talks to the Jira Cloud REST API v3.
type Adapter struct {
	cfg    tracker.Config
	client *http.Client
}

// New constructs a Jira adapter. cfg.BaseURL is the site root, e.g.
// "https://example.atlassian.net".
func New(cfg tracker.Config) (tracker.Tracker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jira: base URL is required")
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (a *Adapter) Connect(ctx context.Context) error     { return nil }
func (a *Adapter) Disconnect(ctx context.Context) error  { return nil }
func (a *Adapter) HealthCheck(ctx context.Context) error { return a.do(ctx, "GET", "/rest/api/3/myself", nil, nil) }

type jiraIssue struct {
	Key    string `json:"key"`
	Self   string `json:"self"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
	} `json:"fields"`
}

func (a *Adapter) issueTypeFor(t task.Type) string {
	if name, ok := a.cfg.IssueTypeMap[t]; ok {
		return name
	}
	return "Task"
}

func (a *Adapter) CreateIssue(ctx context.Context, t *task.Task) (tracker.IssueRef, error) {
	if a.cfg.DryRun {
		return tracker.IssueRef{ID: "DRY-0"}, nil
	}
	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": a.cfg.Project},
			"summary":     t.Title,
			"description": t.Description,
			"issuetype":   map[string]string{"name": a.issueTypeFor(t.Type)},
		},
	}
	var issue jiraIssue
	if err := a.do(ctx, "POST", "/rest/api/3/issue", payload, &issue); err != nil {
		return tracker.IssueRef{}, err
	}
	return tracker.IssueRef{ID: issue.Key, URL: a.cfg.BaseURL + "/browse/" + issue.Key}, nil
}

func (a *Adapter) UpdateIssue(ctx context.Context, id string, partial tracker.Partial) error {
	if a.cfg.DryRun {
		return nil
	}
	fields := map[string]any{}
	if partial.Title != nil {
		fields["summary"] = *partial.Title
	}
	if partial.Description != nil {
		fields["description"] = *partial.Description
	}
	return a.do(ctx, "PUT", "/rest/api/3/issue/"+id, map[string]any{"fields": fields}, nil)
}

func (a *Adapter) GetIssue(ctx context.Context, id string) (tracker.IssueRef, error) {
	var issue jiraIssue
	if err := a.do(ctx, "GET", "/rest/api/3/issue/"+id, nil, &issue); err != nil {
		return tracker.IssueRef{}, err
	}
	return tracker.IssueRef{ID: issue.Key, URL: a.cfg.BaseURL + "/browse/" + issue.Key, Status: issue.Fields.Status.Name}, nil
}

func (a *Adapter) FindIssues(ctx context.Context, filter tracker.Filter) ([]tracker.IssueRef, error) {
	jql := fmt.Sprintf("project=%s", a.cfg.Project)
	if filter.Status != "" {
		jql += fmt.Sprintf(" AND status=\"%s\"", filter.Status)
	}
	var result struct {
		Issues []jiraIssue `json:"issues"`
	}
	path := "/rest/api/3/search?jql=" + jql
	if err := a.do(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	refs := make([]tracker.IssueRef, 0, len(result.Issues))
	for _, issue := range result.Issues {
		refs = append(refs, tracker.IssueRef{ID: issue.Key, Status: issue.Fields.Status.Name})
	}
	return refs, nil
}

func (a *Adapter) CreateSubtask(ctx context.Context, parentID string, t *task.Task) (tracker.IssueRef, error) {
	if a.cfg.DryRun {
		return tracker.IssueRef{ID: "DRY-0"}, nil
	}
	payload := map[string]any{
		"fields": map[string]any{
			"project":   map[string]string{"key": a.cfg.Project},
			"parent":    map[string]string{"key": parentID},
			"summary":   t.Title,
			"issuetype": map[string]string{"name": "Subtask"},
		},
	}
	var issue jiraIssue
	if err := a.do(ctx, "POST", "/rest/api/3/issue", payload, &issue); err != nil {
		return tracker.IssueRef{}, err
	}
	return tracker.IssueRef{ID: issue.Key}, nil
}

func (a *Adapter) LinkIssues(ctx context.Context, fromID, toID string, relation task.Relation) error {
	if a.cfg.DryRun {
		return nil
	}
	linkType := "Blocks"
	if relation == task.RelationBlockedBy {
		linkType = "Blocked by"
	}
	payload := map[string]any{
		"type":         map[string]string{"name": linkType},
		"inwardIssue":  map[string]string{"key": fromID},
		"outwardIssue": map[string]string{"key": toID},
	}
	return a.do(ctx, "POST", "/rest/api/3/issueLink", payload, nil)
}

func (a *Adapter) TransitionIssue(ctx context.Context, id, statusName string) error {
	if a.cfg.DryRun {
		return nil
	}
	transitions, err := a.GetTransitions(ctx, id)
	if err != nil {
		return err
	}
	for _, t := range transitions {
		if t.Name == statusName {
			payload := map[string]any{"transition": map[string]string{"id": t.ID}}
			return a.do(ctx, "POST", "/rest/api/3/issue/"+id+"/transitions", payload, nil)
		}
	}
	return fmt.Errorf("jira: no transition named %q available for %s", statusName, id)
}

func (a *Adapter) GetTransitions(ctx context.Context, id string) ([]tracker.Transition, error) {
	var result struct {
		Transitions []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"transitions"`
	}
	if err := a.do(ctx, "GET", "/rest/api/3/issue/"+id+"/transitions", nil, &result); err != nil {
		return nil, err
	}
	out := make([]tracker.Transition, 0, len(result.Transitions))
	for _, t := range result.Transitions {
		out = append(out, tracker.Transition{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (a *Adapter) AddComment(ctx context.Context, id, body string) error {
	if a.cfg.DryRun {
		return nil
	}
	payload := map[string]any{"body": body}
	return a.do(ctx, "POST", "/rest/api/3/issue/"+id+"/comment", payload, nil)
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
	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cfg.Auth.Username != "" {
		req.SetBasicAuth(a.cfg.Auth.Username, a.cfg.Auth.Password)
	} else if a.cfg.Auth.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Auth.BearerToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("jira: %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode jira response: %w", err)
		}
	}
	return nil
}
