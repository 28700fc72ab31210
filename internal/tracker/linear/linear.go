// Package linear implements the tracker.Tracker contract against Linear's
// GraphQL API, demonstrating the "native wire protocol" clause of the
// external interface with a request body distinct from the pack's two REST
// adapters.
package linear

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
	tracker.Register("linear", New)
}

const defaultEndpoint = "https://api.linear.app/graphql"

// Adapter talks to Linear's single GraphQL endpoint.
type Adapter struct {
	cfg      tracker.Config
	client   *http.Client
	endpoint string
}

// New constructs a Linear adapter. cfg.Project is the team ID.
func New(cfg tracker.Config) (tracker.Tracker, error) {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}, endpoint: endpoint}, nil
}

func (a *Adapter) Connect(ctx context.Context) error    { return nil }
func (a *Adapter) Disconnect(ctx context.Context) error { return nil }
func (a *Adapter) HealthCheck(ctx context.Context) error {
	var resp struct {
		Data struct {
			Viewer struct{ ID string } `json:"viewer"`
		} `json:"data"`
	}
	return a.query(ctx, `query { viewer { id } }`, nil, &resp)
}

type linearIssue struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	State struct {
		Name string `json:"name"`
	} `json:"state"`
}

func (a *Adapter) CreateIssue(ctx context.Context, t *task.Task) (tracker.IssueRef, error) {
	if a.cfg.DryRun {
		return tracker.IssueRef{ID: "dry-0"}, nil
	}
	query := `mutation($teamId: String!, $title: String!, $description: String) {
		issueCreate(input: {teamId: $teamId, title: $title, description: $description}) {
			issue { id title url state { name } }
		}
	}`
	vars := map[string]any{"teamId": a.cfg.Project, "title": t.Title, "description": t.Description}
	var resp struct {
		Data struct {
			IssueCreate struct {
				Issue linearIssue `json:"issue"`
			} `json:"issueCreate"`
		} `json:"data"`
	}
	if err := a.query(ctx, query, vars, &resp); err != nil {
		return tracker.IssueRef{}, err
	}
	issue := resp.Data.IssueCreate.Issue
	return tracker.IssueRef{ID: issue.ID, URL: issue.URL, Status: issue.State.Name}, nil
}

func (a *Adapter) UpdateIssue(ctx context.Context, id string, partial tracker.Partial) error {
	if a.cfg.DryRun {
		return nil
	}
	input := map[string]any{}
	if partial.Title != nil {
		input["title"] = *partial.Title
	}
	if partial.Description != nil {
		input["description"] = *partial.Description
	}
	query := `mutation($id: String!, $input: IssueUpdateInput!) { issueUpdate(id: $id, input: $input) { success } }`
	return a.query(ctx, query, map[string]any{"id": id, "input": input}, nil)
}

func (a *Adapter) GetIssue(ctx context.Context, id string) (tracker.IssueRef, error) {
	query := `query($id: String!) { issue(id: $id) { id title url state { name } } }`
	var resp struct {
		Data struct {
			Issue linearIssue `json:"issue"`
		} `json:"data"`
	}
	if err := a.query(ctx, query, map[string]any{"id": id}, &resp); err != nil {
		return tracker.IssueRef{}, err
	}
	issue := resp.Data.Issue
	return tracker.IssueRef{ID: issue.ID, URL: issue.URL, Status: issue.State.Name}, nil
}

func (a *Adapter) FindIssues(ctx context.Context, filter tracker.Filter) ([]tracker.IssueRef, error) {
	query := `query($teamId: String!) { team(id: $teamId) { issues { nodes { id title url state { name } } } } }`
	var resp struct {
		Data struct {
			Team struct {
				Issues struct {
					Nodes []linearIssue `json:"nodes"`
				} `json:"issues"`
			} `json:"team"`
		} `json:"data"`
	}
	if err := a.query(ctx, query, map[string]any{"teamId": a.cfg.Project}, &resp); err != nil {
		return nil, err
	}
	refs := make([]tracker.IssueRef, 0, len(resp.Data.Team.Issues.Nodes))
	for _, issue := range resp.Data.Team.Issues.Nodes {
		refs = append(refs, tracker.IssueRef{ID: issue.ID, URL: issue.URL, Status: issue.State.Name})
	}
	return refs, nil
}

func (a *Adapter) CreateSubtask(ctx context.Context, parentID string, t *task.Task) (tracker.IssueRef, error) {
	if a.cfg.DryRun {
		return tracker.IssueRef{ID: "dry-0"}, nil
	}
	query := `mutation($teamId: String!, $title: String!, $parentId: String!) {
		issueCreate(input: {teamId: $teamId, title: $title, parentId: $parentId}) {
			issue { id title url state { name } }
		}
	}`
	vars := map[string]any{"teamId": a.cfg.Project, "title": t.Title, "parentId": parentID}
	var resp struct {
		Data struct {
			IssueCreate struct {
				Issue linearIssue `json:"issue"`
			} `json:"issueCreate"`
		} `json:"data"`
	}
	if err := a.query(ctx, query, vars, &resp); err != nil {
		return tracker.IssueRef{}, err
	}
	return tracker.IssueRef{ID: resp.Data.IssueCreate.Issue.ID}, nil
}

func (a *Adapter) LinkIssues(ctx context.Context, fromID, toID string, relation task.Relation) error {
	if a.cfg.DryRun {
		return nil
	}
	linType := "blocks"
	if relation == task.RelationBlockedBy {
		linType = "blockedBy"
	}
	query := `mutation($issueId: String!, $relatedIssueId: String!, $type: IssueRelationType!) {
		issueRelationCreate(input: {issueId: $issueId, relatedIssueId: $relatedIssueId, type: $type}) { success }
	}`
	vars := map[string]any{"issueId": fromID, "relatedIssueId": toID, "type": linType}
	return a.query(ctx, query, vars, nil)
}

func (a *Adapter) TransitionIssue(ctx context.Context, id, statusName string) error {
	if a.cfg.DryRun {
		return nil
	}
	query := `mutation($id: String!, $stateId: String!) { issueUpdate(id: $id, input: {stateId: $stateId}) { success } }`
	return a.query(ctx, query, map[string]any{"id": id, "stateId": statusName}, nil)
}

func (a *Adapter) GetTransitions(ctx context.Context, id string) ([]tracker.Transition, error) {
	query := `query($teamId: String!) { team(id: $teamId) { states { nodes { id name } } } }`
	var resp struct {
		Data struct {
			Team struct {
				States struct {
					Nodes []struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"nodes"`
				} `json:"states"`
			} `json:"team"`
		} `json:"data"`
	}
	if err := a.query(ctx, query, map[string]any{"teamId": a.cfg.Project}, &resp); err != nil {
		return nil, err
	}
	out := make([]tracker.Transition, 0, len(resp.Data.Team.States.Nodes))
	for _, s := range resp.Data.Team.States.Nodes {
		out = append(out, tracker.Transition{ID: s.ID, Name: s.Name})
	}
	return out, nil
}

func (a *Adapter) AddComment(ctx context.Context, id, body string) error {
	if a.cfg.DryRun {
		return nil
	}
	query := `mutation($issueId: String!, $body: String!) { commentCreate(input: {issueId: $issueId, body: $body}) { success } }`
	return a.query(ctx, query, map[string]any{"issueId": id, "body": body}, nil)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (a *Adapter) query(ctx context.Context, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.Auth.BearerToken != "" {
		req.Header.Set("Authorization", a.cfg.Auth.BearerToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("linear request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("linear: %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		return fmt.Errorf("linear: %s", envelope.Errors[0].Message)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode linear response: %w", err)
		}
	}
	return nil
}
