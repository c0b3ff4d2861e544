package posthog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
)

// lookupResponse is the part of GET /persons/ we read.
type lookupResponse struct {
	Results []struct {
		ID          string   `json:"id"`
		DistinctIDs []string `json:"distinct_ids"`
	} `json:"results"`
}

// ResolveUserID finds the PostHog person id for a distinct id (an e-mail).
// found is false, with a nil error, when PostHog has no such person.
func (c *Client) ResolveUserID(ctx context.Context, email string) (id string, found bool, err error) {
	if !c.settings.AdminEnabled() {
		return "", false, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("distinct_id", email)
	req, err := c.newRequest(ctx, http.MethodGet, c.personsEndpoint()+"?"+q.Encode())
	if err != nil {
		return "", false, &OperationalError{Op: "lookup", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, &OperationalError{Op: "lookup", Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", false, &OperationalError{Op: "lookup", Err: err}
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, &OperationalError{Op: "lookup", Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(body.Results) == 0 {
		c.logger.WarnContext(ctx, "No PostHog person found with distinct id", "email", email)
		return "", false, nil
	}

	first := body.Results[0]
	if !slices.Contains(first.DistinctIDs, email) {
		return "", false, &IntegrityError{Queried: email, DistinctIDs: first.DistinctIDs}
	}
	return first.ID, true, nil
}

// Erase resolves the person behind email and deletes it together with its
// events. Only an *IntegrityError is returned as error, with a failed Result;
// operational failures are reported through Result alone.
func (c *Client) Erase(ctx context.Context, email string) (Result, error) {
	if !c.settings.AdminEnabled() {
		return Result{Status: StatusDisabled}, nil
	}

	id, found, err := c.ResolveUserID(ctx, email)
	if err != nil {
		if IsIntegrity(err) {
			return Result{Status: StatusFailed, Err: err}, err
		}
		return Result{Status: StatusFailed, Err: err}, nil
	}
	if !found {
		return Result{Status: StatusNotFound}, nil
	}

	if err := c.deletePerson(ctx, id); err != nil {
		return Result{Status: StatusFailed, PersonID: id, Err: err}, nil
	}
	return Result{Status: StatusDone, PersonID: id}, nil
}

// DeleteUser is the best-effort form of Erase: disabled, not-found and
// failed outcomes are logged and dropped. The returned error is non-nil only
// when PostHog reported inconsistent person data.
func (c *Client) DeleteUser(ctx context.Context, email string) error {
	res, err := c.Erase(ctx, email)
	if err != nil {
		return err
	}

	switch res.Status {
	case StatusDisabled:
		c.logger.WarnContext(ctx, "PostHog API secret or project id not set")
	case StatusNotFound:
		c.logger.WarnContext(ctx, "No PostHog user found with distinct id", "email", email)
	case StatusFailed:
		c.logger.ErrorContext(ctx, "Error deleting PostHog user", "email", email, "person_id", res.PersonID, "error", res.Err)
	case StatusDone:
		c.logger.InfoContext(ctx, "Deleted PostHog user", "person_id", res.PersonID)
	}
	return nil
}

func (c *Client) deletePerson(ctx context.Context, id string) error {
	target := c.personsEndpoint() + url.PathEscape(id) + "/?delete_events=true"
	req, err := c.newRequest(ctx, http.MethodDelete, target)
	if err != nil {
		return &OperationalError{Op: "delete", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &OperationalError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return &OperationalError{Op: "delete", Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.APISecret)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
}
