package bitbucket

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Schedule represents a scheduled pipeline configuration.
type Schedule struct {
	UUID        string         `json:"uuid"`
	Type        string         `json:"type"`
	Enabled     bool           `json:"enabled"`
	CronPattern string         `json:"cron_pattern"`
	Target      ScheduleTarget `json:"target"`
	CreatedOn   time.Time      `json:"created_on"`
}

// ScheduleTarget is the ref a scheduled pipeline runs against.
type ScheduleTarget struct {
	Type     string           `json:"type"`
	RefName  string           `json:"ref_name"`
	RefType  string           `json:"ref_type"`
	Selector ScheduleSelector `json:"selector"`
}

// ScheduleSelector selects the branch pattern for a schedule target.
type ScheduleSelector struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// Matches reports whether the schedule runs the given cron pattern against
// the given branch.
func (s Schedule) Matches(cronPattern, branch string) bool {
	return s.CronPattern == cronPattern && s.Target.Selector.Pattern == branch
}

// ListSchedules returns all scheduled pipelines of a repository, following
// pagination.
func (c *Client) ListSchedules(ctx context.Context, repoSlug string) ([]Schedule, error) {
	params := url.Values{}
	params.Set("pagelen", "100")

	next := c.baseURL + c.repoPath(repoSlug, "/pipelines_config/schedules") + "?" + params.Encode()

	var schedules []Schedule

	for next != "" {
		var resp struct {
			Values []Schedule `json:"values"`
			Next   string     `json:"next"`
		}

		if err := c.doURL(ctx, http.MethodGet, next, nil, &resp); err != nil {
			return nil, err
		}

		schedules = append(schedules, resp.Values...)
		next = resp.Next
	}

	return schedules, nil
}

// scheduleRequest is the create-schedule payload.
type scheduleRequest struct {
	Type        string         `json:"type"`
	Target      ScheduleTarget `json:"target"`
	Enabled     bool           `json:"enabled"`
	CronPattern string         `json:"cron_pattern"`
}

// CreateSchedule creates an enabled scheduled pipeline on a branch.
func (c *Client) CreateSchedule(ctx context.Context, repoSlug, cronPattern, branch string) (*Schedule, error) {
	payload := scheduleRequest{
		Type: "pipeline_schedule",
		Target: ScheduleTarget{
			Type:    "pipeline_ref_target",
			RefName: branch,
			RefType: "branch",
			Selector: ScheduleSelector{
				Type:    "branches",
				Pattern: branch,
			},
		},
		Enabled:     true,
		CronPattern: cronPattern,
	}

	var created Schedule

	path := c.repoPath(repoSlug, "/pipelines_config/schedules")
	if err := c.do(ctx, http.MethodPost, path, nil, payload, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// DeleteSchedule removes a scheduled pipeline by UUID.
func (c *Client) DeleteSchedule(ctx context.Context, repoSlug, scheduleUUID string) error {
	normalized, err := NormalizeUUID(scheduleUUID)
	if err != nil {
		return err
	}

	path := c.repoPath(repoSlug, "/pipelines_config/schedules/"+url.PathEscape(normalized))

	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
