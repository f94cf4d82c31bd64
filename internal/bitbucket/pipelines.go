package bitbucket

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// TriggerSchedule is the trigger name of pipeline runs started by a
// scheduled pipeline.
const TriggerSchedule = "SCHEDULE"

// Pipeline represents a pipeline run.
type Pipeline struct {
	UUID        string    `json:"uuid"`
	BuildNumber int       `json:"build_number"`
	CreatedOn   time.Time `json:"created_on"`
	Trigger     Trigger   `json:"trigger"`
	State       struct {
		Name string `json:"name"`
	} `json:"state"`
}

// Trigger describes what started a pipeline run.
type Trigger struct {
	Name string `json:"name"`
}

// IsScheduled reports whether the pipeline was started by a schedule.
func (p Pipeline) IsScheduled() bool {
	return p.Trigger.Name == TriggerSchedule
}

// ListPipelines returns the repository's most recent pipeline runs,
// newest first. A single page is enough for the activity window check;
// the API caps pagelen at 100.
func (c *Client) ListPipelines(ctx context.Context, repoSlug string) ([]Pipeline, error) {
	params := url.Values{}
	params.Set("sort", "-created_on")
	params.Set("pagelen", "100")

	var resp struct {
		Values []Pipeline `json:"values"`
	}

	err := c.do(ctx, http.MethodGet, c.repoPath(repoSlug, "/pipelines"), params, nil, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Values, nil
}
