// Package sweep implements the dormant-repository sweep: it walks the
// repositories behind a service catalog, decides per repository whether a
// weekly placeholder build schedule should exist, and applies the
// decisions against Bitbucket.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inovacc/buildsweep/internal/bitbucket"
	"github.com/inovacc/buildsweep/internal/schedule"
)

// DefaultWindow is the trailing activity window: a repository with no
// activity inside it is considered dormant.
const DefaultWindow = 7 * 24 * time.Hour

// Catalog resolves logical services to repository slugs.
type Catalog interface {
	ListRepositories(ctx context.Context) ([]string, error)
}

// Pipelines is the subset of the Bitbucket client the sweep uses.
type Pipelines interface {
	DefaultBranch(ctx context.Context, repoSlug string) (string, error)
	LatestCommit(ctx context.Context, repoSlug, branch string) (*bitbucket.Commit, error)
	ListPipelines(ctx context.Context, repoSlug string) ([]bitbucket.Pipeline, error)
	ListSchedules(ctx context.Context, repoSlug string) ([]bitbucket.Schedule, error)
	CreateSchedule(ctx context.Context, repoSlug, cronPattern, branch string) (*bitbucket.Schedule, error)
	DeleteSchedule(ctx context.Context, repoSlug, scheduleUUID string) error
}

// Options configures a sweep.
type Options struct {
	// Repositories restricts the sweep to the listed slugs, skipping the
	// catalog entirely.
	Repositories []string
	// Overrides are glob patterns; matching slugs are never touched.
	Overrides []string
	// Window is the trailing activity window. Zero means DefaultWindow.
	Window time.Duration
	// Pattern is the cron pattern of created schedules. Empty means
	// schedule.DefaultPattern.
	Pattern string
	// DryRun reports decisions without making any write calls.
	DryRun bool
	Logger *slog.Logger
}

// Action is what the sweep decided to do with a repository.
type Action string

const (
	// ActionSchedule creates a weekly placeholder schedule
	ActionSchedule Action = "schedule"
	// ActionUnschedule removes the placeholder schedule from an active repo
	ActionUnschedule Action = "unschedule"
	// ActionSkip leaves the repository untouched
	ActionSkip Action = "skip"
)

// Decision is the planned action for a single repository.
type Decision struct {
	Repo         string
	Action       Action
	Reason       string
	Branch       string
	ScheduleUUID string // set when Action is ActionUnschedule
	Err          error  // inspection failure; Action is ActionSkip
}

// Failed reports whether the repository could not be inspected.
func (d Decision) Failed() bool {
	return d.Err != nil
}

// Plan is a prepared sweep: one decision per candidate repository.
type Plan struct {
	Window    time.Duration
	Pattern   string
	Decisions []Decision
}

// Engine prepares and executes sweeps.
type Engine struct {
	catalog   Catalog
	pipelines Pipelines
	opts      Options
	overrides *overrideMatcher
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a sweep engine. The catalog may be nil when Options.
// Repositories is set.
func New(catalog Catalog, pipelines Pipelines, opts Options) (*Engine, error) {
	if pipelines == nil {
		return nil, errors.New("pipelines client is required")
	}

	if catalog == nil && len(opts.Repositories) == 0 {
		return nil, errors.New("either a catalog or an explicit repository list is required")
	}

	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}

	if opts.Pattern == "" {
		opts.Pattern = schedule.DefaultPattern
	}

	if err := schedule.Validate(opts.Pattern); err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	overrides, err := newOverrideMatcher(opts.Overrides)
	if err != nil {
		return nil, err
	}

	return &Engine{
		catalog:   catalog,
		pipelines: pipelines,
		opts:      opts,
		overrides: overrides,
		logger:    opts.Logger,
		now:       time.Now,
	}, nil
}

// Prepare inspects every candidate repository and returns the sweep plan.
// Per-repository inspection failures end up as failed skip decisions; only
// listing the catalog itself can fail the whole prepare.
func (e *Engine) Prepare(ctx context.Context) (*Plan, error) {
	repos := e.opts.Repositories

	if len(repos) == 0 {
		var err error

		repos, err = e.catalog.ListRepositories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list catalog repositories: %w", err)
		}
	}

	plan := &Plan{
		Window:    e.opts.Window,
		Pattern:   e.opts.Pattern,
		Decisions: make([]Decision, 0, len(repos)),
	}

	for _, repo := range repos {
		decision := e.decide(ctx, repo)

		if decision.Failed() {
			e.logger.Warn("failed to inspect repository",
				slog.String("repo", repo),
				slog.Any("error", decision.Err),
			)
		} else {
			e.logger.Debug("repository inspected",
				slog.String("repo", repo),
				slog.String("action", string(decision.Action)),
				slog.String("reason", decision.Reason),
			)
		}

		plan.Decisions = append(plan.Decisions, decision)
	}

	return plan, nil
}

// decide inspects one repository and picks its action.
func (e *Engine) decide(ctx context.Context, repo string) Decision {
	decision := Decision{Repo: repo, Action: ActionSkip}

	if e.overrides.Match(repo) {
		decision.Reason = "overridden"
		return decision
	}

	branch, err := e.pipelines.DefaultBranch(ctx, repo)
	if err != nil {
		if errors.Is(err, bitbucket.ErrNoDefaultBranch) {
			decision.Reason = "no main or master branch"
			return decision
		}

		decision.Err = err

		return decision
	}

	decision.Branch = branch

	pipelines, err := e.pipelines.ListPipelines(ctx, repo)
	if err != nil {
		decision.Err = err
		return decision
	}

	// Repositories that never ran a pipeline have nothing to keep warm.
	if len(pipelines) == 0 {
		decision.Reason = "no pipelines"
		return decision
	}

	var lastCommit time.Time

	commit, err := e.pipelines.LatestCommit(ctx, repo, branch)
	switch {
	case errors.Is(err, bitbucket.ErrNoCommits):
	case err != nil:
		decision.Err = err
		return decision
	default:
		lastCommit = commit.Date
	}

	active, activityReason := isActive(lastCommit, pipelines, e.opts.Window, e.now())

	schedules, err := e.pipelines.ListSchedules(ctx, repo)
	if err != nil {
		decision.Err = err
		return decision
	}

	var existing *bitbucket.Schedule

	for i := range schedules {
		if schedules[i].Matches(e.opts.Pattern, branch) {
			existing = &schedules[i]
			break
		}
	}

	switch {
	case active && existing != nil:
		decision.Action = ActionUnschedule
		decision.Reason = activityReason
		decision.ScheduleUUID = existing.UUID
	case active:
		decision.Reason = activityReason
	case existing != nil:
		decision.Reason = "already scheduled"
	default:
		decision.Action = ActionSchedule
		decision.Reason = "dormant"
	}

	return decision
}
