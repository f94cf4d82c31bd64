package sweep

import (
	"context"
	"fmt"

	"github.com/inovacc/buildsweep/internal/bitbucket"
)

// mockCatalog is a Catalog for testing.
type mockCatalog struct {
	Repos []string
	Err   error

	// Call tracking
	ListCalls int
}

func (m *mockCatalog) ListRepositories(_ context.Context) ([]string, error) {
	m.ListCalls++

	if m.Err != nil {
		return nil, m.Err
	}

	return m.Repos, nil
}

// repoState is the canned API state of one repository.
type repoState struct {
	Branch    string
	BranchErr error

	Commit    *bitbucket.Commit
	CommitErr error

	Pipelines    []bitbucket.Pipeline
	PipelinesErr error

	Schedules    []bitbucket.Schedule
	SchedulesErr error

	CreateErr error
	DeleteErr error
}

// mockPipelines is a Pipelines implementation for testing with per-repo
// state, error injection and call tracking.
type mockPipelines struct {
	Repos map[string]*repoState

	// Call tracking
	BranchCalls []string
	CreateCalls []string
	DeleteCalls []string
	DeletedUUID string
}

func (m *mockPipelines) state(repo string) (*repoState, error) {
	state, ok := m.Repos[repo]
	if !ok {
		return nil, fmt.Errorf("unexpected repo %q", repo)
	}

	return state, nil
}

func (m *mockPipelines) DefaultBranch(_ context.Context, repo string) (string, error) {
	m.BranchCalls = append(m.BranchCalls, repo)

	state, err := m.state(repo)
	if err != nil {
		return "", err
	}

	if state.BranchErr != nil {
		return "", state.BranchErr
	}

	return state.Branch, nil
}

func (m *mockPipelines) LatestCommit(_ context.Context, repo, _ string) (*bitbucket.Commit, error) {
	state, err := m.state(repo)
	if err != nil {
		return nil, err
	}

	if state.CommitErr != nil {
		return nil, state.CommitErr
	}

	if state.Commit == nil {
		return nil, bitbucket.ErrNoCommits
	}

	return state.Commit, nil
}

func (m *mockPipelines) ListPipelines(_ context.Context, repo string) ([]bitbucket.Pipeline, error) {
	state, err := m.state(repo)
	if err != nil {
		return nil, err
	}

	if state.PipelinesErr != nil {
		return nil, state.PipelinesErr
	}

	return state.Pipelines, nil
}

func (m *mockPipelines) ListSchedules(_ context.Context, repo string) ([]bitbucket.Schedule, error) {
	state, err := m.state(repo)
	if err != nil {
		return nil, err
	}

	if state.SchedulesErr != nil {
		return nil, state.SchedulesErr
	}

	return state.Schedules, nil
}

func (m *mockPipelines) CreateSchedule(_ context.Context, repo, cronPattern, branch string) (*bitbucket.Schedule, error) {
	m.CreateCalls = append(m.CreateCalls, repo)

	state, err := m.state(repo)
	if err != nil {
		return nil, err
	}

	if state.CreateErr != nil {
		return nil, state.CreateErr
	}

	return &bitbucket.Schedule{
		UUID:        "{99999999-9999-4999-8999-999999999999}",
		Enabled:     true,
		CronPattern: cronPattern,
		Target: bitbucket.ScheduleTarget{
			RefName:  branch,
			Selector: bitbucket.ScheduleSelector{Type: "branches", Pattern: branch},
		},
	}, nil
}

func (m *mockPipelines) DeleteSchedule(_ context.Context, repo, scheduleUUID string) error {
	m.DeleteCalls = append(m.DeleteCalls, repo)
	m.DeletedUUID = scheduleUUID

	state, err := m.state(repo)
	if err != nil {
		return err
	}

	return state.DeleteErr
}
