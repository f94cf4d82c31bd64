package sweep

import (
	"testing"
	"time"

	"github.com/inovacc/buildsweep/internal/bitbucket"
	"github.com/stretchr/testify/assert"
)

func pipelineAt(age time.Duration, trigger string) bitbucket.Pipeline {
	return bitbucket.Pipeline{
		CreatedOn: testNow.Add(-age),
		Trigger:   bitbucket.Trigger{Name: trigger},
	}
}

func TestIsActive(t *testing.T) {
	week := 7 * 24 * time.Hour

	tests := []struct {
		name       string
		lastCommit time.Time
		pipelines  []bitbucket.Pipeline
		window     time.Duration
		active     bool
		reason     string
	}{
		{
			name:       "recent commit",
			lastCommit: testNow.Add(-24 * time.Hour),
			window:     week,
			active:     true,
			reason:     "recent commit",
		},
		{
			name:       "commit outside window",
			lastCommit: testNow.Add(-8 * 24 * time.Hour),
			window:     week,
			active:     false,
		},
		{
			name:      "recent manual pipeline",
			pipelines: []bitbucket.Pipeline{pipelineAt(time.Hour, "PUSH")},
			window:    week,
			active:    true,
			reason:    "recent manual pipeline",
		},
		{
			name: "single recent scheduled pipeline is not activity",
			pipelines: []bitbucket.Pipeline{
				pipelineAt(time.Hour, bitbucket.TriggerSchedule),
			},
			window: week,
			active: false,
		},
		{
			name: "multiple recent scheduled pipelines",
			pipelines: []bitbucket.Pipeline{
				pipelineAt(time.Hour, bitbucket.TriggerSchedule),
				pipelineAt(2*time.Hour, bitbucket.TriggerSchedule),
			},
			window: week,
			active: true,
			reason: "multiple recent pipelines",
		},
		{
			name: "old pipelines only",
			pipelines: []bitbucket.Pipeline{
				pipelineAt(30*24*time.Hour, "PUSH"),
				pipelineAt(14*24*time.Hour, bitbucket.TriggerSchedule),
			},
			window: week,
			active: false,
		},
		{
			name:   "no signals at all",
			window: week,
			active: false,
		},
		{
			name:       "narrow test window ignores day-old commit",
			lastCommit: testNow.Add(-24 * time.Hour),
			pipelines:  []bitbucket.Pipeline{pipelineAt(24*time.Hour, "PUSH")},
			window:     2 * time.Minute,
			active:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, reason := isActive(tt.lastCommit, tt.pipelines, tt.window, testNow)

			assert.Equal(t, tt.active, active)
			if tt.active {
				assert.Equal(t, tt.reason, reason)
			}
		})
	}
}
