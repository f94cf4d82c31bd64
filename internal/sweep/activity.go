package sweep

import (
	"time"

	"github.com/inovacc/buildsweep/internal/bitbucket"
)

// isActive decides whether a repository counts as in development within
// the trailing window. A repository is active when its default branch has
// a recent commit, when somebody (or something other than the schedule)
// recently ran a pipeline, or when more than one pipeline of any kind ran
// recently. The returned reason names the signal that fired.
func isActive(lastCommit time.Time, pipelines []bitbucket.Pipeline, window time.Duration, now time.Time) (bool, string) {
	cutoff := now.Add(-window)

	if !lastCommit.IsZero() && lastCommit.After(cutoff) {
		return true, "recent commit"
	}

	recent := 0

	for _, pipeline := range pipelines {
		if !pipeline.CreatedOn.After(cutoff) {
			continue
		}

		if !pipeline.IsScheduled() {
			return true, "recent manual pipeline"
		}

		recent++
		if recent > 1 {
			return true, "multiple recent pipelines"
		}
	}

	return false, ""
}
