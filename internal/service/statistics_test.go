package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounts(t *testing.T) {
	setup(t)
	ctx := context.Background()
	user := createUser(t, "alice", false)

	a := submitLegacy(t, user.ID, "bug", "a")
	submitLegacy(t, user.ID, "bug", "b")
	c := submitLegacy(t, user.ID, "comment", "c")
	require.NoError(t, Submission.SetStatus(ctx, a, "resolved", ""))
	require.NoError(t, Submission.SetStatus(ctx, c, "in_progress", ""))

	counts, err := Statistics.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &FeedbackCounts{
		Total:      3,
		New:        1,
		InProgress: 1,
		Resolved:   1,
		Comments:   1,
		Bugs:       2,
	}, counts)
}

func TestTrend(t *testing.T) {
	setup(t)
	ctx := context.Background()
	user := createUser(t, "alice", false)

	a := submitLegacy(t, user.ID, "bug", "a")
	submitLegacy(t, user.ID, "bug", "b")
	require.NoError(t, Submission.SetStatus(ctx, a, "resolved", ""))

	now := time.Now()
	points, err := Statistics.Trend(ctx, now.Add(-time.Hour), now.Add(time.Hour), DimensionYear)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, now.Format("2006"), points[0].TimePoint)
	assert.Equal(t, int64(2), points[0].Submitted)
	assert.Equal(t, int64(1), points[0].Resolved)

	_, err = Statistics.Trend(ctx, now, now.Add(-time.Hour), DimensionDay)
	assertKind(t, err, KindValidation, "End time must be after start time.")
}
