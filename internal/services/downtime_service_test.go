package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/anchor-cli/internal/domain"
)

func TestDowntimeService_TickPersistsAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setup(t)

	// Grip fires first because no grip has run yet.
	out, err := env.downtime.Tick(ctx, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionGripStart, out.Result.Transition)
	assert.Equal(t, domain.ActivityGrip, out.State.CurrentActivity)
	require.NotNil(t, out.EndsAt)
	assert.Equal(t, at(10, 1), *out.EndsAt)
	assert.True(t, out.Notified)
	require.Equal(t, 1, env.notifier.count())
	assert.Contains(t, env.notifier.titles[0], "Grip strength")

	stored, err := env.downtime.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityGrip, stored.State.CurrentActivity)
	assert.Equal(t, domain.ActivityGrip, stored.State.LastNotifiedActivity)

	// Still gripping: nothing changes and nothing is sent.
	out, err = env.downtime.Tick(ctx, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionNone, out.Result.Transition)
	assert.False(t, out.Notified)
	assert.Equal(t, 1, env.notifier.count())

	out, err = env.downtime.Tick(ctx, at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionGripResume, out.Result.Transition)
	assert.Equal(t, "Quran", out.State.CurrentActivity)
	assert.Equal(t, 2, env.notifier.count())
	assert.Contains(t, env.notifier.titles[1], "Quran")
	assert.True(t, strings.HasPrefix(env.notifier.texts[1], "Quran for 30m"), env.notifier.texts[1])
}

func TestDowntimeService_NotifierFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setup(t)
	env.notifier.err = errors.New("dbus not running")

	out, err := env.downtime.Tick(ctx, at(10, 0))
	require.NoError(t, err)
	assert.False(t, out.Notified)

	stored, err := env.downtime.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityGrip, stored.State.CurrentActivity)
	assert.Equal(t, domain.ActivityGrip, stored.State.LastNotifiedActivity)
}

func TestDowntimeService_GripPreservesRemaining(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setup(t)
	require.NoError(t, env.settings.SetGrip(ctx, false))

	out, err := env.downtime.Tick(ctx, at(10, 0))
	require.NoError(t, err)
	require.Equal(t, "Quran", out.State.CurrentActivity)

	require.NoError(t, env.settings.SetGrip(ctx, true))
	out, err = env.downtime.ForceGrip(ctx, at(10, 10))
	require.NoError(t, err)
	require.Equal(t, domain.ActivityGrip, out.State.CurrentActivity)
	require.NotNil(t, out.State.PausedState)
	assert.Equal(t, 20*time.Minute, out.State.PausedState.RemainingTime)
	assert.Contains(t, env.notifier.texts[len(env.notifier.texts)-1], "back to Quran")

	out, err = env.downtime.Tick(ctx, at(10, 11).Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "Quran", out.State.CurrentActivity)
	require.NotNil(t, out.EndsAt)
	assert.Equal(t, 20*time.Minute, out.EndsAt.Sub(at(10, 11).Add(time.Second)))
}

func TestDowntimeService_ForceGripDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setup(t)
	require.NoError(t, env.settings.SetGrip(ctx, false))

	_, err := env.downtime.ForceGrip(ctx, at(10, 0))
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestDowntimeService_NoSettings(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.downtime.Tick(context.Background(), at(10, 0))
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
}
