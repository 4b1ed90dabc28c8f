package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tversu/timing-bot/internal/infrastructure/metrics"
)

type mockGauge struct{ mock.Mock }

func (m *mockGauge) RefreshUsers(ctx context.Context, users metrics.UserCounter) error {
	return m.Called(ctx, users).Error(0)
}

type mockWarmer struct{ mock.Mock }

func (m *mockWarmer) Warm(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type counter struct{}

func (counter) Count(context.Context) (int, error)           { return 3, nil }
func (counter) CountRegistered(context.Context) (int, error) { return 2, nil }

func TestRefreshUserMetricsJob(t *testing.T) {
	gauge := &mockGauge{}
	users := counter{}
	gauge.On("RefreshUsers", mock.Anything, users).Return(nil).Once()

	job := NewRefreshUserMetricsJob(gauge, users)
	assert.Equal(t, RefreshUserMetricsName, job.Name())
	require.NoError(t, job.Run(context.Background()))
	gauge.AssertExpectations(t)
}

func TestRefreshUserMetricsJobError(t *testing.T) {
	gauge := &mockGauge{}
	boom := errors.New("db down")
	gauge.On("RefreshUsers", mock.Anything, mock.Anything).Return(boom)

	err := NewRefreshUserMetricsJob(gauge, counter{}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestWarmDirectoryJob(t *testing.T) {
	warmer := &mockWarmer{}
	warmer.On("Warm", mock.Anything).Return(12, nil).Once()

	job := NewWarmDirectoryJob(warmer, nil)
	assert.Equal(t, WarmDirectoryName, job.Name())
	require.NoError(t, job.Run(context.Background()))
	warmer.AssertExpectations(t)

	warmer.On("Warm", mock.Anything).Return(0, errors.New("feed unavailable"))
	assert.ErrorContains(t, job.Run(context.Background()), "warm directory")
}
