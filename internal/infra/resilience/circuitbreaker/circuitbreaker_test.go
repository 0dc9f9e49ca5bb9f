package circuitbreaker

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	t.Parallel()

	cb := New(testConfig(), discardLogger())
	require.Equal(t, "test-circuit", cb.Name())
	require.Equal(t, gobreaker.StateClosed, cb.State())
	require.False(t, cb.IsOpen())
}

func TestExecutePassesThrough(t *testing.T) {
	t.Parallel()

	cb := New(testConfig(), discardLogger())
	result, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	})
	require.NoError(t, err)
	require.Equal(t, "success", result)

	testErr := errors.New("boom")
	_, err = cb.Execute(func() (interface{}, error) {
		return nil, testErr
	})
	require.ErrorIs(t, err, testErr)
	require.False(t, IsRejection(err))
}

func TestTripsAfterFailureRatio(t *testing.T) {
	t.Parallel()

	cb := New(testConfig(), discardLogger())
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("upstream down")
		})
	}
	require.True(t, cb.IsOpen())

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	require.False(t, called)
	require.ErrorIs(t, err, ErrOpen)
	require.True(t, IsRejection(err))
}

func TestIsSuccessfulErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	errCaller := errors.New("caller mistake")
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, errCaller) }
	cb := New(cfg, discardLogger())

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, errCaller
		})
		require.ErrorIs(t, err, errCaller)
	}
	require.False(t, cb.IsOpen())
}

func TestPresets(t *testing.T) {
	t.Parallel()

	require.Equal(t, "llm-api", LLMConfig().Name)
	fetch := URLFetchConfig()
	require.Equal(t, "url-fetch", fetch.Name)
	require.Greater(t, fetch.Timeout, LLMConfig().Timeout)
}
