package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/netrixframework/qlearn/rl"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEpisodeCounters(t *testing.T) {
	m := NewMetrics()
	m.EpisodeDone(rl.EpisodeStats{Episode: 0, Training: true, Steps: 5, Success: true, Epsilon: 0.8, Rolling: 1})
	m.EpisodeDone(rl.EpisodeStats{Episode: 1, Training: true, Steps: 7, Epsilon: 0.7, Rolling: 1})
	m.EpisodeDone(rl.EpisodeStats{Episode: 0, Steps: 3, Success: true, Rolling: 1})

	require.Equal(t, 2.0, testutil.ToFloat64(m.Episodes.WithLabelValues("train")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Episodes.WithLabelValues("eval")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Successes.WithLabelValues("train")))
	require.Equal(t, 12.0, testutil.ToFloat64(m.Steps.WithLabelValues("train")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Epsilon))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Rolling))
	require.Equal(t, 2, testutil.CollectAndCount(m.EpisodeLength))
}

func TestRunCounters(t *testing.T) {
	m := NewMetrics()
	m.RunDone(rl.RunStats{Training: true, Epsilon: 0.4})
	m.RunDone(rl.RunStats{Err: errors.New("missing model")})

	require.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("train", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("eval", "error")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Epsilon))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.EpisodeDone(rl.EpisodeStats{Training: true, Steps: 4})

	server := httptest.NewServer(m.Handler())
	defer server.Close()
	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `qlearn_episodes_total{mode="train"} 1`)
	require.Contains(t, string(body), "qlearn_steps_total")
}
