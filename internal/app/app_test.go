package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/lifestream/internal/config"
	"github.com/blackwell-systems/lifestream/internal/demo"
	"github.com/blackwell-systems/lifestream/internal/events"
	"github.com/blackwell-systems/lifestream/internal/journal"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/signal"
	"github.com/blackwell-systems/lifestream/internal/stream"
)

var tenAM = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// testEnv loads an env from a config file holding body.
func testEnv(t *testing.T, body string) *env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: UTC\nseed: 3\nlog:\n  level: error\n"+body), 0o600))

	prev := flagConfig
	flagConfig = path
	t.Cleanup(func() { flagConfig = prev })

	e, err := loadEnv()
	require.NoError(t, err)
	return e
}

func TestCommands_Registered(t *testing.T) {
	want := map[string]bool{"run": false, "state": false, "serve": false, "mcp": false, "demo": false, "journal": false}
	for _, cmd := range rootCmd.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "%s subcommand not registered on rootCmd", name)
	}
}

func TestThresholds_DefaultsMatchDetector(t *testing.T) {
	assert.Equal(t, pattern.DefaultThresholds, thresholds(config.DefaultRules))
}

func TestCadence_DefaultsMatchStream(t *testing.T) {
	assert.Equal(t, stream.DefaultCadence, cadence(config.DefaultCadence))
}

func TestLoadEnv(t *testing.T) {
	e := testEnv(t, "")
	assert.Equal(t, uint64(3), e.seed)
	assert.Equal(t, time.UTC, e.loc)

	prev := flagSeed
	flagSeed = 99
	t.Cleanup(func() { flagSeed = prev })
	assert.Equal(t, uint64(99), testEnv(t, "").seed)
}

func TestParseOptionalDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"90s", 90 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseOptionalDuration("for", tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSimulate_Scenario(t *testing.T) {
	e := testEnv(t, "ingest:\n  hold: 1h\n")
	sim, err := simulate(e, tenAM, 7*time.Second, "creative_hour")
	require.NoError(t, err)

	ps := sim.stream.Store().Patterns()
	assert.True(t, pattern.Has(ps, pattern.FlowState))
	assert.True(t, pattern.Has(ps, pattern.CreativePeak))
	assert.Equal(t, tenAM.Add(7*time.Second), sim.stream.Now())
	assert.Positive(t, sim.ticks)

	var detected int
	for _, a := range sim.alerts {
		if strings.HasPrefix(a.Title, "Pattern detected: ") {
			detected++
		}
	}
	assert.GreaterOrEqual(t, detected, 2)
}

func TestSimulate_SameSeedSameState(t *testing.T) {
	a, err := simulate(testEnv(t, ""), tenAM, 20*time.Second, "")
	require.NoError(t, err)
	b, err := simulate(testEnv(t, ""), tenAM, 20*time.Second, "")
	require.NoError(t, err)
	assert.Equal(t, a.stream.Store().Snapshot(), b.stream.Store().Snapshot())
}

func TestSimulate_UnknownScenario(t *testing.T) {
	_, err := simulate(testEnv(t, ""), tenAM, time.Second, "nap_time")
	assert.ErrorIs(t, err, demo.ErrUnknownScenario)
}

func TestNewDispatcher_NoneConfigured(t *testing.T) {
	e := testEnv(t, "")
	d, cleanup, err := e.newDispatcher(context.Background(), time.Now)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, d)
}

func TestNewDispatcher_Journal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	e := testEnv(t, "sinks:\n  journal:\n    enabled: true\n    path: "+path+"\n")

	d, cleanup, err := e.newDispatcher(context.Background(), func() time.Time { return tenAM.Add(time.Minute) })
	require.NoError(t, err)
	require.NotNil(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.True(t, d.Offer(events.Envelope{Name: events.Patterns, Time: tenAM, Payload: []pattern.Pattern{}}))
	assert.False(t, d.Offer(events.Envelope{Name: events.Biometrics, Time: tenAM, Payload: 1}), "biometrics is filtered by default")
	cancel()
	require.NoError(t, <-done)
	cleanup()

	db, err := journal.Open(path)
	require.NoError(t, err)
	defer db.Close()
	sess, err := db.LatestSession()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, uint64(3), sess.Seed)
	require.NotNil(t, sess.EndedAt)

	sum, err := db.Summarize(sess)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)
}

func TestNewDispatcher_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	e := testEnv(t, "sinks:\n  redis:\n    addr: "+mr.Addr()+"\n")

	d, cleanup, err := e.newDispatcher(context.Background(), time.Now)
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.True(t, d.Offer(events.Envelope{Name: events.Memory, Time: tenAM, Payload: map[string]int{"id": 1}}))
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), d.Stats().Written)
}

func TestNewDispatcher_RedisUnreachable(t *testing.T) {
	e := testEnv(t, "sinks:\n  redis:\n    addr: 127.0.0.1:1\n")
	_, _, err := e.newDispatcher(context.Background(), time.Now)
	assert.Error(t, err)
}

func TestShowJournal(t *testing.T) {
	db, err := journal.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	require.NoError(t, showJournal(&out, db, "", "", 10))
	assert.Contains(t, out.String(), "No sessions recorded")

	sess, err := db.StartSession(tenAM, "test", 5)
	require.NoError(t, err)
	require.NoError(t, db.InsertEvent(sess.ID, events.Patterns, tenAM, []byte(`[{"type":"flow_state"}]`)))
	require.NoError(t, db.InsertEvent(sess.ID, events.Memory, tenAM.Add(time.Second), []byte(`{"id":1}`)))

	out.Reset()
	require.NoError(t, showJournal(&out, db, "", "", 10))
	assert.Contains(t, out.String(), sess.UUID)
	assert.Contains(t, out.String(), "patterns")

	out.Reset()
	require.NoError(t, showJournal(&out, db, sess.UUID, "patterns", 10))
	assert.Contains(t, out.String(), "flow_state")
	assert.NotContains(t, out.String(), `{"id":1}`)

	assert.Error(t, showJournal(&out, db, "missing", "", 10))
}

func TestRunLive_StopsAfterDuration(t *testing.T) {
	e := testEnv(t, "")
	s, err := e.newStream(nil)
	require.NoError(t, err)

	start := time.Now()
	err = runLive(context.Background(), e, s, liveOptions{duration: 300 * time.Millisecond})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NotEqual(t, signal.DefaultSnapshot().Biometrics, s.GetState().Biometrics)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
