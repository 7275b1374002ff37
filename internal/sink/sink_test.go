package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/events"
	"github.com/blackwell-systems/lifestream/internal/journal"
	"github.com/blackwell-systems/lifestream/internal/pattern"
)

var at = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type memSink struct {
	mu      sync.Mutex
	records []Record
	err     error
	closed  bool
}

func (m *memSink) Name() string { return "mem" }

func (m *memSink) Write(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memSink) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		out = append(out, r.Name)
	}
	return out
}

func envelope(name string, payload any) events.Envelope {
	return events.Envelope{Name: name, Time: at, Payload: payload}
}

func TestDispatcher_FiltersByName(t *testing.T) {
	s := &memSink{}
	d := NewDispatcher([]string{"patterns"}, 8, zap.NewNop(), s)

	assert.False(t, d.Offer(envelope("biometrics", 1)))
	assert.True(t, d.Offer(envelope("patterns", []pattern.Pattern{})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, []string{"patterns"}, s.names())
	assert.True(t, s.closed)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	s := &memSink{}
	d := NewDispatcher(nil, 2, zap.NewNop(), s)

	assert.True(t, d.Offer(envelope("memory", 1)))
	assert.True(t, d.Offer(envelope("memory", 2)))
	assert.False(t, d.Offer(envelope("memory", 3)))

	st := d.Stats()
	assert.Equal(t, int64(2), st.Queued)
	assert.Equal(t, int64(1), st.Dropped)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, int64(2), d.Stats().Written)
}

func TestDispatcher_CountsFailures(t *testing.T) {
	bad := &memSink{err: errors.New("broker down")}
	good := &memSink{}
	d := NewDispatcher(nil, 4, zap.NewNop(), bad, good)
	d.Offer(envelope("memory", 1))
	d.Offer(envelope("memory", 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	st := d.Stats()
	assert.Equal(t, int64(2), st.Failed)
	assert.Equal(t, int64(2), st.Written)
	assert.Len(t, good.names(), 2)
}

func TestDispatcher_AttachAndRun(t *testing.T) {
	s := &memSink{}
	d := NewDispatcher(nil, 16, zap.NewNop(), s)
	bus := events.NewBus()
	detach := d.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	bus.Patterns.Publish(at, []pattern.Pattern{{Type: pattern.FlowState}})
	detach()
	bus.Patterns.Publish(at, nil)

	require.Eventually(t, func() bool { return len(s.names()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"patterns"}, s.names())
}

func TestDispatcher_NoSinksQueuesNothing(t *testing.T) {
	d := NewDispatcher(nil, 1, nil)
	assert.False(t, d.Offer(envelope("memory", 1)))
	assert.Zero(t, d.Stats().Dropped)
}

func TestRecord_EncodesPayload(t *testing.T) {
	r, err := NewRecord(envelope("patterns", []pattern.Pattern{{Type: pattern.Fatigue, Confidence: 0.78}}))
	require.NoError(t, err)

	var ps []pattern.Pattern
	require.NoError(t, json.Unmarshal(r.Payload, &ps))
	assert.Equal(t, pattern.Fatigue, ps[0].Type)

	_, err = NewRecord(envelope("bad", make(chan int)))
	assert.Error(t, err)
}

func TestRedis_XAdd(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisWithClient(client, "lifestream:events", 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := NewRecord(envelope("memory", map[string]int{"id": i}))
		require.NoError(t, err)
		require.NoError(t, s.Write(ctx, r))
	}

	msgs, err := client.XRange(ctx, "lifestream:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2, "stream trimmed to max_len")
	assert.Equal(t, "memory", msgs[1].Values["event"])
	assert.JSONEq(t, `{"id":2}`, msgs[1].Values["payload"].(string))
	assert.NoError(t, s.Close())
}

func TestNewRedis_ConnectsAndFails(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedis(ctx, RedisOptions{Addr: mr.Addr(), Stream: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	mr.Close()
	_, err = NewRedis(ctx, RedisOptions{Addr: mr.Addr(), Stream: "x"})
	assert.Error(t, err)
}

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	qos      byte
	err      error
	disc     bool
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	f.qos = qos
	return doneToken{err: f.err}
}

func (f *fakePublisher) Disconnect(uint) { f.disc = true }

func TestMQTT_Publish(t *testing.T) {
	pub := &fakePublisher{}
	s := NewMQTTWithClient(pub, "lifestream", 1)

	r, err := NewRecord(envelope("predictions", []string{}))
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), r))

	assert.Equal(t, []string{"lifestream/predictions"}, pub.topics)
	assert.Equal(t, byte(1), pub.qos)
	var got Record
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "predictions", got.Name)
	assert.True(t, got.Time.Equal(at))

	pub.err = errors.New("not connected")
	assert.Error(t, s.Write(context.Background(), r))

	require.NoError(t, s.Close())
	assert.True(t, pub.disc)
	assert.Equal(t, "memory", NewMQTTWithClient(pub, "", 0).Topic("memory"))
}

func TestJournalSink(t *testing.T) {
	db, err := journal.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	end := at.Add(time.Minute)
	s, err := NewJournal(db, at, "dev", 9, func() time.Time { return end })
	require.NoError(t, err)

	r, err := NewRecord(envelope("memory", map[string]int{"id": 1}))
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), r))
	require.NoError(t, s.Close())

	sess, err := db.LatestSession()
	require.NoError(t, err)
	require.NotNil(t, sess.EndedAt)
	assert.True(t, sess.EndedAt.Equal(end))

	sum, err := db.Summarize(sess)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)
	assert.Equal(t, s.Session().UUID, sess.UUID)
}
