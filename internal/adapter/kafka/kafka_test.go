package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

type mockMessageWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockMessageWriter) Close() error {
	m.closed = true
	return nil
}

func testSummary() domain.ImportSummary {
	started := time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)
	return domain.ImportSummary{
		RunID:      "3f1c2a6e-8d0b-4b7e-9a43-0c6f7d1e2b55",
		Source:     "1_crash_locations.csv",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Duration:   90 * time.Second,
		Processed:  3,
		Stored:     1,
		Failed:     2,
		Skipped:    1,
		Failures:   map[string]int{domain.FailureNoLocation: 1, domain.FailureRowFormat: 1},
	}
}

func TestSerializeSummary(t *testing.T) {
	summary := testSummary()

	msg, err := serializeSummary(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte(summary.RunID), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "source", msg.Headers[0].Key)
	assert.Equal(t, []byte("1_crash_locations.csv"), msg.Headers[0].Value)
	assert.Equal(t, "finished_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:01:30Z"), msg.Headers[1].Value)
	assert.Equal(t, []byte("1"), msg.Headers[2].Value)

	var decoded domain.ImportSummary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, summary, decoded)
}

func TestWriter_PublishSummary(t *testing.T) {
	mw := &mockMessageWriter{}
	w := &Writer{writer: mw, logger: slog.Default()}

	require.NoError(t, w.PublishSummary(context.Background(), testSummary()))
	require.Len(t, mw.msgs, 1)
	assert.Contains(t, string(mw.msgs[0].Value), `"stored":1`)

	require.NoError(t, w.Close())
	assert.True(t, mw.closed)
}

func TestWriter_PublishSummaryError(t *testing.T) {
	w := &Writer{writer: &mockMessageWriter{err: errors.New("leader not available")}, logger: slog.Default()}

	err := w.PublishSummary(context.Background(), testSummary())
	require.ErrorContains(t, err, "leader not available")
}
