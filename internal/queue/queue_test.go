package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/graph"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	queues    []string
	exchanges []string
	published []published
	failPub   bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.queues = append(f.queues, name)
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.failPub {
		return errors.New("channel closed")
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeDelivery struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Ack(multiple bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(multiple, requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

func TestSetupQueues(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, SetupQueues(ch, []string{ReloadQueue, UploadQueue}))

	assert.Equal(t, []string{Exchange}, ch.exchanges)
	assert.Equal(t, []string{
		"reload_queue", "reload_queue_dlq", "reload_queue_retry",
		"upload_queue", "upload_queue_dlq", "upload_queue_retry",
	}, ch.queues)
}

func TestPublishIngested(t *testing.T) {
	ch := &fakeChannel{}
	err := PublishIngested(ch, graph.Summary{SnapshotID: "abc", Source: "upload", NodeCount: 4, EdgeCount: 3})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, Exchange, p.exchange)
	assert.Equal(t, TopicGraphIngested, p.key)
	assert.JSONEq(t, `{"snapshot_id":"abc","node_count":4,"edge_count":3,"source":"upload"}`, string(p.msg.Body))
}

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name       string
		headers    amqp091.Table
		cause      error
		wantTarget string
		wantCount  int32
	}{
		{name: "first failure", headers: nil, cause: errors.New("db down"), wantTarget: "upload_queue_retry", wantCount: 1},
		{name: "retried before", headers: amqp091.Table{"x-retries": int32(3)}, cause: errors.New("db down"), wantTarget: "upload_queue_retry", wantCount: 4},
		{name: "retries exhausted", headers: amqp091.Table{"x-retries": int32(MaxRetries)}, cause: errors.New("db down"), wantTarget: "upload_queue_dlq", wantCount: MaxRetries + 1},
		{name: "permanent failure", headers: nil, cause: util.Permanent(errors.New("bad table")), wantTarget: "upload_queue_dlq", wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{}
			d := &fakeDelivery{}
			HandleProcessingError(ch, UploadQueue, []byte(`{}`), tt.headers, d, tt.cause)

			require.Len(t, ch.published, 1)
			assert.Equal(t, tt.wantTarget, ch.published[0].key)
			assert.Equal(t, tt.wantCount, ch.published[0].msg.Headers["x-retries"])
			assert.True(t, d.acked)
		})
	}
}

func TestHandleProcessingError_PublishFails(t *testing.T) {
	d := &fakeDelivery{}
	HandleProcessingError(&fakeChannel{failPub: true}, UploadQueue, nil, nil, d, errors.New("x"))
	assert.False(t, d.acked)
	assert.True(t, d.nacked)
	assert.True(t, d.requeue)
}

func TestDispatch(t *testing.T) {
	ch := &fakeChannel{}
	d := &fakeDelivery{}
	Dispatch(context.Background(), ch, ReloadQueue, []byte(`{}`), nil, d, func(ctx context.Context, body []byte) error {
		return nil
	})
	assert.True(t, d.acked)
	assert.Empty(t, ch.published)
}

type fakeFiles map[string][]byte

func (f fakeFiles) GetFile(ctx context.Context, key string) ([]byte, error) {
	b, ok := f[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}

type fakeWriter struct {
	dataset      string
	edges        []edgetable.Edge
	descriptions map[string]string
	uploads      []string
}

func (w *fakeWriter) ReplaceDescriptions(ctx context.Context, dataset string, descriptions map[string]string) error {
	w.dataset = dataset
	w.descriptions = descriptions
	return nil
}

func (w *fakeWriter) ReplaceEdges(ctx context.Context, dataset string, edges []edgetable.Edge) error {
	w.dataset = dataset
	w.edges = edges
	return nil
}

func (w *fakeWriter) RecordUpload(ctx context.Context, dataset, objectKey string, rows int) error {
	w.uploads = append(w.uploads, objectKey)
	return nil
}

// datasetWriter keeps edges per dataset.
type datasetWriter struct {
	edges map[string][]edgetable.Edge
}

func (w *datasetWriter) ReplaceEdges(ctx context.Context, dataset string, edges []edgetable.Edge) error {
	w.edges[dataset] = edges
	return nil
}

func (w *datasetWriter) ReplaceDescriptions(ctx context.Context, dataset string, descriptions map[string]string) error {
	return nil
}

func (w *datasetWriter) RecordUpload(ctx context.Context, dataset, objectKey string, rows int) error {
	return nil
}

type fakeLocker struct {
	keys []string
	busy bool
}

func (l *fakeLocker) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.busy {
		return errors.New("lease lock busy")
	}
	return fn(ctx)
}

func TestUploadProcessor(t *testing.T) {
	files := fakeFiles{
		"uploads/ok.csv":     []byte("Source,Target,Edge_Type,Target_Type\nDOC-1,Alice,MENTIONS,Person\nDOC-1,Alice,MENTIONS,Person\n"),
		"uploads/broken.csv": []byte("Source,Edge_Type\nDOC-1,MENTIONS\n"),
		"uploads/desc.csv":   []byte("Reference Number,Description\nDOC-1,Wire transfer\n"),
	}

	t.Run("imports and requests reload", func(t *testing.T) {
		ch := &fakeChannel{}
		w := &fakeWriter{}
		p := &UploadProcessor{Files: files, Store: w, Channel: ch, DefaultDataset: "demo"}

		body, _ := json.Marshal(UploadMsg{Key: "uploads/ok.csv"})
		require.NoError(t, p.Process(context.Background(), body))

		assert.Equal(t, "demo", w.dataset)
		assert.Len(t, w.edges, 1)
		assert.Equal(t, []string{"uploads/ok.csv"}, w.uploads)

		require.Len(t, ch.published, 1)
		assert.Equal(t, ReloadQueue, ch.published[0].key)
		assert.JSONEq(t, `{"reason":"upload","dataset":"demo"}`, string(ch.published[0].msg.Body))
	})

	t.Run("uploads leave the preloaded dataset alone", func(t *testing.T) {
		w := &datasetWriter{edges: map[string][]edgetable.Edge{
			"demo": {{Source: "DOC-9", Target: "Zoe", EdgeType: "MENTIONS", TargetType: "Person"}},
		}}
		ch := &fakeChannel{}
		p := &UploadProcessor{Files: files, Store: w, Channel: ch}
		require.NoError(t, p.Process(context.Background(), []byte(`{"key":"uploads/ok.csv"}`)))

		require.Len(t, w.edges["demo"], 1)
		assert.Equal(t, "Zoe", w.edges["demo"][0].Target)
		assert.Len(t, w.edges[UploadDataset], 1)

		require.Len(t, ch.published, 1)
		assert.JSONEq(t, `{"reason":"upload","dataset":"uploads"}`, string(ch.published[0].msg.Body))
	})

	t.Run("imports description tables", func(t *testing.T) {
		w := &fakeWriter{}
		p := &UploadProcessor{Files: files, Store: w, Channel: &fakeChannel{}, DefaultDataset: "demo"}
		require.NoError(t, p.Process(context.Background(), []byte(`{"key":"uploads/desc.csv","dataset":"cases"}`)))

		assert.Equal(t, "cases", w.dataset)
		assert.Empty(t, w.edges)
		assert.Equal(t, map[string]string{"DOC-1": "Wire transfer"}, w.descriptions)
	})

	t.Run("writes under the dataset lease", func(t *testing.T) {
		locks := &fakeLocker{}
		p := &UploadProcessor{Files: files, Store: &fakeWriter{}, Channel: &fakeChannel{}, Locks: locks, DefaultDataset: "demo"}
		require.NoError(t, p.Process(context.Background(), []byte(`{"key":"uploads/ok.csv"}`)))
		assert.Equal(t, []string{"dataset:demo"}, locks.keys)

		locks.busy = true
		ch := &fakeChannel{}
		p.Channel = ch
		err := p.Process(context.Background(), []byte(`{"key":"uploads/ok.csv"}`))
		require.Error(t, err)
		var perm *util.PermanentError
		assert.False(t, errors.As(err, &perm))
		assert.Empty(t, ch.published)
	})

	t.Run("schema errors are permanent", func(t *testing.T) {
		p := &UploadProcessor{Files: files, Store: &fakeWriter{}, Channel: &fakeChannel{}}
		err := p.Process(context.Background(), []byte(`{"key":"uploads/broken.csv"}`))

		var perm *util.PermanentError
		require.ErrorAs(t, err, &perm)
		var se *edgetable.SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{"Target", "Target_Type"}, se.Missing)
	})

	t.Run("missing object is retried", func(t *testing.T) {
		p := &UploadProcessor{Files: files, Store: &fakeWriter{}, Channel: &fakeChannel{}}
		err := p.Process(context.Background(), []byte(`{"key":"uploads/gone.csv"}`))

		require.Error(t, err)
		var perm *util.PermanentError
		assert.False(t, errors.As(err, &perm))
	})

	t.Run("malformed message", func(t *testing.T) {
		p := &UploadProcessor{Files: files, Store: &fakeWriter{}, Channel: &fakeChannel{}}
		for _, body := range []string{"not json", `{}`} {
			err := p.Process(context.Background(), []byte(body))
			var perm *util.PermanentError
			assert.ErrorAs(t, err, &perm, body)
		}
	})
}
