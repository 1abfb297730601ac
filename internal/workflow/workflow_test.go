package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehq/upload-validator/internal/domain"
	"github.com/stagehq/upload-validator/internal/workflow"
)

// ---- fake collaborators -----------------------------------------------------

type fakeStore struct {
	current  domain.TagSet
	writes   []domain.TagSet
	ops      []string
	refs     []domain.ObjectReference
	readErr  error
	writeErr error
}

func (s *fakeStore) ReadTags(_ context.Context, ref domain.ObjectReference) (domain.TagSet, error) {
	s.ops = append(s.ops, "read")
	s.refs = append(s.refs, ref)
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.current, nil
}

func (s *fakeStore) WriteTags(_ context.Context, ref domain.ObjectReference, set domain.TagSet) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.ops = append(s.ops, "write")
	s.refs = append(s.refs, ref)
	s.current = set
	s.writes = append(s.writes, set)
	return nil
}

type sentMessage struct {
	destination string
	body        []byte
	groupKey    string
}

type fakeNotifier struct {
	sent    []sentMessage
	sendErr error
}

func (n *fakeNotifier) Send(_ context.Context, destination string, body []byte, groupKey string) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, sentMessage{destination: destination, body: body, groupKey: groupKey})
	return nil
}

type fakeRecorder struct {
	runs      []*domain.ValidationRun
	recordErr error
}

func (r *fakeRecorder) Record(_ context.Context, run *domain.ValidationRun) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.runs = append(r.runs, run)
	return nil
}

// ---- helpers ---------------------------------------------------------------

func queues() workflow.Config {
	return workflow.Config{SuccessQueue: "success-q", FailureQueue: "failure-q"}
}

func objectEvent(key string, size *int64, versionID string) domain.ObjectCreated {
	var o domain.ObjectCreated
	o.Bucket.Name = "uploads"
	o.Object.Key = key
	o.Object.Size = size
	o.Object.VersionID = versionID
	return o
}

func sizePtr(n int64) *int64 { return &n }

func decodeMessage(t *testing.T, body []byte) domain.ValidationMessage {
	t.Helper()
	var msg domain.ValidationMessage
	require.NoError(t, json.Unmarshal(body, &msg))
	return msg
}

// ---- scenarios -------------------------------------------------------------

func TestRun_ValidObject(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	wf := workflow.New(store, notifier, nil, queues())

	resp, err := wf.Run(context.Background(), "req-1", objectEvent("1234-0001-0002-0003.txt", sizePtr(10), "v1"))

	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.ReqID)
	assert.Equal(t, "File is valid", resp.Message)

	// stamp in-progress, stamp finished, then fetch-merge-write the outcome
	require.Equal(t, []string{"write", "write", "read", "write"}, store.ops)
	assert.Equal(t, domain.TagSet{{Key: "validating", Value: "true"}}, store.writes[0])
	assert.Equal(t, domain.TagSet{{Key: "validated", Value: "true"}}, store.writes[1])
	assert.Equal(t, domain.TagSet{
		{Key: "validated", Value: "true"},
		{Key: "valid", Value: "true"},
	}, store.writes[2])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "success-q", notifier.sent[0].destination)
	assert.Equal(t, "ValidationGroup", notifier.sent[0].groupKey)

	msg := decodeMessage(t, notifier.sent[0].body)
	assert.Equal(t, "Validation_Workflow", msg.Workflow)
	assert.Equal(t, "req-1", msg.ExcID)
	assert.Equal(t, []string{"CD-TECH", "AM-DEVS"}, msg.Categories)
	assert.Equal(t, "File is valid", msg.Message)
	assert.Nil(t, msg.ContinueURL)
	assert.Nil(t, msg.AbortURL)
}

func TestRun_InvalidObjectQuarantined(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	wf := workflow.New(store, notifier, nil, queues())

	resp, err := wf.Run(context.Background(), "req-2", objectEvent("bad.csv", sizePtr(0), "v1"))

	require.NoError(t, err)
	assert.Equal(t, "req-2", resp.ReqID)
	assert.Equal(t,
		"Invalid file extension, should be .txt, "+
			"Invalid size, it should be greater than 0, "+
			"Invalid file name format, it should be formated as a Prod ID",
		resp.Message)

	require.Equal(t, []string{"write", "write", "read", "write"}, store.ops)
	assert.Equal(t, domain.TagSet{
		{Key: "validated", Value: "true"},
		{Key: "quarantine", Value: "true"},
	}, store.writes[2])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "failure-q", notifier.sent[0].destination)

	msg := decodeMessage(t, notifier.sent[0].body)
	require.NotNil(t, msg.ContinueURL)
	require.NotNil(t, msg.AbortURL)
	assert.Equal(t, "https://example.com/continue", *msg.ContinueURL)
	assert.Equal(t, "https://example.com/abort", *msg.AbortURL)
}

func TestRun_MissingVersionAbortsBeforeAnyRemoteCall(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	wf := workflow.New(store, notifier, nil, queues())

	_, err := wf.Run(context.Background(), "req-3", objectEvent("1-2-3-4.txt", sizePtr(10), ""))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Empty(t, store.ops)
	assert.Empty(t, notifier.sent)
}

func TestRun_MissingQueueConfigAborts(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	wf := workflow.New(store, notifier, nil, workflow.Config{SuccessQueue: "success-q"})

	_, err := wf.Run(context.Background(), "req-4", objectEvent("1-2-3-4.txt", sizePtr(10), "v1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.ErrorContains(t, err, "FAILURE_QUEUE")
	assert.Empty(t, store.ops)
}

func TestRun_StoreFailureAbortsWithoutNotification(t *testing.T) {
	store := &fakeStore{writeErr: errors.New("store unavailable")}
	notifier := &fakeNotifier{}
	wf := workflow.New(store, notifier, nil, queues())

	_, err := wf.Run(context.Background(), "req-5", objectEvent("1-2-3-4.txt", sizePtr(10), "v1"))

	require.Error(t, err)
	assert.ErrorContains(t, err, "could not add tag validating")
	assert.Empty(t, notifier.sent)
}

func TestRun_SendFailureAborts(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{sendErr: errors.New("channel unavailable")}
	wf := workflow.New(store, notifier, nil, queues())

	_, err := wf.Run(context.Background(), "req-6", objectEvent("1-2-3-4.txt", sizePtr(10), "v1"))

	require.Error(t, err)
	assert.ErrorContains(t, err, "channel unavailable")
	// tags were already written; no rollback is attempted
	require.Equal(t, []string{"write", "write", "read", "write"}, store.ops)
}

func TestRun_DecodesPlusInKeyForStoreCalls(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	wf := workflow.New(store, notifier, nil, queues())

	_, err := wf.Run(context.Background(), "req-7", objectEvent("1-2-3-4+copy.txt", sizePtr(10), "v1"))

	require.NoError(t, err)
	require.NotEmpty(t, store.refs)
	for _, ref := range store.refs {
		assert.Equal(t, "1-2-3-4 copy.txt", ref.Key)
	}
}

func TestRun_RecordsAuditRow(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	wf := workflow.New(store, notifier, recorder, queues())

	_, err := wf.Run(context.Background(), "req-8", objectEvent("1-2-3-4.txt", sizePtr(10), "v1"))

	require.NoError(t, err)
	require.Len(t, recorder.runs, 1)
	run := recorder.runs[0]
	assert.Equal(t, "req-8", run.RequestID)
	assert.Equal(t, "uploads", run.Bucket)
	assert.Equal(t, "1-2-3-4.txt", run.ObjectKey)
	assert.Equal(t, "v1", run.VersionID)
	assert.True(t, run.Valid)
	assert.Equal(t, "File is valid", run.Message)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{recordErr: errors.New("db down")}
	wf := workflow.New(store, notifier, recorder, queues())

	resp, err := wf.Run(context.Background(), "req-9", objectEvent("1-2-3-4.txt", sizePtr(10), "v1"))

	require.NoError(t, err)
	assert.Equal(t, "req-9", resp.ReqID)
}
