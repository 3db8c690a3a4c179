package google

import (
	"context"
	"errors"
	"testing"

	"github.com/corvid-labs/chatgraph/graph/model"
)

type stubClient struct {
	chunk model.Chunk
	err   error
}

func (s *stubClient) generateContent(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.Chunk, error) {
	return s.chunk, s.err
}

func drain(chunks <-chan model.Chunk, errs <-chan error) ([]model.Chunk, error) {
	var got []model.Chunk
	for c := range chunks {
		got = append(got, c)
	}
	return got, <-errs
}

func TestChatModelStreamEmitsTokenThenFinal(t *testing.T) {
	m := &ChatModel{client: &stubClient{chunk: model.Chunk{Content: "hi there"}}}
	chunks, err := drain(m.Stream(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hello"}}, nil))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Kind != model.ChunkToken || chunks[1].Kind != model.ChunkFinal {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestChatModelStreamPropagatesError(t *testing.T) {
	m := &ChatModel{client: &stubClient{err: errors.New("boom")}}
	_, err := drain(m.Stream(context.Background(), nil, nil))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestChatModelStreamWrapsSafetyFilterError(t *testing.T) {
	m := &ChatModel{client: &stubClient{err: &SafetyFilterError{reason: "blocked", category: "hate_speech"}}}
	_, err := drain(m.Stream(context.Background(), nil, nil))
	var safetyErr *SafetyFilterError
	if !errors.As(err, &safetyErr) {
		t.Fatalf("expected *SafetyFilterError, got %v", err)
	}
	if safetyErr.Category() != "hate_speech" {
		t.Fatalf("unexpected category: %s", safetyErr.Category())
	}
}

func TestChatModelStreamNoContentEmitsOnlyFinal(t *testing.T) {
	m := &ChatModel{client: &stubClient{chunk: model.Chunk{}}}
	chunks, err := drain(m.Stream(context.Background(), nil, nil))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Kind != model.ChunkFinal {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}
