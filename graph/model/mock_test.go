package model

import (
	"context"
	"testing"
)

func drain(chunks <-chan Chunk, errs <-chan error) ([]Chunk, error) {
	var got []Chunk
	for c := range chunks {
		got = append(got, c)
	}
	return got, <-errs
}

func TestMockChatModelRepeatsLastResponse(t *testing.T) {
	m := &MockChatModel{Responses: []Chunk{{Content: "first"}, {Content: "second"}}}

	c1, err := drain(m.Stream(context.Background(), nil, nil))
	if err != nil || len(c1) != 2 || c1[1].Content != "first" {
		t.Fatalf("unexpected first call: %+v, %v", c1, err)
	}
	c2, _ := drain(m.Stream(context.Background(), nil, nil))
	if c2[1].Content != "second" {
		t.Fatalf("expected second response, got %+v", c2)
	}
	c3, _ := drain(m.Stream(context.Background(), nil, nil))
	if c3[1].Content != "second" {
		t.Fatalf("expected repeated last response, got %+v", c3)
	}
	if m.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", m.CallCount())
	}
}

func TestMockChatModelErrInjection(t *testing.T) {
	m := &MockChatModel{Err: context.DeadlineExceeded}
	_, err := drain(m.Stream(context.Background(), nil, nil))
	if err != context.DeadlineExceeded {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestMockChatModelFinalChunkAlwaysLast(t *testing.T) {
	m := &MockChatModel{Responses: []Chunk{{Content: "hi"}}}
	chunks, _ := drain(m.Stream(context.Background(), nil, nil))
	if chunks[len(chunks)-1].Kind != ChunkFinal {
		t.Fatalf("expected last chunk to be final, got %+v", chunks)
	}
}
