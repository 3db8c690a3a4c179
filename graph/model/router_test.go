package model

import (
	"context"
	"testing"
)

func TestFallbackRouterUsesDefaultWithNoHint(t *testing.T) {
	def := &MockChatModel{}
	r := NewFallbackRouter(def)

	got, err := r.Route(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got != ChatModel(def) {
		t.Fatalf("expected default model, got %v", got)
	}
}

func TestFallbackRouterSelectsByHint(t *testing.T) {
	def := &MockChatModel{}
	fast := &MockChatModel{}
	r := NewFallbackRouter(def)
	r.Register("fast", fast)

	got, err := r.Route(context.Background(), nil, map[string]any{"model": "fast"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got != ChatModel(fast) {
		t.Fatalf("expected fast model, got %v", got)
	}
}

func TestFallbackRouterFallsBackOnUnknownHint(t *testing.T) {
	def := &MockChatModel{}
	r := NewFallbackRouter(def)

	got, err := r.Route(context.Background(), nil, map[string]any{"model": "unknown"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got != ChatModel(def) {
		t.Fatalf("expected default fallback, got %v", got)
	}
}

func TestFallbackRouterErrorsWithNoDefaultAndNoMatch(t *testing.T) {
	r := NewFallbackRouter(nil)
	if _, err := r.Route(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error when router has no default and no hint")
	}
}
