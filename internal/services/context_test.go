package services_test

import (
	"context"
	"testing"

	"reelforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "s1")
	ctx = services.WithStage(ctx, "narration")
	ctx = services.WithKeyword(ctx, "ocean")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "s1" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "narration" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if keyword, ok := services.KeywordFromContext(ctx); !ok || keyword != "ocean" {
		t.Fatalf("unexpected keyword: %v %v", keyword, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithSessionID(ctx, "")
	ctx = services.WithKeyword(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
	if _, ok := services.KeywordFromContext(ctx); ok {
		t.Fatal("expected no keyword value")
	}
}
