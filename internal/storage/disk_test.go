package storage

import (
	"context"
	"errors"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	ctx := context.Background()

	if err := s.PutObject(ctx, "teachers/a/photo.jpg", []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	data, err := s.GetObject(ctx, "teachers/a/photo.jpg")
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("GetObject() = %q, %v", data, err)
	}

	if err := s.DeleteObject(ctx, "teachers/a/photo.jpg"); err != nil {
		t.Fatalf("DeleteObject() error = %v", err)
	}
	if _, err := s.GetObject(ctx, "teachers/a/photo.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetObject() after delete error = %v", err)
	}
	if err := s.DeleteObject(ctx, "teachers/a/photo.jpg"); err != nil {
		t.Fatalf("deleting a missing key should succeed, got %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	if err := s.PutObject(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
