package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/internal/config"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:", MaxConns: 1})
	if err != nil {
		t.Fatalf("NewGormStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func strPtr(s string) *string { return &s }

func createTeacher(t *testing.T, s *GormStore, name string, img *models.Image) *models.Person {
	t.Helper()
	p := &models.Person{Name: name, Branch: "CS", Floor: "3", Directions: "Near elevator"}
	if err := s.CreatePerson(context.Background(), p, img); err != nil {
		t.Fatalf("CreatePerson(%q) error = %v", name, err)
	}
	return p
}

func TestGormCreateAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	img := &models.Image{MimeType: "image/jpeg", Width: 200, Height: 267, Size: 3, Data: []byte{1, 2, 3}}
	p := createTeacher(t, s, "Asha Rao", img)

	if p.ID == uuid.Nil || p.ImageID == nil || *p.ImageID != img.ID {
		t.Fatalf("ids not assigned: person=%v image=%v", p.ID, p.ImageID)
	}

	got, err := s.GetPersonByName(ctx, "Asha Rao")
	if err != nil {
		t.Fatalf("GetPersonByName() error = %v", err)
	}
	if got.ID != p.ID || got.Branch != "CS" || got.Floor != "3" || got.Directions != "Near elevator" {
		t.Fatalf("GetPersonByName() = %+v", got)
	}

	stored, err := s.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if string(stored.Data) != string([]byte{1, 2, 3}) || stored.MimeType != "image/jpeg" {
		t.Fatalf("GetImage() = %+v", stored)
	}

	if _, err := s.GetPersonByName(ctx, "asha rao"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("exact lookup should be case sensitive, got %v", err)
	}
}

func TestGormSearchIsCaseInsensitiveAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Asha Rao", "Basavaraj", "Kiran Das", "Zoe"} {
		createTeacher(t, s, name, nil)
	}

	got, err := s.SearchPersons(ctx, "AS", 10)
	if err != nil {
		t.Fatalf("SearchPersons() error = %v", err)
	}
	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	want := []string{"Asha Rao", "Basavaraj", "Kiran Das"}
	if len(names) != len(want) {
		t.Fatalf("SearchPersons() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("SearchPersons() = %v, want %v", names, want)
		}
	}

	limited, err := s.SearchPersons(ctx, "a", 2)
	if err != nil {
		t.Fatalf("SearchPersons() error = %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit not applied: %d results", len(limited))
	}

	none, err := s.SearchPersons(ctx, "zzz", 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("SearchPersons(zzz) = %v, %v", none, err)
	}
}

func TestGormDuplicateNamesResolveToOldest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := createTeacher(t, s, "Sam", nil)
	time.Sleep(5 * time.Millisecond)
	createTeacher(t, s, "Sam", nil)

	names, err := s.ListNames(ctx)
	if err != nil {
		t.Fatalf("ListNames() error = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("ListNames() = %v, want both duplicates", names)
	}

	got, err := s.GetPersonByName(ctx, "Sam")
	if err != nil {
		t.Fatalf("GetPersonByName() error = %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("GetPersonByName() returned %v, want oldest %v", got.ID, first.ID)
	}
}

func TestGormUpdateReplacesImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	oldImg := &models.Image{MimeType: "image/jpeg", StorageKey: "teachers/old.jpg"}
	p := createTeacher(t, s, "Asha Rao", oldImg)

	newImg := &models.Image{MimeType: "image/jpeg", Data: []byte{9}}
	updated, replaced, err := s.UpdatePerson(ctx, p.ID, models.PersonFields{Floor: strPtr("4")}, newImg)
	if err != nil {
		t.Fatalf("UpdatePerson() error = %v", err)
	}
	if updated.Floor != "4" || updated.Branch != "CS" {
		t.Fatalf("UpdatePerson() = %+v", updated)
	}
	if updated.ImageID == nil || *updated.ImageID != newImg.ID {
		t.Fatalf("image not swapped: %v", updated.ImageID)
	}
	if replaced == nil || replaced.ID != oldImg.ID || replaced.StorageKey != "teachers/old.jpg" {
		t.Fatalf("replaced = %+v", replaced)
	}
	if _, err := s.GetImage(ctx, oldImg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old image row still present: %v", err)
	}
}

func TestGormUpdateMissing(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.UpdatePerson(context.Background(), uuid.New(), models.PersonFields{Name: strPtr("x")}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdatePerson() error = %v, want ErrNotFound", err)
	}
}

func TestGormDeleteRemovesImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	img := &models.Image{MimeType: "image/jpeg", Data: []byte{1}}
	p := createTeacher(t, s, "Asha Rao", img)

	removed, err := s.DeletePerson(ctx, p.ID)
	if err != nil {
		t.Fatalf("DeletePerson() error = %v", err)
	}
	if removed == nil || removed.ID != img.ID {
		t.Fatalf("DeletePerson() removed = %+v", removed)
	}
	if _, err := s.GetPerson(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("teacher still present: %v", err)
	}
	if _, err := s.GetImage(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("image still present: %v", err)
	}
	if _, err := s.DeletePerson(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeletePerson() error = %v, want ErrNotFound", err)
	}
}

func TestGormCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if n, err := s.CountCredentials(ctx); err != nil || n != 0 {
		t.Fatalf("CountCredentials() = %d, %v", n, err)
	}

	created, err := s.UpsertCredential(ctx, "admin", "hash-1")
	if err != nil || !created {
		t.Fatalf("first UpsertCredential() = %v, %v", created, err)
	}
	created, err = s.UpsertCredential(ctx, "admin", "hash-2")
	if err != nil || created {
		t.Fatalf("second UpsertCredential() = %v, %v", created, err)
	}

	c, err := s.GetCredential(ctx, "admin")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if c.PasswordHash != "hash-2" {
		t.Fatalf("hash = %q, want hash-2", c.PasswordHash)
	}
	if n, _ := s.CountCredentials(ctx); n != 1 {
		t.Fatalf("CountCredentials() = %d, want 1", n)
	}
	if _, err := s.GetCredential(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCredential(nobody) error = %v", err)
	}
}
