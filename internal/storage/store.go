package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/internal/config"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

// ErrNotFound is returned when a teacher, image or credential does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the relational persistence used by the directory and credential services.
type Store interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()

	ListNames(ctx context.Context) ([]string, error)
	SearchPersons(ctx context.Context, query string, limit int) ([]models.Person, error)
	GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error)
	// GetPersonByName returns the oldest teacher with exactly this name.
	GetPersonByName(ctx context.Context, name string) (*models.Person, error)
	// CreatePerson inserts img (if non-nil) and p in one transaction and links them.
	CreatePerson(ctx context.Context, p *models.Person, img *models.Image) error
	// UpdatePerson applies fields and, if img is non-nil, swaps the teacher's image in one
	// transaction. The replaced image row (without pixels) is returned so its blob can be removed.
	UpdatePerson(ctx context.Context, id uuid.UUID, fields models.PersonFields, img *models.Image) (*models.Person, *models.Image, error)
	// DeletePerson removes the teacher and its image row in one transaction and returns
	// the removed image (without pixels), if any.
	DeletePerson(ctx context.Context, id uuid.UUID) (*models.Image, error)
	GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error)

	GetCredential(ctx context.Context, username string) (*models.Credential, error)
	// UpsertCredential reports whether a new row was created.
	UpsertCredential(ctx context.Context, username, hash string) (bool, error)
	CountCredentials(ctx context.Context) (int, error)
}

// BlobStore holds image bytes outside the database.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Open returns the Store for cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "mysql", "sqlite":
		s, err := NewGormStore(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := NewPostgresStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// OpenBlobStore returns the BlobStore for the configured image backend, or nil for "db".
func OpenBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Images.Backend {
	case "minio":
		s, err := NewMinIOStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "disk":
		s, err := NewDiskStore(cfg.Disk.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}
