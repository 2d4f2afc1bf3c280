package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shreyas165/Find-My-Teacher/internal/config"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

//go:embed schema.sql
var postgresSchema string

const personColumns = `id, name, branch, floor, directions, image_id, created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Teachers ---

func (s *PostgresStore) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM teachers ORDER BY name, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PostgresStore) SearchPersons(ctx context.Context, query string, limit int) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+personColumns+` FROM teachers
		 WHERE strpos(lower(name), lower($1)) > 0
		 ORDER BY name, created_at
		 LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}
	defer rows.Close()

	persons := []models.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, *p)
	}
	return persons, rows.Err()
}

func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	return s.getPerson(ctx, s.pool, `SELECT `+personColumns+` FROM teachers WHERE id = $1`, id)
}

func (s *PostgresStore) GetPersonByName(ctx context.Context, name string) (*models.Person, error) {
	return s.getPerson(ctx, s.pool,
		`SELECT `+personColumns+` FROM teachers WHERE name = $1 ORDER BY created_at, id LIMIT 1`, name)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) getPerson(ctx context.Context, q querier, sql string, arg any) (*models.Person, error) {
	p, err := scanPerson(q.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPerson(row pgx.Row) (*models.Person, error) {
	var p models.Person
	if err := row.Scan(&p.ID, &p.Name, &p.Branch, &p.Floor, &p.Directions, &p.ImageID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan teacher: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person, img *models.Image) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if img != nil {
			if err := insertImage(ctx, tx, img); err != nil {
				return err
			}
			p.ImageID = &img.ID
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO teachers (id, name, branch, floor, directions, image_id)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
			p.ID, p.Name, p.Branch, p.Floor, p.Directions, p.ImageID,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert teacher: %w", err)
		}
		return nil
	})
}

func insertImage(ctx context.Context, tx pgx.Tx, img *models.Image) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO images (id, mime_type, width, height, size, data, storage_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		img.ID, img.MimeType, img.Width, img.Height, img.Size, img.Data, img.StorageKey,
	).Scan(&img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePerson(ctx context.Context, id uuid.UUID, fields models.PersonFields, img *models.Image) (*models.Person, *models.Image, error) {
	var (
		updated  *models.Person
		replaced *models.Image
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		p, err := s.getPerson(ctx, tx, `SELECT `+personColumns+` FROM teachers WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		fields.Apply(p)

		oldImageID := p.ImageID
		if img != nil {
			if err := insertImage(ctx, tx, img); err != nil {
				return err
			}
			p.ImageID = &img.ID
		}

		err = tx.QueryRow(ctx,
			`UPDATE teachers SET name = $1, branch = $2, floor = $3, directions = $4, image_id = $5, updated_at = $6
			 WHERE id = $7 RETURNING updated_at`,
			p.Name, p.Branch, p.Floor, p.Directions, p.ImageID, time.Now().UTC(), p.ID,
		).Scan(&p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update teacher: %w", err)
		}

		if img != nil && oldImageID != nil {
			replaced, err = deleteImage(ctx, tx, *oldImageID)
			if err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, replaced, nil
}

func (s *PostgresStore) DeletePerson(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	var removed *models.Image
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var imageID *uuid.UUID
		err := tx.QueryRow(ctx, `DELETE FROM teachers WHERE id = $1 RETURNING image_id`, id).Scan(&imageID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete teacher: %w", err)
		}
		if imageID != nil {
			removed, err = deleteImage(ctx, tx, *imageID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func deleteImage(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Image, error) {
	img := &models.Image{}
	err := tx.QueryRow(ctx,
		`DELETE FROM images WHERE id = $1 RETURNING id, mime_type, width, height, size, storage_key, created_at`, id,
	).Scan(&img.ID, &img.MimeType, &img.Width, &img.Height, &img.Size, &img.StorageKey, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete image: %w", err)
	}
	return img, nil
}

func (s *PostgresStore) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	img := &models.Image{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, mime_type, width, height, size, data, storage_key, created_at FROM images WHERE id = $1`, id,
	).Scan(&img.ID, &img.MimeType, &img.Width, &img.Height, &img.Size, &img.Data, &img.StorageKey, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// --- Credentials ---

func (s *PostgresStore) GetCredential(ctx context.Context, username string) (*models.Credential, error) {
	c := &models.Credential{}
	err := s.pool.QueryRow(ctx,
		`SELECT username, password_hash, created_at, updated_at FROM credentials WHERE username = $1`, username,
	).Scan(&c.Username, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) UpsertCredential(ctx context.Context, username, hash string) (bool, error) {
	var inserted bool
	err := s.pool.QueryRow(ctx,
		`INSERT INTO credentials (username, password_hash) VALUES ($1, $2)
		 ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
		 RETURNING (xmax = 0)`,
		username, hash,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert credential: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) CountCredentials(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&count)
	return count, err
}
