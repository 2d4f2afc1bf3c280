package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Shreyas165/Find-My-Teacher/internal/config"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

// GormStore backs the directory with MySQL or SQLite.
type GormStore struct {
	db     *gorm.DB
	driver string
}

func NewGormStore(cfg config.DatabaseConfig) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("gorm store: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		if cfg.Driver == "sqlite" {
			// SQLite serialises writers; a single connection also keeps ":memory:" databases shared.
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return &GormStore{db: db, driver: cfg.Driver}, nil
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Image{}, &models.Person{}, &models.Credential{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// forUpdate adds a row lock where the dialect has one; SQLite already serialises writers.
func (s *GormStore) forUpdate(tx *gorm.DB) *gorm.DB {
	if s.driver == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Teachers ---

func (s *GormStore) ListNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).Model(&models.Person{}).Order("name, created_at").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	return names, nil
}

func (s *GormStore) SearchPersons(ctx context.Context, query string, limit int) ([]models.Person, error) {
	persons := []models.Person{}
	err := s.db.WithContext(ctx).
		Where("INSTR(LOWER(name), LOWER(?)) > 0", query).
		Order("name, created_at").
		Limit(limit).
		Find(&persons).Error
	if err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}
	return persons, nil
}

func (s *GormStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var p models.Person
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) GetPersonByName(ctx context.Context, name string) (*models.Person, error) {
	var p models.Person
	err := s.db.WithContext(ctx).Where("name = ?", name).Order("created_at, id").Limit(1).Take(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) CreatePerson(ctx context.Context, p *models.Person, img *models.Image) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if img != nil {
			if img.ID == uuid.Nil {
				img.ID = uuid.New()
			}
			img.CreatedAt = now
			if err := tx.Create(img).Error; err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
			p.ImageID = &img.ID
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.CreatedAt, p.UpdatedAt = now, now
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("insert teacher: %w", err)
		}
		return nil
	})
}

func (s *GormStore) UpdatePerson(ctx context.Context, id uuid.UUID, fields models.PersonFields, img *models.Image) (*models.Person, *models.Image, error) {
	var (
		updated  models.Person
		replaced *models.Image
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.forUpdate(tx).Where("id = ?", id).First(&updated).Error; err != nil {
			return notFound(err)
		}
		fields.Apply(&updated)

		oldImageID := updated.ImageID
		now := time.Now().UTC()
		if img != nil {
			if img.ID == uuid.Nil {
				img.ID = uuid.New()
			}
			img.CreatedAt = now
			if err := tx.Create(img).Error; err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
			updated.ImageID = &img.ID
		}

		updated.UpdatedAt = now
		err := tx.Model(&models.Person{}).Where("id = ?", id).Updates(map[string]any{
			"name":       updated.Name,
			"branch":     updated.Branch,
			"floor":      updated.Floor,
			"directions": updated.Directions,
			"image_id":   updated.ImageID,
			"updated_at": updated.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("update teacher: %w", err)
		}

		if img != nil && oldImageID != nil {
			var err error
			if replaced, err = deleteImageGorm(tx, *oldImageID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, replaced, nil
}

func (s *GormStore) DeletePerson(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	var removed *models.Image
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Person
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Person{}).Error; err != nil {
			return fmt.Errorf("delete teacher: %w", err)
		}
		if p.ImageID != nil {
			var err error
			if removed, err = deleteImageGorm(tx, *p.ImageID); err != nil {
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

func deleteImageGorm(tx *gorm.DB, id uuid.UUID) (*models.Image, error) {
	var img models.Image
	err := tx.Omit("data").Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	if err := tx.Where("id = ?", id).Delete(&models.Image{}).Error; err != nil {
		return nil, fmt.Errorf("delete image: %w", err)
	}
	return &img, nil
}

func (s *GormStore) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	var img models.Image
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&img).Error; err != nil {
		return nil, notFound(err)
	}
	return &img, nil
}

// --- Credentials ---

func (s *GormStore) GetCredential(ctx context.Context, username string) (*models.Credential, error) {
	var c models.Credential
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *GormStore) UpsertCredential(ctx context.Context, username, hash string) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Credential{}).Where("username = ?", username).
			Updates(map[string]any{"password_hash": hash, "updated_at": now})
		if res.Error != nil {
			return fmt.Errorf("update credential: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		c := models.Credential{Username: username, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

func (s *GormStore) CountCredentials(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Credential{}).Count(&count).Error
	return int(count), err
}
