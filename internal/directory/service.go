// Package directory implements lookup and administration of directory entries.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
	"github.com/Shreyas165/Find-My-Teacher/internal/imaging"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/internal/observability"
	"github.com/Shreyas165/Find-My-Teacher/internal/storage"
)

// SearchLimit caps the number of search results.
const SearchLimit = 10

// ImageProcessor normalises an uploaded image.
type ImageProcessor interface {
	Process(ctx context.Context, up imaging.Upload) (*imaging.Result, error)
}

// CreateInput holds the fields of a new entry. All are required.
type CreateInput struct {
	Name       string
	Branch     string
	Floor      string
	Directions string
}

// UpdateInput is a partial update. Nil fields keep their value; Image, when set, replaces the photo.
type UpdateInput struct {
	Fields models.PersonFields
	Image  *imaging.Upload
}

type Service struct {
	store    storage.Store
	blobs    storage.BlobStore
	pipeline ImageProcessor
	recorder Recorder
}

// NewService wires the directory. blobs may be nil, in which case image bytes are kept in the store.
func NewService(store storage.Store, blobs storage.BlobStore, pipeline ImageProcessor, recorder Recorder) *Service {
	if recorder == nil {
		recorder = NewAuditLog(slog.Default())
	}
	return &Service{store: store, blobs: blobs, pipeline: pipeline, recorder: recorder}
}

func (s *Service) ListNames(ctx context.Context) (names []string, err error) {
	defer observe("list", &err)
	names, err = s.store.ListNames(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list names", err)
	}
	return names, nil
}

// Search returns up to SearchLimit entries whose name contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) (persons []models.Person, err error) {
	defer observe("search", &err)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidRequest("Query parameter is required.")
	}
	persons, err = s.store.SearchPersons(ctx, query, SearchLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "search teachers", err)
	}
	return persons, nil
}

// GetDetail returns the oldest entry with exactly this name.
func (s *Service) GetDetail(ctx context.Context, name string) (p *models.Person, err error) {
	defer observe("detail", &err)
	return s.byName(ctx, name)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (p *models.Person, err error) {
	defer observe("detail", &err)
	p, err = s.store.GetPerson(ctx, id)
	if err != nil {
		return nil, storeErr("get teacher", err)
	}
	return p, nil
}

func (s *Service) byName(ctx context.Context, name string) (*models.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidRequest("Teacher name is required.")
	}
	p, err := s.store.GetPersonByName(ctx, name)
	if err != nil {
		return nil, storeErr("get teacher", err)
	}
	return p, nil
}

// Create validates the input, normalises the image and stores both atomically.
// Repeating a create produces a second entry with the same name.
func (s *Service) Create(ctx context.Context, in CreateInput, up *imaging.Upload) (p *models.Person, err error) {
	defer observe("create", &err)

	p = &models.Person{
		Name:       strings.TrimSpace(in.Name),
		Branch:     strings.TrimSpace(in.Branch),
		Floor:      strings.TrimSpace(in.Floor),
		Directions: strings.TrimSpace(in.Directions),
	}
	if p.Name == "" || p.Branch == "" || p.Floor == "" || p.Directions == "" {
		return nil, apperr.InvalidRequest("All fields (name, floor, branch, directions) are required.")
	}
	if up == nil {
		return nil, apperr.InvalidRequest("An image is required.")
	}

	img, err := s.prepareImage(ctx, *up)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePerson(ctx, p, img); err != nil {
		s.discardBlob(img)
		return nil, apperr.Wrap(apperr.CodeInternal, "create teacher", err)
	}

	s.record(ctx, models.ActionCreated, p)
	return p, nil
}

// Update applies a partial update to the oldest entry named name.
func (s *Service) Update(ctx context.Context, name string, in UpdateInput) (p *models.Person, err error) {
	defer observe("update", &err)
	current, err := s.byName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, current.ID, in)
}

func (s *Service) UpdateByID(ctx context.Context, id uuid.UUID, in UpdateInput) (p *models.Person, err error) {
	defer observe("update", &err)
	return s.update(ctx, id, in)
}

func (s *Service) update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Person, error) {
	fields, err := normalizeFields(in.Fields)
	if err != nil {
		return nil, err
	}
	if fields.Empty() && in.Image == nil {
		return nil, apperr.InvalidRequest("Nothing to update.")
	}

	var img *models.Image
	if in.Image != nil {
		if img, err = s.prepareImage(ctx, *in.Image); err != nil {
			return nil, err
		}
	}

	p, replaced, err := s.store.UpdatePerson(ctx, id, fields, img)
	if err != nil {
		s.discardBlob(img)
		return nil, storeErr("update teacher", err)
	}
	s.discardBlob(replaced)

	s.record(ctx, models.ActionUpdated, p)
	return p, nil
}

// Delete removes the oldest entry named name together with its image.
func (s *Service) Delete(ctx context.Context, name string) (err error) {
	defer observe("delete", &err)
	p, err := s.byName(ctx, name)
	if err != nil {
		return err
	}
	return s.delete(ctx, p)
}

func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) (err error) {
	defer observe("delete", &err)
	p, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return storeErr("get teacher", err)
	}
	return s.delete(ctx, p)
}

func (s *Service) delete(ctx context.Context, p *models.Person) error {
	removed, err := s.store.DeletePerson(ctx, p.ID)
	if err != nil {
		return storeErr("delete teacher", err)
	}
	s.discardBlob(removed)

	s.record(ctx, models.ActionDeleted, p)
	return nil
}

// Image returns an image's metadata and bytes, wherever they are stored.
func (s *Service) Image(ctx context.Context, id uuid.UUID) (*models.Image, []byte, error) {
	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return nil, nil, storeErr("get image", err)
	}
	if !img.External() {
		return img, img.Data, nil
	}
	if s.blobs == nil {
		return nil, nil, apperr.New(apperr.CodeInternal, fmt.Sprintf("image %s is external but no blob store is configured", id))
	}
	data, err := s.blobs.GetObject(ctx, img.StorageKey)
	if err != nil {
		return nil, nil, storeErr("get image object", err)
	}
	return img, data, nil
}

// ImageByName returns the photo of the oldest entry named name.
func (s *Service) ImageByName(ctx context.Context, name string) (*models.Image, []byte, error) {
	p, err := s.byName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if p.ImageID == nil {
		return nil, nil, apperr.NotFound("Image not found.")
	}
	return s.Image(ctx, *p.ImageID)
}

// prepareImage runs the pipeline and, with a blob backend, writes the object before any row exists.
func (s *Service) prepareImage(ctx context.Context, up imaging.Upload) (*models.Image, error) {
	res, err := s.pipeline.Process(ctx, up)
	if err != nil {
		return nil, err
	}

	img := &models.Image{
		ID:       uuid.New(),
		MimeType: res.MimeType,
		Width:    res.Width,
		Height:   res.Height,
		Size:     int64(len(res.Data)),
	}
	if s.blobs == nil {
		img.Data = res.Data
		return img, nil
	}

	key := "teachers/" + img.ID.String() + ".jpg"
	if err := s.blobs.PutObject(ctx, key, res.Data, res.MimeType); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "store image object", err)
	}
	img.StorageKey = key
	return img, nil
}

// discardBlob removes the object behind img. It runs after the owning rows are gone or were never
// written, so it uses its own context and only logs failures.
func (s *Service) discardBlob(img *models.Image) {
	if img == nil || !img.External() || s.blobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.blobs.DeleteObject(ctx, img.StorageKey); err != nil {
		slog.Warn("delete image object", "key", img.StorageKey, "error", err)
	}
}

func (s *Service) record(ctx context.Context, action models.DirectoryAction, p *models.Person) {
	s.recorder.Record(ctx, models.DirectoryEvent{
		ID:        uuid.New(),
		Action:    action,
		PersonID:  p.ID,
		Name:      p.Name,
		Actor:     ActorFromContext(ctx),
		Timestamp: time.Now().UTC(),
	})
}

func normalizeFields(f models.PersonFields) (models.PersonFields, error) {
	for _, field := range []struct {
		name  string
		value **string
	}{
		{"name", &f.Name},
		{"branch", &f.Branch},
		{"floor", &f.Floor},
		{"directions", &f.Directions},
	} {
		if *field.value == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field.value)
		if trimmed == "" {
			return f, apperr.InvalidRequest(fmt.Sprintf("Field %s cannot be empty.", field.name))
		}
		*field.value = &trimmed
	}
	return f, nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		if strings.Contains(op, "image") {
			return apperr.NotFound("Image not found.")
		}
		return apperr.NotFound("Teacher not found.")
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.CodeInternal, op, err)
}

func observe(op string, err *error) {
	result := "ok"
	if *err != nil {
		result = strings.ToLower(string(apperr.CodeOf(*err)))
	}
	observability.DirectoryOperations.WithLabelValues(op, result).Inc()
}

type actorKey struct{}

// WithActor records who performs the writes made with ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
