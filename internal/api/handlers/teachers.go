package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
	"github.com/Shreyas165/Find-My-Teacher/internal/auth"
	"github.com/Shreyas165/Find-My-Teacher/internal/directory"
	"github.com/Shreyas165/Find-My-Teacher/internal/imaging"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

// multipartOverhead is allowed on top of the image ceiling for form fields and boundaries.
const multipartOverhead = 1 << 20

type TeacherHandler struct {
	dir     *directory.Service
	urls    URLBuilder
	maxBody int64
}

func NewTeacherHandler(dir *directory.Service, urls URLBuilder, maxImageBytes int64) *TeacherHandler {
	return &TeacherHandler{dir: dir, urls: urls, maxBody: maxImageBytes + multipartOverhead}
}

func (h *TeacherHandler) List(c *gin.Context) {
	names, err := h.dir.ListNames(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch teacher data.")
		return
	}
	resp := dto.NamesResponse{Teachers: make([]dto.NameEntry, 0, len(names))}
	for _, n := range names {
		resp.Teachers = append(resp.Teachers, dto.NameEntry{Name: n})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TeacherHandler) Search(c *gin.Context) {
	persons, err := h.dir.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err, "Failed to search teachers.")
		return
	}
	resp := dto.SearchResponse{Teachers: make([]dto.Teacher, 0, len(persons))}
	for i := range persons {
		resp.Teachers = append(resp.Teachers, h.urls.Teacher(c, &persons[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TeacherHandler) Directions(c *gin.Context) {
	p, err := h.dir.GetDetail(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err, "Failed to fetch teacher details.")
		return
	}
	c.JSON(http.StatusOK, h.urls.Teacher(c, p))
}

func (h *TeacherHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.dir.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch teacher details.")
		return
	}
	c.JSON(http.StatusOK, h.urls.Teacher(c, p))
}

// Create accepts multipart/form-data with name, floor, branch, directions and an "image" file.
func (h *TeacherHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		respondError(c, bodyError(err), "Failed to add teacher.")
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	upload, closeUpload, err := formUpload(c)
	if err != nil {
		respondError(c, err, "Failed to add teacher.")
		return
	}
	defer closeUpload()

	in := directory.CreateInput{
		Name:       c.PostForm("name"),
		Branch:     c.PostForm("branch"),
		Floor:      c.PostForm("floor"),
		Directions: c.PostForm("directions"),
	}
	ctx := directory.WithActor(c.Request.Context(), auth.Subject(c))
	p, err := h.dir.Create(ctx, in, upload)
	if err != nil {
		respondError(c, err, "Failed to add teacher.")
		return
	}
	c.JSON(http.StatusCreated, dto.CreateTeacherResponse{
		Message: "Teacher added successfully!",
		Teacher: h.urls.Teacher(c, p),
	})
}

func (h *TeacherHandler) UpdateByName(c *gin.Context) {
	in, cleanup, err := h.updateInput(c)
	if err != nil {
		respondError(c, err, "Failed to update teacher.")
		return
	}
	defer cleanup()

	ctx := directory.WithActor(c.Request.Context(), auth.Subject(c))
	if _, err := h.dir.Update(ctx, c.Param("name"), in); err != nil {
		respondError(c, err, "Failed to update teacher.")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Teacher updated successfully."})
}

func (h *TeacherHandler) UpdateByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, cleanup, err := h.updateInput(c)
	if err != nil {
		respondError(c, err, "Failed to update teacher.")
		return
	}
	defer cleanup()

	ctx := directory.WithActor(c.Request.Context(), auth.Subject(c))
	p, err := h.dir.UpdateByID(ctx, id, in)
	if err != nil {
		respondError(c, err, "Failed to update teacher.")
		return
	}
	c.JSON(http.StatusOK, h.urls.Teacher(c, p))
}

func (h *TeacherHandler) DeleteByName(c *gin.Context) {
	ctx := directory.WithActor(c.Request.Context(), auth.Subject(c))
	if err := h.dir.Delete(ctx, c.Param("name")); err != nil {
		respondError(c, err, "Failed to delete teacher.")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Teacher deleted successfully."})
}

func (h *TeacherHandler) DeleteByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := directory.WithActor(c.Request.Context(), auth.Subject(c))
	if err := h.dir.DeleteByID(ctx, id); err != nil {
		respondError(c, err, "Failed to delete teacher.")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Teacher deleted successfully."})
}

// updateInput reads a JSON body, or a multipart form that may carry a replacement image.
func (h *TeacherHandler) updateInput(c *gin.Context) (directory.UpdateInput, func(), error) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req dto.UpdateTeacherRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return directory.UpdateInput{}, noop, bodyError(err)
		}
		return directory.UpdateInput{Fields: models.PersonFields{
			Name: req.Name, Branch: req.Branch, Floor: req.Floor, Directions: req.Directions,
		}}, noop, nil
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return directory.UpdateInput{}, noop, bodyError(err)
	}
	form := c.Request.MultipartForm
	upload, closeUpload, err := formUpload(c)
	if err != nil {
		form.RemoveAll()
		return directory.UpdateInput{}, noop, err
	}
	cleanup := func() {
		closeUpload()
		form.RemoveAll()
	}

	field := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok {
			return &v
		}
		return nil
	}
	return directory.UpdateInput{
		Fields: models.PersonFields{
			Name:       field("name"),
			Branch:     field("branch"),
			Floor:      field("floor"),
			Directions: field("directions"),
		},
		Image: upload,
	}, cleanup, nil
}

// formUpload returns the "image" part of a parsed multipart form, or nil when absent.
func formUpload(c *gin.Context) (*imaging.Upload, func(), error) {
	file, header, err := c.Request.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperr.InvalidRequest("Malformed image upload.")
	}
	return &imaging.Upload{
		Data:     file,
		MimeType: declaredType(header),
		Filename: header.Filename,
	}, func() { file.Close() }, nil
}

func declaredType(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}
