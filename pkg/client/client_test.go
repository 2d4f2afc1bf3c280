package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

func TestSearchEscapesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		_ = json.NewEncoder(w).Encode(dto.SearchResponse{Teachers: []dto.Teacher{{Name: "Asha Rao", Floor: "3"}}})
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	got, err := c.Search(context.Background(), "asha & co")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "asha & co" {
		t.Fatalf("server saw query %q", gotQuery)
	}
	if len(got) != 1 || got[0].Name != "Asha Rao" {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestListNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.NamesResponse{Teachers: []dto.NameEntry{{Name: "A"}, {Name: "B"}}})
	}))
	defer srv.Close()

	names, err := New(srv.URL).ListNames(context.Background())
	if err != nil {
		t.Fatalf("ListNames: %v", err)
	}
	if strings.Join(names, ",") != "A,B" {
		t.Fatalf("got %v", names)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Teacher not found."})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Teacher(context.Background(), uuid.New())
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Teacher not found." {
		t.Fatalf("unexpected error %#v", err)
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatal("plain error reported as not found")
	}
}

func TestAuthHeaders(t *testing.T) {
	var auth, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		key = r.Header.Get("X-API-Key")
		_ = json.NewEncoder(w).Encode(dto.MessageResponse{Message: "Teacher deleted successfully."})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"), WithAPIKey("k"))
	if err := c.DeleteTeacher(context.Background(), "Asha Rao"); err != nil {
		t.Fatalf("DeleteTeacher: %v", err)
	}
	if auth != "Bearer tok" || key != "k" {
		t.Fatalf("headers: auth=%q key=%q", auth, key)
	}
}

func TestAddTeacherMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for field, want := range map[string]string{"name": "Asha Rao", "branch": "CSE", "floor": "3", "directions": "Left"} {
			if got := r.FormValue(field); got != want {
				t.Errorf("%s = %q, want %q", field, got, want)
			}
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("image part: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			f.Close()
			if string(data) != "jpegbytes" || hdr.Header.Get("Content-Type") != "image/jpeg" {
				t.Errorf("image part = %q (%s)", data, hdr.Header.Get("Content-Type"))
			}
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(dto.CreateTeacherResponse{
			Message: "Teacher added successfully!",
			Teacher: dto.Teacher{Name: "Asha Rao"},
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).AddTeacher(context.Background(), AddTeacherRequest{
		Name: "Asha Rao", Branch: "CSE", Floor: "3", Directions: "Left",
		Image: ImageFile{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("jpegbytes")},
	})
	if err != nil {
		t.Fatalf("AddTeacher: %v", err)
	}
	if resp.Message != "Teacher added successfully!" || resp.Teacher.Name != "Asha Rao" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestUpdateTeacherJSONWithoutImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/update-teacher/Asha Rao" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body) != 1 || body["floor"] != "4" {
			t.Errorf("unexpected body %v", body)
		}
		_ = json.NewEncoder(w).Encode(dto.MessageResponse{Message: "Teacher updated successfully."})
	}))
	defer srv.Close()

	floor := "4"
	if err := New(srv.URL).UpdateTeacher(context.Background(), "Asha Rao", dto.UpdateTeacherRequest{Floor: &floor}, nil); err != nil {
		t.Fatalf("UpdateTeacher: %v", err)
	}
}

func TestSetPasswordReportsCreation(t *testing.T) {
	status := http.StatusCreated
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(dto.MessageResponse{Message: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	created, err := c.SetPassword(context.Background(), "admin", "pw")
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	status = http.StatusOK
	created, err = c.SetPassword(context.Background(), "admin", "pw")
	if err != nil || created {
		t.Fatalf("created=%v err=%v", created, err)
	}
}
