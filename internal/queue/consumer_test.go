package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Shreyas165/Find-My-Teacher/internal/models"
)

// fakeMsg implements the parts of jetstream.Msg used by handleMessage.
type fakeMsg struct {
	jetstream.Msg
	data   []byte
	result string
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return "directory.created" }
func (m *fakeMsg) Ack() error      { m.result = "ack"; return nil }
func (m *fakeMsg) Nak() error      { m.result = "nak"; return nil }
func (m *fakeMsg) Term() error     { m.result = "term"; return nil }

func TestSubject(t *testing.T) {
	if got := Subject(models.ActionDeleted); got != "directory.deleted" {
		t.Fatalf("Subject() = %q", got)
	}
}

func TestInstanceConsumerNameIsUniquePerProcess(t *testing.T) {
	a, b := InstanceConsumerName("api-ws"), InstanceConsumerName("api-ws")
	if a == b {
		t.Fatalf("two instances share consumer %q", a)
	}
	for _, name := range []string{a, b} {
		if !strings.HasPrefix(name, "api-ws-") {
			t.Errorf("name %q lacks prefix", name)
		}
		// JetStream rejects these characters in consumer names.
		if strings.ContainsAny(name, ".*> \t") {
			t.Errorf("name %q is not a valid consumer name", name)
		}
	}
}

func TestHandleMessage(t *testing.T) {
	evt := models.DirectoryEvent{
		ID:        uuid.New(),
		Action:    models.ActionCreated,
		PersonID:  uuid.New(),
		Name:      "Asha Rao",
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		handler EventHandler
		want    string
	}{
		{
			name: "delivered",
			data: payload,
			handler: func(_ context.Context, got models.DirectoryEvent) error {
				if got.ID != evt.ID || got.Name != "Asha Rao" {
					return errors.New("unexpected event")
				}
				return nil
			},
			want: "ack",
		},
		{
			name:    "handler failure",
			data:    payload,
			handler: func(context.Context, models.DirectoryEvent) error { return errors.New("boom") },
			want:    "nak",
		},
		{
			name:    "malformed payload",
			data:    []byte("{not json"),
			handler: func(context.Context, models.DirectoryEvent) error { return nil },
			want:    "term",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &fakeMsg{data: tt.data}
			handleMessage(context.Background(), msg, tt.handler)
			if msg.result != tt.want {
				t.Fatalf("message settled with %q, want %q", msg.result, tt.want)
			}
		})
	}
}
