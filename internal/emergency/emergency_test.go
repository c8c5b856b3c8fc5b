package emergency

import (
	"context"
	"errors"
	"testing"

	"github.com/careq/queuecore/internal/api"
	"github.com/careq/queuecore/internal/models"
)

type fakeBackend struct {
	calls int
	got   api.SOSRequest
	res   *api.SOSResult
	err   error
}

func (b *fakeBackend) SendSOS(ctx context.Context, req api.SOSRequest) (*api.SOSResult, error) {
	b.calls++
	b.got = req
	if b.err != nil {
		return nil, b.err
	}
	return b.res, nil
}

type recorder struct {
	notes []models.Notification
}

func (r *recorder) Notify(n models.Notification) {
	r.notes = append(r.notes, n)
}

func TestSendSOSNotifiesOnSuccess(t *testing.T) {
	backend := &fakeBackend{res: &api.SOSResult{AlertID: 7, Status: "dispatched"}}
	notes := &recorder{}
	svc := NewService(backend, notes)

	res, err := svc.SendSOS(context.Background(), 55.75, 37.61, "chest pain")
	if err != nil {
		t.Fatalf("SendSOS failed: %v", err)
	}
	if res.AlertID != 7 {
		t.Errorf("expected alert id 7, got %d", res.AlertID)
	}
	if backend.got.Latitude != 55.75 || backend.got.Longitude != 37.61 {
		t.Errorf("location not forwarded: %+v", backend.got)
	}
	if len(notes.notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes.notes))
	}
	if notes.notes[0].Kind != models.NotifyEmergencySent {
		t.Errorf("unexpected notification kind %q", notes.notes[0].Kind)
	}
}

func TestSendSOSFailureReturnsErrorWithoutNotifying(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	notes := &recorder{}
	svc := NewService(backend, notes)

	if _, err := svc.SendSOS(context.Background(), 0, 0, "help"); err == nil {
		t.Fatal("expected error from unreachable backend")
	}
	if backend.calls != 1 {
		t.Errorf("expected 1 call, got %d", backend.calls)
	}
	if len(notes.notes) != 0 {
		t.Errorf("expected no notifications on failure, got %d", len(notes.notes))
	}
}
