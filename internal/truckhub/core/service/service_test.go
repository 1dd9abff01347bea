package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/store"
	"github.com/autopeer-io/truckhub/pkg/mqtt/topic"
)

const testIMEI = "123456789012345"

var epoch = time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*model.CommandResult
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, cmd *model.CommandResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, cmd)
	return nil
}

type fakeSubscriber struct {
	calls []string
	err   error
}

func (f *fakeSubscriber) SubscribeDevice(_ context.Context, id string) error {
	f.calls = append(f.calls, id)
	return f.err
}

func newTestService(n *fakeNotifier, sub *fakeSubscriber) *Service {
	var subscriber core.DeviceSubscriber
	if sub != nil {
		subscriber = sub
	}
	svc := New(store.New(0), n, subscriber, topic.NewBuilder("truck"), WithClock(clocktesting.NewFakePassiveClock(epoch)))
	svc.newID = func() string { return "cmd-1" }
	return svc
}

func TestRegister(t *testing.T) {
	sub := &fakeSubscriber{}
	svc := newTestService(&fakeNotifier{}, sub)

	created, err := svc.Register(context.Background(), testIMEI)
	if err != nil || !created {
		t.Fatalf("Register() = %v, %v", created, err)
	}
	created, err = svc.Register(context.Background(), testIMEI)
	if err != nil || created {
		t.Fatalf("second Register() = %v, %v", created, err)
	}
	if len(sub.calls) != 2 {
		t.Errorf("subscriber called %d times, want 2", len(sub.calls))
	}
	if devs := svc.Devices(); len(devs) != 1 || devs[0] != testIMEI {
		t.Errorf("Devices() = %v", devs)
	}
}

func TestRegisterInvalidID(t *testing.T) {
	svc := newTestService(&fakeNotifier{}, &fakeSubscriber{})

	for _, id := range []string{"", "truck/1", "+", "12#", " 12"} {
		if _, err := svc.Register(context.Background(), id); !errors.Is(err, ErrInvalidDeviceID) {
			t.Errorf("Register(%q) error = %v, want ErrInvalidDeviceID", id, err)
		}
	}
}

func TestRegisterSubscribeFailureKeepsDevice(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("broker refused")}
	svc := newTestService(&fakeNotifier{}, sub)

	created, err := svc.Register(context.Background(), testIMEI)
	if err == nil || !created {
		t.Fatalf("Register() = %v, %v", created, err)
	}
	if !svc.IsRegistered(testIMEI) {
		t.Error("device should stay registered")
	}
}

func TestPublishCommand(t *testing.T) {
	tests := []struct {
		kind      model.CommandKind
		value     string
		wantTopic string
	}{
		{model.CommandLock, "L", "truck/123456789012345/command/lock"},
		{model.CommandWITConfig, "30", "truck/123456789012345/command/config/wit"},
		{model.CommandRFIDConfig, "04A1B2C3", "truck/123456789012345/command/config/rfid"},
		{model.CommandGyroscopeConfig, "2.5", "truck/123456789012345/command/config/gyroscope"},
		{model.CommandPhoneNumber, "+989121234567", "truck/123456789012345/command/config/phoneNumber"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			n := &fakeNotifier{}
			svc := newTestService(n, nil)
			svc.Store().Register(testIMEI)

			res, err := svc.PublishCommand(context.Background(), testIMEI, tt.kind, tt.value)
			if err != nil {
				t.Fatalf("PublishCommand() error = %v", err)
			}
			if res.Topic != tt.wantTopic || res.Message != "{"+tt.value+"}" {
				t.Errorf("result = %s %s", res.Topic, res.Message)
			}
			if res.ID != "cmd-1" || !res.SentAt.Equal(epoch) {
				t.Errorf("result id/time = %s/%s", res.ID, res.SentAt)
			}
			if len(n.sent) != 1 || n.sent[0] != res {
				t.Errorf("notifier got %d commands", len(n.sent))
			}
		})
	}
}

func TestPublishCommandRejected(t *testing.T) {
	tests := []struct {
		name     string
		register bool
		kind     model.CommandKind
		value    string
		wantErr  error
	}{
		{"unknown kind on registered device", true, "reboot", "1", ErrUnknownCommand},
		{"unknown kind on unknown device", false, "reboot", "1", ErrUnknownCommand},
		{"unregistered device", false, model.CommandLock, "L", ErrDeviceNotConnected},
		{"empty value", true, model.CommandLock, "", ErrInvalidCommandValue},
		{"framing characters", true, model.CommandLock, "L}", ErrInvalidCommandValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			svc := newTestService(n, nil)
			if tt.register {
				svc.Store().Register(testIMEI)
			}

			res, err := svc.PublishCommand(context.Background(), testIMEI, tt.kind, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if res != nil || len(n.sent) != 0 {
				t.Error("command must not be published")
			}
		})
	}
}

func TestPublishCommandUnknownKindListsKinds(t *testing.T) {
	svc := newTestService(&fakeNotifier{}, nil)
	svc.Store().Register(testIMEI)

	_, err := svc.PublishCommand(context.Background(), testIMEI, "reboot", "1")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, k := range model.CommandKinds {
		if !strings.Contains(err.Error(), string(k)) {
			t.Errorf("error %q does not list %q", err, k)
		}
	}
}

func TestPublishCommandNotifierError(t *testing.T) {
	boom := errors.New("not connected")
	svc := newTestService(&fakeNotifier{err: boom}, nil)
	svc.Store().Register(testIMEI)

	if _, err := svc.PublishCommand(context.Background(), testIMEI, model.CommandLock, "U"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped notifier error", err)
	}
}

func TestLatestAccessors(t *testing.T) {
	svc := newTestService(&fakeNotifier{}, nil)
	st := svc.Store()
	st.Register(testIMEI)

	for _, rec := range []model.Record{
		&model.StatusRecord{RSSI: 18},
		&model.RFIDEvent{Serial: "04A1"},
		&model.SMSEvent{PhoneNumber: "+98912"},
		&model.GyroscopeEvent{Force: 3.5},
		&model.SecurityAlert{AlertCode: "R"},
	} {
		if err := st.Append(testIMEI, rec); err != nil {
			t.Fatalf("Append(%s) error = %v", rec.Class(), err)
		}
	}

	if r, ok := svc.LatestStatus(testIMEI); !ok || r.RSSI != 18 {
		t.Errorf("LatestStatus() = %+v, %v", r, ok)
	}
	if r, ok := svc.LatestRFID(testIMEI); !ok || r.Serial != "04A1" {
		t.Errorf("LatestRFID() = %+v, %v", r, ok)
	}
	if r, ok := svc.LatestSMS(testIMEI); !ok || r.PhoneNumber != "+98912" {
		t.Errorf("LatestSMS() = %+v, %v", r, ok)
	}
	if r, ok := svc.LatestGyroscope(testIMEI); !ok || r.Force != 3.5 {
		t.Errorf("LatestGyroscope() = %+v, %v", r, ok)
	}
	if r, ok := svc.LatestSecurity(testIMEI); !ok || r.AlertCode != "R" {
		t.Errorf("LatestSecurity() = %+v, %v", r, ok)
	}
	if _, ok := svc.LatestGyroscope("unknown"); ok {
		t.Error("LatestGyroscope(unknown) reported a record")
	}
}
