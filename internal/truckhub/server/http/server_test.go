package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/store"
	"github.com/autopeer-io/truckhub/internal/truckhub/stream"
	"github.com/autopeer-io/truckhub/pkg/mqtt/topic"
	"github.com/autopeer-io/truckhub/pkg/options"
)

const imei = "123456789012345"

type fakeNotifier struct {
	err  error
	sent []*model.CommandResult
}

func (f *fakeNotifier) Notify(_ context.Context, cmd *model.CommandResult) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, cmd)
	return nil
}

type fixture struct {
	svc      *service.Service
	hub      *stream.Hub
	notifier *fakeNotifier
	ready    bool
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{notifier: &fakeNotifier{}, hub: stream.NewHub(8)}
	f.svc = service.New(store.New(0), f.notifier, nil, topic.NewBuilder("truck"))
	f.handler = NewServer(options.NewHttpOptions(), f.svc, f.hub, func() bool { return f.ready }).Handler()
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func ptr(f float64) *float64 { return &f }

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz while disconnected = %d", rec.Code)
	}
	f.ready = true
	if rec := f.do(http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz while connected = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "truckhub_") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestRegisterAndList(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodPost, "/api/v1/devices", registerRequest{IMEI: imei}); rec.Code != http.StatusCreated {
		t.Fatalf("first register = %d %s", rec.Code, rec.Body)
	}
	if rec := f.do(http.MethodPost, "/api/v1/devices", registerRequest{IMEI: imei}); rec.Code != http.StatusOK {
		t.Errorf("second register = %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/v1/devices", registerRequest{IMEI: "truck/+"}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid imei = %d", rec.Code)
	}

	rec := f.do(http.MethodGet, "/api/v1/devices", nil)
	got := decode[map[string][]string](t, rec)
	if len(got["devices"]) != 1 || got["devices"][0] != imei {
		t.Errorf("devices = %v", got)
	}
}

func TestLocation(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodGet, "/api/v1/devices/"+imei+"/location", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown device = %d", rec.Code)
	}

	f.svc.Store().Register(imei)
	rec := f.do(http.MethodGet, "/api/v1/devices/"+imei+"/location", nil)
	if got := decode[locationResponse](t, rec); got.Success || got.Lat != nil {
		t.Errorf("no fix yet = %+v", got)
	}

	_ = f.svc.Store().Append(imei, &model.StatusRecord{Lat: ptr(35.7), Lon: ptr(51.4)})
	rec = f.do(http.MethodGet, "/api/v1/devices/"+imei+"/location", nil)
	got := decode[locationResponse](t, rec)
	if !got.Success || got.Lat == nil || *got.Lat != 35.7 || *got.Lon != 51.4 {
		t.Errorf("location = %s", rec.Body)
	}
}

func TestListRecords(t *testing.T) {
	f := newFixture(t)
	f.svc.Store().Register(imei)
	for _, code := range []string{"R", "B", "R"} {
		_ = f.svc.Store().Append(imei, &model.SecurityAlert{AlertCode: code})
	}

	tests := []struct {
		path string
		code int
		n    int
	}{
		{"/api/v1/devices/" + imei + "/security", http.StatusOK, 3},
		{"/api/v1/devices/" + imei + "/security?limit=2", http.StatusOK, 2},
		{"/api/v1/devices/" + imei + "/status", http.StatusOK, 0},
		{"/api/v1/devices/" + imei + "/security?limit=x", http.StatusBadRequest, 0},
		{"/api/v1/devices/" + imei + "/weather", http.StatusNotFound, 0},
		{"/api/v1/devices/999/security", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, nil)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			if tt.code != http.StatusOK {
				return
			}
			got := decode[map[string][]map[string]any](t, rec)
			if len(got["records"]) != tt.n {
				t.Errorf("len(records) = %d, want %d", len(got["records"]), tt.n)
			}
		})
	}

	rec := f.do(http.MethodGet, "/api/v1/devices/"+imei+"/security?limit=1", nil)
	got := decode[map[string][]map[string]any](t, rec)
	if got["records"][0]["alertCode"] != "R" {
		t.Errorf("newest record = %v", got["records"][0])
	}
}

func TestGetDevice(t *testing.T) {
	f := newFixture(t)
	f.svc.Store().Register(imei)
	_ = f.svc.Store().Append(imei, &model.GyroscopeEvent{Force: 2.5})

	rec := f.do(http.MethodGet, "/api/v1/devices/"+imei, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	latest, _ := got["latest"].(map[string]any)
	if _, ok := latest["gyroscope"]; !ok || len(latest) != 1 || got["location"] != nil {
		t.Errorf("device = %s", rec.Body)
	}
}

func TestSendCommand(t *testing.T) {
	tests := []struct {
		name      string
		device    string
		req       commandRequest
		notifyErr error
		code      int
		topic     string
	}{
		{"lock", imei, commandRequest{model.CommandLock, "L"}, nil, http.StatusOK, "truck/" + imei + "/command/lock"},
		{"phone", imei, commandRequest{model.CommandPhoneNumber, "+989121234567"}, nil, http.StatusOK, "truck/" + imei + "/command/config/phoneNumber"},
		{"unknown kind", imei, commandRequest{"reboot", "1"}, nil, http.StatusBadRequest, ""},
		{"unknown device", "999", commandRequest{model.CommandLock, "L"}, nil, http.StatusNotFound, ""},
		{"bad value", imei, commandRequest{model.CommandLock, "L,U"}, nil, http.StatusBadRequest, ""},
		{"broker down", imei, commandRequest{model.CommandLock, "U"}, errors.New("not connected"), http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.notifier.err = tt.notifyErr
			f.svc.Store().Register(imei)

			rec := f.do(http.MethodPost, "/api/v1/devices/"+tt.device+"/commands", tt.req)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			if tt.code != http.StatusOK {
				if len(f.notifier.sent) != 0 {
					t.Errorf("published on failure: %+v", f.notifier.sent)
				}
				return
			}

			got := decode[map[string]any](t, rec)
			if got["success"] != true || got["topic"] != tt.topic || got["message"] != "{"+tt.req.Value+"}" {
				t.Errorf("response = %s", rec.Body)
			}
		})
	}
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	f.svc.Store().Register(imei)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/devices/" + imei + "/stream"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Subscribers(imei) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	alert := &model.SecurityAlert{Header: model.Header{DeviceID: imei}, AlertCode: "B", Alert: "Box opened"}
	if err := f.hub.Accept(context.Background(), alert); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["class"] != string(model.ClassSecurity) {
		t.Errorf("message = %s", data)
	}
}

func TestStreamUnknownDevice(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/api/v1/devices/"+imei+"/stream", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
