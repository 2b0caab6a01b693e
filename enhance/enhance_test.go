package enhance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestEnhanceSuccess(t *testing.T) {
	var gotBody Request
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		data, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"  Buy organic milk  "}`))
	}))
	defer srv.Close()

	desc := "2 liters"
	client := New(srv.URL, time.Second, nil)
	result, err := client.Enhance(context.Background(), Request{TodoID: 7, Title: "Buy milk", Description: &desc})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if result.Title != "Buy organic milk" {
		t.Fatalf("expected trimmed enhanced title, got %q", result.Title)
	}
	if result.Description != "" {
		t.Fatalf("expected no description, got %q", result.Description)
	}
	if gotBody.TodoID != 7 || gotBody.Title != "Buy milk" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
	if gotBody.Description == nil || *gotBody.Description != "2 liters" {
		t.Fatalf("expected description in payload, got %+v", gotBody.Description)
	}
	if gotRequestID == "" {
		t.Fatalf("expected correlation id header")
	}
}

func TestEnhanceEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	result, err := client.Enhance(context.Background(), Request{TodoID: 1, Title: "t"})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if !result.Empty() {
		t.Fatalf("expected empty enhancement, got %+v", result)
	}
}

func TestEnhanceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	_, err := client.Enhance(context.Background(), Request{TodoID: 1, Title: "t"})
	var enhErr *Error
	if !errors.As(err, &enhErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if enhErr.Kind != KindStatus {
		t.Fatalf("expected status kind, got %q", enhErr.Kind)
	}
}

func TestEnhanceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil)
	_, err := client.Enhance(context.Background(), Request{TodoID: 1, Title: "t"})
	var enhErr *Error
	if !errors.As(err, &enhErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if enhErr.Kind != KindDecode {
		t.Fatalf("expected decode kind, got %q", enhErr.Kind)
	}
}

func TestEnhanceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	client := New(srv.URL, 20*time.Millisecond, nil)
	_, err := client.Enhance(context.Background(), Request{TodoID: 1, Title: "t"})
	var enhErr *Error
	if !errors.As(err, &enhErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if enhErr.Kind != KindTimeout {
		t.Fatalf("expected timeout kind, got %q", enhErr.Kind)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestEnhanceConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL, time.Second, nil)
	_, err := client.Enhance(context.Background(), Request{TodoID: 1, Title: "t"})
	var enhErr *Error
	if !errors.As(err, &enhErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if enhErr.Kind != KindNetwork {
		t.Fatalf("expected network kind, got %q", enhErr.Kind)
	}
}
