package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"powerpulse/internal/model"
	"powerpulse/internal/services"
)

func TestHTMLFragment(t *testing.T) {
	w := httptest.NewRecorder()
	htmlFragment([]byte("<section></section>")).withStatus(http.StatusCreated).write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent without events")
	}
	if w.Body.String() != "<section></section>" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestFragmentShowsMonth(t *testing.T) {
	w := httptest.NewRecorder()
	htmlFragment(nil).showsMonth(4).write(w)

	if got := w.Header().Get("HX-Push-Url"); got != "/dashboard?month=4" {
		t.Errorf("HX-Push-Url = %q", got)
	}
	var events map[string]map[string]int
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if events[eventMonthSelected]["month"] != 4 {
		t.Errorf("month:selected detail = %v", events[eventMonthSelected])
	}
}

func TestFragmentAnnouncesPrediction(t *testing.T) {
	w := httptest.NewRecorder()
	htmlFragment(nil).announces(model.Prediction{ID: "abc-123", Model: "Linear Regression", Value: 1.25}).write(w)

	var events map[string]predictionDetail
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	want := predictionDetail{ID: "abc-123", Model: "Linear Regression", ValueKW: 1.25, Formatted: "1.2500 kW"}
	if got := events[eventPredictionComplete]; got != want {
		t.Errorf("prediction:completed detail = %+v, want %+v", got, want)
	}
}

func TestAlertFragment(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		message    string
		wantStatus int
		wantBody   string
	}{
		{"bad request", http.StatusBadRequest, "Invalid request format", http.StatusBadRequest, `<div class="error" role="alert">Invalid request format</div>`},
		{"not found", http.StatusNotFound, "Page not found", http.StatusNotFound, `<div class="error" role="alert">Page not found</div>`},
		{"escapes html", http.StatusUnprocessableEntity, "<script>alert('x')</script>", http.StatusUnprocessableEntity, `<div class="error" role="alert">&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;</div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			alertFragment(tt.status, tt.message).write(w)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"unknown month", services.ErrUnknownMonth, http.StatusNotFound, "No data for the selected month"},
		{"missing model", model.ErrArtifactUnavailable, http.StatusBadGateway, "The prediction model is not available"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			failure(tt.err).write(w)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantText) {
				t.Errorf("body = %q", w.Body.String())
			}
			var events map[string]notification
			if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events); err != nil {
				t.Fatalf("HX-Trigger is not JSON: %v", err)
			}
			got := events[eventNotification]
			if got.Type != "error" || got.Message != tt.wantText || got.Duration != errorNotificationMs {
				t.Errorf("notification = %+v", got)
			}
		})
	}
}
