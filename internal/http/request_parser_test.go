package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"powerpulse/internal/core"
)

func TestParseMonthParam(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    int
		wantErr bool
	}{
		{"absent", url.Values{}, 0, false},
		{"blank", url.Values{"month": {"  "}}, 0, false},
		{"valid", url.Values{"month": {"7"}}, 7, false},
		{"out of calendar range is left to the service", url.Values{"month": {"13"}}, 13, false},
		{"not a number", url.Values{"month": {"july"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParam(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonthParam() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMonthParam() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        map[string]string
	}{
		{
			name:        "json",
			contentType: "application/json",
			body:        `{"voltage": 236.5, "hour": 7, "is_weekend": true, "note": " evening\u0007 "}`,
			want:        map[string]string{"voltage": "236.5", "hour": "7", "is_weekend": "true", "note": "evening", "weekday": ""},
		},
		{
			name: "json without content type",
			body: `{"sub_metering_3": 12}`,
			want: map[string]string{"sub_metering_3": "12"},
		},
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			body:        "voltage=240&global_intensity=4%2C6&hour=+9+",
			want:        map[string]string{"voltage": "240", "global_intensity": "4,6", "hour": "9", "weekday": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			parser := NewRequestBodyParser(req)
			if err := parser.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			for key, want := range tt.want {
				if got := parser.Get(key); got != want {
					t.Errorf("Get(%q) = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"hour": `))
	req.Header.Set("Content-Type", "application/json")
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Fatal("Parse() should fail on truncated JSON")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestAllowMethods(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		allowed   []string
		want      bool
		wantAllow string
	}{
		{"page GET", http.MethodGet, pageMethods, true, ""},
		{"page HEAD", http.MethodHead, pageMethods, true, ""},
		{"page POST", http.MethodPost, pageMethods, false, "GET, HEAD"},
		{"form POST", http.MethodPost, formMethods, true, ""},
		{"form DELETE", http.MethodDelete, formMethods, false, "GET, HEAD, POST"},
		{"api predict GET", http.MethodGet, submitMethods, false, "POST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			got := allowMethods(w, httptest.NewRequest(tt.method, "/", nil), tt.allowed)
			if got != tt.want {
				t.Fatalf("allowMethods() = %v, want %v", got, tt.want)
			}
			if tt.want {
				return
			}
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", w.Code)
			}
			if allow := w.Header().Get("Allow"); allow != tt.wantAllow {
				t.Errorf("Allow = %q, want %q", allow, tt.wantAllow)
			}
		})
	}
}

func TestParseFeatures(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		json      bool
		check     func(t *testing.T, fv core.FeatureVector)
		wantField string
		wantErr   error
	}{
		{
			name: "empty form keeps defaults",
			body: "",
			check: func(t *testing.T, fv core.FeatureVector) {
				if fv != core.DefaultFeatures() {
					t.Errorf("features = %+v, want defaults", fv)
				}
			},
		},
		{
			name: "form values override defaults",
			body: "voltage=235.5&sub_metering_3=17&hour=7&weekday=5&is_weekend=1",
			check: func(t *testing.T, fv core.FeatureVector) {
				if fv.Voltage != 235.5 || fv.SubMetering3 != 17 || fv.Hour != 7 || fv.Weekday != 5 || fv.IsWeekend != 1 {
					t.Errorf("features = %+v", fv)
				}
				if fv.GlobalIntensity != 5 {
					t.Errorf("untouched field changed: %+v", fv)
				}
			},
		},
		{
			name: "json numbers",
			body: `{"global_reactive_power": 0.25, "hour": 23}`,
			json: true,
			check: func(t *testing.T, fv core.FeatureVector) {
				if fv.GlobalReactivePower != 0.25 || fv.Hour != 23 {
					t.Errorf("features = %+v", fv)
				}
			},
		},
		{name: "hour too large", body: "hour=24", wantField: "hour", wantErr: core.ErrInvalidHour},
		{name: "negative weekday", body: "weekday=-1", wantField: "weekday", wantErr: core.ErrInvalidWeekday},
		{name: "weekend flag", body: "is_weekend=2", wantField: "is_weekend", wantErr: core.ErrInvalidWeekendFlag},
		{name: "non numeric float", body: "voltage=abc", wantField: "voltage"},
		{name: "non finite float", body: "sub_metering_1=Inf", wantField: "sub_metering_1", wantErr: core.ErrNonFinite},
		{name: "fractional hour", body: "hour=7.5", wantField: "hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body))
			if tt.json {
				req.Header.Set("Content-Type", "application/json")
			} else {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			parser := NewRequestBodyParser(req)
			if err := parser.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			fv, err := ParseFeatures(parser)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ParseFeatures() error = %v", err)
				}
				tt.check(t, fv)
				return
			}

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("ParseFeatures() error = %v, want *FieldError", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("field = %q, want %q", fe.Field, tt.wantField)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
