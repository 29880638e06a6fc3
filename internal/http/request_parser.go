// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the month selector, the prediction form (form-encoded or JSON) and method
// guards shared by the handlers.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"powerpulse/internal/core"
)

// maxBodyBytes bounds request bodies; the prediction form is tiny.
const maxBodyBytes = 64 << 10

// ParseMonthParam returns the month query parameter, or 0 when it is absent.
// Whether the month exists is left to the dashboard service, which knows the
// observed months.
func ParseMonthParam(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return 0, nil
	}
	m, err := strconv.Atoi(v)
	if err != nil {
		return 0, &FieldError{Field: "month", Err: core.ErrInvalidMonth}
	}
	return m, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// FieldError names the form field that failed to parse.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseFeatures builds a feature vector from the parsed body. Missing or
// blank fields keep their form defaults.
func ParseFeatures(p *RequestBodyParser) (core.FeatureVector, error) {
	fv := core.DefaultFeatures()

	floats := []struct {
		name string
		dst  *float64
	}{
		{"global_reactive_power", &fv.GlobalReactivePower},
		{"voltage", &fv.Voltage},
		{"global_intensity", &fv.GlobalIntensity},
		{"sub_metering_1", &fv.SubMetering1},
		{"sub_metering_2", &fv.SubMetering2},
		{"sub_metering_3", &fv.SubMetering3},
	}
	for _, f := range floats {
		raw := p.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := core.ParseDecimal(raw)
		if err != nil {
			return fv, &FieldError{Field: f.name, Err: err}
		}
		*f.dst = v
	}

	ints := []struct {
		name     string
		dst      *int
		min, max int
		rangeErr error
	}{
		{"hour", &fv.Hour, 0, 23, core.ErrInvalidHour},
		{"weekday", &fv.Weekday, 0, 6, core.ErrInvalidWeekday},
		{"is_weekend", &fv.IsWeekend, 0, 1, core.ErrInvalidWeekendFlag},
	}
	for _, f := range ints {
		raw := p.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fv, &FieldError{Field: f.name, Err: err}
		}
		if v < f.min || v > f.max {
			return fv, &FieldError{Field: f.name, Err: f.rangeErr}
		}
		*f.dst = v
	}
	return fv, nil
}

// Methods each route answers.
var (
	pageMethods   = []string{http.MethodGet, http.MethodHead}
	formMethods   = []string{http.MethodGet, http.MethodHead, http.MethodPost}
	submitMethods = []string{http.MethodPost}
)

// allowMethods answers 405 with an Allow header and returns false unless r
// uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods []string) bool {
	if slices.Contains(methods, r.Method) {
		return true
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}
