package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"powerpulse/internal/model"
)

// Events raised through HX-Trigger. web/static/app.js listens for them.
const (
	eventNotification       = "show-notification"
	eventMonthSelected      = "month:selected"
	eventPredictionComplete = "prediction:completed"
)

const errorNotificationMs = 5000

type notification struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

type predictionDetail struct {
	ID        string  `json:"id"`
	Model     string  `json:"model"`
	ValueKW   float64 `json:"value_kw"`
	Formatted string  `json:"formatted"`
}

// htmxResponse is an HTML fragment together with the htmx headers that
// accompany it. Build one with htmlFragment or alertFragment, then write it.
type htmxResponse struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

func htmlFragment(body []byte) *htmxResponse {
	h := &htmxResponse{
		status: http.StatusOK,
		header: make(http.Header),
		events: make(map[string]any),
		body:   body,
	}
	h.header.Set("Content-Type", "text/html; charset=utf-8")
	return h
}

// alertFragment renders message, escaped, as an inline alert.
func alertFragment(status int, message string) *htmxResponse {
	body := `<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`
	return htmlFragment([]byte(body)).withStatus(status)
}

// failure renders err as an alert with the status statusFor picks and raises
// an error notification carrying the same text.
func failure(err error) *htmxResponse {
	msg := userMessage(err)
	return alertFragment(statusFor(err), msg).raise(eventNotification, notification{
		Type:     "error",
		Message:  msg,
		Duration: errorNotificationMs,
	})
}

func (h *htmxResponse) withStatus(code int) *htmxResponse {
	h.status = code
	return h
}

func (h *htmxResponse) raise(event string, detail any) *htmxResponse {
	h.events[event] = detail
	return h
}

// showsMonth records the dashboard URL of month in the browser history and
// tells the charts which month the fragment holds.
func (h *htmxResponse) showsMonth(month int) *htmxResponse {
	h.header.Set("HX-Push-Url", "/dashboard?month="+strconv.Itoa(month))
	return h.raise(eventMonthSelected, map[string]int{"month": month})
}

func (h *htmxResponse) announces(p model.Prediction) *htmxResponse {
	return h.raise(eventPredictionComplete, predictionDetail{
		ID:        p.ID,
		Model:     p.Model,
		ValueKW:   p.Value,
		Formatted: p.Format(),
	})
}

func (h *htmxResponse) write(w http.ResponseWriter) {
	for name, values := range h.header {
		w.Header()[name] = values
	}
	if len(h.events) > 0 {
		if b, err := json.Marshal(h.events); err == nil {
			w.Header().Set("HX-Trigger", string(b))
		}
	}
	w.WriteHeader(h.status)
	_, _ = w.Write(h.body)
}
