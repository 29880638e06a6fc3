package http

import (
	"bytes"
	"context"
	"net/http"

	"powerpulse/internal/core"
	"powerpulse/internal/log"
)

// render executes a template into a buffer so a failed execution never
// leaves a half-written page behind.
func (s *Server) render(r *http.Request, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", log.FieldError, err, "template", name)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.render(r, name, data)
	if err != nil {
		alertFragment(http.StatusInternalServerError, "Failed to render page").write(w)
		return
	}
	htmlFragment(body).withStatus(status).write(w)
}

func (s *Server) writeErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
	}
	s.writePage(w, r, status, "error.html", errorView{
		pageData: pageData{Title: "Error"},
		Status:   status,
		Message:  userMessage(err),
	})
}

// handleSummary renders the landing page with the project summary and the
// loaded model.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		alertFragment(http.StatusNotFound, "Page not found").write(w)
		return
	}
	if !allowMethods(w, r, pageMethods) {
		return
	}

	view := summaryView{
		pageData: pageData{Title: "Summary", Active: "summary"},
		Scores:   modelScores,
	}
	if info, err := s.predictions.ModelInfo(); err != nil {
		view.ModelError = userMessage(err)
	} else {
		view.Model = &info
	}
	s.writePage(w, r, http.StatusOK, "summary.html", view)
}

func (s *Server) dashboardView(ctx context.Context, requested int) (dashboardView, error) {
	sel, months, err := s.dashboard.Resolve(ctx, requested)
	if err != nil {
		return dashboardView{}, err
	}
	report, err := s.dashboard.Report(ctx, sel)
	if err != nil {
		return dashboardView{}, err
	}
	return dashboardView{
		pageData: pageData{Title: "Dashboard", Active: "dashboard"},
		Months:   months,
		Selected: sel.Month,
		Report:   newReportView(report),
	}, nil
}

// handleDashboard renders the full dashboard. An absent, malformed or unknown
// month shows the first month of the data.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, pageMethods) {
		return
	}
	month, _ := ParseMonthParam(r.URL.Query())
	view, err := s.dashboardView(r.Context(), month)
	if err != nil {
		s.writeErrorPage(w, r, err)
		return
	}
	s.writePage(w, r, http.StatusOK, "dashboard.html", view)
}

// handleDashboardPartial renders only the report section for the month
// selector.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, pageMethods) {
		return
	}
	month, _ := ParseMonthParam(r.URL.Query())
	view, err := s.dashboardView(r.Context(), month)
	if err != nil {
		failure(err).write(w)
		return
	}
	body, err := s.render(r, "report", view.Report)
	if err != nil {
		alertFragment(http.StatusInternalServerError, "Failed to render report").write(w)
		return
	}
	htmlFragment(body).showsMonth(view.Selected).write(w)
}

// handlePredict shows the prediction form on GET and evaluates it on POST.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, formMethods) {
		return
	}
	if r.Method != http.MethodPost {
		left, right := predictFields(core.DefaultFeatures())
		view := predictView{
			pageData: pageData{Title: "Predict", Active: "predict"},
			Left:     left,
			Right:    right,
		}
		if info, err := s.predictions.ModelInfo(); err != nil {
			view.ModelError = userMessage(err)
		} else {
			view.Model = &info
		}
		s.writePage(w, r, http.StatusOK, "predict.html", view)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		alertFragment(http.StatusBadRequest, "Invalid request format").write(w)
		return
	}
	fv, err := ParseFeatures(parser)
	if err != nil {
		alertFragment(http.StatusUnprocessableEntity, userMessage(err)).write(w)
		return
	}

	p, err := s.predictions.Predict(r.Context(), fv)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Prediction failed", log.FieldError, err)
		}
		failure(err).write(w)
		return
	}

	body, err := s.render(r, "prediction_result", p)
	if err != nil {
		alertFragment(http.StatusInternalServerError, "Failed to render prediction").write(w)
		return
	}
	htmlFragment(body).announces(p).write(w)
}
