package http

import (
	"net/http"

	"powerpulse/internal/model"
	"powerpulse/internal/services"
)

type monthsResponse struct {
	Months []int `json:"months"`
}

type predictionResponse struct {
	model.Prediction
	Formatted string `json:"formatted"`
}

func (s *Server) handleAPIMonths(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, pageMethods) {
		return
	}
	months, err := s.dashboard.Months(r.Context())
	if err != nil {
		writeJSONError(w, err)
		return
	}
	if months == nil {
		months = []int{}
	}
	writeJSON(w, http.StatusOK, monthsResponse{Months: months})
}

// handleAPIReport returns the report of ?month=N, or of the first month when
// the parameter is absent. Unlike the HTML views an unknown month is a 404.
func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, pageMethods) {
		return
	}
	month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		writeJSONError(w, err)
		return
	}

	sel := services.Selection{Month: month}
	if month == 0 {
		if sel, _, err = s.dashboard.Resolve(r.Context(), 0); err != nil {
			writeJSONError(w, err)
			return
		}
	}
	report, err := s.dashboard.Report(r.Context(), sel)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, submitMethods) {
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	fv, err := ParseFeatures(parser)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	p, err := s.predictions.Predict(r.Context(), fv)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionResponse{Prediction: p, Formatted: p.Format()})
}
