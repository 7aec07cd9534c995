package http

import (
	"net/http"
)

func (s *Server) handleReportTotal(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	total, err := s.reports.Total(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTotalReportDTO(total))
}

func (s *Server) handleReportByCategory(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.reports.ByCategory(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCategoryReportDTOs(rows))
}

func (s *Server) handleReportByName(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.reports.ByName(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toNameReportDTOs(rows))
}

// handleReportHighest answers with a null payload when nothing matches the
// filter; that is a valid result, not an error.
func (s *Server) handleReportHighest(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	highest, err := s.reports.Highest(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if highest == nil {
		writeData(w, http.StatusOK, nil)
		return
	}
	writeData(w, http.StatusOK, toExpenseDTO(*highest))
}

func (s *Server) handleReportOverview(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ov, err := s.reports.Overview(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOverviewDTO(ov))
}
