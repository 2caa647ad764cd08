package http

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"gestmais/internal/response"
	"gestmais/internal/services"
)

type (
	SummaryResponse  = response.APIResponse[summaryDTO]
	OverviewResponse = response.APIResponse[overviewDTO]
	PaymentResponse  = response.APIResponse[paymentDTO]
)

var validate = newValidator()

// newValidator reports fields by their JSON name, or the lowercased Go name
// for path parameters.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// updatePaymentRequest is the PUT body plus the path parameters it applies to.
type updatePaymentRequest struct {
	Status      string `json:"status" validate:"required,oneof=paid pending late"`
	AmountCents *int64 `json:"amount_cents" validate:"omitempty,gte=0"`
	Year        int    `json:"-" validate:"gte=1900,lte=9999"`
	Month       int    `json:"-" validate:"gte=1,lte=12"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{"status": "available"}
	writeJSON(w, http.StatusOK, response.APIResponse[map[string]string]{Success: true, Data: data})
}

func (s *Server) handleResidentStatus(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, services.MessageInvalidRequest)
		return
	}

	summary, err := s.payments.ResidentPaymentStatus(r.Context(), userID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Success: true, Message: summary.Message, Data: toSummaryDTO(summary)})
}

func (s *Server) handleApartmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "apartmentID")
	if !ok {
		return
	}

	summary, err := s.payments.ApartmentPaymentStatus(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Success: true, Message: summary.Message, Data: toSummaryDTO(summary)})
}

func (s *Server) handleBuildingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "buildingID")
	if !ok {
		return
	}

	summary, err := s.payments.BuildingPaymentStatus(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Success: true, Message: summary.Message, Data: toSummaryDTO(summary)})
}

func (s *Server) handleBuildingOverview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "buildingID")
	if !ok {
		return
	}

	ov, err := s.payments.BuildingOverview(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OverviewResponse{Success: true, Message: ov.Summary.Message, Data: toOverviewDTO(ov)})
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	aptID, ok := pathID(w, r, "apartmentID")
	if !ok {
		return
	}

	var req updatePaymentRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, services.MessageInvalidRequest)
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.Year, _ = strconv.Atoi(chi.URLParam(r, "year"))
	req.Month, _ = strconv.Atoi(chi.URLParam(r, "month"))

	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, response.APIResponse[response.ValidationErrors]{
			Success: false,
			Message: services.MessageInvalidRequest,
			Data:    validationErrors(err),
		})
		return
	}

	payment, err := s.payments.UpdatePaymentStatus(r.Context(), services.UpdatePaymentRequest{
		ApartmentID: aptID,
		Month:       req.Month,
		Year:        req.Year,
		Status:      req.Status,
		Amount:      req.AmountCents,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentResponse{Success: true, Message: services.MessagePaymentRecorded, Data: toPaymentDTO(payment)})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusNotFound, services.MessageNotFound)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusMethodNotAllowed, services.MessageInvalidRequest)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusTooManyRequests, "Demasiados pedidos. Tente novamente dentro de um minuto.")
}

// pathID parses a positive integer path parameter, answering 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, services.MessageInvalidRequest)
		return 0, false
	}
	return id, true
}

// validationErrors maps each failing field to the rule it broke.
func validationErrors(err error) response.ValidationErrors {
	out := response.ValidationErrors{}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out["request"] = err.Error()
		return out
	}
	for _, ve := range ves {
		out[ve.Field()] = ve.Tag()
	}
	return out
}
