package profile

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/query", h.Query)
	api.GET("/patients/:uuid/profile", h.GetProfile)
}

// QueryRequest is the inbound natural-language query payload.
type QueryRequest struct {
	Question    string `json:"question"`
	PatientUUID string `json:"patient_uuid"`
}

// QueryResponse carries the generated answer. Answer generation is not
// implemented yet, so the response list is always empty.
type QueryResponse struct {
	Response []string `json:"response"`
}

// Query validates the question, aggregates the patient's profile as input
// for the answer-generation step, and returns the placeholder response.
func (h *Handler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No question provided")
	}
	if _, err := uuid.Parse(req.PatientUUID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_uuid")
	}
	if _, err := h.svc.Aggregate(c.Request().Context(), req.PatientUUID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, QueryResponse{Response: []string{}})
}

// GetProfile returns the aggregated profile document for one patient.
func (h *Handler) GetProfile(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient uuid")
	}
	p, err := h.svc.Aggregate(c.Request().Context(), pid.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
