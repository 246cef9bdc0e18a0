package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
	"github.com/fyrsmithlabs/guardd/internal/orchestrator"
)

// handleList lists all registered guardrails with their capabilities and
// options schemas.
func (s *Server) handleList(c echo.Context) error {
	return c.JSON(http.StatusOK, ListResponse{
		Guardrails: s.orch.Registry().List(),
	})
}

// bindCheckRequest decodes and validates the shared validate/transform body.
func (s *Server) bindCheckRequest(c echo.Context) (*CheckRequest, error) {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid request body", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content.Items == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "content field is required")
	}
	if len(req.Guardrails) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "guardrails field is required")
	}
	return &req, nil
}

// handleValidate validates every content item against the requested
// guardrails.
func (s *Server) handleValidate(c echo.Context) error {
	req, err := s.bindCheckRequest(c)
	if err != nil {
		return err
	}

	outcome, err := s.orch.Validate(c.Request().Context(), &orchestrator.Request{
		Contents:   req.Content.Items,
		Guardrails: req.Guardrails,
		Options:    req.Options,
	})
	if err != nil {
		return s.mapError(err)
	}

	details := make(map[string]*orchestrator.ItemValidation, len(outcome.Items))
	for i, item := range outcome.Items {
		details[itemKey(i)] = item
	}

	return c.JSON(http.StatusOK, ValidateResponse{
		IsValid:          outcome.Valid,
		FailedGuardrails: outcome.FailedGuardrails,
		Details:          details,
	})
}

// handleTransform runs the transformation fold over every content item.
// A single-string request yields a single transformed string, a batch
// yields an array.
func (s *Server) handleTransform(c echo.Context) error {
	req, err := s.bindCheckRequest(c)
	if err != nil {
		return err
	}

	outcome, err := s.orch.Transform(c.Request().Context(), &orchestrator.Request{
		Contents:   req.Content.Items,
		Guardrails: req.Guardrails,
		Options:    req.Options,
	})
	if err != nil {
		return s.mapError(err)
	}

	details := make(map[string]map[string]TransformDetail, len(outcome.Details))
	for i, item := range outcome.Details {
		wrapped := make(map[string]TransformDetail, len(item))
		for id, d := range item {
			wrapped[id] = TransformDetail{Details: d}
		}
		details[itemKey(i)] = wrapped
	}

	resp := TransformResponse{
		Applied: outcome.Applied,
		Details: details,
	}
	if req.Content.Single {
		resp.TransformedContent = &outcome.Contents[0]
	} else {
		resp.TransformedContents = outcome.Contents
	}

	return c.JSON(http.StatusOK, resp)
}

// handleHealth reports service health and per-guardrail model readiness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		Guardrails: s.orch.Health(c.Request().Context()),
	})
}

// mapError translates the core error taxonomy into response codes.
// Caller mistakes (unknown check, unsupported capability, invalid
// options) are 400-class; collaborator failures are server-side.
func (s *Server) mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, guardrail.ErrUnknownGuardrail),
		errors.Is(err, guardrail.ErrUnsupportedCapability),
		errors.Is(err, guardrail.ErrInvalidOptions):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, guardrail.ErrCollaborator):
		s.logger.Error("collaborator failure", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("unexpected error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
