package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/handler"
	"github.com/fypdesk/fyp-api/internal/service"
)

type mockDefenseService struct {
	lastActor   service.Actor
	lastPayload interface{}
	response    dto.DefenseResponse
	list        dto.DefenseListResponse
	err         error
}

func (m *mockDefenseService) Get(_ context.Context, id uint) (dto.DefenseResponse, error) {
	m.lastPayload = id
	return m.response, m.err
}

func (m *mockDefenseService) List(_ context.Context, req dto.DefenseListRequest) (dto.DefenseListResponse, error) {
	m.lastPayload = req
	return m.list, m.err
}

func (m *mockDefenseService) Schedule(_ context.Context, actor service.Actor, payload dto.DefenseScheduleRequest) (dto.DefenseResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockDefenseService) AssignEvaluators(_ context.Context, actor service.Actor, defenseID uint, payload dto.DefenseAssignEvaluatorsRequest) (dto.DefenseResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockDefenseService) ChangeStatus(_ context.Context, actor service.Actor, defenseID uint, payload dto.DefenseStatusRequest) (dto.DefenseResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockDefenseService) RecordResult(_ context.Context, actor service.Actor, defenseID uint, payload dto.DefenseResultRequest) (dto.DefenseResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockDefenseService) SubmitMarks(_ context.Context, actor service.Actor, defenseID uint, payload dto.DefenseMarkRequest) (dto.DefenseResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func newDefenseApp(svc service.DefenseService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "evaluator")
		return c.Next()
	})
	defenses := app.Group("/api/v1/defenses")
	handler.NewDefenseHandler(svc, zerolog.New(io.Discard)).Register(defenses, defenses, defenses)
	return app
}

func TestDefenseHandler_ScheduleReturnsCreated(t *testing.T) {
	svc := &mockDefenseService{response: dto.DefenseResponse{ID: 3, GroupID: 9, Type: "proposal", Status: "scheduled"}}
	app := newDefenseApp(svc)

	payload, _ := json.Marshal(dto.DefenseScheduleRequest{
		GroupID:     9,
		Type:        "proposal",
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Venue:       "Seminar Hall B",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/defenses", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Data    dto.DefenseResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "defense scheduled", body.Message)
	require.Equal(t, uint(3), body.Data.ID)
}

func TestDefenseHandler_SubmitMarksCarriesActor(t *testing.T) {
	svc := &mockDefenseService{response: dto.DefenseResponse{ID: 3}}
	app := newDefenseApp(svc)

	payload, _ := json.Marshal(dto.DefenseMarkRequest{
		PresentationMarks:  5,
		ImplementationMark: 6,
		DocumentationMarks: 4,
		QAMarks:            3,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/defenses/3/marks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastActor.UserID)
}

func TestDefenseHandler_MarksOverCapRejected(t *testing.T) {
	app := newDefenseApp(&mockDefenseService{err: service.ErrMarksExceedMaximum})

	payload, _ := json.Marshal(dto.DefenseMarkRequest{PresentationMarks: 50})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/defenses/3/marks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDefenseHandler_UnassignedEvaluatorForbidden(t *testing.T) {
	app := newDefenseApp(&mockDefenseService{err: service.ErrNotAssignedEvaluator})

	payload, _ := json.Marshal(dto.DefenseMarkRequest{PresentationMarks: 5})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/defenses/3/marks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestDefenseHandler_ResultAlreadyRecorded(t *testing.T) {
	app := newDefenseApp(&mockDefenseService{err: service.ErrResultAlreadyRecorded})

	payload, _ := json.Marshal(dto.DefenseResultRequest{Result: "accepted", Version: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/defenses/3/result", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
