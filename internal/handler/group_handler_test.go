package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/handler"
	"github.com/fypdesk/fyp-api/internal/repository"
	"github.com/fypdesk/fyp-api/internal/service"
)

type mockGroupService struct {
	lastActor    service.Actor
	lastPayload  interface{}
	response     dto.GroupResponse
	listResponse dto.GroupListResponse
	err          error
}

func (m *mockGroupService) List(_ context.Context, req dto.GroupListRequest) (dto.GroupListResponse, error) {
	m.lastPayload = req
	return m.listResponse, m.err
}

func (m *mockGroupService) Get(_ context.Context, id uint) (dto.GroupResponse, error) {
	m.lastPayload = id
	return m.response, m.err
}

func (m *mockGroupService) MyGroup(_ context.Context, actor service.Actor) (dto.GroupResponse, error) {
	m.lastActor = actor
	return m.response, m.err
}

func (m *mockGroupService) Create(_ context.Context, actor service.Actor, payload dto.GroupCreateRequest) (dto.GroupResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockGroupService) Invite(_ context.Context, actor service.Actor, groupID uint, payload dto.GroupInviteRequest) (dto.GroupResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockGroupService) RespondToInvite(_ context.Context, actor service.Actor, groupID uint, accept bool) (dto.GroupResponse, error) {
	m.lastActor = actor
	m.lastPayload = accept
	return m.response, m.err
}

func (m *mockGroupService) RequestSupervisor(_ context.Context, actor service.Actor, groupID uint, payload dto.GroupSupervisorRequest) (dto.GroupResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockGroupService) SupervisorDecision(_ context.Context, actor service.Actor, groupID uint, payload dto.GroupDecisionRequest) (dto.GroupResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func (m *mockGroupService) CoordinatorDecision(_ context.Context, actor service.Actor, groupID uint, payload dto.GroupDecisionRequest) (dto.GroupResponse, error) {
	m.lastActor = actor
	m.lastPayload = payload
	return m.response, m.err
}

func newGroupApp(svc service.GroupService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(5))
		c.Locals("user_role", "student")
		return c.Next()
	})
	groups := app.Group("/api/v1/groups")
	handler.NewGroupHandler(svc, zerolog.New(io.Discard)).Register(groups, groups, groups, groups)
	return app
}

func TestGroupHandler_GetSuccess(t *testing.T) {
	svc := &mockGroupService{response: dto.GroupResponse{ID: 9, Name: "Team Atlas", Status: "active", Version: 3}}
	app := newGroupApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/9", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    dto.GroupResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.True(t, body.Success)
	require.Equal(t, "group retrieved", body.Message)
	require.Equal(t, uint(9), body.Data.ID)
	require.Equal(t, uint(9), svc.lastPayload)
}

func TestGroupHandler_GetInvalidID(t *testing.T) {
	app := newGroupApp(&mockGroupService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/oops", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGroupHandler_GetNotFound(t *testing.T) {
	app := newGroupApp(&mockGroupService{err: service.ErrGroupNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/404", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGroupHandler_CreateReturnsCreated(t *testing.T) {
	svc := &mockGroupService{response: dto.GroupResponse{ID: 1, Name: "Team Atlas"}}
	app := newGroupApp(svc)

	payload, _ := json.Marshal(dto.GroupCreateRequest{Name: "Team Atlas"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(5), svc.lastActor.UserID)
	require.Equal(t, dto.GroupCreateRequest{Name: "Team Atlas"}, svc.lastPayload)
}

func TestGroupHandler_StaleDecisionConflicts(t *testing.T) {
	app := newGroupApp(&mockGroupService{err: repository.ErrStaleVersion})

	payload, _ := json.Marshal(dto.GroupDecisionRequest{Accept: true, Version: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/9/decision", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGroupHandler_FullGroupRejectsInvite(t *testing.T) {
	app := newGroupApp(&mockGroupService{err: service.ErrGroupFull})

	payload, _ := json.Marshal(dto.GroupInviteRequest{StudentID: 4})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/9/invites", bytes.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
