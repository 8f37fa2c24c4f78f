package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
	"github.com/ledgerlink/exchange-bot/internal/dto"
	"github.com/ledgerlink/exchange-bot/internal/handlers"
	"github.com/ledgerlink/exchange-bot/internal/platform/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock dispatch service ---
type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) DispatchEvent(ctx context.Context, event domain.Event) ([]string, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ portssvc.EventDispatchSvcFacade = (*MockDispatchService)(nil)

// --- Mock reconcile service ---
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) UpdateGainLoss(ctx context.Context, bookID string, date string) ([]string, error) {
	args := m.Called(ctx, bookID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ portssvc.ReconcileSvcFacade = (*MockReconcileService)(nil)

// --- Mock sync log service ---
type MockSyncLogService struct {
	mock.Mock
}

func (m *MockSyncLogService) ListRecentActivity(ctx context.Context, bookID string, limit int) ([]domain.SyncRecord, error) {
	args := m.Called(ctx, bookID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncRecord), args.Error(1)
}

var _ portssvc.SyncLogSvcFacade = (*MockSyncLogService)(nil)

// --- Test Suite ---
type EventHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	mockDispatch  *MockDispatchService
	mockReconcile *MockReconcileService
	mockSyncLog   *MockSyncLogService
}

func (suite *EventHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.mockDispatch = new(MockDispatchService)
	suite.mockReconcile = new(MockReconcileService)
	suite.mockSyncLog = new(MockSyncLogService)

	cfg := &config.Config{}
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Dispatch:  suite.mockDispatch,
		Reconcile: suite.mockReconcile,
		SyncLog:   suite.mockSyncLog,
	})
}

func (suite *EventHandlerTestSuite) postJSON(path string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	suite.router.ServeHTTP(recorder, req)
	return recorder
}

func (suite *EventHandlerTestSuite) TestHandleEvent_Success() {
	suite.mockDispatch.On("DispatchEvent", mock.Anything, mock.MatchedBy(func(event domain.Event) bool {
		return event.Kind == domain.EventTransactionPosted &&
			event.BookID == "base-book" &&
			event.Transaction != nil && event.Transaction.TransactionID == "txn-1"
	})).Return([]string{"line one"}, nil).Once()

	recorder := suite.postJSON("/api/v1/events", dto.WebhookEventRequest{
		Event:  "transaction.posted",
		BookID: "base-book",
		Data: dto.WebhookEventData{
			Transaction: &dto.TransactionPayload{ID: "txn-1", Date: "2023-03-01", Description: "Office supplies"},
		},
	})

	suite.Equal(http.StatusOK, recorder.Code)
	var response dto.DispatchResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Equal([]string{"line one"}, response.Results)
	suite.Empty(response.Errors)
	suite.mockDispatch.AssertExpectations(suite.T())
}

func (suite *EventHandlerTestSuite) TestHandleEvent_MissingFields() {
	recorder := suite.postJSON("/api/v1/events", map[string]string{"event": "transaction.posted"})

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.mockDispatch.AssertNotCalled(suite.T(), "DispatchEvent", mock.Anything, mock.Anything)
}

func (suite *EventHandlerTestSuite) TestHandleEvent_PartialFailureStillReturnsResults() {
	joined := errors.Join(fmt.Errorf("book eur-book: %w", apperrors.ErrRateNotFound))
	suite.mockDispatch.On("DispatchEvent", mock.Anything, mock.AnythingOfType("domain.Event")).
		Return([]string{"line one"}, joined).Once()

	recorder := suite.postJSON("/api/v1/events", dto.WebhookEventRequest{
		Event:  "transaction.posted",
		BookID: "base-book",
	})

	suite.Equal(http.StatusOK, recorder.Code)
	var response dto.DispatchResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Equal([]string{"line one"}, response.Results)
	suite.Require().Len(response.Errors, 1)
	suite.Contains(response.Errors[0], "eur-book")
}

func (suite *EventHandlerTestSuite) TestHandleEvent_PayloadWithoutObjectIsBadRequest() {
	suite.mockDispatch.On("DispatchEvent", mock.Anything, mock.AnythingOfType("domain.Event")).
		Return(nil, fmt.Errorf("%w: transaction.posted event carries no transaction", apperrors.ErrValidation)).Once()

	recorder := suite.postJSON("/api/v1/events", dto.WebhookEventRequest{
		Event:  "transaction.posted",
		BookID: "base-book",
	})

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.Contains(recorder.Body.String(), "carries no transaction")
}

func (suite *EventHandlerTestSuite) TestHandleEvent_BookNotFound() {
	suite.mockDispatch.On("DispatchEvent", mock.Anything, mock.AnythingOfType("domain.Event")).
		Return(nil, apperrors.ErrNotFound).Once()

	recorder := suite.postJSON("/api/v1/events", dto.WebhookEventRequest{
		Event:  "transaction.posted",
		BookID: "missing-book",
	})

	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *EventHandlerTestSuite) TestUpdateGainLoss_Success() {
	suite.mockReconcile.On("UpdateGainLoss", mock.Anything, "base-book", "2023-03-31").
		Return([]string{"adjustment line"}, nil).Once()

	recorder := suite.postJSON("/api/v1/books/base-book/gain-loss", dto.GainLossRequest{Date: "2023-03-31"})

	suite.Equal(http.StatusOK, recorder.Code)
	suite.mockReconcile.AssertExpectations(suite.T())
}

func (suite *EventHandlerTestSuite) TestUpdateGainLoss_MissingDate() {
	recorder := suite.postJSON("/api/v1/books/base-book/gain-loss", map[string]string{})

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.mockReconcile.AssertNotCalled(suite.T(), "UpdateGainLoss", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EventHandlerTestSuite) TestUpdateGainLoss_ConfigurationError() {
	suite.mockReconcile.On("UpdateGainLoss", mock.Anything, "base-book", "2023-03-31").
		Return(nil, fmt.Errorf("%w: book base-book has no exc_code property", apperrors.ErrConfiguration)).Once()

	recorder := suite.postJSON("/api/v1/books/base-book/gain-loss", dto.GainLossRequest{Date: "2023-03-31"})

	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *EventHandlerTestSuite) TestListActivity_Success() {
	records := []domain.SyncRecord{{
		SyncID:          "sync-1",
		BookID:          "base-book",
		ConnectedBookID: "eur-book",
		EventKind:       domain.EventTransactionPosted,
		Result:          "line one",
		CreatedAt:       time.Now().UTC(),
	}}
	suite.mockSyncLog.On("ListRecentActivity", mock.Anything, "base-book", 5).Return(records, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/base-book/activity?limit=5", nil)
	recorder := httptest.NewRecorder()
	suite.router.ServeHTTP(recorder, req)

	suite.Equal(http.StatusOK, recorder.Code)
	var response []dto.SyncRecordResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &response))
	suite.Require().Len(response, 1)
	suite.Equal("sync-1", response[0].SyncID)
	suite.Equal("eur-book", response[0].ConnectedBookID)
}

func (suite *EventHandlerTestSuite) TestListActivity_InvalidLimit() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/base-book/activity?limit=oops", nil)
	recorder := httptest.NewRecorder()
	suite.router.ServeHTTP(recorder, req)

	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *EventHandlerTestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	suite.router.ServeHTTP(recorder, req)

	suite.Equal(http.StatusOK, recorder.Code)
	suite.Equal("OK", recorder.Body.String())
}

func TestEventHandler(t *testing.T) {
	suite.Run(t, new(EventHandlerTestSuite))
}

// --- Webhook token middleware, wired through RegisterRoutes ---

func TestWebhookTokenRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	mockDispatch := new(MockDispatchService)
	handlers.RegisterRoutes(router, &config.Config{WebhookToken: "secret-token"}, &portssvc.ServiceContainer{
		Dispatch: mockDispatch,
	})

	body := []byte(`{"event":"transaction.posted","bookId":"base-book"}`)

	// No token: rejected before the handler runs.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}
	mockDispatch.AssertNotCalled(t, "DispatchEvent", mock.Anything, mock.Anything)

	// Correct token: passes through.
	mockDispatch.On("DispatchEvent", mock.Anything, mock.AnythingOfType("domain.Event")).Return([]string{}, nil).Once()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-webhook-token", "secret-token")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", recorder.Code)
	}
	mockDispatch.AssertExpectations(t)
}
