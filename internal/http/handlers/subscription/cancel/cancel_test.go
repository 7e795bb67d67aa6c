package cancel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CancelPending(ctx context.Context, req models.CancelPendingRequest) (*models.CancelPendingResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.CancelPendingResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	validBody := `{"landlord_id":12,"requestReferenceNumber":"SUB-12-abc"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "pending plan removed",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("CancelPending", mock.Anything, models.CancelPendingRequest{
					LandlordID:             12,
					RequestReferenceNumber: "SUB-12-abc",
				}).Return(&models.CancelPendingResult{
					Cancelled:     true,
					PendingPlan:   "Premium",
					HasActivePlan: true,
					ActivePlan:    "Standard",
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"cancelled":true,"pendingPlan":"Premium","hasActivePlan":true,"activePlan":"Standard"`,
		},
		{
			name: "already confirmed keeps active plan",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("CancelPending", mock.Anything, mock.Anything).Return(&models.CancelPendingResult{
					HasActivePlan: true,
					ActivePlan:    "Premium",
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"cancelled":false`,
		},
		{
			name:           "invalid json",
			body:           `[]`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "missing landlord",
			body:           `{"requestReferenceNumber":"SUB-12-abc"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field LandlordID is a required field",
		},
		{
			name: "unknown reference",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("CancelPending", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("subscription.CancelPending: %w", apperr.NotFound("subscription"))).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"requested record was not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions/cancel", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
