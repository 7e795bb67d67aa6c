package proofupload

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Upload(ctx context.Context, req models.UploadProofRequest) (*models.UploadProofResult, error) {
	var content []byte
	if req.File != nil {
		content, _ = io.ReadAll(req.File)
	}
	args := m.Called(ctx, req.AgreementID, req.PaymentMethodID, req.Amount.String(), req.PaymentType, req.Filename, string(content))
	if res := args.Get(0); res != nil {
		return res.(*models.UploadProofResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func multipartBody(t *testing.T, fields map[string]string, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("proof", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProofUploadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	fields := map[string]string{
		"agreement_id":  "5",
		"paymentMethod": "2",
		"amountPaid":    "5000.00",
		"paymentType":   "security_deposit",
	}

	t.Run("with file", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Upload", mock.Anything, int64(5), 2, "5000", "security_deposit", "receipt.png", "png-bytes").
			Return(&models.UploadProofResult{PaymentID: 100, ReceiptReference: "PAY-x-SECURITY_DEPOSIT"}, nil).Once()

		body, ct := multipartBody(t, fields, "receipt.png", "png-bytes")
		req := httptest.NewRequest(http.MethodPost, "/payments/proof", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		New(logger, svc, 1<<20).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"receiptReference":"PAY-x-SECURITY_DEPOSIT"`)
		svc.AssertExpectations(t)
	})

	t.Run("missing file is left to service rules", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Upload", mock.Anything, int64(5), 2, "5000", "security_deposit", "", "").
			Return(nil, apperr.Validation("proof of payment is required for this method")).Once()

		body, ct := multipartBody(t, fields, "", "")
		req := httptest.NewRequest(http.MethodPost, "/payments/proof", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		New(logger, svc, 1<<20).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad amount", func(t *testing.T) {
		svc := new(MockService)
		bad := map[string]string{"agreement_id": "5", "paymentMethod": "1", "amountPaid": "lots", "paymentType": "billing"}

		body, ct := multipartBody(t, bad, "", "")
		req := httptest.NewRequest(http.MethodPost, "/payments/proof", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		New(logger, svc, 1<<20).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid amountPaid")
		svc.AssertNotCalled(t, "Upload")
	})

	t.Run("not multipart", func(t *testing.T) {
		svc := new(MockService)
		req := httptest.NewRequest(http.MethodPost, "/payments/proof", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		New(logger, svc, 1<<20).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
