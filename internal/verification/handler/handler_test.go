package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authmodels "zkid/internal/auth/models"
	"zkid/internal/ocr"
	"zkid/internal/platform/logger"
	"zkid/internal/session"
	"zkid/internal/verification/handler/mocks"
	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/verification-mocks.go -package=mocks Service

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

type KYCHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	sess    *session.Session
}

func TestKYCHandlerSuite(t *testing.T) {
	suite.Run(t, new(KYCHandlerSuite))
}

func (s *KYCHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)

	userID := id.UserID(uuid.New())
	s.sess = &session.Session{
		UserID: userID,
		Email:  "sita@example.np",
		User:   &authmodels.User{ID: userID, Email: "sita@example.np"},
	}

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s.sess)))
		})
	})
	New(s.service, 1<<20, logger.Discard()).Register(s.router)
}

func (s *KYCHandlerSuite) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *KYCHandlerSuite) postFile(filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(documentField, filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/kyc/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *KYCHandlerSuite) TestGetState() {
	s.service.EXPECT().State(gomock.Any(), s.sess).
		Return(&models.WorkflowState{UserID: s.sess.UserID, Stage: models.StageUpload}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/kyc", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	var st models.WorkflowState
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &st))
	s.Equal(models.StageUpload, st.Stage)
}

func (s *KYCHandlerSuite) TestUploadDataURL() {
	image := ocr.EncodeDataURL("image/jpeg", []byte("jpeg"))
	verified := &models.WorkflowState{
		Stage:    models.StageVerified,
		Verified: &ocr.Data{FullName: "Sita Sharma", DateOfBirth: "1990-01-02", Nationality: "Nepali"},
	}
	s.service.EXPECT().UploadDocument(gomock.Any(), s.sess, image).Return(verified, nil)

	rec := s.postJSON("/api/kyc/documents", `{"image":"`+image.String()+`"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"stage":"verified"`)
	s.Contains(rec.Body.String(), `"full_name":"Sita Sharma"`)
}

func (s *KYCHandlerSuite) TestUploadMultipart() {
	s.service.EXPECT().UploadDocument(gomock.Any(), s.sess, ocr.EncodeDataURL("image/png", pngBytes)).
		Return(&models.WorkflowState{Stage: models.StageVerified}, nil)

	rec := s.postFile("citizenship.png", pngBytes)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *KYCHandlerSuite) TestUploadValidation() {
	s.Run("missing image", func() {
		rec := s.postJSON("/api/kyc/documents", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
	s.Run("not an image", func() {
		rec := s.postJSON("/api/kyc/documents", `{"image":"data:application/pdf;base64,JVBERi0="}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "file must be an image")
	})
	s.Run("multipart text file", func() {
		rec := s.postFile("notes.txt", []byte("plain text"))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "file must be an image")
	})
	s.Run("multipart too large", func() {
		rec := s.postFile("big.png", append(pngBytes, make([]byte, 1<<20)...))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "too large")
	})
}

func (s *KYCHandlerSuite) TestUploadRejected() {
	image := ocr.EncodeDataURL("image/png", pngBytes)
	s.service.EXPECT().UploadDocument(gomock.Any(), s.sess, image).
		Return(nil, dErrors.New(dErrors.CodeDocumentRejected, "This is not a Nepali citizenship document"))

	rec := s.postJSON("/api/kyc/documents", `{"image":"`+image.String()+`"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "document_rejected")
	s.Contains(rec.Body.String(), "This is not a Nepali citizenship document")
}

func (s *KYCHandlerSuite) TestUploadOCRFailure() {
	image := ocr.EncodeDataURL("image/png", pngBytes)
	s.service.EXPECT().UploadDocument(gomock.Any(), s.sess, image).
		Return(nil, dErrors.New(dErrors.CodeBadGateway, "Failed to verify document. Please try again."))

	rec := s.postJSON("/api/kyc/documents", `{"image":"`+image.String()+`"}`)
	s.Equal(http.StatusBadGateway, rec.Code)
}

func (s *KYCHandlerSuite) TestSubmitProofNeedsWallet() {
	rec := s.postJSON("/api/kyc/proof", "")
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "wallet_required")
}

func (s *KYCHandlerSuite) TestSubmitProof() {
	s.sess.WalletAddress = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	s.service.EXPECT().SubmitProof(gomock.Any(), s.sess).Return(&models.ProofResult{
		ProofHash:  strings.Repeat("ab", 32),
		RedirectTo: "/dashboard",
	}, nil)

	rec := s.postJSON("/api/kyc/proof", "")
	s.Equal(http.StatusOK, rec.Code)

	var res models.ProofResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	s.Equal("/dashboard", res.RedirectTo)
}
