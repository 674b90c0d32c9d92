package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authmodels "zkid/internal/auth/models"
	"zkid/internal/platform/logger"
	"zkid/internal/polls/handler/mocks"
	"zkid/internal/polls/models"
	"zkid/internal/session"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/polls-mocks.go -package=mocks Service

const adminToken = "operator-secret"

type PollsHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	sess    *session.Session
}

func TestPollsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PollsHandlerSuite))
}

func (s *PollsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)

	userID := id.UserID(uuid.New())
	s.sess = &session.Session{
		UserID: userID,
		User:   &authmodels.User{ID: userID, HasCompletedKYC: true},
	}
	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s.sess)))
		})
	})
	New(s.service, adminToken, logger.Discard()).Register(s.router)
}

func (s *PollsHandlerSuite) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *PollsHandlerSuite) TestFetchPolls() {
	pollID := id.NewPollID()
	s.service.EXPECT().FetchPolls(gomock.Any(), s.sess.UserID).Return([]models.PollView{
		{ID: pollID, Title: "Budget", Status: models.StatusActive, TotalVotes: 3},
	}, nil)

	rec := s.do(http.MethodGet, "/api/polls", "")
	s.Equal(http.StatusOK, rec.Code)

	var resp pollsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Polls, 1)
	s.Equal(int64(3), resp.Polls[0].TotalVotes)
}

func (s *PollsHandlerSuite) TestKYCRequired() {
	s.sess.User.HasCompletedKYC = false
	rec := s.do(http.MethodGet, "/api/polls", "")
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "kyc_required")
}

func (s *PollsHandlerSuite) TestEligibility() {
	pollID := id.NewPollID()
	s.service.EXPECT().CheckEligibility(gomock.Any(), s.sess.UserID, pollID).Return(true, nil)

	rec := s.do(http.MethodGet, "/api/polls/"+pollID.String()+"/eligibility", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"eligible":true`)

	rec = s.do(http.MethodGet, "/api/polls/not-a-uuid/eligibility", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *PollsHandlerSuite) TestCastVote() {
	pollID := id.NewPollID()
	optionID := id.NewOptionID()
	s.service.EXPECT().CastVote(gomock.Any(), s.sess.UserID, pollID, optionID).Return(&models.Vote{
		ID: id.NewVoteID(), UserID: s.sess.UserID, PollID: pollID, OptionID: optionID, VotedAt: time.Now(),
	}, nil)

	rec := s.do(http.MethodPost, "/api/polls/"+pollID.String()+"/votes", `{"option_id":"`+optionID.String()+`"}`)
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), optionID.String())
}

func (s *PollsHandlerSuite) TestCastVoteErrors() {
	pollID := id.NewPollID()
	path := "/api/polls/" + pollID.String() + "/votes"

	s.Run("invalid option id", func() {
		rec := s.do(http.MethodPost, path, `{"option_id":"seven"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
	s.Run("not eligible", func() {
		optionID := id.NewOptionID()
		s.service.EXPECT().CastVote(gomock.Any(), s.sess.UserID, pollID, optionID).
			Return(nil, dErrors.New(dErrors.CodeNotEligible, "You are not eligible to vote on this poll"))
		rec := s.do(http.MethodPost, path, `{"option_id":"`+optionID.String()+`"}`)
		s.Equal(http.StatusForbidden, rec.Code)
		s.Contains(rec.Body.String(), "not_eligible")
	})
	s.Run("duplicate", func() {
		optionID := id.NewOptionID()
		s.service.EXPECT().CastVote(gomock.Any(), s.sess.UserID, pollID, optionID).
			Return(nil, dErrors.New(dErrors.CodeConflict, "You have already voted on this poll"))
		rec := s.do(http.MethodPost, path, `{"option_id":"`+optionID.String()+`"}`)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *PollsHandlerSuite) TestCreatePoll() {
	body := `{"title":"Budget","options":["Yes","No"]}`

	s.Run("missing admin token", func() {
		rec := s.do(http.MethodPost, "/api/admin/polls", body)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
	s.Run("validation", func() {
		rec := s.do(http.MethodPost, "/api/admin/polls", `{"title":"Budget","options":["Yes"]}`, "X-Admin-Token", adminToken)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
	s.Run("created", func() {
		pollID := id.NewPollID()
		s.service.EXPECT().CreatePoll(gomock.Any(), models.CreatePollRequest{Title: "Budget", Options: []string{"Yes", "No"}}).
			Return(&models.Poll{
				ID: pollID, Title: "Budget", Status: models.StatusActive, IsNational: true,
				Options: []models.Option{
					{ID: id.NewOptionID(), PollID: pollID, Text: "Yes"},
					{ID: id.NewOptionID(), PollID: pollID, Text: "No", Position: 1},
				},
			}, nil)
		rec := s.do(http.MethodPost, "/api/admin/polls", body, "X-Admin-Token", adminToken)
		s.Equal(http.StatusCreated, rec.Code)
		s.Contains(rec.Body.String(), pollID.String())
		s.Contains(rec.Body.String(), `"user_vote":""`)
	})
}
