package usecase_test

import (
	"context"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/security"
	"go-placement-portal/pkg/storage"

	"github.com/stretchr/testify/mock"
)

// Mock Repositories

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	return m.Called(ctx, acc).Error(0)
}
func (m *MockAccountRepo) CreateStudent(ctx context.Context, acc *domain.Account, profile *domain.StudentProfile) error {
	return m.Called(ctx, acc, profile).Error(0)
}
func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) MarkEmailVerified(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockAccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}
func (m *MockAccountRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	return m.Called(ctx, id, approved).Error(0)
}
func (m *MockAccountRepo) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}
func (m *MockAccountRepo) SetTOTP(ctx context.Context, id, secret string, enabled bool) error {
	return m.Called(ctx, id, secret, enabled).Error(0)
}
func (m *MockAccountRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *MockAccountRepo) List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Account), args.Get(1).(int64), args.Error(2)
}

type MockAuthTokenRepo struct {
	mock.Mock
}

func (m *MockAuthTokenRepo) Create(ctx context.Context, t *domain.AuthToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *MockAuthTokenRepo) Get(ctx context.Context, tokenHash, purpose string) (*domain.AuthToken, error) {
	args := m.Called(ctx, tokenHash, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthToken), args.Error(1)
}
func (m *MockAuthTokenRepo) MarkUsed(ctx context.Context, tokenHash string, at time.Time) error {
	return m.Called(ctx, tokenHash, at).Error(0)
}

type MockStudentRepo struct {
	mock.Mock
}

func (m *MockStudentRepo) GetProfile(ctx context.Context, accountID string) (*domain.StudentProfile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentProfile), args.Error(1)
}
func (m *MockStudentRepo) UpsertProfile(ctx context.Context, p *domain.StudentProfile) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockStudentRepo) UpdateContact(ctx context.Context, accountID, fullName, phone string) error {
	return m.Called(ctx, accountID, fullName, phone).Error(0)
}
func (m *MockStudentRepo) UpdateResume(ctx context.Context, accountID, url, publicID string) error {
	return m.Called(ctx, accountID, url, publicID).Error(0)
}
func (m *MockStudentRepo) ListForExport(ctx context.Context) ([]domain.StudentExportRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StudentExportRow), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}
func (m *MockJobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}
func (m *MockJobRepo) Update(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}
func (m *MockJobRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *MockJobRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockJobRepo) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Job), args.Get(1).(int64), args.Error(2)
}
func (m *MockJobRepo) IncrementApplicants(ctx context.Context, id int64, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}
func (m *MockJobRepo) IncrementInterviews(ctx context.Context, id int64, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

type MockApplicationRepo struct {
	mock.Mock
}

func (m *MockApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	return m.Called(ctx, app).Error(0)
}
func (m *MockApplicationRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}
func (m *MockApplicationRepo) ListByJob(ctx context.Context, jobID int64, status string) ([]domain.Application, error) {
	args := m.Called(ctx, jobID, status)
	return args.Get(0).([]domain.Application), args.Error(1)
}
func (m *MockApplicationRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Application, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]domain.Application), args.Error(1)
}
func (m *MockApplicationRepo) AppendStatus(ctx context.Context, id int64, change domain.StatusChange) error {
	return m.Called(ctx, id, change).Error(0)
}

type MockJobInvitationRepo struct {
	mock.Mock
}

func (m *MockJobInvitationRepo) CreateBatch(ctx context.Context, invitations []*domain.JobInvitation) error {
	return m.Called(ctx, invitations).Error(0)
}
func (m *MockJobInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.JobInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobInvitation), args.Error(1)
}
func (m *MockJobInvitationRepo) MarkExpired(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockJobInvitationRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockJobInvitationRepo) AcceptAndApply(ctx context.Context, p domain.AcceptInvitationParams) error {
	return m.Called(ctx, p).Error(0)
}

type MockInterviewRepo struct {
	mock.Mock
}

func (m *MockInterviewRepo) Create(ctx context.Context, iv *domain.Interview) error {
	return m.Called(ctx, iv).Error(0)
}
func (m *MockInterviewRepo) GetByID(ctx context.Context, id int64) (*domain.Interview, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Interview), args.Error(1)
}
func (m *MockInterviewRepo) Update(ctx context.Context, iv *domain.Interview) error {
	return m.Called(ctx, iv).Error(0)
}
func (m *MockInterviewRepo) ListByJob(ctx context.Context, jobID int64) ([]domain.Interview, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]domain.Interview), args.Error(1)
}
func (m *MockInterviewRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Interview, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]domain.Interview), args.Error(1)
}
func (m *MockInterviewRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]domain.Interview, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Interview), args.Error(1)
}
func (m *MockInterviewRepo) MarkReminderSent(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockAssessmentTestRepo struct {
	mock.Mock
}

func (m *MockAssessmentTestRepo) Create(ctx context.Context, t *domain.AssessmentTest) error {
	return m.Called(ctx, t).Error(0)
}
func (m *MockAssessmentTestRepo) GetByID(ctx context.Context, id int64) (*domain.AssessmentTest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentTest), args.Error(1)
}
func (m *MockAssessmentTestRepo) Update(ctx context.Context, t *domain.AssessmentTest) error {
	return m.Called(ctx, t).Error(0)
}
func (m *MockAssessmentTestRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockAssessmentTestRepo) List(ctx context.Context, organization string) ([]domain.AssessmentTest, error) {
	args := m.Called(ctx, organization)
	return args.Get(0).([]domain.AssessmentTest), args.Error(1)
}
func (m *MockAssessmentTestRepo) MarkResultsDeclared(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockAssessmentInvitationRepo struct {
	mock.Mock
}

func (m *MockAssessmentInvitationRepo) CreateBatch(ctx context.Context, invitations []*domain.AssessmentInvitation) error {
	return m.Called(ctx, invitations).Error(0)
}
func (m *MockAssessmentInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.AssessmentInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentInvitation), args.Error(1)
}
func (m *MockAssessmentInvitationRepo) ListByTest(ctx context.Context, testID int64) ([]domain.AssessmentInvitation, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).([]domain.AssessmentInvitation), args.Error(1)
}
func (m *MockAssessmentInvitationRepo) OpenEmails(ctx context.Context, testID int64) (map[string]bool, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).(map[string]bool), args.Error(1)
}
func (m *MockAssessmentInvitationRepo) MarkStarted(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *MockAssessmentInvitationRepo) MarkExpired(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockAssessmentInvitationRepo) IncrementTabSwitch(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}
func (m *MockAssessmentInvitationRepo) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *MockAssessmentInvitationRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockVerificationRepo struct {
	mock.Mock
}

func (m *MockVerificationRepo) Upsert(ctx context.Context, v *domain.AssessmentVerification) (*domain.AssessmentVerification, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentVerification), args.Error(1)
}
func (m *MockVerificationRepo) GetByInvitation(ctx context.Context, invitationID int64) (*domain.AssessmentVerification, error) {
	args := m.Called(ctx, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentVerification), args.Error(1)
}
func (m *MockVerificationRepo) ListByTest(ctx context.Context, testID int64) ([]domain.AssessmentVerification, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).([]domain.AssessmentVerification), args.Error(1)
}

type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) Create(ctx context.Context, r *domain.AssessmentResult) error {
	return m.Called(ctx, r).Error(0)
}
func (m *MockResultRepo) ListByTest(ctx context.Context, testID int64, filter domain.ResultFilter) ([]domain.AssessmentResult, error) {
	args := m.Called(ctx, testID, filter)
	return args.Get(0).([]domain.AssessmentResult), args.Error(1)
}
func (m *MockResultRepo) DeclarePending(ctx context.Context, testID int64, at time.Time) ([]domain.AssessmentResult, error) {
	args := m.Called(ctx, testID, at)
	return args.Get(0).([]domain.AssessmentResult), args.Error(1)
}

type MockAdminRepo struct {
	mock.Mock
}

func (m *MockAdminRepo) AccountStats(ctx context.Context) (*domain.AccountStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountStats), args.Error(1)
}
func (m *MockAdminRepo) JobStats(ctx context.Context) (*domain.JobStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobStats), args.Error(1)
}
func (m *MockAdminRepo) ApplicationsByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}
func (m *MockAdminRepo) UpcomingInterviews(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAdminRepo) AssessmentTestCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAdminRepo) InvitationsByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

type MockAuditLog struct {
	mock.Mock
}

func (m *MockAuditLog) List(ctx context.Context, filter security.EventFilter) ([]security.SecurityEvent, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]security.SecurityEvent), args.Error(1)
}

// Mock ports

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, data []byte, folder, filename, contentType string) (*storage.UploadResult, error) {
	args := m.Called(ctx, data, folder, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}
func (m *MockStorage) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}
