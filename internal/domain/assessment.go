package domain

import (
	"context"
	"math"
	"time"
)

// SubmissionGrace is added to the test duration before a started attempt is considered abandoned.
const SubmissionGrace = 2 * time.Minute

type Question struct {
	ID            string   `json:"id" validate:"required,max=64"`
	Text          string   `json:"text" validate:"required,max=5000"`
	Options       []string `json:"options" validate:"required,min=2,max=10,dive,required,max=1000"`
	CorrectOption int      `json:"correct_option" validate:"gte=0"`
	Marks         float64  `json:"marks" validate:"gt=0,lte=100"`
}

// PublicQuestion is what candidates see: no correct option.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Marks   float64  `json:"marks"`
}

type AssessmentTest struct {
	ID              int64      `json:"id"`
	Organization    string     `json:"organization"`
	CreatedBy       string     `json:"created_by"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	PassPercentage  float64    `json:"pass_percentage"`
	MaxTabSwitches  int        `json:"max_tab_switches"`
	Questions       []Question `json:"questions"`
	ResultsDeclared bool       `json:"results_declared"`
	DeclaredAt      *time.Time `json:"declared_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (t *AssessmentTest) TotalMarks() float64 {
	var total float64
	for _, q := range t.Questions {
		total += q.Marks
	}
	return total
}

func (t *AssessmentTest) PublicQuestions() []PublicQuestion {
	out := make([]PublicQuestion, len(t.Questions))
	for i, q := range t.Questions {
		out[i] = PublicQuestion{ID: q.ID, Text: q.Text, Options: q.Options, Marks: q.Marks}
	}
	return out
}

// Score grades answers (question id -> chosen option index). Unknown
// question ids and out-of-range options earn nothing.
func (t *AssessmentTest) Score(answers map[string]int) (score, total, percentage float64, passed bool) {
	for _, q := range t.Questions {
		total += q.Marks
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectOption {
			score += q.Marks
		}
	}
	if total > 0 {
		percentage = math.Round(score/total*10000) / 100
	}
	passed = percentage >= t.PassPercentage
	return score, total, percentage, passed
}

// AttemptDeadline is when a started attempt stops accepting submissions.
func (t *AssessmentTest) AttemptDeadline(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(t.DurationMinutes)*time.Minute + SubmissionGrace)
}

type AssessmentTestInput struct {
	Title           string     `json:"title" validate:"required,min=3,max=150,no_emoji"`
	Description     string     `json:"description" validate:"max=5000"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1,max=600"`
	PassPercentage  float64    `json:"pass_percentage" validate:"gte=0,lte=100"`
	MaxTabSwitches  int        `json:"max_tab_switches" validate:"gte=0,lte=50"`
	Questions       []Question `json:"questions" validate:"required,min=1,max=500,dive"`
	Organization    string     `json:"organization" validate:"max=150"`
}

type AssessmentInvitation struct {
	ID             int64      `json:"id"`
	TestID         int64      `json:"test_id"`
	Email          string     `json:"email"`
	CandidateName  string     `json:"candidate_name"`
	Token          string     `json:"-"`
	Status         string     `json:"status"`
	ExpiresAt      time.Time  `json:"expires_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TabSwitchCount int        `json:"tab_switch_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EffectiveStatus reports Expired for a pending invitation past its expiry.
// Started attempts run to their own deadline.
func (i *AssessmentInvitation) EffectiveStatus(now time.Time) string {
	if i.Status == InvitationStatusPending && !now.Before(i.ExpiresAt) {
		return InvitationStatusExpired
	}
	return i.Status
}

type CandidateInput struct {
	Name  string `json:"name" validate:"max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

type InviteCandidatesRequest struct {
	Candidates     []CandidateInput `json:"candidates" validate:"required,min=1,max=500,dive"`
	ExpiresInHours int              `json:"expires_in_hours" validate:"omitempty,min=1,max=720"`
}

type InviteSummary struct {
	Created []AssessmentInvitation `json:"created"`
	Skipped []string               `json:"skipped"`
	Invalid []string               `json:"invalid,omitempty"`
}

// TestSummary is the candidate-facing description of a test.
type TestSummary struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Organization    string  `json:"organization"`
	DurationMinutes int     `json:"duration_minutes"`
	QuestionCount   int     `json:"question_count"`
	TotalMarks      float64 `json:"total_marks"`
	MaxTabSwitches  int     `json:"max_tab_switches"`
}

type InvitationView struct {
	Status        string      `json:"status"`
	CandidateName string      `json:"candidate_name"`
	Email         string      `json:"email"`
	ExpiresAt     time.Time   `json:"expires_at"`
	Verified      bool        `json:"verified"`
	Test          TestSummary `json:"test"`
}

type AttemptView struct {
	Questions        []PublicQuestion `json:"questions"`
	StartedAt        time.Time        `json:"started_at"`
	RemainingSeconds int              `json:"remaining_seconds"`
	MaxTabSwitches   int              `json:"max_tab_switches"`
	TabSwitchCount   int              `json:"tab_switch_count"`
}

type TabSwitchResult struct {
	TabSwitchCount int  `json:"tab_switch_count"`
	MaxTabSwitches int  `json:"max_tab_switches"`
	Terminate      bool `json:"terminate"`
}

type SubmitAnswersRequest struct {
	Answers       map[string]int `json:"answers"`
	AutoSubmitted bool           `json:"auto_submitted"`
}

type SubmissionReceipt struct {
	Submitted     bool      `json:"submitted"`
	AutoSubmitted bool      `json:"auto_submitted"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type AssessmentVerification struct {
	ID             int64     `json:"id"`
	InvitationID   int64     `json:"invitation_id"`
	TestID         int64     `json:"test_id"`
	FaceImageURL   string    `json:"face_image_url"`
	FacePublicID   string    `json:"-"`
	IDCardImageURL string    `json:"id_card_image_url"`
	IDCardPublicID string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`

	Email         string `json:"email,omitempty"`
	CandidateName string `json:"candidate_name,omitempty"`
}

type AssessmentResult struct {
	ID               int64          `json:"id"`
	TestID           int64          `json:"test_id"`
	InvitationID     int64          `json:"invitation_id"`
	Email            string         `json:"email"`
	CandidateName    string         `json:"candidate_name"`
	Answers          map[string]int `json:"answers"`
	Score            float64        `json:"score"`
	TotalMarks       float64        `json:"total_marks"`
	Percentage       float64        `json:"percentage"`
	Passed           bool           `json:"passed"`
	TabSwitches      int            `json:"tab_switches"`
	AutoSubmitted    bool           `json:"auto_submitted"`
	TimeTakenSeconds int            `json:"time_taken_seconds"`
	ResultDeclared   bool           `json:"result_declared"`
	DeclaredAt       *time.Time     `json:"declared_at,omitempty"`
	SubmittedAt      time.Time      `json:"submitted_at"`
}

type ResultFilter struct {
	Passed   *bool
	MinScore *float64
}

type DeclareOutcome struct {
	Declared int    `json:"declared"`
	Notified int    `json:"notified"`
	Message  string `json:"message"`
}

type AssessmentTestRepository interface {
	Create(ctx context.Context, t *AssessmentTest) error
	GetByID(ctx context.Context, id int64) (*AssessmentTest, error)
	Update(ctx context.Context, t *AssessmentTest) error
	Delete(ctx context.Context, id int64) error
	// List returns every test when organization is empty.
	List(ctx context.Context, organization string) ([]AssessmentTest, error)
	MarkResultsDeclared(ctx context.Context, id int64, at time.Time) error
}

type AssessmentInvitationRepository interface {
	CreateBatch(ctx context.Context, invitations []*AssessmentInvitation) error
	GetByToken(ctx context.Context, token string) (*AssessmentInvitation, error)
	ListByTest(ctx context.Context, testID int64) ([]AssessmentInvitation, error)
	// OpenEmails returns lower-cased emails with a Pending or Started invitation for the test.
	OpenEmails(ctx context.Context, testID int64) (map[string]bool, error)
	// MarkStarted moves Pending to Started; ErrStateChanged otherwise.
	MarkStarted(ctx context.Context, id int64, at time.Time) error
	MarkExpired(ctx context.Context, id int64) error
	// IncrementTabSwitch bumps the counter of a Started invitation and returns the new value.
	IncrementTabSwitch(ctx context.Context, id int64) (int, error)
	// MarkCompleted guards on status <> 'Completed'.
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type AssessmentVerificationRepository interface {
	// Upsert replaces an earlier verification for the same invitation.
	Upsert(ctx context.Context, v *AssessmentVerification) (previous *AssessmentVerification, err error)
	GetByInvitation(ctx context.Context, invitationID int64) (*AssessmentVerification, error)
	ListByTest(ctx context.Context, testID int64) ([]AssessmentVerification, error)
}

type AssessmentResultRepository interface {
	// Create fails with ErrConflict when the invitation already has a result.
	Create(ctx context.Context, r *AssessmentResult) error
	ListByTest(ctx context.Context, testID int64, filter ResultFilter) ([]AssessmentResult, error)
	// DeclarePending flips result_declared on undeclared rows and returns exactly those rows.
	DeclarePending(ctx context.Context, testID int64, at time.Time) ([]AssessmentResult, error)
}

type AssessmentUsecase interface {
	CreateTest(ctx context.Context, actor Actor, input AssessmentTestInput) (*AssessmentTest, error)
	GetTest(ctx context.Context, actor Actor, id int64) (*AssessmentTest, error)
	ListTests(ctx context.Context, actor Actor) ([]AssessmentTest, error)
	UpdateTest(ctx context.Context, actor Actor, id int64, input AssessmentTestInput) (*AssessmentTest, error)
	DeleteTest(ctx context.Context, actor Actor, id int64) error

	InviteCandidates(ctx context.Context, actor Actor, testID int64, req InviteCandidatesRequest) (*InviteSummary, error)
	ImportInvitations(ctx context.Context, actor Actor, testID int64, file UploadedFile, expiresInHours int) (*InviteSummary, error)
	ListInvitations(ctx context.Context, actor Actor, testID int64) ([]AssessmentInvitation, error)

	ValidateInvitation(ctx context.Context, token string) (*InvitationView, error)
	UploadVerification(ctx context.Context, token string, face, idCard UploadedFile) (*AssessmentVerification, error)
	StartAttempt(ctx context.Context, token string) (*AttemptView, error)
	RecordTabSwitch(ctx context.Context, token string) (*TabSwitchResult, error)
	Submit(ctx context.Context, token string, req SubmitAnswersRequest) (*SubmissionReceipt, error)

	ListResults(ctx context.Context, actor Actor, testID int64, filter ResultFilter) ([]AssessmentResult, error)
	ExportResults(ctx context.Context, actor Actor, testID int64, filter ResultFilter) ([]byte, string, error)
	DeclareResults(ctx context.Context, actor Actor, testID int64) (*DeclareOutcome, error)
	ListVerifications(ctx context.Context, actor Actor, testID int64) ([]AssessmentVerification, error)

	ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error)
}
