package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/excel"
	"go-placement-portal/pkg/imaging"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/metrics"
	"go-placement-portal/pkg/security"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// declareFanOut bounds concurrent result emails.
const declareFanOut = 5

type assessmentUsecase struct {
	testRepo         domain.AssessmentTestRepository
	invitationRepo   domain.AssessmentInvitationRepository
	verificationRepo domain.AssessmentVerificationRepository
	resultRepo       domain.AssessmentResultRepository
	storage          domain.FileStorage
	notifier         notifier
	baseURL          string
	invitationTTL    time.Duration
	validate         *validator.Validate
}

func NewAssessmentUsecase(
	testRepo domain.AssessmentTestRepository,
	invitationRepo domain.AssessmentInvitationRepository,
	verificationRepo domain.AssessmentVerificationRepository,
	resultRepo domain.AssessmentResultRepository,
	storage domain.FileStorage,
	mailer domain.Mailer,
	baseURL string,
	invitationTTL time.Duration,
	validate *validator.Validate,
) domain.AssessmentUsecase {
	if invitationTTL <= 0 {
		invitationTTL = 72 * time.Hour
	}
	return &assessmentUsecase{
		testRepo:         testRepo,
		invitationRepo:   invitationRepo,
		verificationRepo: verificationRepo,
		resultRepo:       resultRepo,
		storage:          storage,
		notifier:         notifier{mailer: mailer},
		baseURL:          baseURL,
		invitationTTL:    invitationTTL,
		validate:         validate,
	}
}

// --- Test management ---

func checkQuestions(questions []domain.Question) error {
	ids := make(map[string]bool, len(questions))
	for i, q := range questions {
		if ids[q.ID] {
			return apperror.BadRequest(fmt.Sprintf("Question %d has a duplicate id %q", i+1, q.ID))
		}
		ids[q.ID] = true
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return apperror.BadRequest(fmt.Sprintf("Question %d has no option at index %d", i+1, q.CorrectOption))
		}
	}
	return nil
}

func applyTestInput(t *domain.AssessmentTest, input domain.AssessmentTestInput, now time.Time) {
	t.Title = strings.TrimSpace(input.Title)
	t.Description = input.Description
	t.DurationMinutes = input.DurationMinutes
	t.PassPercentage = input.PassPercentage
	t.MaxTabSwitches = input.MaxTabSwitches
	t.Questions = input.Questions
	t.UpdatedAt = now
}

func (uc *assessmentUsecase) CreateTest(ctx context.Context, actor domain.Actor, input domain.AssessmentTestInput) (*domain.AssessmentTest, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if err := checkQuestions(input.Questions); err != nil {
		return nil, err
	}
	org, err := organizationFor(actor, input.Organization)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	test := &domain.AssessmentTest{Organization: org, CreatedBy: actor.UserID, CreatedAt: now}
	applyTestInput(test, input, now)

	if err := uc.testRepo.Create(ctx, test); err != nil {
		return nil, apperror.Internal(err)
	}
	return test, nil
}

func (uc *assessmentUsecase) loadManagedTest(ctx context.Context, actor domain.Actor, id int64) (*domain.AssessmentTest, error) {
	test, err := uc.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Assessment not found")
	}
	if !actor.CanManage(test.Organization) {
		return nil, apperror.Forbidden("You can only manage assessments of your own organization")
	}
	return test, nil
}

func (uc *assessmentUsecase) GetTest(ctx context.Context, actor domain.Actor, id int64) (*domain.AssessmentTest, error) {
	return uc.loadManagedTest(ctx, actor, id)
}

func (uc *assessmentUsecase) ListTests(ctx context.Context, actor domain.Actor) ([]domain.AssessmentTest, error) {
	org := ""
	if !actor.IsAdmin() {
		if actor.Organization == "" {
			return nil, apperror.Forbidden("Only employees of an organization can do this")
		}
		org = actor.Organization
	}
	tests, err := uc.testRepo.List(ctx, org)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if tests == nil {
		tests = []domain.AssessmentTest{}
	}
	return tests, nil
}

func (uc *assessmentUsecase) UpdateTest(ctx context.Context, actor domain.Actor, id int64, input domain.AssessmentTestInput) (*domain.AssessmentTest, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if err := checkQuestions(input.Questions); err != nil {
		return nil, err
	}
	test, err := uc.loadManagedTest(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if test.ResultsDeclared {
		return nil, apperror.BadRequest("Results for this assessment are already declared")
	}

	applyTestInput(test, input, time.Now().UTC())
	if err := uc.testRepo.Update(ctx, test); err != nil {
		return nil, repoError(err, "Assessment not found")
	}
	return test, nil
}

func (uc *assessmentUsecase) DeleteTest(ctx context.Context, actor domain.Actor, id int64) error {
	if _, err := uc.loadManagedTest(ctx, actor, id); err != nil {
		return err
	}
	if err := uc.testRepo.Delete(ctx, id); err != nil {
		return repoError(err, "Assessment not found")
	}
	return nil
}

// --- Invitations ---

func (uc *assessmentUsecase) InviteCandidates(ctx context.Context, actor domain.Actor, testID int64, req domain.InviteCandidatesRequest) (*domain.InviteSummary, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	test, err := uc.loadManagedTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}
	return uc.createInvitations(ctx, test, req.Candidates, req.ExpiresInHours)
}

func (uc *assessmentUsecase) ImportInvitations(ctx context.Context, actor domain.Actor, testID int64, file domain.UploadedFile, expiresInHours int) (*domain.InviteSummary, error) {
	test, err := uc.loadManagedTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}
	check := security.ValidateFile(file.Filename, file.Data, security.KindSpreadsheet)
	if !check.Valid {
		return nil, apperror.BadRequest("Invalid spreadsheet: " + check.Error)
	}

	records, err := excel.ReadRecords(file.Data)
	if err != nil {
		return nil, apperror.BadRequest("Could not read the spreadsheet")
	}
	if len(records) == 0 {
		return nil, apperror.BadRequest("The spreadsheet has no candidates")
	}
	if _, ok := records[0]["email"]; !ok {
		return nil, apperror.BadRequest("The spreadsheet must have an Email column")
	}

	candidates := make([]domain.CandidateInput, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, domain.CandidateInput{Name: r["name"], Email: r["email"]})
	}
	return uc.createInvitations(ctx, test, candidates, expiresInHours)
}

// createInvitations skips addresses that already hold an open invitation
// for the test, and reports malformed addresses as invalid.
func (uc *assessmentUsecase) createInvitations(ctx context.Context, test *domain.AssessmentTest, candidates []domain.CandidateInput, expiresInHours int) (*domain.InviteSummary, error) {
	open, err := uc.invitationRepo.OpenEmails(ctx, test.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	ttl := uc.invitationTTL
	if expiresInHours > 0 {
		ttl = time.Duration(expiresInHours) * time.Hour
	}
	now := time.Now().UTC()

	summary := &domain.InviteSummary{Created: []domain.AssessmentInvitation{}, Skipped: []string{}}
	var invitations []*domain.AssessmentInvitation
	for _, c := range candidates {
		addr := normalizeEmail(c.Email)
		if addr == "" {
			continue
		}
		if err := uc.validate.Var(addr, "email"); err != nil {
			summary.Invalid = append(summary.Invalid, addr)
			continue
		}
		if open[addr] {
			summary.Skipped = append(summary.Skipped, addr)
			continue
		}
		open[addr] = true
		invitations = append(invitations, &domain.AssessmentInvitation{
			TestID:        test.ID,
			Email:         addr,
			CandidateName: strings.TrimSpace(c.Name),
			Token:         auth.NewOpaqueToken(),
			Status:        domain.InvitationStatusPending,
			ExpiresAt:     now.Add(ttl),
			CreatedAt:     now,
		})
	}

	if len(invitations) == 0 {
		return summary, nil
	}
	if err := uc.invitationRepo.CreateBatch(ctx, invitations); err != nil {
		return nil, apperror.Internal(err)
	}

	for _, inv := range invitations {
		uc.notifier.notify(ctx, inv.Email, "Assessment invitation: "+test.Title, email.TemplateAssessmentInvitation, map[string]any{
			"Name":         displayName(inv.CandidateName),
			"Organization": test.Organization,
			"TestTitle":    test.Title,
			"Duration":     test.DurationMinutes,
			"Link":         uc.baseURL + "/assessment/" + inv.Token,
			"ExpiresAt":    formatTime(inv.ExpiresAt),
		})
		summary.Created = append(summary.Created, *inv)
	}
	return summary, nil
}

func displayName(name string) string {
	if name == "" {
		return "Candidate"
	}
	return name
}

func (uc *assessmentUsecase) ListInvitations(ctx context.Context, actor domain.Actor, testID int64) ([]domain.AssessmentInvitation, error) {
	if _, err := uc.loadManagedTest(ctx, actor, testID); err != nil {
		return nil, err
	}
	invitations, err := uc.invitationRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	now := time.Now().UTC()
	for i := range invitations {
		invitations[i].Status = invitations[i].EffectiveStatus(now)
	}
	if invitations == nil {
		invitations = []domain.AssessmentInvitation{}
	}
	return invitations, nil
}

// --- Candidate flow ---

type attempt struct {
	invitation *domain.AssessmentInvitation
	test       *domain.AssessmentTest
	status     string
}

// loadAttempt resolves the token and evaluates expiry against now. A lapsed
// pending invitation or an abandoned attempt is persisted as Expired.
func (uc *assessmentUsecase) loadAttempt(ctx context.Context, token string, now time.Time) (*attempt, error) {
	inv, err := uc.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, repoError(err, "Invitation not found")
	}
	test, err := uc.testRepo.GetByID(ctx, inv.TestID)
	if err != nil {
		return nil, repoError(err, "Assessment not found")
	}

	status := inv.EffectiveStatus(now)
	if inv.Status == domain.InvitationStatusStarted && inv.StartedAt != nil && !now.Before(test.AttemptDeadline(*inv.StartedAt)) {
		status = domain.InvitationStatusExpired
	}
	if status == domain.InvitationStatusExpired && inv.Status != domain.InvitationStatusExpired {
		if err := uc.invitationRepo.MarkExpired(ctx, inv.ID); err != nil {
			logger.Log.Warn("Failed to persist invitation expiry", "invitation_id", inv.ID, "error", err)
		}
		inv.Status = status
	}
	return &attempt{invitation: inv, test: test, status: status}, nil
}

func (uc *assessmentUsecase) ValidateInvitation(ctx context.Context, token string) (*domain.InvitationView, error) {
	a, err := uc.loadAttempt(ctx, token, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	verified := false
	if _, err := uc.verificationRepo.GetByInvitation(ctx, a.invitation.ID); err == nil {
		verified = true
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	return &domain.InvitationView{
		Status:        a.status,
		CandidateName: a.invitation.CandidateName,
		Email:         a.invitation.Email,
		ExpiresAt:     a.invitation.ExpiresAt,
		Verified:      verified,
		Test: domain.TestSummary{
			ID:              a.test.ID,
			Title:           a.test.Title,
			Description:     a.test.Description,
			Organization:    a.test.Organization,
			DurationMinutes: a.test.DurationMinutes,
			QuestionCount:   len(a.test.Questions),
			TotalMarks:      a.test.TotalMarks(),
			MaxTabSwitches:  a.test.MaxTabSwitches,
		},
	}, nil
}

func statusError(status string) error {
	switch status {
	case domain.InvitationStatusExpired:
		return apperror.Gone("This invitation has expired")
	case domain.InvitationStatusCompleted:
		return apperror.Conflict("This assessment has already been submitted")
	case domain.InvitationStatusStarted:
		return apperror.BadRequest("This assessment is already in progress")
	default:
		return apperror.BadRequest("This assessment has not been started")
	}
}

func (uc *assessmentUsecase) prepareImage(label string, file domain.UploadedFile) ([]byte, error) {
	check := security.ValidateFile(file.Filename, file.Data, security.KindImage)
	if !check.Valid {
		return nil, apperror.BadRequest(fmt.Sprintf("Invalid %s: %s", label, check.Error))
	}
	data, err := imaging.Compress(file.Data, imaging.DefaultMaxDimension, imaging.DefaultQuality)
	if err != nil {
		return nil, apperror.BadRequest(fmt.Sprintf("Could not process %s", label))
	}
	return data, nil
}

func (uc *assessmentUsecase) UploadVerification(ctx context.Context, token string, face, idCard domain.UploadedFile) (*domain.AssessmentVerification, error) {
	now := time.Now().UTC()
	a, err := uc.loadAttempt(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if a.status != domain.InvitationStatusPending {
		return nil, statusError(a.status)
	}

	faceData, err := uc.prepareImage("face image", face)
	if err != nil {
		return nil, err
	}
	idData, err := uc.prepareImage("ID card image", idCard)
	if err != nil {
		return nil, err
	}

	folder := fmt.Sprintf("assessments/%d/verification", a.test.ID)
	faceObj, err := uc.storage.Upload(ctx, faceData, folder, "face.jpg", "image/jpeg")
	if err != nil {
		return nil, apperror.ServiceUnavailable("Could not store the file. Please try again later.", err)
	}
	idObj, err := uc.storage.Upload(ctx, idData, folder, "id-card.jpg", "image/jpeg")
	if err != nil {
		uc.deleteObject(ctx, faceObj.PublicID)
		return nil, apperror.ServiceUnavailable("Could not store the file. Please try again later.", err)
	}

	v := &domain.AssessmentVerification{
		InvitationID:   a.invitation.ID,
		TestID:         a.test.ID,
		FaceImageURL:   faceObj.URL,
		FacePublicID:   faceObj.PublicID,
		IDCardImageURL: idObj.URL,
		IDCardPublicID: idObj.PublicID,
		CreatedAt:      now,
		Email:          a.invitation.Email,
		CandidateName:  a.invitation.CandidateName,
	}
	previous, err := uc.verificationRepo.Upsert(ctx, v)
	if err != nil {
		uc.deleteObject(ctx, faceObj.PublicID)
		uc.deleteObject(ctx, idObj.PublicID)
		return nil, apperror.Internal(err)
	}
	if previous != nil {
		uc.deleteObject(ctx, previous.FacePublicID)
		uc.deleteObject(ctx, previous.IDCardPublicID)
	}

	security.DefaultLogger().LogProctoring(ctx, security.EventVerificationUploaded, a.invitation.ID, a.invitation.Email, nil)
	return v, nil
}

func (uc *assessmentUsecase) deleteObject(ctx context.Context, publicID string) {
	if err := uc.storage.Delete(ctx, publicID); err != nil {
		logger.Log.Warn("Failed to delete stored object", "public_id", publicID, "error", err)
	}
}

func (uc *assessmentUsecase) StartAttempt(ctx context.Context, token string) (*domain.AttemptView, error) {
	now := time.Now().UTC()
	a, err := uc.loadAttempt(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if a.status != domain.InvitationStatusPending && a.status != domain.InvitationStatusStarted {
		return nil, statusError(a.status)
	}

	if _, err := uc.verificationRepo.GetByInvitation(ctx, a.invitation.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.BadRequest("Upload your photo and ID card before starting")
		}
		return nil, apperror.Internal(err)
	}

	startedAt := now
	if a.status == domain.InvitationStatusPending {
		err := uc.invitationRepo.MarkStarted(ctx, a.invitation.ID, now)
		switch {
		case err == nil:
			metrics.RecordEvent(metrics.EventAssessmentStarted, 1)
		case errors.Is(err, domain.ErrStateChanged):
			// A concurrent start won; resume from its timestamp.
			inv, err := uc.invitationRepo.GetByToken(ctx, token)
			if err != nil {
				return nil, apperror.Internal(err)
			}
			if inv.Status != domain.InvitationStatusStarted || inv.StartedAt == nil {
				return nil, statusError(inv.Status)
			}
			a.invitation = inv
			startedAt = *inv.StartedAt
		default:
			return nil, apperror.Internal(err)
		}
	} else if a.invitation.StartedAt != nil {
		startedAt = *a.invitation.StartedAt
	}

	end := startedAt.Add(time.Duration(a.test.DurationMinutes) * time.Minute)
	remaining := int(end.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &domain.AttemptView{
		Questions:        a.test.PublicQuestions(),
		StartedAt:        startedAt,
		RemainingSeconds: remaining,
		MaxTabSwitches:   a.test.MaxTabSwitches,
		TabSwitchCount:   a.invitation.TabSwitchCount,
	}, nil
}

func (uc *assessmentUsecase) RecordTabSwitch(ctx context.Context, token string) (*domain.TabSwitchResult, error) {
	a, err := uc.loadAttempt(ctx, token, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if a.status != domain.InvitationStatusStarted {
		if a.status == domain.InvitationStatusPending {
			return nil, apperror.BadRequest("This assessment has not been started")
		}
		return nil, statusError(a.status)
	}

	count, err := uc.invitationRepo.IncrementTabSwitch(ctx, a.invitation.ID)
	if err != nil {
		if errors.Is(err, domain.ErrStateChanged) {
			return nil, apperror.BadRequest("This assessment is no longer in progress")
		}
		return nil, apperror.Internal(err)
	}

	terminate := count > a.test.MaxTabSwitches
	log := security.DefaultLogger()
	log.LogProctoring(ctx, security.EventTabSwitch, a.invitation.ID, a.invitation.Email, map[string]any{"count": count})
	if terminate {
		log.LogProctoring(ctx, security.EventAttemptTerminated, a.invitation.ID, a.invitation.Email, map[string]any{
			"count": count,
			"limit": a.test.MaxTabSwitches,
		})
	}
	return &domain.TabSwitchResult{
		TabSwitchCount: count,
		MaxTabSwitches: a.test.MaxTabSwitches,
		Terminate:      terminate,
	}, nil
}

// Submit scores and stores the attempt. The unique result per invitation
// makes a second submit a 409.
func (uc *assessmentUsecase) Submit(ctx context.Context, token string, req domain.SubmitAnswersRequest) (*domain.SubmissionReceipt, error) {
	now := time.Now().UTC()
	a, err := uc.loadAttempt(ctx, token, now)
	if err != nil {
		return nil, err
	}
	switch a.status {
	case domain.InvitationStatusStarted:
	case domain.InvitationStatusExpired:
		return nil, apperror.Gone("The time for this assessment has run out")
	default:
		return nil, statusError(a.status)
	}

	inv := a.invitation
	score, total, percentage, passed := a.test.Score(req.Answers)
	taken := 0
	if inv.StartedAt != nil {
		taken = int(now.Sub(*inv.StartedAt).Seconds())
	}

	result := &domain.AssessmentResult{
		TestID:           a.test.ID,
		InvitationID:     inv.ID,
		Email:            inv.Email,
		CandidateName:    inv.CandidateName,
		Answers:          req.Answers,
		Score:            score,
		TotalMarks:       total,
		Percentage:       percentage,
		Passed:           passed,
		TabSwitches:      inv.TabSwitchCount,
		AutoSubmitted:    req.AutoSubmitted,
		TimeTakenSeconds: taken,
		SubmittedAt:      now,
	}
	if err := uc.resultRepo.Create(ctx, result); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, apperror.Conflict("This assessment has already been submitted")
		}
		return nil, apperror.Internal(err)
	}

	if err := uc.invitationRepo.MarkCompleted(ctx, inv.ID, now); err != nil && !errors.Is(err, domain.ErrStateChanged) {
		logger.Log.Error("Failed to complete invitation", "invitation_id", inv.ID, "error", err)
	}
	if req.AutoSubmitted {
		security.DefaultLogger().LogProctoring(ctx, security.EventAutoSubmitted, inv.ID, inv.Email, map[string]any{
			"tab_switches": inv.TabSwitchCount,
		})
	}
	metrics.RecordEvent(metrics.EventAssessmentSubmitted, 1)

	return &domain.SubmissionReceipt{Submitted: true, AutoSubmitted: req.AutoSubmitted, SubmittedAt: now}, nil
}

// --- Results ---

func (uc *assessmentUsecase) ListResults(ctx context.Context, actor domain.Actor, testID int64, filter domain.ResultFilter) ([]domain.AssessmentResult, error) {
	if _, err := uc.loadManagedTest(ctx, actor, testID); err != nil {
		return nil, err
	}
	results, err := uc.resultRepo.ListByTest(ctx, testID, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if results == nil {
		results = []domain.AssessmentResult{}
	}
	return results, nil
}

var resultExportHeaders = []string{
	"Name", "Email", "Score", "Total Marks", "Percentage", "Result",
	"Tab Switches", "Auto Submitted", "Time Taken (s)", "Submitted At",
}

func (uc *assessmentUsecase) ExportResults(ctx context.Context, actor domain.Actor, testID int64, filter domain.ResultFilter) ([]byte, string, error) {
	results, err := uc.ListResults(ctx, actor, testID, filter)
	if err != nil {
		return nil, "", err
	}

	rows := make([][]any, 0, len(results))
	for _, r := range results {
		outcome := "Fail"
		if r.Passed {
			outcome = "Pass"
		}
		autoSubmitted := "No"
		if r.AutoSubmitted {
			autoSubmitted = "Yes"
		}
		rows = append(rows, []any{
			r.CandidateName, r.Email, r.Score, r.TotalMarks, r.Percentage, outcome,
			r.TabSwitches, autoSubmitted, r.TimeTakenSeconds, formatTime(r.SubmittedAt),
		})
	}

	data, err := excel.Write("Results", resultExportHeaders, rows)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventDataExport,
		SubjectType:  "user_id",
		SubjectValue: actor.UserID,
		Details:      map[string]any{"export": "assessment_results", "test_id": testID, "rows": len(rows)},
	})
	return data, fmt.Sprintf("results-test-%d.xlsx", testID), nil
}

// DeclareResults flips every undeclared result and emails each candidate once.
func (uc *assessmentUsecase) DeclareResults(ctx context.Context, actor domain.Actor, testID int64) (*domain.DeclareOutcome, error) {
	test, err := uc.loadManagedTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	declared, err := uc.resultRepo.DeclarePending(ctx, testID, now)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if len(declared) == 0 {
		return &domain.DeclareOutcome{Message: "No new results to declare"}, nil
	}

	var notified atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(declareFanOut)
	for _, r := range declared {
		r := r
		g.Go(func() error {
			if uc.notifier.notify(gctx, r.Email, "Your result for "+test.Title, email.TemplateResultDeclared, map[string]any{
				"Name":       displayName(r.CandidateName),
				"TestTitle":  test.Title,
				"Score":      r.Score,
				"Total":      r.TotalMarks,
				"Percentage": r.Percentage,
				"Passed":     r.Passed,
			}) {
				notified.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := uc.testRepo.MarkResultsDeclared(ctx, testID, now); err != nil {
		logger.Log.Error("Failed to flag test as declared", "test_id", testID, "error", err)
	}

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventResultsDeclared,
		SubjectType:  "test",
		SubjectValue: fmt.Sprint(testID),
		Details:      map[string]any{"declared": len(declared), "declared_by": actor.UserID},
	})
	metrics.RecordEvent(metrics.EventResultsDeclared, len(declared))

	return &domain.DeclareOutcome{
		Declared: len(declared),
		Notified: int(notified.Load()),
		Message:  fmt.Sprintf("Results declared for %d candidates", len(declared)),
	}, nil
}

func (uc *assessmentUsecase) ListVerifications(ctx context.Context, actor domain.Actor, testID int64) ([]domain.AssessmentVerification, error) {
	if _, err := uc.loadManagedTest(ctx, actor, testID); err != nil {
		return nil, err
	}
	out, err := uc.verificationRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if out == nil {
		out = []domain.AssessmentVerification{}
	}
	return out, nil
}

func (uc *assessmentUsecase) ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error) {
	n, err := uc.invitationRepo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	metrics.RecordEvent(metrics.EventInvitationsExpired, int(n))
	return n, nil
}
