package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/dto"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
	"github.com/fypdesk/fyp-api/internal/storage"
)

// fakeDocumentRepo is an in-memory DocumentRepository.
type fakeDocumentRepo struct {
	documents map[uint]*models.StudentDocument
	windows   []*models.DocumentWindow
	nextID    uint
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{documents: map[uint]*models.StudentDocument{}}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *models.StudentDocument) error {
	r.nextID++
	document.ID = r.nextID
	stored := *document
	r.documents[document.ID] = &stored
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id uint) (models.StudentDocument, error) {
	stored, ok := r.documents[id]
	if !ok {
		return models.StudentDocument{}, gorm.ErrRecordNotFound
	}
	return *stored, nil
}

func (r *fakeDocumentRepo) GetByOwner(ctx context.Context, groupID, studentID uint, docType models.DocumentType, sequence int) (models.StudentDocument, error) {
	for _, document := range r.documents {
		if document.GroupID == groupID && document.StudentID == studentID &&
			document.DocumentType == docType && document.Sequence == sequence {
			return *document, nil
		}
	}
	return models.StudentDocument{}, gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) List(ctx context.Context, filter repository.DocumentFilter) ([]models.StudentDocument, int64, error) {
	var documents []models.StudentDocument
	for _, document := range r.documents {
		if filter.GroupID != 0 && document.GroupID != filter.GroupID {
			continue
		}
		if filter.StudentID != 0 && document.StudentID != filter.StudentID {
			continue
		}
		documents = append(documents, *document)
	}
	return documents, int64(len(documents)), nil
}

func (r *fakeDocumentRepo) UpdateVersioned(ctx context.Context, document *models.StudentDocument) error {
	stored, ok := r.documents[document.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != document.Version {
		return repository.ErrStaleVersion
	}
	document.Version++
	updated := *document
	r.documents[document.ID] = &updated
	return nil
}

func (r *fakeDocumentRepo) Replace(ctx context.Context, document *models.StudentDocument) error {
	stored, ok := r.documents[document.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != document.Version {
		return repository.ErrStaleVersion
	}
	document.ReviewNote = ""
	document.ReviewedBy = nil
	document.ReviewedAt = nil
	document.Version++
	updated := *document
	r.documents[document.ID] = &updated
	return nil
}

func (r *fakeDocumentRepo) UpsertWindow(ctx context.Context, window *models.DocumentWindow) error {
	for _, stored := range r.windows {
		if stored.DepartmentID == window.DepartmentID &&
			stored.DocumentType == window.DocumentType && stored.Sequence == window.Sequence {
			stored.IsUnlocked = window.IsUnlocked
			stored.DeadlineDate = window.DeadlineDate
			window.ID = stored.ID
			return nil
		}
	}
	r.nextID++
	window.ID = r.nextID
	stored := *window
	r.windows = append(r.windows, &stored)
	return nil
}

func (r *fakeDocumentRepo) GetWindow(ctx context.Context, departmentID uint, docType models.DocumentType, sequence int) (models.DocumentWindow, error) {
	for _, window := range r.windows {
		if window.DepartmentID == departmentID && window.DocumentType == docType && window.Sequence == sequence {
			return *window, nil
		}
	}
	return models.DocumentWindow{}, gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) ListWindows(ctx context.Context, departmentID uint) ([]models.DocumentWindow, error) {
	var windows []models.DocumentWindow
	for _, window := range r.windows {
		if window.DepartmentID == departmentID {
			windows = append(windows, *window)
		}
	}
	return windows, nil
}

// fakeStore keeps uploaded files in memory.
type fakeStore struct {
	files   map[string][]byte
	nextSeq int
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (s *fakeStore) Save(groupID uint, docType, fileName string, r io.Reader) (storage.StoredFile, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return storage.StoredFile{}, err
	}
	s.nextSeq++
	path := fmt.Sprintf("group_%d/%s/%d-%s", groupID, docType, s.nextSeq, fileName)
	s.files[path] = content
	return storage.StoredFile{Path: path, SizeBytes: int64(len(content)), ContentType: "application/pdf"}, nil
}

func (s *fakeStore) Open(path string) (io.ReadCloser, error) {
	content, ok := s.files[path]
	if !ok {
		return nil, storage.ErrInvalidPath
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *fakeStore) Remove(path string) error {
	delete(s.files, path)
	return nil
}

func newDocumentFixture(t *testing.T) (*fakeDocumentRepo, *fakeStore, DocumentService) {
	t.Helper()

	documents := newFakeDocumentRepo()
	store := newFakeStore()
	groups := newFakeGroupRepo()
	students := newFakeStudentRepo(
		models.Student{ID: 1, UserID: 11, Name: "Ayesha Khan", DepartmentID: 1},
		models.Student{ID: 2, UserID: 12, Name: "Bilal Ahmed", DepartmentID: 1},
	)

	group := &models.FYPGroup{
		Name: "Smart Attendance", DepartmentID: 1, CreatorStudentID: 1,
		Status: models.GroupActive, Version: 1,
	}
	require.NoError(t, groups.Create(context.Background(), group))
	require.NoError(t, groups.AddMember(context.Background(), &models.GroupMember{GroupID: 1, StudentID: 1, Status: models.MemberAccepted}))

	svc := NewDocumentService(documents, groups, students, store, testValidator(), &captureNotifier{}, &captureAudit{}, testLogger())
	return documents, store, svc
}

func openWindow(t *testing.T, repo *fakeDocumentRepo, docType models.DocumentType, sequence int, deadline *time.Time) {
	t.Helper()
	require.NoError(t, repo.UpsertWindow(context.Background(), &models.DocumentWindow{
		DepartmentID: 1, DocumentType: docType, Sequence: sequence,
		IsUnlocked: true, DeadlineDate: deadline,
	}))
}

func uploadFor(docType string, sequence int, content string) DocumentUpload {
	return DocumentUpload{
		GroupID:      1,
		DocumentType: docType,
		Sequence:     sequence,
		FileName:     "report.pdf",
		Content:      strings.NewReader(content),
	}
}

func TestDocumentUploadRequiresOpenWindow(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "draft"))
	require.ErrorIs(t, err, ErrWindowClosed)

	// a locked window behaves the same as a missing one
	require.NoError(t, repo.UpsertWindow(context.Background(), &models.DocumentWindow{
		DepartmentID: 1, DocumentType: models.DocumentSRS, IsUnlocked: false,
	}))
	_, err = svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "draft"))
	require.ErrorIs(t, err, ErrWindowClosed)
}

func TestDocumentUploadRejectedPastDeadline(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)

	deadline := time.Now().Add(-time.Hour)
	openWindow(t, repo, models.DocumentSRS, 0, &deadline)

	_, err := svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "late"))
	require.ErrorIs(t, err, ErrWindowClosed)
}

func TestDocumentUploadOnlyByAcceptedMember(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)
	openWindow(t, repo, models.DocumentSRS, 0, nil)

	_, err := svc.Upload(context.Background(), studentActor(12), uploadFor("srs", 0, "draft"))
	require.ErrorIs(t, err, ErrNotGroupMember)
}

func TestDocumentDirectFinalizeForNonLogForm(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)
	openWindow(t, repo, models.DocumentSRS, 0, nil)

	uploaded, err := svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "srs body"))
	require.NoError(t, err)
	require.Equal(t, string(models.DocumentStudentSubmitted), uploaded.WorkflowStatus)

	// SRS documents never pass through supervisor review
	_, err = svc.SupervisorReview(context.Background(), Actor{UserID: 21, Role: models.RoleSupervisor}, uploaded.ID,
		dto.DocumentReviewRequest{Approve: true, Version: uploaded.Version})
	require.ErrorIs(t, err, ErrDocumentNotReviewable)

	finalized, err := svc.CoordinatorFinalize(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, uploaded.ID,
		dto.DocumentReviewRequest{Approve: true, Version: uploaded.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.DocumentCoordinatorFinalized), finalized.WorkflowStatus)
	require.NotNil(t, finalized.FinalizedAt)
}

func TestDocumentLogFormPassesThroughSupervisor(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)
	openWindow(t, repo, models.DocumentLogForm, 1, nil)

	uploaded, err := svc.Upload(context.Background(), studentActor(11), uploadFor("log_form", 1, "week one"))
	require.NoError(t, err)

	// coordinator cannot finalize before the supervisor verdict
	_, err = svc.CoordinatorFinalize(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, uploaded.ID,
		dto.DocumentReviewRequest{Approve: true, Version: uploaded.Version})
	require.ErrorIs(t, err, ErrDocumentNotReviewable)

	reviewed, err := svc.SupervisorReview(context.Background(), Actor{UserID: 21, Role: models.RoleSupervisor}, uploaded.ID,
		dto.DocumentReviewRequest{Approve: true, Version: uploaded.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.DocumentSupervisorReviewed), reviewed.WorkflowStatus)

	finalized, err := svc.CoordinatorFinalize(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, uploaded.ID,
		dto.DocumentReviewRequest{Approve: true, Version: reviewed.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.DocumentCoordinatorFinalized), finalized.WorkflowStatus)
}

func TestDocumentResubmitReplacesFileAndResetsWorkflow(t *testing.T) {
	repo, store, svc := newDocumentFixture(t)
	openWindow(t, repo, models.DocumentSRS, 0, nil)

	first, err := svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "first draft"))
	require.NoError(t, err)

	returned, err := svc.CoordinatorFinalize(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, first.ID,
		dto.DocumentReviewRequest{Approve: false, Note: "missing diagrams", Version: first.Version})
	require.NoError(t, err)
	require.Equal(t, string(models.DocumentStudentSubmitted), returned.WorkflowStatus)

	second := uploadFor("srs", 0, "second draft")
	second.Version = returned.Version
	replaced, err := svc.Upload(context.Background(), studentActor(11), second)
	require.NoError(t, err)
	require.Equal(t, first.ID, replaced.ID)
	require.Equal(t, string(models.DocumentStudentSubmitted), replaced.WorkflowStatus)

	// the replaced file is gone; only the new upload remains
	require.Len(t, store.files, 1)
}

func TestDocumentResubmitBlockedAfterFinalize(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)
	openWindow(t, repo, models.DocumentSRS, 0, nil)

	uploaded, err := svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "final"))
	require.NoError(t, err)
	_, err = svc.CoordinatorFinalize(context.Background(), Actor{UserID: 31, Role: models.RoleCoordinator}, uploaded.ID,
		dto.DocumentReviewRequest{Approve: true, Version: uploaded.Version})
	require.NoError(t, err)

	again := uploadFor("srs", 0, "too late")
	_, err = svc.Upload(context.Background(), studentActor(11), again)
	require.ErrorIs(t, err, ErrDocumentFinalized)
}

func TestDocumentDownloadScopedToOwnGroup(t *testing.T) {
	repo, _, svc := newDocumentFixture(t)
	openWindow(t, repo, models.DocumentSRS, 0, nil)

	uploaded, err := svc.Upload(context.Background(), studentActor(11), uploadFor("srs", 0, "body"))
	require.NoError(t, err)

	_, rc, err := svc.Download(context.Background(), studentActor(11), uploaded.ID)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "body", string(content))

	_, _, err = svc.Download(context.Background(), studentActor(12), uploaded.ID)
	require.ErrorIs(t, err, ErrNotGroupMember)
}
