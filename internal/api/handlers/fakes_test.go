package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/dreammend/internal/api/middlewares"
	"github.com/markdave123-py/dreammend/internal/logging"
	"github.com/markdave123-py/dreammend/internal/models"
	"github.com/markdave123-py/dreammend/internal/services"
)

func quietLogger() *slog.Logger {
	return logging.Discard()
}

// serve routes a single request through a chi router so URL params resolve.
// userID 0 means unauthenticated.
func serve(method, pattern, target string, body io.Reader, userID int64, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	req := httptest.NewRequest(method, target, body)
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

type fakeUsers struct {
	signupErr    error
	loginErr     error
	checkErr     error
	checkedEmail string
	user         *models.User
}

func (f *fakeUsers) Signup(_ context.Context, username, email, _ string) (*models.User, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.User{ID: 1, Username: username, Email: email}, nil
}

func (f *fakeUsers) Login(context.Context, string, string) (string, error) {
	return "jwt", f.loginErr
}

func (f *fakeUsers) VerifyToken(context.Context, string) (*models.User, error) {
	return f.user, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, &services.DomainError{Kind: services.ErrNotFound, Detail: "User not found"}
	}
	return f.user, nil
}

func (f *fakeUsers) ForgotPassword(context.Context, string) error { return nil }

func (f *fakeUsers) CheckCode(_ context.Context, email, _ string) error {
	f.checkedEmail = email
	return f.checkErr
}

func (f *fakeUsers) ResetPassword(_ context.Context, _, _, p, c string) error {
	if p != c {
		return services.ErrPasswordMismatch
	}
	return nil
}

type fakeChats struct {
	result  *services.MessageResult
	err     error
	got     services.SendMessageInput
	history []models.ChatMessage
}

func (f *fakeChats) StartConversation() (string, string) { return "conv-1", "sess-1" }

func (f *fakeChats) SendMessage(_ context.Context, in services.SendMessageInput) (*services.MessageResult, error) {
	f.got = in
	return f.result, f.err
}

func (f *fakeChats) ExportHistory(context.Context, string, int64) ([]models.ChatMessage, error) {
	if len(f.history) == 0 {
		return nil, &services.DomainError{Kind: services.ErrNotFound, Detail: "No messages found for the given conversation ID."}
	}
	return f.history, nil
}

type fakeProfiles struct {
	user     *models.User
	filename string
	size     int
	imgErr   error
}

func (f *fakeProfiles) GetProfile(context.Context, int64) (*models.User, error) { return f.user, nil }
func (f *fakeProfiles) UpdateProfile(_ context.Context, _ int64, p models.ProfilePatch) (*models.User, error) {
	u := *f.user
	if p.Name != nil {
		u.Name = p.Name
	}
	return &u, nil
}
func (f *fakeProfiles) VerifyEmail(context.Context, int64, string) (*models.User, error) {
	return f.user, nil
}
func (f *fakeProfiles) ReplaceImage(_ context.Context, _ int64, filename string, data []byte) (string, error) {
	f.filename, f.size = filename, len(data)
	if f.imgErr != nil {
		return "", f.imgErr
	}
	return "https://b.s3.r.amazonaws.com/x.png", nil
}

type fakeSummaries struct {
	selectErr error
}

func (f *fakeSummaries) CreateSummary(_ context.Context, in services.SummaryInput) (*models.Summary, error) {
	if !in.Fields.Complete() {
		return nil, services.ErrIncompleteData
	}
	return &models.Summary{ID: 3, ConversationID: in.ConversationID, Title: *in.Fields.Title, Selected: true}, nil
}

func (f *fakeSummaries) SelectSummary(_ context.Context, id int64) (*models.Summary, *services.MigrationResult, error) {
	if f.selectErr != nil {
		return nil, nil, f.selectErr
	}
	return &models.Summary{ID: id, Selected: true}, &services.MigrationResult{}, nil
}

type fakeMigrator struct {
	err error
}

func (f *fakeMigrator) Migrate(context.Context, int64) (*services.MigrationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.MigrationResult{
		Migrated: []models.DreamEntry{{ID: 1, SessionID: "s1"}},
		Skipped:  []services.SkippedSummary{{SummaryID: 2, SessionID: "s2", Reason: services.SkipAlreadyMigrated}},
	}, nil
}

type fakeEntries struct {
	limit int
}

func (f *fakeEntries) Create(_ context.Context, userID int64, in services.DreamEntryInput) (*models.DreamEntry, error) {
	return &models.DreamEntry{ID: 1, UserID: userID, Title: in.Title}, nil
}
func (f *fakeEntries) List(context.Context, int64) ([]models.DreamEntry, error) {
	return []models.DreamEntry{}, nil
}
func (f *fakeEntries) Update(_ context.Context, userID, id int64, in services.DreamEntryInput) (*models.DreamEntry, error) {
	if id != 1 {
		return nil, &services.DomainError{Kind: services.ErrNotFound, Detail: "Dream entry not found"}
	}
	return &models.DreamEntry{ID: id, UserID: userID, Title: in.Title}, nil
}
func (f *fakeEntries) Delete(_ context.Context, userID, id int64) (*models.DreamEntry, error) {
	return &models.DreamEntry{ID: id, UserID: userID}, nil
}
func (f *fakeEntries) Similar(_ context.Context, _, _ int64, limit int) ([]models.DreamEntry, error) {
	f.limit = limit
	return []models.DreamEntry{}, nil
}

func serveWithContentType(method, target string, body io.Reader, contentType string, userID int64, h http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
