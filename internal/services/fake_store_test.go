package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/logging"
	"github.com/markdave123-py/dreammend/internal/models"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return logging.Discard()
}

type fakeState struct {
	users        []models.User
	messages     []models.ChatMessage
	summaries    []models.Summary
	entries      []models.DreamEntry
	resetTokens  []models.PasswordResetToken
	verifyTokens []models.EmailVerificationToken
	seq          int64
}

func (s fakeState) clone() fakeState {
	return fakeState{
		users:        append([]models.User(nil), s.users...),
		messages:     append([]models.ChatMessage(nil), s.messages...),
		summaries:    append([]models.Summary(nil), s.summaries...),
		entries:      append([]models.DreamEntry(nil), s.entries...),
		resetTokens:  append([]models.PasswordResetToken(nil), s.resetTokens...),
		verifyTokens: append([]models.EmailVerificationToken(nil), s.verifyTokens...),
		seq:          s.seq,
	}
}

// fakeDB is an in-memory db.DbClient. It enforces the same unique constraints
// as the schema and rolls back state when a WithTx callback fails.
type fakeDB struct {
	mu    sync.Mutex
	state fakeState
	// hook, when set, is called with the method name before every query.
	hook func(method string) error
	txs  int
}

var _ db.DbClient = (*fakeDB)(nil)

func newFakeDB() *fakeDB { return &fakeDB{} }

func (f *fakeDB) check(method string) error {
	if f.hook != nil {
		return f.hook(method)
	}
	return nil
}

func (f *fakeDB) next() (int64, time.Time) {
	f.state.seq++
	return f.state.seq, baseTime.Add(time.Duration(f.state.seq) * time.Second)
}

func (f *fakeDB) WithTx(ctx context.Context, fn func(ctx context.Context, tx db.Store) error) error {
	f.mu.Lock()
	snapshot := f.state.clone()
	f.txs++
	f.mu.Unlock()

	if err := fn(ctx, f); err != nil {
		f.mu.Lock()
		f.state = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close() error               { return nil }

// users

func (f *fakeDB) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("CreateUser"); err != nil {
		return nil, err
	}
	for _, existing := range f.state.users {
		if existing.Email == u.Email {
			return nil, db.ErrDuplicate
		}
	}
	out := *u
	out.ID, out.CreatedAt = f.next()
	out.UpdatedAt = out.CreatedAt
	f.state.users = append(f.state.users, out)
	return &out, nil
}

func (f *fakeDB) userIndex(id int64) int {
	for i, u := range f.state.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("GetUserByID"); err != nil {
		return nil, err
	}
	i := f.userIndex(id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	u := f.state.users[i]
	return &u, nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range f.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeDB) UpdateUserProfile(_ context.Context, id int64, p models.ProfilePatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("UpdateUserProfile"); err != nil {
		return nil, err
	}
	i := f.userIndex(id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	u := f.state.users[i]
	if p.Username != nil {
		u.Username = *p.Username
	}
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	set(&u.HeaderImageURL, p.HeaderImageURL)
	set(&u.Name, p.Name)
	set(&u.Surname, p.Surname)
	set(&u.PhoneNumber, p.PhoneNumber)
	set(&u.Gender, p.Gender)
	set(&u.Region, p.Region)
	set(&u.Education, p.Education)
	if p.DateOfBirth != nil {
		u.DateOfBirth = p.DateOfBirth
	}
	f.state.users[i] = u
	return &u, nil
}

func (f *fakeDB) UpdateUserEmail(_ context.Context, id int64, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("UpdateUserEmail"); err != nil {
		return err
	}
	for _, u := range f.state.users {
		if u.Email == email && u.ID != id {
			return db.ErrDuplicate
		}
	}
	i := f.userIndex(id)
	if i < 0 {
		return db.ErrNotFound
	}
	f.state.users[i].Email = email
	return nil
}

func (f *fakeDB) UpdateUserPassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("UpdateUserPassword"); err != nil {
		return err
	}
	i := f.userIndex(id)
	if i < 0 {
		return db.ErrNotFound
	}
	f.state.users[i].PasswordHash = hash
	return nil
}

func (f *fakeDB) UpdateUserProfileImage(_ context.Context, id int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("UpdateUserProfileImage"); err != nil {
		return err
	}
	i := f.userIndex(id)
	if i < 0 {
		return db.ErrNotFound
	}
	f.state.users[i].ProfileImageURL = &url
	return nil
}

// chat messages

func (f *fakeDB) InsertChatMessage(_ context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("InsertChatMessage"); err != nil {
		return nil, err
	}
	out := *m
	out.ID, out.Timestamp = f.next()
	f.state.messages = append(f.state.messages, out)
	return &out, nil
}

func (f *fakeDB) LatestChatMessage(_ context.Context, conversationID string) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("LatestChatMessage"); err != nil {
		return nil, err
	}
	var latest *models.ChatMessage
	for i := range f.state.messages {
		m := f.state.messages[i]
		if m.ConversationID != conversationID {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) ||
			(m.Timestamp.Equal(latest.Timestamp) && m.ID > latest.ID) {
			latest = &m
		}
	}
	if latest == nil {
		return nil, db.ErrNotFound
	}
	return latest, nil
}

func (f *fakeDB) ListChatMessages(_ context.Context, conversationID string, userID int64) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("ListChatMessages"); err != nil {
		return nil, err
	}
	var out []models.ChatMessage
	for _, m := range f.state.messages {
		if m.ConversationID == conversationID && m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// summaries

func (f *fakeDB) InsertSummary(_ context.Context, s *models.Summary) (*models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("InsertSummary"); err != nil {
		return nil, err
	}
	if s.Selected && f.selectedIn(s.ConversationID, 0) {
		return nil, db.ErrDuplicate
	}
	out := *s
	var ts time.Time
	out.ID, ts = f.next()
	if out.Timestamp.IsZero() {
		out.Timestamp = ts
	}
	f.state.summaries = append(f.state.summaries, out)
	return &out, nil
}

func (f *fakeDB) selectedIn(conversationID string, except int64) bool {
	for _, s := range f.state.summaries {
		if s.ConversationID == conversationID && s.Selected && s.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeDB) GetSummary(_ context.Context, id int64) (*models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("GetSummary"); err != nil {
		return nil, err
	}
	for _, s := range f.state.summaries {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeDB) UnselectSummaries(_ context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("UnselectSummaries"); err != nil {
		return err
	}
	for i := range f.state.summaries {
		if f.state.summaries[i].ConversationID == conversationID {
			f.state.summaries[i].Selected = false
		}
	}
	return nil
}

func (f *fakeDB) MarkSummarySelected(_ context.Context, id int64) (*models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("MarkSummarySelected"); err != nil {
		return nil, err
	}
	for i := range f.state.summaries {
		s := &f.state.summaries[i]
		if s.ID != id {
			continue
		}
		if f.selectedIn(s.ConversationID, id) {
			return nil, db.ErrDuplicate
		}
		s.Selected = true
		out := *s
		return &out, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeDB) ListSelectedSummaries(_ context.Context, userID int64) ([]models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("ListSelectedSummaries"); err != nil {
		return nil, err
	}
	var out []models.Summary
	for _, s := range f.state.summaries {
		if s.UserID == userID && s.Selected {
			out = append(out, s)
		}
	}
	return out, nil
}

// dream entries

func (f *fakeDB) InsertDreamEntry(_ context.Context, e *models.DreamEntry) (*models.DreamEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("InsertDreamEntry"); err != nil {
		return nil, err
	}
	if e.SessionID != "" {
		for _, existing := range f.state.entries {
			if existing.SessionID == e.SessionID {
				return nil, db.ErrDuplicate
			}
		}
	}
	out := *e
	var ts time.Time
	out.ID, ts = f.next()
	if out.CreatedDate.IsZero() {
		out.CreatedDate = ts
	}
	out.Indexed = false
	f.state.entries = append(f.state.entries, out)
	return &out, nil
}

func (f *fakeDB) DreamEntryExistsForSession(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("DreamEntryExistsForSession"); err != nil {
		return false, err
	}
	// a blank session is stored as NULL and never compares equal
	if sessionID == "" {
		return false, nil
	}
	for _, e := range f.state.entries {
		if e.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) ListDreamEntries(_ context.Context, userID int64) ([]models.DreamEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("ListDreamEntries"); err != nil {
		return nil, err
	}
	var out []models.DreamEntry
	for _, e := range f.state.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDB) entryIndex(userID, id int64) int {
	for i, e := range f.state.entries {
		if e.ID == id && e.UserID == userID {
			return i
		}
	}
	return -1
}

func (f *fakeDB) GetDreamEntry(_ context.Context, userID, id int64) (*models.DreamEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("GetDreamEntry"); err != nil {
		return nil, err
	}
	i := f.entryIndex(userID, id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	e := f.state.entries[i]
	return &e, nil
}

func (f *fakeDB) UpdateDreamEntry(_ context.Context, e *models.DreamEntry) (*models.DreamEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("UpdateDreamEntry"); err != nil {
		return nil, err
	}
	i := f.entryIndex(e.UserID, e.ID)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	cur := &f.state.entries[i]
	cur.Title, cur.Abstract = e.Title, e.Abstract
	cur.OriginalDream, cur.RewrittenDream = e.OriginalDream, e.RewrittenDream
	cur.Times = e.Times
	cur.Indexed = false
	out := *cur
	return &out, nil
}

func (f *fakeDB) DeleteDreamEntry(_ context.Context, userID, id int64) (*models.DreamEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("DeleteDreamEntry"); err != nil {
		return nil, err
	}
	i := f.entryIndex(userID, id)
	if i < 0 {
		return nil, db.ErrNotFound
	}
	out := f.state.entries[i]
	f.state.entries = append(f.state.entries[:i], f.state.entries[i+1:]...)
	return &out, nil
}

func (f *fakeDB) SetDreamEntryEmbedding(_ context.Context, id int64, _ []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("SetDreamEntryEmbedding"); err != nil {
		return err
	}
	for i := range f.state.entries {
		if f.state.entries[i].ID == id {
			f.state.entries[i].Indexed = true
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeDB) SimilarDreamEntries(_ context.Context, userID, id int64, limit int) ([]models.DreamEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("SimilarDreamEntries"); err != nil {
		return nil, err
	}
	var out []models.DreamEntry
	for _, e := range f.state.entries {
		if e.UserID == userID && e.ID != id && e.Indexed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// tokens

func (f *fakeDB) CreatePasswordResetToken(_ context.Context, t *models.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("CreatePasswordResetToken"); err != nil {
		return err
	}
	t.ID, t.CreatedAt = f.next()
	f.state.resetTokens = append(f.state.resetTokens, *t)
	return nil
}

func (f *fakeDB) FindPasswordResetToken(_ context.Context, email, token string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("FindPasswordResetToken"); err != nil {
		return nil, err
	}
	owner := int64(-1)
	for _, u := range f.state.users {
		if u.Email == email {
			owner = u.ID
		}
	}
	for i := len(f.state.resetTokens) - 1; i >= 0; i-- {
		t := f.state.resetTokens[i]
		if t.UserID == owner && t.Token == token && !t.IsUsed {
			return &t, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeDB) MarkPasswordResetTokenUsed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("MarkPasswordResetTokenUsed"); err != nil {
		return err
	}
	for i := range f.state.resetTokens {
		if f.state.resetTokens[i].ID == id {
			f.state.resetTokens[i].IsUsed = true
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeDB) CreateEmailVerificationToken(_ context.Context, t *models.EmailVerificationToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("CreateEmailVerificationToken"); err != nil {
		return err
	}
	t.ID, t.CreatedAt = f.next()
	f.state.verifyTokens = append(f.state.verifyTokens, *t)
	return nil
}

func (f *fakeDB) FindEmailVerificationToken(_ context.Context, userID int64, token string) (*models.EmailVerificationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("FindEmailVerificationToken"); err != nil {
		return nil, err
	}
	for i := len(f.state.verifyTokens) - 1; i >= 0; i-- {
		t := f.state.verifyTokens[i]
		if t.UserID == userID && t.Token == token && !t.IsUsed {
			return &t, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeDB) MarkEmailVerificationTokenUsed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("MarkEmailVerificationTokenUsed"); err != nil {
		return err
	}
	for i := range f.state.verifyTokens {
		if f.state.verifyTokens[i].ID == id {
			f.state.verifyTokens[i].IsUsed = true
			return nil
		}
	}
	return db.ErrNotFound
}

// seedUser inserts a user directly and returns it.
func (f *fakeDB) seedUser(username, email string) models.User {
	u, err := f.CreateUser(context.Background(), &models.User{Username: username, Email: email, PasswordHash: "hash:secret"})
	if err != nil {
		panic(err)
	}
	return *u
}

func (f *fakeDB) selectedSummaries(conversationID string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, s := range f.state.summaries {
		if s.ConversationID == conversationID && s.Selected {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// collaborators

type fakeIndexer struct {
	mu      sync.Mutex
	entries []models.DreamEntry
}

func (i *fakeIndexer) Enqueue(e models.DreamEntry) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = append(i.entries, e)
}

type sentMail struct {
	to, subject, text string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, text: text})
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "hash:" + p, nil }
func (fakeHasher) Verify(p, h string) bool       { return h == "hash:"+p }
