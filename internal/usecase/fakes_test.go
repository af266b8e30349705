package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/infrastructure/firebase"
	"togetherly/pkg/errors"
)

type fakeChatRepo struct {
	mu        sync.Mutex
	threads   map[string]*entity.ChatThread
	messages  map[string][]*entity.ChatMessage
	routed    []*entity.ChatMessage
	readCalls []string

	threadEvents  chan repository.ThreadsEvent
	messageEvents chan repository.MessagesEvent
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		threads:       make(map[string]*entity.ChatThread),
		messages:      make(map[string][]*entity.ChatMessage),
		threadEvents:  make(chan repository.ThreadsEvent, 4),
		messageEvents: make(chan repository.MessagesEvent, 4),
	}
}

func (r *fakeChatRepo) addThread(t *entity.ChatThread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[t.ID] = t
}

func (r *fakeChatRepo) GetThread(ctx context.Context, id string) (*entity.ChatThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return nil, errors.NotFound("Thread", nil)
	}
	return t, nil
}

func (r *fakeChatRepo) GetOrCreateThread(ctx context.Context, thread *entity.ChatThread) (*entity.ChatThread, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.threads {
		if t.PairKey == thread.PairKey {
			return t, false, nil
		}
	}
	now := time.Now()
	thread.CreatedAt, thread.UpdatedAt, thread.LastMessageAt = now, now, now
	r.threads[thread.ID] = thread
	return thread, true, nil
}

func (r *fakeChatRepo) ListThreadsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatThread, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChatThread
	for _, t := range r.threads {
		if t.HasParticipant(userID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, int64(len(out)), nil
}

func (r *fakeChatRepo) AppendMessage(ctx context.Context, threadID string, message *entity.ChatMessage) (*entity.ChatThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return nil, errors.NotFound("Thread", nil)
	}
	if !t.HasParticipant(message.SenderID) {
		return nil, errors.Forbidden("User is not a participant in this thread", nil)
	}
	if message.ID == "" {
		message.ID = "msg-" + time.Now().Format("150405.000000000")
	}
	message.ThreadID = threadID
	message.CreatedAt = time.Now()
	if message.ReadBy == nil {
		message.ReadBy = []string{message.SenderID}
	}
	t.ApplySend(message.SenderID, message.Preview(), message.CreatedAt)
	r.messages[threadID] = append(r.messages[threadID], message)
	return t, nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, threadID string, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[threadID]
	return msgs, int64(len(msgs)), nil
}

func (r *fakeChatRepo) MarkThreadRead(ctx context.Context, threadID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return errors.NotFound("Thread", nil)
	}
	if t.UnreadCount == nil {
		t.UnreadCount = make(map[string]int)
	}
	t.UnreadCount[userID] = 0
	r.readCalls = append(r.readCalls, threadID+":"+userID)
	return nil
}

func (r *fakeChatRepo) SetReaction(ctx context.Context, threadID, messageID, userID, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[threadID] {
		if m.ID == messageID {
			if m.Reactions == nil {
				m.Reactions = make(map[string]string)
			}
			if emoji == "" {
				delete(m.Reactions, userID)
			} else {
				m.Reactions[userID] = emoji
			}
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeChatRepo) ListRoutedMessages(ctx context.Context, threadID string, limit int) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range r.routed {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) ObserveThreads(ctx context.Context, userID string) <-chan repository.ThreadsEvent {
	return r.threadEvents
}

func (r *fakeChatRepo) ObserveMessages(ctx context.Context, threadID string) <-chan repository.MessagesEvent {
	return r.messageEvents
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

type fakePendingRepo struct {
	mu       sync.Mutex
	records  map[string]*entity.PendingContent
	messages []*entity.ChatMessage
	writes   int
	events   chan repository.PendingEvent
}

func newFakePendingRepo(records ...*entity.PendingContent) *fakePendingRepo {
	r := &fakePendingRepo{
		records: make(map[string]*entity.PendingContent),
		events:  make(chan repository.PendingEvent, 4),
	}
	for _, p := range records {
		r.records[p.ID] = p
	}
	return r
}

func (r *fakePendingRepo) Create(ctx context.Context, pending *entity.PendingContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[pending.ID]; exists {
		return errors.Conflict("Pending content already exists")
	}
	pending.CreatedAt = time.Now()
	r.records[pending.ID] = pending
	return nil
}

func (r *fakePendingRepo) GetByID(ctx context.Context, id string) (*entity.PendingContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return nil, errors.NotFound("Pending content", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakePendingRepo) Approve(ctx context.Context, id string, scores *entity.ModerationScores, message *entity.ChatMessage) (repository.Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return repository.Transition{}, errors.NotFound("Pending content", nil)
	}
	if p.IsTerminal() {
		return repository.Transition{Status: p.Status}, nil
	}
	now := time.Now()
	p.Status = entity.PendingStatusApproved
	p.Scores = scores
	p.ReviewedAt = &now
	if message != nil {
		r.messages = append(r.messages, message)
	}
	r.writes++
	return repository.Transition{Applied: true, Status: p.Status}, nil
}

func (r *fakePendingRepo) Reject(ctx context.Context, id, reason string, scores *entity.ModerationScores) (repository.Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return repository.Transition{}, errors.NotFound("Pending content", nil)
	}
	if p.IsTerminal() {
		return repository.Transition{Status: p.Status}, nil
	}
	now := time.Now()
	p.Status = entity.PendingStatusRejected
	p.RejectReason = reason
	p.Scores = scores
	p.ReviewedAt = &now
	r.writes++
	return repository.Transition{Applied: true, Status: p.Status}, nil
}

func (r *fakePendingRepo) ObservePendingCreated(ctx context.Context) <-chan repository.PendingEvent {
	return r.events
}

func (r *fakePendingRepo) record(id string) *entity.PendingContent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

type fakePresenceRepo struct {
	mu       sync.Mutex
	presence map[string]*entity.UserPresence
	typing   map[string]map[string]*entity.TypingState
	now      func() time.Time

	typingEvents chan repository.TypingEvent
}

func newFakePresenceRepo(now func() time.Time) *fakePresenceRepo {
	return &fakePresenceRepo{
		presence:     make(map[string]*entity.UserPresence),
		typing:       make(map[string]map[string]*entity.TypingState),
		now:          now,
		typingEvents: make(chan repository.TypingEvent, 4),
	}
}

func (r *fakePresenceRepo) MarkActive(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence[userID] = &entity.UserPresence{UserID: userID, LastActive: r.now()}
	return nil
}

func (r *fakePresenceRepo) GetPresence(ctx context.Context, userID string) (*entity.UserPresence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.presence[userID]
	if !ok {
		return nil, errors.NotFound("Presence", nil)
	}
	return p, nil
}

func (r *fakePresenceRepo) ObservePresence(ctx context.Context, userID string) <-chan repository.PresenceEvent {
	out := make(chan repository.PresenceEvent, 1)
	close(out)
	return out
}

func (r *fakePresenceRepo) SetTyping(ctx context.Context, threadID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.typing[threadID] == nil {
		r.typing[threadID] = make(map[string]*entity.TypingState)
	}
	r.typing[threadID][userID] = &entity.TypingState{UserID: userID, ThreadID: threadID, Typing: true, UpdatedAt: r.now()}
	return nil
}

func (r *fakePresenceRepo) ClearTyping(ctx context.Context, threadID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.typing[threadID], userID)
	return nil
}

func (r *fakePresenceRepo) ListTyping(ctx context.Context, threadID string) ([]*entity.TypingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TypingState
	for _, s := range r.typing[threadID] {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakePresenceRepo) ObserveTyping(ctx context.Context, threadID string) <-chan repository.TypingEvent {
	return r.typingEvents
}

type fakeAppLockRepo struct {
	mu    sync.Mutex
	locks map[string]*entity.AppLock
}

func newFakeAppLockRepo() *fakeAppLockRepo {
	return &fakeAppLockRepo{locks: make(map[string]*entity.AppLock)}
}

func (r *fakeAppLockRepo) Get(ctx context.Context, userID string) (*entity.AppLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		return nil, errors.NotFound("App lock", nil)
	}
	return l, nil
}

func (r *fakeAppLockRepo) Save(ctx context.Context, lock *entity.AppLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[lock.UserID] = lock
	return nil
}

func (r *fakeAppLockRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, userID)
	return nil
}

type fakeScorer struct {
	mu     sync.Mutex
	scores *entity.ModerationScores
	err    error
	calls  int
}

func (s *fakeScorer) Score(ctx context.Context, text string) (*entity.ModerationScores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.scores, s.err
}

func (s *fakeScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type notification struct {
	userID      string
	messageType string
	data        interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyUser(userID, messageType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID: userID, messageType: messageType, data: data})
}

type fakeAuthClient struct {
	users map[string]*firebase.AuthUser
}

func (f *fakeAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	return token, nil
}

func (f *fakeAuthClient) GetUser(ctx context.Context, uid string) (*firebase.AuthUser, error) {
	u, ok := f.users[uid]
	if !ok {
		return nil, errors.NotFound("Auth user", nil)
	}
	return u, nil
}

func (f *fakeAuthClient) TestConnection(ctx context.Context) error {
	return nil
}

type fakeFileService struct {
	uploads []string
	deleted []string
}

func (f *fakeFileService) UploadFile(ctx context.Context, file io.Reader, fileType, folder string, isPublic bool) (string, error) {
	url := "https://storage.googleapis.com/bucket/public/" + folder + "/file"
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeFileService) Close() error {
	return nil
}

type fakeMediaRepo struct {
	mu    sync.Mutex
	files map[string]*entity.MediaFile
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{files: make(map[string]*entity.MediaFile)}
}

func (r *fakeMediaRepo) Create(ctx context.Context, media *entity.MediaFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[media.ID] = media
	return nil
}

func (r *fakeMediaRepo) GetByURL(ctx context.Context, url string) (*entity.MediaFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.URL == url {
			return f, nil
		}
	}
	return nil, errors.NotFound("Media", nil)
}

func (r *fakeMediaRepo) ListByUploader(ctx context.Context, userID string, limit, offset int) ([]*entity.MediaFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.MediaFile
	for _, f := range r.files {
		if f.UploadedBy == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, id)
	return nil
}

func float(v float64) *float64 {
	return &v
}

func alice() *entity.User {
	return &entity.User{ID: "alice", Email: "alice@example.com", DisplayName: "Alice"}
}

func bob() *entity.User {
	return &entity.User{ID: "bob", Email: "bob@example.com", DisplayName: "Bob"}
}
