package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"twitter-clone/internal/domain"
	"twitter-clone/internal/mail"
	"twitter-clone/internal/repository"
	"twitter-clone/internal/repository/sqlite"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	svc    UserService
	users  repository.UserRepository
	posts  repository.PostRepository
	mailer *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	posts := sqlite.NewPostRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))

	mailer := &recordingMailer{}
	svc := NewUserService(users, posts, mailer, UserServiceConfig{
		Secret:    "test-secret",
		PublicURL: "http://localhost:8888",
		MailFrom:  "admin@twitter.com",
	})
	return &fixture{svc: svc, users: users, posts: posts, mailer: mailer}
}

func validInput(name string) RegisterInput {
	return RegisterInput{
		Email:    name + "@example.com",
		Username: name,
		Fullname: "User " + name,
		Password: "hunter22",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.False(t, user.Confirmed)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	assert.Len(t, user.ConfirmHash, 64)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].HTML, "/auth/verify?hash="+user.ConfirmHash)
}

func TestRegisterConfirmHashesDiffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)
	b, err := f.svc.Register(ctx, validInput("bob"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ConfirmHash, b.ConfirmHash)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, validInput("alice"))
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Len(t, f.mailer.sent, 1)
}

func TestRegisterMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), validInput("alice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, f.mailer.err)
	assert.Len(t, f.mailer.sent, 1)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	verified, err := f.svc.Verify(ctx, user.ConfirmHash)
	require.NoError(t, err)
	assert.True(t, verified.Confirmed)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)

	again, err := f.svc.Verify(ctx, user.ConfirmHash)
	require.NoError(t, err)
	assert.True(t, again.Confirmed)

	_, err = f.svc.Verify(ctx, "not-a-hash")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)
	require.NoError(t, f.posts.Create(ctx, &domain.Post{ID: uuid.NewString(), AuthorID: user.ID, Text: "hello"}))

	got, err := f.svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got.Posts, 1)
	assert.Equal(t, "hello", got.Posts[0].Text)

	_, err = f.svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = f.svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := f.svc.Register(ctx, validInput(name))
		require.NoError(t, err)
	}

	users, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrNotConfirmed)

	_, err = f.svc.Verify(ctx, user.ConfirmHash)
	require.NoError(t, err)

	byName, err := f.svc.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := f.svc.Authenticate(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = f.svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	got, err := f.svc.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = f.svc.Current(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetAcceptsUUIDSpellings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, validInput("alice"))
	require.NoError(t, err)

	compact := strings.ReplaceAll(user.ID, "-", "")
	for _, id := range []string{
		strings.ToUpper(user.ID),
		compact,
		"{" + user.ID + "}",
		"urn:uuid:" + user.ID,
	} {
		got, err := f.svc.Get(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, user.ID, got.ID)
	}
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mailer.err = errors.New("smtp down")
	_, err := f.svc.Register(ctx, validInput("alice"))
	require.Error(t, err)

	f.mailer.err = nil
	require.NoError(t, f.svc.ResendVerification(ctx, "alice@example.com"))
	require.Len(t, f.mailer.sent, 2)

	stored, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, f.mailer.sent[1].HTML, stored.ConfirmHash)

	_, err = f.svc.Verify(ctx, stored.ConfirmHash)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.ResendVerification(ctx, "alice@example.com"), ErrAlreadyConfirmed)

	assert.ErrorIs(t, f.svc.ResendVerification(ctx, "nobody@example.com"), ErrUserNotFound)
}
