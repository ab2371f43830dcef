package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"twitter-clone/internal/domain"
	"twitter-clone/internal/mail"
	"twitter-clone/internal/repository"
)

var (
	// ErrInvalidID indicates the identifier is not a well-formed user id.
	ErrInvalidID = errors.New("invalid user id")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when the email or username is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfirmed is returned on login before the email was verified.
	ErrNotConfirmed = errors.New("email not confirmed")
	// ErrAlreadyConfirmed is returned when resending to a verified account.
	ErrAlreadyConfirmed = errors.New("email already confirmed")
)

// RegisterInput carries the already validated registration form.
type RegisterInput struct {
	Email    string
	Username string
	Fullname string
	Password string
}

// UserService describes user account operations.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Verify(ctx context.Context, hash string) (*domain.User, error)
	// ResendVerification mails the stored confirmation link again to an
	// account that has not been verified yet.
	ResendVerification(ctx context.Context, email string) error
	Authenticate(ctx context.Context, login, password string) (*domain.User, error)
	Current(ctx context.Context, id string) (*domain.User, error)
}

// UserServiceConfig holds the settings the service needs at construction.
type UserServiceConfig struct {
	Secret    string
	PublicURL string
	MailFrom  string
}

type userService struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	mailer mail.Mailer
	cfg    UserServiceConfig
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository, mailer mail.Mailer, cfg UserServiceConfig) UserService {
	return &userService{
		users:  users,
		posts:  posts,
		mailer: mailer,
		cfg:    cfg,
	}
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	// ids are stored in canonical form
	user, err := userOrNotFound(s.users.GetByID(ctx, parsed.String()))
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Posts = posts
	return user, nil
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	confirmHash, err := s.newConfirmHash()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(in.Email),
		Username:     strings.TrimSpace(in.Username),
		Fullname:     strings.TrimSpace(in.Fullname),
		PasswordHash: string(hash),
		ConfirmHash:  confirmHash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ResendVerification(ctx context.Context, email string) error {
	user, err := userOrNotFound(s.users.GetByEmail(ctx, strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user.Confirmed {
		return ErrAlreadyConfirmed
	}
	return s.sendVerification(ctx, user)
}

func (s *userService) sendVerification(ctx context.Context, user *domain.User) error {
	msg, err := mail.VerificationMessage(s.cfg.MailFrom, user.Email, s.cfg.PublicURL, user.ConfirmHash)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (s *userService) Verify(ctx context.Context, hash string) (*domain.User, error) {
	user, err := userOrNotFound(s.users.GetByConfirmHash(ctx, hash))
	if err != nil {
		return nil, err
	}

	if err := s.users.SetConfirmed(ctx, user.ID); err != nil {
		return nil, err
	}
	user.Confirmed = true
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Confirmed {
		return nil, ErrNotConfirmed
	}
	return user, nil
}

func (s *userService) Current(ctx context.Context, id string) (*domain.User, error) {
	return userOrNotFound(s.users.GetByID(ctx, id))
}

func userOrNotFound(user *domain.User, err error) (*domain.User, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// newConfirmHash keys a random nonce with the server secret.
func (s *userService) newConfirmHash() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate confirm nonce: %w", err)
	}
	h := hmac.New(sha256.New, []byte(s.cfg.Secret))
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil)), nil
}
