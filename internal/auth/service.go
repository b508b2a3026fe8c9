package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/store"
)

var (
	// ErrUnauthorized is returned when no rank can be resolved for the caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserExists is returned when trying to create an existing user.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidName is returned when a user name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidCredential is returned when a credential is empty.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Identity is a resolved, ranked user.
type Identity struct {
	Name string
	Rank int
}

// User converts the identity into the core user model.
func (i Identity) User() core.User {
	return core.User{Name: i.Name, Rank: i.Rank}
}

// Service resolves ranks and issues tokens.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// CreateUser provisions a user with a credential and a rank.
func (s *Service) CreateUser(ctx context.Context, name, credential string, rank int) (*store.User, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 32 {
		return nil, ErrInvalidName
	}
	if credential == "" {
		return nil, ErrInvalidCredential
	}

	if existing, err := s.store.GetUserByName(ctx, name); err == nil && existing != nil {
		return nil, ErrUserExists
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := HashCredential(credential)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, name, hashed, rank)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// ResolveRank returns the rank of name if credentialHash matches.
// ok is false when the caller cannot be authenticated; err is reserved for
// storage failures.
func (s *Service) ResolveRank(ctx context.Context, name, credentialHash string) (rank int, ok bool, err error) {
	user, err := s.store.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lookup user: %w", err)
	}

	if errCmp := CompareCredential(user.CredentialHash, credentialHash); errCmp != nil {
		return 0, false, nil
	}
	return user.Rank, true, nil
}

// Salute resolves the caller's rank and issues a token carrying it.
func (s *Service) Salute(ctx context.Context, name, credentialHash string) (Identity, string, error) {
	rank, ok, err := s.ResolveRank(ctx, name, credentialHash)
	if err != nil {
		return Identity{}, "", err
	}
	if !ok {
		return Identity{}, "", ErrUnauthorized
	}

	id := Identity{Name: strings.TrimSpace(name), Rank: rank}
	token, err := GenerateToken(s.jwtConfig, id)
	if err != nil {
		return Identity{}, "", fmt.Errorf("generate token: %w", err)
	}
	return id, token, nil
}

// Authenticate validates a token and returns the identity it carries.
func (s *Service) Authenticate(tokenString string) (Identity, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return Identity{Name: claims.Name, Rank: claims.Rank}, nil
}
