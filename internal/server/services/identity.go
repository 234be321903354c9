package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/anoninbox/internal/common"
	"github.com/dmitrijs2005/anoninbox/internal/dbx"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/dmitrijs2005/anoninbox/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// IdentityStore registers and authenticates users. Every new user gets their
// first link from the LinkRegistry in the same transaction.
type IdentityStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	links       *LinkRegistry
	bcryptCost  int
}

func NewIdentityStore(db *sql.DB, m repomanager.RepositoryManager, links *LinkRegistry, bcryptCost int) *IdentityStore {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &IdentityStore{
		db:          db,
		repomanager: m,
		links:       links,
		bcryptCost:  bcryptCost,
	}
}

// CreateLocalUser registers a password-backed user. Usernames are compared
// exactly; a clash yields common.ErrDuplicateUsername.
func (s *IdentityStore) CreateLocalUser(ctx context.Context, userName, password string) (*models.User, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		return nil, common.ErrorInternal
	}

	user, err := models.NewLocalUser(userName, hash)
	if err != nil {
		return nil, err
	}

	return s.links.createOwner(ctx, func(ctx context.Context, tx dbx.DBTX) (*models.User, bool, error) {
		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return nil, false, common.ErrDuplicateUsername
			}
			return nil, false, fmt.Errorf("error creating user: %w", err)
		}
		return u, true, nil
	})
}

// CreateOrGetExternalUser returns the user bound to a verified email,
// creating it on first sight. The username is the local part of the email,
// suffixed with 2, 3, ... when already taken.
func (s *IdentityStore) CreateOrGetExternalUser(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return nil, fmt.Errorf("%w: malformed email %q", common.ErrInvalidInput, email)
	}

	return s.links.createOwner(ctx, func(ctx context.Context, tx dbx.DBTX) (*models.User, bool, error) {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, false, err
		}

		for n := 1; ; n++ {
			name := local
			if n > 1 {
				name += strconv.Itoa(n)
			}

			_, err := repo.GetByUsername(ctx, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return nil, false, err
			}

			user, err := models.NewExternalUser(name, email)
			if err != nil {
				return nil, false, err
			}
			u, err := repo.Create(ctx, user)
			if err != nil {
				return nil, false, fmt.Errorf("error creating user: %w", err)
			}
			return u, true, nil
		}
	})
}

// Authenticate verifies a local user's password. Unknown users, external
// users and wrong passwords all yield common.ErrInvalidCredentials.
func (s *IdentityStore) Authenticate(ctx context.Context, userName, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if user.IsExternal() || len(user.PasswordHash) == 0 {
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

func (s *IdentityStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *IdentityStore) GetByUsername(ctx context.Context, userName string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByUsername(ctx, userName)
}
