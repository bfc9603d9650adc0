package repository

import (
	"Uplink-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrCodeTaken     = errors.New("short code already taken")
	ErrTokenNotFound = errors.New("api token not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
)

type Storage interface {
	// User methods
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// Link methods.
	// CreateLink is the uniqueness enforcement point: it returns ErrCodeTaken
	// when the store rejects a duplicate short code. CodeExists is advisory only.
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLinkByCode(ctx context.Context, code string) (*domain.Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	DeleteLink(ctx context.Context, code string, userID int64) error
	ListUserLinks(ctx context.Context, userID int64) ([]*domain.Link, error)

	// Click methods.
	// RecordClick inserts the click and increments the link counter atomically
	// (server-side increment, never read-modify-write).
	RecordClick(ctx context.Context, click *domain.Click) error
	UpdateClickAgent(ctx context.Context, clickID int64, deviceType, browser, os string) error
	CountClicks(ctx context.Context, linkID int64) (int64, error)
	GetClicksByDevice(ctx context.Context, linkID int64) (map[string]int64, error)

	// API token methods
	CreateToken(ctx context.Context, token *domain.APIToken) error
	GetTokenByHash(ctx context.Context, hash string) (*domain.APIToken, error)
	ListUserTokens(ctx context.Context, userID int64) ([]*domain.APIToken, error)
	RevokeToken(ctx context.Context, id string, userID int64) error
	DeleteToken(ctx context.Context, id string, userID int64) error
	TouchToken(ctx context.Context, id string, usedAt time.Time) error
}
