package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/contacthub/backend/internal/model"
	"github.com/google/uuid"
)

type AvatarStore interface {
	UpdateAvatar(ctx context.Context, email, avatarURL string) (*model.User, error)
}

// UserService stores uploaded avatars under a configured directory, served by
// the static /avatars route.
type UserService struct {
	store     AvatarStore
	avatarDir string
	baseURL   string
}

func NewUserService(store AvatarStore, avatarDir, baseURL string) *UserService {
	return &UserService{
		store:     store,
		avatarDir: avatarDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (s *UserService) UpdateAvatar(ctx context.Context, user *model.User, src io.Reader, ext string) (*model.User, error) {
	if user.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	if err := os.MkdirAll(s.avatarDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(ext)
	path := filepath.Join(s.avatarDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write avatar file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	return s.store.UpdateAvatar(ctx, user.Email, s.baseURL+"/avatars/"+name)
}
