// Package bookmark 管理按会话保存的职业收藏。收藏只是交付层状态，
// 推荐核心不读取它；读取时按当前目录校验并清理失效标题。
package bookmark

import (
	"context"
	"sort"
	"strings"

	"career-guide-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

// TitleLookup 目录标题查找，由 catalog.Catalog 实现
type TitleLookup interface {
	Lookup(title string) (*types.CareerRecord, bool)
}

// Service 收藏服务
type Service struct {
	store   Store
	catalog TitleLookup
	logger  zerolog.Logger
}

func NewService(store Store, catalog TitleLookup, logger zerolog.Logger) *Service {
	return &Service{store: store, catalog: catalog, logger: logger}
}

// NewSessionID 生成新的会话 ID (UUIDv4)
func NewSessionID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func validateSession(op, sessionID string) error {
	if _, err := uuid.FromString(sessionID); err != nil {
		return types.NewValidationError(op, "session_id 不是合法的 UUID")
	}
	return nil
}

// canonical 将标题规范为目录中的写法，不存在时返回 NotFound
func (s *Service) canonical(op, title string) (string, error) {
	record, ok := s.catalog.Lookup(title)
	if !ok {
		return "", types.NewNotFoundError(op, title)
	}
	return record.Title, nil
}

// Toggle 切换收藏状态并返回新状态
func (s *Service) Toggle(ctx context.Context, sessionID, title string) (*types.BookmarkToggleResponse, error) {
	const op = "Bookmark.Toggle"
	if err := validateSession(op, sessionID); err != nil {
		return nil, err
	}
	canonical, err := s.canonical(op, title)
	if err != nil {
		return nil, err
	}

	bookmarked, err := s.store.Toggle(ctx, sessionID, canonical)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("session_id", sessionID).Str("title", canonical).Bool("bookmarked", bookmarked).Msg("收藏状态已切换")
	return &types.BookmarkToggleResponse{SessionID: sessionID, Title: canonical, Bookmarked: bookmarked}, nil
}

// Add 收藏标题，重复收藏幂等
func (s *Service) Add(ctx context.Context, sessionID, title string) (*types.BookmarkToggleResponse, error) {
	const op = "Bookmark.Add"
	if err := validateSession(op, sessionID); err != nil {
		return nil, err
	}
	canonical, err := s.canonical(op, title)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, sessionID, canonical); err != nil {
		return nil, err
	}
	return &types.BookmarkToggleResponse{SessionID: sessionID, Title: canonical, Bookmarked: true}, nil
}

// Remove 取消收藏。目录中已不存在的标题按原文移除，便于清理失效收藏
func (s *Service) Remove(ctx context.Context, sessionID, title string) (*types.BookmarkToggleResponse, error) {
	const op = "Bookmark.Remove"
	if err := validateSession(op, sessionID); err != nil {
		return nil, err
	}
	target := strings.TrimSpace(title)
	if record, ok := s.catalog.Lookup(title); ok {
		target = record.Title
	}
	if _, err := s.store.Remove(ctx, sessionID, target); err != nil {
		return nil, err
	}
	return &types.BookmarkToggleResponse{SessionID: sessionID, Title: target, Bookmarked: false}, nil
}

// List 返回按字母序排列的有效收藏；目录中已不存在的标题从存储中删除并在 Dropped 中返回
func (s *Service) List(ctx context.Context, sessionID string) (*types.BookmarkListResponse, error) {
	const op = "Bookmark.List"
	if err := validateSession(op, sessionID); err != nil {
		return nil, err
	}
	stored, err := s.store.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &types.BookmarkListResponse{SessionID: sessionID, Titles: make([]string, 0, len(stored))}
	for _, title := range stored {
		if record, ok := s.catalog.Lookup(title); ok && record.Title == title {
			resp.Titles = append(resp.Titles, title)
			continue
		}
		resp.Dropped = append(resp.Dropped, title)
	}
	sort.Strings(resp.Titles)
	sort.Strings(resp.Dropped)

	if len(resp.Dropped) > 0 {
		if _, err := s.store.Remove(ctx, sessionID, resp.Dropped...); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("清理失效收藏失败")
		} else {
			s.logger.Info().Str("session_id", sessionID).Strs("dropped", resp.Dropped).Msg("已清理失效收藏")
		}
	}
	return resp, nil
}

// Clear 清空会话收藏
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession("Bookmark.Clear", sessionID); err != nil {
		return err
	}
	return s.store.Clear(ctx, sessionID)
}
