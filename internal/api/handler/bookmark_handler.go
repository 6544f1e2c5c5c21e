package handler

import (
	"context"

	"career-guide-go/internal/bookmark"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// BookmarkHandler 会话收藏接口
type BookmarkHandler struct {
	svc *bookmark.Service
}

func NewBookmarkHandler(svc *bookmark.Service) *BookmarkHandler {
	return &BookmarkHandler{svc: svc}
}

// SessionResponse 新建会话响应
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// HandleCreateSession POST /api/v1/sessions
func (h *BookmarkHandler) HandleCreateSession(ctx context.Context, c *app.RequestContext) {
	id, err := bookmark.NewSessionID()
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, SessionResponse{SessionID: id})
}

// HandleListBookmarks GET /api/v1/sessions/:session_id/bookmarks
func (h *BookmarkHandler) HandleListBookmarks(ctx context.Context, c *app.RequestContext) {
	resp, err := h.svc.List(ctx, c.Param("session_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleToggleBookmark POST /api/v1/sessions/:session_id/bookmarks/:title
func (h *BookmarkHandler) HandleToggleBookmark(ctx context.Context, c *app.RequestContext) {
	resp, err := h.svc.Toggle(ctx, c.Param("session_id"), c.Param("title"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleAddBookmark PUT /api/v1/sessions/:session_id/bookmarks/:title
func (h *BookmarkHandler) HandleAddBookmark(ctx context.Context, c *app.RequestContext) {
	resp, err := h.svc.Add(ctx, c.Param("session_id"), c.Param("title"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleRemoveBookmark DELETE /api/v1/sessions/:session_id/bookmarks/:title
func (h *BookmarkHandler) HandleRemoveBookmark(ctx context.Context, c *app.RequestContext) {
	resp, err := h.svc.Remove(ctx, c.Param("session_id"), c.Param("title"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleClearBookmarks DELETE /api/v1/sessions/:session_id/bookmarks
func (h *BookmarkHandler) HandleClearBookmarks(ctx context.Context, c *app.RequestContext) {
	if err := h.svc.Clear(ctx, c.Param("session_id")); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.SetStatusCode(consts.StatusNoContent)
}
