// Admin HTTP handlers.
//
// Endpoints (mounted under <base>/admin, bearer-token protected):
//   - GET    /settings
//   - PATCH  /settings
//   - GET    /bans              (paginated)
//   - PUT    /bans/{user_id}
//   - DELETE /bans/{user_id}
//   - GET    /stats/messages
//   - DELETE /stats/messages    (returns the counts before the reset)
//   - GET    /stats/rate
//
// The slash commands call the same AdminService, so both surfaces share
// validation and error semantics.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/services"
	"github.com/tbourn/go-tellonym/internal/utils"
)

// AdminService is the subset of *services.AdminService the API exposes.
type AdminService interface {
	Config(ctx context.Context) (domain.Config, error)
	Update(ctx context.Context, p domain.ConfigPatch) (domain.Config, error)
	Ban(ctx context.Context, userID string) error
	Unban(ctx context.Context, userID string) error
	ListBans(ctx context.Context, offset, limit int) ([]domain.BannedUser, int64, error)
	MessageStats(ctx context.Context) (services.MessageStats, error)
	ResetMessageStats(ctx context.Context) (services.MessageStats, error)
	RateStats(ctx context.Context) (services.RateStats, error)
}

// Handlers groups the admin endpoints.
type Handlers struct {
	admin AdminService
}

// New binds the admin endpoints to svc.
func New(svc AdminService) *Handlers {
	return &Handlers{admin: svc}
}

//
// DTOs
//

// SettingsResponse is the deployment configuration as seen by an admin.
type SettingsResponse struct {
	domain.Config
	BannedCount int `json:"banned_count"`
}

// UpdateSettingsRequest is a partial settings update. Absent fields are kept.
// An empty channel id clears that destination. A rate field given alone is
// merged with the stored policy.
type UpdateSettingsRequest struct {
	LogChannelID      *string `json:"log_channel_id"`
	AdminLogChannelID *string `json:"admin_log_channel_id"`
	Enabled           *bool   `json:"enabled"`
	RateLimit         *int    `json:"rate_limit"          binding:"omitempty,gte=0,lte=1000"`
	RateWindowMinutes *int    `json:"rate_window_minutes" binding:"omitempty,gt=0,lte=10080"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListBansResponse wraps a page of banned users.
type ListBansResponse struct {
	Bans       []domain.BannedUser `json:"bans"`
	Pagination Pagination          `json:"pagination"`
}

//
// Helpers
//

// clampPagination bounds the page and page_size query params.
func clampPagination(c *gin.Context) utils.Page {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

// failService maps a service error onto a status and code.
func failService(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrAlreadyBanned):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrNotBanned):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

func settingsResponse(cfg domain.Config) SettingsResponse {
	return SettingsResponse{Config: cfg, BannedCount: len(cfg.BannedUsers)}
}

//
// Handlers
//

// GetSettings godoc
// @ID          getSettings
// @Summary     Read deployment settings
// @Description Returns log destinations, the enabled flag, the rate policy and the ban count.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.SettingsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	cfg, err := h.admin.Config(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, settingsResponse(cfg))
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Update deployment settings
// @Description Applies a partial update. Absent fields are kept; a lone rate field is merged with the stored policy.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdateSettingsRequest  true  "Settings patch"
//
// @Success     200  {object}  handlers.SettingsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/settings [patch]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid settings payload")
		return
	}
	ctx := c.Request.Context()

	p := domain.ConfigPatch{
		LogChannelID:      req.LogChannelID,
		AdminLogChannelID: req.AdminLogChannelID,
		Enabled:           req.Enabled,
	}
	if req.RateLimit != nil || req.RateWindowMinutes != nil {
		cur, err := h.admin.Config(ctx)
		if err != nil {
			failService(c, err)
			return
		}
		policy := cur.RatePolicy
		if req.RateLimit != nil {
			policy.Limit = *req.RateLimit
		}
		if req.RateWindowMinutes != nil {
			policy.WindowMinutes = *req.RateWindowMinutes
		}
		p.RatePolicy = &policy
	}

	cfg, err := h.admin.Update(ctx, p)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, settingsResponse(cfg))
}

// ListBans godoc
// @ID          listBans
// @Summary     List banned users
// @Description Returns a page of banned users, oldest first.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       page       query  int  false  "Page number (1-based)"    minimum(1)  default(1)
// @Param       page_size  query  int  false  "Items per page (max 100)" minimum(1)  maximum(100)  default(20)
//
// @Success     200  {object}  handlers.ListBansResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/bans [get]
func (h *Handlers) ListBans(c *gin.Context) {
	pg := clampPagination(c)
	items, total, err := h.admin.ListBans(c.Request.Context(), pg.Offset(), pg.Size)
	if err != nil {
		failService(c, err)
		return
	}
	totalPages := pg.TotalPages(total)
	ok(c, http.StatusOK, ListBansResponse{
		Bans: items,
		Pagination: Pagination{
			Page:       pg.Number,
			PageSize:   pg.Size,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    pg.Number < totalPages,
		},
	})
}

// Ban godoc
// @ID          banUser
// @Summary     Ban a user
// @Description Bars the user from composing notes.
// @Tags        Admin
// @Security    BearerAuth
//
// @Param       user_id  path  string  true  "Platform user id"
//
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid user id"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     409  {object}  handlers.ErrorResponse  "Already banned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/bans/{user_id} [put]
func (h *Handlers) Ban(c *gin.Context) {
	if err := h.admin.Ban(c.Request.Context(), c.Param("user_id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// Unban godoc
// @ID          unbanUser
// @Summary     Unban a user
// @Tags        Admin
// @Security    BearerAuth
//
// @Param       user_id  path  string  true  "Platform user id"
//
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid user id"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Not banned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/bans/{user_id} [delete]
func (h *Handlers) Unban(c *gin.Context) {
	if err := h.admin.Unban(c.Request.Context(), c.Param("user_id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// MessageStats godoc
// @ID          messageStats
// @Summary     Published note counts
// @Description Returns the number of published notes per type and in total.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.MessageStats
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/stats/messages [get]
func (h *Handlers) MessageStats(c *gin.Context) {
	st, err := h.admin.MessageStats(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// ResetMessageStats godoc
// @ID          resetMessageStats
// @Summary     Reset note counts
// @Description Zeroes the per-type counters and returns their previous values.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.MessageStats
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/stats/messages [delete]
func (h *Handlers) ResetMessageStats(c *gin.Context) {
	st, err := h.admin.ResetMessageStats(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// RateStats godoc
// @ID          rateStats
// @Summary     Rate limit statistics
// @Description Reports the rate policy, tracked senders and how many are at the limit.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.RateStats
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/stats/rate [get]
func (h *Handlers) RateStats(c *gin.Context) {
	st, err := h.admin.RateStats(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}
