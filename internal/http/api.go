package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"placeshare/internal/auth"
	"placeshare/internal/domain"
	"placeshare/internal/metrics"
	"placeshare/internal/service"
)

// AuthHeader carries the identity token on protected routes.
const AuthHeader = "x-auth-token"

const userIDKey = "user_id"

// RateLimit bounds unauthenticated credential endpoints per client IP.
// RPS <= 0 disables limiting.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	places  service.PlaceService
	tokens  *auth.TokenIssuer
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	limiter *rateLimiter
}

func NewHandler(
	users service.UserService,
	places service.PlaceService,
	tokens *auth.TokenIssuer,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	limit RateLimit,
) *Handler {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Handler{
		users:   users,
		places:  places,
		tokens:  tokens,
		metrics: m,
		logger:  logger,
		limiter: newRateLimiter(limit.RPS, limit.Burst),
	}
}

// NewEngine returns a gin engine with panic recovery. Forwarding headers
// (X-Forwarded-For, X-Real-IP) are honoured only from trustedProxies; with
// none, the client IP is the socket peer.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if len(trustedProxies) == 0 {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	return router, nil
}

// StartRateLimitCleanup evicts idle per-client buckets every interval until
// ctx is done.
func (h *Handler) StartRateLimitCleanup(ctx context.Context, interval time.Duration) {
	h.limiter.startCleanup(ctx, interval)
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), h.requestLogger(), h.instrument())
	router.NoRoute(func(c *gin.Context) {
		h.writeError(c, domain.NewError(domain.KindNotFound, "could not find this route", nil))
	})
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		api.POST("/users", h.limiter.middleware(), h.register)
		api.GET("/users", h.listUsers)

		api.POST("/auth", h.limiter.middleware(), h.login)
		api.GET("/auth", h.protected(h.currentUser))

		api.GET("/places/user/:uid", h.listUserPlaces)
		api.GET("/places/:pid", h.getPlace)
		api.POST("/places", h.protected(h.createPlace))
		api.PATCH("/places/:pid", h.protected(h.updatePlace))
		api.DELETE("/places/:pid", h.protected(h.deletePlace))
	}
}

// protected runs the authenticate step and hands the verified identity to
// next. Ownership is checked by the place service once the resource is loaded.
func (h *Handler) protected(next func(c *gin.Context, userID string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := h.tokens.Verify(c.GetHeader(AuthHeader))
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), userID))
		next(c, userID)
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type createPlaceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Address     string `json:"address" binding:"required"`
	Image       string `json:"image" binding:"required"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondToken(c, user.ID)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondToken(c, user.ID)
}

func (h *Handler) respondToken(c *gin.Context, userID string) {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		h.writeError(c, domain.Server("issue token", err))
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) currentUser(c *gin.Context, userID string) {
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) listUserPlaces(c *gin.Context) {
	uid, err := pathID(c, "uid")
	if err != nil {
		h.writeError(c, err)
		return
	}

	places, err := h.places.ListByUser(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]PlaceResponse, len(places))
	for i := range places {
		resp[i] = placeToResponse(places[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPlace(c *gin.Context) {
	pid, err := pathID(c, "pid")
	if err != nil {
		h.writeError(c, err)
		return
	}

	place, err := h.places.GetPlace(c.Request.Context(), pid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, placeToResponse(*place))
}

func (h *Handler) createPlace(c *gin.Context, userID string) {
	var req createPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	place, err := h.places.CreatePlace(c.Request.Context(), userID, domain.PlaceAttributes{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Image:       req.Image,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, placeToResponse(*place))
}

func (h *Handler) updatePlace(c *gin.Context, userID string) {
	pid, err := pathID(c, "pid")
	if err != nil {
		h.writeError(c, err)
		return
	}
	var req updatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	place, err := h.places.UpdatePlace(c.Request.Context(), pid, userID, req.Title, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, placeToResponse(*place))
}

func (h *Handler) deletePlace(c *gin.Context, userID string) {
	pid, err := pathID(c, "pid")
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.places.DeletePlace(c.Request.Context(), pid, userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "deleted place"})
}

// pathID returns the canonical form of a UUID path parameter.
func pathID(c *gin.Context, name string) (string, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", domain.ErrInvalidID.Wrap(err)
	}
	return id.String(), nil
}
