package endpoint

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forbearing/jvspatial/audit"
	"github.com/forbearing/jvspatial/authn"
	"github.com/forbearing/jvspatial/authn/jwt"
	"github.com/forbearing/jvspatial/authz/rbac"
	"github.com/forbearing/jvspatial/config"
	"github.com/forbearing/jvspatial/entity"
	"github.com/forbearing/jvspatial/response"
	"github.com/forbearing/jvspatial/storage"
)

// serviceInfo backs GET /, the fixed service-metadata banner the
// ancestor project's router prints for its own root route.
type serviceInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// RegisterBuiltins mounts the fixed routes spec.md §6 names — service
// metadata, health, and the full auth/admin surface — directly onto
// group, bypassing the user-registration Register/Lookup path since
// these never need rate-limit/role overrides beyond what's hardcoded
// here.
func RegisterBuiltins(group *gin.RouterGroup, app config.AppInfo, a storage.Adapter) {
	group.GET("/", func(c *gin.Context) {
		response.Success(c, serviceInfo{Name: app.Name, Version: app.Version, Mode: string(app.Mode)}, "", nil)
	})

	group.GET("/health", func(c *gin.Context) { healthCheck(c, a, app) })

	auth := group.Group("/api/auth")
	auth.POST("/register", func(c *gin.Context) { registerUser(c, a) })
	auth.POST("/login", func(c *gin.Context) { login(c, a) })
	auth.POST("/refresh", func(c *gin.Context) { refresh(c, a) })
	auth.POST("/logout", logout)
	auth.GET("/profile", func(c *gin.Context) { getProfile(c, a) })
	auth.PUT("/profile", func(c *gin.Context) { updateProfile(c, a) })

	auth.POST("/api-keys", func(c *gin.Context) { createAPIKey(c, a) })
	auth.GET("/api-keys", func(c *gin.Context) { listAPIKeys(c, a) })
	auth.DELETE("/api-keys/:id", func(c *gin.Context) { deleteAPIKey(c, a) })

	admin := auth.Group("/admin/users")
	admin.GET("", func(c *gin.Context) { adminListUsers(c, a) })
	admin.POST("", func(c *gin.Context) { adminCreateUser(c, a) })
	admin.PATCH("/:id", func(c *gin.Context) { adminUpdateUser(c, a) })
	admin.DELETE("/:id", func(c *gin.Context) { adminDeleteUser(c, a) })

	group.GET("/api/logs", func(c *gin.Context) { listLogs(c, a) })
}

func healthCheck(c *gin.Context, a storage.Adapter, app config.AppInfo) {
	body := gin.H{
		"status":   "ok",
		"database": "ok",
		"service":  app.Name,
		"version":  app.Version,
	}
	root, err := entity.Get[*entity.Root](c.Request.Context(), entity.RootID)
	if err != nil {
		body["status"], body["database"] = "degraded", "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	if root != nil {
		body["root_node"] = root.GetID()
	}
	c.JSON(http.StatusOK, body)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// registerUser implements spec.md §8's "first-user bootstrap": the
// first account ever created becomes admin unconditionally; every
// subsequent call requires the caller to already be admin.
func registerUser(c *gin.Context, a storage.Adapter) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid registration payload", nil)
		return
	}

	n, err := a.Count(c.Request.Context(), authn.UserCollection, nil)
	if err != nil {
		response.Internal(c, err)
		return
	}
	if n > 0 {
		// The register path is exempt from AuthPipeline, so credentials
		// sent with the request are verified here.
		id, ok := currentIdentity(c)
		if !ok && (c.GetHeader("Authorization") != "" || c.GetHeader("X-API-Key") != "") {
			if id, ok = authenticate(c, a); !ok {
				return // authenticate already wrote the response
			}
		}
		if !ok || !id.hasRole([]string{authn.AdminRole}) {
			response.Forbidden(c, "registration is restricted to administrators")
			return
		}
	}

	u := &authn.User{Username: req.Username, Email: req.Email}
	if err := u.SetPassword(req.Password); err != nil {
		response.Internal(c, err)
		return
	}
	if err := authn.CreateUser(c.Request.Context(), a, u); err != nil {
		response.Conflict(c, "username already registered")
		return
	}
	if u.HasRole(authn.AdminRole) {
		ensureRBACAdmin(u.ID)
	}
	_ = audit.Record(c.Request.Context(), &audit.Entry{Category: "auth", Message: "user registered", AgentID: u.ID})
	response.Created(c, u, nil)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
}

// login issues an access/refresh pair. Per spec.md §6, login succeeds
// even when refresh-token generation fails — the caller just gets
// refresh_token=null in that case, rather than a denied login.
func login(c *gin.Context, a storage.Adapter) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid login payload", nil)
		return
	}
	u, err := authn.GetUserByUsername(c.Request.Context(), a, req.Username)
	if err != nil || u == nil || u.Disabled || !u.CheckPassword(req.Password) {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	access, refresh, err := jwt.GenTokens(u.ID, u.Username, u.Roles, u.Permissions)
	if err != nil {
		response.Unauthorized(c, "failed to issue access token")
		return
	}
	resp := tokenResponse{AccessToken: access, TokenType: "Bearer", ExpiresIn: 15 * 60}
	if refresh != "" {
		resp.RefreshToken = &refresh
	}
	_ = audit.Record(c.Request.Context(), &audit.Entry{Category: "auth", Message: "login", AgentID: u.ID})
	response.Success(c, resp, "", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func refresh(c *gin.Context, a storage.Adapter) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid refresh payload", nil)
		return
	}
	claims, err := jwt.ParseToken(req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "invalid or expired refresh token")
		return
	}
	u, err := authn.GetUser(c.Request.Context(), a, claims.Subject)
	if err != nil || u == nil || u.Disabled {
		response.Unauthorized(c, "account no longer available")
		return
	}
	access, newRefresh, err := jwt.GenTokens(u.ID, u.Username, u.Roles, u.Permissions)
	if err != nil {
		response.Internal(c, err)
		return
	}
	resp := tokenResponse{AccessToken: access, TokenType: "Bearer", ExpiresIn: 15 * 60}
	if newRefresh != "" {
		resp.RefreshToken = &newRefresh
	}
	response.Success(c, resp, "", nil)
}

func logout(c *gin.Context) {
	if token, _, err := jwt.ParseTokenFromHeader(c.Request.Header); err == nil {
		jwt.RevokeTokens(token)
	}
	response.NoContent(c, nil)
}

func getProfile(c *gin.Context, a storage.Adapter) {
	id, ok := currentIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	u, err := authn.GetUser(c.Request.Context(), a, id.UserID)
	if err != nil || u == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, u, "", nil)
}

type updateProfileRequest struct {
	Email string `json:"email"`
}

func updateProfile(c *gin.Context, a storage.Adapter) {
	id, ok := currentIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid profile payload", nil)
		return
	}
	u, err := authn.GetUser(c.Request.Context(), a, id.UserID)
	if err != nil || u == nil {
		response.NotFound(c, "user not found")
		return
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if err := authn.SaveUser(c.Request.Context(), a, u); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, u, "", nil)
}

type createAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

type apiKeyResponse struct {
	*authn.APIKey
	Secret string `json:"secret"`
}

func createAPIKey(c *gin.Context, a storage.Adapter) {
	id, ok := currentIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid api key payload", nil)
		return
	}
	secret, rec, err := authn.NewAPIKey(id.UserID, req.Name)
	if err != nil {
		response.Internal(c, err)
		return
	}
	if err := authn.SaveAPIKey(c.Request.Context(), a, rec); err != nil {
		response.Internal(c, err)
		return
	}
	response.Created(c, apiKeyResponse{APIKey: rec, Secret: secret}, nil)
}

func listAPIKeys(c *gin.Context, a storage.Adapter) {
	id, ok := currentIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	keys, err := authn.ListAPIKeys(c.Request.Context(), a, id.UserID)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, keys, "", nil)
}

func deleteAPIKey(c *gin.Context, a storage.Adapter) {
	id, ok := currentIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	keyID := c.Param("id")
	keys, err := authn.ListAPIKeys(c.Request.Context(), a, id.UserID)
	if err != nil {
		response.Internal(c, err)
		return
	}
	owned := false
	for _, k := range keys {
		if k.ID == keyID {
			owned = true
			break
		}
	}
	if !owned {
		response.NotFound(c, "api key not found")
		return
	}
	if _, err := authn.DeleteAPIKey(c.Request.Context(), a, keyID); err != nil {
		response.Internal(c, err)
		return
	}
	response.NoContent(c, nil)
}

func adminListUsers(c *gin.Context, a storage.Adapter) {
	if !requireRole(c, authn.AdminRole) {
		return
	}
	users, err := authn.ListUsers(c.Request.Context(), a, storage.FindOptions{})
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, users, "", nil)
}

type adminCreateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email"`
	Password string   `json:"password" binding:"required"`
	Roles    []string `json:"roles"`
}

func adminCreateUser(c *gin.Context, a storage.Adapter) {
	if !requireRole(c, authn.AdminRole) {
		return
	}
	var req adminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid user payload", nil)
		return
	}
	u := &authn.User{Username: req.Username, Email: req.Email, Roles: req.Roles}
	if err := u.SetPassword(req.Password); err != nil {
		response.Internal(c, err)
		return
	}
	if err := authn.CreateUser(c.Request.Context(), a, u); err != nil {
		response.Conflict(c, "username already registered")
		return
	}
	for _, r := range u.Roles {
		_ = rbac.New().AssignRole(u.ID, r)
	}
	response.Created(c, u, nil)
}

type adminUpdateUserRequest struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Disabled    *bool    `json:"disabled"`
}

func adminUpdateUser(c *gin.Context, a storage.Adapter) {
	if !requireRole(c, authn.AdminRole) {
		return
	}
	u, err := authn.GetUser(c.Request.Context(), a, c.Param("id"))
	if err != nil || u == nil {
		response.NotFound(c, "user not found")
		return
	}
	var req adminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid update payload", nil)
		return
	}
	if req.Roles != nil {
		u.Roles = req.Roles
	}
	if req.Permissions != nil {
		u.Permissions = req.Permissions
	}
	if req.Disabled != nil {
		u.Disabled = *req.Disabled
	}
	if err := authn.SaveUser(c.Request.Context(), a, u); err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, u, "", nil)
}

func adminDeleteUser(c *gin.Context, a storage.Adapter) {
	if !requireRole(c, authn.AdminRole) {
		return
	}
	if _, err := authn.DeleteUser(c.Request.Context(), a, c.Param("id")); err != nil {
		response.Internal(c, err)
		return
	}
	response.NoContent(c, nil)
}

func listLogs(c *gin.Context, a storage.Adapter) {
	if !requireRole(c, authn.AdminRole) {
		return
	}
	category := c.Query("category")
	agentID := c.Query("agent_id")
	start, _ := time.Parse(time.RFC3339, c.Query("start_date"))
	end, _ := time.Parse(time.RFC3339, c.Query("end_date"))
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	entries, total, err := audit.List(c.Request.Context(), a, category, agentID, start, end, page, pageSize)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries, "total": total, "page": page, "page_size": pageSize}, "", nil)
}
