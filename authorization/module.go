package authorization

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agenthub_back/httperr"
	"agenthub_back/storage"
)

const (
	identityClaimKey = "user_id"
	roleClaimKey     = "role"
	defaultTimeout   = time.Hour
)

// Module wires together the JWT middleware and the account store.
type Module struct {
	db            *gorm.DB
	users         *UserStore
	jwtMiddleware *jwt.GinJWTMiddleware
	captcha       *CaptchaStore
}

// RegisterRoutes opens the database, migrates the account tables and mounts
// the authentication endpoints under /auth.
func RegisterRoutes(router *gin.Engine) (*Module, error) {
	db, err := storage.OpenFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&User{}, &Role{}); err != nil {
		return nil, err
	}

	module := &Module{db: db, users: NewUserStore(db)}

	if captchaEnabled() {
		module.captcha = NewCaptchaStore(3 * time.Minute)
	}

	middleware, err := buildJWTMiddleware(module.users)
	if err != nil {
		return nil, err
	}
	module.jwtMiddleware = middleware

	module.mountRoutes(router)
	return module, nil
}

func (m *Module) mountRoutes(router *gin.Engine) {
	group := router.Group("/auth")
	group.GET("/captcha", m.handleCaptcha)
	group.POST("/register", m.handleRegister)
	group.POST("/login", m.jwtMiddleware.LoginHandler)
	group.POST("/refresh", m.jwtMiddleware.RefreshHandler)
	group.GET("/me", m.Guard().RequireAuthenticated(), m.handleMe)
}

func captchaEnabled() bool {
	raw := strings.TrimSpace(os.Getenv("AUTH_CAPTCHA_ENABLED"))
	if raw == "" {
		return false
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("authorization: invalid AUTH_CAPTCHA_ENABLED value %q", raw)
		return false
	}
	return enabled
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

func buildJWTMiddleware(users *UserStore) (*jwt.GinJWTMiddleware, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		secret = "agenthub-development-secret"
		log.Printf("authorization: JWT_SECRET not set, using the development secret")
	}

	return jwt.New(&jwt.GinJWTMiddleware{
		Realm:         "agenthub",
		Key:           []byte(secret),
		Timeout:       defaultTimeout,
		MaxRefresh:    24 * time.Hour,
		IdentityKey:   identityClaimKey,
		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
		PayloadFunc: func(data any) jwt.MapClaims {
			user, ok := data.(*User)
			if !ok {
				return jwt.MapClaims{}
			}
			return jwt.MapClaims{
				identityClaimKey: user.ID,
				"username":       user.Username,
				roleClaimKey:     user.RoleName,
			}
		},
		IdentityHandler: func(c *gin.Context) any {
			claims := jwt.ExtractClaims(c)
			return claims[identityClaimKey]
		},
		Authenticator: func(c *gin.Context) (any, error) {
			var req loginRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}
			user, err := users.Authenticate(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				return nil, jwt.ErrFailedAuthentication
			}
			return &user, nil
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.JSON(code, gin.H{"error": message})
		},
	})
}

func (m *Module) handleCaptcha(c *gin.Context) {
	if m.captcha == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	challenge, err := m.captcha.Issue()
	if err != nil {
		httperr.Respond(c, httperr.Unexpected("failed to generate captcha", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":    true,
		"captcha_id": challenge.ID,
		"image":      challenge.ImageBase64,
		"expires_in": int(challenge.TTL.Seconds()),
	})
}

func (m *Module) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}

	if m.captcha != nil && !m.captcha.Verify(req.CaptchaID, req.CaptchaAnswer) {
		httperr.Respond(c, httperr.InvalidInput("invalid captcha"))
		return
	}

	user, err := m.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (m *Module) handleMe(c *gin.Context) {
	claims := jwt.ExtractClaims(c)
	rawID, ok := claims[identityClaimKey].(float64)
	if !ok || rawID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := m.users.FindByID(c.Request.Context(), uint64(rawID))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
