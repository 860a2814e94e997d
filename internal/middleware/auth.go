package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// ClaimsKey is the gin context key holding the verified claims
const ClaimsKey = "claims"

// Claims represents JWT claims
type Claims struct {
	UserID      int64    `json:"user_id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Can returns true if the claims grant the permission. Admins hold all of them.
func (c *Claims) Can(p models.Permission) bool {
	if c.Role == string(models.RoleAdmin) {
		return true
	}
	for _, have := range c.Permissions {
		if have == string(p) {
			return true
		}
	}
	return false
}

// Actor returns the identity passed to core operations
func (c *Claims) Actor() services.Actor {
	return services.Actor{UserID: c.UserID, UserName: c.Name}
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	Issuer        string
}

// AuthService issues and verifies session tokens
type AuthService struct {
	config *AuthConfig
}

// NewAuthService creates a new authentication service
func NewAuthService(config *AuthConfig) *AuthService {
	if config.TokenDuration == 0 {
		config.TokenDuration = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "pos-engine"
	}
	return &AuthService{config: config}
}

// GenerateToken generates a JWT token for a user
func (a *AuthService) GenerateToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.config.TokenDuration)

	claims := &Claims{
		UserID:      user.ID,
		Name:        user.Name,
		Role:        string(user.Role),
		Permissions: user.PermissionStrings(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.config.Issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(a.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.JWTSecret), nil
	}, jwt.WithIssuer(a.config.Issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Authentication middleware that validates JWT tokens. Browsers cannot set
// headers on websocket upgrades, so the token may also come as ?access_token=.
func Authentication(authService *AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authorization header is required. Expected: Bearer <token>")
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"error":      err.Error(),
				"path":       c.Request.URL.Path,
				"request_id": c.GetString(RequestIDKey),
			}).Warn("Token validation failed")

			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set("user_id", claims.UserID)

		logger.WithFields(logrus.Fields{
			"user_id": claims.UserID,
			"path":    c.Request.URL.Path,
		}).Debug("User authenticated successfully")

		c.Next()
	}
}

// RequirePermission rejects requests whose session lacks any of perms
func RequirePermission(logger *logrus.Logger, perms ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		for _, p := range perms {
			if !claims.Can(p) {
				logger.WithFields(logrus.Fields{
					"user_id":    claims.UserID,
					"permission": p,
					"path":       c.Request.URL.Path,
				}).Warn("Authorization failed - insufficient permissions")

				abortWithError(c, http.StatusForbidden, "forbidden", fmt.Sprintf("Missing permission: %s", p))
				return
			}
		}

		c.Next()
	}
}

// ClaimsFromContext returns the claims set by Authentication
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}

// ActorFromContext returns the identity of the signed-in user
func ActorFromContext(c *gin.Context) (services.Actor, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return services.Actor{}, false
	}
	return claims.Actor(), true
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if token := c.Query("access_token"); token != "" {
		return token, true
	}
	return "", false
}
