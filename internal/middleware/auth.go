package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	userRepo "github.com/punjabready/portal-api/internal/modules/user/repository"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/response"
	"gorm.io/gorm"
)

const principalKey = "principal"

var (
	errNoToken      = apperror.Unauthorized("Not authorized, no token")
	errTokenInvalid = apperror.Unauthorized("Not authorized, token failed")
	errUnknownUser  = apperror.Unauthorized("Not authorized, user not found")
	errDeactivated  = apperror.Unauthorized("Account is deactivated. Please contact administrator.")
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	secret   []byte
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   []byte(secret),
	}
}

// RequireAuth resolves the bearer token into an active user and stores the
// resulting access.Principal on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.authenticate(c)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth attaches a principal when a valid token is present and lets
// anonymous requests through untouched.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, err := m.authenticate(c); err == nil {
			SetPrincipal(c, principal)
		}
		c.Next()
	}
}

// RequireRoles must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.ResponseError(c, errNoToken)
			return
		}

		if !entity.Contains(roles, principal.Role) {
			response.ResponseError(c, apperror.Forbidden(
				fmt.Sprintf("User role %s is not authorized to access this route", principal.Role)))
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (access.Principal, error) {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	// Browsers cannot set headers on websocket upgrades.
	if tokenString == "" {
		tokenString = c.Query("token")
	}

	if tokenString == "" {
		return access.Principal{}, errNoToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return access.Principal{}, errTokenInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return access.Principal{}, errTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return access.Principal{}, errTokenInvalid
	}

	user, err := m.userRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return access.Principal{}, errUnknownUser
		}
		return access.Principal{}, err
	}
	if !user.IsActive {
		return access.Principal{}, errDeactivated
	}

	return access.Principal{ID: user.ID, Role: user.Role}, nil
}

func SetPrincipal(c *gin.Context, p access.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by RequireAuth or OptionalAuth.
func PrincipalFrom(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}
