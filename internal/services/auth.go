package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/apierr"
	"github.com/archalign/validation-backend/internal/logger"
	"github.com/archalign/validation-backend/internal/requestdata"
)

// AuthService verifies bearer tokens issued by the platform auth service.
// This service never mints tokens; it only checks the HS256 signature and
// the exp claim and promotes the verified claims into request context.
// Tenant and role must come from here, never from request headers.
type AuthService interface {
	VerifyToken(tokenString string) (*requestdata.RequestData, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
	}
}

func (as *authService) VerifyToken(tokenString string) (*requestdata.RequestData, error) {
	if tokenString == "" {
		return nil, apierr.Unauthorized(fmt.Errorf("missing token"))
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid token: %w", err))
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid token claims"))
	}

	userID, err := claimUUID(claims, "user_id")
	if err != nil {
		return nil, apierr.Unauthorized(err)
	}
	tenantID, err := claimUUID(claims, "tenant_id")
	if err != nil {
		return nil, apierr.Unauthorized(err)
	}
	role := requestdata.RoleViewer
	if raw, ok := claims["role"].(string); ok && raw != "" {
		role = raw
	}

	return &requestdata.RequestData{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	rd, err := as.VerifyToken(tokenString)
	if err != nil {
		return ctx, err
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func claimUUID(claims jwt.MapClaims, name string) (uuid.UUID, error) {
	raw, ok := claims[name].(string)
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("token missing %s claim", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token %s claim is not a uuid", name)
	}
	return id, nil
}

// MintToken signs a token with the given claims, used by tests and local
// tooling. TTL <= 0 produces an already-expired token.
func MintToken(secret string, userID, tenantID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":   userID.String(),
		"tenant_id": tenantID.String(),
		"exp":       time.Now().Add(ttl).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
