package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/requestdata"
)

const testSecret = "test-secret"

func TestVerifyTokenRoundTrip(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)
	userID := uuid.New()
	tenantID := uuid.New()
	token, err := MintToken(testSecret, userID, tenantID, requestdata.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	rd, err := as.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if rd.UserID != userID || rd.TenantID != tenantID {
		t.Errorf("claims mismatch: %+v", rd)
	}
	if rd.Role != requestdata.RoleAdmin {
		t.Errorf("role = %q, want %q", rd.Role, requestdata.RoleAdmin)
	}
	if !rd.CanAdminister() {
		t.Error("admin role should administer")
	}
}

func TestVerifyTokenDefaultsRoleToViewer(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)
	token, err := MintToken(testSecret, uuid.New(), uuid.New(), "", time.Hour)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	rd, err := as.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if rd.Role != requestdata.RoleViewer {
		t.Errorf("role = %q, want %q", rd.Role, requestdata.RoleViewer)
	}
	if rd.CanAdminister() {
		t.Error("viewer role must not administer")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)
	token, err := MintToken(testSecret, uuid.New(), uuid.New(), requestdata.RoleViewer, -time.Minute)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	if _, err := as.VerifyToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)
	token, err := MintToken("some-other-secret", uuid.New(), uuid.New(), requestdata.RoleViewer, time.Hour)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	if _, err := as.VerifyToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestVerifyTokenRejectsMissingClaims(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)

	sign := func(claims jwt.MapClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return token
	}

	noExp := sign(jwt.MapClaims{
		"user_id":   uuid.New().String(),
		"tenant_id": uuid.New().String(),
	})
	if _, err := as.VerifyToken(noExp); err == nil {
		t.Error("token without exp must be rejected")
	}

	noTenant := sign(jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if _, err := as.VerifyToken(noTenant); err == nil {
		t.Error("token without tenant_id must be rejected")
	}

	badUUID := sign(jwt.MapClaims{
		"user_id":   "not-a-uuid",
		"tenant_id": uuid.New().String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	if _, err := as.VerifyToken(badUUID); err == nil {
		t.Error("token with malformed uuid claim must be rejected")
	}
}

func TestVerifyTokenRejectsUnsignedToken(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id":   uuid.New().String(),
		"tenant_id": uuid.New().String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := as.VerifyToken(token); err == nil {
		t.Fatal("alg=none token must be rejected")
	}
}

func TestSetContextFromToken(t *testing.T) {
	as := NewAuthService(newTestLogger(), testSecret)
	tenantID := uuid.New()
	token, err := MintToken(testSecret, uuid.New(), tenantID, requestdata.RoleEditor, time.Hour)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	ctx, err := as.SetContextFromToken(t.Context(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken failed: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TenantID != tenantID {
		t.Fatalf("request data not promoted into context: %+v", rd)
	}

	if _, err := as.SetContextFromToken(t.Context(), strings.Repeat("x", 16)); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}
