package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ppn-chip-sales/internal/config"
	"ppn-chip-sales/internal/core/domain"
	"ppn-chip-sales/internal/pkg/token"
)

// AuthService exchanges the host attestation string for a session. Auth
// failure is non-fatal: the flow proceeds in degraded (non-admin,
// unauthenticated) mode rather than blocking the purchase.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// Authenticate runs the auth exchange and installs the credential on the
// given backend client so every later call is authenticated. The second
// return value is the attestation actually used for the exchange, which
// differs from the input when the dev fallback substitutes in; callers that
// need the attestation later must use this value, not their own copy.
func (s *AuthService) Authenticate(ctx context.Context, api BackendAPI, attestation string) (*domain.Session, string) {
	attestation = strings.TrimSpace(attestation)
	if attestation == "" {
		if s.cfg.IsProd() || s.cfg.Backend.FallbackAuthData == "" {
			log.Printf("auth: no attestation provided, continuing degraded")
			return s.degradedSession(), ""
		}
		// Dev-only fallback so local runs outside Telegram still work.
		attestation = s.cfg.Backend.FallbackAuthData
	}

	result, err := api.Authenticate(ctx, attestation)
	if err != nil {
		log.Printf("auth: exchange failed, continuing degraded: %v", err)
		return s.degradedSession(), attestation
	}

	session := &domain.Session{
		ID:          uuid.New().String(),
		Role:        result.Role,
		BoundClubID: result.BoundClubID,
		Credential:  result.AccessToken,
		CreatedAt:   time.Now(),
	}

	// Older backends return a bare token; read the missing bits out of it.
	if claims, inspectErr := token.Inspect(result.AccessToken); inspectErr == nil {
		if session.BoundClubID == nil && claims.ClubShortID != 0 {
			clubID := claims.ClubShortID
			session.BoundClubID = &clubID
		}
		if session.Role != domain.RoleAdmin && strings.EqualFold(claims.Role, "admin") {
			session.Role = domain.RoleAdmin
		}
		session.TgUserID = claims.TgUserID
	}

	api.SetCredential(result.AccessToken)
	log.Printf("✅ Session authenticated [role=%s locked_club=%v]", session.Role, session.ClubLocked())
	return session, attestation
}

func (s *AuthService) degradedSession() *domain.Session {
	return &domain.Session{
		ID:        uuid.New().String(),
		Role:      domain.RoleUser,
		CreatedAt: time.Now(),
	}
}
