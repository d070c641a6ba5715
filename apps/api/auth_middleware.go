package main

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/booking-funnel/platform/go/auth"
	"github.com/zenGate-Global/booking-funnel/platform/go/gcp"
)

// buildAuthMiddleware selects the token verifier for AUTH_PROVIDER.
func buildAuthMiddleware(ctx context.Context, cfg config, logger *zap.Logger) func(http.Handler) http.Handler {
	var verify platformauth.VerifyFunc
	switch strings.ToLower(strings.TrimSpace(cfg.AuthProvider)) {
	case "firebase":
		fbAuth, err := gcp.InitFirebaseAuth(ctx, cfg.GoogleCloudProject, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("init firebase auth", zap.Error(err))
		}
		verify = platformauth.FirebaseTokenVerifier(fbAuth)
	case "jwt":
		if cfg.JWTSecret == "" {
			logger.Fatal("JWT_SECRET required when AUTH_PROVIDER=jwt")
		}
		verify = platformauth.SharedSecretVerifier([]byte(cfg.JWTSecret))
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		verify = platformauth.UnsignedTokenVerifier()
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
	}

	return platformauth.JWT(verify, platformauth.DefaultCredentialExtractor)
}
