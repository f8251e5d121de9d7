package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"
)

// AuthService verifies bearer credentials against the external identity
// service. One atomic call per token, no retry.
type AuthService struct {
	httpClient *http.Client
	config     config.AuthConfig
	logger     *logger.Logger
}

type verifyTokenRequest struct {
	IDToken string `json:"id_token"`
}

type verifyTokenResponse struct {
	UID string `json:"uid"`
}

func NewAuthService(cfg config.AuthConfig, log *logger.Logger) (*AuthService, error) {
	if cfg.VerifyURL == "" {
		return nil, errors.New("auth verify URL required")
	}

	return &AuthService{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log,
	}, nil
}

// Verify maps a bearer token to a user identifier or fails with an auth error.
func (service *AuthService) Verify(ctx context.Context, idToken string) (string, error) {
	startTime := time.Now()

	if idToken == "" {
		return "", models.NewAuthError("MISSING_TOKEN", "no bearer token supplied")
	}

	body, err := json.Marshal(verifyTokenRequest{IDToken: idToken})
	if err != nil {
		return "", models.NewInternalError("AUTH_ENCODE_FAILED", "failed to encode verification request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.config.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return "", models.NewInternalError("AUTH_REQUEST_FAILED", "failed to build verification request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := service.httpClient.Do(req)
	if err != nil {
		service.logger.LogService("auth", "verify_token", time.Since(startTime), nil, err)
		return "", models.NewAuthError("VERIFY_FAILED", "token verification failed").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", models.NewAuthError("VERIFY_FAILED", "failed to read verification response").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		service.logger.LogService("auth", "verify_token", time.Since(startTime), map[string]interface{}{
			"status_code": resp.StatusCode,
		}, fmt.Errorf("identity service returned HTTP %d", resp.StatusCode))
		return "", models.NewAuthError("INVALID_TOKEN", "invalid or expired token")
	}

	var parsed verifyTokenResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.UID == "" {
		return "", models.NewAuthError("INVALID_TOKEN", "invalid or expired token")
	}

	service.logger.LogService("auth", "verify_token", time.Since(startTime), map[string]interface{}{
		"uid": parsed.UID,
	}, nil)

	return parsed.UID, nil
}
