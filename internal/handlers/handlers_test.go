package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"intra-ai-assistant/internal/handlers"
	"intra-ai-assistant/internal/models"
	"intra-ai-assistant/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type mockAssistant struct {
	response string
	err      error
}

func (m *mockAssistant) Generate(ctx context.Context, prompt string, profile models.UserProfile) (string, error) {
	return m.response, m.err
}

type mockNews struct {
	articles []models.NewsArticle
}

func (m *mockNews) RecentNews(ctx context.Context, profile models.UserProfile, numArticles int) []models.NewsArticle {
	return m.articles
}

type mockMail struct {
	sent bool
	err  error
}

func (m *mockMail) SendWelcome(ctx context.Context, to string, name string) error {
	m.sent = true
	return m.err
}

type mockVerifier struct {
	uid string
	err error
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	return m.uid, m.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, _ := logger.New(logger.LogConfig{
		Level:  "error",
		Format: "json",
		Output: "stdout",
	})
	return log
}

func setupRouter(t *testing.T, assistant *mockAssistant, news *mockNews, mail *mockMail, verifier *mockVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger(t)

	router := gin.New()
	router.POST("/send-mail", handlers.NewMailHandler(mail, log).SendMail)

	protected := router.Group("/")
	protected.Use(handlers.RequireAuth(verifier, log))
	protected.POST("/generate", handlers.NewAssistantHandler(assistant, log).Generate)
	protected.POST("/recent-news", handlers.NewNewsHandler(news, log).RecentNews)

	return router
}

func postJSON(router *gin.Engine, path string, body interface{}, token string) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validGenerateBody() models.GenerateRequest {
	return models.GenerateRequest{
		Prompt: "What's new in AI?",
		UserData: &models.UserProfile{
			UID:        "user-1",
			Department: "IT",
			Interests:  []string{"AI"},
		},
	}
}

func TestGenerateSuccess(t *testing.T) {
	assistant := &mockAssistant{response: "here is your answer"}
	router := setupRouter(t, assistant, &mockNews{}, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/generate", validGenerateBody(), "valid-token")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp models.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Response != "here is your answer" {
		t.Errorf("Unexpected response body: %q", resp.Response)
	}
}

func TestGenerateMissingFields(t *testing.T) {
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/generate", map[string]string{"prompt": "hello"}, "valid-token")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing user_data, got %d", w.Code)
	}

	w = postJSON(router, "/generate", map[string]interface{}{
		"user_data": map[string]string{"uid": "u", "department": "IT"},
	}, "valid-token")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing prompt, got %d", w.Code)
	}
}

func TestGenerateInternalErrorIsOpaque(t *testing.T) {
	assistant := &mockAssistant{err: errors.New("gemini exploded with secret details")}
	router := setupRouter(t, assistant, &mockNews{}, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/generate", validGenerateBody(), "valid-token")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}

	var resp models.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "an internal error occurred" {
		t.Errorf("Expected opaque error message, got %q", resp.Error)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/generate", validGenerateBody(), "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}

	var resp models.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "invalid or expired token" {
		t.Errorf("Expected fixed auth error message, got %q", resp.Error)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	verifier := &mockVerifier{err: models.NewAuthError("INVALID_TOKEN", "invalid or expired token")}
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, &mockMail{}, verifier)

	w := postJSON(router, "/generate", validGenerateBody(), "stale-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestRecentNewsEmpty(t *testing.T) {
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/recent-news", models.RecentNewsRequest{
		UserData: &models.UserProfile{UID: "user-1", Interests: []string{"AI"}},
	}, "valid-token")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp models.RecentNewsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message == "" {
		t.Error("Expected a message for the empty case")
	}
	if resp.News == nil || len(resp.News) != 0 {
		t.Errorf("Expected empty news array, got %v", resp.News)
	}
}

func TestRecentNewsReturnsArticles(t *testing.T) {
	news := &mockNews{articles: []models.NewsArticle{
		{Title: "A", URL: "https://a.example", Date: "2024-09-26", Source: "reuters.com"},
	}}
	router := setupRouter(t, &mockAssistant{}, news, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/recent-news", models.RecentNewsRequest{
		UserData: &models.UserProfile{UID: "user-1"},
	}, "valid-token")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp models.RecentNewsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.News) != 1 || resp.News[0].Title != "A" {
		t.Errorf("Unexpected articles: %v", resp.News)
	}
}

func TestSendMail(t *testing.T) {
	mail := &mockMail{}
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, mail, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/send-mail", models.SendMailRequest{
		Email: "new.hire@example.com",
		Name:  "New Hire",
	}, "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !mail.sent {
		t.Error("Expected mail service to be invoked")
	}

	var resp models.MessageResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Message != "New event email sent" {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}

func TestSendMailDeliveryFailureStillSucceeds(t *testing.T) {
	mail := &mockMail{err: errors.New("smtp timeout")}
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, mail, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/send-mail", models.SendMailRequest{
		Email: "new.hire@example.com",
		Name:  "New Hire",
	}, "")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 despite delivery failure, got %d", w.Code)
	}
}

func TestSendMailRejectsInvalidEmail(t *testing.T) {
	router := setupRouter(t, &mockAssistant{}, &mockNews{}, &mockMail{}, &mockVerifier{uid: "user-1"})

	w := postJSON(router, "/send-mail", models.SendMailRequest{
		Email: "not-an-email",
		Name:  "New Hire",
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
