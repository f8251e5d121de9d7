package models

type GenerateRequest struct {
	Prompt   string       `json:"prompt" binding:"required"`
	UserData *UserProfile `json:"user_data" binding:"required"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

type RecentNewsRequest struct {
	UserData *UserProfile `json:"user_data" binding:"required"`
}

type RecentNewsResponse struct {
	Message string        `json:"message,omitempty"`
	News    []NewsArticle `json:"news"`
}

type SendMailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
