package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/database"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/model"
	"github.com/username/kryptogain/backend/src/security"
	"github.com/username/kryptogain/backend/src/services"
	"github.com/username/kryptogain/backend/src/utils"
)

// contextKey is unexported so the userID value cannot collide with keys set
// by other packages.
type contextKey string

const userIDContextKey contextKey = "userID"

type UserHandler struct {
	authService   *security.AuthService
	emailService  services.EmailService
	uploadService services.UploadService
}

func NewUserHandler(authService *security.AuthService, emailService services.EmailService, uploadService services.UploadService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		emailService:  emailService,
		uploadService: uploadService,
	}
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Username = strings.TrimSpace(credentials.Username)
	credentials.Email = strings.TrimSpace(strings.ToLower(credentials.Email))
	if credentials.Username == "" || credentials.Email == "" || credentials.Password == "" {
		utils.SendJSONError(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.authService.HashPassword(credentials.Password)
	if err != nil {
		utils.SendJSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	verificationToken, err := h.authService.GenerateVerificationToken()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate verification token", http.StatusInternalServerError)
		return
	}
	tokenExpiry := time.Now().Add(config.Cfg.VerificationTokenExpiry)

	user := &model.User{
		Username:                credentials.Username,
		Email:                   credentials.Email,
		Password:                hashedPassword,
		AuthProvider:            "local",
		VerificationToken:       verificationToken,
		VerificationTokenExpiry: &tokenExpiry,
	}

	if err := user.CreateUser(database.DB); err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "UNIQUE constraint failed: users.username") {
			utils.SendJSONError(w, "Username already exists", http.StatusConflict)
			return
		}
		if strings.Contains(errMsg, "UNIQUE constraint failed: users.email") {
			utils.SendJSONError(w, "Email already registered", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create user", "username", credentials.Username, "error", err)
		utils.SendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	if err := h.emailService.SendVerificationEmail(user.Email, user.Username, verificationToken); err != nil {
		// Account exists at this point, so report success and let the
		// user request a resend later.
		logger.L.Error("Failed to send verification email", "userID", user.ID, "error", err)
	}

	logger.L.Info("User registered", "userID", user.ID, "username", user.Username)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "User registered successfully. Check your email to verify the account.",
	})
}

func (h *UserHandler) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		utils.SendJSONError(w, "verification token is required", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByVerificationToken(database.DB, token)
	if err != nil {
		logger.L.Warn("Email verification with unknown token", "error", err)
		utils.SendJSONError(w, "Invalid or expired verification token", http.StatusBadRequest)
		return
	}
	if user.VerificationTokenExpiry != nil && user.VerificationTokenExpiry.Before(time.Now()) {
		utils.SendJSONError(w, "Invalid or expired verification token", http.StatusBadRequest)
		return
	}

	if err := user.MarkEmailVerified(database.DB); err != nil {
		logger.L.Error("Failed to mark email verified", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to verify email", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Email verified", "userID", user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Email verified successfully"})
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	logger.L.Debug("Login attempt", "username", credentials.Username)

	user, err := model.GetUserByUsername(database.DB, credentials.Username)
	if err != nil {
		logger.L.Warn("User lookup failed on login", "username", credentials.Username, "error", err)
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := h.authService.CompareHashAndPassword(user.Password, credentials.Password); err != nil {
		logger.L.Warn("Password check failed", "username", credentials.Username)
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if user.AuthProvider == "local" && !user.IsEmailVerified {
		utils.SendJSONError(w, "Email not verified. Check your inbox for the verification link.", http.StatusForbidden)
		return
	}

	accessToken, refreshToken, err := h.issueSession(user.ID, r)
	if err != nil {
		logger.L.Error("Failed to create session on login", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// issueSession generates a token pair and records the session.
func (h *UserHandler) issueSession(userID int, r *http.Request) (accessToken, refreshToken string, err error) {
	accessToken, err = h.authService.GenerateToken(strconv.Itoa(userID))
	if err != nil {
		return "", "", fmt.Errorf("generating access token: %w", err)
	}
	refreshToken, err = h.authService.GenerateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("generating refresh token: %w", err)
	}

	session := &model.Session{
		UserID:       userID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		return "", "", fmt.Errorf("persisting session: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if requestBody.RefreshToken == "" {
		utils.SendJSONError(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, requestBody.RefreshToken)
	if err != nil {
		logger.L.Warn("Refresh token validation failed", "error", err)
		utils.SendJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	// Rotate: the old session is removed so a replayed refresh token fails.
	if err := model.DeleteSessionByID(database.DB, session.ID); err != nil {
		logger.L.Error("Failed to delete session on refresh", "sessionID", session.ID, "error", err)
	}

	accessToken, refreshToken, err := h.issueSession(session.UserID, r)
	if err != nil {
		logger.L.Error("Failed to create session on refresh", "userID", session.UserID, "error", err)
		utils.SendJSONError(w, "Failed to create new session on refresh", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	tokenString, err := bearerToken(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
		logger.L.Warn("Failed to delete session on logout", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HasDataHandler reports whether the user has imported any transactions yet.
func (h *UserHandler) HasDataHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	hasData, err := h.uploadService.HasTransactions(userID)
	if err != nil {
		logger.L.Error("Error checking user data", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error checking user data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"has_data": hasData})
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("malformed token")
	}
	return tokenString, nil
}

// AuthMiddleware validates the access token and the backing session, then
// stores the user ID in the request context.
func (h *UserHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			logger.L.Debug("Missing or malformed Authorization header", "method", r.Method, "path", r.URL.Path)
			utils.SendJSONError(w, err.Error(), http.StatusUnauthorized)
			return
		}

		userIDStr, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			logger.L.Debug("Token validation failed", "method", r.Method, "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if _, err := model.GetSessionByToken(database.DB, tokenString); err != nil {
			logger.L.Debug("Session validation failed", "method", r.Method, "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		userIDInt, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			logger.L.Error("Invalid user ID in token", "userID", userIDStr)
			utils.SendJSONError(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userIDInt)
		next(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext retrieves the authenticated user ID set by
// AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}
