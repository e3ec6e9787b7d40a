package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/database"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/model"
)

var (
	googleOauthConfig *oauth2.Config
	oauthStateString  string
)

func InitializeGoogleOAuthConfig() {
	googleOauthConfig = &oauth2.Config{
		RedirectURL:  config.Cfg.GoogleRedirectURL,
		ClientID:     config.Cfg.GoogleClientID,
		ClientSecret: config.Cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Failed to generate OAuth state", "error", err)
		return
	}
	oauthStateString = base64.RawURLEncoding.EncodeToString(b)
}

func (h *UserHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, googleOauthConfig.AuthCodeURL(oauthStateString), http.StatusTemporaryRedirect)
}

func (h *UserHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	signinError := func(code string) {
		http.Redirect(w, r, fmt.Sprintf("%s/signin?error=%s", config.Cfg.FrontendBaseURL, code), http.StatusTemporaryRedirect)
	}

	if r.FormValue("state") != oauthStateString {
		logger.L.Warn("Invalid OAuth state from Google callback")
		signinError("invalid_state")
		return
	}

	token, err := googleOauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		logger.L.Error("Failed to exchange code for token", "error", err)
		signinError("token_exchange_failed")
		return
	}

	googleUser, rawUserInfo, err := fetchGoogleUserInfo(r.Context(), token.AccessToken)
	if err != nil {
		logger.L.Error("Failed to get user info from Google", "error", err)
		signinError("userinfo_failed")
		return
	}
	if !googleUser.Verified {
		signinError("email_not_verified_by_google")
		return
	}

	user, err := model.GetUserByEmail(database.DB, googleUser.Email)
	if err != nil {
		// First Google sign-in: the email doubles as username to keep the
		// unique constraint satisfied.
		newUser := &model.User{
			Username:        googleUser.Email,
			Email:           googleUser.Email,
			Password:        "",
			AuthProvider:    "google",
			IsEmailVerified: true,
		}
		if err := newUser.CreateUser(database.DB); err != nil {
			logger.L.Error("Failed to create Google user", "error", err)
			signinError("user_creation_failed")
			return
		}
		user = newUser
	} else if user.AuthProvider == "local" || user.Password != "" {
		logger.L.Warn("Google login attempt for existing local account", "email", user.Email)
		signinError("email_already_exists_local")
		return
	}

	// Issue the app's own token pair. A session row is created so
	// AuthMiddleware treats Google users like everyone else.
	accessToken, _, err := h.issueSession(user.ID, r)
	if err != nil {
		logger.L.Error("Failed to create session for Google user", "userID", user.ID, "error", err)
		signinError("token_generation_failed")
		return
	}

	redirectURL := fmt.Sprintf("%s/auth/google/callback?token=%s&user=%s",
		config.Cfg.FrontendBaseURL,
		url.QueryEscape(accessToken),
		url.QueryEscape(string(rawUserInfo)))
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified_email"`
}

func fetchGoogleUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var user googleUserInfo
	if err := json.Unmarshal(contents, &user); err != nil {
		return nil, nil, err
	}
	return &user, contents, nil
}
