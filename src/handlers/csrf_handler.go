package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/logger"
	"github.com/username/kryptogain/backend/src/utils"
)

const csrfCookieName = "kg_csrf"

// signedCSRFToken returns "<random>.<mac>" where the MAC binds the random
// part to the server's CSRF key, so a forged cookie fails validation even
// when header and cookie match.
func signedCSRFToken(authKey []byte) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	random := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(random))
	return random + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func validSignedCSRFToken(authKey []byte, token string) bool {
	random, sig, found := strings.Cut(token, ".")
	if !found {
		return false
	}
	gotMAC, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(random))
	return hmac.Equal(mac.Sum(nil), gotMAC)
}

// GetCSRFToken issues a fresh token as both a cookie and a response value.
// Clients echo it back in the X-CSRF-Token header on mutating requests.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := signedCSRFToken(config.Cfg.CSRFAuthKey)
	if err != nil {
		logger.L.Error("Failed to generate CSRF token", "error", err)
		utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   config.Cfg.SecureCookies,
		MaxAge:   3600,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CSRF-Token", token)
	json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
}

// CSRFMiddleware enforces the double-submit pattern: the X-CSRF-Token header
// must match the cookie and carry a valid signature. Safe methods pass
// through.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil &&
				subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) == 1 &&
				validSignedCSRFToken(authKey, headerToken) {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF validation failed",
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
				"hasHeaderToken", headerToken != "",
				"hasCookie", err == nil)
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}
