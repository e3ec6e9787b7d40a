package model

import (
	"database/sql"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrSessionNotFound = errors.New("session not found, expired, or blocked")

type User struct {
	ID                      int        `json:"id"`
	Username                string     `json:"username"`
	Email                   string     `json:"email"`
	Password                string     `json:"-"`
	AuthProvider            string     `json:"auth_provider"`
	IsEmailVerified         bool       `json:"is_email_verified"`
	VerificationToken       string     `json:"-"`
	VerificationTokenExpiry *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

type Session struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser inserts a new user and sets u.ID from the insert.
func (u *User) CreateUser(db *sql.DB) error {
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	if u.AuthProvider == "" {
		u.AuthProvider = "local"
	}

	query := `
	INSERT INTO users (username, password, email, auth_provider, is_email_verified, email_verification_token, email_verification_token_expires_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.Exec(query,
		u.Username,
		u.Password,
		u.Email,
		u.AuthProvider,
		u.IsEmailVerified,
		nullableString(u.VerificationToken),
		u.VerificationTokenExpiry,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = int(id)
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

const userColumns = `id, username, password, email, auth_provider, is_email_verified,
	COALESCE(email_verification_token, ''), email_verification_token_expires_at, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.Email,
		&user.AuthProvider,
		&user.IsEmailVerified,
		&user.VerificationToken,
		&user.VerificationTokenExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func GetUserByVerificationToken(db *sql.DB, token string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email_verification_token = ?`, token)
	return scanUser(row)
}

// MarkEmailVerified flips the verified flag and clears the one-time token.
func (u *User) MarkEmailVerified(db *sql.DB) error {
	_, err := db.Exec(`
	UPDATE users
	SET is_email_verified = TRUE,
	    email_verification_token = NULL,
	    email_verification_token_expires_at = NULL,
	    updated_at = ?
	WHERE id = ?`, time.Now(), u.ID)
	if err == nil {
		u.IsEmailVerified = true
		u.VerificationToken = ""
		u.VerificationTokenExpiry = nil
	}
	return err
}

func CreateSession(db *sql.DB, session *Session) error {
	session.CreatedAt = time.Now()
	_, err := db.Exec(`
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID,
		session.Token,
		session.RefreshToken,
		session.UserAgent,
		session.ClientIP,
		session.IsBlocked,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

func scanSession(row *sql.Row) (*Session, error) {
	var session Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.RefreshToken,
		&session.UserAgent,
		&session.ClientIP,
		&session.IsBlocked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

const sessionColumns = `id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at`

// GetSessionByToken returns the live session for an access token.
func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`
	SELECT `+sessionColumns+`
	FROM sessions
	WHERE token = ? AND is_blocked = FALSE AND expires_at > ?`, token, time.Now())
	return scanSession(row)
}

// GetSessionByRefreshToken returns the live session a refresh token belongs
// to. Refresh tokens are opaque random strings, not JWTs, so rotation has to
// go through the sessions table.
func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(`
	SELECT `+sessionColumns+`
	FROM sessions
	WHERE refresh_token = ? AND is_blocked = FALSE AND expires_at > ?`, refreshToken, time.Now())
	return scanSession(row)
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	// Zero rows affected is fine on logout, the session may already be gone.
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func DeleteSessionByID(db *sql.DB, id int) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}
