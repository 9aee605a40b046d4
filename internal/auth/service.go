package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"wordle-go/internal/storage"
)

const (
	maxUsernameLength = 64
	refreshTokenTTL   = 30 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidInput       = errors.New("username and password are required")
)

type Service struct {
	db        *sqlx.DB
	jwtSecret []byte
	jwtExpiry time.Duration
	cost      int
}

type User struct {
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func NewService(db *sqlx.DB, jwtSecret []byte, jwtExpiry time.Duration) *Service {
	return &Service{
		db:        db,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		cost:      bcrypt.DefaultCost,
	}
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if input.Username == "" || input.Password == "" || utf8.RuneCountInString(input.Username) > maxUsernameLength {
		return nil, ErrInvalidInput
	}

	// Check if user exists
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), input.Username)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     input.Username,
		PasswordHash: string(hash),
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`), user.Username, user.PasswordHash)
	if err != nil {
		// Lost a race with a concurrent registration
		if storage.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// Authenticate checks a username and password pair
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.getUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(user)
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.userFromToken(ctx, refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(user)
}

// ValidateToken resolves an access token to its user
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*User, error) {
	return s.userFromToken(ctx, tokenString, tokenTypeAccess)
}

func (s *Service) userFromToken(ctx context.Context, tokenString, tokenType string) (*User, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || c.Type != tokenType || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.getUser(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) generateTokenPair(user *User) (*TokenPair, error) {
	access, err := s.sign(user, tokenTypeAccess, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(user, tokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Service) sign(user *User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(s.jwtSecret)
}

func (s *Service) getUser(ctx context.Context, username string) (*User, error) {
	user := &User{}
	err := s.db.GetContext(ctx, user, s.db.Rebind(`
		SELECT username, password_hash FROM users WHERE username = ?
	`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
