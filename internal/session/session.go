// Package session provides session token handling for the execution core
// Compliant with GLI-19 §2.5.3: Session Management
//
// The core does not keep a session table: the operator platform
// authenticates the player and the core verifies the signed token each
// request. Live wagering state is keyed by the (user, game) pair the
// token binds.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/luckyreel/rgs/internal/config"
)

var (
	ErrTokenInvalid   = errors.New("session token invalid or expired")
	ErrTokenMismatch  = errors.New("session token does not bind this game")
	ErrBadOperatorKey = errors.New("operator key rejected")
)

// Claims is the verified identity carried by a session token.
type Claims struct {
	SessionID string
	UserID    string
	GameID    string
	ExpiresAt time.Time
}

// Service verifies session tokens and operator API keys.
type Service struct {
	cfg *config.SessionConfig
}

// New creates a new session service
func New(cfg *config.SessionConfig) *Service {
	return &Service{cfg: cfg}
}

// IssueToken signs a session token binding a player to one game. In
// production the operator platform issues these; the core signs its own
// for direct deployments and tests.
func (s *Service) IssueToken(userID, gameID string) (string, error) {
	now := time.Now().UTC()
	expires := now.Add(s.cfg.TokenExpiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": uuid.New().String(),
		"user_id":    userID,
		"game_id":    gameID,
		"exp":        expires.Unix(),
		"iat":        now.Unix(),
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	sessionID, _ := mapClaims["session_id"].(string)
	userID, _ := mapClaims["user_id"].(string)
	gameID, _ := mapClaims["game_id"].(string)
	if sessionID == "" || userID == "" || gameID == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{
		SessionID: sessionID,
		UserID:    userID,
		GameID:    gameID,
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return claims, nil
}

// VerifyForGame validates a token and checks it binds the requested game.
// A token issued for one game never authorizes actions on another.
func (s *Service) VerifyForGame(tokenString, gameID string) (*Claims, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.GameID != gameID {
		return nil, ErrTokenMismatch
	}
	return claims, nil
}

// VerifyOperatorKey checks an operator API key against the configured
// bcrypt hash (GLI-19 §B.2.3). The control endpoints require it.
func (s *Service) VerifyOperatorKey(key string) error {
	if s.cfg.OperatorKeyHash == "" {
		return ErrBadOperatorKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorKeyHash), []byte(key)); err != nil {
		return ErrBadOperatorKey
	}
	return nil
}

// HashOperatorKey produces the bcrypt hash to configure for an operator
// API key. Used by provisioning tooling.
func HashOperatorKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
