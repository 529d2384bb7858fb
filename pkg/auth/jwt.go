package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the actor identity inside an access token.
type Claims struct {
	Role     model.Role `json:"role"`
	Username string     `json:"username"`
	jwt.RegisteredClaims
}

// Actor converts the claims back into the caller identity.
func (c *Claims) Actor() (model.Actor, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return model.Actor{ID: id, Role: c.Role, Username: c.Username}, nil
}

type JWTService interface {
	GenerateAccessToken(user *model.User) (string, *Claims, error)
	ValidateToken(token string) (*Claims, error)
}

type Config struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

type jwtService struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(cfg Config) JWTService {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	return &jwtService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		expiry: cfg.Expiry,
		now:    time.Now,
	}
}

func (s *jwtService) GenerateAccessToken(user *model.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		Role:     user.Role,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
