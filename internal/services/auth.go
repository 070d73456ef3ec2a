package services

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type JWTClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, string, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, string, error)
	// SetContextFromToken validates a bearer token and attaches request
	// identity to the context; an empty token passes through unchanged.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	users        repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	adminEmails  map[string]struct{}
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, users repos.UserRepo, jwtSecretKey string, accessTTL time.Duration, adminEmails []string) AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		users:        users,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		adminEmails:  admins,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, string, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_email", err)
	}
	if len(in.Password) < 8 {
		return nil, "", apierr.New(http.StatusBadRequest, "weak_password", fmt.Errorf("password must be at least 8 characters"))
	}

	exists, err := as.users.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", apierr.New(http.StatusConflict, "email_taken", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	var user *types.User
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, cErr := as.users.Create(ctx, tx, &types.User{
			Email:     email,
			Password:  string(hashed),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
		})
		if cErr != nil {
			return cErr
		}
		user = created
		return nil
	}); err != nil {
		return nil, "", err
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("user registered", "user_id", user.ID.String())
	return user, token, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, error) {
	user, err := as.users.GetByEmail(ctx, nil, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apierr.New(http.StatusUnauthorized, "invalid_credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apierr.New(http.StatusUnauthorized, "invalid_credentials", nil)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", nil)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.New(http.StatusUnauthorized, "invalid_token", err)
	}

	_, isAdmin := as.adminEmails[normalizeEmail(claims.Email)]
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
		IsAdmin:     isAdmin,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
