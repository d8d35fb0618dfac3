package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

type identityDatasets interface {
	IdentitySources() int
	Identities(ctx context.Context, i int) ([]models.StudentIdentity, bool)
}

// IdentityConfig defines how student sessions are signed.
type IdentityConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// IdentityService resolves a (name, id) pair against the identity feeds and
// issues the session token every dashboard route requires.
type IdentityService struct {
	datasets  identityDatasets
	validator *validator.Validate
	logger    *zap.Logger
	config    IdentityConfig
	now       func() time.Time
}

// NewIdentityService constructs an IdentityService instance.
func NewIdentityService(datasets identityDatasets, validate *validator.Validate, logger *zap.Logger, config IdentityConfig) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 12 * time.Hour
	}
	return &IdentityService{datasets: datasets, validator: validate, logger: logger, config: config, now: time.Now}
}

// Resolve scans the identity feeds in order and returns the first row whose
// trimmed user_sn and organization_id equal the trimmed inputs.
func (s *IdentityService) Resolve(ctx context.Context, name, id string) (*models.StudentIdentity, error) {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)
	if name == "" || id == "" {
		return nil, appErrors.ErrStudentNotFound
	}
	for i := 0; i < s.datasets.IdentitySources(); i++ {
		candidates, _ := s.datasets.Identities(ctx, i)
		for _, candidate := range candidates {
			if candidate.Name == name && candidate.ID == id {
				found := candidate
				return &found, nil
			}
		}
	}
	return nil, appErrors.ErrStudentNotFound
}

// Login validates the payload, resolves the student and signs a session.
func (s *IdentityService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.Resolve(ctx, req.Name, req.ID)
	if err != nil {
		s.logger.Info("student login rejected", zap.String("name", strings.TrimSpace(req.Name)))
		return nil, err
	}

	token, _, err := s.generateAccessToken(student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("student login", zap.Int64("student_key", student.StudentKey))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		Student:     *student,
	}, nil
}

// Profile re-resolves the student behind a session so baseline scores stay
// current with the feed.
func (s *IdentityService) Profile(ctx context.Context, claims *models.StudentClaims) (*models.StudentIdentity, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.Resolve(ctx, claims.Name, claims.ID)
}

// ValidateToken parses and validates an access token returning the claims.
func (s *IdentityService) ValidateToken(tokenString string) (*models.StudentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.StudentClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.StudentClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *IdentityService) generateAccessToken(student *models.StudentIdentity) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.StudentClaims{
		StudentKey:     student.StudentKey,
		Name:           student.Name,
		ID:             student.ID,
		OrganizationID: student.OrganizationID,
		Grade:          student.Grade,
		Class:          student.Class,
		Seat:           student.Seat,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   student.Name,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
