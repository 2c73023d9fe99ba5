package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	authdto "ticktask-backend/internal/auth/dto"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/auth/repository"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/config"
	"ticktask-backend/pkg/fuzzy"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	fcmRepo  repository.FCMTokenRepository
	roles    RoleResolver
	scopes   UserScopeResolver
	config   *config.Config
	logger   *zap.Logger
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(
	userRepo repository.UserRepository,
	fcmRepo repository.FCMTokenRepository,
	roles RoleResolver,
	scopes UserScopeResolver,
	cfg *config.Config,
	logger *zap.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		fcmRepo:  fcmRepo,
		roles:    roles,
		scopes:   scopes,
		config:   cfg,
		logger:   logger.Named("auth"),
	}
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, apperror.Unauthorized("invalid username or password")
	}
	return u.generateTokens(ctx, user)
}

func (u *authUsecase) Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	existing, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("username %q is already taken", username)
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Username: username,
		Email:    strings.TrimSpace(req.Email),
		Password: hashedPassword,
	}
	if err := u.userRepo.CreateWithProfile(ctx, user, identitydomain.RoleMember); err != nil {
		return nil, err
	}
	u.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error) {
	userID, err := u.parseUserID(refreshToken, tokenRefresh)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	storedToken, err := u.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, apperror.Unauthorized("refresh token expired")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthorized("user not found")
	}

	// rotate
	if err := u.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return u.generateTokens(ctx, user)
}

func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	userID, err := u.parseUserID(tokenString, tokenAccess)
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthorized("user not found")
	}
	return user, nil
}

func (u *authUsecase) Me(ctx context.Context, user *authdomain.User) (*authdto.MeResponse, error) {
	role, err := u.roles.ResolveRole(ctx, user)
	if err != nil {
		return nil, err
	}
	return &authdto.MeResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
		Role:     role,
	}, nil
}

func (u *authUsecase) ListUsers(ctx context.Context, actor *authdomain.User, search string) ([]*authdomain.User, error) {
	scope, err := u.scopes.TaskScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	users, err := u.userRepo.List(ctx, scope)
	if err != nil {
		return nil, err
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return users, nil
	}

	type ranked struct {
		user  *authdomain.User
		score float64
	}
	var matches []ranked
	for _, user := range users {
		if score := fuzzy.Score(search, user.Username, user.Email); score > 0 {
			matches = append(matches, ranked{user: user, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	result := make([]*authdomain.User, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.user)
	}
	return result, nil
}

func (u *authUsecase) RegisterFCMToken(ctx context.Context, userID, token, deviceInfo string) error {
	return u.fcmRepo.SaveToken(ctx, userID, token, deviceInfo)
}

func (u *authUsecase) UnregisterFCMToken(ctx context.Context, token string) error {
	return u.fcmRepo.DeleteToken(ctx, token)
}

func (u *authUsecase) parseUserID(tokenString, typ string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", apperror.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperror.Unauthorized("invalid token claims")
	}
	if claims["typ"] != typ {
		return "", apperror.Unauthorized("wrong token type")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", apperror.Unauthorized("invalid token claims")
	}
	return userID, nil
}

func (u *authUsecase) generateTokens(ctx context.Context, user *authdomain.User) (*authdto.TokenResponse, error) {
	accessToken, err := u.sign(jwt.MapClaims{
		"typ":      tokenAccess,
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":      time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.sign(jwt.MapClaims{
		"typ":      tokenRefresh,
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"exp":      time.Now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	if err := u.userRepo.SaveRefreshToken(ctx, &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(u.config.JWTRefreshExpiry),
	}); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (u *authUsecase) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}
