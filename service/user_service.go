package service

import (
	"database/sql"
	"errors"
	"webbank/model"
	"webbank/repository"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserService handles user registration and login. It exists as the auth
// collaborator surface; the transfer core only ever sees the resulting
// authenticated user id.
type UserService struct {
	userRepo repository.IUserRepository
}

func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Register(req model.RegisterRequest) (*model.User, error) {
	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     string(model.RoleUser),
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(req model.LoginRequest) (string, error) {
	user, err := s.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		return "", ErrInvalidCredentials
	}

	return GenerateJWT(user)
}
