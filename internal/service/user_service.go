// Package service implements the application's business rules on top of
// the repository layer.
package service

import (
	"context"

	"micropost/internal/models"
	"micropost/internal/repository"
	"micropost/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when login names an unknown user, so the
// work done is the same as for a wrong password and the caller sees one
// uniform failure.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserService implements registration, credential checks and profile edits.
type UserService struct {
	userRepo repository.UserRepository
}

// RegisterInput carries the fields accepted at signup.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// CreateSuperuserInput carries the fields for administrative superuser
// creation. The flag pointers exist only so an explicit false override
// can be rejected; nil means "use the forced default".
type CreateSuperuserInput struct {
	Username    string
	Email       string
	Password    string
	IsStaff     *bool
	IsSuperuser *bool
}

// UpdateProfileInput carries the editable profile fields. Empty fields
// are left unchanged.
type UpdateProfileInput struct {
	UserID   uint
	Username string
	Email    string
	Avatar   string
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register validates the input, hashes the password and persists a new
// user. The email's domain is lowercased before any lookup or write.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, nil)
}

func (s *UserService) register(ctx context.Context, in RegisterInput, mutate func(*models.User)) (*models.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateError("User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    email,
		Password: string(hashed),
		IsActive: true,
	}
	if mutate != nil {
		mutate(user)
	}

	// The unique indexes remain the backstop for username races.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// CreateSuperuser creates a user with is_staff and is_superuser forced to
// true. An explicit attempt to override either flag to false violates the
// superuser invariant and is rejected up front. The flags are set before
// the single insert, so a crash can never leave a half-promoted account.
func (s *UserService) CreateSuperuser(ctx context.Context, in CreateSuperuserInput) (*models.User, error) {
	if in.IsStaff != nil && !*in.IsStaff {
		return nil, models.NewInvariantViolationError("Superuser must have is_staff=true")
	}
	if in.IsSuperuser != nil && !*in.IsSuperuser {
		return nil, models.NewInvariantViolationError("Superuser must have is_superuser=true")
	}

	return s.register(ctx, RegisterInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	}, func(u *models.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})
}

// VerifyCredentials looks a user up by username and checks the password
// against the stored hash. Unknown user and wrong password produce the
// same error; a dummy hash comparison keeps the two paths doing the same
// amount of work.
func (s *UserService) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	return user, nil
}

// ListUsers returns a page of all users.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// GetUserByID returns a single user by id.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies the editable profile fields (username, email,
// avatar). Password changes are not part of profile editing.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = in.Username
	}
	if in.Email != "" {
		email := validation.NormalizeEmail(in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
