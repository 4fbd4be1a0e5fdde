package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tweetapi/domain"
	"tweetapi/errs"
)

const (
	msgUsernameTaken      = "A user with that username already exists."
	msgPasswordMismatch   = "Passwords do not match."
	msgPasswordTooLong    = "The password is too long."
	msgCurrentPwIncorrect = "The current password is incorrect."
	msgNewPwMismatch      = "The new passwords do not match."
	msgNewPwUnchanged     = "The new password must differ from the current password."
	msgInvalidCredentials = "Unable to log in with provided credentials."
	msgUserNotFound       = "The user does not exist."
)

// UserService manages Users. It also contains the part of the authentication system
// that deals with passwords. It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	pepper string
	cost   int
	userGorm

	dummyOnce sync.Once
	dummyHash []byte
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper string) *UserService {
	return &UserService{
		userValidator{
			pepper: pepper,
			cost:   bcrypt.DefaultCost,
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Authenticate checks a submitted username and password. Whatever part is wrong,
// the same non-field validation error is returned.
func (uv *userValidator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(ctx, username)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			// Spend the same time as for an existing user.
			uv.compareDummy(password)
			return nil, errs.Invalid(errs.Field(errs.NonFieldErrors, msgInvalidCredentials))
		}
		return nil, err
	}
	ok, err := uv.passwordMatches(found, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Invalid(errs.Field(errs.NonFieldErrors, msgInvalidCredentials))
	}
	return found, nil
}

// Create runs validations needed for creating new User database records.
// The password confirmation is only compared once every field is valid on its own.
func (uv *userValidator) Create(ctx context.Context, user *domain.User) error {
	if err := uv.CheckCreate(ctx, user); err != nil {
		return err
	}
	err := runUserValFns(ctx, user,
		uv.passwordsMatch,
		uv.passwordBcrypt,
		uv.passwordHashRequired)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(ctx, user)
}

// CheckCreate runs the validations of single User fields and reports all of
// their errors at once.
func (uv *userValidator) CheckCreate(ctx context.Context, user *domain.User) error {
	return runUserFieldFns(ctx, user,
		uv.usernameIsAvail,
		uv.passwordMinLength)
}

// UpdatePassword checks the current password of the user, validates the new one,
// and stores its hash.
func (uv *userValidator) UpdatePassword(ctx context.Context, user *domain.User, upd *domain.PasswordUpdate) error {
	if err := uv.CheckPasswordUpdate(ctx, user, upd); err != nil {
		return err
	}
	if upd.New != upd.NewConfirm {
		return errs.Invalid(errs.Field("new_password_confirm", msgNewPwMismatch))
	}
	if upd.New == upd.Current {
		return errs.Invalid(errs.Field("new_password", msgNewPwUnchanged))
	}

	user.Password = upd.New
	err := runUserValFns(ctx, user,
		uv.passwordBcrypt,
		uv.passwordHashRequired)
	if err != nil {
		if fields := errs.ErrorFields(err); len(fields) > 0 {
			return errs.Invalid(errs.Field("new_password", fields[0].Message))
		}
		return err
	}
	return uv.userGorm.UpdatePasswordHash(ctx, user)
}

// CheckPasswordUpdate verifies the current password and the length of the new ones.
func (uv *userValidator) CheckPasswordUpdate(ctx context.Context, user *domain.User, upd *domain.PasswordUpdate) error {
	ok, err := uv.passwordMatches(user, upd.Current)
	if err != nil {
		return err
	}
	var current error
	if !ok {
		current = errs.Invalid(errs.Field("current_password", msgCurrentPwIncorrect))
	}
	return errs.Join(current,
		passwordTooShort("new_password", upd.New),
		passwordTooShort("new_password_confirm", upd.NewConfirm))
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// runUserFieldFns runs all of the passed in userValFns and merges their field errors.
// An error that is not a validation error is returned right away.
func runUserFieldFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	var invalid []error
	for _, fn := range fns {
		err := fn(ctx, user)
		if err == nil {
			continue
		}
		if errs.ErrorCode(err) != errs.EINVALID {
			return err
		}
		invalid = append(invalid, err)
	}
	return errs.Join(invalid...)
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(ctx context.Context, user *domain.User) error

// usernameIsAvail makes sure that no other user has the username.
func (uv *userValidator) usernameIsAvail(ctx context.Context, user *domain.User) error {
	existing, err := uv.userGorm.ByUsername(ctx, user.Username)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil
		}
		return err
	}
	if existing.ID != user.ID {
		return errs.Invalid(errs.Field("username", msgUsernameTaken))
	}
	return nil
}

// passwordMinLength makes sure that the password and its confirmation are long enough.
func (uv *userValidator) passwordMinLength(ctx context.Context, user *domain.User) error {
	return errs.Join(
		passwordTooShort("password", user.Password),
		passwordTooShort("password_confirm", user.PasswordConfirm))
}

func passwordTooShort(field, password string) error {
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return errs.Invalid(errs.Field(field,
			fmt.Sprintf("Ensure this field has at least %d characters.", domain.MinPasswordLength)))
	}
	return nil
}

// passwordsMatch makes sure that the password and its confirmation are equal.
func (uv *userValidator) passwordsMatch(ctx context.Context, user *domain.User) error {
	if user.Password != user.PasswordConfirm {
		return errs.Invalid(errs.Field("password_confirm", msgPasswordMismatch))
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the passwords on the user object in memory.
func (uv *userValidator) passwordBcrypt(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(user.Password+uv.pepper), uv.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return errs.Invalid(errs.Field("password", msgPasswordTooLong))
		}
		return fmt.Errorf("bcrypt password: %w", err)
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	user.PasswordConfirm = ""
	return nil
}

// passwordHashRequired makes sure that the user's password hash is not the empty string.
func (uv *userValidator) passwordHashRequired(ctx context.Context, user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Invalid(errs.Field("password", "This field is required."))
	}
	return nil
}

// passwordMatches compares a plain password against the user's stored hash.
func (uv *userValidator) passwordMatches(user *domain.User, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password+uv.pepper))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return false, nil
	}
	return false, fmt.Errorf("compare password: %w", err)
}

// compareDummy runs a bcrypt comparison that is bound to fail.
func (uv *userValidator) compareDummy(password string) {
	uv.dummyOnce.Do(func() {
		uv.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"+uv.pepper), uv.cost)
	})
	_ = bcrypt.CompareHashAndPassword(uv.dummyHash, []byte(password+uv.pepper))
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id int) (*domain.User, error) {
	if id <= 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, msgUserNotFound)
	}
	var user domain.User
	if err := first(ctx, ug.db.Where("id = ?", id), &user, msgUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// ByUsername retrieves a User database record by its exact username.
func (ug *userGorm) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := first(ctx, ug.db.Where("username = ?", username), &user, msgUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// All retrieves all users, ordered by ID.
func (ug *userGorm) All(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := ug.db.WithContext(ctx).Order("id asc").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

// Create stores the data from the User object in a new database record.
// A concurrent registration of the same username is caught by the unique index.
func (ug *userGorm) Create(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if err != nil {
		if isDuplicate(err) {
			return errs.Invalid(errs.Field("username", msgUsernameTaken))
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdatePasswordHash saves the user's password hash.
func (ug *userGorm) UpdatePasswordHash(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).
		Model(user).
		Omit(clause.Associations).
		Update("password_hash", user.PasswordHash).Error
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// TouchLastLogin sets the user's last login to now.
func (ug *userGorm) TouchLastLogin(ctx context.Context, user *domain.User) error {
	now := time.Now()
	err := ug.db.WithContext(ctx).
		Model(user).
		Omit(clause.Associations).
		Update("last_login", now).Error
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now
	return nil
}
