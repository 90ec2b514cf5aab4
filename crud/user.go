package crud

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"greenmag/domain"
	"greenmag/errs"
)

// UserService manages accounts. It is the storage half of the authentication
// system: it hashes and checks passwords, while auth/ issues and verifies the
// bearer credentials. It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	pepper     string
	emailRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper string) *UserService {
	return &UserService{
		userValidator{
			pepper:     pepper,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// errBadCredentials is returned for unknown addresses and wrong passwords alike.
var errBadCredentials = errs.Errorf(errs.EUNAUTHORIZED, "Invalid email or password.")

// Authenticate checks a submitted email address and password for existence and correctness.
func (uv *userValidator) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user := domain.User{Email: email}
	if err := runUserValFns(&user, uv.emailNormalize); err != nil {
		return nil, err
	}
	found, err := uv.userGorm.ByEmail(ctx, user.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, errs.Internal(err)
	}

	// The stored hash was made from password+pepper, so the pepper has to be appended here too.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errBadCredentials
		}
		return nil, errs.Internal(err)
	}
	return found, nil
}

// Register runs validations needed for creating new User database records.
// A missing role defaults to USER.
func (uv *userValidator) Register(ctx context.Context, user *domain.User) error {
	err := runUserValFns(user,
		uv.nameRequired,
		uv.roleDefault,
		uv.roleValid,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordBcrypt)
	if err != nil {
		return err
	}
	if err := uv.emailIsAvail(ctx, user); err != nil {
		return err
	}
	err = uv.userGorm.Create(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against a concurrent registration.
		return errs.Errorf(errs.ECONFLICT, "This email address is already taken.")
	}
	return errs.Ensure(err)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(user *domain.User) error

// nameRequired trims the name and makes sure it is not empty.
func (uv *userValidator) nameRequired(user *domain.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return errs.Invalid("name", "A name is required.")
	}
	return nil
}

func (uv *userValidator) roleDefault(user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	return nil
}

func (uv *userValidator) roleValid(user *domain.User) error {
	if !user.Role.Valid() {
		return errs.Invalid("role", "The role is invalid.")
	}
	return nil
}

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
func (uv *userValidator) emailFormat(user *domain.User) error {
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Invalid("email", "The email address is invalid.")
	}
	return nil
}

// emailIsAvail makes sure that a provided email address is not yet taken.
func (uv *userValidator) emailIsAvail(ctx context.Context, user *domain.User) error {
	existing, err := uv.userGorm.ByEmail(ctx, user.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errs.Internal(err)
	}
	if user.ID != existing.ID {
		return errs.Errorf(errs.ECONFLICT, "This email address is already taken.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	user.Email = strings.TrimSpace(user.Email)
	return nil
}

// emailRequired makes sure that the email is not the empty string.
func (uv *userValidator) emailRequired(user *domain.User) error {
	if user.Email == "" {
		return errs.Invalid("email", "An email address is required.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It then clears the password on the user object in memory.
func (uv *userValidator) passwordBcrypt(user *domain.User) error {
	pwBytes := []byte(user.Password + uv.pepper)
	hashedBytes, err := bcrypt.GenerateFromPassword(pwBytes, bcrypt.DefaultCost)
	if err != nil {
		return errs.Internal(err)
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// passwordMinLength makes sure that the user's password is at least 8 characters long.
func (uv *userValidator) passwordMinLength(user *domain.User) error {
	if utf8.RuneCountInString(user.Password) < 8 {
		return errs.Invalid("password", "The password must have at least 8 characters.")
	}
	return nil
}

// passwordRequired makes sure that the user's password is not the empty string.
func (uv *userValidator) passwordRequired(user *domain.User) error {
	if user.Password == "" {
		return errs.Invalid("password", "A password is required.")
	}
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return &user, nil
}

// ByEmail retrieves a User database record by Email. Unlike ByID it returns
// the raw gorm error, so callers can tell a missing address from a failure.
func (ug *userGorm) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create stores the data from the User object in a new database record.
func (ug *userGorm) Create(ctx context.Context, user *domain.User) error {
	return ug.db.WithContext(ctx).Create(user).Error
}
