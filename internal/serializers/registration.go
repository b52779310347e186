package serializers

import (
	"context"
	"regexp"
	"strings"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/validate"
)

const (
	MsgPasswordMismatch = "Password fields didn't match."
	MsgEmailTaken       = "This field must be unique."
	MsgUsernameTaken    = "A user with that username already exists."
	msgUsernameChars    = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

var reUsername = regexp.MustCompile(`^[\w.@+-]+$`)

// UserLookup answers the uniqueness questions registration asks.
type UserLookup interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type RegistrationInput struct {
	Username  string `json:"username" form:"username" validate:"required,max=150"`
	Password  string `json:"password" form:"password" validate:"required"`
	Password2 string `json:"password2" form:"password2" validate:"required"`
	Email     string `json:"email" form:"email" validate:"required,email"`
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,max=150"`
}

// Validate checks each field first; the password confirmation is only
// compared once every field is individually valid.
func (in *RegistrationInput) Validate(ctx context.Context, users UserLookup) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	v := &domain.ValidationError{}
	if err := validate.Struct(in); err != nil {
		fv, ok := domain.AsValidation(err)
		if !ok {
			return err
		}
		v = fv
	}

	if in.Username != "" && len(v.Fields["username"]) == 0 {
		if !reUsername.MatchString(in.Username) {
			v.Add("username", msgUsernameChars)
		} else if taken, err := users.UsernameExists(ctx, in.Username); err != nil {
			return err
		} else if taken {
			v.Add("username", MsgUsernameTaken)
		}
	}
	if in.Email != "" && len(v.Fields["email"]) == 0 {
		taken, err := users.EmailExists(ctx, in.Email)
		if err != nil {
			return err
		}
		if taken {
			v.Add("email", MsgEmailTaken)
		}
	}
	if in.Password != "" {
		for _, m := range validate.PasswordStrength(in.Password, []validate.UserAttribute{
			{Verbose: "username", Value: in.Username},
			{Verbose: "first name", Value: in.FirstName},
			{Verbose: "last name", Value: in.LastName},
			{Verbose: "email address", Value: in.Email},
		}) {
			v.Add("password", m)
		}
	}
	if !v.Empty() {
		return v
	}

	if in.Password != in.Password2 {
		return domain.NewFieldError("password", MsgPasswordMismatch)
	}
	return nil
}

type UserRepresentation struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func FromUser(u domain.User) UserRepresentation {
	return UserRepresentation{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}
