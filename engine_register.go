package authcore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{4,30}$`)

// RegisterRequest is the input to [Engine.Register].
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the request shape. The password policy is checked
// separately by the engine.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required,
			validation.Match(usernamePattern).Error("must be 4-30 letters, digits, '.', '_' or '-'"),
		),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Register creates an ACTIVE account with the default role and returns a
// token pair for it.
//
// Checks run in order: request shape, password policy, username uniqueness,
// email uniqueness, default role.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	user, err := e.register(ctx, req)
	if err != nil {
		e.metrics.Inc(MetricRegisterRejected)
		e.logFailure(ctx, "register", req.Username, err)
		return TokenPair{}, err
	}

	pair, err := e.issuePair(user)
	if err != nil {
		e.logFailure(ctx, "register", req.Username, err)
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditRegister, user, true, nil, nil)
	e.logger.Info("user registered", zapUsername(user.Username))
	return pair, nil
}

func (e *Engine) register(ctx context.Context, req RegisterRequest) (User, error) {
	if err := req.Validate(); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidRequest, verrs)
		}
		return User{}, backendErr(err)
	}
	if err := e.config.Password.Policy.Check(req.Password); err != nil {
		return User{}, err
	}
	hash, err := e.hash(req.Password)
	if err != nil {
		return User{}, err
	}

	unlockUser := e.lockUser(req.Username)
	defer unlockUser()
	unlockEmail := e.lockEmail(strings.ToLower(req.Email))
	defer unlockEmail()

	taken, err := e.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return User{}, backendErr(err)
	}
	if taken {
		return User{}, ErrUsernameTaken
	}

	taken, err = e.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return User{}, backendErr(err)
	}
	if taken {
		return User{}, ErrEmailTaken
	}

	role, err := e.findRole(ctx, e.config.Account.DefaultRole)
	if err != nil {
		return User{}, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return User{}, backendErr(err)
	}

	now := e.now()
	user := User{
		ID:           id.String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Status:       AccountActive,
		Roles:        []string{role.Code},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.users.Save(ctx, user); err != nil {
		// Another node may have won the race the locks cannot see.
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			return User{}, err
		}
		return User{}, backendErr(err)
	}
	return user, nil
}

func (e *Engine) findRole(ctx context.Context, code string) (Role, error) {
	role, err := e.roles.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return Role{}, fmt.Errorf("%w: %s", ErrRoleNotFound, code)
		}
		return Role{}, backendErr(err)
	}
	return role, nil
}
