package authcore

import (
	"context"
	"sort"
	"strings"
)

// AdminGetUser returns the admin view of a user.
func (e *Engine) AdminGetUser(ctx context.Context, userID string) (UserSummary, error) {
	if err := e.ready(); err != nil {
		return UserSummary{}, err
	}

	user, err := e.findUserByID(ctx, userID)
	if err != nil {
		e.logFailure(ctx, "admin_get", "", err)
		return UserSummary{}, err
	}
	return summarize(user), nil
}

// AdminUpdateUser applies update and returns the resulting summary.
//
// A status change is applied as given, which is the only way to unlock an
// account. A non-blank password override must meet the minimum length; it
// replaces the hash and clears the failed-attempt counter. Every role code
// must resolve in the RoleStore.
func (e *Engine) AdminUpdateUser(ctx context.Context, userID string, update AdminUserUpdate) (UserSummary, error) {
	if err := e.ready(); err != nil {
		return UserSummary{}, err
	}

	user, err := e.adminUpdate(ctx, userID, update)
	if err != nil {
		e.logFailure(ctx, "admin_update", user.Username, err)
		return UserSummary{}, err
	}

	md := map[string]string{
		"status": user.Status.String(),
		"roles":  strings.Join(user.Roles, ","),
	}
	e.metrics.Inc(MetricAdminUserUpdated)
	e.emitAudit(ctx, AuditAdminUserUpdated, user, true, nil, md)
	return summarize(user), nil
}

func (e *Engine) adminUpdate(ctx context.Context, userID string, update AdminUserUpdate) (User, error) {
	if update.Status != nil && *update.Status > AccountDisabled {
		return User{}, errorf(ErrInvalidRequest, "unknown account status %d", *update.Status)
	}

	var newHash string
	if update.Password != nil && strings.TrimSpace(*update.Password) != "" {
		if err := e.config.Password.Policy.checkLength(*update.Password); err != nil {
			return User{}, err
		}
		h, err := e.hash(*update.Password)
		if err != nil {
			return User{}, err
		}
		newHash = h
	}

	var roles []string
	if update.RoleCodes != nil {
		roles = make([]string, 0, len(update.RoleCodes))
		seen := make(map[string]struct{}, len(update.RoleCodes))
		for _, code := range update.RoleCodes {
			role, err := e.findRole(ctx, code)
			if err != nil {
				return User{}, err
			}
			if _, dup := seen[role.Code]; dup {
				continue
			}
			seen[role.Code] = struct{}{}
			roles = append(roles, role.Code)
		}
	}

	user, err := e.findUserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	unlock := e.lockUser(user.Username)
	defer unlock()

	user, err = e.findUserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	if newHash != "" {
		user.PasswordHash = newHash
		user.FailedLoginAttempts = 0
	}
	if roles != nil {
		user.Roles = roles
	}
	if err := e.saveUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// AdminDeleteUser removes a user. Tokens already issued stay valid until
// they expire.
func (e *Engine) AdminDeleteUser(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.findUserByID(ctx, userID)
	if err == nil {
		unlock := e.lockUser(user.Username)
		err = e.users.Delete(ctx, userID)
		unlock()
		if err != nil && KindOf(err) != KindNotFound {
			err = backendErr(err)
		}
	}
	if err != nil {
		e.logFailure(ctx, "admin_delete", user.Username, err)
		return err
	}

	e.metrics.Inc(MetricAdminUserDeleted)
	e.emitAudit(ctx, AuditAdminUserDeleted, user, true, nil, nil)
	return nil
}

func summarize(user User) UserSummary {
	roles := append([]string(nil), user.Roles...)
	sort.Strings(roles)
	return UserSummary{
		ID:                  user.ID,
		Username:            user.Username,
		Email:               user.Email,
		Status:              user.Status.String(),
		FailedLoginAttempts: user.FailedLoginAttempts,
		Roles:               roles,
	}
}
