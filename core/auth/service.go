package auth

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
)

const (
	registerEndpoint = "/auth/register/"
	loginEndpoint    = "/auth/login/"
	userDataEndpoint = "/auth/user/data/"
)

var (
	// errors
	ErrNoTokenReceived  = errors.New("login failed: no token received")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoUser           = errors.New("no user in response")
)

// StudentFinder looks up the student profile linked to a user.
type StudentFinder interface {
	IDByUser(ctx context.Context, userID string) (string, error)
}

type Service struct {
	api      *apiclient.Client
	sess     *session.Manager
	students StudentFinder
	validate *validator.Validate
	logger   core.Logger
}

func NewService(
	api *apiclient.Client,
	sess *session.Manager,
	students StudentFinder,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{api: api, sess: sess, students: students, validate: validate, logger: logger}
}

func (svc *Service) Register(ctx context.Context, req RegisterRequest) (Registration, error) {
	req.Email = core.CleanString(req.Email, true /* lower */)
	req.RoleType = core.CleanString(req.RoleType, true /* lower */)
	if err := svc.validate.Struct(req); err != nil {
		return Registration{}, err
	}

	env, err := svc.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Endpoint: registerEndpoint, Body: req})
	if err != nil {
		return Registration{}, errors.Wrap(err, "registering")
	}

	reg := Registration{Message: env.MessageOr("User created successfully")}
	var usr session.User
	if err := env.Decode("user", &usr); err == nil {
		reg.User = &usr
		if usr.ID != "" {
			if err := svc.sess.SetUserID(ctx, string(usr.ID)); err != nil {
				return reg, err
			}
		}
	}
	return reg, nil
}

// Login authenticates and persists the new session, then links the user's student profile if there is one.
func (svc *Service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	creds.Email = core.CleanString(creds.Email, true /* lower */)
	if err := svc.validate.Struct(creds); err != nil {
		return LoginResult{}, err
	}

	env, err := svc.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Endpoint: loginEndpoint, Body: creds})
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "logging in")
	}
	ok, _ := env.Success()
	token := env.Text("token")
	if !ok || token == "" {
		return LoginResult{}, ErrNoTokenReceived
	}

	// a new login never inherits a previous session
	if err := svc.sess.Clear(ctx); err != nil {
		return LoginResult{}, err
	}
	res := LoginResult{Token: token, Role: session.RoleStandardUser}
	if err := svc.sess.SetToken(ctx, token); err != nil {
		return res, err
	}

	var usr session.User
	if err := env.Decode("user", &usr); err == nil {
		res.User = &usr
		res.Role = session.ParseRole(string(usr.Role))
		if err := svc.persistProfile(ctx, usr); err != nil {
			return res, err
		}
	} else {
		svc.logger.Warn("auth: login response has no user", err)
	}

	if res.User != nil && res.User.ID != "" && svc.students != nil {
		studentID, err := svc.students.IDByUser(ctx, string(res.User.ID))
		switch {
		case err == nil && studentID != "":
			res.StudentID = studentID
			if err := svc.sess.SetStudentID(ctx, studentID); err != nil {
				return res, err
			}
		case err != nil && !apiclient.IsNoProfile(err):
			svc.logger.Warn("auth: student profile lookup failed", err, *res.User)
		}
	}
	return res, nil
}

// persistProfile caches the profile, the user id and the role parsed from it.
func (svc *Service) persistProfile(ctx context.Context, usr session.User) error {
	if usr.ID != "" {
		if err := svc.sess.SetUserID(ctx, string(usr.ID)); err != nil {
			return err
		}
	}
	if err := svc.sess.SetRole(ctx, session.ParseRole(string(usr.Role))); err != nil {
		return err
	}
	return svc.sess.SetProfile(ctx, usr)
}

func (svc *Service) Logout(ctx context.Context) error {
	return svc.sess.Clear(ctx)
}

// FetchUser fetches the live profile of the logged in user.
func (svc *Service) FetchUser(ctx context.Context) (session.User, error) {
	env, err := svc.api.Get(ctx, userDataEndpoint, nil)
	if err != nil {
		return session.User{}, errors.Wrap(err, "fetching user data")
	}
	var usr session.User
	if err := env.Decode("user", &usr); err != nil {
		return session.User{}, errors.Wrap(ErrNoUser, err.Error())
	}
	return usr, nil
}

// ResolveRole returns the role of the logged in user, as fresh as possible. It never fails:
// the live profile wins and is cached, otherwise the cached role is used (standard user when absent).
func (svc *Service) ResolveRole(ctx context.Context) session.Role {
	usr, err := svc.FetchUser(ctx)
	if err == nil {
		role := session.ParseRole(string(usr.Role))
		if err := svc.persistProfile(ctx, usr); err != nil {
			svc.logger.Warn("auth: caching profile failed", err, usr)
		}
		return role
	}

	svc.logger.Warn("auth: live role lookup failed, using cached role", err)
	role, cacheErr := svc.sess.CachedRole(ctx)
	if cacheErr != nil {
		svc.logger.Warn("auth: reading cached role failed", cacheErr)
		return session.RoleStandardUser
	}
	return role
}

// CurrentUser returns the live profile, or the cached one when the backend cannot be reached.
func (svc *Service) CurrentUser(ctx context.Context) (session.User, error) {
	if !svc.sess.IsAuthenticated(ctx) {
		return session.User{}, ErrNotAuthenticated
	}
	usr, err := svc.FetchUser(ctx)
	if err == nil {
		if err := svc.persistProfile(ctx, usr); err != nil {
			svc.logger.Warn("auth: caching profile failed", err, usr)
		}
		return usr, nil
	}

	cached, cacheErr := svc.sess.CachedProfile(ctx)
	if cacheErr != nil || cached == nil {
		return session.User{}, err
	}
	svc.logger.Warn("auth: using cached profile", err, *cached)
	return *cached, nil
}
