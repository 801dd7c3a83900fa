package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	contextTokenKey = "userToken"
	tokenTTL        = 24 * time.Hour
)

// Claims represents the authorization claims carried by a token.
type Claims struct {
	jwt.StandardClaims
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// tokenMiddleware authenticates `Authorization: Token <jwt>` headers.
func tokenMiddleware(secret string) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		AuthScheme:    "Token",
	})
}

func generateToken(secret string, usr *UserRow) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    "niva-mockapi",
			Subject:   usr.ID,
			ExpiresAt: now.Add(tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:   usr.Email,
		IsAdmin: usr.isAdmin(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if !claims.IsAdmin {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func hashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
}

func checkPassword(hash []byte, pwd string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd)) == nil
}

// Handlers

type authApi struct {
	srv *server
}

func registerAuthAPI(g *echo.Group, auth echo.MiddlewareFunc, srv *server) {
	api := authApi{srv: srv}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.GET("/user/data", api.userData, auth)
}

type (
	registerRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		RoleType string `json:"role_type" validate:"required,oneof=user admin"`
	}

	loginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
)

func (api *authApi) register(ctx echo.Context) error {
	var data registerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to registerRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}

	role := RoleUser
	if data.RoleType == "admin" {
		role = RoleAdmin
	}
	usr, err := api.srv.db.CreateUser(data.Email, data.Password, role)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "User created successfully",
		"data":    echo.Map{"user": api.srv.userJSON(usr)},
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}

	usr, ok := api.srv.db.UserByEmail(data.Email)
	if !ok || !checkPassword(usr.PasswordHash, data.Password) {
		return ctx.JSON(http.StatusOK, echo.Map{"success": false, "message": "Invalid email or password"})
	}
	token, err := generateToken(api.srv.opts.SecretKey, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"data":    echo.Map{"token": token, "user": api.srv.userJSON(usr)},
	})
}

func (api *authApi) userData(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, ok := api.srv.db.User(claims.Subject)
	if !ok {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"user": api.srv.userJSON(usr)},
	})
}
