package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
)

const contextTokenKey = "userToken"

type TokenResponse struct {
	Token string `json:"token"`
}

// newJWTConfig returns the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(auth.Claims),
	}
}

func getContextClaims(ctx echo.Context) (auth.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*auth.Claims); ok {
			return *claims, nil
		}
	}
	return auth.Claims{}, errUnauthorized
}

type authApi struct {
	conf *core.Config
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config) {
	api := authApi{conf: conf}

	ag := g.Group("/auth", jwt)
	ag.POST("/token-refresh", api.refreshToken)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	newClaims, err := auth.Refresh(claims, api.conf)
	if err != nil {
		if errors.Cause(err) == auth.ErrRefreshExpired {
			return errRefreshExpired
		}
		return errors.Wrap(err, "refreshing claims")
	}
	token, err := auth.GenerateToken(newClaims, api.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}
