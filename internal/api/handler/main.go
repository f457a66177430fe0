package handler

import (
	"net/http"

	"gemad/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
	tele "gopkg.in/telebot.v3"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🤖")
	})

	bot, err := do.Invoke[*services.Bot](cfg.Container)
	if err != nil {
		return nil, err
	}

	// Telegram delivers updates here once the webhook is registered.
	r.POST("/webhook", func(c echo.Context) error {
		var update tele.Update
		if err := c.Bind(&update); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		bot.Telebot().ProcessUpdate(update)
		return c.NoContent(http.StatusOK)
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(bot)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		s := groupSubscription{cfg.Container}
		routesAPIv1.POST("/subscriptions", s.Enroll)
		routesAPIv1.GET("/subscriptions", s.List)
		routesAPIv1.GET("/user/me", s.Me)
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
