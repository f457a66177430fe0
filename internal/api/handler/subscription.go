package handler

import (
	"gemad/internal/datastore"
	"gemad/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupSubscription struct {
	container *do.Injector
}

type enrollPayload struct {
	Channel string `json:"channel"`
	Reward  int    `json:"reward"`
}

func (gr *groupSubscription) Enroll(c echo.Context) error {
	serviceSubscription, err := do.Invoke[*services.ServiceSubscription](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveAuthUser(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload enrollPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	if payload.Reward <= 0 {
		payload.Reward = datastore.DEFAULT_REWARD
	}

	sub, err := serviceSubscription.Enroll(c.Request().Context(), user.ID, payload.Channel, payload.Reward)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, sub, nil)
}

func (gr *groupSubscription) List(c echo.Context) error {
	serviceSubscription, err := do.Invoke[*services.ServiceSubscription](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveAuthUser(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	subs, err := serviceSubscription.GetUserSubscriptions(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, subs, nil)
}

func (gr *groupSubscription) Me(c echo.Context) error {
	serviceSubscription, err := do.Invoke[*services.ServiceSubscription](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveAuthUser(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	me, err := serviceSubscription.Me(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, me, nil)
}
