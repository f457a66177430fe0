package main

import (
	"context"
	"fmt"
	"os"

	"gemad/internal/datastore"
	"gemad/internal/services"

	"github.com/samber/do"
	"github.com/uptrace/bun"
	tele "gopkg.in/telebot.v3"
)

const textStart = `💎 Welcome to Gemad!💎

Subscribe to our partner channels and earn stars.

🚀 Rewards are credited automatically once your subscription is verified.
`

func registerCommands(container *do.Injector, bot *services.Bot) {
	b := bot.Telebot()

	b.Handle("/start", commandStart)
	b.Handle("/hello", commandHello)

	b.Handle("/balance", func(c tele.Context) error {
		db, err := do.Invoke[*bun.DB](container)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}

		user, err := datastore.FindUserByID(context.Background(), db, c.Sender().ID)
		if err != nil {
			return c.Send("Error when get balance: " + err.Error())
		}

		if user == nil {
			return c.Send("You have no stars yet. Subscribe to a channel to start earning!")
		}

		return c.Send(fmt.Sprintf("⭐ Balance: %d\n🏆 Total earned: %d\n📢 Channels: %d", user.Balance, user.TotalEarned, len(user.SubscribedChannels)))
	})

	b.Handle("/subscribe", func(c tele.Context) error {
		query := c.Args()
		if len(query) < 1 {
			return c.Send("Please enter the channel you want to subscribe to!\n/subscribe <channel>")
		}

		serviceSubscription, err := do.Invoke[*services.ServiceSubscription](container)
		if err != nil {
			return c.Send(fmt.Sprintf("error %s", err.Error()))
		}

		sub, err := serviceSubscription.Enroll(context.Background(), c.Sender().ID, query[0], datastore.DEFAULT_REWARD)
		if err != nil {
			return c.Send("Error when enroll: " + err.Error())
		}

		return c.Send(fmt.Sprintf("📝 Got it! Join %s and your %d⭐ will arrive after the next check.", sub.Channel, sub.Reward))
	})
}

func commandStart(c tele.Context) error {
	return c.Send(textStart,
		&tele.SendOptions{
			ParseMode: tele.ModeHTML,
			ReplyMarkup: &tele.ReplyMarkup{
				InlineKeyboard: [][]tele.InlineButton{
					{{Text: "💎 Open App", WebApp: &tele.WebApp{URL: os.Getenv("TELEGRAM_WEB_APP_URL")}}},
					{{Text: "🔊 Latest news", URL: os.Getenv("TELEGRAM_ANNOUNCEMENT_URL")}},
				},
			},
		})
}

func commandHello(c tele.Context) error {
	return c.Send("Ready, Set, Go with Gemad!\nSubscribe and earn together")
}
