package services

import (
	"context"
	"os"
	"time"

	"gemad/internal/models"

	tele "gopkg.in/telebot.v3"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// Bot wraps a single telebot instance and implements
// interfaces.TelegramGateway on top of it.
type Bot struct {
	token string
	bot   *tele.Bot
}

func NewBot(token string) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{token, b}, nil
}

// Telebot exposes the underlying bot for command registration and webhook
// update processing.
func (bot *Bot) Telebot() *tele.Bot {
	return bot.bot
}

func (bot *Bot) ValidateInitData(dataStr string) (*models.UserFromAuth, error) {
	err := initdata.Validate(dataStr, bot.token, 0)
	if err != nil {
		return nil, err
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}

	return &models.UserFromAuth{
		ID:           data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		IsBot:        data.User.IsBot,
		IsPremium:    data.User.IsPremium,
		LanguageCode: data.User.LanguageCode,
		PhotoURL:     data.User.PhotoURL,
	}, nil
}

func (bot *Bot) ChatByName(ctx context.Context, name string) (*models.Chat, error) {
	chat, err := bot.bot.ChatByUsername(name)
	if err != nil {
		return nil, err
	}

	return &models.Chat{
		ID:    chat.ID,
		Type:  string(chat.Type),
		Title: chat.Title,
	}, nil
}

func (bot *Bot) MemberRole(ctx context.Context, chatID int64, userID int64) (models.MemberRole, error) {
	member, err := bot.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	if err != nil {
		return "", err
	}

	return models.MemberRole(member.Role), nil
}

func (bot *Bot) Notify(ctx context.Context, userID int64, text string) error {
	_, err := bot.bot.Send(&tele.User{ID: userID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
		ReplyMarkup: &tele.ReplyMarkup{
			InlineKeyboard: [][]tele.InlineButton{
				{{Text: "💎 Open App", WebApp: &tele.WebApp{URL: os.Getenv("TELEGRAM_WEB_APP_URL")}}},
			},
		},
	})
	if err != nil {
		return err
	}

	return nil
}
