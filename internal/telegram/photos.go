package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PhotoSource resolves a user's current profile photo URL.
type PhotoSource interface {
	ProfilePhotoURL(ctx context.Context, telegramID int64) (string, error)
}

// BotPhotos looks photos up through the Bot API.
type BotPhotos struct {
	bot *tgbotapi.BotAPI
}

func NewBotPhotos(token string) (*BotPhotos, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot api: %w", err)
	}
	return &BotPhotos{bot: bot}, nil
}

// ProfilePhotoURL returns an empty string when the user has no photo.
func (p *BotPhotos) ProfilePhotoURL(ctx context.Context, telegramID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	photos, err := p.bot.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{
		UserID: telegramID,
		Limit:  1,
	})
	if err != nil {
		return "", err
	}
	if len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", nil
	}

	return p.bot.GetFileDirectURL(photos.Photos[0][0].FileID)
}
