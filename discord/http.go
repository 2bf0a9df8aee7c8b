package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// sessionRequester sends requests through a discordgo session. discordgo
// already honours the bucket limits Discord reports; the limiter only
// spaces out messages typed by the user.
type sessionRequester struct {
	session *discordgo.Session
	sends   *rate.Limiter
}

// NewRequester returns a Requester that allows at most sendRate messages
// per second, with bursts of burst messages.
func NewRequester(session *discordgo.Session, sendRate float64, burst int) Requester {
	limit := rate.Inf
	if sendRate > 0 {
		limit = rate.Limit(sendRate)
	}
	if burst < 1 {
		burst = 1
	}
	return &sessionRequester{
		session: session,
		sends:   rate.NewLimiter(limit, burst),
	}
}

func (r *sessionRequester) ChannelMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	return r.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
}

func (r *sessionRequester) CreateMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error) {
	if err := r.sends.Wait(ctx); err != nil {
		return nil, err
	}
	return r.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
}
