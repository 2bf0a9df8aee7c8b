package kouhai

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"git.sr.ht/~delthas/kouhai/discord"
)

const sendTimeout = 30 * time.Second

// SendMessage resolves the mentions of input and sends it to a channel in
// the background. Failures are logged and printed through loop; they are
// not retried.
func SendMessage(channelID, guildID string, conn *discord.Conn, loop Loop, input string) {
	content := discord.CreateMentions(conn.Cache, guildID, channelID, input)
	conn.Spawn(func() {
		if err := discord.ValidateContent(content); err != nil {
			err = &ValidationError{Err: err}
			log.Error("failed to create message", "channel", channelID, "err", err)
			loop.Post(func() {
				loop.Print("Message content's invalid")
			})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if _, err := conn.HTTP.CreateMessage(ctx, channelID, content); err != nil {
			err = &TransportError{Err: err}
			log.Error("failed to send message", "channel", channelID, "err", err)
			loop.Post(func() {
				loop.Print(fmt.Sprintf("An error occurred sending message: %v", err))
			})
		}
	})
}
