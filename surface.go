package kouhai

import (
	"errors"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"git.sr.ht/~delthas/kouhai/discord"
	"git.sr.ht/~delthas/kouhai/ui"
)

var errNoCurrentUser = errors.New("current user unknown")

// surface is the buffer side of a channel. Its methods run on the UI
// goroutine and do nothing once the buffer is gone.
type surface interface {
	addBulkMessages(msgs []*discordgo.Message)
	addMessage(msg *discordgo.Message, notify bool)
	removeMessage(id string)
	updateMessage(patch *discordgo.Message)
	redraw(ignoreUsers []string)
	addMembers(members []*discordgo.Member)
	close()
}

type bufferSurface struct {
	host     Host
	handle   ui.Handle
	renderer *MessageRender
}

func (s *bufferSurface) addBulkMessages(msgs []*discordgo.Message) {
	s.renderer.AddBulkMessages(msgs)
}

func (s *bufferSurface) addMessage(msg *discordgo.Message, notify bool) {
	s.renderer.AddMessage(msg, notify)
}

func (s *bufferSurface) removeMessage(id string) {
	s.renderer.RemoveMessage(id)
}

func (s *bufferSurface) updateMessage(patch *discordgo.Message) {
	s.renderer.UpdateMessage(patch)
}

func (s *bufferSurface) redraw(ignoreUsers []string) {
	s.renderer.RedrawBuffer(ignoreUsers)
}

func (s *bufferSurface) close() {
	err := s.host.Close(s.handle)
	if err != nil && !errors.Is(err, ui.ErrBufferClosed) {
		log.Warn("failed to close buffer", "err", err)
	}
}

type guildSurface struct {
	bufferSurface
	nicklist *Nicklist
}

func (s *guildSurface) addMembers(members []*discordgo.Member) {
	s.nicklist.AddMembers(members)
}

type directSurface struct {
	bufferSurface
}

func (s *directSurface) addMembers([]*discordgo.Member) {}

// createBuffer registers a buffer whose input is sent to the channel.
func createBuffer(name, channelID, guildID string, conn *discord.Conn, host Host, loop Loop, onClose func()) (ui.Handle, *ui.Buffer, error) {
	h, err := host.Create(name, func(_ *ui.Buffer, input string) {
		SendMessage(channelID, guildID, conn, loop, input)
	}, func(b *ui.Buffer) {
		log.Debug("buffer closed", "buffer", b.Name())
		if onClose != nil {
			onClose()
		}
	})
	if err != nil {
		return ui.Handle{}, nil, &CreationError{Name: name, Err: err}
	}
	b, err := host.Buffer(h)
	if err != nil {
		return ui.Handle{}, nil, &CreationError{Name: name, Err: err}
	}
	return h, b, nil
}

func newGuildSurface(ch *discordgo.Channel, guild *discordgo.Guild, nick string, conn *discord.Conn, host Host, loop Loop, cfg *Config, onClose func()) (surface, error) {
	name := guildBufferName(guild, ch)
	h, b, err := createBuffer(name, ch.ID, guild.ID, conn, host, loop, onClose)
	if err != nil {
		return nil, err
	}
	b.SetShortName("#" + ch.Name)
	b.SetFullName(guild.Name + " #" + ch.Name)
	b.SetTitle(ch.Topic)
	b.SetLocalVar("nick", nick)
	b.SetLocalVar("type", "channel")
	b.SetLocalVar("server", cleanName(guild.Name))
	b.SetLocalVar("channel", cleanName(ch.Name))
	b.SetLocalVar("guild_id", guild.ID)
	b.SetLocalVar("channel_id", ch.ID)
	b.EnableNicklist()

	return &guildSurface{
		bufferSurface: bufferSurface{
			host:     host,
			handle:   h,
			renderer: NewMessageRender(conn, host, h, cfg),
		},
		nicklist: NewNicklist(conn, host, h),
	}, nil
}

func newDirectSurface(ch *discordgo.Channel, conn *discord.Conn, host Host, loop Loop, cfg *Config, onClose func()) (surface, error) {
	me, ok := conn.Cache.CurrentUser()
	if !ok {
		return nil, &CreationError{Name: ch.ID, Err: errNoCurrentUser}
	}

	names := make([]string, 0, len(ch.Recipients))
	cleaned := make([]string, 0, len(ch.Recipients))
	for _, u := range ch.Recipients {
		n := discord.UserName(u)
		names = append(names, n)
		cleaned = append(cleaned, cleanName(n))
	}
	name := "discord.dm." + strings.Join(cleaned, ".")

	h, b, err := createBuffer(name, ch.ID, "", conn, host, loop, onClose)
	if err != nil {
		return nil, err
	}
	display := discord.ChannelName(ch)
	b.SetShortName("DM with " + strings.Join(names, ", "))
	b.SetFullName(display)
	b.SetTitle(display)
	b.SetLocalVar("nick", "@"+discord.UserName(me))
	// type stays unset: "private" indents the buffer in the list
	b.SetLocalVar("channel_id", ch.ID)

	return &directSurface{
		bufferSurface: bufferSurface{
			host:     host,
			handle:   h,
			renderer: NewMessageRender(conn, host, h, cfg),
		},
	}, nil
}

// guildBufferName is the buffer name of a guild channel.
func guildBufferName(guild *discordgo.Guild, ch *discordgo.Channel) string {
	return "discord." + cleanName(guild.Name) + "." + cleanName(ch.Name)
}

// cleanName turns a Discord name into a buffer name component.
func cleanName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsSpace(r), r == '.':
			sb.WriteRune('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
