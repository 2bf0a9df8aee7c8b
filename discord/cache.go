package discord

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var errNotGuildChannel = errors.New("not a guild channel")

// Cache answers id lookups from the gateway state.
type Cache struct {
	state *discordgo.State
}

func NewCache(state *discordgo.State) *Cache {
	return &Cache{state: state}
}

func (c *Cache) State() *discordgo.State {
	return c.state
}

func (c *Cache) Channel(id string) (*discordgo.Channel, bool) {
	ch, err := c.state.Channel(id)
	if err != nil {
		return nil, false
	}
	return ch, true
}

// GuildChannel returns the channel only if it belongs to a guild.
func (c *Cache) GuildChannel(id string) (*discordgo.Channel, bool) {
	ch, ok := c.Channel(id)
	if !ok || ch.GuildID == "" {
		return nil, false
	}
	return ch, true
}

func (c *Cache) Guild(id string) (*discordgo.Guild, bool) {
	g, err := c.state.Guild(id)
	if err != nil {
		return nil, false
	}
	return g, true
}

// GuildByName matches a guild by id first, then by case-insensitive name.
func (c *Cache) GuildByName(name string) (*discordgo.Guild, bool) {
	if g, ok := c.Guild(name); ok {
		return g, true
	}
	c.state.RLock()
	defer c.state.RUnlock()
	for _, g := range c.state.Guilds {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return nil, false
}

func (c *Cache) CurrentUser() (*discordgo.User, bool) {
	c.state.RLock()
	defer c.state.RUnlock()
	if c.state.User == nil {
		return nil, false
	}
	return c.state.User, true
}

func (c *Cache) IsMe(userID string) bool {
	u, ok := c.CurrentUser()
	return ok && u.ID == userID
}

func (c *Cache) Member(guildID, userID string) (*discordgo.Member, bool) {
	m, err := c.state.Member(guildID, userID)
	if err != nil {
		return nil, false
	}
	return m, true
}

func (c *Cache) Role(guildID, roleID string) (*discordgo.Role, bool) {
	r, err := c.state.Role(guildID, roleID)
	if err != nil {
		return nil, false
	}
	return r, true
}

// CurrentUserNick is the name the current user goes by in a guild.
func (c *Cache) CurrentUserNick(guild *discordgo.Guild) string {
	u, ok := c.CurrentUser()
	if !ok {
		return ""
	}
	if m, ok := c.Member(guild.ID, u.ID); ok && m.Nick != "" {
		return m.Nick
	}
	return UserName(u)
}

// GuildChannels lists the text channels of a guild by position.
func (c *Cache) GuildChannels(guildID string) []*discordgo.Channel {
	g, ok := c.Guild(guildID)
	if !ok {
		return nil
	}
	c.state.RLock()
	channels := make([]*discordgo.Channel, 0, len(g.Channels))
	for _, ch := range g.Channels {
		if IsTextChannel(ch) {
			channels = append(channels, ch)
		}
	}
	c.state.RUnlock()
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})
	return channels
}

// GuildChannelByName matches a text channel of a guild by id or name. A
// leading '#' is ignored.
func (c *Cache) GuildChannelByName(guildID, name string) (*discordgo.Channel, bool) {
	name = strings.TrimPrefix(name, "#")
	for _, ch := range c.GuildChannels(guildID) {
		if ch.ID == name || strings.EqualFold(ch.Name, name) {
			return ch, true
		}
	}
	return nil, false
}

func (c *Cache) PrivateChannels() []*discordgo.Channel {
	c.state.RLock()
	defer c.state.RUnlock()
	return append([]*discordgo.Channel(nil), c.state.PrivateChannels...)
}

// ChannelMembers returns the guild members allowed to view a channel.
func (c *Cache) ChannelMembers(channelID string) ([]*discordgo.Member, error) {
	ch, ok := c.GuildChannel(channelID)
	if !ok {
		return nil, errNotGuildChannel
	}
	g, ok := c.Guild(ch.GuildID)
	if !ok {
		return nil, fmt.Errorf("guild %s of channel %s not cached", ch.GuildID, channelID)
	}

	c.state.RLock()
	members := append([]*discordgo.Member(nil), g.Members...)
	c.state.RUnlock()

	visible := make([]*discordgo.Member, 0, len(members))
	for _, m := range members {
		if m.User == nil {
			continue
		}
		perms, err := c.state.UserChannelPermissions(m.User.ID, channelID)
		if err != nil {
			return nil, fmt.Errorf("permissions of %s in %s: %w", m.User.ID, channelID, err)
		}
		if perms&discordgo.PermissionViewChannel != 0 {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

func IsTextChannel(ch *discordgo.Channel) bool {
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return true
	}
	return false
}

func IsPrivateChannel(ch *discordgo.Channel) bool {
	switch ch.Type {
	case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
		return true
	}
	return false
}

// UserName prefers the global display name over the unique username.
func UserName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func MemberName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	return UserName(m.User)
}

// ChannelName is the display name of a channel; direct messages without a
// name are named after their recipients.
func ChannelName(ch *discordgo.Channel) string {
	if ch.Name != "" {
		return ch.Name
	}
	names := make([]string, 0, len(ch.Recipients))
	for _, u := range ch.Recipients {
		names = append(names, UserName(u))
	}
	return strings.Join(names, ", ")
}
