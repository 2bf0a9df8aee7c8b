package kouhai

import (
	"github.com/bwmarrin/discordgo"

	"git.sr.ht/~delthas/kouhai/discord"
	"git.sr.ht/~delthas/kouhai/ui"
)

const noRoleGroup = "online"

// Nicklist fills the member list of a guild channel buffer.
type Nicklist struct {
	conn   *discord.Conn
	host   Host
	handle ui.Handle
}

func NewNicklist(conn *discord.Conn, host Host, handle ui.Handle) *Nicklist {
	return &Nicklist{
		conn:   conn,
		host:   host,
		handle: handle,
	}
}

// AddMembers replaces the member list of the buffer. Members are grouped
// under their highest hoisted role.
func (n *Nicklist) AddMembers(members []*discordgo.Member) {
	b, err := n.host.Buffer(n.handle)
	if err != nil {
		return
	}
	guildID := b.LocalVar("guild_id")

	list := make([]ui.Member, 0, len(members))
	for _, m := range members {
		if m.User == nil {
			continue
		}
		hoisted, colored := memberRoles(n.conn.Cache, guildID, m)
		entry := ui.Member{
			Name:  discord.MemberName(m),
			Group: noRoleGroup,
			Self:  n.conn.Cache.IsMe(m.User.ID),
		}
		if hoisted != nil {
			entry.Group = hoisted.Name
			entry.Rank = -hoisted.Position
		}
		if colored != nil {
			entry.Color, _ = ui.RoleColor(colored.Color)
		}
		list = append(list, entry)
	}
	b.SetMembers(list)
}

// memberRoles returns the highest hoisted role and the highest colored role
// of a member, or nil.
func memberRoles(cache *discord.Cache, guildID string, m *discordgo.Member) (hoisted, colored *discordgo.Role) {
	if guildID == "" {
		return nil, nil
	}
	for _, id := range m.Roles {
		r, ok := cache.Role(guildID, id)
		if !ok {
			continue
		}
		if r.Hoist && (hoisted == nil || r.Position > hoisted.Position) {
			hoisted = r
		}
		if r.Color != 0 && (colored == nil || r.Position > colored.Position) {
			colored = r
		}
	}
	return hoisted, colored
}
