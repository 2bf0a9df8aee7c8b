package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

const (
	testGuild   = "100"
	testGeneral = "200"
	testSecret  = "201"
	testVoice   = "202"
	testDM      = "300"
)

func newTestCache(t *testing.T) *Cache {
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "1", Username: "me"}

	members := []*discordgo.Member{
		{GuildID: testGuild, User: &discordgo.User{ID: "1", Username: "me"}, Nick: "myself"},
		{GuildID: testGuild, User: &discordgo.User{ID: "2", Username: "bob", GlobalName: "Bobby"}, Roles: []string{"500"}},
		{GuildID: testGuild, User: &discordgo.User{ID: "3", Username: "alice"}},
	}
	guild := &discordgo.Guild{
		ID:   testGuild,
		Name: "Gophers",
		Roles: []*discordgo.Role{
			{ID: testGuild, Name: "@everyone", Permissions: discordgo.PermissionViewChannel},
			{ID: "500", Name: "mods", Mentionable: true, Hoist: true, Position: 1, Color: 0xff0000},
		},
		Channels: []*discordgo.Channel{
			{ID: testSecret, GuildID: testGuild, Name: "secret", Type: discordgo.ChannelTypeGuildText, Position: 2,
				PermissionOverwrites: []*discordgo.PermissionOverwrite{
					{ID: "3", Type: discordgo.PermissionOverwriteTypeMember, Deny: discordgo.PermissionViewChannel},
				}},
			{ID: testGeneral, GuildID: testGuild, Name: "general", Type: discordgo.ChannelTypeGuildText, Position: 1},
			{ID: testVoice, GuildID: testGuild, Name: "voice", Type: discordgo.ChannelTypeGuildVoice, Position: 0},
		},
		Members: members,
	}
	if err := state.GuildAdd(guild); err != nil {
		t.Fatalf("adding guild: %v", err)
	}
	dm := &discordgo.Channel{
		ID:   testDM,
		Type: discordgo.ChannelTypeDM,
		Recipients: []*discordgo.User{
			{ID: "2", Username: "bob"},
		},
	}
	if err := state.ChannelAdd(dm); err != nil {
		t.Fatalf("adding channel: %v", err)
	}
	return NewCache(state)
}

func TestCacheGuildChannel(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.GuildChannel(testGeneral); !ok {
		t.Errorf("expected %s to be a guild channel", testGeneral)
	}
	if _, ok := c.GuildChannel(testDM); ok {
		t.Errorf("expected %s not to be a guild channel", testDM)
	}
	if _, ok := c.GuildChannel("999"); ok {
		t.Errorf("expected unknown channel to be missing")
	}
}

func TestCacheGuildChannels(t *testing.T) {
	c := newTestCache(t)

	channels := c.GuildChannels(testGuild)
	if len(channels) != 2 {
		t.Fatalf("expected 2 text channels, got %d", len(channels))
	}
	if channels[0].ID != testGeneral || channels[1].ID != testSecret {
		t.Errorf("expected channels ordered by position, got %s, %s", channels[0].ID, channels[1].ID)
	}

	if ch, ok := c.GuildChannelByName(testGuild, "#General"); !ok || ch.ID != testGeneral {
		t.Errorf("expected #General to match %s", testGeneral)
	}
	if _, ok := c.GuildChannelByName(testGuild, "voice"); ok {
		t.Errorf("expected voice channels not to match")
	}
}

func TestCacheChannelMembers(t *testing.T) {
	c := newTestCache(t)

	members, err := c.ChannelMembers(testGeneral)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 3 {
		t.Errorf("expected 3 members in #general, got %d", len(members))
	}

	members, err = c.ChannelMembers(testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range members {
		if m.User.ID == "3" {
			t.Errorf("expected alice to be hidden from #secret")
		}
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members in #secret, got %d", len(members))
	}

	if _, err := c.ChannelMembers(testDM); err == nil {
		t.Errorf("expected an error for a direct message channel")
	}
}

func TestCacheNames(t *testing.T) {
	c := newTestCache(t)

	g, _ := c.Guild(testGuild)
	if nick := c.CurrentUserNick(g); nick != "myself" {
		t.Errorf("expected nick %q, got %q", "myself", nick)
	}
	if g, ok := c.GuildByName("gophers"); !ok || g.ID != testGuild {
		t.Errorf("expected guild lookup by name to succeed")
	}
	if !c.IsMe("1") || c.IsMe("2") {
		t.Errorf("IsMe mismatch")
	}
	dm, _ := c.Channel(testDM)
	if name := ChannelName(dm); name != "bob" {
		t.Errorf("expected direct message name %q, got %q", "bob", name)
	}
	if len(c.PrivateChannels()) != 1 {
		t.Errorf("expected one private channel")
	}
}

func TestChannelKinds(t *testing.T) {
	tests := []struct {
		typ           discordgo.ChannelType
		text, private bool
	}{
		{discordgo.ChannelTypeGuildText, true, false},
		{discordgo.ChannelTypeGuildNews, true, false},
		{discordgo.ChannelTypeGuildVoice, false, false},
		{discordgo.ChannelTypeDM, false, true},
		{discordgo.ChannelTypeGroupDM, false, true},
	}
	for _, tt := range tests {
		ch := &discordgo.Channel{Type: tt.typ}
		if got := IsTextChannel(ch); got != tt.text {
			t.Errorf("IsTextChannel(%v): expected %v, got %v", tt.typ, tt.text, got)
		}
		if got := IsPrivateChannel(ch); got != tt.private {
			t.Errorf("IsPrivateChannel(%v): expected %v, got %v", tt.typ, tt.private, got)
		}
	}
}
