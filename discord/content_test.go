package discord

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestValidateContent(t *testing.T) {
	cases := []struct {
		content string
		err     error
	}{
		{"hello", nil},
		{"", ErrContentEmpty},
		{" \t\n", ErrContentEmpty},
		{strings.Repeat("a", MaxMessageLength), nil},
		{strings.Repeat("é", MaxMessageLength), nil},
		{strings.Repeat("a", MaxMessageLength+1), ErrContentTooLong},
	}
	for _, c := range cases {
		if err := ValidateContent(c.content); err != c.err {
			t.Errorf("%.20q: expected %v, got %v", c.content, c.err, err)
		}
	}
}

func assertCreateMentions(t *testing.T, c *Cache, guildID, channelID, input, expected string) {
	actual := CreateMentions(c, guildID, channelID, input)
	if actual != expected {
		t.Errorf("%q: expected %q, got %q", input, expected, actual)
	}
}

func TestCreateMentions(t *testing.T) {
	c := newTestCache(t)

	assertCreateMentions(t, c, testGuild, testGeneral, "hi @bob", "hi <@2>")
	assertCreateMentions(t, c, testGuild, testGeneral, "@Bobby: hey", "<@2>: hey")
	assertCreateMentions(t, c, testGuild, testGeneral, "ping @myself", "ping <@1>")
	assertCreateMentions(t, c, testGuild, testGeneral, "@mods look", "<@&500> look")
	assertCreateMentions(t, c, testGuild, testGeneral, "see #secret", "see <#201>")
	assertCreateMentions(t, c, testGuild, testGeneral, "@nobody #nowhere", "@nobody #nowhere")
	assertCreateMentions(t, c, testGuild, testGeneral, "mail@bob", "mail@bob")
	assertCreateMentions(t, c, "", testDM, "@bob hi #general", "<@2> hi #general")
}

func TestRenderMentions(t *testing.T) {
	c := newTestCache(t)

	msg := &discordgo.Message{
		Content:  "<@2> <@!3> <@&500> <#200> <@42> <#999>",
		Mentions: []*discordgo.User{{ID: "42", Username: "stranger"}},
	}
	expected := "@Bobby @alice @mods #general @stranger <#999>"
	if actual := RenderMentions(c, testGuild, msg); actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestMentions(t *testing.T) {
	c := newTestCache(t)

	if !Mentions(c, testGuild, &discordgo.Message{MentionEveryone: true}, "3") {
		t.Errorf("expected @everyone to mention alice")
	}
	if !Mentions(c, testGuild, &discordgo.Message{Mentions: []*discordgo.User{{ID: "3"}}}, "3") {
		t.Errorf("expected direct mention of alice")
	}
	if !Mentions(c, testGuild, &discordgo.Message{MentionRoles: []string{"500"}}, "2") {
		t.Errorf("expected role mention of bob")
	}
	if Mentions(c, testGuild, &discordgo.Message{MentionRoles: []string{"500"}}, "3") {
		t.Errorf("expected alice not to hold the mods role")
	}
}
