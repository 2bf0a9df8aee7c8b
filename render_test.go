package kouhai

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"git.sr.ht/~delthas/kouhai/ui"
)

func TestRenderNotify(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Highlights = []string{"gopher"}
	c := env.newGeneral(t, nil)
	defer c.Release()
	b := env.buffer(t, "discord.gophers.general")

	plain := testMessage("1", "2", "hello")
	plain.GuildID = testGuild
	mention := testMessage("2", "2", "hey <@1>")
	mention.GuildID = testGuild
	mention.Mentions = []*discordgo.User{{ID: "1", Username: "me"}}
	word := testMessage("3", "3", "any Gopher here?")
	word.GuildID = testGuild
	self := testMessage("4", "1", "hi <@1>")
	self.GuildID = testGuild
	self.Mentions = mention.Mentions

	for _, m := range []*discordgo.Message{plain, mention, word, self} {
		c.AddMessage(m, true)
	}

	expected := []ui.NotifyType{ui.NotifyUnread, ui.NotifyHighlight, ui.NotifyHighlight, ui.NotifyNone}
	lines := b.Lines()
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, l := range lines {
		if l.Notify != expected[i] {
			t.Errorf("line %s: expected notify %v, got %v", l.ID, expected[i], l.Notify)
		}
	}
	if lines[1].Body.String() != "hey @myself" {
		t.Errorf("expected rendered mention, got %q", lines[1].Body.String())
	}
	if lines[0].Head.String() != "Bobby" {
		t.Errorf("expected the member name as head, got %q", lines[0].Head.String())
	}
	if b.Highlights() != 2 {
		t.Errorf("expected 2 highlights, got %d", b.Highlights())
	}
}

func TestRenderUpdateRemove(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()
	b := env.buffer(t, "discord.gophers.general")

	m := testMessage("1", "2", "helo")
	m.Attachments = []*discordgo.MessageAttachment{{URL: "https://cdn.example.org/cat.png"}}
	c.AddMessage(m, false)
	c.AddMessage(testMessage("2", "3", "second"), false)

	edited := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	c.UpdateMessage(&discordgo.Message{ID: "1", Content: "hello", EditedTimestamp: &edited})
	c.UpdateMessage(&discordgo.Message{ID: "9", Content: "unknown", EditedTimestamp: &edited})
	assertLines(t, b, "1", "2")

	body := b.Lines()[0].Body.String()
	if expected := "hello https://cdn.example.org/cat.png (edited)"; body != expected {
		t.Errorf("expected %q, got %q", expected, body)
	}
	if !b.Lines()[0].At.Equal(testTime) {
		t.Errorf("expected the edit to keep the message time")
	}

	c.RemoveMessage("1")
	c.RemoveMessage("1")
	assertLines(t, b, "2")
}

func TestRenderRedrawIgnore(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Ignores = []string{"3"}
	c := env.newGeneral(t, nil)
	defer c.Release()
	b := env.buffer(t, "discord.gophers.general")

	m1 := testMessage("1", "2", "from bob")
	m2 := testMessage("2", "3", "from alice")
	m2.Timestamp = testTime.Add(time.Minute)
	m3 := testMessage("3", "1", "from me")
	m3.Timestamp = testTime.Add(2 * time.Minute)
	c.AddMessage(m1, false)
	c.AddMessage(m2, false)
	c.AddMessage(m3, false)
	assertLines(t, b, "1", "3")

	c.Redraw([]string{"2"})
	assertLines(t, b, "3")

	c.Redraw(nil)
	assertLines(t, b, "1", "3")
}

func TestRenderReply(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()
	b := env.buffer(t, "discord.gophers.general")

	ref := testMessage("1", "3", strings.Repeat("x", 50))
	ref.Author.Username = "alice"
	reply := testMessage("2", "2", "indeed")
	reply.Type = discordgo.MessageTypeReply
	reply.ReferencedMessage = ref
	c.AddMessage(reply, false)

	body := b.Lines()[0].Body.String()
	if expected := "↪ alice: " + strings.Repeat("x", 40) + "… indeed"; body != expected {
		t.Errorf("expected %q, got %q", expected, body)
	}
}

func TestIsHighlight(t *testing.T) {
	tests := []struct {
		text, word string
		expected   bool
	}{
		{"hello gopher", "gopher", true},
		{"gopher: hi", "gopher", true},
		{"gophers unite", "gopher", false},
		{"go_gopher", "gopher", false},
		{"(gopher)", "gopher", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		if got := isHighlight(tt.text, tt.word); got != tt.expected {
			t.Errorf("isHighlight(%q, %q): expected %v, got %v", tt.text, tt.word, tt.expected, got)
		}
	}
}
