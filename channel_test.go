package kouhai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"git.sr.ht/~delthas/kouhai/discord"
	"git.sr.ht/~delthas/kouhai/ui"
)

const (
	testGuild   = "100"
	testGeneral = "200"
	testSecret  = "201"
	testDM      = "300"
)

type testLoop struct {
	mu      sync.Mutex
	posted  []func()
	printed []string
}

func (l *testLoop) Post(f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posted = append(l.posted, f)
}

func (l *testLoop) Print(text string) {
	l.printed = append(l.printed, text)
}

func (l *testLoop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted)
}

// run runs the posted functions, as the UI goroutine would.
func (l *testLoop) run() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, f := range posted {
		f()
	}
}

type testRequester struct {
	mu         sync.Mutex
	history    []*discordgo.Message
	historyErr error
	block      bool
	sendErr    error
	fetches    int
	sent       []string
}

func (r *testRequester) ChannelMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	r.mu.Lock()
	r.fetches++
	block := r.block
	msgs := append([]*discordgo.Message(nil), r.history...)
	err := r.historyErr
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (r *testRequester) CreateMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, content)
	if r.sendErr != nil {
		return nil, r.sendErr
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

type testEnv struct {
	conn  *discord.Conn
	http  *testRequester
	loop  *testLoop
	bs    *ui.BufferList
	cfg   *Config
	guild *discordgo.Guild
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "1", Username: "me"}

	guild := &discordgo.Guild{
		ID:   testGuild,
		Name: "Gophers",
		Roles: []*discordgo.Role{
			{ID: testGuild, Name: "@everyone", Permissions: discordgo.PermissionViewChannel},
			{ID: "500", Name: "mods", Mentionable: true, Hoist: true, Position: 1, Color: 0xff0000},
		},
		Channels: []*discordgo.Channel{
			{ID: testGeneral, GuildID: testGuild, Name: "general", Topic: "all things go", Type: discordgo.ChannelTypeGuildText, Position: 1},
			{ID: testSecret, GuildID: testGuild, Name: "secret", Type: discordgo.ChannelTypeGuildText, Position: 2,
				PermissionOverwrites: []*discordgo.PermissionOverwrite{
					{ID: "3", Type: discordgo.PermissionOverwriteTypeMember, Deny: discordgo.PermissionViewChannel},
				}},
		},
		Members: []*discordgo.Member{
			{GuildID: testGuild, User: &discordgo.User{ID: "1", Username: "me"}, Nick: "myself"},
			{GuildID: testGuild, User: &discordgo.User{ID: "2", Username: "bob", GlobalName: "Bobby"}, Roles: []string{"500"}},
			{GuildID: testGuild, User: &discordgo.User{ID: "3", Username: "alice"}},
		},
	}
	if err := state.GuildAdd(guild); err != nil {
		t.Fatalf("adding guild: %v", err)
	}

	http := &testRequester{}
	cfg := Defaults()
	bs := ui.NewBufferList()
	if _, err := bs.Create("home", nil, nil); err != nil {
		t.Fatalf("creating home buffer: %v", err)
	}
	return &testEnv{
		conn:  discord.NewConn(discord.NewCache(state), http),
		http:  http,
		loop:  &testLoop{},
		bs:    bs,
		cfg:   &cfg,
		guild: guild,
	}
}

func (env *testEnv) channel(t *testing.T, id string) *discordgo.Channel {
	t.Helper()
	ch, ok := env.conn.Cache.GuildChannel(id)
	if !ok {
		t.Fatalf("channel %s not cached", id)
	}
	return ch
}

func (env *testEnv) newGeneral(t *testing.T, onClose func()) *Channel {
	t.Helper()
	c, err := NewGuildChannel(env.channel(t, testGeneral), env.guild, env.conn, env.bs, env.loop, env.cfg, onClose)
	if err != nil {
		t.Fatalf("creating channel: %v", err)
	}
	return c
}

func (env *testEnv) buffer(t *testing.T, name string) *ui.Buffer {
	t.Helper()
	b := env.bs.ByName(name)
	if b == nil {
		t.Fatalf("buffer %q not found", name)
	}
	return b
}

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testMessage(id, authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: testGeneral,
		Content:   content,
		Timestamp: testTime,
		Author:    &discordgo.User{ID: authorID},
	}
}

func assertLines(t *testing.T, b *ui.Buffer, expected ...string) {
	t.Helper()
	lines := b.Lines()
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, l := range lines {
		if l.ID != expected[i] {
			t.Errorf("line #%d: expected %q, got %q", i, expected[i], l.ID)
		}
	}
}

func TestGuildChannelBuffer(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()

	if c.ID() != testGeneral || c.GuildID() != testGuild {
		t.Errorf("unexpected ids %q %q", c.ID(), c.GuildID())
	}
	b := env.buffer(t, "discord.gophers.general")
	if b.ShortName() != "#general" {
		t.Errorf("expected short name %q, got %q", "#general", b.ShortName())
	}
	if b.Title() != "all things go" {
		t.Errorf("expected the topic as title, got %q", b.Title())
	}
	vars := map[string]string{
		"nick":       "@myself",
		"type":       "channel",
		"server":     "gophers",
		"channel":    "general",
		"guild_id":   testGuild,
		"channel_id": testGeneral,
	}
	for k, v := range vars {
		if b.LocalVar(k) != v {
			t.Errorf("local var %q: expected %q, got %q", k, v, b.LocalVar(k))
		}
	}
	if !b.HasNicklist() {
		t.Errorf("expected the nicklist to be enabled")
	}

	if _, err := NewGuildChannel(env.channel(t, testGeneral), env.guild, env.conn, env.bs, env.loop, env.cfg, nil); err == nil {
		t.Errorf("expected a second buffer for the same channel to fail")
	} else {
		var ce *CreationError
		if !errors.As(err, &ce) || !errors.Is(err, ui.ErrBufferExists) {
			t.Errorf("expected a CreationError, got %v", err)
		}
	}
}

func TestPrivateChannelBuffer(t *testing.T) {
	env := newTestEnv(t)
	dm := &discordgo.Channel{
		ID:   testDM,
		Type: discordgo.ChannelTypeGroupDM,
		Recipients: []*discordgo.User{
			{ID: "2", Username: "bob"},
			{ID: "4", Username: "al ice"},
		},
	}
	c, err := NewPrivateChannel(dm, env.conn, env.bs, env.loop, env.cfg, nil)
	if err != nil {
		t.Fatalf("creating channel: %v", err)
	}
	defer c.Release()

	if c.GuildID() != "" {
		t.Errorf("expected no guild id, got %q", c.GuildID())
	}
	b := env.buffer(t, "discord.dm.bob.al_ice")
	if b.ShortName() != "DM with bob, al ice" {
		t.Errorf("expected short name %q, got %q", "DM with bob, al ice", b.ShortName())
	}
	if b.FullName() != "bob, al ice" || b.Title() != "bob, al ice" {
		t.Errorf("unexpected full name %q and title %q", b.FullName(), b.Title())
	}
	if b.LocalVar("nick") != "@me" || b.LocalVar("channel_id") != testDM {
		t.Errorf("unexpected local vars nick=%q channel_id=%q", b.LocalVar("nick"), b.LocalVar("channel_id"))
	}
	if b.LocalVar("type") != "" {
		t.Errorf("expected no buffer type, got %q", b.LocalVar("type"))
	}
	if b.HasNicklist() {
		t.Errorf("expected no nicklist")
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"general", "general"},
		{"Go Nuts", "go_nuts"},
		{"v1.2", "v1_2"},
		{"off-topic", "off-topic"},
		{"☕ café!", "_café"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanName(tt.in); got != tt.out {
			t.Errorf("cleanName(%q): expected %q, got %q", tt.in, tt.out, got)
		}
	}
}

func TestChannelClosedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	b := env.buffer(t, "discord.gophers.general")

	c.AddMessage(testMessage("1", "2", "before"), false)
	assertLines(t, b, "1")

	c.SetClosed()
	c.AddMessage(testMessage("2", "2", "after"), true)
	c.UpdateMessage(&discordgo.Message{ID: "1", Content: "edited"})
	c.RemoveMessage("1")
	c.Redraw([]string{"2"})
	assertLines(t, b, "1")
	if b.Lines()[0].Body.String() != "before" {
		t.Errorf("expected the line to be left untouched, got %q", b.Lines()[0].Body.String())
	}

	env.http.history = []*discordgo.Message{testMessage("3", "2", "history")}
	if err := c.LoadHistory(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.loop.run()
	assertLines(t, b, "1")

	// the surface belongs to whoever closed the channel
	c.Release()
	if _, err := env.bs.Buffer(b.Handle()); err != nil {
		t.Errorf("expected release of a closed channel to leave the buffer alone, got %v", err)
	}
}

func TestChannelReleaseClosesOnce(t *testing.T) {
	env := newTestEnv(t)
	closed := 0
	var c *Channel
	c = env.newGeneral(t, func() {
		closed++
		c.SetClosed()
	})
	clone := c.Clone()
	h := env.buffer(t, "discord.gophers.general").Handle()

	c.Release()
	c.Release()
	if _, err := env.bs.Buffer(h); err != nil {
		t.Fatalf("expected the buffer to stay open while a handle is alive, got %v", err)
	}
	clone.AddMessage(testMessage("1", "2", "hello"), false)

	clone.Release()
	if _, err := env.bs.Buffer(h); !errors.Is(err, ui.ErrBufferClosed) {
		t.Errorf("expected the buffer to be closed, got %v", err)
	}
	clone.Release()
	clone.AddMessage(testMessage("2", "2", "hello"), false)
	if closed != 1 {
		t.Errorf("expected the close callback to run once, ran %d times", closed)
	}
}

func TestChannelUserClose(t *testing.T) {
	env := newTestEnv(t)
	closed := 0
	var c *Channel
	c = env.newGeneral(t, func() {
		closed++
		c.SetClosed()
	})
	loader := c.Clone()
	h := env.buffer(t, "discord.gophers.general").Handle()

	if err := env.bs.Close(h); err != nil {
		t.Fatalf("closing buffer: %v", err)
	}
	c.AddMessage(testMessage("1", "2", "hello"), false)
	c.Release()
	loader.Release()
	if closed != 1 {
		t.Errorf("expected the close callback to run once, ran %d times", closed)
	}
}

func TestChannelLoadHistory(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()
	b := env.buffer(t, "discord.gophers.general")

	m1 := testMessage("1", "2", "one")
	m2 := testMessage("2", "3", "two")
	m3 := testMessage("3", "1", "three")
	env.http.history = []*discordgo.Message{m3, m2, m1}

	if err := c.LoadHistory(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Lines()) != 0 {
		t.Errorf("expected history to be applied on the UI loop only")
	}
	env.loop.run()

	// same timestamps: the buffer keeps insertion order
	assertLines(t, b, "1", "2", "3")
	for _, m := range []*discordgo.Message{m1, m2, m3} {
		if m.GuildID != testGuild {
			t.Errorf("message %s: expected guild id %q, got %q", m.ID, testGuild, m.GuildID)
		}
	}
	for _, l := range b.Lines() {
		if l.Notify != ui.NotifyNone {
			t.Errorf("line %s: expected history not to notify", l.ID)
		}
	}
}

func TestChannelLoadHistoryError(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()

	env.http.historyErr = errors.New("503 Service Unavailable")
	err := c.LoadHistory(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if fe.ChannelID != testGeneral {
		t.Errorf("expected channel %q, got %q", testGeneral, fe.ChannelID)
	}
	if env.loop.pending() != 0 {
		t.Errorf("expected nothing to be posted")
	}
}

func TestChannelLoadHistoryCancel(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()

	env.http.block = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.LoadHistory(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	env.conn.Wait()
	if env.loop.pending() != 0 {
		t.Errorf("expected nothing to be posted")
	}
}

func TestChannelLoadUsers(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()
	b := env.buffer(t, "discord.gophers.general")

	if err := c.LoadUsers(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.loop.run()

	expected := []ui.Member{
		{Name: "Bobby", Group: "mods"},
		{Name: "alice", Group: noRoleGroup},
		{Name: "myself", Group: noRoleGroup, Self: true},
	}
	members := b.Members()
	if len(members) != len(expected) {
		t.Fatalf("expected %d members, got %d", len(expected), len(members))
	}
	for i, m := range members {
		if m.Name != expected[i].Name || m.Group != expected[i].Group || m.Self != expected[i].Self {
			t.Errorf("member #%d: expected %+v, got %+v", i, expected[i], m)
		}
	}
	if want, _ := ui.RoleColor(0xff0000); members[0].Color != want {
		t.Errorf("expected the role color on Bobby, got %v", members[0].Color)
	}
}

func TestChannelLoadUsersUncached(t *testing.T) {
	env := newTestEnv(t)
	ghost := &discordgo.Channel{ID: "999", GuildID: testGuild, Name: "ghost", Type: discordgo.ChannelTypeGuildText}
	c, err := NewGuildChannel(ghost, env.guild, env.conn, env.bs, env.loop, env.cfg, nil)
	if err != nil {
		t.Fatalf("creating channel: %v", err)
	}
	defer c.Release()

	err = c.LoadUsers(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if env.loop.pending() != 0 {
		t.Errorf("expected no roster update to be posted")
	}
	if len(env.buffer(t, "discord.gophers.ghost").Members()) != 0 {
		t.Errorf("expected an empty nicklist")
	}
}

func TestChannelHostBufferGone(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	b := env.buffer(t, "discord.gophers.general")
	if err := env.bs.Close(b.Handle()); err != nil {
		t.Fatalf("closing buffer: %v", err)
	}

	c.AddMessage(testMessage("1", "2", "hello"), true)
	c.UpdateMessage(&discordgo.Message{ID: "1", Content: "edited"})
	c.RemoveMessage("1")
	c.Redraw([]string{"2"})

	env.http.history = []*discordgo.Message{testMessage("2", "2", "history")}
	if err := c.LoadHistory(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.LoadUsers(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.loop.run()
	if len(b.Lines()) != 0 {
		t.Errorf("expected no lines on a closed buffer, got %d", len(b.Lines()))
	}
	if len(b.Members()) != 0 {
		t.Errorf("expected no members on a closed buffer, got %d", len(b.Members()))
	}

	c.Release()
	if env.bs.Len() != 1 {
		t.Errorf("expected only the home buffer to remain, got %d buffers", env.bs.Len())
	}
}

func TestChannelLoadUsersMembersFail(t *testing.T) {
	env := newTestEnv(t)
	c := env.newGeneral(t, nil)
	defer c.Release()

	// listed by the guild but unknown to the member index
	env.guild.Members = append(env.guild.Members, &discordgo.Member{
		GuildID: testGuild,
		User:    &discordgo.User{ID: "9", Username: "ghost"},
	})

	err := c.LoadUsers(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if fe.ChannelID != testGeneral {
		t.Errorf("expected channel %s, got %s", testGeneral, fe.ChannelID)
	}
	if !errors.Is(err, discordgo.ErrStateNotFound) {
		t.Errorf("expected the state lookup error, got %v", err)
	}
	if env.loop.pending() != 0 {
		t.Errorf("expected no roster update to be posted")
	}
}
