package kouhai

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"git.sr.ht/~delthas/kouhai/discord"
	"git.sr.ht/~delthas/kouhai/events"
	"git.sr.ht/~delthas/kouhai/ui"
)

const eventChanSize = 1024

const (
	srcUI      = "*"
	srcDiscord = "discord"
)

type event struct {
	src     string // srcUI or srcDiscord
	content any
}

type keyMatch struct {
	keycode rune
	mods    vaxis.ModifierMask
}

type App struct {
	win  *ui.UI
	gw   *discord.Gateway
	conn *discord.Conn

	// events MUST NOT be posted to directly; instead, use App.postEvent.
	events chan event

	cfg       Config
	shortcuts map[keyMatch][]string

	home     ui.Handle
	channels map[string]*Channel // by channel id, UI goroutine only

	ctx     context.Context
	cancel  context.CancelFunc
	loaders sync.WaitGroup

	// lastBuffer is the buffer to switch to once it is opened, then the
	// buffer that was current at shutdown.
	lastBuffer string

	closing atomic.Bool
}

func NewApp(cfg Config) (app *App, err error) {
	gw, err := discord.NewGateway(discord.GatewayParams{
		Token:     cfg.Token,
		SendRate:  cfg.SendRate,
		SendBurst: cfg.SendBurst,
		Debug:     cfg.Debug,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	app = &App{
		gw:        gw,
		conn:      gw.Conn,
		events:    make(chan event, eventChanSize),
		cfg:       cfg,
		shortcuts: make(map[keyMatch][]string),
		channels:  make(map[string]*Channel),
		ctx:       ctx,
		cancel:    cancel,
	}
	for name, actions := range defaultCommands {
		k := keyNameMatch(name)
		if k == nil {
			cancel()
			return nil, fmt.Errorf("unknown key name: %v", name)
		}
		app.shortcuts[*k] = actions
	}

	chanWidth := cfg.ChanColWidth
	if !cfg.ChanColEnabled {
		chanWidth = 0
	}
	memberWidth := cfg.MemberColWidth
	if !cfg.MemberColEnabled {
		memberWidth = 0
	}
	app.win, err = ui.New(ui.Config{
		NickColWidth:   cfg.NickColWidth,
		ChanColWidth:   chanWidth,
		MemberColWidth: memberWidth,
		TextMaxWidth:   cfg.TextMaxWidth,
		AutoComplete: func(cursorIdx int, text []rune) []ui.Completion {
			return app.completions(cursorIdx, text)
		},
		Mouse: cfg.Mouse,
		Colors: ui.ConfigColors{
			Prompt: cfg.Colors.Prompt,
			Unread: cfg.Colors.Unread,
			Nicks:  cfg.Colors.Nicks,
		},
		LocalIntegrations: true,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	bs := app.win.Buffers()
	notify := bs.OnHighlight
	bs.OnHighlight = func(b *ui.Buffer, line ui.Line) {
		app.notifyHighlight(b)
		if notify != nil {
			notify(b, line)
		}
	}

	app.win.DBusStart()
	app.win.SetPrompt(ui.Styled(">", vaxis.Style{
		Foreground: cfg.Colors.Prompt,
	}))

	app.initWindow()

	return app, nil
}

// Close stops the event loop and disconnects. It may be called more than
// once, from any goroutine.
func (app *App) Close() {
	app.win.Exit()
	app.postEvent(event{ // tell app.eventLoop to stop
		src:     srcUI,
		content: nil,
	})
	app.cancel()
	app.win.DBusStop()
	app.gw.Close()
}

func (app *App) Run() {
	go app.uiLoop()
	go app.discordLoop()
	app.eventLoop()
}

// Post implements Loop.
func (app *App) Post(f func()) {
	app.postEvent(event{
		src:     srcUI,
		content: f,
	})
}

// Print implements Loop.
func (app *App) Print(text string) {
	app.addStatusLine(ui.Line{
		At:     time.Now(),
		Head:   ui.ColorString("!!", ui.ColorRed),
		Notify: ui.NotifyUnread,
		Body:   ui.PlainString(text),
	})
}

// eventLoop retrieves events (in batches) from the event channel and handle
// them, then draws the interface after each batch is handled.
func (app *App) eventLoop() {
	defer app.win.Close()
	defer app.shutdown()

	for !app.win.ShouldExit() {
		ev := <-app.events
		if !app.handleEvent(ev) {
			return
		}
		deadline := time.NewTimer(200 * time.Millisecond)
	outer:
		for {
			select {
			case <-deadline.C:
				break outer
			case ev := <-app.events:
				if !app.handleEvent(ev) {
					return
				}
			default:
				if !deadline.Stop() {
					<-deadline.C
				}
				break outer
			}
		}

		app.setStatus()
		app.win.Draw()
		var title strings.Builder
		if highlights := app.win.Buffers().Highlights(); highlights > 0 {
			fmt.Fprintf(&title, "(%d) ", highlights)
		}
		if b := app.win.Buffers().Current(); b != nil && b.Handle() != app.home {
			fmt.Fprintf(&title, "%s - ", b.ShortName())
		}
		title.WriteString("kouhai")
		app.win.SetTitle(title.String())
	}
}

// shutdown lets the loaders finish, then releases every channel. It runs
// on the UI goroutine once the event loop is done.
func (app *App) shutdown() {
	app.cancel()
	done := make(chan struct{})
	go func() {
		app.loaders.Wait()
		close(done)
	}()
	for waiting := true; waiting; {
		select {
		case ev := <-app.events:
			if f, ok := ev.content.(func()); ok {
				f()
			}
		case <-done:
			waiting = false
		}
	}
	for draining := true; draining; {
		select {
		case ev := <-app.events:
			if f, ok := ev.content.(func()); ok {
				f()
			}
		default:
			draining = false
		}
	}
	app.closing.Store(true)

	app.lastBuffer = ""
	if b := app.win.Buffers().Current(); b != nil && b.Handle() != app.home {
		app.lastBuffer = b.Name()
	}
	channels := app.channels
	app.channels = make(map[string]*Channel)
	for _, c := range channels {
		c.Release()
	}
}

// SwitchToBuffer focuses the buffer with the given name once it is opened.
// It must be called before Run.
func (app *App) SwitchToBuffer(name string) {
	app.lastBuffer = name
}

// CurrentBuffer returns the name of the buffer that was focused when the
// app stopped. It must be called after Run.
func (app *App) CurrentBuffer() string {
	return app.lastBuffer
}

func (app *App) restoreBuffer() {
	if app.lastBuffer == "" {
		return
	}
	if b := app.win.Buffers().ByName(app.lastBuffer); b != nil {
		app.win.JumpBufferHandle(b.Handle())
		app.lastBuffer = ""
	}
}

func (app *App) postEvent(ev event) {
	if app.closing.Load() {
		return
	}
	app.events <- ev
}

func (app *App) handleEvent(ev event) bool {
	switch ev.src {
	case srcUI:
		if ev.content == nil {
			return false
		}
		if !app.handleUIEvent(ev.content) {
			return false
		}
	case srcDiscord:
		app.handleDiscordEvent(ev.content)
	}
	return true
}

// discordLoop connects to the gateway, then forwards gateway events to
// app.events until the gateway is closed.
func (app *App) discordLoop() {
	app.queueStatusLine(ui.Line{
		Head: ui.PlainString("--"),
		Body: ui.PlainString("Connecting to Discord..."),
	})
	if err := app.gw.Open(app.ctx); err != nil {
		log.Error("failed to connect", "err", err)
		app.queueStatusLine(ui.Line{
			Head:   ui.ColorString("!!", ui.ColorRed),
			Notify: ui.NotifyUnread,
			Body:   ui.PlainSprintf("Connection failed: %v", err),
		})
	}
	for ev := range app.gw.Events() {
		app.postEvent(event{
			src:     srcDiscord,
			content: ev,
		})
	}
}

func (app *App) uiLoop() {
	for ev := range app.win.Events {
		app.postEvent(event{
			src:     srcUI,
			content: ev,
		})
	}
}

func (app *App) handleUIEvent(ev any) bool {
	switch ev := ev.(type) {
	case func():
		ev()
	case vaxis.Resize:
		app.win.Resize()
	case vaxis.Key:
		app.handleKeyEvent(ev)
	case vaxis.Mouse:
		app.handleMouseEvent(ev)
	case *ui.NotifyEvent:
		app.win.JumpBufferHandle(ev.Buffer)
	case statusLine:
		app.addStatusLine(ev.line)
	case *events.EventLoaded:
		app.handleLoadedEvent(ev)
	case *events.EventNowPlaying:
		app.handleNowPlayingEvent(ev)
	default:
		// TODO: paste events, to send multi-line messages as one
	}
	return true
}

func (app *App) handleMouseEvent(ev vaxis.Mouse) {
	if ev.EventType != vaxis.EventPress {
		return
	}
	w, _ := app.win.Size()
	overMembers := inMemberColumn(ev.Col, w, app.win.MemberWidth())
	switch ev.Button {
	case vaxis.MouseWheelUp:
		if overMembers {
			app.win.ScrollMemberUpBy(4)
		} else {
			app.win.ScrollUpBy(4)
		}
	case vaxis.MouseWheelDown:
		if overMembers {
			app.win.ScrollMemberDownBy(4)
		} else {
			app.win.ScrollDownBy(4)
		}
	}
}

// inMemberColumn reports whether column x falls in the member list drawn on
// the right of a screen w cells wide.
func inMemberColumn(x, w, memberWidth int) bool {
	return memberWidth > 0 && x >= w-memberWidth && x < w
}

// notifyHighlight runs before the desktop notification of a highlight.
func (app *App) notifyHighlight(b *ui.Buffer) {
	if app.cfg.OnHighlightBeep && b != app.win.Buffers().Current() {
		app.win.Beep()
	}
}

func (app *App) handleDiscordEvent(ev any) {
	cache := app.conn.Cache
	switch ev := ev.(type) {
	case *discordgo.Ready:
		app.addStatusLine(ui.Line{
			At:   time.Now(),
			Head: ui.PlainString("--"),
			Body: ui.PlainSprintf("Connected as %s", discord.UserName(ev.User)),
		})
		if app.cfg.DirectMessages {
			for _, ch := range cache.PrivateChannels() {
				if ch.LastMessageID != "" {
					app.openPrivateChannel(ch)
				}
			}
		}
	case *discordgo.Resumed:
		app.addStatusLine(ui.Line{
			At:   time.Now(),
			Head: ui.PlainString("--"),
			Body: ui.PlainString("Connection resumed"),
		})
	case *discordgo.Disconnect:
		app.addStatusLine(ui.Line{
			At:     time.Now(),
			Head:   ui.ColorString("!!", ui.ColorRed),
			Notify: ui.NotifyUnread,
			Body:   ui.PlainString("Disconnected from Discord, reconnecting..."),
		})
	case *discordgo.GuildCreate:
		if gc := app.guildConfig(ev.Guild); gc != nil {
			app.openGuild(ev.Guild, gc.Channels)
		}
	case *discordgo.GuildDelete:
		for id, c := range app.channels {
			if c.GuildID() == ev.ID {
				app.dropChannel(id)
			}
		}
	case *discordgo.ChannelCreate:
		if !discord.IsTextChannel(ev.Channel) {
			break
		}
		g, ok := cache.Guild(ev.GuildID)
		if !ok {
			break
		}
		if gc := app.guildConfig(g); gc != nil && len(gc.Channels) == 0 {
			app.openGuildChannel(ev.Channel, g)
		}
	case *discordgo.ChannelUpdate:
		if _, ok := app.channels[ev.ID]; !ok {
			break
		}
		for _, b := range app.win.Buffers().All() {
			if b.LocalVar("channel_id") == ev.ID && b.LocalVar("type") == "channel" {
				b.SetTitle(ev.Topic)
			}
		}
	case *discordgo.ChannelDelete:
		if _, ok := app.channels[ev.ID]; ok {
			app.addStatusLine(ui.Line{
				At:   time.Now(),
				Head: ui.PlainString("--"),
				Body: ui.PlainSprintf("Channel %s was deleted", discord.ChannelName(ev.Channel)),
			})
			app.dropChannel(ev.ID)
		}
	case *discordgo.MessageCreate:
		c := app.channels[ev.ChannelID]
		if c == nil && ev.GuildID == "" && app.cfg.DirectMessages {
			if ch, ok := cache.Channel(ev.ChannelID); ok && discord.IsPrivateChannel(ch) {
				c = app.openPrivateChannel(ch)
			}
		}
		if c == nil {
			break
		}
		notify := ev.Author != nil && !cache.IsMe(ev.Author.ID)
		c.AddMessage(ev.Message, notify)
	case *discordgo.MessageUpdate:
		if c := app.channels[ev.ChannelID]; c != nil {
			c.UpdateMessage(ev.Message)
		}
	case *discordgo.MessageDelete:
		if c := app.channels[ev.ChannelID]; c != nil {
			c.RemoveMessage(ev.ID)
		}
	case *discordgo.MessageDeleteBulk:
		if c := app.channels[ev.ChannelID]; c != nil {
			for _, id := range ev.Messages {
				c.RemoveMessage(id)
			}
		}
	case *discordgo.GuildMemberAdd:
		app.refreshGuild(ev.GuildID)
	case *discordgo.GuildMemberUpdate:
		app.refreshGuild(ev.GuildID)
	case *discordgo.GuildMemberRemove:
		app.refreshGuild(ev.GuildID)
	case *discordgo.GuildMembersChunk:
		app.refreshGuild(ev.GuildID)
	}
}

func (app *App) guildConfig(g *discordgo.Guild) *GuildConfig {
	for i := range app.cfg.Guilds {
		gc := &app.cfg.Guilds[i]
		if gc.Guild == g.ID || strings.EqualFold(gc.Guild, g.Name) {
			return gc
		}
	}
	return nil
}

// openGuild opens the given channels of a guild, or all of its text
// channels when names is empty.
func (app *App) openGuild(g *discordgo.Guild, names []string) {
	cache := app.conn.Cache
	if len(names) == 0 {
		for _, ch := range cache.GuildChannels(g.ID) {
			app.openGuildChannel(ch, g)
		}
		return
	}
	for _, name := range names {
		ch, ok := cache.GuildChannelByName(g.ID, name)
		if !ok {
			app.addStatusLine(ui.Line{
				At:     time.Now(),
				Head:   ui.ColorString("!!", ui.ColorRed),
				Notify: ui.NotifyUnread,
				Body:   ui.PlainSprintf("Channel %q not found in %s", name, g.Name),
			})
			continue
		}
		app.openGuildChannel(ch, g)
	}
}

func (app *App) openGuildChannel(ch *discordgo.Channel, g *discordgo.Guild) *Channel {
	if c, ok := app.channels[ch.ID]; ok {
		return c
	}
	id := ch.ID
	c, err := NewGuildChannel(ch, g, app.conn, app.win.Buffers(), app, &app.cfg, func() {
		app.onChannelClosed(id)
	})
	if err != nil {
		log.Error("failed to open channel", "guild", g.ID, "channel", id, "err", err)
		app.Print(err.Error())
		return nil
	}
	app.channels[id] = c
	app.loadChannel(c)
	app.restoreBuffer()
	return c
}

func (app *App) openPrivateChannel(ch *discordgo.Channel) *Channel {
	if c, ok := app.channels[ch.ID]; ok {
		return c
	}
	id := ch.ID
	c, err := NewPrivateChannel(ch, app.conn, app.win.Buffers(), app, &app.cfg, func() {
		app.onChannelClosed(id)
	})
	if err != nil {
		log.Error("failed to open channel", "channel", id, "err", err)
		app.Print(err.Error())
		return nil
	}
	app.channels[id] = c
	app.loadChannel(c)
	app.restoreBuffer()
	return c
}

// loadChannel fetches the history and members of a channel on a loader
// goroutine.
func (app *App) loadChannel(c *Channel) {
	c = c.Clone()
	app.loaders.Add(1)
	go func() {
		defer app.loaders.Done()
		ev := &events.EventLoaded{ChannelID: c.ID()}
		if err := c.LoadHistory(app.ctx); err != nil {
			ev.Err = err
		} else if c.GuildID() != "" {
			ev.Err = c.LoadUsers(app.ctx)
		}
		app.Post(c.Release)
		app.postEvent(event{
			src:     srcUI,
			content: ev,
		})
	}()
}

// refreshGuild reloads the member lists of the open channels of a guild
// and redraws them, as member names and roles may have changed.
func (app *App) refreshGuild(guildID string) {
	for _, c := range app.channels {
		if c.GuildID() != guildID {
			continue
		}
		c.Redraw(nil)
		c := c.Clone()
		app.loaders.Add(1)
		go func() {
			defer app.loaders.Done()
			if err := c.LoadUsers(app.ctx); err != nil {
				log.Debug("failed to refresh members", "channel", c.ID(), "err", err)
			}
			app.Post(c.Release)
		}()
	}
}

func (app *App) handleLoadedEvent(ev *events.EventLoaded) {
	if ev.Err == nil {
		log.Debug("channel loaded", "channel", ev.ChannelID)
		return
	}
	if app.ctx.Err() != nil {
		return
	}
	app.Print(ev.Err.Error())
}

// onChannelClosed runs when the buffer of a channel was closed by the user.
func (app *App) onChannelClosed(id string) {
	c, ok := app.channels[id]
	if !ok {
		return
	}
	c.SetClosed()
	delete(app.channels, id)
	c.Release()
}

// dropChannel forgets a channel, closing its buffer unless a loader still
// holds it.
func (app *App) dropChannel(id string) {
	c, ok := app.channels[id]
	if !ok {
		return
	}
	delete(app.channels, id)
	c.Release()
}

// currentChannel returns the channel of the focused buffer, or nil for the
// home buffer.
func (app *App) currentChannel() *Channel {
	b := app.win.Buffers().Current()
	if b == nil {
		return nil
	}
	return app.channels[b.LocalVar("channel_id")]
}

func (app *App) handleAction(action string, args ...string) {
	switch action {
	case "quit":
		if !app.win.InputClear() {
			app.win.InputSet("/quit")
		}
	case "set-editor":
		if len(app.win.InputContent()) == 0 {
			app.win.InputSet(strings.Join(args, " "))
		}
	case "cursor-start":
		app.win.InputHome()
	case "cursor-end":
		app.win.InputEnd()
	case "redraw":
		app.win.Resize()
	case "scroll-up":
		app.win.ScrollUp()
	case "scroll-down":
		app.win.ScrollDown()
	case "buffer-next":
		app.win.NextBuffer()
	case "buffer-previous":
		app.win.PreviousBuffer()
	case "buffer-next-unread":
		app.win.NextUnreadBuffer()
	case "cursor-right":
		app.win.InputRight()
	case "cursor-left":
		app.win.InputLeft()
	case "cursor-up":
		app.win.InputUp()
	case "cursor-down":
		app.win.InputDown()
	case "cursor-delete-previous-word":
		app.win.InputDeleteWord()
	case "cursor-delete-previous":
		app.win.InputBackspace()
	case "cursor-delete-next":
		app.win.InputDelete()
	case "auto-complete":
		app.win.InputAutoComplete()
	case "send":
		if !app.win.InputEnter() {
			input := string(app.win.InputContent())
			if err := app.handleInput(input); err != nil {
				app.printError(fmt.Sprintf("%q: %s", input, err))
				break
			}
			app.win.InputFlush()
		}
	case "buffer":
		if len(args) > 0 {
			if args[0] == "last" {
				app.win.JumpBufferIndex(app.win.Buffers().Len() - 1)
			} else {
				var n int
				if _, err := fmt.Sscanf(args[0], "%d", &n); err == nil {
					app.win.JumpBufferIndex(n)
				}
			}
		}
	case "none":
	default:
		app.printError(fmt.Sprintf("shortcut: action %q does not exist", action))
	}
}

var defaultCommands = map[string][]string{
	"Control+c":     {"quit"},
	"Control+k":     {"set-editor", "/buffer "},
	"Control+a":     {"cursor-start"},
	"Control+e":     {"cursor-end"},
	"Control+l":     {"redraw"},
	"Control+u":     {"scroll-up"},
	"Page_Up":       {"scroll-up"},
	"Control+d":     {"scroll-down"},
	"Page_Down":     {"scroll-down"},
	"Control+n":     {"buffer-next"},
	"Control+p":     {"buffer-previous"},
	"Alt+Right":     {"buffer-next"},
	"Shift+Right":   {"buffer-next-unread"},
	"Right":         {"cursor-right"},
	"Alt+Left":      {"buffer-previous"},
	"Left":          {"cursor-left"},
	"Alt+Up":        {"buffer-previous"},
	"Up":            {"cursor-up"},
	"Alt+Down":      {"buffer-next"},
	"Down":          {"cursor-down"},
	"Alt+Home":      {"buffer", "0"},
	"Home":          {"cursor-start"},
	"Alt+End":       {"buffer", "last"},
	"End":           {"cursor-end"},
	"Alt+BackSpace": {"cursor-delete-previous-word"},
	"BackSpace":     {"cursor-delete-previous"},
	"Delete":        {"cursor-delete-next"},
	"Control+w":     {"cursor-delete-previous-word"},
	"Tab":           {"auto-complete"},
	"\r":            {"send"},
	"Control+j":     {"send"},
	"KP_Enter":      {"send"},
	"Alt+1":         {"buffer", "0"},
	"Alt+2":         {"buffer", "1"},
	"Alt+3":         {"buffer", "2"},
	"Alt+4":         {"buffer", "3"},
	"Alt+5":         {"buffer", "4"},
	"Alt+6":         {"buffer", "5"},
	"Alt+7":         {"buffer", "6"},
	"Alt+8":         {"buffer", "7"},
	"Alt+9":         {"buffer", "8"},
}

var keyNames = map[string]rune{
	"BackSpace": vaxis.KeyBackspace,
	"Tab":       vaxis.KeyTab,
	"Escape":    vaxis.KeyEsc,
	"Delete":    vaxis.KeyDelete,
	"Up":        vaxis.KeyUp,
	"Down":      vaxis.KeyDown,
	"Left":      vaxis.KeyLeft,
	"Right":     vaxis.KeyRight,
	"Home":      vaxis.KeyHome,
	"End":       vaxis.KeyEnd,
	"Page_Up":   vaxis.KeyPgUp,
	"Page_Down": vaxis.KeyPgDown,
	"KP_Enter":  vaxis.KeyKeyPadEnter,
}

func (app *App) handleKeyEvent(ev vaxis.Key) {
	switch ev.EventType {
	case vaxis.EventPress, vaxis.EventRepeat, vaxis.EventPaste:
	default:
		return
	}
	if len(ev.Text) == 1 && ev.Text[0] < ' ' {
		// Drop control characters text (sent by some terminal emulators)
		ev.Text = ""
	}
	if ev.Modifiers&(vaxis.ModCtrl|vaxis.ModAlt|vaxis.ModSuper|vaxis.ModMeta) != 0 {
		// Drop text when sent with modifiers preventing text
		ev.Text = ""
	}
	if ev.Text != "" {
		for _, r := range ev.Text {
			app.win.InputRune(r)
		}
		return
	}

	for _, km := range keyMatches(ev) {
		if d := app.shortcuts[km]; len(d) != 0 {
			app.handleAction(d[0], d[1:]...)
			return
		}
	}
}

func keyNameMatch(name string) *keyMatch {
	parts := strings.Split(name, "+")
	mods := parts[:len(parts)-1]
	key := parts[len(parts)-1]

	var m vaxis.ModifierMask
	for _, mod := range mods {
		switch mod {
		case "Control":
			m |= vaxis.ModCtrl
		case "Shift":
			m |= vaxis.ModShift
		case "Alt":
			m |= vaxis.ModAlt
		case "Super":
			m |= vaxis.ModSuper
		default:
			return nil
		}
	}
	if r, n := utf8.DecodeRuneInString(key); n == len(key) {
		return &keyMatch{
			keycode: r,
			mods:    m,
		}
	}
	if r := keyNames[key]; r > 0 {
		return &keyMatch{
			keycode: r,
			mods:    m,
		}
	}
	return nil
}

func keyMatches(k vaxis.Key) []keyMatch {
	m := k.Modifiers
	m &^= vaxis.ModCapsLock
	m &^= vaxis.ModNumLock

	keys := []keyMatch{
		{
			keycode: k.Keycode,
			mods:    m,
		},
	}
	if m&vaxis.ModShift != 0 && k.ShiftedCode != 0 {
		// ctrl+. and user pressed ctrl+shift+; on a French keyboard
		keys = append(keys, keyMatch{
			keycode: k.ShiftedCode,
			mods:    m &^ vaxis.ModShift,
		})
	}
	return keys
}

func BuildVersion() (string, bool) {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return bi.Main.Version, true
	}
	return "", false
}
