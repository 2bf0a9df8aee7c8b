package kouhai

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"git.sr.ht/~delthas/kouhai/discord"
	"git.sr.ht/~delthas/kouhai/ui"
)

var errChannelNotCached = errors.New("channel not found in cache")

// Loop runs functions on the UI goroutine, the only goroutine allowed to
// touch buffers.
type Loop interface {
	// Post queues f. It may be called from any goroutine.
	Post(f func())
	// Print shows text in the home buffer. It must be called from the UI
	// goroutine.
	Print(text string)
}

// Host creates and looks up buffers. Handles do not keep buffers alive:
// once a buffer is closed, Buffer and Close fail with ui.ErrBufferClosed.
type Host interface {
	Create(name string, input ui.InputFunc, onClose ui.CloseFunc) (ui.Handle, error)
	Buffer(h ui.Handle) (*ui.Buffer, error)
	Close(h ui.Handle) error
}

// channelState is shared by every handle of a channel.
type channelState struct {
	mu      sync.RWMutex
	refs    atomic.Int32
	conn    *discord.Conn
	surface surface
	closed  bool
}

func newChannelState(conn *discord.Conn, s surface) *channelState {
	state := &channelState{
		conn:    conn,
		surface: s,
	}
	state.refs.Store(1)
	return state
}

// borrow runs f on the surface unless the channel is closed.
func (s *channelState) borrow(f func(surface)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	f(s.surface)
}

// setClosed marks the state closed. If the state is in use, for example
// because the buffer is being closed from one of its own operations, the
// attempt is dropped.
func (s *channelState) setClosed() {
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()
	s.closed = true
}

// release closes the surface, at most once.
func (s *channelState) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.surface.close()
}

// Channel is a handle on a Discord channel mirrored in a buffer. Handles
// are created by NewGuildChannel, NewPrivateChannel and Clone; each must be
// released once with Release. The buffer is closed when the last handle is
// released, unless it was closed by the user first.
type Channel struct {
	id      string
	guildID string
	state   *channelState
	loop    Loop
	cfg     *Config

	released atomic.Bool
}

// NewGuildChannel opens the buffer of a guild text channel.
func NewGuildChannel(ch *discordgo.Channel, guild *discordgo.Guild, conn *discord.Conn, host Host, loop Loop, cfg *Config, onClose func()) (*Channel, error) {
	nick := "@" + conn.Cache.CurrentUserNick(guild)
	s, err := newGuildSurface(ch, guild, nick, conn, host, loop, cfg, onClose)
	if err != nil {
		return nil, err
	}
	return &Channel{
		id:      ch.ID,
		guildID: guild.ID,
		state:   newChannelState(conn, s),
		loop:    loop,
		cfg:     cfg,
	}, nil
}

// NewPrivateChannel opens the buffer of a direct message channel.
func NewPrivateChannel(ch *discordgo.Channel, conn *discord.Conn, host Host, loop Loop, cfg *Config, onClose func()) (*Channel, error) {
	s, err := newDirectSurface(ch, conn, host, loop, cfg, onClose)
	if err != nil {
		return nil, err
	}
	return &Channel{
		id:    ch.ID,
		state: newChannelState(conn, s),
		loop:  loop,
		cfg:   cfg,
	}, nil
}

func (c *Channel) ID() string {
	return c.id
}

// GuildID is empty for direct messages.
func (c *Channel) GuildID() string {
	return c.guildID
}

// Clone returns a new handle on the same channel. It must not be called on
// a released handle.
func (c *Channel) Clone() *Channel {
	c.state.refs.Add(1)
	return &Channel{
		id:      c.id,
		guildID: c.guildID,
		state:   c.state,
		loop:    c.loop,
		cfg:     c.cfg,
	}
}

// Release drops the handle. Releasing a handle twice has no effect. The
// last release closes the buffer, so it must happen on the UI goroutine;
// other goroutines hand their handle back with Loop.Post(c.Release).
func (c *Channel) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	if c.state.refs.Add(-1) == 0 {
		c.state.release()
	}
}

type historyResult struct {
	msgs []*discordgo.Message
	err  error
}

// LoadHistory fetches the latest messages of the channel and queues them
// for display in chronological order. It blocks until the fetch is done and
// must not be called from the UI goroutine.
func (c *Channel) LoadHistory(ctx context.Context) error {
	conn := c.state.conn
	limit := c.cfg.MessageFetchCount
	handoff := make(chan historyResult, 1)
	conn.Spawn(func() {
		msgs, err := conn.HTTP.ChannelMessages(ctx, c.id, limit)
		if err == nil {
			// REST messages carry no guild id
			for _, m := range msgs {
				if m.GuildID != "" {
					continue
				}
				if ch, ok := conn.Cache.GuildChannel(c.id); ok {
					m.GuildID = ch.GuildID
				}
			}
		}
		handoff <- historyResult{msgs: msgs, err: err}
	})

	var res historyResult
	select {
	case res = <-handoff:
	case <-ctx.Done():
		return &FetchError{ChannelID: c.id, Err: ctx.Err()}
	}
	if res.err != nil {
		log.Error("failed to fetch messages", "guild", c.guildID, "channel", c.id, "err", res.err)
		return &FetchError{ChannelID: c.id, Err: res.err}
	}

	msgs := res.msgs
	slices.Reverse(msgs)
	state := c.state
	c.loop.Post(func() {
		state.borrow(func(s surface) {
			s.addBulkMessages(msgs)
		})
	})
	return nil
}

// LoadUsers queues the members allowed to see the channel for display in
// the nicklist. It must not be called from the UI goroutine.
func (c *Channel) LoadUsers(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &FetchError{ChannelID: c.id, Err: err}
	}
	cache := c.state.conn.Cache
	if _, ok := cache.GuildChannel(c.id); !ok {
		log.Warn("unable to find channel in cache", "guild", c.guildID, "channel", c.id)
		return &FetchError{ChannelID: c.id, Err: errChannelNotCached}
	}
	members, err := cache.ChannelMembers(c.id)
	if err != nil {
		log.Error("unable to load members for nicklist", "guild", c.guildID, "channel", c.id, "err", err)
		return &FetchError{ChannelID: c.id, Err: err}
	}

	state := c.state
	c.loop.Post(func() {
		state.borrow(func(s surface) {
			s.addMembers(members)
		})
	})
	return nil
}

func (c *Channel) AddMessage(msg *discordgo.Message, notify bool) {
	c.state.borrow(func(s surface) {
		s.addMessage(msg, notify)
	})
}

func (c *Channel) RemoveMessage(id string) {
	c.state.borrow(func(s surface) {
		s.removeMessage(id)
	})
}

// UpdateMessage applies an edit. Fields left empty in patch keep their
// previous value.
func (c *Channel) UpdateMessage(patch *discordgo.Message) {
	c.state.borrow(func(s surface) {
		s.updateMessage(patch)
	})
}

// Redraw renders the buffer again, hiding messages of the ignored users.
func (c *Channel) Redraw(ignoreUsers []string) {
	c.state.borrow(func(s surface) {
		s.redraw(ignoreUsers)
	})
}

// SetClosed marks the channel closed after its buffer was closed by the
// user. It never closes the buffer itself.
func (c *Channel) SetClosed() {
	c.state.setClosed()
}
