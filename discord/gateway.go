package discord

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
)

const chanCapacity = 64

type GatewayParams struct {
	Token     string
	SendRate  float64
	SendBurst int
	Debug     bool
}

// Gateway owns the websocket session. Gateway events are forwarded on
// Events as the discordgo event values (*discordgo.MessageCreate, ...).
type Gateway struct {
	Session *discordgo.Session
	Conn    *Conn

	events chan any
	mu     sync.Mutex
	closed bool
}

func NewGateway(params GatewayParams) (*Gateway, error) {
	s, err := discordgo.New(params.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %v", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	s.StateEnabled = true
	s.State.TrackMembers = true
	s.State.TrackRoles = true
	s.State.TrackChannels = true
	if params.Debug {
		s.LogLevel = discordgo.LogInformational
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	dial := proxy.FromEnvironmentUsing(dialer).(proxy.ContextDialer).DialContext
	s.Client = &http.Client{
		Timeout: 20 * time.Second,
		Transport: &http.Transport{
			DialContext:         dial,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
	s.Dialer = &websocket.Dialer{
		NetDialContext:   dial,
		HandshakeTimeout: 45 * time.Second,
	}

	g := &Gateway{
		Session: s,
		Conn:    NewConn(NewCache(s.State), NewRequester(s, params.SendRate, params.SendBurst)),
		events:  make(chan any, chanCapacity),
	}
	g.forward(
		func(_ *discordgo.Session, ev *discordgo.Ready) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.Resumed) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.Disconnect) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.MessageCreate) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.MessageUpdate) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.MessageDelete) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.MessageDeleteBulk) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.ChannelCreate) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.ChannelUpdate) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.ChannelDelete) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.GuildCreate) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.GuildDelete) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.GuildMemberAdd) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.GuildMemberUpdate) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.GuildMemberRemove) { g.push(ev) },
		func(_ *discordgo.Session, ev *discordgo.GuildMembersChunk) { g.push(ev) },
	)
	return g, nil
}

func (g *Gateway) forward(handlers ...any) {
	for _, h := range handlers {
		g.Session.AddHandler(h)
	}
}

func (g *Gateway) push(ev any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.events <- ev
}

func (g *Gateway) Events() <-chan any {
	return g.events
}

// Open connects to the gateway. discordgo reconnects on its own afterwards.
func (g *Gateway) Open(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- g.Session.Open()
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to connect: %v", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, waits for pending requests and closes Events.
func (g *Gateway) Close() {
	if err := g.Session.Close(); err != nil {
		log.Warn("closing gateway", "err", err)
	}
	g.Conn.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.closed = true
		close(g.events)
	}
}
