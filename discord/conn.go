// Package discord wraps a discordgo session into the pieces the client
// needs: a read-mostly cache, a request client and a task executor.
package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Requester issues REST calls to Discord.
type Requester interface {
	// ChannelMessages returns up to limit of the latest messages of a
	// channel, newest first.
	ChannelMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)
	// CreateMessage posts content to a channel.
	CreateMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error)
}

// Conn is shared by every channel of a session. Cache and HTTP are safe for
// concurrent use.
type Conn struct {
	Cache *Cache
	HTTP  Requester

	tasks sync.WaitGroup
}

func NewConn(cache *Cache, http Requester) *Conn {
	return &Conn{
		Cache: cache,
		HTTP:  http,
	}
}

// Spawn runs f on its own goroutine. f must not touch the UI.
func (c *Conn) Spawn(f func()) {
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		f()
	}()
}

// Wait blocks until every spawned task has returned.
func (c *Conn) Wait() {
	c.tasks.Wait()
}
