package discord

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// MaxMessageLength is the longest message content Discord accepts, in
// characters.
const MaxMessageLength = 2000

var (
	ErrContentEmpty   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content is too long")
)

var (
	mentionTagRe  = regexp.MustCompile(`<(@!?|@&|#)(\d+)>`)
	mentionTextRe = regexp.MustCompile(`(^|\s)([@#])([\p{L}\p{N}_.\-]+)`)
)

// ValidateContent checks content against what Discord accepts for a message.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrContentEmpty
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return ErrContentTooLong
	}
	return nil
}

// CreateMentions turns the @user, @role and #channel words of input into
// Discord mention tags. Mentions are resolved against the guild; outside a
// guild only the current user and channel recipients are known. Words that
// match nothing are left untouched.
func CreateMentions(cache *Cache, guildID, channelID, input string) string {
	var b strings.Builder
	last := 0
	for _, m := range mentionTextRe.FindAllStringSubmatchIndex(input, -1) {
		sigil := input[m[4]:m[5]]
		name := input[m[6]:m[7]]
		var tag string
		if sigil == "@" {
			tag = userMention(cache, guildID, channelID, name)
		} else if guildID != "" {
			if ch, ok := cache.GuildChannelByName(guildID, name); ok {
				tag = "<#" + ch.ID + ">"
			}
		}
		if tag == "" {
			continue
		}
		b.WriteString(input[last:m[4]])
		b.WriteString(tag)
		last = m[1]
	}
	if last == 0 {
		return input
	}
	b.WriteString(input[last:])
	return b.String()
}

func userMention(cache *Cache, guildID, channelID, name string) string {
	if guildID == "" {
		ch, ok := cache.Channel(channelID)
		if !ok {
			return ""
		}
		for _, u := range ch.Recipients {
			if matchUser(u, name) {
				return "<@" + u.ID + ">"
			}
		}
		return ""
	}
	g, ok := cache.Guild(guildID)
	if !ok {
		return ""
	}
	cache.state.RLock()
	defer cache.state.RUnlock()
	for _, m := range g.Members {
		if m.User == nil {
			continue
		}
		if strings.EqualFold(m.Nick, name) || matchUser(m.User, name) {
			return "<@" + m.User.ID + ">"
		}
	}
	for _, r := range g.Roles {
		if r.Mentionable && strings.EqualFold(r.Name, name) {
			return "<@&" + r.ID + ">"
		}
	}
	return ""
}

func matchUser(u *discordgo.User, name string) bool {
	return strings.EqualFold(u.Username, name) || (u.GlobalName != "" && strings.EqualFold(u.GlobalName, name))
}

// RenderMentions replaces the mention tags of content with readable names.
// Unknown ids are left as they are.
func RenderMentions(cache *Cache, guildID string, msg *discordgo.Message) string {
	users := make(map[string]*discordgo.User, len(msg.Mentions))
	for _, u := range msg.Mentions {
		users[u.ID] = u
	}
	return mentionTagRe.ReplaceAllStringFunc(msg.Content, func(tag string) string {
		sm := mentionTagRe.FindStringSubmatch(tag)
		kind, id := sm[1], sm[2]
		switch kind {
		case "@", "@!":
			if guildID != "" {
				if m, ok := cache.Member(guildID, id); ok {
					return "@" + MemberName(m)
				}
			}
			if u, ok := users[id]; ok {
				return "@" + UserName(u)
			}
		case "@&":
			if r, ok := cache.Role(guildID, id); ok {
				return "@" + r.Name
			}
		case "#":
			if ch, ok := cache.Channel(id); ok {
				return "#" + ChannelName(ch)
			}
		}
		return tag
	})
}

// Mentions reports whether msg mentions the user, directly, through one of
// the member's roles or through @everyone.
func Mentions(cache *Cache, guildID string, msg *discordgo.Message, userID string) bool {
	if msg.MentionEveryone {
		return true
	}
	for _, u := range msg.Mentions {
		if u.ID == userID {
			return true
		}
	}
	if guildID == "" || len(msg.MentionRoles) == 0 {
		return false
	}
	m, ok := cache.Member(guildID, userID)
	if !ok {
		return false
	}
	for _, mr := range msg.MentionRoles {
		for _, r := range m.Roles {
			if r == mr {
				return true
			}
		}
	}
	return false
}
