package kouhai

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/bwmarrin/discordgo"

	"git.sr.ht/~delthas/kouhai/discord"
	"git.sr.ht/~delthas/kouhai/ui"
)

// MessageRender turns messages into buffer lines. It keeps the messages it
// has shown so that edits can be merged and the buffer redrawn.
type MessageRender struct {
	conn   *discord.Conn
	host   Host
	handle ui.Handle
	cfg    *Config

	msgs    map[string]*discordgo.Message
	ignored map[string]bool
}

func NewMessageRender(conn *discord.Conn, host Host, handle ui.Handle, cfg *Config) *MessageRender {
	r := &MessageRender{
		conn:    conn,
		host:    host,
		handle:  handle,
		cfg:     cfg,
		msgs:    make(map[string]*discordgo.Message),
		ignored: make(map[string]bool),
	}
	for _, id := range cfg.Ignores {
		r.ignored[id] = true
	}
	return r
}

func (r *MessageRender) buffer() (*ui.Buffer, bool) {
	b, err := r.host.Buffer(r.handle)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *MessageRender) hidden(m *discordgo.Message) bool {
	return m.Author != nil && r.ignored[m.Author.ID]
}

// AddBulkMessages shows history. History never notifies.
func (r *MessageRender) AddBulkMessages(msgs []*discordgo.Message) {
	b, ok := r.buffer()
	if !ok {
		return
	}
	lines := make([]ui.Line, 0, len(msgs))
	for _, m := range msgs {
		r.msgs[m.ID] = m
		if r.hidden(m) {
			continue
		}
		lines = append(lines, r.formatMessage(m, false))
	}
	b.AddLines(lines)
}

func (r *MessageRender) AddMessage(msg *discordgo.Message, notify bool) {
	b, ok := r.buffer()
	if !ok {
		return
	}
	r.msgs[msg.ID] = msg
	if r.hidden(msg) {
		return
	}
	b.AddLine(r.formatMessage(msg, notify))
}

func (r *MessageRender) RemoveMessage(id string) {
	b, ok := r.buffer()
	if !ok {
		return
	}
	delete(r.msgs, id)
	b.RemoveLine(id)
}

// UpdateMessage merges an edit into a shown message. Edits of messages that
// were never shown are dropped.
func (r *MessageRender) UpdateMessage(patch *discordgo.Message) {
	b, ok := r.buffer()
	if !ok {
		return
	}
	old, ok := r.msgs[patch.ID]
	if !ok {
		return
	}
	m := mergeMessage(old, patch)
	r.msgs[m.ID] = m
	if r.hidden(m) {
		return
	}
	b.UpdateLine(r.formatMessage(m, false))
}

// RedrawBuffer renders every shown message again, hiding the messages of
// ignoreUsers and of the configured ignores.
func (r *MessageRender) RedrawBuffer(ignoreUsers []string) {
	b, ok := r.buffer()
	if !ok {
		return
	}
	r.ignored = make(map[string]bool, len(ignoreUsers)+len(r.cfg.Ignores))
	for _, id := range r.cfg.Ignores {
		r.ignored[id] = true
	}
	for _, id := range ignoreUsers {
		r.ignored[id] = true
	}

	lines := make([]ui.Line, 0, len(r.msgs))
	for _, m := range r.msgs {
		if r.hidden(m) {
			continue
		}
		lines = append(lines, r.formatMessage(m, false))
	}
	b.ClearLines()
	b.AddLines(lines)
}

// mergeMessage applies the fields set in patch over old.
func mergeMessage(old, patch *discordgo.Message) *discordgo.Message {
	m := *old
	if patch.EditedTimestamp != nil || patch.Content != "" {
		m.Content = patch.Content
		m.Mentions = patch.Mentions
		m.MentionRoles = patch.MentionRoles
		m.MentionEveryone = patch.MentionEveryone
	}
	if patch.EditedTimestamp != nil {
		m.EditedTimestamp = patch.EditedTimestamp
	}
	if patch.Attachments != nil {
		m.Attachments = patch.Attachments
	}
	if patch.Embeds != nil {
		m.Embeds = patch.Embeds
	}
	if m.GuildID == "" {
		m.GuildID = patch.GuildID
	}
	return &m
}

func (r *MessageRender) authorName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.GuildID != "" && m.Author != nil {
		if member, ok := r.conn.Cache.Member(m.GuildID, m.Author.ID); ok {
			return discord.MemberName(member)
		}
	}
	return discord.UserName(m.Author)
}

func (r *MessageRender) authorColor(m *discordgo.Message, name string, self bool) vaxis.Color {
	scheme := r.cfg.Colors.Nicks
	if scheme.Type == ui.ColorSchemeRoles && m.GuildID != "" && m.Author != nil {
		if member, ok := r.conn.Cache.Member(m.GuildID, m.Author.ID); ok {
			if _, colored := memberRoles(r.conn.Cache, m.GuildID, member); colored != nil {
				if c, ok := ui.RoleColor(colored.Color); ok {
					return c
				}
			}
		}
	}
	return ui.IdentColor(scheme, name, self)
}

func (r *MessageRender) formatMessage(m *discordgo.Message, notify bool) ui.Line {
	self := m.Author != nil && r.conn.Cache.IsMe(m.Author.ID)
	name := r.authorName(m)
	head := ui.ColorString(name, r.authorColor(m, name, self))

	var sb ui.StyledStringBuilder
	gray := vaxis.Style{Foreground: ui.ColorGray}
	if ref := m.ReferencedMessage; ref != nil {
		sb.SetStyle(gray)
		sb.WriteString("↪ " + r.authorName(ref) + ": ")
		sb.WriteString(truncateRunes(discord.RenderMentions(r.conn.Cache, m.GuildID, ref), 40))
		sb.WriteString(" ")
		sb.SetStyle(vaxis.Style{})
	}
	switch m.Type {
	case discordgo.MessageTypeGuildMemberJoin:
		sb.SetStyle(gray)
		sb.WriteString("joined the server")
	case discordgo.MessageTypeChannelPinnedMessage:
		sb.SetStyle(gray)
		sb.WriteString("pinned a message")
	case discordgo.MessageTypeChannelNameChange:
		sb.SetStyle(gray)
		sb.WriteString("renamed the channel to " + m.Content)
	default:
		content := discord.RenderMentions(r.conn.Cache, m.GuildID, m)
		sb.WriteStyledString(ui.MarkdownString(content))
	}
	for _, a := range m.Attachments {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(a.URL)
	}
	for _, e := range m.Embeds {
		if e.URL == "" || strings.Contains(m.Content, e.URL) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.URL)
	}
	if m.EditedTimestamp != nil {
		sb.SetStyle(gray)
		sb.WriteString(" (edited)")
	}

	highlight := !self && r.isHighlight(m)
	line := ui.Line{
		ID:        m.ID,
		At:        m.Timestamp,
		Head:      head,
		Body:      sb.StyledString(),
		Highlight: highlight,
	}
	switch {
	case !notify || self:
		line.Notify = ui.NotifyNone
	case highlight || m.GuildID == "":
		line.Notify = ui.NotifyHighlight
	default:
		line.Notify = ui.NotifyUnread
	}
	return line
}

// isHighlight reports whether m mentions the current user or one of the
// configured highlight words.
func (r *MessageRender) isHighlight(m *discordgo.Message) bool {
	me, ok := r.conn.Cache.CurrentUser()
	if !ok {
		return false
	}
	if discord.Mentions(r.conn.Cache, m.GuildID, m, me.ID) {
		return true
	}
	content := strings.ToLower(m.Content)
	for _, h := range r.cfg.Highlights {
		if isHighlight(content, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

func isWordBoundary(r rune) bool {
	switch r {
	case '-', '_', '|':
		return false
	default:
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}
}

func isHighlight(text, word string) bool {
	if word == "" {
		return false
	}
	for {
		i := strings.Index(text, word)
		if i < 0 {
			return false
		}

		left, _ := utf8.DecodeLastRuneInString(text[:i])
		right, _ := utf8.DecodeRuneInString(text[i+len(word):])
		if isWordBoundary(left) && isWordBoundary(right) {
			return true
		}

		text = text[i+len(word):]
	}
}

func truncateRunes(s string, n int) string {
	s, _, _ = strings.Cut(s, "\n")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
