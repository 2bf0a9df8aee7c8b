package ui

import (
	"errors"
	"sort"
	"strings"
	"time"

	"git.sr.ht/~rockorager/vaxis"
)

var (
	ErrBufferClosed = errors.New("buffer is closed")
	ErrBufferExists = errors.New("buffer already exists")
)

// Handle refers to a buffer without keeping it alive. Once the buffer is
// closed, lookups through the handle fail with ErrBufferClosed.
type Handle struct {
	id uint64
}

func (h Handle) IsZero() bool {
	return h.id == 0
}

type InputFunc func(b *Buffer, input string)

type CloseFunc func(b *Buffer)

func IsSplitRune(r rune) bool {
	return r == ' ' || r == '\t'
}

type point struct {
	X, I  int
	Split bool
}

type NotifyType int

const (
	NotifyNone NotifyType = iota
	NotifyUnread
	NotifyHighlight
)

type Line struct {
	// ID identifies the line in its buffer. Lines without an ID cannot be
	// updated or removed.
	ID        string
	At        time.Time
	Head      StyledString
	Body      StyledString
	Notify    NotifyType
	Highlight bool

	splitPoints []point
	width       int
	newLines    []int
}

func (l *Line) computeSplitPoints(vx *Vaxis) {
	l.splitPoints = l.splitPoints[:0]
	l.width = 0

	x := 0
	lastWasSplit := false
	for i, r := range l.Body.string {
		split := IsSplitRune(r)
		if i == 0 || split != lastWasSplit {
			l.splitPoints = append(l.splitPoints, point{X: x, I: i, Split: split})
		}
		lastWasSplit = split
		x += runeWidth(vx, r)
	}
	l.splitPoints = append(l.splitPoints, point{X: x, I: len(l.Body.string), Split: true})
}

// NewLines returns the byte offsets of the body where a row must be broken
// to fit width cells.
func (l *Line) NewLines(vx *Vaxis, width int) []int {
	if l.width == width && l.newLines != nil {
		return l.newLines
	}
	l.width = width
	l.newLines = l.newLines[:0]
	if l.newLines == nil {
		l.newLines = []int{}
	}

	x := 0
	for i := 1; i < len(l.splitPoints); i++ {
		sp1, sp2 := l.splitPoints[i-1], l.splitPoints[i]
		w := sp2.X - sp1.X
		switch {
		case sp1.Split:
			if x == 0 && len(l.newLines) > 0 {
				// leading whitespace of a wrapped row is not drawn
				continue
			}
			if x+w >= width {
				l.newLines = append(l.newLines, sp2.I)
				x = 0
			} else {
				x += w
			}
		case x+w <= width:
			x += w
		case w <= width:
			l.newLines = append(l.newLines, sp1.I)
			x = w
		default:
			// word longer than a row
			for j, r := range l.Body.string[sp1.I:sp2.I] {
				rw := runeWidth(vx, r)
				if x+rw > width {
					l.newLines = append(l.newLines, sp1.I+j)
					x = 0
				}
				x += rw
			}
		}
	}
	if n := len(l.newLines); n > 0 && l.newLines[n-1] >= len(l.Body.string) {
		l.newLines = l.newLines[:n-1]
	}
	return l.newLines
}

// Member is an entry of a buffer nicklist. Members are listed by Rank,
// then by Group, then by name.
type Member struct {
	Name  string
	Group string
	Rank  int
	Color vaxis.Color
	Self  bool
}

type Buffer struct {
	list   *BufferList
	handle Handle

	name      string
	shortName string
	fullName  string
	title     string
	localVars map[string]string

	nicklist bool
	members  []Member

	lines      []Line
	unread     bool
	highlights int
	scrollAmt  int
	isAtTop    bool

	input   InputFunc
	onClose CloseFunc
}

func (b *Buffer) Handle() Handle {
	return b.handle
}

func (b *Buffer) Name() string {
	return b.name
}

func (b *Buffer) ShortName() string {
	if b.shortName == "" {
		return b.name
	}
	return b.shortName
}

func (b *Buffer) SetShortName(name string) {
	b.shortName = name
}

func (b *Buffer) FullName() string {
	if b.fullName == "" {
		return b.name
	}
	return b.fullName
}

func (b *Buffer) SetFullName(name string) {
	b.fullName = name
}

func (b *Buffer) Title() string {
	return b.title
}

func (b *Buffer) SetTitle(title string) {
	b.title = title
}

func (b *Buffer) LocalVar(key string) string {
	return b.localVars[key]
}

func (b *Buffer) SetLocalVar(key, value string) {
	if b.localVars == nil {
		b.localVars = make(map[string]string)
	}
	b.localVars[key] = value
}

func (b *Buffer) EnableNicklist() {
	b.nicklist = true
}

func (b *Buffer) HasNicklist() bool {
	return b.nicklist
}

func (b *Buffer) Unread() bool {
	return b.unread
}

func (b *Buffer) Highlights() int {
	return b.highlights
}

// Input hands text typed in the buffer to its input callback.
func (b *Buffer) Input(text string) {
	if b.input != nil {
		b.input(b, text)
	}
}

func (b *Buffer) current() bool {
	return b.list != nil && b.list.cur() == b
}

func (b *Buffer) vx() *Vaxis {
	if b.list == nil {
		return nil
	}
	return b.list.vx
}

func (b *Buffer) prepare(line *Line) {
	line.At = line.At.UTC()
	line.Body = line.Body.ParseURLs()
	line.newLines = nil
	line.computeSplitPoints(b.vx())
}

func (b *Buffer) index(id string) int {
	if id == "" {
		return -1
	}
	for i := len(b.lines) - 1; i >= 0; i-- {
		if b.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Buffer) markUnread(line Line) {
	if b.current() {
		return
	}
	if line.Notify != NotifyNone {
		b.unread = true
	}
	if line.Notify == NotifyHighlight {
		b.highlights++
	}
}

// AddLine appends line, keeping lines ordered by time. A line with the ID
// of an existing line replaces it.
func (b *Buffer) AddLine(line Line) {
	b.prepare(&line)
	if i := b.index(line.ID); i >= 0 {
		b.lines[i] = line
		return
	}
	i := len(b.lines)
	for i > 0 && b.lines[i-1].At.After(line.At) {
		i--
	}
	b.lines = append(b.lines, Line{})
	copy(b.lines[i+1:], b.lines[i:])
	b.lines[i] = line
	if b.current() && b.scrollAmt > 0 {
		b.scrollAmt += len(line.NewLines(b.vx(), b.list.textWidth)) + 1
	}
	b.markUnread(line)
	if line.Notify == NotifyHighlight && b.list != nil && b.list.OnHighlight != nil {
		b.list.OnHighlight(b, line)
	}
}

// AddLines merges lines into the buffer. Lines whose ID is already present
// replace the existing line.
func (b *Buffer) AddLines(lines []Line) {
	for _, line := range lines {
		b.prepare(&line)
		if i := b.index(line.ID); i >= 0 {
			b.lines[i] = line
			continue
		}
		b.lines = append(b.lines, line)
	}
	sort.SliceStable(b.lines, func(i, j int) bool {
		return b.lines[i].At.Before(b.lines[j].At)
	})
}

// UpdateLine replaces the line with the same ID. It reports whether such a
// line exists.
func (b *Buffer) UpdateLine(line Line) bool {
	i := b.index(line.ID)
	if i < 0 {
		return false
	}
	b.prepare(&line)
	b.lines[i] = line
	return true
}

func (b *Buffer) RemoveLine(id string) bool {
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	return true
}

func (b *Buffer) ClearLines() {
	b.lines = b.lines[:0]
	b.scrollAmt = 0
}

// Lines result must not be modified.
func (b *Buffer) Lines() []Line {
	return b.lines
}

// SetMembers replaces the nicklist.
func (b *Buffer) SetMembers(members []Member) {
	ms := append([]Member(nil), members...)
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Rank != ms[j].Rank {
			return ms[i].Rank < ms[j].Rank
		}
		if ms[i].Group != ms[j].Group {
			return ms[i].Group < ms[j].Group
		}
		return strings.ToLower(ms[i].Name) < strings.ToLower(ms[j].Name)
	})
	b.members = ms
}

// Members result must not be modified.
func (b *Buffer) Members() []Member {
	return b.members
}

// BufferList holds the open buffers. The first buffer created is the home
// buffer and stays first; the others are sorted by name. It must only be
// used from the UI goroutine.
type BufferList struct {
	vx      *Vaxis
	list    []*Buffer
	current int
	lastID  uint64

	textWidth int
	tlHeight  int

	// OnHighlight is called when a highlighted line is added.
	OnHighlight func(b *Buffer, line Line)
}

func NewBufferList() *BufferList {
	return &BufferList{
		textWidth: 80,
	}
}

func (bs *BufferList) Resize(textWidth, tlHeight int) {
	bs.textWidth = textWidth
	bs.tlHeight = tlHeight
}

// Create adds a buffer named name.
func (bs *BufferList) Create(name string, input InputFunc, onClose CloseFunc) (Handle, error) {
	if bs.ByName(name) != nil {
		return Handle{}, ErrBufferExists
	}
	bs.lastID++
	b := &Buffer{
		list:    bs,
		handle:  Handle{id: bs.lastID},
		name:    name,
		input:   input,
		onClose: onClose,
	}
	i := len(bs.list)
	if i > 0 {
		i = 1 + sort.Search(len(bs.list)-1, func(j int) bool {
			return bs.list[j+1].name > name
		})
	}
	bs.list = append(bs.list, nil)
	copy(bs.list[i+1:], bs.list[i:])
	bs.list[i] = b
	if len(bs.list) > 1 && i <= bs.current {
		bs.current++
	}
	return b.handle, nil
}

func (bs *BufferList) Buffer(h Handle) (*Buffer, error) {
	if _, b := bs.at(h); b != nil {
		return b, nil
	}
	return nil, ErrBufferClosed
}

// Close removes the buffer, then runs its close callback.
func (bs *BufferList) Close(h Handle) error {
	i, b := bs.at(h)
	if b == nil {
		return ErrBufferClosed
	}
	bs.list = append(bs.list[:i], bs.list[i+1:]...)
	if i < bs.current || bs.current >= len(bs.list) {
		bs.current--
	}
	if bs.current < 0 {
		bs.current = 0
	}
	b.list = nil
	if b.onClose != nil {
		b.onClose(b)
	}
	return nil
}

func (bs *BufferList) at(h Handle) (int, *Buffer) {
	if h.IsZero() {
		return -1, nil
	}
	for i, b := range bs.list {
		if b.handle == h {
			return i, b
		}
	}
	return -1, nil
}

func (bs *BufferList) ByName(name string) *Buffer {
	for _, b := range bs.list {
		if b.name == name {
			return b
		}
	}
	return nil
}

func (bs *BufferList) Len() int {
	return len(bs.list)
}

// All result must not be modified.
func (bs *BufferList) All() []*Buffer {
	return bs.list
}

func (bs *BufferList) cur() *Buffer {
	if len(bs.list) == 0 {
		return nil
	}
	return bs.list[bs.current]
}

// Current returns the focused buffer, or nil when there is none.
func (bs *BufferList) Current() *Buffer {
	return bs.cur()
}

func (bs *BufferList) To(i int) bool {
	if i < 0 || i >= len(bs.list) || i == bs.current {
		return false
	}
	bs.current = i
	b := bs.list[i]
	b.unread = false
	b.highlights = 0
	return true
}

func (bs *BufferList) Next() {
	if len(bs.list) > 0 {
		bs.To((bs.current + 1) % len(bs.list))
	}
}

func (bs *BufferList) Previous() {
	if len(bs.list) > 0 {
		bs.To((bs.current - 1 + len(bs.list)) % len(bs.list))
	}
}

func (bs *BufferList) NextUnread() {
	for i := 1; i < len(bs.list); i++ {
		c := (bs.current + i) % len(bs.list)
		if bs.list[c].unread {
			bs.To(c)
			return
		}
	}
}

// Jump focuses the first buffer whose short name contains sub, ignoring
// case.
func (bs *BufferList) Jump(sub string) bool {
	sub = strings.ToLower(sub)
	for i, b := range bs.list {
		if strings.Contains(strings.ToLower(b.ShortName()), sub) {
			bs.To(i)
			return true
		}
	}
	return false
}

// JumpHandle focuses the buffer of h.
func (bs *BufferList) JumpHandle(h Handle) bool {
	i, b := bs.at(h)
	if b == nil {
		return false
	}
	bs.To(i)
	return true
}

func (bs *BufferList) ScrollUp(n int) {
	b := bs.cur()
	if b == nil || b.isAtTop {
		return
	}
	b.scrollAmt += n
}

func (bs *BufferList) ScrollDown(n int) {
	b := bs.cur()
	if b == nil {
		return
	}
	b.scrollAmt -= n
	if b.scrollAmt < 0 {
		b.scrollAmt = 0
	}
}

// Highlights counts highlights across all buffers.
func (bs *BufferList) Highlights() int {
	n := 0
	for _, b := range bs.list {
		n += b.highlights
	}
	return n
}
