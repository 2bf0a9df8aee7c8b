package ui

import (
	"git.sr.ht/~rockorager/vaxis"
)

type Completion struct {
	StartIdx  int
	EndIdx    int
	Text      []rune
	Display   []rune
	CursorIdx int // in runes
}

// Completer returns the completions of text for a cursor at cursorIdx
// (in runes).
type Completer func(cursorIdx int, text []rune) []Completion

type editorLine struct {
	runes    []rune
	clusters []int
}

func newEditorLine() editorLine {
	return editorLine{
		runes:    []rune{},
		clusters: []int{0},
	}
}

func (l *editorLine) copy() editorLine {
	return editorLine{
		runes:    append([]rune{}, l.runes...),
		clusters: append([]int{}, l.clusters...),
	}
}

// Editor is the text field where the user writes messages and commands.
type Editor struct {
	vx       *Vaxis
	complete Completer

	// text holds the history followed by the line being written.
	text    []editorLine
	lineIdx int

	// textWidth[i] is the width of the first i clusters of the current line.
	textWidth []int

	// cursorIdx and offsetIdx are cluster indexes.
	cursorIdx int
	offsetIdx int

	width int

	autoCache    []Completion
	autoCacheIdx int
}

// NewEditor returns a new Editor. vx may be nil, in which case every
// character is one cell wide.
func NewEditor(vx *Vaxis, complete Completer) *Editor {
	return &Editor{
		vx:        vx,
		complete:  complete,
		text:      []editorLine{newEditorLine()},
		textWidth: []int{0},
		width:     80,
	}
}

func (e *Editor) Resize(width int) {
	e.width = width
	e.scrollToCursor()
}

// Content result must not be modified.
func (e *Editor) Content() []rune {
	return e.text[e.lineIdx].runes
}

func (e *Editor) Empty() bool {
	return len(e.text[e.lineIdx].runes) == 0
}

func (e *Editor) line() *editorLine {
	return &e.text[e.lineIdx]
}

func (e *Editor) recompute() {
	l := e.line()
	c := make([]int, 0, len(l.runes)+1)
	w := make([]int, 0, len(l.runes)+1)
	nc, nw := 0, 0
	for _, g := range vaxis.Characters(string(l.runes)) {
		c = append(c, nc)
		w = append(w, nw)
		nc += len([]rune(g.Grapheme))
		nw += stringWidth(e.vx, g.Grapheme)
	}
	l.clusters = append(c, nc)
	e.textWidth = append(w, nw)
}

// setCursor moves the cursor to the cluster containing runeIdx, rounding
// up.
func (e *Editor) setCursor(runeIdx int) {
	clusters := e.line().clusters
	e.cursorIdx = len(clusters) - 1
	for i, o := range clusters {
		if o >= runeIdx {
			e.cursorIdx = i
			break
		}
	}
	e.scrollToCursor()
}

func (e *Editor) scrollToCursor() {
	if e.cursorIdx < e.offsetIdx {
		e.offsetIdx = e.cursorIdx
	}
	for e.offsetIdx < e.cursorIdx && e.width <= e.textWidth[e.cursorIdx]-e.textWidth[e.offsetIdx] {
		e.offsetIdx++
	}
}

func (e *Editor) PutRune(r rune) {
	e.autoCache = nil
	l := e.line()
	ci := l.clusters[e.cursorIdx]
	l.runes = append(l.runes, ' ')
	copy(l.runes[ci+1:], l.runes[ci:])
	l.runes[ci] = r
	e.recompute()
	e.setCursor(ci + 1)
}

func (e *Editor) RemCluster() (ok bool) {
	if e.cursorIdx == 0 {
		return false
	}
	e.autoCache = nil
	e.remClusterAt(e.cursorIdx - 1)
	e.cursorIdx--
	e.scrollToCursor()
	return true
}

func (e *Editor) RemClusterForward() (ok bool) {
	if e.cursorIdx >= len(e.line().clusters)-1 {
		return false
	}
	e.autoCache = nil
	e.remClusterAt(e.cursorIdx)
	return true
}

func (e *Editor) remClusterAt(idx int) {
	l := e.line()
	rs, re := l.clusters[idx], l.clusters[idx+1]
	l.runes = append(l.runes[:rs], l.runes[re:]...)
	e.recompute()
}

func (e *Editor) RemWord() (ok bool) {
	if e.cursorIdx == 0 {
		return false
	}
	isSpace := func(i int) bool {
		l := e.line()
		return l.runes[l.clusters[i]] == ' '
	}
	for e.cursorIdx > 0 && isSpace(e.cursorIdx-1) {
		e.RemCluster()
	}
	for e.cursorIdx > 0 && !isSpace(e.cursorIdx-1) {
		e.RemCluster()
	}
	return true
}

// Flush returns the current line and starts a new one. Non-empty lines are
// kept in the history.
func (e *Editor) Flush() string {
	content := string(e.line().runes)
	last := len(e.text) - 1
	if content != "" {
		if e.lineIdx != last {
			e.text[last] = e.line().copy()
		}
		e.text = append(e.text, newEditorLine())
	} else {
		e.text[last] = newEditorLine()
	}
	e.lineIdx = len(e.text) - 1
	e.textWidth = e.textWidth[:1]
	e.cursorIdx = 0
	e.offsetIdx = 0
	e.autoCache = nil
	return content
}

func (e *Editor) Clear() bool {
	if e.Empty() {
		return false
	}
	e.text[e.lineIdx] = newEditorLine()
	e.textWidth = e.textWidth[:1]
	e.cursorIdx = 0
	e.offsetIdx = 0
	e.autoCache = nil
	return true
}

func (e *Editor) Set(text string) {
	e.line().runes = []rune(text)
	e.recompute()
	e.cursorIdx = len(e.line().clusters) - 1
	e.autoCache = nil
	e.scrollToCursor()
}

// Enter accepts the selected completion, if any. It returns false when
// the line should be sent instead.
func (e *Editor) Enter() bool {
	if e.autoCache != nil {
		return e.AutoComplete()
	}
	return false
}

func (e *Editor) Right() {
	if e.cursorIdx < len(e.line().clusters)-1 {
		e.cursorIdx++
		e.scrollToCursor()
	}
	e.autoCache = nil
}

func (e *Editor) Left() {
	if e.cursorIdx > 0 {
		e.cursorIdx--
		e.scrollToCursor()
	}
	e.autoCache = nil
}

func (e *Editor) Home() {
	e.cursorIdx = 0
	e.offsetIdx = 0
	e.autoCache = nil
}

func (e *Editor) End() {
	e.cursorIdx = len(e.line().clusters) - 1
	e.autoCache = nil
	e.scrollToCursor()
}

func (e *Editor) Up() {
	if e.autoCache != nil {
		e.autoCacheIdx = (e.autoCacheIdx + 1) % len(e.autoCache)
		return
	}
	if e.lineIdx == 0 {
		return
	}
	e.lineIdx--
	e.recompute()
	e.offsetIdx = 0
	e.End()
}

func (e *Editor) Down() {
	if e.autoCache != nil {
		e.autoCacheIdx = (e.autoCacheIdx + len(e.autoCache) - 1) % len(e.autoCache)
		return
	}
	if e.lineIdx == len(e.text)-1 {
		e.Clear()
		return
	}
	e.lineIdx++
	e.recompute()
	e.offsetIdx = 0
	e.End()
}

// AutoComplete cycles through completions. The first call only lists them
// unless there is a single one, which is applied directly.
func (e *Editor) AutoComplete() (ok bool) {
	if e.autoCache == nil {
		if e.complete == nil {
			return false
		}
		l := e.line()
		e.autoCache = e.complete(l.clusters[e.cursorIdx], l.runes)
		if len(e.autoCache) == 0 {
			e.autoCache = nil
			return false
		}
		e.autoCacheIdx = 0
		if len(e.autoCache) > 1 {
			return false
		}
	}

	c := e.autoCache[e.autoCacheIdx]
	e.line().runes = append([]rune{}, c.Text...)
	e.recompute()
	e.setCursor(c.CursorIdx)
	e.autoCache = nil
	return true
}

func (e *Editor) Draw(vx *Vaxis, x0, y int, st vaxis.Style) {
	l := e.line()
	x := x0
	i := l.clusters[e.offsetIdx]

	autoStart, autoEnd := -1, -1
	autoX := x0
	if e.autoCache != nil {
		autoStart = e.autoCache[e.autoCacheIdx].StartIdx
		autoEnd = e.autoCache[e.autoCacheIdx].EndIdx
	}

	for i < len(l.runes) {
		r := l.runes[i:]
		s := st
		if i >= autoStart && i < autoEnd {
			s.UnderlineStyle = vaxis.UnderlineSingle
		}
		if i == autoStart {
			autoX = x
		}
		if r[0] == '\n' {
			s.Attribute |= vaxis.AttrBold
			s.Foreground = ColorRed
			r = []rune{'↲'}
		}
		dx, di := printCluster(vx, x, y, x0+e.width, r, s)
		if di == 0 {
			break
		}
		x += dx
		i += di
	}
	for ; x < x0+e.width; x++ {
		setCell(vx, x, y, ' ', st)
	}

	n := len(e.autoCache)
	if n > 10 {
		n = 10
	}
	if n > y {
		n = y
	}
	for ci, c := range e.autoCache[:n] {
		display := c.Display
		if display == nil {
			display = c.Text[c.StartIdx:]
		}
		s := vaxis.Style{Attribute: vaxis.AttrReverse | vaxis.AttrDim}
		if ci == e.autoCacheIdx {
			s.Attribute = vaxis.AttrReverse | vaxis.AttrBold
		}
		x := autoX
		for j := 0; j < len(display); {
			dx, di := printCluster(vx, x, y-ci-1, x0+e.width, display[j:], s)
			if di == 0 {
				break
			}
			x += dx
			j += di
		}
	}

	vx.ShowCursor(x0+e.textWidth[e.cursorIdx]-e.textWidth[e.offsetIdx], y, vaxis.CursorBeam)
}
