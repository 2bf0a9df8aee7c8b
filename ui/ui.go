package ui

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"git.sr.ht/~rockorager/vaxis"
)

type Config struct {
	NickColWidth      int
	ChanColWidth      int
	MemberColWidth    int
	TextMaxWidth      int
	AutoComplete      Completer
	Mouse             bool
	Colors            ConfigColors
	LocalIntegrations bool
}

type ConfigColors struct {
	Gray   vaxis.Color
	Status vaxis.Color
	Prompt vaxis.Color
	Unread vaxis.Color
	Nicks  ColorScheme
}

type Vaxis struct {
	*vaxis.Vaxis
	window vaxis.Window
}

// NotifyEvent is sent on Events when a desktop notification is clicked.
type NotifyEvent struct {
	Buffer Handle
}

type UI struct {
	vx     *Vaxis
	Events chan any
	exit   atomic.Bool
	config Config

	bs     *BufferList
	e      *Editor
	prompt StyledString
	status string
	title  string

	channelOffset int
	memberOffset  int
}

func New(config Config) (ui *UI, err error) {
	ui = &UI{
		config: config,
	}

	if runtime.GOOS == "windows" && os.Getenv("COLORTERM") == "" {
		os.Setenv("COLORTERM", "truecolor")
	}
	vx, err := vaxis.New(vaxis.Options{
		DisableMouse: !config.Mouse,
		CSIuBitMask:  vaxis.CSIuDisambiguate | vaxis.CSIuReportEvents | vaxis.CSIuAlternateKeys | vaxis.CSIuAllKeys | vaxis.CSIuAssociatedText,
	})
	if err != nil {
		return nil, err
	}
	ui.vx = &Vaxis{
		Vaxis:  vx,
		window: vx.Window(),
	}
	ui.setupGray()
	if ui.config.Colors.Status == ColorDefault {
		ui.config.Colors.Status = ui.config.Colors.Gray
	}

	ui.vx.SetTitle("kouhai")
	ui.vx.SetAppID("kouhai")

	ui.bs = NewBufferList()
	ui.bs.vx = ui.vx
	ui.bs.OnHighlight = ui.onHighlight
	ui.e = NewEditor(ui.vx, config.AutoComplete)

	ui.Events = make(chan any, 128)
	go func() {
		for !ui.ShouldExit() {
			ev := ui.vx.PollEvent()
			if _, ok := ev.(vaxis.QuitEvent); ok {
				ui.Exit()
			}
			ui.Events <- ev
		}
	}()

	ui.Resize()
	return ui, nil
}

// setupGray picks a gray that stays readable on the terminal background.
func (ui *UI) setupGray() {
	ui.config.Colors.Gray = ColorGray
	bg := ui.vx.QueryBackground().Params()
	fg := ui.vx.QueryForeground().Params()
	if len(bg) == 3 && len(fg) == 3 && ui.vx.CanRGB() {
		p := make([]uint8, 3)
		for i := range p {
			p[i] = uint8((int(bg[i])*3 + int(fg[i])*2) / 5)
		}
		ui.config.Colors.Gray = vaxis.RGBColor(p[0], p[1], p[2])
		return
	}
	gray := ui.vx.QueryColor(ColorGray).Params()
	if len(bg) == 3 && reflect.DeepEqual(bg, gray) {
		ui.config.Colors.Gray = ColorDefault
	}
}

func (ui *UI) ShouldExit() bool {
	return ui.exit.Load()
}

func (ui *UI) Exit() {
	ui.exit.Store(true)
}

func (ui *UI) Close() {
	ui.vx.Close()
}

// Buffers is the buffer host. It must only be used from the goroutine
// reading Events.
func (ui *UI) Buffers() *BufferList {
	return ui.bs
}

func (ui *UI) NextBuffer() {
	ui.bs.Next()
	ui.memberOffset = 0
}

func (ui *UI) PreviousBuffer() {
	ui.bs.Previous()
	ui.memberOffset = 0
}

func (ui *UI) NextUnreadBuffer() {
	ui.bs.NextUnread()
	ui.memberOffset = 0
}

func (ui *UI) JumpBuffer(sub string) bool {
	ui.memberOffset = 0
	return ui.bs.Jump(sub)
}

func (ui *UI) JumpBufferIndex(i int) bool {
	ui.memberOffset = 0
	if i < 0 || i >= ui.bs.Len() {
		return false
	}
	ui.bs.To(i)
	return true
}

func (ui *UI) JumpBufferHandle(h Handle) bool {
	ui.memberOffset = 0
	return ui.bs.JumpHandle(h)
}

func (ui *UI) ScrollUp() {
	ui.bs.ScrollUp(ui.bs.tlHeight / 2)
}

func (ui *UI) ScrollDown() {
	ui.bs.ScrollDown(ui.bs.tlHeight / 2)
}

func (ui *UI) ScrollUpBy(n int) {
	ui.bs.ScrollUp(n)
}

func (ui *UI) ScrollDownBy(n int) {
	ui.bs.ScrollDown(n)
}

// MemberWidth is the width of the member column of the current buffer.
func (ui *UI) MemberWidth() int {
	if b := ui.bs.cur(); b != nil && b.nicklist {
		return ui.config.MemberColWidth
	}
	return 0
}

func (ui *UI) ScrollMemberUpBy(n int) {
	ui.memberOffset -= n
	if ui.memberOffset < 0 {
		ui.memberOffset = 0
	}
}

func (ui *UI) ScrollMemberDownBy(n int) {
	ui.memberOffset += n
}

func (ui *UI) SetStatus(status string) {
	ui.status = status
}

func (ui *UI) SetPrompt(prompt StyledString) {
	ui.prompt = prompt
}

func (ui *UI) SetTitle(title string) {
	if ui.title == title {
		return
	}
	ui.title = title
	ui.vx.SetTitle(title)
}

// InputContent result must not be modified.
func (ui *UI) InputContent() []rune {
	return ui.e.Content()
}

func (ui *UI) InputRune(r rune) {
	ui.e.PutRune(r)
}

// InputEnter returns true if the event was eaten.
func (ui *UI) InputEnter() bool {
	return ui.e.Enter()
}

func (ui *UI) InputRight() {
	ui.e.Right()
}

func (ui *UI) InputLeft() {
	ui.e.Left()
}

func (ui *UI) InputHome() {
	ui.e.Home()
}

func (ui *UI) InputEnd() {
	ui.e.End()
}

func (ui *UI) InputUp() {
	ui.e.Up()
}

func (ui *UI) InputDown() {
	ui.e.Down()
}

func (ui *UI) InputBackspace() (ok bool) {
	return ui.e.RemCluster()
}

func (ui *UI) InputDelete() (ok bool) {
	return ui.e.RemClusterForward()
}

func (ui *UI) InputDeleteWord() (ok bool) {
	return ui.e.RemWord()
}

func (ui *UI) InputAutoComplete() (ok bool) {
	return ui.e.AutoComplete()
}

func (ui *UI) InputFlush() (content string) {
	return ui.e.Flush()
}

func (ui *UI) InputClear() bool {
	return ui.e.Clear()
}

func (ui *UI) InputSet(text string) {
	ui.e.Set(text)
}

func (ui *UI) Resize() {
	ui.vx.window = ui.vx.Window()
	w, h := ui.vx.window.Size()
	innerWidth := w - 9 - ui.config.ChanColWidth - ui.config.NickColWidth - ui.config.MemberColWidth
	if innerWidth <= 0 {
		innerWidth = 1
	}
	ui.e.Resize(innerWidth)
	textWidth := innerWidth
	if ui.config.TextMaxWidth > 0 && ui.config.TextMaxWidth < textWidth {
		textWidth = ui.config.TextMaxWidth
	}
	ui.bs.Resize(textWidth, h-4)
	ui.vx.Refresh()
}

func (ui *UI) Size() (int, int) {
	return ui.vx.window.Size()
}

func (ui *UI) Beep() {
	ui.vx.Bell()
}

func (ui *UI) onHighlight(b *Buffer, line Line) {
	if b.current() {
		return
	}
	title := b.ShortName()
	if head := line.Head.String(); head != "" {
		title = fmt.Sprintf("%s — %s", title, head)
	}
	ui.notify(NotifyEvent{Buffer: b.handle}, title, line.Body.String())
}

func (ui *UI) Draw() {
	w, h := ui.vx.window.Size()
	b := ui.bs.cur()

	chanWidth := ui.config.ChanColWidth
	memberWidth := ui.MemberWidth()
	tlWidth := w - chanWidth - memberWidth

	ui.drawBufferList(0, 0, chanWidth, h)
	if b != nil {
		ui.drawTimeline(b, chanWidth, 0, tlWidth, h-2)
	} else {
		clearArea(ui.vx, chanWidth, 0, tlWidth, h-2)
	}
	if memberWidth > 0 {
		ui.drawMemberList(b, w-memberWidth, 0, memberWidth, h)
	}
	ui.drawStatusBar(chanWidth, h-2, tlWidth)

	x0 := chanWidth
	for x := x0; x < x0+9+ui.config.NickColWidth; x++ {
		setCell(ui.vx, x, h-1, ' ', vaxis.Style{})
	}
	printIdent(ui.vx, x0+7, h-1, ui.config.NickColWidth, ui.prompt)
	ui.e.Draw(ui.vx, x0+9+ui.config.NickColWidth, h-1, vaxis.Style{})

	ui.vx.Render()
}

func (ui *UI) drawBufferList(x0, y0, width, height int) {
	if width == 0 {
		return
	}
	list := ui.bs.list
	if ui.bs.current < ui.channelOffset {
		ui.channelOffset = ui.bs.current
	} else if ui.bs.current >= ui.channelOffset+height {
		ui.channelOffset = ui.bs.current - height + 1
	}

	width--
	drawVerticalLine(ui.vx, x0+width, y0, height, vaxis.Style{})
	clearArea(ui.vx, x0, y0, width, height)

	for i, b := range list[ui.channelOffset:] {
		if i >= height {
			break
		}
		bi := ui.channelOffset + i
		y := y0 + i
		var st vaxis.Style
		if b.unread {
			st.Attribute |= vaxis.AttrBold
			st.Foreground = ui.config.Colors.Unread
		}
		if bi == ui.bs.current {
			st.Attribute |= vaxis.AttrReverse
		}
		x := x0
		title := truncate(ui.vx, b.ShortName(), width, "…")
		printString(ui.vx, &x, y, Styled(title, st))
		if bi == ui.bs.current {
			for ; x < x0+width; x++ {
				setCell(ui.vx, x, y, ' ', st)
			}
		}
		if b.highlights > 0 {
			hst := vaxis.Style{Foreground: ColorRed, Attribute: vaxis.AttrReverse}
			text := fmt.Sprintf(" %d ", b.highlights)
			x = x0 + width - len(text)
			printString(ui.vx, &x, y, Styled(text, hst))
		}
	}
}

func (ui *UI) drawTimeline(b *Buffer, x0, y0, width, height int) {
	clearArea(ui.vx, x0, y0, width, height)
	nickColWidth := ui.config.NickColWidth

	title := b.title
	if title == "" {
		title = b.FullName()
	}
	x := x0
	printStringLimit(ui.vx, &x, y0, x0+width, PlainString(title))
	drawHorizontalLine(ui.vx, x0, y0+1, width, vaxis.Style{Foreground: ui.config.Colors.Gray})
	y0 += 2
	height -= 2

	textWidth := ui.bs.textWidth
	x1 := x0 + 9 + nickColWidth
	yi := b.scrollAmt + y0 + height
	for i := len(b.lines) - 1; 0 <= i; i-- {
		if yi < y0 {
			break
		}
		line := &b.lines[i]
		nls := line.NewLines(ui.vx, textWidth)
		yi -= len(nls) + 1
		if y0+height <= yi {
			continue
		}

		if yi >= y0 {
			t := line.At.Local()
			showDate := i == 0
			if !showDate {
				yb, mb, db := b.lines[i-1].At.Local().Date()
				ya, ma, da := t.Date()
				showDate = yb != ya || mb != ma || db != da
			}
			if showDate {
				printDate(ui.vx, x0, yi, vaxis.Style{Attribute: vaxis.AttrBold}, t)
			} else if b.lines[i-1].At.Truncate(time.Minute) != line.At.Truncate(time.Minute) {
				printTime(ui.vx, x0, yi, vaxis.Style{Foreground: ui.config.Colors.Gray}, t)
			}
			head := line.Head
			if line.Highlight {
				head = highlighted(head)
			}
			printIdent(ui.vx, x0+7, yi, nickColWidth, head)
		}

		x := x1
		y := yi
		var style vaxis.Style
		nextStyles := line.Body.styles
		for bi, r := range line.Body.string {
			for 0 < len(nextStyles) && nextStyles[0].Start <= bi {
				style = nextStyles[0].Style
				nextStyles = nextStyles[1:]
			}
			if 0 < len(nls) && bi == nls[0] {
				x = x1
				y++
				nls = nls[1:]
				if y0+height <= y {
					break
				}
			}
			if y != yi && x == x1 && IsSplitRune(r) {
				continue
			}
			if y >= y0 {
				if r == '\n' {
					setCell(ui.vx, x, y, '↲', vaxis.Style{Foreground: ColorRed, Attribute: vaxis.AttrBold})
				} else {
					setCell(ui.vx, x, y, r, style)
				}
			}
			x += runeWidth(ui.vx, r)
		}
	}
	b.isAtTop = y0 <= yi
}

func highlighted(s StyledString) StyledString {
	styles := make([]rangedStyle, len(s.styles))
	copy(styles, s.styles)
	if len(styles) == 0 || styles[0].Start != 0 {
		styles = append([]rangedStyle{{Start: 0}}, styles...)
	}
	for i := range styles {
		styles[i].Style.Attribute |= vaxis.AttrReverse
	}
	return StyledString{string: s.string, styles: styles}
}

func (ui *UI) drawMemberList(b *Buffer, x0, y0, width, height int) {
	drawVerticalLine(ui.vx, x0, y0, height, vaxis.Style{})
	x0++
	width--
	clearArea(ui.vx, x0, y0, width, height)

	members := b.members
	count := fmt.Sprintf("%d members", len(members))
	if len(members) == 1 {
		count = "1 member"
	}
	x := x0 + 1
	printString(ui.vx, &x, y0, Styled(truncate(ui.vx, count, width-1, "…"), vaxis.Style{
		Foreground: ui.config.Colors.Status,
	}))
	drawHorizontalLine(ui.vx, x0, y0+1, width, vaxis.Style{Foreground: ui.config.Colors.Gray})
	y0 += 2
	height -= 2

	if ui.memberOffset > len(members)-height {
		ui.memberOffset = len(members) - height
	}
	if ui.memberOffset < 0 {
		ui.memberOffset = 0
	}

	group := ""
	y := y0
	for i := ui.memberOffset; i < len(members) && y < y0+height; i++ {
		m := members[i]
		if m.Group != group {
			group = m.Group
			if group != "" {
				x := x0
				printString(ui.vx, &x, y, Styled(truncate(ui.vx, strings.ToUpper(group), width, "…"), vaxis.Style{
					Foreground: ui.config.Colors.Status,
					Attribute:  vaxis.AttrBold,
				}))
				y++
				if y >= y0+height {
					break
				}
			}
		}
		color := m.Color
		if color == ColorDefault {
			color = IdentColor(ui.config.Colors.Nicks, m.Name, m.Self)
		}
		x := x0 + 1
		printString(ui.vx, &x, y, ColorString(truncate(ui.vx, m.Name, width-1, "…"), color))
		y++
	}
}

func (ui *UI) drawStatusBar(x0, y, width int) {
	clearArea(ui.vx, x0, y, width, 1)
	if ui.status == "" {
		return
	}
	st := vaxis.Style{Foreground: ui.config.Colors.Gray}
	x := x0 + 5 + ui.config.NickColWidth
	printStringLimit(ui.vx, &x, y, x0+width, Styled("--  "+ui.status, st))
}
