package ui

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/delthas/go-localeinfo"
	"github.com/rivo/uniseg"
)

// Width caches, only touched from the UI goroutine.
var (
	runeWidthMap    = make(map[rune]int)
	clusterWidthMap = make(map[string]int)
)

func runeWidth(vx *Vaxis, r rune) int {
	switch {
	case vx == nil:
		return 1
	case r == '\n':
		return 1 // drawn as ↲
	case r <= 0x1F:
		return 0
	case r <= 0x7F:
		return 1
	}
	if n, ok := runeWidthMap[r]; ok {
		return n
	}
	n := vx.RenderedWidth(string(r))
	runeWidthMap[r] = n
	return n
}

func stringWidth(vx *Vaxis, s string) int {
	if vx == nil {
		return len(s)
	}
	if utf8.RuneCountInString(s) == 1 {
		for _, r := range s {
			return runeWidth(vx, r)
		}
	}
	return vx.RenderedWidth(s)
}

// truncate cuts s to w cells, ending it with tail when it was cut.
func truncate(vx *Vaxis, s string, w int, tail string) string {
	if stringWidth(vx, s) <= w {
		return s
	}
	w -= stringWidth(vx, tail)

	width := 0
	var sb strings.Builder
	state := -1
	rest := s
	for len(rest) > 0 {
		var c string
		c, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		cw := stringWidth(vx, c)
		if width+cw > w {
			break
		}
		width += cw
		sb.WriteString(c)
	}
	sb.WriteString(tail)
	return sb.String()
}

// firstCluster returns the first grapheme cluster of r and its width in
// cells.
func firstCluster(vx *Vaxis, r []rune) (c string, width int) {
	if len(r) == 0 {
		return "", 0
	}
	if r[0] == '\t' {
		return " ", 1
	}
	if r[0] <= 0x7F {
		return string(r[0]), runeWidth(vx, r[0])
	}
	c, _, _, _ = uniseg.FirstGraphemeClusterInString(string(r), -1)
	if n, ok := clusterWidthMap[c]; ok {
		return c, n
	}
	width = stringWidth(vx, c)
	if vx != nil {
		clusterWidthMap[c] = width
	}
	return c, width
}

func setCell(vx *Vaxis, x int, y int, r rune, st vaxis.Style) {
	vx.window.SetCell(x, y, vaxis.Cell{
		Character: vaxis.Character{Grapheme: string(r)},
		Style:     st,
	})
}

// printCluster draws the first cluster of r, unless it would cross limit
// (-1 for none). di is the number of runes drawn.
func printCluster(vx *Vaxis, x int, y int, limit int, r []rune, st vaxis.Style) (dx int, di int) {
	if limit >= 0 && x >= limit {
		return 0, 0
	}
	c, w := firstCluster(vx, r)
	if limit >= 0 && w > limit-x {
		return 0, 0
	}
	vx.window.SetCell(x, y, vaxis.Cell{
		Character: vaxis.Character{Grapheme: c},
		Style:     st,
	})
	return w, len([]rune(c))
}

func printString(vx *Vaxis, x *int, y int, s StyledString) {
	printStringLimit(vx, x, y, -1, s)
}

func printStringLimit(vx *Vaxis, x *int, y int, limit int, s StyledString) {
	var st vaxis.Style
	nextStyles := s.styles

	i := 0
	sr := []rune(s.string)
	for len(sr) > 0 {
		for 0 < len(nextStyles) && nextStyles[0].Start <= i {
			st = nextStyles[0].Style
			nextStyles = nextStyles[1:]
		}
		dx, di := printCluster(vx, *x, y, limit, sr, st)
		if di == 0 {
			return
		}
		*x += dx
		i += len(string(sr[:di]))
		sr = sr[di:]
	}
}

// printIdent right-aligns s in a column of width cells ending at x+width.
func printIdent(vx *Vaxis, x, y, width int, s StyledString) {
	s.string = truncate(vx, s.string, width, "…")
	x += width - stringWidth(vx, s.string)
	var st vaxis.Style
	if len(s.styles) != 0 && s.styles[0].Start == 0 {
		st = s.styles[0].Style
	}
	setCell(vx, x-1, y, ' ', st)
	printString(vx, &x, y, s)
	setCell(vx, x, y, ' ', st)
}

var (
	dateConfig     sync.Once
	dateMonthFirst bool
)

// loadDateInfo reads from the locale whether dates read dd/mm or mm/dd.
// dd/mm is the fallback.
func loadDateInfo() {
	l, err := localeinfo.NewLocale("")
	if err != nil {
		return
	}
	format := l.DateFormat()
	index := func(specs ...string) int {
		for _, s := range specs {
			if i := strings.Index(format, s); i >= 0 {
				return i
			}
		}
		return -1
	}
	day := index("%d", "%e")
	month := index("%m", "%b", "%B")
	if day >= 0 && month >= 0 && month < day {
		dateMonthFirst = true
	}
}

func printTwoNumbers(vx *Vaxis, x, y int, st vaxis.Style, a int, sep rune, b int) {
	setCell(vx, x+0, y, rune(a/10)+'0', st)
	setCell(vx, x+1, y, rune(a%10)+'0', st)
	setCell(vx, x+2, y, sep, st)
	setCell(vx, x+3, y, rune(b/10)+'0', st)
	setCell(vx, x+4, y, rune(b%10)+'0', st)
}

func printDate(vx *Vaxis, x int, y int, st vaxis.Style, t time.Time) {
	dateConfig.Do(loadDateInfo)
	_, m, d := t.Date()
	if dateMonthFirst {
		printTwoNumbers(vx, x, y, st, int(m), '/', d)
	} else {
		printTwoNumbers(vx, x, y, st, d, '/', int(m))
	}
}

func printTime(vx *Vaxis, x int, y int, st vaxis.Style, t time.Time) {
	printTwoNumbers(vx, x, y, st, t.Hour(), ':', t.Minute())
}

func clearArea(vx *Vaxis, x0, y0, width, height int) {
	vx.window.New(x0, y0, width, height).Clear()
}

func drawHorizontalLine(vx *Vaxis, x0, y, width int, st vaxis.Style) {
	for x := x0; x < x0+width; x++ {
		setCell(vx, x, y, '─', st)
	}
}

func drawVerticalLine(vx *Vaxis, x, y0, height int, st vaxis.Style) {
	for y := y0; y < y0+height; y++ {
		setCell(vx, x, y, '│', st)
	}
}
