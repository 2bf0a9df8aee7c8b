package ui

import (
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.sr.ht/~rockorager/vaxis"
	"mvdan.cc/xurls/v2"
)

type rangedStyle struct {
	Start int // byte index at which Style is effective
	Style vaxis.Style
}

type StyledString struct {
	string
	styles []rangedStyle // sorted, elements cannot have the same Start value
}

func PlainString(s string) StyledString {
	return StyledString{string: s}
}

func PlainSprintf(format string, a ...interface{}) StyledString {
	return PlainString(fmt.Sprintf(format, a...))
}

func ColorString(s string, fg vaxis.Color) StyledString {
	return Styled(s, vaxis.Style{Foreground: fg})
}

func Styled(s string, style vaxis.Style) StyledString {
	return StyledString{
		string: s,
		styles: []rangedStyle{{Start: 0, Style: style}},
	}
}

func (s StyledString) String() string {
	return s.string
}

var urlRegex *regexp.Regexp

func init() {
	urlRegex, _ = xurls.StrictMatchingScheme(xurls.AnyScheme)
	urlRegex.Longest()
}

// ParseURLs turns the URLs of s into terminal hyperlinks.
func (s StyledString) ParseURLs() StyledString {
	if !strings.Contains(s.string, ":") {
		return s
	}
	urls := urlRegex.FindAllStringIndex(s.string, -1)
	if len(urls) == 0 {
		return s
	}

	styles := make([]rangedStyle, 0, len(s.styles)+2*len(urls))
	j := 0
	last := rangedStyle{Start: -1}
	for _, u := range urls {
		ub, ue := u[0], u[1]
		link := s.string[ub:ue]
		if pu, err := url.Parse(link); err != nil || pu.Scheme == "" {
			link = "https://" + link
		}
		params := fmt.Sprintf("id=_%010d", rand.Int31())

		// styles before the link, and the one the link starts in
		for ; j < len(s.styles) && s.styles[j].Start <= ub; j++ {
			st := s.styles[j]
			if st.Start == ub {
				st.Style.Hyperlink = link
				st.Style.HyperlinkParams = params
			}
			last = st
			styles = append(styles, st)
		}
		if last.Start != ub {
			st := last.Style
			st.Hyperlink = link
			st.HyperlinkParams = params
			last = rangedStyle{Start: ub, Style: st}
			styles = append(styles, last)
		}
		// styles inside the link
		for ; j < len(s.styles) && s.styles[j].Start <= ue; j++ {
			st := s.styles[j]
			if st.Start < ue {
				st.Style.Hyperlink = link
				st.Style.HyperlinkParams = params
			}
			last = st
			styles = append(styles, st)
		}
		if last.Start != ue {
			st := last.Style
			st.Hyperlink = ""
			st.HyperlinkParams = ""
			last = rangedStyle{Start: ue, Style: st}
			styles = append(styles, last)
		}
	}
	styles = append(styles, s.styles[j:]...)
	if n := len(styles); n > 0 && styles[n-1].Start >= len(s.string) {
		styles = styles[:n-1]
	}

	return StyledString{
		string: s.string,
		styles: styles,
	}
}

type markdownDelim struct {
	mark   string
	toggle func(st *vaxis.Style)
	// intraword delimiters only apply at word boundaries
	wordBound bool
}

var markdownDelims = []markdownDelim{
	{mark: "**", toggle: func(st *vaxis.Style) { st.Attribute ^= vaxis.AttrBold }},
	{mark: "__", toggle: toggleUnderline, wordBound: true},
	{mark: "~~", toggle: func(st *vaxis.Style) { st.Attribute ^= vaxis.AttrStrikethrough }},
	{mark: "||", toggle: func(st *vaxis.Style) { st.Attribute ^= vaxis.AttrReverse }},
	{mark: "*", toggle: func(st *vaxis.Style) { st.Attribute ^= vaxis.AttrItalic }},
	{mark: "_", toggle: func(st *vaxis.Style) { st.Attribute ^= vaxis.AttrItalic }, wordBound: true},
}

func toggleUnderline(st *vaxis.Style) {
	if st.UnderlineStyle == vaxis.UnderlineOff {
		st.UnderlineStyle = vaxis.UnderlineSingle
	} else {
		st.UnderlineStyle = vaxis.UnderlineOff
	}
}

func isMarkdownPunct(c byte) bool {
	return strings.IndexByte("\\*_~|`>#-", c) >= 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// MarkdownString renders the inline Discord markdown of raw: bold, italics,
// underline, strikethrough, spoilers and code.
func MarkdownString(raw string) StyledString {
	var sb StyledStringBuilder
	var current vaxis.Style
	open := make(map[string]bool)

	setStyle := func(st vaxis.Style) {
		n := len(sb.styles)
		if n > 0 && sb.styles[n-1].Start == sb.Len() {
			sb.styles[n-1].Style = st
		} else if n > 0 || st != (vaxis.Style{}) {
			sb.SetStyle(st)
		}
	}

	for i := 0; i < len(raw); {
		if raw[i] == '\\' && i+1 < len(raw) && isMarkdownPunct(raw[i+1]) {
			sb.WriteByte(raw[i+1])
			i += 2
			continue
		}
		if raw[i] == '`' {
			fence := "`"
			if strings.HasPrefix(raw[i:], "```") {
				fence = "```"
			}
			if end := strings.Index(raw[i+len(fence):], fence); end > 0 {
				code := raw[i+len(fence) : i+len(fence)+end]
				if fence == "```" {
					code = strings.TrimPrefix(code, "\n")
					code = strings.TrimSuffix(code, "\n")
				}
				st := current
				st.Attribute |= vaxis.AttrDim
				setStyle(st)
				sb.WriteString(code)
				setStyle(current)
				i += 2*len(fence) + end
				continue
			}
		}

		matched := false
		for _, d := range markdownDelims {
			if !strings.HasPrefix(raw[i:], d.mark) {
				continue
			}
			after := raw[i+len(d.mark):]
			if open[d.mark] {
				if d.wordBound {
					r, _ := utf8.DecodeRuneInString(after)
					if isWordRune(r) {
						continue
					}
				}
				open[d.mark] = false
			} else {
				r, _ := utf8.DecodeRuneInString(after)
				if after == "" || unicode.IsSpace(r) || !strings.Contains(after, d.mark) {
					continue
				}
				if d.wordBound && isWordRune(lastRuneBefore(raw, i)) {
					continue
				}
				open[d.mark] = true
			}
			d.toggle(&current)
			setStyle(current)
			i += len(d.mark)
			matched = true
			break
		}
		if matched {
			continue
		}

		r, size := utf8.DecodeRuneInString(raw[i:])
		sb.WriteRune(r)
		i += size
	}
	return sb.StyledString()
}

func lastRuneBefore(s string, i int) rune {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	if r == utf8.RuneError {
		return 0
	}
	return r
}

type StyledStringBuilder struct {
	strings.Builder
	styles []rangedStyle
}

func (sb *StyledStringBuilder) Reset() {
	sb.Builder.Reset()
	sb.styles = sb.styles[:0]
}

func (sb *StyledStringBuilder) WriteStyledString(s StyledString) {
	start := len(sb.styles)
	sb.styles = append(sb.styles, s.styles...)
	for i := start; i < len(sb.styles); i++ {
		sb.styles[i].Start += sb.Len()
	}
	sb.WriteString(s.string)
}

func (sb *StyledStringBuilder) SetStyle(style vaxis.Style) {
	sb.styles = append(sb.styles, rangedStyle{
		Start: sb.Len(),
		Style: style,
	})
}

func (sb *StyledStringBuilder) StyledString() StyledString {
	s := sb.String()
	styles := make([]rangedStyle, 0, len(sb.styles))
	for _, style := range sb.styles {
		if len(s) <= style.Start {
			break
		}
		if n := len(styles); n > 0 && styles[n-1].Start == style.Start {
			styles[n-1] = style
			continue
		}
		styles = append(styles, style)
	}
	if len(styles) == 0 {
		styles = nil
	}
	return StyledString{
		string: s,
		styles: styles,
	}
}
