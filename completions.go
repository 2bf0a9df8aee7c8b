package kouhai

import (
	"strings"

	"git.sr.ht/~delthas/kouhai/ui"
)

func completionsChannelMembers(cs []ui.Completion, b *ui.Buffer, cursorIdx int, text []rune) []ui.Completion {
	var start int
	for start = cursorIdx - 1; 0 <= start; start-- {
		if text[start] == ' ' {
			break
		}
	}
	start++
	word := text[start:cursorIdx]
	if len(word) == 0 {
		return cs
	}
	if b == nil || !b.HasNicklist() {
		return cs
	}
	wordCf := strings.ToLower(strings.TrimPrefix(string(word), "@"))
	for _, m := range b.Members() {
		if !strings.HasPrefix(strings.ToLower(m.Name), wordCf) {
			continue
		}
		nickComp := []rune("@" + m.Name)
		if start == 0 {
			nickComp = append(nickComp, ':')
		}
		nickComp = append(nickComp, ' ')
		c := make([]rune, len(text)+len(nickComp)-len(word))
		copy(c[:start], text[:start])
		if cursorIdx < len(text) {
			copy(c[start+len(nickComp):], text[cursorIdx:])
		}
		copy(c[start:], nickComp)
		cs = append(cs, ui.Completion{
			StartIdx:  start,
			EndIdx:    cursorIdx,
			Text:      c,
			Display:   []rune(m.Name),
			CursorIdx: start + len(nickComp),
		})
	}
	return cs
}

func completionsCommands(cs []ui.Completion, cursorIdx int, text []rune) []ui.Completion {
	if !hasPrefix(text, []rune("/")) {
		return cs
	}
	for i := 0; i < cursorIdx; i++ {
		if text[i] == ' ' {
			return cs
		}
	}
	if cursorIdx < len(text) && text[cursorIdx] != ' ' {
		return cs
	}

	uText := strings.ToUpper(string(text[1:cursorIdx]))
	for name := range commands {
		if strings.HasPrefix(name, uText) {
			c := make([]rune, len(text)+len(name)-len(uText))
			copy(c[:1], []rune("/"))
			copy(c[1:], []rune(strings.ToLower(name)))
			copy(c[1+len(name):], text[cursorIdx:])

			cs = append(cs, ui.Completion{
				StartIdx:  0,
				EndIdx:    cursorIdx,
				Text:      c,
				CursorIdx: 1 + len(name),
			})
		}
	}
	return cs
}

func (app *App) completions(cursorIdx int, text []rune) []ui.Completion {
	var cs []ui.Completion

	if len(text) == 0 {
		return cs
	}

	cs = completionsChannelMembers(cs, app.win.Buffers().Current(), cursorIdx, text)
	cs = completionsCommands(cs, cursorIdx, text)

	return cs
}

func hasPrefix(s, prefix []rune) bool {
	return len(prefix) <= len(s) && equal(prefix, s[:len(prefix)])
}

func equal(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
