package kouhai

import (
	"testing"

	"git.sr.ht/~delthas/kouhai/ui"
)

func completionTexts(cs []ui.Completion) []string {
	texts := make([]string, 0, len(cs))
	for _, c := range cs {
		texts = append(texts, string(c.Text))
	}
	return texts
}

func TestCompletionsChannelMembers(t *testing.T) {
	bs := ui.NewBufferList()
	h, err := bs.Create("discord.gophers.general", nil, nil)
	if err != nil {
		t.Fatalf("creating buffer: %v", err)
	}
	b, _ := bs.Buffer(h)
	b.EnableNicklist()
	b.SetMembers([]ui.Member{
		{Name: "bob", Group: "mods", Rank: -1},
		{Name: "alice", Group: "online"},
		{Name: "albert", Group: "online"},
	})

	tests := []struct {
		text     string
		cursor   int
		expected []string
	}{
		{"al", 2, []string{"@albert: ", "@alice: "}},
		{"hi @Bo", 6, []string{"hi @bob "}},
		{"hi ali there", 6, []string{"hi @alice  there"}},
		{"zz", 2, nil},
		{"hi ", 3, nil},
	}
	for _, tt := range tests {
		cs := completionsChannelMembers(nil, b, tt.cursor, []rune(tt.text))
		assertStrings(t, completionTexts(cs), tt.expected...)
	}

	if cs := completionsChannelMembers(nil, b, 1, []rune("b")); len(cs) != 1 || cs[0].CursorIdx != len("@bob: ") {
		t.Errorf("unexpected completion %+v", cs)
	}

	h, _ = bs.Create("discord.dm.bob", nil, nil)
	dm, _ := bs.Buffer(h)
	if cs := completionsChannelMembers(nil, dm, 1, []rune("b")); len(cs) != 0 {
		t.Errorf("expected no completion without a nicklist, got %q", completionTexts(cs))
	}
}

func TestCompletionsCommands(t *testing.T) {
	tests := []struct {
		text     string
		cursor   int
		expected []string
	}{
		{"/he", 3, []string{"/help"}},
		{"/q", 2, []string{"/quit"}},
		{"/re x", 3, []string{"/redraw x"}},
		{"/xyz", 4, nil},
		{"hello", 5, nil},
		{"/open gophers", 13, nil},
	}
	for _, tt := range tests {
		cs := completionsCommands(nil, tt.cursor, []rune(tt.text))
		assertStrings(t, completionTexts(cs), tt.expected...)
	}
}
