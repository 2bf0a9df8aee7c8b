package ui

import (
	"errors"
	"testing"
	"time"
)

func assertBufferNames(t *testing.T, bs *BufferList, expected ...string) {
	t.Helper()
	all := bs.All()
	if len(all) != len(expected) {
		t.Fatalf("expected %d buffers, got %d", len(expected), len(all))
	}
	for i, b := range all {
		if b.Name() != expected[i] {
			t.Errorf("buffer #%d: expected %q, got %q", i, expected[i], b.Name())
		}
	}
}

func TestBufferListCreate(t *testing.T) {
	bs := NewBufferList()
	mustCreate := func(name string) Handle {
		h, err := bs.Create(name, nil, nil)
		if err != nil {
			t.Fatalf("creating %q: %v", name, err)
		}
		return h
	}

	mustCreate("home")
	mustCreate("discord.b.general")
	mustCreate("discord.a.general")
	mustCreate("discord.dm.bob")
	assertBufferNames(t, bs, "home", "discord.a.general", "discord.b.general", "discord.dm.bob")

	if _, err := bs.Create("discord.dm.bob", nil, nil); !errors.Is(err, ErrBufferExists) {
		t.Errorf("expected ErrBufferExists, got %v", err)
	}
	if cur := bs.Current(); cur == nil || cur.Name() != "home" {
		t.Errorf("expected the home buffer to stay focused")
	}
}

func TestBufferListClose(t *testing.T) {
	bs := NewBufferList()
	bs.Create("home", nil, nil)

	closed := 0
	h, _ := bs.Create("discord.a.general", nil, func(b *Buffer) {
		closed++
		if _, err := bs.Buffer(b.Handle()); err == nil {
			t.Errorf("buffer still reachable from its close callback")
		}
	})
	if _, err := bs.Buffer(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := bs.Close(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bs.Close(h); !errors.Is(err, ErrBufferClosed) {
		t.Errorf("expected ErrBufferClosed on second close, got %v", err)
	}
	if _, err := bs.Buffer(h); !errors.Is(err, ErrBufferClosed) {
		t.Errorf("expected ErrBufferClosed, got %v", err)
	}
	if closed != 1 {
		t.Errorf("expected close callback to run once, ran %d times", closed)
	}
	if _, err := bs.Buffer(Handle{}); !errors.Is(err, ErrBufferClosed) {
		t.Errorf("expected the zero handle to be closed")
	}
}

func TestBufferListCloseCurrent(t *testing.T) {
	bs := NewBufferList()
	bs.Create("home", nil, nil)
	bs.Create("discord.a.one", nil, nil)
	h, _ := bs.Create("discord.a.two", nil, nil)
	bs.To(2)

	bs.Close(h)
	if cur := bs.Current(); cur == nil || cur.Name() != "discord.a.one" {
		t.Errorf("expected focus to move to the previous buffer")
	}
}

func TestBufferInput(t *testing.T) {
	bs := NewBufferList()
	var got string
	h, _ := bs.Create("home", func(b *Buffer, input string) {
		got = input
	}, nil)
	b, _ := bs.Buffer(h)
	b.Input("hello")
	if got != "hello" {
		t.Errorf("expected input %q, got %q", "hello", got)
	}
}

func assertLineIDs(t *testing.T, b *Buffer, expected ...string) {
	t.Helper()
	lines := b.Lines()
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, l := range lines {
		if l.ID != expected[i] {
			t.Errorf("line #%d: expected %q, got %q", i, expected[i], l.ID)
		}
	}
}

func TestBufferLines(t *testing.T) {
	bs := NewBufferList()
	bs.Create("home", nil, nil)
	h, _ := bs.Create("discord.a.general", nil, nil)
	b, _ := bs.Buffer(h)

	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.AddLines([]Line{
		{ID: "2", At: t0.Add(2 * time.Minute), Body: PlainString("two")},
		{ID: "1", At: t0.Add(time.Minute), Body: PlainString("one")},
	})
	b.AddLine(Line{ID: "3", At: t0.Add(3 * time.Minute), Body: PlainString("three"), Notify: NotifyHighlight})
	b.AddLine(Line{ID: "0", At: t0, Body: PlainString("zero")})
	assertLineIDs(t, b, "0", "1", "2", "3")

	b.AddLine(Line{ID: "3", At: t0.Add(3 * time.Minute), Body: PlainString("three again")})
	assertLineIDs(t, b, "0", "1", "2", "3")

	if !b.UpdateLine(Line{ID: "1", At: t0.Add(time.Minute), Body: PlainString("one (edited)")}) {
		t.Errorf("expected update of line 1 to succeed")
	}
	if b.Lines()[1].Body.String() != "one (edited)" {
		t.Errorf("expected updated body, got %q", b.Lines()[1].Body.String())
	}
	if b.UpdateLine(Line{ID: "9"}) {
		t.Errorf("expected update of a missing line to fail")
	}

	if !b.RemoveLine("2") || b.RemoveLine("2") {
		t.Errorf("expected line 2 to be removed exactly once")
	}
	assertLineIDs(t, b, "0", "1", "3")

	if !b.Unread() || b.Highlights() != 1 {
		t.Errorf("expected an unread highlight, got unread=%v highlights=%d", b.Unread(), b.Highlights())
	}
	bs.To(1)
	if b.Unread() || b.Highlights() != 0 {
		t.Errorf("expected focusing to clear unread state")
	}

	b.ClearLines()
	assertLineIDs(t, b)
}

func TestBufferMembers(t *testing.T) {
	bs := NewBufferList()
	h, _ := bs.Create("home", nil, nil)
	b, _ := bs.Buffer(h)

	b.SetMembers([]Member{
		{Name: "zed", Group: "online"},
		{Name: "Bob", Group: "mods", Rank: -1},
		{Name: "alice", Group: "online"},
	})
	expected := []string{"Bob", "alice", "zed"}
	for i, m := range b.Members() {
		if m.Name != expected[i] {
			t.Errorf("member #%d: expected %q, got %q", i, expected[i], m.Name)
		}
	}
}

func TestLineNewLines(t *testing.T) {
	l := Line{Body: PlainString("hello world foo")}
	l.computeSplitPoints(nil)

	nls := l.NewLines(nil, 11)
	if len(nls) != 1 || nls[0] != 12 {
		t.Errorf("width 11: expected [12], got %v", nls)
	}
	nls = l.NewLines(nil, 80)
	if len(nls) != 0 {
		t.Errorf("width 80: expected no break, got %v", nls)
	}
	nls = l.NewLines(nil, 4)
	if len(nls) == 0 {
		t.Errorf("width 4: expected breaks")
	}
}
