package kouhai

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/charmbracelet/log"
	"github.com/delthas/go-libnp"

	"git.sr.ht/~delthas/kouhai/events"
	"git.sr.ht/~delthas/kouhai/ui"
)

const maxArgsInfinite = -1

type command struct {
	AllowHome bool
	MinArgs   int
	MaxArgs   int
	Usage     string
	Desc      string
	Handle    func(app *App, args []string) error
}

type commandSet map[string]*command

var commands commandSet

func init() {
	commands = commandSet{
		"HELP": {
			AllowHome: true,
			MaxArgs:   1,
			Usage:     "[command]",
			Desc:      "show the list of commands, or how to use the given one",
			Handle:    commandDoHelp,
		},
		"OPEN": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   2,
			Usage:     "<guild> [channel]",
			Desc:      "open a channel of a guild, or all its text channels",
			Handle:    commandDoOpen,
		},
		"CLOSE": {
			Desc:   "close the current channel",
			Handle: commandDoClose,
		},
		"BUFFER": {
			AllowHome: true,
			MinArgs:   1,
			MaxArgs:   1,
			Usage:     "<index|name>",
			Desc:      "switch to the buffer containing a substring",
			Handle:    commandDoBuffer,
		},
		"REDRAW": {
			MaxArgs: maxArgsInfinite,
			Usage:   "[user ids]",
			Desc:    "render the channel again, hiding messages from the given users",
			Handle:  commandDoRedraw,
		},
		"ME": {
			MinArgs: 1,
			MaxArgs: 1,
			Usage:   "<message>",
			Desc:    "send an action",
			Handle:  commandDoMe,
		},
		"NP": {
			Desc:   "send the current song that is being played on the system",
			Handle: commandDoNP,
		},
		"QUIT": {
			AllowHome: true,
			Desc:      "quit kouhai",
			Handle:    commandDoQuit,
		},
	}
}

func noCommand(app *App, content string) error {
	b := app.win.Buffers().Current()
	if b == nil || b.Handle() == app.home {
		return fmt.Errorf("can't send message to this buffer")
	}
	b.Input(content)
	return nil
}

func commandDoBuffer(app *App, args []string) error {
	name := args[0]
	i, err := strconv.Atoi(name)
	if err == nil {
		if app.win.JumpBufferIndex(i - 1) {
			return nil
		}
	}
	if !app.win.JumpBuffer(args[0]) {
		return fmt.Errorf("none of the buffers match %q", name)
	}
	return nil
}

func commandDoHelp(app *App, args []string) (err error) {
	t := time.Now()
	b := app.win.Buffers().Current()

	addLineCommand := func(sb *ui.StyledStringBuilder, name string, cmd *command) {
		sb.Reset()
		sb.Grow(len(name) + 1 + len(cmd.Usage))
		sb.SetStyle(vaxis.Style{
			Attribute: vaxis.AttrBold,
		})
		sb.WriteString(name)
		sb.SetStyle(vaxis.Style{})
		sb.WriteByte(' ')
		sb.WriteString(cmd.Usage)
		b.AddLine(ui.Line{
			At:   t,
			Body: sb.StyledString(),
		})
		b.AddLine(ui.Line{
			At:   t,
			Body: ui.PlainSprintf("  %s", cmd.Desc),
		})
	}

	addLineCommands := func(names []string) {
		sort.Strings(names)
		var sb ui.StyledStringBuilder
		for _, name := range names {
			addLineCommand(&sb, name, commands[name])
		}
	}

	if len(args) == 0 {
		b.AddLine(ui.Line{
			At:   t,
			Head: ui.PlainString("--"),
			Body: ui.PlainString("Available commands:"),
		})
		cmdNames := make([]string, 0, len(commands))
		for cmdName := range commands {
			cmdNames = append(cmdNames, cmdName)
		}
		addLineCommands(cmdNames)
		return nil
	}

	search := strings.ToUpper(args[0])
	b.AddLine(ui.Line{
		At:   t,
		Head: ui.PlainString("--"),
		Body: ui.PlainSprintf("Commands that match \"%s\":", search),
	})
	var cmdNames []string
	for cmdName := range commands {
		if strings.Contains(cmdName, search) {
			cmdNames = append(cmdNames, cmdName)
		}
	}
	if len(cmdNames) == 0 {
		b.AddLine(ui.Line{
			At:   t,
			Body: ui.PlainSprintf("  no command matches %q", args[0]),
		})
	} else {
		addLineCommands(cmdNames)
	}
	return nil
}

func commandDoOpen(app *App, args []string) (err error) {
	cache := app.conn.Cache
	g, ok := cache.Guild(args[0])
	if !ok {
		g, ok = cache.GuildByName(args[0])
	}
	if !ok {
		return fmt.Errorf("unknown guild %q", args[0])
	}
	if len(args) == 1 {
		app.openGuild(g, nil)
		return nil
	}
	name := strings.TrimPrefix(args[1], "#")
	ch, ok := cache.GuildChannelByName(g.ID, name)
	if !ok {
		return fmt.Errorf("unknown channel %q in %s", name, g.Name)
	}
	if app.openGuildChannel(ch, g) == nil {
		return fmt.Errorf("failed to open %s", name)
	}
	if b := app.win.Buffers().ByName(guildBufferName(g, ch)); b != nil {
		app.win.JumpBufferHandle(b.Handle())
	}
	return nil
}

func commandDoClose(app *App, args []string) (err error) {
	b := app.win.Buffers().Current()
	return app.win.Buffers().Close(b.Handle())
}

func commandDoRedraw(app *App, args []string) (err error) {
	c := app.currentChannel()
	if c == nil {
		return fmt.Errorf("this buffer is not a channel")
	}
	c.Redraw(args)
	return nil
}

func commandDoMe(app *App, args []string) (err error) {
	return noCommand(app, fmt.Sprintf("_%s_", args[0]))
}

func commandDoNP(app *App, args []string) (err error) {
	b := app.win.Buffers().Current()
	name := b.Name()
	app.loaders.Add(1)
	go func() {
		defer app.loaders.Done()
		song, err := getSong(app.ctx)
		app.postEvent(event{
			src: srcUI,
			content: &events.EventNowPlaying{
				Buffer: name,
				Song:   song,
				Err:    err,
			},
		})
	}()
	return nil
}

func (app *App) handleNowPlayingEvent(ev *events.EventNowPlaying) {
	if ev.Err != nil {
		log.Debug("failed detecting the song", "err", ev.Err)
		app.printError(fmt.Sprintf("failed detecting the song: %v", ev.Err))
		return
	}
	if ev.Song == "" {
		app.printError("no song was detected")
		return
	}
	b := app.win.Buffers().ByName(ev.Buffer)
	if b == nil {
		return
	}
	b.Input(fmt.Sprintf("_np: %s_", ev.Song))
}

func commandDoQuit(app *App, args []string) (err error) {
	app.win.Exit()
	return nil
}

// implemented from https://golang.org/src/strings/strings.go?s=8055:8085#L310
func fieldsN(s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" || n == 0 {
		return nil
	}
	if n == 1 {
		return []string{s}
	}
	var a []string
	na := 0
	i := 0
	// Skip spaces in front of the input.
	for i < len(s) && s[i] == ' ' {
		i++
	}
	fieldStart := i
	for i < len(s) {
		if s[i] != ' ' {
			i++
			continue
		}
		a = append(a, s[fieldStart:i])
		na++
		i++
		// Skip spaces in between fields.
		for i < len(s) && s[i] == ' ' {
			i++
		}
		fieldStart = i
		if n != maxArgsInfinite && na+1 >= n {
			a = append(a, s[fieldStart:])
			return a
		}
	}
	if fieldStart < len(s) {
		// Last field ends at EOF.
		a = append(a, s[fieldStart:])
	}
	return a
}

func parseCommand(s string) (command, args string, isCommand bool) {
	if len(s) == 0 || s[0] != '/' {
		return "", s, false
	}
	if len(s) > 1 && s[1] == '/' {
		// Input starts with two slashes.
		return "", s[1:], false
	}

	i := strings.IndexByte(s, ' ')
	if i < 0 {
		i = len(s)
	}

	return strings.ToUpper(s[1:i]), strings.TrimLeft(s[i:], " "), true
}

// findCommand resolves a possibly abbreviated command name.
func findCommand(name string) (string, error) {
	if strings.HasPrefix("BUFFER", name) {
		return "BUFFER", nil
	}
	var chosen string
	for key := range commands {
		if !strings.HasPrefix(key, name) {
			continue
		}
		if key == name {
			return key, nil
		}
		if chosen != "" {
			return "", fmt.Errorf("ambiguous command %q (could mean %v or %v)", name, chosen, key)
		}
		chosen = key
	}
	if chosen == "" {
		return "", fmt.Errorf("the command %q does not exist", name)
	}
	return chosen, nil
}

func (app *App) handleInput(content string) error {
	if content == "" {
		return nil
	}

	cmdName, rawArgs, isCommand := parseCommand(content)
	if !isCommand {
		return noCommand(app, rawArgs)
	}
	if cmdName == "" {
		return fmt.Errorf("lone slash at the beginning")
	}

	name, err := findCommand(cmdName)
	if err != nil {
		return err
	}
	cmd := commands[name]

	var args []string
	if rawArgs != "" && cmd.MaxArgs != 0 {
		args = fieldsN(rawArgs, cmd.MaxArgs)
	}

	if len(args) < cmd.MinArgs {
		return fmt.Errorf("usage: %s %s", name, cmd.Usage)
	}
	b := app.win.Buffers().Current()
	if (b == nil || b.Handle() == app.home) && !cmd.AllowHome {
		return fmt.Errorf("command %s cannot be executed from the home buffer", name)
	}
	return cmd.Handle(app, args)
}

func getSong(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 100*time.Second)
	defer cancel()
	info, err := libnp.GetInfo(ctx)
	if err != nil {
		return "", err
	}
	if info == nil || info.Title == "" {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", info.Title)
	if len(info.Artists) > 0 {
		fmt.Fprintf(&sb, " by **%s**", info.Artists[0])
	}
	if info.Album != "" {
		fmt.Fprintf(&sb, " from **%s**", info.Album)
	}
	if u, err := url.Parse(info.URL); err == nil {
		switch u.Scheme {
		case "http", "https":
			fmt.Fprintf(&sb, " - %s", info.URL)
		}
	}
	return sb.String(), nil
}
