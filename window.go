package kouhai

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"git.sr.ht/~delthas/kouhai/ui"
)

const welcomeMessage = "Welcome to kouhai! Enter /help for a list of commands."

func (app *App) initWindow() {
	h, err := app.win.Buffers().Create("(home)", nil, nil)
	if err != nil {
		// The buffer list is empty at this point.
		panic(err)
	}
	app.home = h
	b, _ := app.win.Buffers().Buffer(h)
	b.SetShortName("(home)")
	b.SetFullName("kouhai")
	b.SetLocalVar("type", "server")
	b.AddLine(ui.Line{
		Head: ui.PlainString("--"),
		Body: ui.PlainString(welcomeMessage),
		At:   time.Now(),
	})
}

type statusLine struct {
	line ui.Line
}

// queueStatusLine posts a status line from any goroutine.
func (app *App) queueStatusLine(line ui.Line) {
	if line.At.IsZero() {
		line.At = time.Now()
	}
	app.postEvent(event{
		src: srcUI,
		content: statusLine{
			line: line,
		},
	})
}

// addStatusLine prints a line on the home buffer, and on the current buffer
// if it is not the home buffer.
func (app *App) addStatusLine(line ui.Line) {
	bs := app.win.Buffers()
	if cur := bs.Current(); cur != nil && cur.Handle() != app.home {
		current := line
		current.Notify = ui.NotifyNone
		cur.AddLine(current)
	}
	if home, err := bs.Buffer(app.home); err == nil {
		home.AddLine(line)
	}
}

func (app *App) printError(text string) {
	log.Debug("command error", "err", text)
	app.addStatusLine(ui.Line{
		At:   time.Now(),
		Head: ui.ColorString("!!", ui.ColorRed),
		Body: ui.PlainString(text),
	})
}

func (app *App) setStatus() {
	c := app.currentChannel()
	if c == nil {
		app.win.SetStatus(fmt.Sprintf("%d open channels", len(app.channels)))
		return
	}
	b := app.win.Buffers().Current()
	if nick := b.LocalVar("nick"); nick != "" {
		app.win.SetStatus("as " + nick)
		return
	}
	app.win.SetStatus("")
}
