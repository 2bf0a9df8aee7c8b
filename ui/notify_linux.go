//go:build linux

package ui

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
)

var (
	dbusLock      sync.Mutex
	dbusConn      *dbus.Conn
	dbusSignals   chan *dbus.Signal
	notifications = make(map[uint32]NotifyEvent)
)

func notifyDBus(title, content string) (uint32, bool) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return 0, false
	}
	var id uint32
	obj := conn.Object(notificationsIface, notificationsPath)
	err = obj.Call(notificationsIface+".Notify", 0, "kouhai", uint32(0), "kouhai", title, content, []string{
		"default", "Open",
	}, map[string]dbus.Variant{
		"category":      dbus.MakeVariant("im.received"),
		"desktop-entry": dbus.MakeVariant("kouhai"),
		"urgency":       dbus.MakeVariant(uint8(1)), // normal
	}, int32(-1)).Store(&id)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (ui *UI) notify(target NotifyEvent, title, content string) {
	if ui.config.LocalIntegrations {
		if id, ok := notifyDBus(title, content); ok {
			dbusLock.Lock()
			notifications[id] = target
			dbusLock.Unlock()
			return
		}
	}
	ui.vx.Notify(title, content)
}

// DBusStart listens for clicks on notifications, sending a NotifyEvent to
// ui.Events for each.
func (ui *UI) DBusStart() {
	conn, err := dbus.SessionBus()
	if err != nil {
		return
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notificationsPath),
		dbus.WithMatchInterface(notificationsIface),
	); err != nil {
		return
	}
	c := make(chan *dbus.Signal, 64)
	conn.Signal(c)
	dbusLock.Lock()
	dbusConn = conn
	dbusSignals = c
	dbusLock.Unlock()
	go func() {
		for v := range c {
			if len(v.Body) == 0 {
				continue
			}
			id, ok := v.Body[0].(uint32)
			if !ok {
				continue
			}
			dbusLock.Lock()
			target, ok := notifications[id]
			delete(notifications, id)
			dbusLock.Unlock()
			if ok && v.Name == notificationsIface+".ActionInvoked" && !ui.ShouldExit() {
				ui.Events <- &target
			}
		}
	}()
}

func (ui *UI) DBusStop() {
	dbusLock.Lock()
	conn, c := dbusConn, dbusSignals
	dbusConn, dbusSignals = nil, nil
	dbusLock.Unlock()
	if conn != nil {
		conn.RemoveSignal(c)
		close(c)
	}
}
