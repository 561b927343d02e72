// Package x11 observes the focused window on X11 sessions via the X protocol.
package x11

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/moview/moview/pkg/window"
)

// Observer implements window.Observer for X11
type Observer struct {
	client *client
}

// NewObserver creates a new X11 observer. The X connection is established
// lazily on the first Poll.
func NewObserver() *Observer {
	return &Observer{}
}

// IsAvailable checks if an X display is reachable
func (o *Observer) IsAvailable() bool {
	return os.Getenv("DISPLAY") != ""
}

// Platform returns "x11"
func (o *Observer) Platform() string {
	return "x11"
}

// Poll returns information about the currently focused window
func (o *Observer) Poll() (*window.Observation, error) {
	if o.client == nil {
		c, err := newClient()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to X server: %w", err)
		}
		o.client = c
	}

	win, err := o.client.activeWindow()
	if err != nil {
		// The connection may have died; drop it so the next poll reconnects.
		o.client.close()
		o.client = nil
		return nil, err
	}
	if win == 0 {
		return nil, nil
	}

	instance, class := o.client.windowClass(win)
	name := instance
	if name == "" {
		name = class
	}

	obs := &window.Observation{
		Name:  name,
		Title: o.client.windowName(win),
	}

	if pid := o.client.windowPID(win); pid != 0 {
		if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
			obs.ProcessPath = exe
		}
	}

	return obs, nil
}

// Close tears down the X connection
func (o *Observer) Close() error {
	if o.client != nil {
		o.client.close()
		o.client = nil
	}
	return nil
}

type client struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

func newClient() (*client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	c := &client{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom),
	}

	atomNames := []string{
		"_NET_ACTIVE_WINDOW",
		"_NET_WM_NAME",
		"_NET_WM_PID",
		"WM_NAME",
		"WM_CLASS",
		"UTF8_STRING",
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, err
		}
		c.atoms[name] = reply.Atom
	}

	return c, nil
}

func (c *client) close() {
	c.conn.Close()
}

func (c *client) property(win xproto.Window, atom xproto.Atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *client) activeWindow() (xproto.Window, error) {
	data, err := c.property(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to read _NET_ACTIVE_WINDOW: %w", err)
	}
	if len(data) < 4 {
		return 0, nil
	}
	win := xproto.Window(binary.LittleEndian.Uint32(data))

	if win != 0 && !c.hasValidName(win) {
		// Fall back to the input focus, walking up to the top-level window.
		reply, err := xproto.GetInputFocus(c.conn).Reply()
		if err != nil || reply.Focus == 0 || reply.Focus == c.root {
			return win, nil
		}
		top := c.topLevelParent(reply.Focus)
		if top != 0 && c.hasValidName(top) {
			return top, nil
		}
	}

	return win, nil
}

func (c *client) topLevelParent(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(c.conn, win).Reply()
		if err != nil || reply.Parent == c.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (c *client) hasValidName(win xproto.Window) bool {
	data, _ := c.property(win, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 1)
	if len(data) > 0 {
		return true
	}
	data, _ = c.property(win, c.atoms["WM_NAME"], xproto.AtomString, 1)
	return len(data) > 0
}

func (c *client) windowName(win xproto.Window) string {
	data, err := c.property(win, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = c.property(win, c.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (c *client) windowClass(win xproto.Window) (instance, class string) {
	data, err := c.property(win, c.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return "", ""
	}

	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func (c *client) windowPID(win xproto.Window) uint32 {
	data, err := c.property(win, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}
