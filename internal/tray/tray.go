// Package tray shows the bench's system tray icon using getlantern/systray.
package tray

import (
	"bytes"
	"encoding/binary"

	"github.com/getlantern/systray"
	"go.viam.com/utils"
)

type entry struct {
	title     string
	onClick   func()
	onToggle  func(checked bool)
	checkable bool
	checked   bool
	item      *systray.MenuItem
}

// Tray is the bench's icon: a disabled status line followed by the menu
// entries in the order they were added. Entries must be added before Run.
type Tray struct {
	title   string
	tooltip string
	entries []*entry // nil is a separator
	status  *systray.MenuItem
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}
}

// New creates a tray. onExit runs after the tray loop ends.
func New(title, tooltip string, onExit func()) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		onExit:  onExit,
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Ready is closed once the icon is shown.
func (t *Tray) Ready() <-chan struct{} {
	return t.readyCh
}

// AddMenuItem adds an entry calling onClick and returns its position.
func (t *Tray) AddMenuItem(title string, onClick func()) int {
	t.entries = append(t.entries, &entry{title: title, onClick: onClick})
	return len(t.entries) - 1
}

// AddCheckItem adds an entry that flips its check mark on every click and
// reports the new state to onToggle.
func (t *Tray) AddCheckItem(title string, checked bool, onToggle func(checked bool)) int {
	t.entries = append(t.entries, &entry{title: title, onToggle: onToggle, checkable: true, checked: checked})
	return len(t.entries) - 1
}

func (t *Tray) AddSeparator() {
	t.entries = append(t.entries, nil)
}

// SetStatus shows text in the status line and the tooltip. It has no
// effect before the tray is ready.
func (t *Tray) SetStatus(text string) {
	select {
	case <-t.readyCh:
	default:
		return
	}
	systray.SetTooltip(t.title + ": " + text)
	t.status.SetTitle(text)
}

// Run shows the icon and blocks until Stop.
func (t *Tray) Run() {
	systray.Run(t.show, t.exit)
}

func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) show() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(icon(0x2E, 0x7D, 0x32))

	t.status = systray.AddMenuItem(t.title, "")
	t.status.Disable()
	systray.AddSeparator()

	for _, e := range t.entries {
		if e == nil {
			systray.AddSeparator()
			continue
		}
		e.item = systray.AddMenuItem(e.title, "")
		if e.checked {
			e.item.Check()
		}
		utils.PanicCapturingGo(func() { t.watch(e) })
	}
	close(t.readyCh)
}

func (t *Tray) watch(e *entry) {
	for {
		select {
		case <-e.item.ClickedCh:
			e.click()
		case <-t.quitCh:
			return
		}
	}
}

// click runs the entry's action; check items toggle first.
func (e *entry) click() {
	if !e.checkable {
		if e.onClick != nil {
			e.onClick()
		}
		return
	}
	e.checked = !e.checked
	if e.item != nil {
		if e.checked {
			e.item.Check()
		} else {
			e.item.Uncheck()
		}
	}
	if e.onToggle != nil {
		e.onToggle(e.checked)
	}
}

func (t *Tray) exit() {
	close(t.quitCh)
	if t.onExit != nil {
		t.onExit()
	}
}

const iconSize = 16

// icon builds a 16x16 32-bit ICO: a rounded square in the given colour.
func icon(r, g, b byte) []byte {
	const (
		dirLen  = 6 + 16
		dibLen  = 40
		xorLen  = iconSize * iconSize * 4
		maskLen = iconSize * 4 // 1bpp rows padded to 32 bits
	)
	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR and one ICONDIRENTRY
	binary.Write(&buf, le, [3]uint16{0, 1, 1})
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	binary.Write(&buf, le, [2]uint16{1, 32})
	binary.Write(&buf, le, [2]uint32{dibLen + xorLen + maskLen, dirLen})

	// BITMAPINFOHEADER; height covers the colour and mask planes
	binary.Write(&buf, le, struct {
		Size, Width, Height uint32
		Planes, BitCount    uint16
		Compression, Image  uint32
		Reserved            [4]uint32
	}{Size: dibLen, Width: iconSize, Height: 2 * iconSize, Planes: 1, BitCount: 32, Image: xorLen})

	// BGRA rows, bottom up
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			if corner(x, y) {
				buf.Write([]byte{0, 0, 0, 0})
			} else {
				buf.Write([]byte{b, g, r, 0xFF})
			}
		}
	}
	// alpha carries transparency, so the AND mask stays clear
	buf.Write(make([]byte, maskLen))
	return buf.Bytes()
}

func corner(x, y int) bool {
	edge := func(v int) int {
		if v > iconSize/2 {
			return iconSize - 1 - v
		}
		return v
	}
	return edge(x)+edge(y) < 2
}
