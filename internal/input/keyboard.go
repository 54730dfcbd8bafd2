package input

// Win32 keyboard input constants. Kept platform neutral so the flag mapping
// can be checked anywhere.
const (
	INPUT_KEYBOARD     = 1
	KEYEVENTF_KEYUP    = 0x0002
	KEYEVENTF_SCANCODE = 0x0008
)

type KEYBDINPUT struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// INPUT mirrors the Win32 INPUT union for the keyboard case. The padding
// keeps the struct as large as the mouse variant so cbSize matches.
type INPUT struct {
	Type    uint32
	Ki      KEYBDINPUT
	Padding uint64
}

// KeyboardInput builds the INPUT record for a scan-code event. The virtual
// key is left zero so the OS uses the scan code only.
func KeyboardInput(scanCode uint16, release bool) INPUT {
	return INPUT{
		Type: INPUT_KEYBOARD,
		Ki: KEYBDINPUT{
			WScan:   scanCode,
			DwFlags: KeyFlags(release),
		},
	}
}

// KeyFlags returns the KEYBDINPUT flags for a scan-code event.
func KeyFlags(release bool) uint32 {
	flags := uint32(KEYEVENTF_SCANCODE)
	if release {
		flags |= KEYEVENTF_KEYUP
	}
	return flags
}
