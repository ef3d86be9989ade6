package input

import "fmt"

// Context is the snapshot of window, device and lock-key state taken when a
// key event arrives. It is a value type: consumers receive copies and the
// With* helpers return modified copies, so a captured Context never changes.
type Context struct {
	// WindowClass is the WM_CLASS (X11) or app_id (Wayland) of the focused window.
	WindowClass string

	// WindowTitle is the title of the focused window.
	WindowTitle string

	// DeviceName is the name of the input device that produced the event.
	DeviceName string

	// KeyboardType is the classified type of the device (Apple, IBM, ...).
	// Empty until the engine fills it in.
	KeyboardType string

	// NumLockOn reports the NumLock LED state.
	NumLockOn bool

	// CapsLockOn reports the CapsLock LED state.
	CapsLockOn bool

	// ScreenHasFocus is false while input is being forwarded to another
	// machine by a shared-keyboard tool.
	ScreenHasFocus bool
}

// NewContext creates a focused context for the given window.
func NewContext(class, title string) Context {
	return Context{
		WindowClass:    class,
		WindowTitle:    title,
		ScreenHasFocus: true,
	}
}

// WithWindow returns a copy with the window class and title replaced.
func (c Context) WithWindow(class, title string) Context {
	c.WindowClass = class
	c.WindowTitle = title
	return c
}

// WithDevice returns a copy with the device name replaced.
func (c Context) WithDevice(name string) Context {
	c.DeviceName = name
	return c
}

// WithKeyboardType returns a copy with the keyboard type replaced.
func (c Context) WithKeyboardType(kbtype string) Context {
	c.KeyboardType = kbtype
	return c
}

// WithLocks returns a copy with the lock-key states replaced.
func (c Context) WithLocks(numLock, capsLock bool) Context {
	c.NumLockOn = numLock
	c.CapsLockOn = capsLock
	return c
}

// WithFocus returns a copy with the screen focus flag replaced.
func (c Context) WithFocus(focused bool) Context {
	c.ScreenHasFocus = focused
	return c
}

// String returns a compact description for logs.
func (c Context) String() string {
	return fmt.Sprintf("class=%q title=%q device=%q kbtype=%q numlock=%t capslock=%t focus=%t",
		c.WindowClass, c.WindowTitle, c.DeviceName, c.KeyboardType,
		c.NumLockOn, c.CapsLockOn, c.ScreenHasFocus)
}
