// Package termsource feeds key events from a terminal into the engine.
//
// A terminal only reports what its input encoding can express: no key
// releases, no lock keys, and Super arrives as Meta on the few terminals
// that report it at all. That is enough to exercise rule files by hand.
package termsource

import (
	"github.com/gdamore/tcell/v2"

	"github.com/RedBearAK/Toshy/internal/input/key"
)

// Convert turns a tcell key event into a key.Event. ok is false for keys
// with no equivalent.
func Convert(ev *tcell.EventKey) (key.Event, bool) {
	mods := convertMod(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		return key.NewRuneEvent(ev.Rune(), mods).At(ev.When()), true

	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		r := 'a' + rune(k-tcell.KeyCtrlA)
		return key.NewRuneEvent(r, mods.With(key.ModCtrl)).At(ev.When()), true

	case k == tcell.KeyCtrlSpace:
		return key.NewSpecialEvent(key.KeySpace, mods.With(key.ModCtrl)).At(ev.When()), true

	case k == tcell.KeyBacktab:
		return key.NewSpecialEvent(key.KeyTab, mods.With(key.ModShift)).At(ev.When()), true

	case k >= tcell.KeyF1 && k <= tcell.KeyF24:
		return key.NewSpecialEvent(key.KeyF1+key.Key(k-tcell.KeyF1), mods).At(ev.When()), true
	}

	if kk, ok := specialKeys[k]; ok {
		return key.NewSpecialEvent(kk, mods).At(ev.When()), true
	}
	return key.Event{}, false
}

var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyPause:      key.KeyPause,
	tcell.KeyPrint:      key.KeyPrintScreen,
	tcell.KeyMenu:       key.KeyMenu,
	tcell.KeyCapsLock:   key.KeyCapsLock,
	tcell.KeyScrollLock: key.KeyScrollLock,
	tcell.KeyNumLock:    key.KeyNumLock,
}

func convertMod(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModSuper)
	}
	return mods
}
