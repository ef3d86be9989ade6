package action

import (
	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
)

// ContextReport types out the event context, one property per line, followed
// by a Unicode and shifted-symbol test line. Only safe in windows that accept
// free text.
func ContextReport() Computation {
	enter := Combo{Event: key.NewSpecialEvent(key.KeyEnter, key.ModNone)}
	return Compute("context_report", func(ctx input.Context) (Action, error) {
		return Sequence{
			enter,
			Text{Text: "Class: '" + ctx.WindowClass + "'"}, enter,
			Text{Text: "Title: '" + ctx.WindowTitle + "'"}, enter,
			Text{Text: "Keybd: '" + ctx.DeviceName + "'"}, enter,
			Text{Text: "Keyboard type: '" + ctx.KeyboardType + "'"}, enter,
			Text{Text: "Next test should come out on ONE LINE!"}, enter,
			Text{Text: "Unicode and Shift Test: 🌹—€—‡—ÿ 12345 !@#$% |\\ !!!!!!"}, enter,
		}, nil
	})
}
