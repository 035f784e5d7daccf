package cli

import (
	"github.com/alecthomas/kong"

	"github.com/tsl0922/mpv-menu-plugin/menu"
)

// dialectConfig selects the menu mini-language. --uosc turns on every
// uosc feature; the feature flags enable them one at a time.
type dialectConfig struct {
	UOSC          bool `default:"false" help:"Accept uosc menu syntax (#! triggers, --- separators, # lines)." name:"uosc"           negatable:""`
	Merge         bool `default:"true"  help:"Merge sibling submenus with the same title."                     name:"merge"          negatable:""`
	SubOff        bool `default:"true"  help:"Append an Off entry to subtitle track lists."                    name:"sub-off"        negatable:""`
	AltTrigger    bool `default:"false" help:"Accept #! as menu trigger."                                      name:"alt-trigger"    negatable:""`
	MessageSyntax bool `default:"false" help:"Accept lines starting with # as key-less commands."              name:"message-syntax" negatable:""`
	DashSeparator bool `default:"false" help:"Treat names starting with --- as separators."                    name:"dash-separator" negatable:""`
}

func (*dialectConfig) group() kong.Group {
	var group kong.Group

	group.Key = "dialect"
	group.Title = "Menu syntax"

	return group
}

func (f *dialectConfig) dialect() menu.Dialect {
	return menu.Dialect{
		AltTrigger:    f.AltTrigger || f.UOSC,
		MessageSyntax: f.MessageSyntax || f.UOSC,
		DashSeparator: f.DashSeparator || f.UOSC,
		Merge:         f.Merge,
		SubOff:        f.SubOff,
	}
}
