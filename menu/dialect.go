package menu

import "strings"

const (
	// Trigger introduces the menu spec of an input.conf line.
	Trigger = "#menu:"
	// AltTrigger is the short trigger accepted by [Dialect.AltTrigger].
	AltTrigger = "#!"
	// DynamicMarker starts the keyword annotation of a dynamic submenu.
	DynamicMarker = "#@"
	// NoopCommand is the host command that does nothing. Items bound to it
	// are rendered disabled.
	NoopCommand = "ignore"
	// Placeholder is the key that means "no key binding".
	Placeholder = "_"
)

// Dialect selects the variant of the menu mini-language.
type Dialect struct {
	// AltTrigger accepts "#!" in addition to "#menu:".
	AltTrigger bool `yaml:"alt-trigger"`
	// MessageSyntax accepts lines starting with "#" as key-less commands.
	MessageSyntax bool `yaml:"message-syntax"`
	// DashSeparator treats names starting with "---" as separators.
	DashSeparator bool `yaml:"dash-separator"`
	// Merge reuses an existing sibling submenu with the same title.
	Merge bool `yaml:"merge"`
	// SubOff appends an "Off" entry to subtitle track lists.
	SubOff bool `yaml:"sub-off"`
}

var (
	// DefaultDialect is the plain "#menu:" language.
	DefaultDialect = Dialect{Merge: true, SubOff: true}
	// UOSCDialect additionally understands uosc-style menu comments.
	UOSCDialect = Dialect{
		AltTrigger:    true,
		MessageSyntax: true,
		DashSeparator: true,
		Merge:         true,
		SubOff:        true,
	}
)

// isSeparator reports whether a trimmed menu name denotes a separator.
func (d Dialect) isSeparator(name string) bool {
	return name == "-" || (d.DashSeparator && strings.HasPrefix(name, "---"))
}

// split cuts a command at the menu trigger into the real command and the
// menu spec, both trimmed. ok is false when there is no trigger or the spec
// is empty.
func (d Dialect) split(cmd string) (left, right string, ok bool) {
	left, right, found := strings.Cut(cmd, Trigger)
	if !found && d.AltTrigger {
		left, right, found = strings.Cut(cmd, AltTrigger)
	}

	if !found {
		return "", "", false
	}

	left, right = strings.TrimSpace(left), strings.TrimSpace(right)

	return left, right, right != ""
}

// bits packs the flags for cache keys.
func (d Dialect) bits() uint64 {
	var b uint64

	for i, f := range []bool{d.AltTrigger, d.MessageSyntax, d.DashSeparator, d.Merge, d.SubOff} {
		if f {
			b |= 1 << i
		}
	}

	return b
}
