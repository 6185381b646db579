package relay

import "fmt"

// Level is the severity of an output message.
type Level int

const (
	LevelDebug Level = iota
	LevelExtra
	LevelInfo
	LevelImportant
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug:     "debug",
	LevelExtra:     "extra",
	LevelInfo:      "info",
	LevelImportant: "important",
	LevelError:     "error",
}

// String returns the lower-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// AtLeast reports whether l is as severe as min or more.
func (l Level) AtLeast(min Level) bool { return l >= min }

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("relay: unknown level %q", s)
}

// Kind identifies the shape of a Message.
type Kind string

const (
	KindText     Kind = "text"
	KindHeader   Kind = "header"
	KindProgress Kind = "progress"
)

// Message is one structured unit of output. Progress messages carry their
// label in Text.
type Message struct {
	Level   Level
	Kind    Kind
	Text    string
	Current int
	Total   int
}

// Text builds a plain text message.
func Text(level Level, text string) Message {
	return Message{Level: level, Kind: KindText, Text: text}
}

// Header builds a section header message.
func Header(level Level, text string) Message {
	return Message{Level: level, Kind: KindHeader, Text: text}
}

// Progress builds a labeled progress message.
func Progress(level Level, label string, current, total int) Message {
	return Message{Level: level, Kind: KindProgress, Text: label, Current: current, Total: total}
}
