package launcher

// busSink is the relay sink that forwards a session's output onto the bus.
type busSink struct {
	events    *EventBus
	sessionID string
}

func (b busSink) publish(kind EventKind, data any) {
	b.events.Publish(Event{Kind: kind, SessionID: b.sessionID, Data: data})
}

func (b busSink) Text(text string)   { b.publish(EventOutputMessage, TextData{Text: text}) }
func (b busSink) Header(text string) { b.publish(EventOutputHeader, TextData{Text: text}) }

func (b busSink) Progress(current, total int, label string) {
	b.publish(EventOutputProgress, ProgressData{Label: label, Current: current, Total: total})
}

func (b busSink) AuthPrompt(url, code string) {
	b.publish(EventAuthPrompt, AuthPromptData{URL: url, Code: code})
}
