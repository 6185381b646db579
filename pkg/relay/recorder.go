package relay

import "sync"

// Entry is one call captured by a Recorder.
type Entry struct {
	Kind    string // "text", "header", "progress" or "auth".
	Text    string
	Current int
	Total   int
	URL     string
	Code    string
}

// Recorder is a Sink that captures everything it receives. It is intended
// for tests and is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *Recorder) Text(text string)   { r.add(Entry{Kind: "text", Text: text}) }
func (r *Recorder) Header(text string) { r.add(Entry{Kind: "header", Text: text}) }

func (r *Recorder) Progress(current, total int, label string) {
	r.add(Entry{Kind: "progress", Text: label, Current: current, Total: total})
}

func (r *Recorder) AuthPrompt(url, code string) {
	r.add(Entry{Kind: "auth", URL: url, Code: code})
}

// Entries returns a copy of everything captured so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Texts returns the captured text lines in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Kind == "text" {
			out = append(out, e.Text)
		}
	}
	return out
}
