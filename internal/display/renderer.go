package display

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/AIwolfie/waybackwolf/internal/model"
	"github.com/AIwolfie/waybackwolf/internal/pipeline"
)

// Controller receives the quit action. Satisfied by the pipeline
// Orchestrator. Pause and skip are view-local: workers keep running
// while the display holds still.
type Controller interface {
	Quit()
}

// Renderer turns the pipeline's status stream into terminal output.
// It is the only writer to its output; everything else logs to stderr.
type Renderer struct {
	out io.Writer

	// controller receives the quit action. Nil disables controls.
	controller Controller

	// keys feeds raw keypresses. Nil disables controls.
	keys io.Reader

	// interactive enables the in-place ANSI progress view.
	interactive bool

	// maxLines bounds how many in-flight URLs the progress view shows.
	maxLines int

	// renderedLines is how many lines the previous frame drew.
	renderedLines int

	// inflight tracks active tasks by URL.
	inflight map[string]pipeline.Phase

	completed int
	total     int
	paused    bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithInteractive enables the in-place progress view.
func WithInteractive(enabled bool) Option {
	return func(r *Renderer) {
		r.interactive = enabled
	}
}

// WithControls wires keyboard controls: keypresses read from keys are
// forwarded to the controller.
func WithControls(keys io.Reader, controller Controller) Option {
	return func(r *Renderer) {
		r.keys = keys
		r.controller = controller
	}
}

// WithMaxLines bounds the in-flight lines of the progress view.
func WithMaxLines(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxLines = n
		}
	}
}

// New creates a Renderer writing to out.
func New(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		out:      out,
		maxLines: 10,
		inflight: make(map[string]pipeline.Phase),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run consumes the status stream until it closes. It must be the only
// goroutine writing to the output for the duration of the run.
func (r *Renderer) Run(ctx context.Context, updates <-chan pipeline.Update, total int) {
	r.total = total

	keyEvents := r.listenKeys(ctx)

	for {
		// Paused means the view holds still: stop draining the stream
		// and let the channel buffer hold events. Workers keep running.
		stream := updates
		if r.paused {
			stream = nil
		}

		select {
		case key, ok := <-keyEvents:
			if !ok {
				keyEvents = nil
				continue
			}
			if !r.handleKey(key, updates) {
				r.finish()
				return
			}
			if r.interactive {
				r.redraw()
			}
		case u, ok := <-stream:
			if !ok {
				r.finish()
				return
			}
			r.apply(u)
			if r.interactive {
				r.redraw()
			} else if u.Phase == pipeline.PhaseDone {
				r.printCompletion(u.Result)
			}
		case <-ctx.Done():
			// The pipeline closes the stream on its way out; drain it
			// so late events don't block the workers.
			for range updates {
			}
			r.finish()
			return
		}
	}
}

// listenKeys reads single keypresses into a channel. No key source
// means a nil channel, which never fires.
func (r *Renderer) listenKeys(ctx context.Context) <-chan byte {
	if r.keys == nil || r.controller == nil {
		return nil
	}

	events := make(chan byte)
	go func() {
		defer close(events)
		buf := make([]byte, 1)
		for {
			n, err := r.keys.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			select {
			case events <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// handleKey maps a keypress to a control action. It reports false when
// the stream closed while skipping, ending the run.
func (r *Renderer) handleKey(key byte, updates <-chan pipeline.Update) bool {
	switch key {
	case 'p', 'P':
		r.paused = true
	case 's', 'S':
		// Skip: fold everything buffered into the view state without
		// rendering each event, then continue at the newest.
		r.paused = false
		return r.drainBuffered(updates)
	case 'q', 'Q', 3: // 3 is Ctrl-C in raw mode
		r.controller.Quit()
	}
	return true
}

// drainBuffered consumes all currently buffered updates. State is
// folded in so counters stay accurate; the skipped events are never
// rendered. Reports false when the stream closed.
func (r *Renderer) drainBuffered(updates <-chan pipeline.Update) bool {
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return false
			}
			r.apply(u)
		default:
			return true
		}
	}
}

// apply folds one status event into the view state.
func (r *Renderer) apply(u pipeline.Update) {
	if u.Phase == pipeline.PhaseDone {
		delete(r.inflight, u.URL)
		r.completed++
		return
	}
	r.inflight[u.URL] = u.Phase
}

// redraw repaints the progress view in place.
func (r *Renderer) redraw() {
	var sb strings.Builder

	if r.renderedLines > 0 {
		fmt.Fprintf(&sb, "\x1b[%dA\x1b[0J", r.renderedLines)
	}

	state := "running"
	if r.paused {
		state = "PAUSED"
	}
	fmt.Fprintf(&sb, "[%d/%d] %s  (p: pause, s: skip, q: quit)\n", r.completed, r.total, state)
	lines := 1

	urls := make([]string, 0, len(r.inflight))
	for url := range r.inflight {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	if len(urls) > r.maxLines {
		urls = urls[:r.maxLines]
	}
	for _, url := range urls {
		fmt.Fprintf(&sb, "  %-14s %s\n", r.inflight[url], url)
		lines++
	}

	r.renderedLines = lines
	fmt.Fprint(r.out, sb.String())
}

// printCompletion writes one line per finished URL in the
// non-interactive fallback.
func (r *Renderer) printCompletion(res *model.Result) {
	if res == nil {
		return
	}
	switch res.Check.Status {
	case model.StatusAccessible:
		fmt.Fprintf(r.out, "%s %s [%d]\n", color.GreenString("ok  "), res.Task.URL, res.Check.HTTPCode)
	case model.StatusInaccessible:
		note := ""
		if res.Snapshot != nil && res.Snapshot.Found {
			note = " snapshot " + res.Snapshot.SnapshotURL
		}
		fmt.Fprintf(r.out, "%s %s [%d]%s\n", color.RedString("dead"), res.Task.URL, res.Check.HTTPCode, note)
	default:
		fmt.Fprintf(r.out, "%s %s (%s)\n", color.YellowString("err "), res.Task.URL, res.Check.Err)
	}
}

// finish clears the progress view and prints the closing line.
func (r *Renderer) finish() {
	if r.interactive && r.renderedLines > 0 {
		fmt.Fprintf(r.out, "\x1b[%dA\x1b[0J", r.renderedLines)
		r.renderedLines = 0
	}
	fmt.Fprintf(r.out, "processed %d/%d urls\n", r.completed, r.total)
}
