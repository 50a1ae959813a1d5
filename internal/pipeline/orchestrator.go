package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AIwolfie/waybackwolf/internal/cache"
	"github.com/AIwolfie/waybackwolf/internal/extract"
	"github.com/AIwolfie/waybackwolf/internal/model"
)

// ErrShutdownTimeout reports that workers did not wind down within the
// grace period after cancellation.
var ErrShutdownTimeout = errors.New("shutdown grace period exceeded")

// Phase tracks where a task currently is.
type Phase int

const (
	// PhasePending means the task is queued.
	PhasePending Phase = iota

	// PhaseChecking means the liveness probe is running.
	PhaseChecking

	// PhaseArchiveLookup means the Wayback lookup is running.
	PhaseArchiveLookup

	// PhaseAnalyzing means AI analysis is running.
	PhaseAnalyzing

	// PhaseDone means the task completed and its result is collected.
	PhaseDone
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseChecking:
		return "checking"
	case PhaseArchiveLookup:
		return "archive lookup"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Update is one status event for the display.
type Update struct {
	// URL is the task's URL.
	URL string

	// Phase is the task's new phase.
	Phase Phase

	// Result is set only for PhaseDone.
	Result *model.Result
}

// Checker probes one URL for liveness.
type Checker interface {
	Check(ctx context.Context, task model.Task) model.CheckResult
}

// Resolver looks up one dead URL in the archive.
type Resolver interface {
	Resolve(ctx context.Context, task model.Task) (model.SnapshotResult, error)
}

// Analyzer asks an AI backend for a verdict on extracted content.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL, content string) (*model.AnalysisVerdict, error)
}

// ContentSource serves previously fetched bodies. Satisfied by the
// cache Store.
type ContentSource interface {
	Get(ctx context.Context, rawURL string) (*cache.Entry, bool)
}

// pendingArchive carries a dead URL from the check pool to the archive
// pool along with its liveness outcome.
type pendingArchive struct {
	task  model.Task
	check model.CheckResult
}

// Orchestrator runs an audit end to end.
type Orchestrator struct {
	checker  Checker
	resolver Resolver

	// analyzer and contents are nil when analysis is disabled.
	analyzer Analyzer
	contents ContentSource

	// analysisExts holds the lowercased extensions eligible for analysis.
	analysisExts map[string]struct{}

	urlWorkers     int
	archiveWorkers int
	shutdownGrace  time.Duration

	// extractText converts cached bodies to text. Overridable in tests.
	extractText func(rawURL string, body []byte, contentType string) (string, error)

	// analysisMu serializes model calls to stay under provider rate
	// limits.
	analysisMu sync.Mutex

	// updatesMu guards the closed flag: workers stuck past the grace
	// deadline must not publish into a closed channel.
	updatesMu     sync.Mutex
	updatesClosed bool
	updates       chan Update

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAnalysis enables AI analysis for the given extensions, reading
// content from the given source.
func WithAnalysis(analyzer Analyzer, contents ContentSource, extensions []string) Option {
	return func(o *Orchestrator) {
		o.analyzer = analyzer
		o.contents = contents
		o.analysisExts = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			o.analysisExts[ext] = struct{}{}
		}
	}
}

// WithWorkers sets both pool sizes. Non-positive values keep defaults.
func WithWorkers(urlWorkers, archiveWorkers int) Option {
	return func(o *Orchestrator) {
		if urlWorkers > 0 {
			o.urlWorkers = urlWorkers
		}
		if archiveWorkers > 0 {
			o.archiveWorkers = archiveWorkers
		}
	}
}

// WithShutdownGrace sets how long Run waits for workers after
// cancellation before giving up.
func WithShutdownGrace(grace time.Duration) Option {
	return func(o *Orchestrator) {
		o.shutdownGrace = grace
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(checker Checker, resolver Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checker:        checker,
		resolver:       resolver,
		urlWorkers:     10,
		archiveWorkers: 5,
		shutdownGrace:  15 * time.Second,
		extractText:    extract.Text,
		updates:        make(chan Update, 256),
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Updates returns the status stream. It is closed when Run returns.
// Events are dropped rather than blocking the pipeline when the
// consumer falls behind.
func (o *Orchestrator) Updates() <-chan Update {
	return o.updates
}

// Quit cancels the run. Completed results are kept; the report is
// marked interrupted.
func (o *Orchestrator) Quit() {
	o.cancelMu.Lock()
	defer o.cancelMu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Run audits all tasks and returns the aggregated report. The report
// covers completed tasks only when the run is interrupted; Run then
// still returns it with Interrupted set, not an error.
func (o *Orchestrator) Run(ctx context.Context, tasks []model.Task) (*model.RunReport, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.cancelMu.Lock()
	o.cancel = cancel
	o.cancelMu.Unlock()

	o.logger.Info("starting audit",
		"tasks", len(tasks),
		"url_workers", o.urlWorkers,
		"archive_workers", o.archiveWorkers,
	)

	report := model.NewRunReport()
	results := make(chan *model.Result, len(tasks))
	archiveQueue := make(chan pendingArchive, len(tasks))

	// Collector: the single aggregation point. RunReport is not
	// synchronized; nothing else may touch it until Run returns.
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			report.Add(res)
			o.publish(Update{URL: res.Task.URL, Phase: PhaseDone, Result: res})
		}
	}()

	archiveGroup := new(errgroup.Group)
	for i := 0; i < o.archiveWorkers; i++ {
		archiveGroup.Go(func() error {
			for item := range archiveQueue {
				o.resolveTask(runCtx, item, results)
			}
			return nil
		})
	}

	checkGroup := new(errgroup.Group)
	checkGroup.SetLimit(o.urlWorkers)
	for _, task := range tasks {
		task := task
		o.publish(Update{URL: task.URL, Phase: PhasePending})
		checkGroup.Go(func() error {
			o.checkTask(runCtx, task, archiveQueue, results)
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = checkGroup.Wait() //nolint:errcheck // workers never return errors
		close(archiveQueue)
		_ = archiveGroup.Wait() //nolint:errcheck
		close(results)
		<-collectorDone
	}()

	select {
	case <-finished:
	case <-runCtx.Done():
		// Workers observe cancellation at their next blocking point;
		// give them the grace period to drain.
		select {
		case <-finished:
		case <-time.After(o.shutdownGrace):
			// Workers are stuck. Close the stream anyway so the display
			// unblocks; stragglers see the closed flag and drop events.
			o.closeUpdates()
			return nil, ErrShutdownTimeout
		}
	}
	o.closeUpdates()

	report.Interrupted = runCtx.Err() != nil
	report.Finalize()

	o.logger.Info("audit finished",
		"total", report.Stats.Total,
		"accessible", report.Stats.Accessible,
		"inaccessible", report.Stats.Inaccessible,
		"sensitive", report.Stats.Sensitive,
		"interrupted", report.Interrupted,
	)

	return report, nil
}

// checkTask probes one URL. Accessible URLs complete here; dead ones
// are handed to the archive pool. Tasks cut short by cancellation are
// dropped, not recorded.
func (o *Orchestrator) checkTask(ctx context.Context, task model.Task, archiveQueue chan<- pendingArchive, results chan<- *model.Result) {
	if ctx.Err() != nil {
		return
	}

	o.publish(Update{URL: task.URL, Phase: PhaseChecking})
	check := o.checker.Check(ctx, task)
	if ctx.Err() != nil {
		return
	}

	if check.Status != model.StatusAccessible {
		o.publish(Update{URL: task.URL, Phase: PhaseArchiveLookup})
		archiveQueue <- pendingArchive{task: task, check: check}
		return
	}

	verdict := o.maybeAnalyze(ctx, task)
	results <- &model.Result{Task: task, Check: check, Verdict: verdict}
}

// resolveTask finishes a dead URL: archive lookup, then analysis if a
// capture body landed in the cache.
func (o *Orchestrator) resolveTask(ctx context.Context, item pendingArchive, results chan<- *model.Result) {
	if ctx.Err() != nil {
		return
	}

	snapshot, err := o.resolver.Resolve(ctx, item.task)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// The archive itself failed; record the miss and move on.
		o.logger.Warn("archive lookup failed", "url", item.task.URL, "error", err)
		snapshot = model.SnapshotResult{URL: item.task.URL}
	}

	verdict := o.maybeAnalyze(ctx, item.task)
	results <- &model.Result{Task: item.task, Check: item.check, Snapshot: &snapshot, Verdict: verdict}
}

// maybeAnalyze runs AI analysis when it is enabled, the task's
// extension is eligible, and content is cached. Once content bytes are
// in hand a verdict is always recorded: extraction or backend failures
// downgrade to a non-sensitive verdict noting why, never to a missing
// one, and never fail the task.
func (o *Orchestrator) maybeAnalyze(ctx context.Context, task model.Task) *model.AnalysisVerdict {
	if o.analyzer == nil || o.contents == nil {
		return nil
	}
	if _, ok := o.analysisExts[task.Extension]; !ok {
		return nil
	}

	entry, ok := o.contents.Get(ctx, task.URL)
	if !ok {
		return nil
	}

	text, err := o.extractText(task.URL, entry.Body, entry.ContentType)
	if err != nil {
		o.logger.Warn("content extraction failed", "url", task.URL, "error", err)
		return &model.AnalysisVerdict{
			URL:        task.URL,
			RawSummary: "analysis unavailable: content extraction failed: " + err.Error(),
		}
	}

	o.publish(Update{URL: task.URL, Phase: PhaseAnalyzing})

	// One model call at a time keeps us under provider rate limits.
	o.analysisMu.Lock()
	defer o.analysisMu.Unlock()

	verdict, err := o.analyzer.Analyze(ctx, task.URL, text)
	if err != nil {
		o.logger.Warn("analysis failed", "url", task.URL, "error", err)
		return &model.AnalysisVerdict{
			URL:        task.URL,
			RawSummary: "analysis unavailable: " + err.Error(),
		}
	}
	return verdict
}

// publish emits a status update without ever blocking the pipeline.
func (o *Orchestrator) publish(u Update) {
	o.updatesMu.Lock()
	defer o.updatesMu.Unlock()
	if o.updatesClosed {
		return
	}
	select {
	case o.updates <- u:
	default:
		// Display fell behind; drop the event.
	}
}

// closeUpdates ends the status stream exactly once.
func (o *Orchestrator) closeUpdates() {
	o.updatesMu.Lock()
	defer o.updatesMu.Unlock()
	if !o.updatesClosed {
		o.updatesClosed = true
		close(o.updates)
	}
}
