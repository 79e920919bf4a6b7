package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/enunciate/internal/assess"
	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/internal/orchestrator"
	"github.com/MrWong99/enunciate/pkg/audio"
	g2pmock "github.com/MrWong99/enunciate/pkg/provider/g2p/mock"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	sttmock "github.com/MrWong99/enunciate/pkg/provider/stt/mock"
	"github.com/MrWong99/enunciate/pkg/types"
)

// assessorFunc adapts a function to orchestrator.Assessor and records calls.
type assessorFunc struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, reference, audioPath string) (*types.AssessmentResult, error)
}

func (a *assessorFunc) Run(ctx context.Context, reference, audioPath string) (*types.AssessmentResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, reference)
	a.mu.Unlock()
	return a.fn(ctx, reference, audioPath)
}

func (a *assessorFunc) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func succeed(score float64) *assessorFunc {
	return &assessorFunc{fn: func(context.Context, string, string) (*types.AssessmentResult, error) {
		return &types.AssessmentResult{Status: types.StatusSuccess, Pronunciation: score}, nil
	}}
}

func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// counter returns the summed value of an int64 counter, optionally limited
// to data points whose status attribute equals status.
func counter(t *testing.T, reader *sdkmetric.ManualReader, name, status string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				if status != "" {
					if v, _ := dp.Attributes.Value("status"); v.AsString() != status {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func TestSubmit_Completed(t *testing.T) {
	t.Parallel()

	var transitions []string
	m, reader := newTestMetrics(t)
	runner := succeed(80)
	o := orchestrator.New(runner,
		orchestrator.WithMetrics(m),
		orchestrator.WithTransitionHook(func(from, to orchestrator.State) {
			transitions = append(transitions, from.String()+"→"+to.String())
		}),
	)

	if err := o.Begin("the fox"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := o.State(); got != orchestrator.StateRecording {
		t.Fatalf("State after Begin = %v, want recording", got)
	}
	res, err := o.Submit(context.Background(), "clip.wav")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Pronunciation != 80 {
		t.Errorf("Pronunciation = %v, want 80", res.Pronunciation)
	}
	if got := o.State(); got != orchestrator.StateIdle {
		t.Errorf("State after Submit = %v, want idle", got)
	}
	want := []string{"idle→recording", "recording→assessing", "assessing→completed", "completed→idle"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
	if runner.calls[0] != "the fox" {
		t.Errorf("runner got reference %q, want %q", runner.calls[0], "the fox")
	}
	if n := counter(t, reader, "enunciate.assessments", "completed"); n != 1 {
		t.Errorf("completed assessments = %d, want 1", n)
	}
}

func TestSubmit_Failed(t *testing.T) {
	t.Parallel()

	var transitions []orchestrator.State
	m, reader := newTestMetrics(t)
	runner := &assessorFunc{fn: func(context.Context, string, string) (*types.AssessmentResult, error) {
		return nil, assess.ErrRecognizerUnavailable
	}}
	o := orchestrator.New(runner, orchestrator.WithMetrics(m),
		orchestrator.WithTransitionHook(func(_, to orchestrator.State) { transitions = append(transitions, to) }))

	res, err := o.Assess(context.Background(), "fox", "clip.wav")
	if !errors.Is(err, assess.ErrRecognizerUnavailable) {
		t.Fatalf("err = %v, want ErrRecognizerUnavailable", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on failure", res)
	}
	if transitions[len(transitions)-2] != orchestrator.StateFailed || o.State() != orchestrator.StateIdle {
		t.Errorf("transitions = %v, want ... failed, idle", transitions)
	}
	if n := counter(t, reader, "enunciate.assessments", "failed"); n != 1 {
		t.Errorf("failed assessments = %d, want 1", n)
	}
}

func TestLifecycleErrors(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	o := orchestrator.New(succeed(1), orchestrator.WithMetrics(m))

	if _, err := o.Submit(context.Background(), "clip.wav"); !errors.Is(err, orchestrator.ErrNotRecording) {
		t.Errorf("Submit while idle: err = %v, want ErrNotRecording", err)
	}
	if err := o.Abort(); !errors.Is(err, orchestrator.ErrNotRecording) {
		t.Errorf("Abort while idle: err = %v, want ErrNotRecording", err)
	}
	if err := o.Begin("a"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := o.Begin("b"); !errors.Is(err, orchestrator.ErrBusy) {
		t.Errorf("second Begin: err = %v, want ErrBusy", err)
	}
	if err := o.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if got := o.State(); got != orchestrator.StateIdle {
		t.Errorf("State after Abort = %v, want idle", got)
	}
	if err := o.Begin("c"); err != nil {
		t.Errorf("Begin after Abort: %v", err)
	}
}

func TestBegin_BusyWhileAssessing(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	runner := &assessorFunc{fn: func(context.Context, string, string) (*types.AssessmentResult, error) {
		close(entered)
		<-release
		return &types.AssessmentResult{}, nil
	}}
	o := orchestrator.New(runner, orchestrator.WithMetrics(m))

	done := make(chan error, 1)
	go func() {
		_, err := o.Assess(context.Background(), "fox", "clip.wav")
		done <- err
	}()
	<-entered
	if got := o.State(); got != orchestrator.StateAssessing {
		t.Errorf("State = %v, want assessing", got)
	}
	if err := o.Begin("other"); !errors.Is(err, orchestrator.ErrBusy) {
		t.Errorf("Begin while assessing: err = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("Assess: %v", err)
	}
}

func TestSubmit_TimeoutDiscardsLateResult(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	release := make(chan struct{})
	runner := &assessorFunc{fn: func(context.Context, string, string) (*types.AssessmentResult, error) {
		// Ignores cancellation, like a recognizer with no preemption point.
		<-release
		return &types.AssessmentResult{Pronunciation: 99}, nil
	}}
	o := orchestrator.New(runner, orchestrator.WithMetrics(m), orchestrator.WithTimeout(20*time.Millisecond))

	res, err := o.Assess(context.Background(), "fox", "clip.wav")
	if !errors.Is(err, orchestrator.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil after timeout", res)
	}
	if got := o.State(); got != orchestrator.StateIdle {
		t.Errorf("State = %v, want idle", got)
	}

	// The slot is still held: the next run waits and times out without
	// reaching the assessor.
	if _, err := o.Assess(context.Background(), "fox", "clip.wav"); !errors.Is(err, orchestrator.ErrTimeout) {
		t.Errorf("second run: err = %v, want ErrTimeout", err)
	}
	if n := runner.callCount(); n != 1 {
		t.Errorf("assessor called %d times, want 1", n)
	}

	close(release)
	o.Wait()
	if n := counter(t, reader, "enunciate.late_results", ""); n != 1 {
		t.Errorf("late results = %d, want 1", n)
	}
	if n := counter(t, reader, "enunciate.assessments", "timeout"); n != 2 {
		t.Errorf("timed out assessments = %d, want 2", n)
	}

	// With the worker gone the next run goes through.
	runner.fn = func(context.Context, string, string) (*types.AssessmentResult, error) {
		return &types.AssessmentResult{Pronunciation: 50}, nil
	}
	res, err = o.Assess(context.Background(), "fox", "clip.wav")
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if res.Pronunciation != 50 {
		t.Errorf("third run Pronunciation = %v, want the fresh 50", res.Pronunciation)
	}
}

func TestSubmit_CallerCancelled(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	runner := &assessorFunc{fn: func(ctx context.Context, _, _ string) (*types.AssessmentResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	o := orchestrator.New(runner, orchestrator.WithMetrics(m), orchestrator.WithTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := o.Assess(ctx, "fox", "clip.wav")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, orchestrator.ErrTimeout) {
		t.Error("caller cancellation reported as timeout")
	}
	o.Wait()
}

func TestSubmit_RunIDs(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	var ids []string
	runner := &assessorFunc{fn: func(ctx context.Context, _, _ string) (*types.AssessmentResult, error) {
		ids = append(ids, observe.RunID(ctx))
		return &types.AssessmentResult{}, nil
	}}
	o := orchestrator.New(runner, orchestrator.WithMetrics(m))
	for range 2 {
		if _, err := o.Assess(context.Background(), "fox", "clip.wav"); err != nil {
			t.Fatalf("Assess: %v", err)
		}
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("run id %q is not a uuid: %v", id, err)
		}
	}
	if ids[0] == ids[1] {
		t.Errorf("runs share id %q", ids[0])
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()
	want := map[orchestrator.State]string{
		orchestrator.StateIdle:      "idle",
		orchestrator.StateRecording: "recording",
		orchestrator.StateAssessing: "assessing",
		orchestrator.StateCompleted: "completed",
		orchestrator.StateFailed:    "failed",
		orchestrator.State(42):      "State(42)",
	}
	for s, str := range want {
		if got := s.String(); got != str {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, str)
		}
	}
}

// TestPipeline_TimeoutCleansUp drives a real pipeline whose recognizer stalls
// past the deadline and checks that the normalized file is still removed
// once the abandoned worker finishes.
func TestPipeline_TimeoutCleansUp(t *testing.T) {
	t.Parallel()

	var wav bytes.Buffer
	if err := audio.EncodeWAV(&wav, make([]byte, 3200), 16000, 1); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, wav.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	tmp := t.TempDir()
	m, reader := newTestMetrics(t)
	block := make(chan struct{})
	sess := &sttmock.Session{Block: block, Trailing: []stt.Word{{Text: "fox", End: time.Second}}}
	pipeline := assess.New(&sttmock.Recognizer{Session: sess}, &g2pmock.Transcriber{},
		assess.WithNormalizer(audio.NewNormalizer(audio.WithTempDir(tmp))),
		assess.WithMetrics(m),
	)
	o := orchestrator.New(pipeline, orchestrator.WithMetrics(m), orchestrator.WithTimeout(30*time.Millisecond))

	if _, err := o.Assess(context.Background(), "fox", path); !errors.Is(err, orchestrator.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	close(block)
	o.Wait()

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d normalized files left after the late worker finished", len(entries))
	}
	if n := counter(t, reader, "enunciate.late_results", ""); n != 1 {
		t.Errorf("late results = %d, want 1", n)
	}
}
