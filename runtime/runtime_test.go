package runtime

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	maskruntime "github.com/wippyai/mask-runtime"
	"github.com/wippyai/mask-runtime/options"
)

// fakeElement is an in-memory host field.
type fakeElement struct{ value string }

func (e *fakeElement) Value() string     { return e.value }
func (e *fakeElement) SetValue(v string) { e.value = v }

// fakeEngine formats digits against literal "0" placeholder masks, just
// enough engine behavior to exercise the runtime paths.
type fakeEngine struct {
	bindings atomic.Int32
	closed   atomic.Bool
	reject   bool
}

func (f *fakeEngine) NewBinding(ctx context.Context, opts *options.Value) (maskruntime.Binding, error) {
	if f.reject {
		return nil, errors.New("engine rejected resolved options")
	}
	mask := ""
	if leaf, ok := opts.Get("mask"); ok && leaf.Kind == options.KindString {
		mask = leaf.Str
	}
	f.bindings.Add(1)
	return &fakeBinding{mask: mask}, nil
}

func (f *fakeEngine) Close(ctx context.Context) error {
	f.closed.Store(true)
	return nil
}

type fakeBinding struct {
	mask     string
	raw      string
	closeErr error
	closes   atomic.Int32
}

func (b *fakeBinding) Value(ctx context.Context) (string, error) {
	return applyMask(b.mask, b.raw), nil
}

func (b *fakeBinding) SetValue(ctx context.Context, v string) error {
	var digits strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	b.raw = digits.String()
	return nil
}

func (b *fakeBinding) UnmaskedValue(ctx context.Context) (string, error) {
	return b.raw, nil
}

func (b *fakeBinding) Close(ctx context.Context) error {
	b.closes.Add(1)
	return b.closeErr
}

// applyMask fills "0" placeholders with digits, emitting literals along
// the way and stopping once the digits run out.
func applyMask(mask, raw string) string {
	var out strings.Builder
	digits := []rune(raw)
	i := 0
	for _, m := range mask {
		if i >= len(digits) {
			break
		}
		if m == '0' {
			out.WriteRune(digits[i])
			i++
		} else {
			out.WriteRune(m)
		}
	}
	return out.String()
}

func newTestRuntime(t *testing.T, eng *fakeEngine) *Runtime {
	t.Helper()
	rt, err := New(Config{
		Load: func(ctx context.Context) (maskruntime.Engine, error) {
			return eng, nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt
}

func TestCreateMask_EngineBacked(t *testing.T) {
	eng := &fakeEngine{}
	rt := newTestRuntime(t, eng)
	ctx := context.Background()
	el := &fakeElement{}

	h, err := rt.CreateMask(ctx, el, `{"mask":"+1 (000) 000-0000"}`)
	if err != nil {
		t.Fatalf("CreateMask: %v", err)
	}
	if h.ID() == "" {
		t.Error("engine-backed handle has no id")
	}
	if rt.Active() != 1 {
		t.Fatalf("Active = %d, want 1", rt.Active())
	}

	if err := h.SetValue(ctx, "5551234567"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	got, err := h.Value(ctx)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got != "+1 (555) 123-4567" {
		t.Errorf("Value = %q, want +1 (555) 123-4567", got)
	}

	// Engine-formatted value is mirrored back to the element.
	if el.Value() != "+1 (555) 123-4567" {
		t.Errorf("element value = %q", el.Value())
	}

	raw, err := h.UnmaskedValue(ctx)
	if err != nil {
		t.Fatalf("UnmaskedValue: %v", err)
	}
	if raw != "5551234567" {
		t.Errorf("UnmaskedValue = %q, want 5551234567", raw)
	}
}

func TestCreateMask_NamedPatternShortcut(t *testing.T) {
	var loads atomic.Int32
	rt, err := New(Config{
		Load: func(ctx context.Context) (maskruntime.Engine, error) {
			loads.Add(1)
			return &fakeEngine{}, nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	el := &fakeElement{}
	h, err := rt.CreateMask(ctx, el, "ssn")
	if err != nil {
		t.Fatalf("CreateMask: %v", err)
	}

	if h.Pattern() != "000-00-0000" {
		t.Errorf("Pattern = %q, want 000-00-0000", h.Pattern())
	}
	if h.ID() != "" {
		t.Error("literal handle should have no registry id")
	}
	if rt.Active() != 0 {
		t.Errorf("Active = %d, want 0 (no registry entry)", rt.Active())
	}
	if loads.Load() != 0 {
		t.Errorf("engine loaded %d times for named pattern, want 0", loads.Load())
	}

	// Value access proxies the element directly.
	if err := h.SetValue(ctx, "123-45-6789"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if el.Value() != "123-45-6789" {
		t.Errorf("element value = %q", el.Value())
	}
	if err := h.Destroy(ctx); err != nil {
		t.Fatalf("Destroy of literal handle: %v", err)
	}
}

func TestHandle_DestroyIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	rt := newTestRuntime(t, eng)
	ctx := context.Background()

	h, err := rt.CreateMask(ctx, &fakeElement{}, "0000")
	if err != nil {
		t.Fatalf("CreateMask: %v", err)
	}
	binding := h.binding.(*fakeBinding)

	if err := h.Destroy(ctx); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := h.Destroy(ctx); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
	if got := binding.closes.Load(); got != 1 {
		t.Errorf("binding closed %d times, want 1", got)
	}
	if rt.Active() != 0 {
		t.Errorf("Active = %d, want 0", rt.Active())
	}
}

func TestCreateMask_EngineRejectionLeavesNoRecord(t *testing.T) {
	rt := newTestRuntime(t, &fakeEngine{reject: true})

	_, err := rt.CreateMask(context.Background(), &fakeElement{}, `{"mask":"0000"}`)
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if rt.Active() != 0 {
		t.Fatalf("Active = %d after rejection, want 0", rt.Active())
	}
}

func TestCreateMask_LoadFailurePropagatesAndRetries(t *testing.T) {
	boom := errors.New("engine unavailable")
	var attempts atomic.Int32
	rt, err := New(Config{
		Load: func(ctx context.Context) (maskruntime.Engine, error) {
			if attempts.Add(1) == 1 {
				return nil, boom
			}
			return &fakeEngine{}, nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if _, err := rt.CreateMask(ctx, &fakeElement{}, "0000"); !errors.Is(err, boom) {
		t.Fatalf("first create err = %v, want %v", err, boom)
	}
	if rt.Active() != 0 {
		t.Fatal("failed load must not create records")
	}

	if _, err := rt.CreateMask(ctx, &fakeElement{}, "0000"); err != nil {
		t.Fatalf("retry after load failure: %v", err)
	}
}

func TestCreateMask_InvalidSpecType(t *testing.T) {
	rt := newTestRuntime(t, &fakeEngine{})
	if _, err := rt.CreateMask(context.Background(), &fakeElement{}, 42); err == nil {
		t.Fatal("expected error for numeric spec")
	}
	if _, err := rt.CreateMask(context.Background(), nil, "0000"); err == nil {
		t.Fatal("expected error for nil element")
	}
}

func TestDestroyAllMasks_SurvivesTeardownFailure(t *testing.T) {
	eng := &fakeEngine{}
	rt := newTestRuntime(t, eng)
	ctx := context.Background()

	h1, err := rt.CreateMask(ctx, &fakeElement{}, "0000")
	if err != nil {
		t.Fatalf("CreateMask: %v", err)
	}
	h1.binding.(*fakeBinding).closeErr = errors.New("teardown exploded")

	if _, err := rt.CreateMask(ctx, &fakeElement{}, "0000"); err != nil {
		t.Fatalf("CreateMask: %v", err)
	}

	rt.DestroyAllMasks(ctx)

	if rt.Active() != 0 {
		t.Fatalf("Active = %d after DestroyAllMasks, want 0", rt.Active())
	}
}

func TestRegisterTeardown_OnceAndFires(t *testing.T) {
	eng := &fakeEngine{}
	rt := newTestRuntime(t, eng)
	ctx := context.Background()

	if _, err := rt.CreateMask(ctx, &fakeElement{}, "0000"); err != nil {
		t.Fatalf("CreateMask: %v", err)
	}

	var hooks []func()
	register := func(fn func()) { hooks = append(hooks, fn) }

	rt.RegisterTeardown(register)
	rt.RegisterTeardown(register)

	if len(hooks) != 1 {
		t.Fatalf("registered %d hooks, want 1", len(hooks))
	}

	hooks[0]()
	if rt.Active() != 0 {
		t.Fatalf("Active = %d after teardown hook, want 0", rt.Active())
	}
}

func TestRuntime_Close(t *testing.T) {
	eng := &fakeEngine{}
	rt := newTestRuntime(t, eng)
	ctx := context.Background()

	if _, err := rt.CreateMask(ctx, &fakeElement{}, "0000"); err != nil {
		t.Fatalf("CreateMask: %v", err)
	}

	if err := rt.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rt.Active() != 0 {
		t.Error("Close left live bindings")
	}
	if !eng.closed.Load() {
		t.Error("Close did not release the engine")
	}
}

func TestRuntime_CloseWithoutLoad(t *testing.T) {
	rt := newTestRuntime(t, &fakeEngine{})
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("Close before any load: %v", err)
	}
}
