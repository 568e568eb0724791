package terminal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeSpawner) {
	t.Helper()
	spawner := &fakeSpawner{}
	reg := NewRegistry(Config{
		Spawner: spawner,
		Shells:  NewShellProbe("/bin/testsh", nil),
	})
	t.Cleanup(reg.DestroyAll)
	return reg, spawner
}

func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	reg, spawner := newTestRegistry(t)
	ctx := context.Background()

	first, err := reg.Create(ctx, CreateRequest{Cwd: "/work"})
	require.NoError(t, err)
	second, err := reg.Create(ctx, CreateRequest{})
	require.NoError(t, err)

	assert.Equal(t, types.TerminalID("term-1"), first)
	assert.Equal(t, types.TerminalID("term-2"), second)
	assert.Equal(t, 2, reg.Live())
	assert.True(t, reg.Has(first))
	assert.Len(t, reg.List(), 2)

	info, ok := reg.Info(first)
	require.True(t, ok)
	assert.Equal(t, "/bin/testsh", info.Shell)
	assert.Equal(t, "/work", info.Cwd)
	assert.Equal(t, DefaultCols, info.Cols)
	assert.Equal(t, DefaultRows, info.Rows)

	opts := spawner.lastOpts()
	assert.NotEmpty(t, opts.Dir, "empty cwd falls back to home")
}

func TestCreateEnvironment(t *testing.T) {
	orig := environ
	environ = func() []string { return []string{"PATH=/usr/bin", "TERM=dumb"} }
	defer func() { environ = orig }()

	reg, spawner := newTestRegistry(t)
	_, err := reg.Create(context.Background(), CreateRequest{Env: map[string]string{"PROJECT": "deck"}})
	require.NoError(t, err)

	env := spawner.lastOpts().Env
	assert.Contains(t, env, "PATH=/usr/bin")
	assert.Contains(t, env, "TERM=xterm-256color")
	assert.Contains(t, env, "COLORTERM=truecolor")
	assert.Contains(t, env, "PROJECT=deck")
	assert.NotContains(t, env, "TERM=dumb")
}

func TestCreateEnforcesCap(t *testing.T) {
	reg, _ := newTestRegistry(t)
	sub := reg.Subscribe()
	defer sub.Cancel()
	ctx := context.Background()

	for i := 0; i < MaxSessions; i++ {
		_, err := reg.Create(ctx, CreateRequest{})
		require.NoError(t, err)
		assert.IsType(t, Created{}, nextEvent(t, sub))
	}

	_, err := reg.Create(ctx, CreateRequest{})
	assert.ErrorIs(t, err, ErrResourceExhausted)
	assert.Equal(t, MaxSessions, reg.Live())

	failed, ok := nextEvent(t, sub).(Failed)
	require.True(t, ok)
	assert.NotEmpty(t, failed.Reason)
}

func TestCreateConcurrentNeverExceedsCap(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, exhausted := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Create(context.Background(), CreateRequest{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if errors.Is(err, ErrResourceExhausted) {
				exhausted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, MaxSessions, created)
	assert.Equal(t, 20-MaxSessions, exhausted)
	assert.Equal(t, MaxSessions, reg.Live())
}

func TestCreateSpawnFailure(t *testing.T) {
	metrics := monitoring.NewMetrics()
	spawner := &fakeSpawner{err: errors.New("no such file")}
	reg := NewRegistry(Config{Spawner: spawner, Shells: NewShellProbe("/bin/missing", nil), Metrics: metrics})

	_, err := reg.Create(context.Background(), CreateRequest{Cwd: "/tmp"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawnFailure)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, "/bin/missing", spawnErr.Shell)
	assert.Equal(t, 0, reg.Live())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CreateFailures.WithLabelValues("spawn")))

	// failed spawns do not consume ids
	spawner.mu.Lock()
	spawner.err = nil
	spawner.mu.Unlock()
	tid, err := reg.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	assert.Equal(t, types.TerminalID("term-1"), tid)
}

func TestCreateRejectsDisallowedShell(t *testing.T) {
	spawner := &fakeSpawner{}
	reg := NewRegistry(Config{Spawner: spawner, Shells: NewShellProbe("/bin/bash", []string{"/bin/*"})})

	_, err := reg.Create(context.Background(), CreateRequest{Shell: "/opt/evil/sh"})
	assert.ErrorIs(t, err, ErrShellNotAllowed)
	assert.ErrorIs(t, err, ErrSpawnFailure)
	assert.Empty(t, spawner.opts)

	_, err = reg.Create(context.Background(), CreateRequest{Shell: "/bin/zsh"})
	assert.NoError(t, err)
}

func TestOutputOrderedAndExitedLast(t *testing.T) {
	reg, spawner := newTestRegistry(t)
	sub := reg.Subscribe()
	defer sub.Cancel()

	tid, err := reg.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	proc := spawner.proc(0)

	go func() {
		for _, chunk := range []string{"one ", "two ", "three"} {
			proc.emit(chunk)
		}
		proc.exit(3)
	}()

	var out strings.Builder
	for {
		switch ev := nextEvent(t, sub).(type) {
		case Created:
			assert.Equal(t, tid, ev.ID)
		case Output:
			assert.Equal(t, tid, ev.ID)
			out.Write(ev.Data)
		case Exited:
			assert.Equal(t, tid, ev.ID)
			assert.Equal(t, 3, ev.Code)
			assert.Equal(t, "one two three", out.String())
			assert.False(t, reg.Has(tid))
			assert.Equal(t, 0, reg.Live())
			return
		}
	}
}

func TestDestroyIsIdempotentAndSilent(t *testing.T) {
	metrics := monitoring.NewMetrics()
	spawner := &fakeSpawner{}
	reg := NewRegistry(Config{Spawner: spawner, Shells: NewShellProbe("/bin/sh", nil), Metrics: metrics})
	sub := reg.Subscribe()
	defer sub.Cancel()

	tid, err := reg.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	assert.IsType(t, Created{}, nextEvent(t, sub))

	reg.Destroy(tid)
	reg.Destroy(tid)
	reg.Destroy("term-99")

	assert.False(t, reg.Has(tid))
	assert.True(t, spawner.proc(0).killed.Load())
	assert.True(t, spawner.proc(0).closed.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TerminalsClosed.WithLabelValues(monitoring.CauseClose)))

	select {
	case ev := <-sub.C():
		t.Fatalf("unexpected event after destroy: %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWriteAndResize(t *testing.T) {
	reg, spawner := newTestRegistry(t)

	tid, err := reg.Create(context.Background(), CreateRequest{Cols: 100, Rows: 30})
	require.NoError(t, err)
	proc := spawner.proc(0)

	require.NoError(t, reg.Write(tid, []byte("ls ")))
	require.NoError(t, reg.Write(tid, []byte("-la\n")))
	assert.Equal(t, "ls -la\n", proc.Written())

	require.NoError(t, reg.Resize(tid, 100, 30))
	_, _, resizes := proc.Size()
	assert.Equal(t, 0, resizes, "same size is not forwarded")

	require.NoError(t, reg.Resize(tid, 132, 43))
	cols, rows, resizes := proc.Size()
	assert.Equal(t, 132, cols)
	assert.Equal(t, 43, rows)
	assert.Equal(t, 1, resizes)

	info, _ := reg.Info(tid)
	assert.Equal(t, 132, info.Cols)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.NoError(t, reg.Write("term-404", []byte("x")))
	assert.NoError(t, reg.Resize("term-404", 80, 24))
	assert.False(t, reg.Has("term-404"))
	_, ok := reg.Info("term-404")
	assert.False(t, ok)
}

func TestCancelReleasesBlockedPublisher(t *testing.T) {
	reg, spawner := newTestRegistry(t)
	stalled := reg.Subscribe()

	_, err := reg.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	proc := spawner.proc(0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberDepth*2; i++ {
			proc.emit("x")
		}
	}()

	select {
	case <-done:
		t.Fatal("publisher should block on a full subscriber")
	case <-time.After(100 * time.Millisecond):
	}

	stalled.Cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher still blocked after cancel")
	}

	for range stalled.C() {
	}
}

func TestBuildEnvOverrides(t *testing.T) {
	env := buildEnv([]string{"A=1", "COLORTERM=256"}, map[string]string{"A": "2"})

	assert.Contains(t, env, "A=2")
	assert.Contains(t, env, "COLORTERM=truecolor")
	assert.NotContains(t, env, "A=1")
}
