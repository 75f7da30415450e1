package daemon_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/jamesainslie/fanguard/pkg/daemon"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

type sentSignal struct {
	pid int
	sig syscall.Signal
}

// fakeProcs is a process table where SIGTERM and SIGKILL take effect
// immediately, unless a process is marked stubborn.
type fakeProcs struct {
	mu       sync.Mutex
	alive    map[int]bool
	stubborn map[int]bool
	info     map[int]daemon.ProcessInfo
	signals  []sentSignal
}

func newFakeProcs() *fakeProcs {
	return &fakeProcs{
		alive:    make(map[int]bool),
		stubborn: make(map[int]bool),
		info:     make(map[int]daemon.ProcessInfo),
	}
}

func (f *fakeProcs) spawn(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = true
}

func (f *fakeProcs) kill(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.alive, pid)
}

func (f *fakeProcs) ignoreTerm(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubborn[pid] = true
}

func (f *fakeProcs) setInfo(pid int, info daemon.ProcessInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.info[pid] = info
}

func (f *fakeProcs) sent() []sentSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentSignal, len(f.signals))
	copy(out, f.signals)
	return out
}

func (f *fakeProcs) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alive)
}

func (f *fakeProcs) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

func (f *fakeProcs) Signal(pid int, sig syscall.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive[pid] {
		return os.ErrProcessDone
	}
	f.signals = append(f.signals, sentSignal{pid: pid, sig: sig})
	if sig == syscall.SIGKILL || (sig == syscall.SIGTERM && !f.stubborn[pid]) {
		delete(f.alive, pid)
	}
	return nil
}

func (f *fakeProcs) Info(pid int) (daemon.ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.info[pid]
	if !ok {
		return daemon.ProcessInfo{}, errors.New("no such process")
	}
	return info, nil
}

// fakeLauncher plays the part of fanguardd's startup against the store.
type fakeLauncher struct {
	procs *fakeProcs
	store state.Store

	nextPID      int
	launched     []int
	dieOnStart   bool
	skipLiveness bool
	err          error
}

func newFakeLauncher(procs *fakeProcs, store state.Store) *fakeLauncher {
	return &fakeLauncher{procs: procs, store: store, nextPID: 1000}
}

func (l *fakeLauncher) Launch(_ context.Context) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	pid := l.nextPID
	l.nextPID++
	l.launched = append(l.launched, pid)
	l.procs.spawn(pid)

	switch {
	case l.dieOnStart:
		_ = l.store.ResetLog()
		_ = l.store.AppendEvent("error: no target speed recorded, exiting")
		l.procs.kill(pid)
	case l.skipLiveness:
	default:
		_ = l.store.RecordLiveness(pid)
		_ = l.store.ResetLog()
		_ = l.store.AppendEvent("daemon started")
	}
	return pid, nil
}

// sleepRecorder captures requested delays without sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
}

func (r *sleepRecorder) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.delays {
		if got == d {
			n++
		}
	}
	return n
}
