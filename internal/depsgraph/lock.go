package depsgraph

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a busy-waiting mutex for very short critical sections.
type spinLock struct {
	state atomic.Int32
}

func (l *spinLock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() {
	l.state.Store(0)
}
