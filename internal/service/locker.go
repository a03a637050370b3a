package service

import "sync"

// circuitLocker 按锦标赛 ID 串行化所有写操作；无人持有时回收条目
type circuitLocker struct {
	mu    sync.Mutex
	locks map[uint64]*circuitLock
}

type circuitLock struct {
	mu   sync.Mutex
	refs int
}

func newCircuitLocker() *circuitLocker {
	return &circuitLocker{locks: make(map[uint64]*circuitLock)}
}

// Lock 获取 circuitID 的锁，返回解锁函数
func (l *circuitLocker) Lock(circuitID uint64) func() {
	l.mu.Lock()
	cl, ok := l.locks[circuitID]
	if !ok {
		cl = &circuitLock{}
		l.locks[circuitID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, circuitID)
		}
		l.mu.Unlock()
	}
}
