package plexilexpr

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// ScriptCache is a thread-safe LRU cache of compiled expr-lang programs,
// keyed by source text, so a scripted condition reused across many node
// instances of the same library is compiled once.
type ScriptCache struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List
	mu       sync.RWMutex
}

type scriptCacheEntry struct {
	key     string
	program *vm.Program
}

// NewScriptCache creates a cache holding up to capacity compiled programs.
func NewScriptCache(capacity int) *ScriptCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &ScriptCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// Get retrieves a compiled program, promoting it to most-recently-used.
func (sc *ScriptCache) Get(source string) (*vm.Program, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if el, found := sc.cache[source]; found {
		sc.lruList.MoveToFront(el)
		return el.Value.(*scriptCacheEntry).program, true
	}
	return nil, false
}

// Put stores a compiled program, evicting the least recently used entry if
// the cache is over capacity.
func (sc *ScriptCache) Put(source string, program *vm.Program) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if el, found := sc.cache[source]; found {
		sc.lruList.MoveToFront(el)
		el.Value.(*scriptCacheEntry).program = program
		return
	}
	el := sc.lruList.PushFront(&scriptCacheEntry{key: source, program: program})
	sc.cache[source] = el
	if sc.lruList.Len() > sc.capacity {
		oldest := sc.lruList.Back()
		if oldest != nil {
			sc.lruList.Remove(oldest)
			delete(sc.cache, oldest.Value.(*scriptCacheEntry).key)
		}
	}
}

// Len reports the current number of cached programs.
func (sc *ScriptCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lruList.Len()
}

// defaultScriptCache is shared by ScriptExpression instances that do not
// supply their own cache. It is package-level, so every executive in the
// process shares it.
var defaultScriptCache = NewScriptCache(256)
