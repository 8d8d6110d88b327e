package reactor

// Executor is the collaborator interface from spec.md §6: "execute(task)
// with optional execute_after". Three variants are provided, matching
// spec.md §2: direct, threaded, reactor-bound.
type Executor interface {
	Execute(task Task)
}

// DirectExecutor runs tasks synchronously on the calling goroutine. When
// flatten is true, a task that calls Execute reentrantly from inside
// another task's execution is queued rather than run immediately,
// preventing unbounded call-stack growth from recursive scheduling
// ("optional recursion flattening", spec.md §2).
type DirectExecutor struct {
	flatten bool
	depth   int
	pending []Task
}

// NewDirectExecutor returns a synchronous Executor. flatten enables
// recursion flattening.
func NewDirectExecutor(flatten bool) *DirectExecutor {
	return &DirectExecutor{flatten: flatten}
}

// Execute runs task now, unless recursion flattening is active and this
// call is nested inside another Execute, in which case it is queued to
// run after the outermost call returns.
func (d *DirectExecutor) Execute(task Task) {
	if d.flatten && d.depth > 0 {
		d.pending = append(d.pending, task)
		return
	}
	d.depth++
	task()
	d.depth--
	if d.depth == 0 {
		for len(d.pending) > 0 {
			next := d.pending[0]
			d.pending = d.pending[1:]
			next()
		}
	}
}

// ThreadedExecutor runs each task on its own goroutine (standing in for
// "each task on its own OS thread" — Go multiplexes goroutines onto OS
// threads itself, which is the idiomatic equivalent of the source's
// thread-per-task executor).
type ThreadedExecutor struct{}

// NewThreadedExecutor returns a ThreadedExecutor.
func NewThreadedExecutor() *ThreadedExecutor { return &ThreadedExecutor{} }

// Execute starts task on a new goroutine and returns immediately.
func (ThreadedExecutor) Execute(task Task) {
	go task()
}

// ReactorBoundExecutor enqueues tasks onto a Reactor's own loop, so they
// run serialized with that reactor's fd/timer callbacks with no
// additional locking (spec.md §2: "reactor-bound").
type ReactorBoundExecutor struct {
	r *Reactor
}

// NewReactorBoundExecutor binds an Executor to r.
func NewReactorBoundExecutor(r *Reactor) *ReactorBoundExecutor {
	return &ReactorBoundExecutor{r: r}
}

// Execute enqueues task onto the bound reactor.
func (e *ReactorBoundExecutor) Execute(task Task) {
	e.r.Execute(task)
}
