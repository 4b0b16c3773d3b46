package aotvm

import (
	"io"
	"log/slog"

	"github.com/robertkrimen/otto/ast"
)

// HostHooks are the host-defined abstract operations the VM defers to.
type HostHooks interface {
	// EnsureCanCompileStrings may return a throw completion to forbid
	// Function-constructor style code generation.
	EnsureCanCompileStrings(vm *VM, callerRealm, calleeRealm *Realm) error
}

// VM is an agent: it owns the execution context stack, the well-known
// symbols shared by all of its realms and the pending job queue.
type VM struct {
	logger            *slog.Logger
	hostHooks         HostHooks
	canCompileStrings bool

	contextStack []*ExecutionContext
	synCtx       ProgramContext
	symbols      wellKnownSymbols
	jobs         []pendingJob

	// GlobalSymbolRegistry, keyed by Symbol.for key
	symbolRegistry map[string]*JSSymbol

	// function declarations in blocks that also bind a var (sloppy mode)
	annexB map[*ast.FunctionLiteral]bool

	realm *Realm
}

type Option func(*VM)

func WithLogger(logger *slog.Logger) Option {
	return func(vm *VM) { vm.logger = logger }
}

func WithHostHooks(hooks HostHooks) Option {
	return func(vm *VM) { vm.hostHooks = hooks }
}

// WithCanCompileStrings toggles the built-in policy behind
// HostEnsureCanCompileStrings. Host hooks, if any, are consulted as well.
func WithCanCompileStrings(allow bool) Option {
	return func(vm *VM) { vm.canCompileStrings = allow }
}

// NewVM creates an agent with one host-defined realm, whose execution
// context stays at the bottom of the stack.
func NewVM(opts ...Option) *VM {
	vm := &VM{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		canCompileStrings: true,
		symbolRegistry:    make(map[string]*JSSymbol),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.symbols = newWellKnownSymbols()

	realm, err := vm.InitializeHostDefinedRealm()
	if err != nil {
		panic("bug: could not initialize the host realm: " + err.Error())
	}
	vm.realm = realm
	return vm
}

func (vm *VM) Logger() *slog.Logger { return vm.logger }

// Realm returns the realm created by NewVM.
func (vm *VM) Realm() *Realm { return vm.realm }

// GlobalObject is the global object of the running realm. NewVM leaves the
// host realm's context on the stack, so there always is one.
func (vm *VM) GlobalObject() *JSObject { return vm.CurrentRealm().GlobalObject }

// HostEnsureCanCompileStrings runs the host policy once per dynamic code
// generation request.
func (vm *VM) HostEnsureCanCompileStrings(callerRealm, calleeRealm *Realm) error {
	if !vm.canCompileStrings {
		return vm.ThrowError("EvalError", "code generation from strings is disallowed")
	}
	if vm.hostHooks != nil {
		return vm.hostHooks.EnsureCanCompileStrings(vm, callerRealm, calleeRealm)
	}
	return nil
}

// Job is a pending abstract closure; see RunJobs.
type Job func(vm *VM) error

type pendingJob struct {
	job   Job
	realm *Realm
}

// HostEnqueuePromiseJob queues job to run later in a context of realm.
func (vm *VM) HostEnqueuePromiseJob(job Job, realm *Realm) {
	vm.jobs = append(vm.jobs, pendingJob{job: job, realm: realm})
}

// RunJobs drains the job queue in FIFO order, including jobs enqueued while
// running. It stops at the first job that fails.
func (vm *VM) RunJobs() error {
	for len(vm.jobs) > 0 {
		pending := vm.jobs[0]
		vm.jobs = vm.jobs[1:]

		jobContext := &ExecutionContext{Realm: pending.realm}
		vm.PushContext(jobContext)
		err := pending.job(vm)
		vm.PopContext(jobContext)
		if err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) PendingJobs() int { return len(vm.jobs) }
