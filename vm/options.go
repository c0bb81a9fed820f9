package vm

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithMaxFrameDepth sets the maximum call nesting depth.
func WithMaxFrameDepth(depth int) Option {
	return func(vm *VirtualMachine) {
		vm.maxFrameDepth = depth
	}
}

// WithContextCheckInterval sets how often the VM checks ctx.Done() during
// execution. The interval is specified in number of instructions. A value of
// 0 disables checking. The default is DefaultContextCheckInterval (1000).
//
// Lower values provide more responsive cancellation but add a small amount
// of overhead per instruction.
func WithContextCheckInterval(interval int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for VM execution events.
// The observer receives callbacks for instruction steps, method calls,
// and method returns.
//
// Observer methods are called synchronously during execution, so
// implementations should be fast to avoid impacting performance.
// Returning false from any observer method halts execution immediately.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}
