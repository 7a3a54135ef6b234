package oit

// DefaultMaxFragments is the per-pixel fragment budget used when
// WithMaxFragments is not given. It bounds both pool sizing and the
// composite pass's sort window.
const DefaultMaxFragments = 32

// Option configures a Compositor during creation.
//
// Example:
//
//	// Default configuration
//	c, err := oit.New(1280, 720)
//
//	// Deeper fragment budget, reversed-Z depth
//	c, err := oit.New(1280, 720,
//		oit.WithMaxFragments(64),
//		oit.WithDepthOrder(oit.DepthReversed))
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	maxFragments int
	workers      int
	order        DepthOrder
	tier         Tier
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{
		maxFragments: DefaultMaxFragments,
		workers:      0, // GOMAXPROCS
		order:        DepthStandard,
		tier:         TierLinkedList,
	}
}

// WithMaxFragments sets the per-pixel fragment budget. The shared pool is
// sized to width * height * n nodes, and each pixel's composite considers
// at most n fragments. Values below 1 fall back to DefaultMaxFragments.
//
// Raising the budget costs memory (16 bytes per node); lowering it makes
// heavily layered pixels drop their oldest fragments sooner.
func WithMaxFragments(n int) Option {
	return func(o *options) {
		o.maxFragments = n
	}
}

// WithDepthOrder sets the depth convention fragments and the opaque depth
// buffer are interpreted under.
func WithDepthOrder(order DepthOrder) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithTier pins the device capability tier instead of assuming
// [TierLinkedList]. Pass the result of a gpu probe here; a compositor
// built for a tier without linked-list support refuses frame operations
// with [ErrUnsupported].
//
// Example:
//
//	tier, _ := gpu.Detect()
//	c, err := oit.New(1280, 720, oit.WithTier(tier))
func WithTier(t Tier) Option {
	return func(o *options) {
		o.tier = t
	}
}

// WithWorkers sets the number of goroutines the composite pass fans out
// to. Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
