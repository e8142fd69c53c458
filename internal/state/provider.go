package state

import "sync"

// BuildFunc creates State; it runs after cobra parsed the flags.
type BuildFunc func(opts Options) (*State, error)

// Provider builds State on first use and hands the same instance to every
// later caller. The options of the first call win.
type Provider struct {
	build BuildFunc

	once  sync.Once
	state *State
	err   error
}

// NewProvider returns a Provider backed by build.
func NewProvider(build BuildFunc) *Provider {
	return &Provider{build: build}
}

// Static returns a Provider that always yields s.
func Static(s *State) *Provider {
	return NewProvider(func(Options) (*State, error) { return s, nil })
}

// Get returns the shared State, building it on the first call.
func (p *Provider) Get(opts Options) (*State, error) {
	p.once.Do(func() {
		p.state, p.err = p.build(opts)
	})
	return p.state, p.err
}

// Close closes the State if it was built.
func (p *Provider) Close() error {
	if p.state == nil {
		return nil
	}
	return p.state.Close()
}
