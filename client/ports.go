// SPDX-License-Identifier: EPL-2.0

package client

import (
	"errors"
	"fmt"

	"github.com/ik5/audjack/engine"
)

// Port is one registered client port.
type Port struct {
	Direction engine.Direction
	// Index is the zero based position within its direction.
	Index int
	// Name is the short name, "output1" or "input1" style.
	Name string

	handle engine.Port
}

// FullName is the name the engine knows the port by, "client:output1" style.
func (p *Port) FullName() string {
	return p.handle.Name()
}

func portName(dir engine.Direction, i int) string {
	return fmt.Sprintf("%s%d", dir, i+1)
}

// PortSet holds the ports of an opened client, outputs and inputs in index
// order.
type PortSet struct {
	h       engine.Handle
	outputs []*Port
	inputs  []*Port
}

func registerPorts(h engine.Handle, nOut, nIn int) (*PortSet, error) {
	s := &PortSet{
		h:       h,
		outputs: make([]*Port, 0, nOut),
		inputs:  make([]*Port, 0, nIn),
	}

	for _, want := range []struct {
		dir engine.Direction
		n   int
	}{{engine.Output, nOut}, {engine.Input, nIn}} {
		for i := range want.n {
			name := portName(want.dir, i)
			hp, err := h.RegisterPort(name, want.dir)
			if err == nil && hp == nil {
				err = engine.ErrPortRegistration
			}
			if err != nil {
				_ = s.release()
				return nil, newError("open",
					fmt.Sprintf("could not register %s port %d (%s)", want.dir, i, name), err)
			}
			p := &Port{Direction: want.dir, Index: i, Name: name, handle: hp}
			if want.dir == engine.Output {
				s.outputs = append(s.outputs, p)
			} else {
				s.inputs = append(s.inputs, p)
			}
		}
	}
	return s, nil
}

// Outputs returns the output ports. The slice must not be modified.
func (s *PortSet) Outputs() []*Port {
	if s == nil {
		return nil
	}
	return s.outputs
}

// Inputs returns the input ports. The slice must not be modified.
func (s *PortSet) Inputs() []*Port {
	if s == nil {
		return nil
	}
	return s.inputs
}

// Len returns the number of ports in dir.
func (s *PortSet) Len(dir engine.Direction) int {
	return len(s.list(dir))
}

func (s *PortSet) list(dir engine.Direction) []*Port {
	if dir == engine.Output {
		return s.Outputs()
	}
	return s.Inputs()
}

// handles snapshots the engine ports of dir for the process path.
func (s *PortSet) handles(dir engine.Direction) []engine.Port {
	ports := s.list(dir)
	out := make([]engine.Port, len(ports))
	for i, p := range ports {
		out[i] = p.handle
	}
	return out
}

// truncate unregisters every port of dir from index n onward.
func (s *PortSet) truncate(dir engine.Direction, n int) error {
	ports := s.list(dir)
	if n >= len(ports) {
		return nil
	}

	var errs []error
	for _, p := range ports[n:] {
		if err := s.h.UnregisterPort(p.handle); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
		}
	}

	if dir == engine.Output {
		s.outputs = s.outputs[:n:n]
	} else {
		s.inputs = s.inputs[:n:n]
	}
	return errors.Join(errs...)
}

// release unregisters all ports. Calling it again is a no-op.
func (s *PortSet) release() error {
	if s == nil || s.h == nil {
		return nil
	}
	err := errors.Join(s.truncate(engine.Output, 0), s.truncate(engine.Input, 0))
	s.h = nil
	return err
}
