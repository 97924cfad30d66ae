// SPDX-License-Identifier: EPL-2.0

package client

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ik5/audjack/engine"
)

// Connection pairs a client port with the physical port it is wired to.
type Connection struct {
	Direction engine.Direction
	Port      string
	Physical  string
}

// Source is the sending end of the connection.
func (c Connection) Source() string {
	if c.Direction == engine.Output {
		return c.Port
	}
	return c.Physical
}

// Destination is the receiving end of the connection.
func (c Connection) Destination() string {
	if c.Direction == engine.Output {
		return c.Physical
	}
	return c.Port
}

// ConnectionPlan is the outcome of hardware negotiation. Client output i is
// connected to physical sink i and physical source i to client input i.
type ConnectionPlan struct {
	Connections []Connection

	RequestedOutputs int
	RequestedInputs  int
	AcceptedOutputs  int
	AcceptedInputs   int
}

// Degraded reports whether fewer ports were kept than requested.
func (p ConnectionPlan) Degraded() bool {
	return p.AcceptedOutputs < p.RequestedOutputs || p.AcceptedInputs < p.RequestedInputs
}

// Degradation describes a direction whose port count was reduced to the
// number of physical ports available.
type Degradation struct {
	Direction engine.Direction
	Requested int
	Accepted  int
}

func (d Degradation) String() string {
	return fmt.Sprintf("%s ports reduced from %d to %d", d.Direction, d.Requested, d.Accepted)
}

type negotiator struct {
	h     engine.Handle
	ports *PortSet
	log   zerolog.Logger
}

// plan lists the physical ports and pairs them with the client ports that
// have a hardware partner. It changes nothing: surplus ports stay registered
// until the client is active and connected, see trim.
func (n *negotiator) plan(reqOut, reqIn int) (ConnectionPlan, []Degradation, error) {
	plan := ConnectionPlan{RequestedOutputs: reqOut, RequestedInputs: reqIn}

	sinks, err := n.h.PhysicalPorts(engine.Input)
	if err != nil {
		return plan, nil, newError("start", "could not list physical playback ports", err)
	}
	sources, err := n.h.PhysicalPorts(engine.Output)
	if err != nil {
		return plan, nil, newError("start", "could not list physical capture ports", err)
	}

	var degraded []Degradation
	for _, side := range []struct {
		dir      engine.Direction
		physical []string
		req      int
		accepted *int
	}{
		{engine.Output, sinks, reqOut, &plan.AcceptedOutputs},
		{engine.Input, sources, reqIn, &plan.AcceptedInputs},
	} {
		ports := n.ports.list(side.dir)
		if len(ports) > len(side.physical) {
			degraded = append(degraded, Degradation{
				Direction: side.dir,
				Requested: side.req,
				Accepted:  len(side.physical),
			})
			ports = ports[:len(side.physical)]
		}
		*side.accepted = len(ports)

		for i, p := range ports {
			plan.Connections = append(plan.Connections, Connection{
				Direction: side.dir,
				Port:      p.FullName(),
				Physical:  side.physical[i],
			})
		}
	}
	return plan, degraded, nil
}

// trim unregisters the ports the plan left without a hardware partner and
// logs each degradation. Failing to unregister a surplus port is logged, the
// port is dropped from the set either way.
func (n *negotiator) trim(plan ConnectionPlan, degraded []Degradation) {
	for _, d := range degraded {
		n.log.Warn().
			Stringer("direction", d.Direction).
			Int("requested", d.Requested).
			Int("available", d.Accepted).
			Msg("not enough physical ports, reducing port count")
	}

	for dir, keep := range map[engine.Direction]int{
		engine.Output: plan.AcceptedOutputs,
		engine.Input:  plan.AcceptedInputs,
	} {
		if err := n.ports.truncate(dir, keep); err != nil {
			n.log.Warn().Err(err).Stringer("direction", dir).Msg("could not unregister surplus ports")
		}
	}
}

// apply makes every connection of the plan. The client must be active.
func (n *negotiator) apply(plan ConnectionPlan) error {
	for _, c := range plan.Connections {
		if err := n.h.Connect(c.Source(), c.Destination()); err != nil {
			return newError("start",
				fmt.Sprintf("could not connect %s to %s", c.Source(), c.Destination()), err)
		}
		n.log.Debug().Str("src", c.Source()).Str("dst", c.Destination()).Msg("connected")
	}
	return nil
}
