// SPDX-License-Identifier: EPL-2.0

package audjack

import (
	"context"
	"errors"
	"fmt"

	"github.com/ik5/audjack/client"
	"github.com/ik5/audjack/engine"
)

// ErrEngineShutdown is returned by Run when the engine dropped the client.
var ErrEngineShutdown = errors.New("engine shut the client down")

// Params describe the client Run opens.
type Params struct {
	Name    string
	Server  string
	Outputs int
	Inputs  int

	// BufferSize asks the engine for a period before starting. Zero keeps
	// the engine's.
	BufferSize uint32

	// OnStart runs after the client started. Returning an error stops Run.
	OnStart func(*client.Client) error
}

// Run opens a client on eng, starts cb and blocks until ctx is done or the
// engine shuts the client down. The client is always closed before Run
// returns. Cancelling ctx is a clean exit and returns nil.
func Run(ctx context.Context, eng engine.Engine, p Params, cb client.Callback, opts ...client.Option) error {
	return RunWith(ctx, eng, p, func(*client.Client) (client.Callback, error) {
		return cb, nil
	}, opts...)
}

// Builder makes the callback once the client is open, so it can size
// itself from the engine sample rate and period.
type Builder func(*client.Client) (client.Callback, error)

// RunWith is Run with the callback made by build after Open.
func RunWith(ctx context.Context, eng engine.Engine, p Params, build Builder, opts ...client.Option) (err error) {
	c, err := client.Dial(eng, p.Outputs, p.Inputs, p.Name, p.Server, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()

	if p.BufferSize > 0 {
		if _, err := c.SetBufferSize(p.BufferSize); err != nil {
			return err
		}
	}
	cb, err := build(c)
	if err != nil {
		return fmt.Errorf("build callback: %w", err)
	}
	if err := c.Start(cb); err != nil {
		return err
	}
	if p.OnStart != nil {
		if err := p.OnStart(c); err != nil {
			return fmt.Errorf("on start: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return c.Stop()
	case <-c.Done():
		return fmt.Errorf("%w: %s", ErrEngineShutdown, c.ShutdownReason())
	}
}
