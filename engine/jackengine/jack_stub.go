// SPDX-License-Identifier: EPL-2.0

//go:build !jack

package jackengine

import (
	"fmt"

	"github.com/ik5/audjack/engine"
)

// Engine is a placeholder when built without the jack tag.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Available reports whether the package was built with JACK support.
func Available() bool { return false }

func (e *Engine) Connect(clientName, _ string) (engine.Handle, error) {
	return nil, fmt.Errorf("client %q: build with -tags jack: %w", clientName, engine.ErrUnavailable)
}
