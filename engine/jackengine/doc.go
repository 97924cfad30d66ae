// SPDX-License-Identifier: EPL-2.0

// Package jackengine implements the engine contract on a JACK server using
// github.com/xthexder/go-jack. It needs cgo and libjack and is only built
// with the jack build tag:
//
//	go build -tags jack ./...
//
// Without the tag Connect fails with engine.ErrUnavailable.
//
// go-jack cannot pass a server name to jack_client_open, so a non-empty
// server name is handed to libjack through JACK_DEFAULT_SERVER for the
// duration of the open.
package jackengine
