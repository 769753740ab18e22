// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtime provides the process-level signal handling the REPL
// entry point runs under: Ctrl-C interrupts the read loop and gives it a
// bounded window to flush and exit before the process is torn down
// anyway.
package runtime

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"
)

// RunFunc is a unit of work that honours ctx cancellation.
type RunFunc func(ctx context.Context) error

// Run executes run under a context cancelled on os.Interrupt. Once
// cancelled, run has stopTimeout to return before Run gives up waiting
// and returns anyway; run's eventual error, if any, is then lost.
//
// The teacher's RunAll (multiple concurrent services under one
// errgroup) has no counterpart here: the engine is a single synchronous
// REPL loop, not a set of independent long-running services, so there is
// nothing to fan out (see DESIGN.md).
func Run(ctx context.Context, stopTimeout time.Duration, run RunFunc) error {
	notify := make(chan os.Signal, 3)
	signal.Notify(notify, os.Interrupt)
	defer signal.Stop(notify)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	once := &sync.Once{}
	fin := make(chan bool)
	unlockOnce := func() { once.Do(func() { close(fin) }) }

	runErr := atomic.Value{}
	go func() {
		if err := run(ctx); err != nil {
			runErr.Store(err)
		}
		unlockOnce()
	}()

	select {
	case <-notify:
	case <-fin:
	}
	cancel()

	go func() {
		<-time.After(stopTimeout)
		unlockOnce()
	}()
	<-fin

	if err, ok := runErr.Load().(error); ok {
		return err
	}
	return nil
}
