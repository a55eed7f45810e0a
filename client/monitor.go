package client

// This file contains a poller that watches the status of a remote strip and
// hands each report to a listener

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-stack/stack"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver/model"
)

// Monitor regularly fetches the status of a remote strip
type Monitor struct {
	remote  *Remote
	statusC chan<- *model.Status
	errorC  chan<- error
}

// NewMonitor creates a poller sending reports on statusC and failures on errorC
func NewMonitor(remote *Remote, statusC chan<- *model.Status, errorC chan<- error) *Monitor {
	return &Monitor{
		remote:  remote,
		statusC: statusC,
		errorC:  errorC,
	}
}

func (mon *Monitor) sendStatus(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()

	status, err := mon.remote.Status(ctx)
	if err != nil {
		go func(err error) {
			select {
			case mon.errorC <- err:
			case <-time.After(500 * time.Millisecond):
				fmt.Fprintf(os.Stderr, "could not send error for strip status update %s\n", err.Error())
			}
		}(err)
		return
	}

	select {
	case mon.statusC <- status:
	case <-time.After(interval * 3 / 4):
		go func() {
			err := errors.Errorf("strip status dropped %s", stack.Trace().TrimRuntime().String())
			select {
			case mon.errorC <- err:
			case <-time.After(2 * time.Second):
				fmt.Fprintf(os.Stderr, "could not send error for strip status update %s\n", err.Error())
			}
		}()
	}
}

// Run polls every interval until quitC is closed
func (mon *Monitor) Run(ctx context.Context, interval time.Duration, quitC <-chan struct{}) {
	if interval <= 0 {
		interval = time.Second
	}
	poll := time.NewTicker(interval)
	defer poll.Stop()

	for {
		select {
		case <-poll.C:
			mon.sendStatus(ctx, interval)

		case <-ctx.Done():
			return

		case <-quitC:
			return
		}
	}
}
