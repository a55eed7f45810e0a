package main

import (
	"fmt"
	"os"
)

var (
	msgV = os.Stdout
	errV = os.Stderr
)

// msgWatch prints progress messages and the errors raised by the background
// components until quitC is closed
func msgWatch(msgsC <-chan string, errorC <-chan error, quitC <-chan struct{}) {
	for {
		select {
		case msg := <-msgsC:
			if msgV != nil {
				fmt.Fprint(msgV, msg)
			}
		case err := <-errorC:
			if errV != nil {
				fmt.Fprintln(errV, err.Error())
			}
		case <-quitC:
			return
		}
	}
}
