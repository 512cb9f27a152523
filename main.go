/*
This is an example of application that will use the
render pipeline package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prism/testbed"
)

func main() {
	assetPath := flag.String("pipeline", "", "path to a pipeline asset TOML, watched for edits")
	flag.Parse()

	demo := testbed.NewDemo()

	if err := demo.Initialize(*assetPath); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = demo.Shutdown()
	}()

	if err := demo.Run(); err != nil {
		panic(err)
	}

	if err := demo.Shutdown(); err != nil {
		panic(err)
	}
}
