package service

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Stopper is the interface of services that can be stopped.
type Stopper interface {
	Stop() error
}

// StopHandler watches SIGINT and SIGTERM and stops the given services on
// the first one received.
func StopHandler(servers ...Stopper) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	sig := <-signals
	log.Printf("received %s, shutting down ...", sig)
	for _, srv := range servers {
		if err := srv.Stop(); err != nil {
			log.Printf("error stopping server: %s", err.Error())
		}
	}
}
