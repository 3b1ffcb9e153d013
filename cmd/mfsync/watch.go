package main

import (
	"context"
	stderrs "errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/client"
)

func (c maincmd) watch(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		server   = fs.String("server", "http://localhost:8388", "server URL")
		username = fs.String("username", "", "username")
		password = fs.String("password", "", "password")
		protocol = fs.String("protocol", "RR", "delivery protocol (R, RR or RRA)")
		interval = fs.Duration("interval", client.DefaultInterval, "polling interval")
		ackDelay = fs.Duration("ack-delay", time.Second, "delay before RRA acknowledgment")
		mirror   = fs.String("mirror", "mirror.txt", "path of local mirror file")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if *username == "" || *password == "" {
		return errors.New("must supply -username and -password")
	}

	p, err := mfsync.ParseProtocol(*protocol)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		sig := <-sigCh
		log.Printf("got signal %s", sig)
		cancel()
	}()

	m := &client.Monitor{
		C:        client.New(*server, *username, *password),
		Path:     *mirror,
		Protocol: p,
		Interval: *interval,
		AckDelay: *ackDelay,
	}

	err = m.Run(ctx)
	if stderrs.Is(err, context.Canceled) {
		return nil
	}
	return err
}
