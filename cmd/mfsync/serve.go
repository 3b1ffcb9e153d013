package main

import (
	"context"
	stderrs "errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/pkg/errors"
	"github.com/rjeczalik/notify"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/audit"
	"github.com/mfsync/mfsync/auth"
	"github.com/mfsync/mfsync/doc/file"
	"github.com/mfsync/mfsync/engine"
	"github.com/mfsync/mfsync/httpd"
	"github.com/mfsync/mfsync/ledger"
)

func (c maincmd) serve(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		listen = fs.String("listen", c.stringParam("listen", ":8388"), "listen address")
		watch  = fs.Bool("watch", false, "log changes to a file-type document store as they happen")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	docs, err := c.docStore(ctx)
	if err != nil {
		return err
	}
	creds, err := c.credStore(ctx)
	if err != nil {
		return err
	}
	err = c.bootstrapUser(ctx, creds)
	if err != nil {
		return err
	}

	trail, closeTrail, err := c.auditTrail()
	if err != nil {
		return err
	}
	defer closeTrail()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		sig := <-sigCh
		log.Printf("got signal %s", sig)
		cancel()
	}()

	d := engine.NewDispatcher(engine.New(docs, ledger.New()), creds, trail)

	l, err := net.Listen("tcp", *listen)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", *listen)
	}

	var wg sync.WaitGroup

	if *watch {
		fileStore, ok := docs.(*file.Store)
		if !ok {
			return errors.New("-watch requires a file-type document store")
		}
		watchMaster(ctx, &wg, fileStore, trail)
	}

	srv := &http.Server{Handler: httpd.New(d).Handler()}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		srv.Shutdown(context.TODO())
	}()

	log.Printf("listening on %s", l.Addr())
	err = srv.Serve(l)
	if !stderrs.Is(err, http.ErrServerClosed) {
		return err
	}

	wg.Wait()
	return nil
}

var errStopListing = stderrs.New("stop listing")

// bootstrapUser seeds an empty credential store with the user named in
// the config's `bootstrap` section, so a fresh deployment can
// authenticate without a separate add-user step.
// A store that already has users is left alone.
func (c maincmd) bootstrapUser(ctx context.Context, creds auth.Store) error {
	empty := true
	err := creds.List(ctx, func(string) error {
		empty = false
		return errStopListing
	})
	if err != nil && !stderrs.Is(err, errStopListing) {
		return errors.Wrap(err, "listing users")
	}
	if !empty {
		return nil
	}

	sub, ok := c.conf["bootstrap"].(map[string]interface{})
	if !ok {
		log.Print("credential store is empty and no bootstrap user is configured; no caller can authenticate until add-user is run")
		return nil
	}
	username, ok := sub["username"].(string)
	if !ok {
		return errors.New("config section `bootstrap` missing `username` parameter")
	}
	password, ok := sub["password"].(string)
	if !ok {
		return errors.New("config section `bootstrap` missing `password` parameter")
	}

	err = creds.Add(ctx, username, password)
	if err != nil {
		return errors.Wrapf(err, "adding bootstrap user %s", username)
	}
	log.Printf("created bootstrap user %s", username)
	return nil
}

func (c maincmd) auditTrail() (*audit.Trail, func(), error) {
	path := c.stringParam("audit", "")
	if path == "" {
		return audit.New(os.Stderr), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening audit log %s", path)
	}
	return audit.New(f), func() { f.Close() }, nil
}

// watchMaster records an audit entry whenever the master file
// changes on disk, so out-of-band edits show up in the trail.
func watchMaster(ctx context.Context, wg *sync.WaitGroup, docs *file.Store, trail *audit.Trail) {
	fsch := make(chan notify.EventInfo, 100)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer notify.Stop(fsch)

		var last mfsync.Ref

		for {
			select {
			case <-ctx.Done():
				log.Print("context canceled, exiting filesystem watcher")
				return

			case <-fsch:
				snap, err := docs.Read(ctx)
				if err != nil {
					log.Printf("ERROR reading master after change: %s", err)
					continue
				}
				if snap.Ref == last {
					continue
				}
				last = snap.Ref
				trail.Record(audit.Entry{
					Operation: "master_changed",
					Success:   true,
					Detail:    snap.Ref.String(),
				})
			}
		}
	}()

	err := notify.Watch(docs.Path(), fsch, notify.All)
	if err != nil {
		log.Fatal(err)
	}
}
