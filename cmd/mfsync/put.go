package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync"
)

func (c maincmd) put(ctx context.Context, fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	docs, err := c.docStore(ctx)
	if err != nil {
		return err
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return errors.Wrap(err, "reading stdin")
	}

	err = docs.Write(ctx, mfsync.Doc(content))
	if err != nil {
		return errors.Wrap(err, "writing document")
	}

	log.Printf("new version %s", mfsync.Doc(content).Ref())
	return nil
}
