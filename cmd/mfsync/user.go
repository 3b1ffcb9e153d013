package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"
)

func (c maincmd) addUser(ctx context.Context, fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}
	if fs.NArg() != 2 {
		return errors.New("usage: add-user USERNAME PASSWORD")
	}

	creds, err := c.credStore(ctx)
	if err != nil {
		return err
	}

	username := fs.Arg(0)
	err = creds.Add(ctx, username, fs.Arg(1))
	return errors.Wrapf(err, "adding user %s", username)
}

func (c maincmd) listUsers(ctx context.Context, fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	creds, err := c.credStore(ctx)
	if err != nil {
		return err
	}

	return creds.List(ctx, func(username string) error {
		fmt.Println(username)
		return nil
	})
}
