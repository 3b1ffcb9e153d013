// Command mfsync runs a master-document synchronization server
// and the tools for administering it.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/bobg/subcmd"

	_ "github.com/mfsync/mfsync/auth/file"
	_ "github.com/mfsync/mfsync/auth/mem"
	_ "github.com/mfsync/mfsync/auth/pg"
	_ "github.com/mfsync/mfsync/auth/sqlite3"
	_ "github.com/mfsync/mfsync/doc/file"
	_ "github.com/mfsync/mfsync/doc/gcs"
	_ "github.com/mfsync/mfsync/doc/mem"
)

type maincmd struct {
	conf map[string]interface{}
}

func main() {
	config := flag.String("config", "mfsyncconf.json", "path to config file")
	flag.Parse()

	if *config == "" {
		log.Fatal("Config value not set")
	}

	conf, err := loadConfig(*config)
	if err != nil {
		log.Fatalf("Loading config file %s: %s", *config, err)
	}

	ctx := context.Background()

	err = subcmd.Run(ctx, maincmd{conf: conf}, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
}

func (c maincmd) Subcmds() map[string]subcmd.Subcmd {
	return map[string]subcmd.Subcmd{
		"serve":      c.serve,
		"add-user":   c.addUser,
		"list-users": c.listUsers,
		"put":        c.put,
		"watch":      c.watch,
	}
}
