package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/mfsync/mfsync/auth"
	"github.com/mfsync/mfsync/doc"
)

// loadConfig reads the JSON config file. Expected shape:
//
//	{
//	  "listen": ":8388",
//	  "audit": "audit.log",
//	  "doc":   {"type": "file", "path": "master.txt"},
//	  "creds": {"type": "file", "path": "users.json"}
//	}
//
// The doc and creds sections name a registered store type
// plus that type's own parameters.
func loadConfig(filename string) (map[string]interface{}, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config file %s", filename)
	}
	defer f.Close()

	var conf map[string]interface{}
	dec := json.NewDecoder(f)
	dec.UseNumber()
	err = dec.Decode(&conf)
	return conf, errors.Wrapf(err, "decoding config file %s", filename)
}

func (c maincmd) docStore(ctx context.Context) (doc.Store, error) {
	sub, typ, err := section(c.conf, "doc")
	if err != nil {
		return nil, err
	}
	s, err := doc.Create(ctx, typ, sub)
	return s, errors.Wrapf(err, "creating %s-type document store", typ)
}

func (c maincmd) credStore(ctx context.Context) (auth.Store, error) {
	sub, typ, err := section(c.conf, "creds")
	if err != nil {
		return nil, err
	}
	s, err := auth.Create(ctx, typ, sub)
	return s, errors.Wrapf(err, "creating %s-type credential store", typ)
}

func section(conf map[string]interface{}, key string) (map[string]interface{}, string, error) {
	sub, ok := conf[key].(map[string]interface{})
	if !ok {
		return nil, "", fmt.Errorf("config missing `%s` section", key)
	}
	typ, ok := sub["type"].(string)
	if !ok {
		return nil, "", fmt.Errorf("config section `%s` missing `type` parameter", key)
	}
	return sub, typ, nil
}

func (c maincmd) stringParam(key, fallback string) string {
	if v, ok := c.conf[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
