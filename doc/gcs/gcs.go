// Package gcs implements a document store in a Google Cloud Storage object.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/mfsync/mfsync"
	"github.com/mfsync/mfsync/doc"
)

var _ doc.Store = &Store{}

// Store is a Google Cloud Storage-based implementation of a document store.
type Store struct {
	bucket *storage.BucketHandle
	name   string
}

// New produces a new Store for the document in the named object of bucket.
func New(bucket *storage.BucketHandle, name string) *Store {
	return &Store{bucket: bucket, name: name}
}

// Read returns a consistent snapshot of the document.
// The read is pinned to the object generation observed in its attributes,
// so the content always matches the reported modification time.
func (s *Store) Read(ctx context.Context) (doc.Snapshot, error) {
	obj := s.bucket.Object(s.name)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return doc.Snapshot{}, errors.Wrapf(err, "getting attrs of object %s", s.name)
	}

	r, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return doc.Snapshot{}, errors.Wrapf(err, "reading object %s (generation %d)", s.name, attrs.Generation)
	}

	b := make([]byte, r.Attrs.Size)
	err = func() error {
		defer r.Close()

		_, err := io.ReadFull(r, b)
		return errors.Wrapf(err, "reading contents of object %s", s.name)
	}()
	if err != nil {
		return doc.Snapshot{}, err
	}

	d := mfsync.Doc(b)
	return doc.Snapshot{Content: d, Ref: d.Ref(), ModTime: attrs.Updated}, nil
}

// Write replaces the document content.
func (s *Store) Write(ctx context.Context, content mfsync.Doc) error {
	w := s.bucket.Object(s.name).NewWriter(ctx)
	_, err := w.Write(content)
	if err != nil {
		w.Close()
		return errors.Wrapf(err, "writing object %s", s.name)
	}
	return errors.Wrapf(w.Close(), "closing object %s", s.name)
}

func init() {
	doc.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (doc.Store, error) {
		bucketName, ok := conf["bucket"].(string)
		if !ok {
			return nil, errors.New(`missing "bucket" parameter`)
		}
		objName, ok := conf["object"].(string)
		if !ok {
			return nil, errors.New(`missing "object" parameter`)
		}

		var opts []option.ClientOption
		if creds, ok := conf["creds"].(string); ok {
			opts = append(opts, option.WithCredentialsFile(creds))
		}

		c, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, errors.Wrap(err, "creating gcs client")
		}
		return New(c.Bucket(bucketName), objName), nil
	})
}
