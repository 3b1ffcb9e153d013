package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mfsync/mfsync/testutil"
)

func TestStore(t *testing.T) {
	dirname, err := os.MkdirTemp("", "authfilestore")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dirname)

	testutil.Credentials(context.Background(), t, New(filepath.Join(dirname, "users.json")))
}
