package feedsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/txbridge/internal/logger"
)

const gcsScheme = "gs://"

// Fetch reads a feed document from src. A gs://bucket/object URI is read from
// Cloud Storage; anything else is treated as a local file path.
func Fetch(ctx context.Context, src string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(src, gcsScheme) {
		data, err = fetchGCS(ctx, src)
	} else {
		data, err = os.ReadFile(src)
		if err != nil {
			err = fmt.Errorf("Fetch: reading feed file %q: %w", src, err)
		}
	}
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("source", src).
		Int("bytes", len(data)).
		Msg("Feed fetched")

	return data, nil
}

func fetchGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := splitGCSURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: creating storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: opening %q: %w", uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading %q: %w", uri, err)
	}

	return data, nil
}

// splitGCSURI splits gs://bucket/path/to/object into bucket and object name.
func splitGCSURI(uri string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(uri, gcsScheme)
	bucket, object, found := strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid GCS URI %q", uri)
	}
	return bucket, object, nil
}
