// Package storage keeps uploaded book icons on local disk or in MinIO/S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// IconPrefix is the relative path every icon key lives under.
const IconPrefix = "images/booksicon"

// IconStore persists uploaded icons under relative keys.
type IconStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// IconKey builds the relative key for an upload: images/booksicon/<unix-millis>-<name>.
// Directory components of the client-supplied name are dropped.
func IconKey(now time.Time, originalName string) string {
	name := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "icon"
	}
	return path.Join(IconPrefix, fmt.Sprintf("%d-%s", now.UnixMilli(), name))
}
