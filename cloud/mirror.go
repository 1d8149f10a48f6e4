/*
Copyright © 2023 the cdsfetch authors.
This file is part of cdsfetch.

cdsfetch is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cdsfetch is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cdsfetch.  If not, see <http://www.gnu.org/licenses/>.
*/

package cloud

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cdsfetch"
	"github.com/spatialmodel/cdsfetch/internal/hash"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrNotMirrored is returned when a request is not present in a mirror.
var ErrNotMirrored = errors.New("cloud: request is not mirrored")

// BucketRetriever retrieves requests from a mirror of a remote data store
// kept in a blob storage bucket. The response to each request is stored
// as a single object keyed by the collection and a hash of the request.
// It implements cdsfetch.Retriever; the retrieved data is a []byte.
type BucketRetriever struct {
	Bucket *blob.Bucket

	// Prefix is prepended to every object key.
	Prefix string

	// Retries is the number of times a failed read is retried before
	// giving up. Missing objects are never retried.
	Retries int

	// Log receives retry messages. The default is the logrus
	// standard logger.
	Log logrus.FieldLogger

	// BackOff returns the retry schedule. The default is exponential
	// backoff.
	BackOff func() backoff.BackOff

	read func(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error)
}

// NewBucketRetriever opens the mirror at mirrorURL, which is a bucket
// name as accepted by OpenBucket, optionally followed by a path that is
// used as the key prefix (e.g., 's3://bucket/era5').
func NewBucketRetriever(ctx context.Context, mirrorURL string, retries int) (*BucketRetriever, error) {
	bucketName, prefix, err := SplitBlobPath(mirrorURL)
	if err != nil {
		return nil, err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	return &BucketRetriever{
		Bucket:  bucket,
		Prefix:  prefix,
		Retries: retries,
	}, nil
}

// Key returns the object key where the response to r is stored.
func (b *BucketRetriever) Key(collectionID string, r cdsfetch.Request) string {
	return path.Join(b.Prefix, collectionID, hash.Hash(r.String())+".json")
}

// Retrieve implements cdsfetch.Retriever.
func (b *BucketRetriever) Retrieve(ctx context.Context, collectionID string, r cdsfetch.Request) (cdsfetch.RawHandle, error) {
	key := b.Key(collectionID, r)
	read := b.read
	if read == nil {
		read = readBlob
	}
	var bo backoff.BackOff
	if b.BackOff != nil {
		bo = b.BackOff()
	} else {
		bo = backoff.NewExponentialBackOff()
	}
	if b.Retries > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(b.Retries))
	} else {
		// WithMaxRetries treats 0 as unlimited.
		bo = &backoff.StopBackOff{}
	}
	bo = backoff.WithContext(bo, ctx)

	var data []byte
	var notFound error
	err := backoff.RetryNotify(
		func() error {
			var err error
			data, err = read(ctx, b.Bucket, key)
			if gcerrors.Code(err) == gcerrors.NotFound {
				notFound = err
				return nil
			}
			return err
		},
		bo,
		func(err error, d time.Duration) {
			b.log().WithFields(logrus.Fields{
				"collection": collectionID,
				"key":        key,
			}).Warnf("%v: retrying in %v", err, d)
		},
	)
	if notFound != nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNotMirrored, collectionID, r)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Store saves data as the response to r, so that it can later be
// retrieved.
func (b *BucketRetriever) Store(ctx context.Context, collectionID string, r cdsfetch.Request, data []byte) error {
	return writeBlob(ctx, b.Bucket, b.Key(collectionID, r), data)
}

func (b *BucketRetriever) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}
