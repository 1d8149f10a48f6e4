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

package cdsfetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cdsfetch/internal/hash"
)

// Dataset is the result of retrieving and opening one request, or of
// combining several of them. Its contents are only inspected by the
// Opener, Transform and Combiner that produce and consume it.
type Dataset interface{}

// RawHandle is the unopened result of a retrieval.
type RawHandle interface{}

// A Retriever retrieves the data for a request from a collection.
type Retriever interface {
	Retrieve(ctx context.Context, collectionID string, r Request) (RawHandle, error)
}

// An Opener opens retrieved data as a Dataset of the given kind.
type Opener interface {
	Open(ctx context.Context, raw RawHandle, mode OpenMode) (Dataset, error)
}

// A Combiner combines datasets into one.
type Combiner interface {
	// Align merges datasets by aligning their coordinates.
	Align(datasets []Dataset, opts MergeOptions) (Dataset, error)

	// Concat stacks the rows of the datasets.
	Concat(datasets []Dataset, opts MergeOptions) (Dataset, error)
}

// A Transform is applied to each retrieved dataset before it is combined
// with the others. Name identifies the transform in cache keys, so
// transforms that behave differently must have different names.
type Transform interface {
	Name() string
	Apply(ctx context.Context, d Dataset) (Dataset, error)
}

// NamedTransform returns a Transform that calls f.
func NamedTransform(name string, f func(context.Context, Dataset) (Dataset, error)) Transform {
	return transformFunc{name: name, f: f}
}

type transformFunc struct {
	name string
	f    func(context.Context, Dataset) (Dataset, error)
}

func (t transformFunc) Name() string { return t.name }

func (t transformFunc) Apply(ctx context.Context, d Dataset) (Dataset, error) { return t.f(ctx, d) }

// OpenMode specifies how retrieved data is opened, which in turn
// determines how the pieces are combined.
type OpenMode string

const (
	// OpenTable opens data as tables, which are combined by stacking
	// their rows.
	OpenTable OpenMode = "table"

	// OpenDataset opens data as coordinate datasets, which are combined
	// by aligning their coordinates.
	OpenDataset OpenMode = "dataset"
)

// ParseOpenMode checks that s is a valid open mode. An empty string
// selects OpenTable.
func ParseOpenMode(s string) (OpenMode, error) {
	switch OpenMode(s) {
	case "", OpenTable:
		return OpenTable, nil
	case OpenDataset:
		return OpenDataset, nil
	default:
		return "", fmt.Errorf("%w %q; valid options are %q and %q", ErrInvalidOpenMode, s, OpenTable, OpenDataset)
	}
}

// MergeOptions are passed through unchanged to the Combiner.
type MergeOptions map[string]interface{}

// FetchOptions hold the settings for Fetcher.DownloadAndTransform.
type FetchOptions struct {
	// Chunks specifies how each request is split before retrieval.
	Chunks ChunkSpec

	// Transform, if not nil, is applied to each retrieved chunk.
	Transform Transform

	// OpenAs specifies how the retrieved data is opened and combined.
	// The default is OpenTable.
	OpenAs OpenMode

	// Merge holds options for the Combiner.
	Merge MergeOptions
}

// Fetcher retrieves requests in chunks and combines the results.
// Identical chunks within one call to DownloadAndTransform are retrieved
// once. Across calls, results are memoized in an in-memory LRU cache of
// CacheSize entries, and on disk when CacheDir is set.
//
// The first call starts runtime.GOMAXPROCS(-1) worker goroutines that
// run for the life of the program, so a Fetcher should be reused rather
// than created for each request.
type Fetcher struct {
	Retriever Retriever
	Opener    Opener
	Combiner  Combiner

	// Log receives progress messages. The default is the logrus
	// standard logger.
	Log logrus.FieldLogger

	// Tag partitions the cache: results stored under one tag are not
	// visible under another.
	Tag string

	// CacheDir, if not empty, is the directory where results are
	// persisted between runs. Results are stored in the subdirectory
	// named after Tag. Results must be registered with encoding/gob.
	CacheDir string

	// CacheSize specifies the number of results held in memory between
	// calls. Older results are evicted and retrieved again if needed,
	// unless CacheDir is set.
	CacheSize int

	cache     *requestcache.Cache
	cacheErr  error
	cacheInit sync.Once
}

// NewFetcher returns a Fetcher with an in-memory cache of 100 results.
func NewFetcher(r Retriever, o Opener, c Combiner) *Fetcher {
	return &Fetcher{
		Retriever: r,
		Opener:    o,
		Combiner:  c,
		CacheSize: 100,
	}
}

func (f *Fetcher) log() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}

// fetchRequest is the payload of a cache request.
type fetchRequest struct {
	collectionID string
	request      Request
	transform    Transform
	mode         OpenMode
}

// cacheKey identifies a fetchRequest.
type cacheKey struct {
	Tag        string
	Collection string
	Request    string
	Transform  string
	OpenAs     string
}

func (f *Fetcher) key(r fetchRequest) string {
	k := cacheKey{
		Tag:        f.Tag,
		Collection: r.collectionID,
		Request:    r.request.String(),
		OpenAs:     string(r.mode),
	}
	if r.transform != nil {
		k.Transform = r.transform.Name()
	}
	return hash.Hash(k)
}

func (f *Fetcher) initCache() {
	size := f.CacheSize
	if size < 1 {
		size = 1
	}
	caches := []requestcache.CacheFunc{requestcache.Memory(size)}
	if f.CacheDir != "" {
		dir := filepath.Join(f.CacheDir, f.Tag)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			f.cacheErr = fmt.Errorf("cdsfetch: creating cache directory: %v", err)
			return
		}
		caches = append(caches, requestcache.Disk(dir, requestcache.MarshalGob, requestcache.UnmarshalGob))
	}
	f.cache = requestcache.NewCache(f.process, runtime.GOMAXPROCS(-1), caches...)
}

// process retrieves, opens and transforms a single request.
func (f *Fetcher) process(ctx context.Context, payload interface{}) (interface{}, error) {
	r := payload.(fetchRequest)
	raw, err := f.Retriever.Retrieve(ctx, r.collectionID, r.request)
	if err != nil {
		return nil, err
	}
	d, err := f.Opener.Open(ctx, raw, r.mode)
	if err != nil {
		return nil, err
	}
	if r.transform != nil {
		return r.transform.Apply(ctx, d)
	}
	return d, nil
}

// fetch returns the dataset for a single request, using the cache.
func (f *Fetcher) fetch(ctx context.Context, r fetchRequest, key string) (Dataset, error) {
	f.cacheInit.Do(f.initCache)
	if f.cacheErr != nil {
		return nil, f.cacheErr
	}
	return f.cache.NewRequest(ctx, r, key).Result()
}

// DownloadAndTransform splits each of the given requests according to
// opts.Chunks, retrieves and opens every resulting chunk, applies
// opts.Transform to it, and combines all of the chunks into one
// dataset. Chunks are combined in the order they were produced, with
// Combiner.Align for OpenDataset and Combiner.Concat for OpenTable.
//
// Invalid open modes and chunk specifications are reported before
// anything is retrieved. Errors from the Retriever, Opener, Transform
// and Combiner are returned unchanged.
func (f *Fetcher) DownloadAndTransform(ctx context.Context, collectionID string, requests RequestSet, opts FetchOptions) (Dataset, error) {
	mode, err := ParseOpenMode(string(opts.OpenAs))
	if err != nil {
		return nil, err
	}

	if requests == nil {
		return nil, fmt.Errorf("cdsfetch: no requests to retrieve")
	}
	var chunks []Request
	for _, r := range requests.Requests() {
		split, err := SplitRequest(r, opts.Chunks)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, split...)
	}

	datasets := make([]Dataset, len(chunks))
	seen := make(map[string]int, len(chunks))
	for i, c := range chunks {
		fr := fetchRequest{
			collectionID: collectionID,
			request:      c,
			transform:    opts.Transform,
			mode:         mode,
		}
		key := f.key(fr)
		if j, ok := seen[key]; ok {
			datasets[i] = datasets[j]
			continue
		}
		seen[key] = i
		f.log().WithFields(logrus.Fields{
			"collection": collectionID,
			"chunk":      fmt.Sprintf("%d/%d", i+1, len(chunks)),
			"key":        key,
		}).Info("retrieving")
		datasets[i], err = f.fetch(ctx, fr, key)
		if err != nil {
			return nil, err
		}
	}

	f.log().WithFields(logrus.Fields{
		"collection": collectionID,
		"chunks":     len(datasets),
		"open_as":    mode,
	}).Info("combining")
	if mode == OpenDataset {
		return f.Combiner.Align(datasets, opts.Merge)
	}
	return f.Combiner.Concat(datasets, opts.Merge)
}
