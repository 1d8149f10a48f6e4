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
	"testing"

	"github.com/cenkalti/backoff"
	"github.com/spatialmodel/cdsfetch"
	"gocloud.dev/blob"
)

func testRequest() cdsfetch.Request {
	return cdsfetch.Request{
		"variable": cdsfetch.Scalar("2m_temperature"),
		"year":     cdsfetch.Scalar("2020"),
		"month":    cdsfetch.List("01", "02"),
		"day":      cdsfetch.Scalar("01"),
	}
}

func TestBucketRetriever(t *testing.T) {
	ctx := context.Background()
	b, err := NewBucketRetriever(ctx, "mem://test_mirror/era5", 0)
	if err != nil {
		t.Fatal(err)
	}
	r := testRequest()
	if err := b.Store(ctx, "reanalysis-era5-single-levels", r, []byte(`{"columns":["a"]}`)); err != nil {
		t.Fatal(err)
	}
	raw, err := b.Retrieve(ctx, "reanalysis-era5-single-levels", r.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if have := string(raw.([]byte)); have != `{"columns":["a"]}` {
		t.Errorf("have %s", have)
	}

	// The same request in another collection is not mirrored.
	_, err = b.Retrieve(ctx, "reanalysis-era5-land", r)
	if !errors.Is(err, ErrNotMirrored) {
		t.Errorf("have %v, want ErrNotMirrored", err)
	}
}

func TestBucketRetriever_Key(t *testing.T) {
	b := &BucketRetriever{Prefix: "era5"}
	r := testRequest()
	k1 := b.Key("c", r)
	k2 := b.Key("c", r.With(cdsfetch.Request{"day": cdsfetch.Scalar("02")}))
	if k1 == k2 {
		t.Errorf("different requests have the same key %s", k1)
	}
	if k1 != b.Key("c", r.Clone()) {
		t.Error("equal requests have different keys")
	}
	if want := 4 + 1 + 1 + 1 + 32 + 5; len(k1) != want {
		t.Errorf("key %s has length %d, want %d", k1, len(k1), want)
	}
}

func TestBucketRetriever_retry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		retries  int
		failures int
		wantErr  bool
		calls    int
	}{
		{name: "succeed", retries: 3, failures: 2, calls: 3},
		{name: "give up", retries: 1, failures: 2, wantErr: true, calls: 2},
		{name: "no retries", retries: 0, failures: 1, wantErr: true, calls: 1},
		{name: "no retries persistent", retries: 0, failures: 999, wantErr: true, calls: 1},
		{name: "negative retries", retries: -1, failures: 999, wantErr: true, calls: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			calls := 0
			b := &BucketRetriever{
				Retries: test.retries,
				BackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
				read: func(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error) {
					calls++
					if calls <= test.failures {
						return nil, fmt.Errorf("transient failure %d", calls)
					}
					return []byte("ok"), nil
				},
			}
			_, err := b.Retrieve(ctx, "c", testRequest())
			if (err != nil) != test.wantErr {
				t.Errorf("error: %v, want error: %v", err, test.wantErr)
			}
			if calls != test.calls {
				t.Errorf("have %d calls, want %d", calls, test.calls)
			}
		})
	}
}
