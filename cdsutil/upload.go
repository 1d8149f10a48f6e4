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

package cdsutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/cdsfetch"
	"github.com/spatialmodel/cdsfetch/cloud"
	"github.com/spatialmodel/cdsfetch/dataset"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

func (u *uploader) uploadOutput(ctx context.Context) error {
	if u.err != nil {
		return u.err
	}
	for _, files := range u.files {
		b, err := ioutil.ReadFile(files[0])
		if err != nil {
			return fmt.Errorf("cdsutil: opening file '%s' for upload: %s", files[0], err)
		}
		if err := cloud.WriteFile(ctx, files[1], b); err != nil {
			return fmt.Errorf("cdsutil: uploading file '%s' to '%s': %s", files[0], files[1], err)
		}
	}
	return nil
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// uploadOutput method is run.
func (u *uploader) maybeUpload(path string) string {
	if u.err != nil {
		return ""
	}
	if !cloud.IsBlob(path) {
		return path
	}
	if u.dir == "" {
		u.dir, u.err = ioutil.TempDir("", "cdsfetch")
		if u.err != nil {
			return ""
		}
	}
	local := filepath.Join(u.dir, filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local
}

// cleanup removes any temporary files.
func (u *uploader) cleanup() {
	if u.dir != "" {
		os.RemoveAll(u.dir)
	}
}

// isNetCDF returns whether path has a NetCDF file extension.
func isNetCDF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".ncf":
		return true
	}
	return false
}

// writeOutput writes d to path, which can be a local file or a blob.
// Grids are written in NetCDF format if path has a NetCDF extension;
// everything else is written as JSON. If path is empty, d is written
// to w as JSON.
func writeOutput(ctx context.Context, w io.Writer, path string, d cdsfetch.Dataset) error {
	path = os.ExpandEnv(path)
	if path == "" {
		return dataset.WriteJSON(w, d)
	}
	u := new(uploader)
	defer u.cleanup()
	local := u.maybeUpload(path)
	if u.err != nil {
		return fmt.Errorf("cdsutil: preparing output upload: %v", u.err)
	}

	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("cdsutil: creating output file: %v", err)
	}
	if isNetCDF(path) {
		g, ok := d.(*dataset.Grid)
		if !ok {
			f.Close()
			return fmt.Errorf("cdsutil: only datasets opened with open_as=%s can be written to NetCDF, but the result is %T", cdsfetch.OpenDataset, d)
		}
		err = dataset.WriteNetCDF(f, g)
	} else {
		err = dataset.WriteJSON(f, d)
	}
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cdsutil: closing output file: %v", err)
	}
	return u.uploadOutput(ctx)
}
