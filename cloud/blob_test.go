/*
Copyright © 2019 the chemiss authors.
This file is part of chemiss.

chemiss is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

chemiss is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with chemiss.  If not, see <http://www.gnu.org/licenses/>.
*/

package cloud

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/wrfchemi_00z_d01": true,
		"s3://bucket/dir":              true,
		"file://dir/file":              true,
		"/home/user/wrfinput_d01":      false,
		"http://example.com/file":      false,
	} {
		if IsBlob(path) != want {
			t.Errorf("IsBlob(%s) != %v", path, want)
		}
	}
}

func TestSplitBlobPath(t *testing.T) {
	bucket, key, err := splitBlobPath("gs://emissions/2019/wrfchemi_00z_d01")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "gs://emissions" || key != "2019/wrfchemi_00z_d01" {
		t.Errorf("have bucket %s and key %s", bucket, key)
	}
	if _, _, err := splitBlobPath("gs://emissions"); err == nil {
		t.Errorf("expected an error for a path without a key")
	}
}

func TestOpenBucket_invalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Errorf("expected an error for an unsupported provider")
	}
}

func TestUploadDownload(t *testing.T) {
	const bucket = "testBucket"
	if err := os.Mkdir(bucket, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucket)
	ctx := context.Background()

	if err := Upload(ctx, strings.NewReader("emissions"), "file://"+bucket+"/wrfchemi_00z_d01"); err != nil {
		t.Fatal(err)
	}
	b := new(bytes.Buffer)
	if err := Download(ctx, "file://"+bucket+"/wrfchemi_00z_d01", b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "emissions" {
		t.Errorf("downloaded %q", b.String())
	}
	if err := Download(ctx, "file://"+bucket+"/missing", b); err == nil {
		t.Errorf("expected an error for a missing blob")
	}
}

func TestUploadFile_shapefile(t *testing.T) {
	const bucket = "testShpBucket"
	if err := os.Mkdir(bucket, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucket)
	dir, err := ioutil.TempDir("", "cloud_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	local := filepath.Join(dir, "grid.shp")
	for _, f := range ExpandShp(local) {
		if err := ioutil.WriteFile(f, []byte(filepath.Ext(f)), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := UploadFile(context.Background(), local, "file://"+bucket+"/grid.shp"); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".shp", ".dbf", ".shx", ".prj"} {
		b, err := ioutil.ReadFile(filepath.Join(bucket, "grid"+ext))
		if err != nil {
			t.Error(err)
			continue
		}
		if string(b) != ext {
			t.Errorf("%s file holds %q", ext, b)
		}
	}
}

func TestExpandShp(t *testing.T) {
	if have, want := ExpandShp("a/b.shp"), []string{"a/b.shp", "a/b.dbf", "a/b.shx", "a/b.prj"}; !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if have, want := ExpandShp("a/b.nc"), []string{"a/b.nc"}; !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}
