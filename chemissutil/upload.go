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

package chemissutil

import (
	"context"
	"io/ioutil"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/chemiss/cloud"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

// outputPath returns the path of output file name in directory dir.
// If dir refers to a blob storage location, a temporary local path is
// returned and the file is uploaded to dir when uploadOutput is run.
func (u *uploader) outputPath(dir, name string) string {
	if u.err != nil {
		return ""
	}
	if !cloud.IsBlob(dir) {
		return filepath.Join(dir, name)
	}
	if u.dir == "" {
		u.dir, u.err = ioutil.TempDir("", "chemiss")
		if u.err != nil {
			return ""
		}
	}
	local := filepath.Join(u.dir, name)
	u.files = append(u.files, [2]string{local, strings.TrimSuffix(dir, "/") + "/" + path.Clean(name)})
	return local
}

// uploadOutput uploads the files registered with outputPath.
func (u *uploader) uploadOutput(ctx context.Context, log logrus.FieldLogger) error {
	if u.err != nil {
		return u.err
	}
	for _, files := range u.files {
		log.WithFields(logrus.Fields{"file": files[0], "destination": files[1]}).Info("uploading")
		if err := cloud.UploadFile(ctx, files[0], files[1]); err != nil {
			return err
		}
	}
	return nil
}
