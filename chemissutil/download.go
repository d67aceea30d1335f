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
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/chemiss/cloud"
)

// maxDownloadRetries is the number of times a failed HTTP download
// is retried.
const maxDownloadRetries = 4

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob.
// If it is, it downloads the file to a temporary directory and
// returns the path to the downloaded file.
// Other paths are returned unchanged.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return downloadHTTP(ctx, path, log)
	case cloud.IsBlob(path):
		return downloadBlob(ctx, path, log)
	}
	return path, nil
}

// downloadDest creates a file in a new temporary directory with the
// same base name as the given URL.
func downloadDest(path string) (*os.File, error) {
	u, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	dir, err := ioutil.TempDir("", "chemiss")
	if err != nil {
		return nil, fmt.Errorf("creating temporary download directory: %v", err)
	}
	w, err := os.Create(filepath.Join(dir, filepath.Base(u.Path)))
	if err != nil {
		return nil, fmt.Errorf("creating file for download: %v", err)
	}
	return w, nil
}

// downloadHTTP downloads a file from the specified URL, retrying
// on failure, and returns the path to the downloaded file.
func downloadHTTP(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	w, err := downloadDest(path)
	if err != nil {
		return path, err
	}
	defer w.Close()
	log.WithField("url", path).Info("downloading")
	// Errors that retrying cannot fix end the retries through permanent.
	var permanent error
	err = backoff.RetryNotify(
		func() error {
			if _, permanent = w.Seek(0, 0); permanent != nil {
				return nil
			}
			if permanent = w.Truncate(0); permanent != nil {
				return nil
			}
			req, err := http.NewRequest("GET", path, nil)
			if err != nil {
				permanent = err
				return nil
			}
			resp, err := http.DefaultClient.Do(req.WithContext(ctx))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				err = fmt.Errorf("downloading %s: %s", path, resp.Status)
				if resp.StatusCode < 500 {
					permanent = err
					return nil
				}
				return err
			}
			_, err = io.Copy(w, resp.Body)
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxDownloadRetries), ctx),
		func(err error, d time.Duration) {
			log.WithField("url", path).Warnf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return path, err
	}
	if permanent != nil {
		return path, permanent
	}
	return w.Name(), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	w, err := downloadDest(path)
	if err != nil {
		return path, err
	}
	defer w.Close()
	log.WithField("blob", path).Info("downloading")
	if err := cloud.Download(ctx, path, w); err != nil {
		return path, err
	}
	return w.Name(), nil
}
