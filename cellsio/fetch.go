package cellsio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hex-tools/celltools"
)

// Fetcher resolves raster locations to local files. Local paths are used
// in place; http(s):// and s3:// locations are downloaded once into
// CacheDir and reused afterwards.
type Fetcher struct {
	CacheDir string
	Client   *http.Client
	// S3 is created from the default AWS session on first use when nil.
	S3 s3manageriface.DownloaderAPI
}

func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{CacheDir: cacheDir, Client: http.DefaultClient}
}

func (f *Fetcher) Acquire(ctx context.Context, location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// No scheme, or a Windows drive letter.
		return localPath(location)
	}
	switch u.Scheme {
	case "file":
		return localPath(u.Path)
	case "http", "https":
		return f.cached(u, func(w *os.File) error { return f.download(ctx, location, w) })
	case "s3":
		return f.cached(u, func(w *os.File) error { return f.downloadS3(ctx, u, w) })
	default:
		return "", errors.Wrapf(celltools.ErrAcquisition, "unsupported scheme %q in %s", u.Scheme, location)
	}
}

func localPath(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", errors.Wrapf(celltools.ErrAcquisition, "%v", err)
	}
	if info.IsDir() {
		return "", errors.Wrapf(celltools.ErrAcquisition, "%s is a directory", p)
	}
	return p, nil
}

// cached returns the cache file for u, filling it with fill when missing.
// Downloads go to a temporary file that is renamed on success, so an
// interrupted download never looks like a cached raster.
func (f *Fetcher) cached(u *url.URL, fill func(*os.File) error) (string, error) {
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", errors.Wrapf(celltools.ErrAcquisition, "no file name in %s", u)
	}
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", errors.Wrapf(celltools.ErrAcquisition, "create cache dir: %v", err)
	}
	filePath := filepath.Join(f.CacheDir, name)
	if _, err := os.Stat(filePath); err == nil {
		logrus.Infof("COG file already exists: %s", filePath)
		return filePath, nil
	}

	logrus.Infof("Downloading COG from %s", u)
	tmp, err := os.CreateTemp(f.CacheDir, name+".*.part")
	if err != nil {
		return "", errors.Wrapf(celltools.ErrAcquisition, "create temp file: %v", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := fill(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(celltools.ErrAcquisition, "close %s: %v", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return "", errors.Wrapf(celltools.ErrAcquisition, "rename %s: %v", tmpPath, err)
	}
	if info, err := os.Stat(filePath); err == nil {
		logrus.Infof("Downloaded COG to %s (%s)", filePath, humanize.Bytes(uint64(info.Size())))
	}
	return filePath, nil
}

func (f *Fetcher) download(ctx context.Context, location string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return errors.Wrapf(celltools.ErrAcquisition, "request %s: %v", location, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(celltools.ErrAcquisition, "get %s: %v", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logrus.Errorf("Failed to download COG from %s", location)
		return errors.Wrapf(celltools.ErrAcquisition, "get %s: %s", location, resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.Wrapf(celltools.ErrAcquisition, "read %s: %v", location, err)
	}
	return nil
}

func (f *Fetcher) downloadS3(ctx context.Context, u *url.URL, w io.WriterAt) error {
	if f.S3 == nil {
		sess, err := session.NewSession()
		if err != nil {
			return errors.Wrapf(celltools.ErrAcquisition, "aws session: %v", err)
		}
		f.S3 = s3manager.NewDownloader(sess)
	}
	key := u.Path
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	_, err := f.S3.DownloadWithContext(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrapf(celltools.ErrAcquisition, "download %s: %v", u, err)
	}
	return nil
}
