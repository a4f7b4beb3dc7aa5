package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/setsplit/internal/download"
)

// placed media for a run
type media struct {
	dir       string
	path      string
	thumbnail string
}

// acquire downloads remote media and moves it, together with its artwork,
// into a directory named after the media file under dest. Local media is
// copied there instead.
func (o *Orchestrator) acquire(ctx context.Context, req Request, dest string) (media, error) {
	remote := download.IsRemote(req.Media)
	useThumbnail := remote
	if req.UseThumbnail != nil {
		useThumbnail = *req.UseThumbnail
	}

	source := req.Media
	var thumbnail string
	if remote {
		format := req.AudioFormat
		if format == "" {
			format = o.cfg.Download.AudioFormat
		}
		res, err := o.downloader.Fetch(ctx, req.Media, dest, download.Options{
			AudioFormat: format,
			Thumbnail:   useThumbnail && req.ThumbnailPath == "",
		})
		if err != nil {
			return media{}, err
		}
		source = res.MediaPath
		thumbnail = res.ThumbnailPath
	}
	ownThumbnail := remote
	if req.ThumbnailPath != "" {
		useThumbnail = true
		thumbnail = req.ThumbnailPath
		ownThumbnail = false
	}

	name := filepath.Base(source)
	dir := filepath.Join(dest, strings.TrimSuffix(name, filepath.Ext(name)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return media{}, fmt.Errorf("failed to create media directory: %w", err)
	}

	placed := media{dir: dir}
	var err error
	// files passed by the user are copied, downloads are moved
	placed.path, err = place(source, dir, remote)
	if err != nil {
		return media{}, fmt.Errorf("failed to place media: %w", err)
	}
	if useThumbnail && thumbnail != "" {
		placed.thumbnail, err = place(thumbnail, dir, ownThumbnail)
		if err != nil {
			return media{}, fmt.Errorf("failed to place thumbnail: %w", err)
		}
	}
	o.logger.Debugw("Media placed",
		"dir", placed.dir,
		"media", placed.path,
		"thumbnail", placed.thumbnail,
	)
	return placed, nil
}

// place puts src into dir under its own name, moving or copying it. It is a
// no-op when src already is that file.
func place(src, dir string, move bool) (string, error) {
	target := filepath.Join(dir, filepath.Base(src))
	if same, err := sameFile(src, target); err != nil {
		return "", err
	} else if same {
		return target, nil
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if move {
		if err := os.Rename(src, target); err != nil {
			return "", err
		}
		return target, nil
	}
	return target, copyFile(src, target)
}

func sameFile(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(ai, bi), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
