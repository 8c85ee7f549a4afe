package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/fat"
	"github.com/brinklabs/fatfs/geometry"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

func main() {
	app := cli.App{
		Name:  "fatutil",
		Usage: "Inspect and manipulate FAT12/FAT16/FAT32 disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create a fresh FAT volume image",
				Action:    formatImage,
				ArgsUsage: "IMAGE_FILE PRESET_SLUG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "label", Usage: "volume label to stamp into the root directory"},
				},
			},
			{
				Name:      "ls",
				Usage:     "List a directory's contents",
				Action:    listDir,
				ArgsUsage: "IMAGE_FILE [PATH]",
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				Action:    catFile,
				ArgsUsage: "IMAGE_FILE PATH",
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory",
				Action:    mkdir,
				ArgsUsage: "IMAGE_FILE PATH",
			},
			{
				Name:      "rm",
				Usage:     "Remove a file or empty directory",
				Action:    remove,
				ArgsUsage: "IMAGE_FILE PATH",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatutil: %s", err.Error())
	}
}

func openImage(path string) (*os.File, ioutil.BackingStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	return f, fileStore{f}, nil
}

// fileStore adapts *os.File to ioutil.BackingStore.
type fileStore struct{ f *os.File }

func (s fileStore) ReadAt(p []byte, off int64) (int, error)  { return s.f.ReadAt(p, off) }
func (s fileStore) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, off) }
func (s fileStore) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}
func (s fileStore) Flush() error { return s.f.Sync() }

func formatImage(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.Exit("usage: fatutil format IMAGE_FILE PRESET_SLUG", 1)
	}
	path := ctx.Args().Get(0)
	slug := ctx.Args().Get(1)

	preset, err := geometry.Lookup(slug)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	geom, err := geometry.Build(preset)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(preset.TotalSizeBytes()); err != nil {
		return err
	}

	if _, err := fat.Format(fileStore{f}, geom, ctx.String("label")); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func mountReadOnly(path string) (*os.File, *fat.FileSystem, error) {
	f, store, err := openImage(path)
	if err != nil {
		return nil, nil, err
	}
	fs, err := fat.Mount(store)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, fs, nil
}

func listDir(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.Exit("usage: fatutil ls IMAGE_FILE [PATH]", 1)
	}
	f, fs, err := mountReadOnly(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	path := ctx.Args().Get(1)
	dir, err := fs.OpenPath(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	entries, err := dir.Entries()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	for _, e := range entries {
		kind := "F"
		if e.IsDir() {
			kind = "D"
		}
		fmt.Printf("%s %10d %s\n", kind, e.Len(), e.FileName())
	}
	return nil
}

func catFile(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.Exit("usage: fatutil cat IMAGE_FILE PATH", 1)
	}
	f, fs, err := mountReadOnly(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := fs.OpenFilePath(ctx.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if _, err := io.Copy(os.Stdout, eofReader{file}); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

// eofReader adapts File.Read's "0, nil at end of stream" convention
// (spec.md §4.3) to io.Reader's "io.EOF at end of stream" convention, which
// io.Copy relies on to terminate.
type eofReader struct {
	f *fat.File
}

func (r eofReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

func mkdir(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.Exit("usage: fatutil mkdir IMAGE_FILE PATH", 1)
	}
	f, store, err := openImage(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	fs, err := fat.Mount(store)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if _, err := fs.CreateDirPath(ctx.Args().Get(1)); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return fs.Flush()
}

func remove(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.Exit("usage: fatutil rm IMAGE_FILE PATH", 1)
	}
	f, store, err := openImage(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	fs, err := fat.Mount(store)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := fs.RemovePath(ctx.Args().Get(1)); err != nil {
		if errors.ErrDirectoryNotEmpty.IsSameError(err) {
			return cli.Exit(fmt.Sprintf("%s: directory is not empty", ctx.Args().Get(1)), 1)
		}
		return cli.Exit(err.Error(), 1)
	}
	return fs.Flush()
}
