package fat

import (
	"strings"

	"github.com/brinklabs/fatfs/errors"
)

// splitPath breaks a slash-separated path into its non-empty components,
// per spec.md's path resolver (component I). A leading slash is optional
// and ignored -- every path is resolved from the root regardless.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolveDir walks from root through every component in parts, opening
// each as a directory in turn. An empty parts list returns root itself.
func resolveDir(root *Dir, parts []string) (*Dir, error) {
	current := root
	for _, part := range parts {
		next, err := current.OpenDir(part)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// OpenPath resolves path to a directory, starting from fs's root.
func (fs *FileSystem) OpenPath(path string) (*Dir, error) {
	root, err := fs.RootDir()
	if err != nil {
		return nil, err
	}
	return resolveDir(root, splitPath(path))
}

// OpenFilePath resolves path's parent as a directory and opens its final
// component as a file.
func (fs *FileSystem) OpenFilePath(path string) (*File, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, errors.ErrIsADirectory.WithMessage("path names the root directory")
	}
	parent, err := fs.resolveParent(parts)
	if err != nil {
		return nil, err
	}
	return parent.OpenFile(parts[len(parts)-1])
}

// CreateFilePath resolves path's parent as a directory and creates its
// final component as a new file there.
func (fs *FileSystem) CreateFilePath(path string) (*File, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, errors.ErrExists.WithMessage("path names the root directory")
	}
	parent, err := fs.resolveParent(parts)
	if err != nil {
		return nil, err
	}
	return parent.CreateFile(parts[len(parts)-1])
}

// CreateDirPath resolves path's parent as a directory and creates its final
// component as a new subdirectory there.
func (fs *FileSystem) CreateDirPath(path string) (*Dir, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, errors.ErrExists.WithMessage("path names the root directory")
	}
	parent, err := fs.resolveParent(parts)
	if err != nil {
		return nil, err
	}
	return parent.CreateDir(parts[len(parts)-1])
}

// RemovePath resolves path's parent as a directory and removes its final
// component from it.
func (fs *FileSystem) RemovePath(path string) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return errors.ErrPermissionDenied.WithMessage("the root directory cannot be removed")
	}
	parent, err := fs.resolveParent(parts)
	if err != nil {
		return err
	}
	return parent.Remove(parts[len(parts)-1])
}

func (fs *FileSystem) resolveParent(parts []string) (*Dir, error) {
	root, err := fs.RootDir()
	if err != nil {
		return nil, err
	}
	return resolveDir(root, parts[:len(parts)-1])
}
