package fat

import "time"

// File is the public handle returned by Dir.OpenFile / Dir.CreateFile
// (spec.md §3.5): a cluster-chain Stream of known size plus the
// back-reference to its own directory record, so that size/timestamp
// updates can be flushed without the caller ever touching the directory
// directly.
type File struct {
	fs     *FileSystem
	stream *Stream
	editor *entryEditor
}

func newFile(fs *FileSystem, stream *Stream, editor *entryEditor) *File {
	return &File{fs: fs, stream: stream, editor: editor}
}

// Read fills p from the current position, never crossing more than one
// cluster boundary per call -- callers wanting exact-length reads should
// loop, same as with any io.Reader backed by a chunked medium.
func (f *File) Read(p []byte) (int, error) { return f.stream.Read(p) }

// Write writes p at the current position, extending the file's cluster
// chain and recorded size as needed, and stamps the owning entry's
// modified time.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.stream.Write(p)
	if n > 0 && f.editor != nil {
		f.editor.SetModified(f.fs.clock())
	}
	return n, err
}

// Seek repositions the file, per spec.md §4.3's Seek algorithm.
func (f *File) Seek(offset int64, whence int) (int64, error) { return f.stream.Seek(offset, whence) }

// Truncate cuts the file at the current position, freeing every cluster
// beyond it.
func (f *File) Truncate() error {
	if err := f.stream.Truncate(); err != nil {
		return err
	}
	if f.editor != nil {
		f.editor.SetModified(f.fs.clock())
	}
	return nil
}

// Size returns the file's size in bytes as last recorded in its directory
// entry (kept current by Write/Truncate).
func (f *File) Size() uint32 {
	size, _ := f.stream.Size()
	return size
}

// SetCreated, SetAccessed, and SetModified let a caller stamp a file's
// timestamps explicitly, for callers that need deterministic directory
// records, since Mount has no notion of "now" beyond the clock it was
// given.
func (f *File) SetCreated(t time.Time) {
	if f.editor != nil {
		f.editor.SetCreated(t)
	}
}

func (f *File) SetAccessed(t time.Time) {
	if f.editor != nil {
		f.editor.SetAccessed(t)
	}
}

func (f *File) SetModified(t time.Time) {
	if f.editor != nil {
		f.editor.SetModified(t)
	}
}

// Flush writes the file's pending directory-record changes and flushes the
// backing store.
func (f *File) Flush() error { return f.stream.Flush() }

// Close flushes the file. fatfs has no per-handle OS resource to release;
// Close exists so File satisfies io.Closer for callers that expect one.
func (f *File) Close() error { return f.Flush() }
