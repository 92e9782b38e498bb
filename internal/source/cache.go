package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// Cache maps file names to their loaded contents for the duration of one
// render pass. Each file is read at most once; unreadable files are
// remembered as missing so they are not retried. A Cache is not safe for
// concurrent use: concurrent passes own separate caches.
type Cache struct {
	files map[string]*File // normalized path -> file
	read  func(string) ([]byte, error)
}

// NewCache creates an empty Cache reading from disk.
func NewCache() *Cache {
	return &Cache{
		files: make(map[string]*File),
		read:  os.ReadFile,
	}
}

// Len returns the number of cached paths, missing ones included.
func (c *Cache) Len() int {
	return len(c.files)
}

// add stores normalized content under path, replacing any previous entry.
func (c *Cache) add(path string, content []byte, flags FileFlags) *File {
	f := &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	}
	c.files[f.Path] = f
	return f
}

// Load returns the cached file for path, reading it from disk on first use.
// A failed read is cached too and returned as an error on every call.
func (c *Cache) Load(path string) (*File, error) {
	key := normalizePath(path)
	if f, ok := c.files[key]; ok {
		if f.Flags&FileMissing != 0 {
			return nil, fmt.Errorf("%s: source not available", path)
		}
		return f, nil
	}

	content, err := c.read(path)
	if err != nil {
		c.files[key] = &File{Path: key, Flags: FileMissing}
		return nil, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return c.add(path, content, flags), nil
}

// Resolve returns the text of a 1-based line without its terminator. When the
// file cannot be read or the line lies outside it, notFound is returned with
// found == false.
func (c *Cache) Resolve(path string, line int, notFound string) (text string, found bool) {
	f, err := c.Load(path)
	if err != nil {
		return notFound, false
	}
	if line < 1 || line > f.LineCount() {
		return notFound, false
	}
	lineNum, err := safecast.Conv[uint32](line)
	if err != nil {
		return notFound, false
	}
	return f.GetLine(lineNum), true
}

// LineCount returns the number of lines; a trailing newline does not start
// a new line.
func (f *File) LineCount() int {
	n := len(f.LineIdx)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}

	var start, end, lenLineIdx, lenContent uint32
	var err error
	lenLineIdx, err = safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err = safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}

	return string(f.Content[start:end])
}
