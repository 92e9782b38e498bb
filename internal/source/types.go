package source

// FileFlags encodes metadata about a loaded source file.
type FileFlags uint8

const (
	FileHadBOM FileFlags = 1 << iota
	FileNormalizedCRLF
	// FileMissing marks a path that could not be read; lookups report not found.
	FileMissing
)

// File captures content and the newline index of a single source file.
type File struct {
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Flags   FileFlags
}
