package action

import "fmt"

// InvalidURIError reports a string that could not be parsed as a lutris: URI.
// It carries the original input so callers can echo it back, and enables
// typed discrimination via errors.As at the CLI boundary.
type InvalidURIError struct {
	URI string
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("%q is not a valid URI", e.URI)
}

// MissingInstallerFileError reports an --install path that does not point at
// an existing file. It fails request construction before any dispatch.
type MissingInstallerFileError struct {
	Path string
}

func (e *MissingInstallerFileError) Error() string {
	return fmt.Sprintf("no such file: %s", e.Path)
}
