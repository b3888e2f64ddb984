// Package action parses lutra invocations, either lutris: URIs or CLI
// flags, into a normalized Request that the dispatcher can act on. Parsing
// is pure string work; no database or filesystem access happens here except
// the existence check on an explicitly supplied installer file.
package action

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Scheme is the URI scheme lutra handles. Kept as "lutris" so install links
// published on lutris.net keep working.
const Scheme = "lutris"

// Action names what an invocation asks for. The zero value means the caller
// did not say, and the dispatcher decides from context.
type Action string

const (
	ActionNone      Action = ""
	ActionInstall   Action = "install"
	ActionRunByID   Action = "rungameid"
	ActionRunBySlug Action = "rungame"
)

// Explicit reports whether a is one of the recognized action verbs. Unknown
// tokens carried in a URI parse but are never executed directly.
func (a Action) Explicit() bool {
	switch a {
	case ActionInstall, ActionRunByID, ActionRunBySlug:
		return true
	}
	return false
}

// Parsed holds the pieces extracted from a lutris: URI.
type Parsed struct {
	Identifier string
	Action     Action
	Revision   string
}

// Request is a fully built invocation: the URI pieces merged with CLI flags.
// Fields are set once by Build and read-only afterwards; the dispatcher
// never mutates a Request.
type Request struct {
	Identifier    string
	Action        Action
	Revision      string
	InstallerFile string // absolute path, verified to exist
	Reinstall     bool
}

// Empty reports whether the request carries nothing to act on. An empty
// request still presents the main window.
func (r *Request) Empty() bool {
	return r.Identifier == "" && r.Action == ActionNone && r.InstallerFile == ""
}

// ParseURI parses raw as a lutris: URI. Accepted forms:
//
//	lutris:action/identifier
//	lutris:identifier
//	lutris://action/identifier
//	identifier
//
// A revision query parameter is honored on any form. Anything else,
// including a foreign scheme or more than two path segments, returns
// *InvalidURIError.
func ParseURI(raw string) (Parsed, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Parsed{}, &InvalidURIError{URI: raw}
	}
	if u.Scheme != "" && u.Scheme != Scheme {
		return Parsed{}, &InvalidURIError{URI: raw}
	}

	// lutris:install/slug arrives as an opaque URI, lutris://install/slug
	// puts the action in the host part, and a bare identifier is all path.
	var rest string
	switch {
	case u.Opaque != "":
		rest = u.Opaque
	case u.Host != "":
		rest = u.Host
		if p := strings.Trim(u.Path, "/"); p != "" {
			rest += "/" + p
		}
	default:
		rest = strings.Trim(u.Path, "/")
	}
	if rest == "" {
		return Parsed{}, &InvalidURIError{URI: raw}
	}

	var p Parsed
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 1:
		p.Identifier = parts[0]
	case 2:
		p.Action = Action(parts[0])
		p.Identifier = parts[1]
	default:
		return Parsed{}, &InvalidURIError{URI: raw}
	}
	if p.Identifier == "" {
		return Parsed{}, &InvalidURIError{URI: raw}
	}
	p.Revision = u.Query().Get("revision")
	return p, nil
}

// Flags carries the CLI options that shape a Request alongside the URI.
type Flags struct {
	InstallerFile string // --install
	Reinstall     bool   // --reinstall
	Dir           string // working directory for resolving a relative installer path
}

// Build merges a URI (may be empty) with CLI flags into a Request. An
// installer file always forces the install action and must exist; a missing
// file fails here with *MissingInstallerFileError, before anything is
// resolved or shown.
func Build(uri string, flags Flags) (*Request, error) {
	var req Request
	if uri != "" {
		p, err := ParseURI(uri)
		if err != nil {
			return nil, err
		}
		req.Identifier = p.Identifier
		req.Action = p.Action
		req.Revision = p.Revision
	}
	if flags.Reinstall {
		req.Reinstall = true
		req.Action = ActionInstall
	}
	if flags.InstallerFile != "" {
		path, err := resolveFile(flags.InstallerFile, flags.Dir)
		if err != nil {
			return nil, err
		}
		req.InstallerFile = path
		req.Action = ActionInstall
	}
	return &req, nil
}

func resolveFile(path, dir string) (string, error) {
	if !filepath.IsAbs(path) {
		if dir != "" {
			path = filepath.Join(dir, path)
		} else if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &MissingInstallerFileError{Path: path}
	}
	return path, nil
}
