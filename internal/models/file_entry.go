package models

import (
	"path"
	"strings"
	"time"
)

// FileIdentity is the provider's opaque object id. It is stable while the
// file is not deleted and recreated, and is the key for membership tracking.
type FileIdentity string

// FilePathInfo pairs an entry identity with its full path inside the provider.
// The path is used for display and payloads only.
type FilePathInfo struct {
	ID   FileIdentity `json:"id"`
	Path string       `json:"path"`
}

// Name returns the base name of the entry path
func (f FilePathInfo) Name() string {
	return path.Base(f.Path)
}

// RelativePath returns the path without its leading slash, as expected by
// the attributes and files endpoints.
func (f FilePathInfo) RelativePath() string {
	return strings.TrimLeft(f.Path, "/")
}

// EntryType classifies a remote entry
type EntryType string

const (
	EntryTypeDirectory EntryType = "directory"
	EntryTypeRegular   EntryType = "regular"
	EntryTypeOther     EntryType = "other"
)

// ParseEntryType maps the provider's type strings (DIR, REG, ...) to an EntryType.
// Comparison is case-insensitive; anything unknown is EntryTypeOther.
func ParseEntryType(raw string) EntryType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "dir":
		return EntryTypeDirectory
	case "reg":
		return EntryTypeRegular
	default:
		return EntryTypeOther
	}
}

// EntryAttributes are fetched per entry during a walk and never cached across cycles
type EntryAttributes struct {
	Type       EntryType
	ModifiedAt time.Time
}

// IsDirectory reports whether the entry should be descended into
func (a EntryAttributes) IsDirectory() bool {
	return a.Type == EntryTypeDirectory
}

// IsRegular reports whether the entry is a regular file
func (a EntryAttributes) IsRegular() bool {
	return a.Type == EntryTypeRegular
}

// KnownSet holds the identities observed as regular files at the end of the
// previous successful cycle.
type KnownSet map[FileIdentity]struct{}

// NewKnownSet builds a set from the given entries
func NewKnownSet(entries []FilePathInfo) KnownSet {
	set := make(KnownSet, len(entries))
	for _, e := range entries {
		set[e.ID] = struct{}{}
	}
	return set
}

// Contains reports membership of id
func (s KnownSet) Contains(id FileIdentity) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of tracked identities
func (s KnownSet) Len() int {
	return len(s)
}

// Space is a top-level container in the provider
type Space struct {
	Name    string `json:"name"`
	SpaceID string `json:"spaceId"`
}
