// Package domain holds the typed identifiers shared by every module. Wrapping
// the raw representations keeps call sites honest about what kind of value
// they pass around and gives validation a single home.
package domain

import (
	"strconv"
	"strings"

	dErrors "projecthub/pkg/domain-errors"
)

// Principal is an authenticated party identifier. Authentication happens
// upstream; by the time a Principal reaches a service it is assumed to name a
// party the platform has verified.
type Principal string

func (p Principal) String() string { return string(p) }

// IsZero reports whether the principal is empty after trimming.
func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// ProjectID identifies a project. IDs are assigned from a monotone counter
// starting at 1 and are never reused, so 0 doubles as the zero value.
type ProjectID uint64

func (id ProjectID) IsZero() bool { return id == 0 }

func (id ProjectID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseProjectID converts decimal text (path params, query params) into a
// ProjectID. Zero and malformed values are rejected uniformly.
func ParseProjectID(s string) (ProjectID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || v == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid project id")
	}
	return ProjectID(v), nil
}

// CID is an opaque content identifier referencing off-system content (a
// document, image, or metadata blob). Stored by reference only.
type CID string

func (c CID) String() string { return string(c) }

func (c CID) IsZero() bool { return strings.TrimSpace(string(c)) == "" }

// Asset names a payment asset. The empty asset means the platform-native one;
// Native makes that explicit at call sites.
type Asset string

// Native is the platform-native payment asset.
const Native Asset = ""

func (a Asset) String() string {
	if a == Native {
		return "native"
	}
	return string(a)
}
