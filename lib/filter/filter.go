// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter loads collection profiles: JSONC documents that
// select which script URLs a collection window accepts. JSONC is
// JSON plus comments and trailing commas, so profiles can carry
// inline documentation next to each pattern.
package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Profile is a parsed collection profile. Deny patterns always win
// over allow patterns; an empty allow list allows everything not
// denied.
type Profile struct {
	// Allow lists URL patterns to collect. Patterns use * as a
	// wildcard matching any run of characters, slashes included.
	Allow []string `json:"allow"`

	// Deny lists URL patterns to skip even when allowed.
	Deny []string `json:"deny"`
}

// Parse parses a JSONC profile document.
func Parse(data []byte) (*Profile, error) {
	var profile Profile
	if err := json.Unmarshal(jsonc.ToJSON(data), &profile); err != nil {
		return nil, fmt.Errorf("filter: parsing profile: %w", err)
	}
	return &profile, nil
}

// LoadFile reads and parses a profile file.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filter: reading profile: %w", err)
	}
	profile, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("filter: %s: %w", path, err)
	}
	return profile, nil
}

// Accept reports whether a script URL passes the profile.
func (p *Profile) Accept(scriptURL string) bool {
	for _, pattern := range p.Deny {
		if matchPattern(pattern, scriptURL) {
			return false
		}
	}
	if len(p.Allow) == 0 {
		return true
	}
	for _, pattern := range p.Allow {
		if matchPattern(pattern, scriptURL) {
			return true
		}
	}
	return false
}

// matchPattern matches a URL against a pattern where * matches any
// run of characters. Unlike path.Match, * crosses slashes, which is
// what URL patterns like "*/vendor/*" need.
func matchPattern(pattern, s string) bool {
	segments := strings.Split(pattern, "*")
	if len(segments) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, segments[0]) {
		return false
	}
	s = s[len(segments[0]):]

	last := len(segments) - 1
	for _, segment := range segments[1:last] {
		index := strings.Index(s, segment)
		if index < 0 {
			return false
		}
		s = s[index+len(segment):]
	}

	return strings.HasSuffix(s, segments[last])
}
