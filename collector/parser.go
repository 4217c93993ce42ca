// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ParseMap parses source-map text as JSON and returns the decoded
// structure unmodified. Schema validation is out of scope: any
// syntactically valid JSON is accepted as a map.
//
// On malformed input the error message is a fixed, documented format
// that consumers match on:
//
//	SyntaxError: <diagnostic> (offset <n>)
//
// where <diagnostic> is encoding/json's verbatim message (it names
// the offending character) and <n> is the byte offset the decoder
// stopped at. For input "{{}" this yields:
//
//	SyntaxError: invalid character '{' looking for beginning of object key string (offset 2)
func ParseMap(content string) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		var syntaxError *json.SyntaxError
		if errors.As(err, &syntaxError) {
			return nil, fmt.Errorf("SyntaxError: %s (offset %d)", syntaxError.Error(), syntaxError.Offset)
		}
		// Non-positional decode failures (only possible for inputs
		// the decoder rejects before scanning, such as empty text).
		return nil, fmt.Errorf("SyntaxError: %s", err.Error())
	}
	return parsed, nil
}
