// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest checks data against the resource's declared digest. A
// resource without a declared digest always verifies.
func VerifyDigest(resource bundle.Resource, data []byte) error {
	if resource.Digest == "" {
		return nil
	}
	actual := Digest(data)
	if !strings.EqualFold(actual, resource.Digest) {
		return fmt.Errorf("%w: declared %s, got %s", ErrIntegrity, resource.Digest, actual)
	}
	return nil
}
