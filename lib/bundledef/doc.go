// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundledef reads bundle descriptor files into
// [bundle.Manifest] values.
//
// Descriptors are JSONC: JSON extended with // line comments,
// /* block comments */, and trailing commas. A descriptor looks like
//
//	{
//	  "title": "Example Suite",
//	  "codebase": "https://apps.example.com/suite/",
//	  "resources": [
//	    {"identity": "core.jar", "signing": "signed-trusted"},
//	    {"identity": "native.jar", "kind": "native", "os": "Linux", "arch": ["amd64", "arm64"]},
//	  ],
//	  "index": {
//	    "com.example.*": "core.jar",
//	    "render": "native.jar",
//	  },
//	}
//
// Condition fields accept a single string or an array of strings.
// Structural validation of the result is left to lib/resolve; this
// package only rejects input it cannot represent (malformed JSON,
// unknown kind or signing names).
package bundledef
