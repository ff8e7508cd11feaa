// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509ocsp builds OCSP requests for positions of a verified chain,
// validates OCSP responses against those requests and keeps the accepted
// statuses in a directory cache shared between processes.
//
// Cache entries are JSON files named after the issuer identity hash and the
// subject serial number. Writes go to a temporary file in the cache directory
// that is then renamed into place, so readers never observe a partial entry and
// concurrent writers of the same key resolve to the last rename. An expirable
// in-memory LRU fronts the directory.
//
// Network transport is not part of this package; see x509remote.
package x509ocsp
