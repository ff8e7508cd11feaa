// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
)

// AddDirectory imports every password-less PKCS#12 file found directly in dir
// (no recursion) into stack and returns the number of certificates appended.
//
// Files that cannot be read, are not PKCS#12, or need a password are skipped.
// A missing or empty directory yields zero, which is not an error.
func AddDirectory(stack *Stack, dir string) int {
	return AddDirectoryFs(afero.NewOsFs(), stack, dir)
}

// AddDirectoryFs is [AddDirectory] over an arbitrary filesystem.
func AddDirectoryFs(fsys afero.Fs, stack *Stack, dir string) int {
	if stack == nil {
		return 0
	}

	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return 0
	}

	decoder := x509certs.New()
	added := 0

	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}

		data, err := readFile(fsys, filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		certs, err := decoder.DecodePKCS12(data)
		if err != nil {
			continue
		}

		stack.Push(certs...)
		added += len(certs)
	}

	return added
}

func readFile(fsys afero.Fs, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return gc.ReadAll(f)
}
