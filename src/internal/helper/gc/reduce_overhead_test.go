// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReadAll(t *testing.T) {
	tests := []struct {
		name    string
		input   func() (string, error)
		wantErr bool
	}{
		{
			name:  "Empty reader",
			input: func() (string, error) { return "", nil },
		},
		{
			name:  "Small payload",
			input: func() (string, error) { return "ocsp-response", nil },
		},
		{
			name:  "Large payload",
			input: func() (string, error) { return strings.Repeat("x", 1<<20), nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, _ := tt.input()
			got, err := ReadAll(strings.NewReader(want))
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
		})
	}

	t.Run("Reader error", func(t *testing.T) {
		_, err := ReadAll(failingReader{})
		assert.Error(t, err)
	})
}

func TestReadAllReturnsPrivateCopy(t *testing.T) {
	first, err := ReadAll(strings.NewReader("first"))
	require.NoError(t, err)

	// A second read reuses the pooled buffer; the first result must be untouched.
	_, err = ReadAll(strings.NewReader("SECOND"))
	require.NoError(t, err)

	assert.Equal(t, "first", string(first))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.der")
	require.NoError(t, os.WriteFile(path, []byte{0x30, 0x03, 0x02, 0x01, 0x01}, 0o600))

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x03, 0x02, 0x01, 0x01}, data)

	_, err = ReadFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPoolConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := Default.Get()
			defer func() {
				buf.Reset()
				Default.Put(buf)
			}()
			_, _ = buf.WriteString("certificate")
			assert.Equal(t, len("certificate"), buf.Len())
		}()
	}
	wg.Wait()
}

func TestPutIgnoresForeignBuffers(t *testing.T) {
	assert.NotPanics(t, func() { Default.Put(nil) })
}
