// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package gc provides reusable byte buffer pooling to reduce garbage collection overhead.
// It abstracts the [bytebufferpool] library so the verifier reads certificate archives,
// cached [OCSP] responses and HTTP bodies without allocating a fresh buffer per read.
//
// [bytebufferpool]: https://github.com/valyala/bytebufferpool
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
package gc
