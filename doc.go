// Copyright 2024-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package datatransform detects the format of pasted text and runs it
// through a chain of format conversions.
//
// A blob of text is classified as JSON, YAML, Base64 or plain text by
// [Detect]. The result of that classification decides which of the
// registered transformations may be applied first; see [ValidFor]. A chain
// of steps, built with a [Chain], is then executed by [Run] or [Execute],
// which re-detects the type of every intermediate value so that the chain is
// always gated on what a step actually produced rather than on what it
// nominally promises. For example, decoding a Base64 payload that contains a
// JSON document yields a value that can be minified or pretty-printed next.
//
// The transformation catalog is fixed:
//
//	encodeBase64   json, yaml, text -> base64
//	decodeBase64   base64           -> text
//	convertToYAML  json             -> yaml
//	convertToJSON  yaml             -> json
//	minify         json             -> json
//	prettyPrint    json             -> json
//
// Runs are pure functions of their input and step names. A [Runner] can
// memoize them in any [Cache]; backends live in the cache sub-packages.
package datatransform
