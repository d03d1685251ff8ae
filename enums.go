// Copyright 2025 Buf Technologies, Inc.
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

package pbconform

import "strconv"

// WireFormat is the format a conformance payload is encoded in.
//
// Values outside the known range are preserved as-is; see [WireFormat.Known].
type WireFormat int32

const (
	FormatUnspecified WireFormat = iota
	FormatProtobuf
	FormatJSON
	FormatJSPB
	FormatTextFormat
)

var wireFormatNames = [...]string{
	FormatUnspecified: "UNSPECIFIED",
	FormatProtobuf:    "PROTOBUF",
	FormatJSON:        "JSON",
	FormatJSPB:        "JSPB",
	FormatTextFormat:  "TEXT_FORMAT",
}

// Known returns whether this is one of the named formats.
func (f WireFormat) Known() bool {
	return f >= 0 && int(f) < len(wireFormatNames)
}

// String implements [fmt.Stringer].
func (f WireFormat) String() string {
	if !f.Known() {
		return "WireFormat(" + strconv.Itoa(int(f)) + ")"
	}
	return wireFormatNames[f]
}

// TestCategory is the kind of test a conformance request belongs to.
//
// Values outside the known range are preserved as-is; see
// [TestCategory.Known].
type TestCategory int32

const (
	CategoryUnspecified TestCategory = iota
	CategoryBinary
	CategoryJSON
	// JSON tests in which unknown fields must be ignored rather than
	// rejected.
	CategoryJSONIgnoreUnknown
	CategoryJSPB
	CategoryTextFormat
)

var testCategoryNames = [...]string{
	CategoryUnspecified:       "UNSPECIFIED_TEST",
	CategoryBinary:            "BINARY_TEST",
	CategoryJSON:              "JSON_TEST",
	CategoryJSONIgnoreUnknown: "JSON_IGNORE_UNKNOWN_PARSING_TEST",
	CategoryJSPB:              "JSPB_TEST",
	CategoryTextFormat:        "TEXT_FORMAT_TEST",
}

// Known returns whether this is one of the named categories.
func (c TestCategory) Known() bool {
	return c >= 0 && int(c) < len(testCategoryNames)
}

// String implements [fmt.Stringer].
func (c TestCategory) String() string {
	if !c.Known() {
		return "TestCategory(" + strconv.Itoa(int(c)) + ")"
	}
	return testCategoryNames[c]
}
