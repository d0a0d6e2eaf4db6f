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

package datatransform

import (
	"fmt"
	"log"
)

func Example() {
	input := "eyJncmVldGluZyI6ICJoZWxsbyIsICJ0YWdzIjogWyJhIiwgImIiXX0="
	fmt.Println("detected:", Detect(input))

	var chain Chain
	for _, name := range []string{"decodeBase64", "convertToYAML"} {
		if _, err := chain.Append(name); err != nil {
			log.Fatalf("failed to append step: %v", err)
		}
	}
	output, err := Run(input, chain.Steps())
	if err != nil {
		fmt.Println(FormatError(err))
		return
	}
	fmt.Print(output)
	fmt.Println("next:", ValidFor(CurrentType(input, chain.Steps())))
	// Output:
	// detected: base64
	// greeting: hello
	// tags:
	//   - a
	//   - b
	// next: [{encodeBase64 Encode to Base64} {convertToJSON Convert to JSON}]
}

func ExampleRun_invalidChain() {
	_, err := Run("not json", []Step{{ID: "1", Transformation: "minify"}})
	fmt.Println(FormatError(err))
	// Output: Error: invalid transformation chain: minify cannot be applied to text
}
