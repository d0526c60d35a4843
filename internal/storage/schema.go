/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema the persisted document must satisfy.
// Unknown extra properties are tolerated so newer documents still open in
// older builds; missing required fields or wrong types are structural errors.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["settings", "scenes"],
  "properties": {
    "settings": {
      "type": "object",
      "properties": {
        "footageRoots": { "type": "array", "items": { "type": "string" } },
        "lastExportDir": { "type": "string" }
      }
    },
    "scenes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "code", "updatedAt"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "code": { "type": "string" },
          "enText": { "type": "string" },
          "viText": { "type": "string" },
          "keywords": { "type": "string" },
          "primaryImagePath": { "type": ["string", "null"] },
          "hasCharacterImage": { "type": "boolean" },
          "updatedAt": { "type": "string" }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidateDocument checks raw document bytes against the schema and returns a
// structural error naming the offending fields, or nil.
func ValidateDocument(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("document failed schema validation: %s", strings.Join(msgs, "; "))
}
