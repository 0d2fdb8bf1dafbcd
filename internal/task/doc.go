// Package task defines the task record exchanged with the backend.
//
// A task travels over the wire as a JSON object:
//
//	{
//	  "title": "Buy milk",
//	  "description": "2%",
//	  "startingDate": "2024-01-01",
//	  "endingDate": "2024-01-02"
//	}
//
// The server may add fields of its own (an id, timestamps). Those are kept
// verbatim in Task.Extra and written back out on encode, so a record echoed
// by the server round-trips unchanged.
//
// # Dates
//
// Dates are calendar days. They encode as "YYYY-MM-DD" and decode from
// either that form or an RFC 3339 timestamp, which is what browser date
// pickers send. Timestamps are reduced to their UTC calendar day.
//
// # Validation
//
// Decoded payloads can be checked against the embedded JSON Schema
// (task.schema.json). See Validate.
package task
