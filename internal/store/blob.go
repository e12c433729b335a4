package store

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// SnapshotField reads a single field out of a circuit_snapshot_blob or
// state_extra_blob without unmarshaling the whole document — used by
// operational tooling that wants one value (e.g. a circuit's
// display_name) out of a proposal row.
func SnapshotField(blob []byte, path string) (string, bool) {
	result := gjson.GetBytes(blob, path)
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}

// PrettySnapshot renders a blob column for human-facing CLI output
// (`splinterd admin proposal show`, say) without re-serializing it
// through a Go struct.
func PrettySnapshot(blob []byte) string {
	return string(pretty.Pretty(blob))
}
