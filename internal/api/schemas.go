package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	createGameSchema = mustSchema("create_game.schema.json")
	turnSchema       = mustSchema("turn.schema.json")
)

const maxBodyBytes = 64 << 10

func mustSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	return jsonschema.MustCompileString(name, string(raw))
}

// decodeBody reads a JSON request body, validates it against s, then
// decodes it into dst. An empty body is treated as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, s *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
