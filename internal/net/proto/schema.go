package proto

import "github.com/invopop/jsonschema"

// JSONSchema describes the positional array form of an edit.
func (Edit) JSONSchema() *jsonschema.Schema {
	integer := func(title string, min int) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "integer", Title: title, Minimum: min}
	}
	return &jsonschema.Schema{
		Type:        "array",
		Title:       "Edit",
		Description: "One character write: tileRow, tileCol, localRow, localCol, timestampMs, char, editId, fg, bg.",
		PrefixItems: []*jsonschema.Schema{
			{Type: "integer", Title: "tileRow"},
			{Type: "integer", Title: "tileCol"},
			integer("localRow", 0),
			integer("localCol", 0),
			integer("timestampMs", 0),
			{Type: "string", Title: "char", MinLength: 1},
			integer("editId", 0),
			{Type: "integer", Title: "fg", Minimum: 0, Maximum: 0xffffff},
			{Type: "integer", Title: "bg", Minimum: 0, Maximum: 0xffffff},
		},
		MinItems: 9,
		MaxItems: 9,
	}
}

// OutboundSchema reflects every message the bridge sends into one schema.
func OutboundSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var variants []*jsonschema.Schema
	for _, v := range []any{new(WriteMessage), new(LinkMessage), new(ChatMessage)} {
		schema := reflector.Reflect(v)
		schema.Version = ""
		variants = append(variants, schema)
	}
	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "glyphbridge outbound messages",
		Description: "Websocket text frames sent to the character canvas.",
		OneOf:       variants,
	}
}
