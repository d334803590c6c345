package properties

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	listingSchema = "schemas/listing.json"
	patchSchema   = "schemas/listing-patch.json"
)

var compiledSchemas = compileSchemas(listingSchema, patchSchema)

func compileSchemas(paths ...string) map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	for _, p := range paths {
		f, err := schemaFS.Open(p)
		if err != nil {
			panic(fmt.Sprintf("open schema %s: %v", p, err))
		}
		err = compiler.AddResource(p, f)
		f.Close()
		if err != nil {
			panic(fmt.Sprintf("add schema %s: %v", p, err))
		}
	}
	out := make(map[string]*jsonschema.Schema, len(paths))
	for _, p := range paths {
		out[p] = compiler.MustCompile(p)
	}
	return out
}

// validateBody checks a JSON body against the named schema and returns one
// "field: problem" line per violation.
func validateBody(schema string, body []byte) ([]string, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	err := compiledSchemas[schema].Validate(v)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	var problems []string
	for _, e := range ve.BasicOutput().Errors {
		field := strings.TrimPrefix(e.InstanceLocation, "/")
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		if field == "" {
			problems = append(problems, e.Error)
			continue
		}
		problems = append(problems, field+": "+e.Error)
	}
	if len(problems) == 0 {
		problems = append(problems, ve.Error())
	}
	return problems, nil
}
