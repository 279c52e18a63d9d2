//go:build js && wasm

// Package main provides WASM bindings for the form engine.
// This lets a browser renderer recompute derived fields and validate values
// without a server round trip.
package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/dlovans/formcraft/pkg/form"
)

func main() {
	js.Global().Set("FormcraftRecompute", js.FuncOf(formcraftRecompute))
	js.Global().Set("FormcraftValidate", js.FuncOf(formcraftValidate))

	// Keep the Go runtime alive
	select {}
}

// formcraftRecompute is the JS-callable wrapper for form.Evaluate.
// Usage: FormcraftRecompute(formJson, valuesJson, isoDate?) -> { result: object, error?: string }
func formcraftRecompute(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormcraftRecompute requires at least 2 arguments: formJson, valuesJson")
	}

	today := time.Now()
	if len(args) > 2 && args[2].Type() == js.TypeString && args[2].String() != "" {
		var err error
		today, err = form.ParseDate(args[2].String())
		if err != nil {
			return makeError(err.Error())
		}
	}

	result, err := form.Evaluate(args[0].String(), args[1].String(), today)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(result)
}

// formcraftValidate is the JS-callable wrapper for form.ValidateDocument.
// Usage: FormcraftValidate(formJson, valuesJson) -> { result: object, error?: string }
func formcraftValidate(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("FormcraftValidate requires 2 arguments: formJson, valuesJson")
	}

	result, err := form.ValidateDocument(args[0].String(), args[1].String())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(result)
}

// makeError creates a JS-friendly error response
func makeError(msg string) map[string]any {
	return map[string]any{
		"error": msg,
	}
}

// makeResult creates a JS-friendly success response
func makeResult(jsonStr string) map[string]any {
	var result any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return map[string]any{
			"result": jsonStr,
		}
	}

	return map[string]any{
		"result": result,
	}
}
