// Package config loads fakews script files.
//
// A script file describes one scripted session in YAML or JSON:
//
//	name: greeting
//	port: 8765
//	path: /ws
//	steps:
//	  - respond: welcome            # expects nothing, pushed on connect
//	  - expect: hello
//	    respond: hi
//	  - expect: list
//	    respond: [a, b, {binary: AQI=}]
//	  - expect: {binary: AQID}
//
// A bare string is shorthand for {text: ...}; binary payloads are base64.
// A missing or null respond sends nothing, a single message sends one
// message, and a sequence sends each element in order.
//
// Files are validated against an embedded JSON Schema (draft 2020-12)
// before they are decoded, and ${VAR} / ${VAR:-default} references are
// expanded from the environment.
//
//	file, err := config.LoadScriptFile("greeting.yaml")
//	if err != nil {
//	    return err
//	}
//	script, err := file.Compile()
package config
