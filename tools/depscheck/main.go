package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// The raster pipeline stays free of transport and session code.
var pipelinePackages = []string{
	"glyphbridge/internal/codec",
	"glyphbridge/internal/grid",
	"glyphbridge/internal/diff",
	"glyphbridge/internal/interlace",
	"glyphbridge/internal/editid",
	"glyphbridge/internal/render",
}

var forbiddenImports = []string{
	"glyphbridge/internal/net/canvas",
	"glyphbridge/internal/net/diag",
	"glyphbridge/internal/app",
	"github.com/gorilla/websocket",
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}
		if !isPipeline(pkg.ImportPath) {
			continue
		}
		for _, imp := range pkg.Imports {
			if imp == "glyphbridge" || hasAnyPrefix(imp, forbiddenImports) {
				violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func isPipeline(path string) bool {
	for _, p := range pipelinePackages {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
