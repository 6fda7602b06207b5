package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	jsv "github.com/jsv-go/jsv"
	"github.com/jsv-go/jsv/i18n"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		validateCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "jsv CLI\n\nUsage:\n  jsv validate -schema schema.json [-mask] [-lang en|ja] instance.json [more...]\n\nNotes:\n  - Schema and instance files may be JSON or YAML (.yaml/.yml).\n  - Issues are printed to stdout as JSON lines; exit 1 when any instance is invalid.")
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var schemaPath string
	var mask bool
	var lang string
	fs.StringVar(&schemaPath, "schema", "", "schema document (JSON or YAML)")
	fs.BoolVar(&mask, "mask", false, "mask instance values in messages")
	fs.StringVar(&lang, "lang", "en", "message language (en/ja)")
	_ = fs.Parse(args)
	if schemaPath == "" || fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}
	i18n.SetLanguage(lang)

	schemaDoc, err := loadDocument(schemaPath)
	if err != nil {
		fatalf("read schema: %v", err)
	}
	schema, err := jsv.Compile(schemaDoc)
	if err != nil {
		printIssues(schemaPath, err)
		os.Exit(2)
	}

	failed := false
	for _, instPath := range fs.Args() {
		inst, err := loadDocument(instPath)
		if err != nil {
			fatalf("read instance: %v", err)
		}
		if err := schema.Validate(inst, jsv.ValidateOpt{MaskValues: mask}); err != nil {
			printIssues(instPath, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", instPath)
	}
	if failed {
		os.Exit(1)
	}
}

// loadDocument reads a JSON or YAML file into a JSON-like value.
func loadDocument(name string) (any, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var doc any
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return doc, nil
}

func printIssues(name string, err error) {
	iss, ok := jsv.AsIssues(err)
	if !ok {
		fatalf("%s: %v", name, err)
	}
	for _, it := range iss {
		line, merr := json.Marshal(it)
		if merr != nil {
			fatalf("encode issue: %v", merr)
		}
		fmt.Printf("%s: %s\n", name, line)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "jsv: "+format+"\n", args...)
	os.Exit(1)
}
