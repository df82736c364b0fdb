package jobspec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

type ReadOptions struct {
	Args   []string
	Params map[string]string
}

type UnmarshalError struct {
	error
	Source string
}

// Read loads a jobspec file from disk, evaluates its template directives
// and returns the job configuration it describes.
func Read(file string, options ReadOptions) (types.JobConfiguration, error) {
	dir := path.Dir(file)

	buf, err := os.ReadFile(file)
	if err != nil {
		return types.JobConfiguration{}, fmt.Errorf("read file: %w", err)
	}

	source, err := evaluateTemplate(string(buf), dir, options)
	if err != nil {
		return types.JobConfiguration{}, fmt.Errorf("evaluate template: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal([]byte(source), &spec); err != nil {
		return types.JobConfiguration{}, UnmarshalError{fmt.Errorf("unmarshal: %w", err), source}
	}

	if err := spec.Validate(); err != nil {
		return types.JobConfiguration{}, UnmarshalError{fmt.Errorf("validate: %w", err), source}
	}

	return spec.JobConfiguration(), nil
}

type templateData struct {
	Env    map[string]string
	Args   []string
	Params map[string]string
}

func evaluateTemplate(source string, dir string, options ReadOptions) (string, error) {
	tmpl, err := template.New("jobspec").Funcs(template.FuncMap{
		"base64": func(s string) string {
			return base64.StdEncoding.EncodeToString([]byte(s))
		},
		"env": func(key string) string {
			return os.Getenv(key)
		},
		"json": func(v any) (string, error) {
			buf, err := json.Marshal(v)
			return string(buf), err
		},
		"quote": func(s string) string {
			return shellescape.Quote(s)
		},
		"lines": func(s string) []string {
			return strings.Split(s, "\n")
		},
		"shell": func(script string) (string, error) {
			return shell(script, dir)
		},
		"split": func(sep string, s string) []string {
			return strings.Split(s, sep)
		},
	}).Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	data := templateData{
		Env:    lo.SliceToMap(os.Environ(), func(env string) (string, string) { key, val, _ := strings.Cut(env, "="); return key, val }),
		Args:   options.Args,
		Params: options.Params,
	}

	var output strings.Builder
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return output.String(), nil
}

func shell(script string, dir string) (string, error) {
	shellBin := lo.Must(lo.Coalesce(os.Getenv("SHELL"), "sh"))

	cmd := exec.Command(shellBin, "-c", script)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	return strings.TrimRight(string(output), "\n"), err
}
