package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestRun(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"conf/app.properties":      "server.port=8080\nserver.host=localhost\n",
		"conf/app-prod.properties": "server.port=443\n",
		"conf/db.yaml":             "db:\n  url: postgres://db\n",
	})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "plain",
			args: []string{"--root", root, "--dir", "conf", "app.properties"},
			want: "server.host=localhost\nserver.port=8080\n",
		},
		{
			name: "cascade",
			args: []string{"--root", root, "--dir", "conf", "--cascade", "${env}", "--set", "env=prod", "app.properties", "db"},
			want: "db.url=postgres://db\nserver.host=localhost\nserver.port=443\n",
		},
		{
			name: "unresolved cascade",
			args: []string{"--root", root, "--dir", "conf", "--cascade", "${env}", "app"},
			want: "server.host=localhost\nserver.port=8080\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCommand(&out)
			cmd.SetArgs(tt.args)
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRun_YAML(t *testing.T) {
	root := writeFiles(t, map[string]string{"app.properties": "a.b=1\nc=two\n"})

	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs([]string{"--root", root, "--format", "yaml", "app.properties"})
	require.NoError(t, cmd.Execute())

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]string{"a.b": "1", "c": "two"}, got)
}

func TestRun_Errors(t *testing.T) {
	root := writeFiles(t, map[string]string{"bad.yaml": "x: [open\n"})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no resources", args: []string{"--root", root}, want: "requires at least 1 arg"},
		{name: "bad format", args: []string{"--root", root, "--format", "toml", "app"}, want: `unknown format "toml"`},
		{name: "parse error", args: []string{"--root", root, "bad.yaml"}, want: "unable to load configuration for bad.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCommand(&out)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, out.String())
		})
	}
}
