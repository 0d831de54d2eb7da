//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	conf := Default()
	require.NoError(t, conf.Validate())
	require.Equal(t, FormatConsole, conf.Format)
	require.Positive(t, conf.Workers)
	require.True(t, conf.SelectsMethod("%dflt.%dflt()", "%dflt"))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "arkcheck.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
log-level: debug
workers: 2
entry-methods: '^Foo\.'
skip-default-methods: true
format: sarif
report-file: out.sarif
`), 0o600))

	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", conf.LogLevel)
	require.Equal(t, 2, conf.Workers)
	require.Equal(t, FormatSARIF, conf.Format)
	require.Equal(t, "out.sarif", conf.ReportFile)
	// Options absent from the file keep their defaults.
	require.True(t, conf.GroupReports)

	require.True(t, conf.SelectsMethod("Foo.bar(p)", "bar"))
	require.False(t, conf.SelectsMethod("Baz.bar(p)", "bar"))
	require.False(t, conf.SelectsMethod("Foo.%dflt()", "%dflt"))
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "workers: [", wantErr: "parse config file"},
		{name: "bad level", content: "log-level: loud", wantErr: "log-level"},
		{name: "bad workers", content: "workers: 0", wantErr: "workers"},
		{name: "bad format", content: "format: html", wantErr: "format"},
		{name: "bad pattern", content: "entry-methods: '('", wantErr: "entry-methods"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, tt.name+".yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := Load(path)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSelectsMethod_Unvalidated(t *testing.T) {
	t.Parallel()

	conf := &Config{EntryMethods: "main"}
	require.True(t, conf.SelectsMethod("%dflt.main()", "main"))
	require.False(t, conf.SelectsMethod("Foo.bar()", "bar"))

	conf = &Config{EntryMethods: "("}
	require.False(t, conf.SelectsMethod("%dflt.main()", "main"))
}

func TestNewLogger(t *testing.T) {
	// Not parallel: the test sets an environment variable.
	conf := Default()
	conf.LogLevel = "warn"

	var buf bytes.Buffer
	logger := conf.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "arkcheck: shown: key=value")

	t.Setenv(LogLevelEnv, "debug")
	require.Equal(t, hclog.Debug, conf.NewLogger(&buf).GetLevel())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
