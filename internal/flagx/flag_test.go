package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value kept",
			args:    []string{"-s", "secret", "-x", "1"},
			allowed: []string{"-s"},
			want:    []string{"-s", "secret"},
		},
		{
			name:    "equals form kept whole",
			args:    []string{"-i=30m", "-x=1"},
			allowed: []string{"-i"},
			want:    []string{"-i=30m"},
		},
		{
			name:    "order preserved across flags",
			args:    []string{"-a", ":8080", "-storage", "memory", "-d", "dsn"},
			allowed: []string{"-a", "-d"},
			want:    []string{"-a", ":8080", "-d", "dsn"},
		},
		{
			name:    "dangling flag without value",
			args:    []string{"-s"},
			allowed: []string{"-s"},
			want:    []string{"-s"},
		},
		{
			name:    "next flag is not consumed as value",
			args:    []string{"-s", "-rs", "other"},
			allowed: []string{"-s"},
			want:    []string{"-s"},
		},
		{
			name:    "positional arguments dropped",
			args:    []string{"sweep", "-d", "dsn"},
			allowed: []string{"-d"},
			want:    []string{"-d", "dsn"},
		},
		{
			name:    "empty input gives empty non-nil slice",
			args:    nil,
			allowed: []string{"-d"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.json", ConfigPath([]string{"-a", ":1", "-c", "a.json"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"-config=b.json"}))
	assert.Equal(t, "c.json", ConfigPath([]string{"--config", "c.json"}))
	assert.Equal(t, "", ConfigPath([]string{"-a", ":1"}))
}
