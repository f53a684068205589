package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
	"github.com/jamesainslie/unipack/pkg/unipack/filter"
	"github.com/jamesainslie/unipack/pkg/unipack/output"
	"github.com/spf13/pflag"
)

func TestFilterFlagsBuild(t *testing.T) {
	tests := []struct {
		name           string
		flags          filterFlags
		wantSortBy     filter.SortField
		wantDescending bool
		wantLimit      int
		wantMin        int64
		wantMax        int64
		wantEmpty      bool
		wantErr        bool
	}{
		{
			name:       "zero value",
			wantSortBy: filter.SortPath,
			wantEmpty:  true,
		},
		{
			name:           "sort by size is largest first",
			flags:          filterFlags{sortBy: "size"},
			wantSortBy:     filter.SortSize,
			wantDescending: true,
			wantEmpty:      true,
		},
		{
			name:       "reverse size is smallest first",
			flags:      filterFlags{sortBy: "size", reverse: true},
			wantSortBy: filter.SortSize,
			wantEmpty:  true,
		},
		{
			name:           "reverse path",
			flags:          filterFlags{sortBy: "path", reverse: true},
			wantSortBy:     filter.SortPath,
			wantDescending: true,
			wantEmpty:      true,
		},
		{
			name:       "size range and limit",
			flags:      filterFlags{minSize: "1K", maxSize: "2M", limit: 10},
			wantSortBy: filter.SortPath,
			wantLimit:  10,
			wantMin:    1024,
			wantMax:    2 * 1024 * 1024,
		},
		{
			name:    "invalid min size",
			flags:   filterFlags{minSize: "lots"},
			wantErr: true,
		},
		{
			name:    "invalid sort field",
			flags:   filterFlags{sortBy: "age"},
			wantErr: true,
		},
		{
			name:    "unknown type group",
			flags:   filterFlags{fileTypes: "nope"},
			wantErr: true,
		},
		{
			name:    "invalid glob",
			flags:   filterFlags{include: "Assets/["},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.flags.build()
			if tt.wantErr {
				if err == nil {
					t.Fatal("build() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("build() error = %v", err)
			}
			if f.SortBy != tt.wantSortBy {
				t.Errorf("SortBy = %v, want %v", f.SortBy, tt.wantSortBy)
			}
			if f.SortDescending != tt.wantDescending {
				t.Errorf("SortDescending = %v, want %v", f.SortDescending, tt.wantDescending)
			}
			if f.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", f.Limit, tt.wantLimit)
			}
			if f.MinSize != tt.wantMin || f.MaxSize != tt.wantMax {
				t.Errorf("size range = [%d, %d], want [%d, %d]", f.MinSize, f.MaxSize, tt.wantMin, tt.wantMax)
			}
			if f.Empty() != tt.wantEmpty {
				t.Errorf("Empty() = %v, want %v", f.Empty(), tt.wantEmpty)
			}
		})
	}
}

func TestFilterFlagsRegister(t *testing.T) {
	var plain, ordered filterFlags
	fsPlain := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	fsOrdered := pflag.NewFlagSet("list", pflag.ContinueOnError)
	plain.register(fsPlain, false)
	ordered.register(fsOrdered, true)

	if fsPlain.Lookup("sort") != nil {
		t.Error("register(false) added --sort")
	}
	if fsOrdered.Lookup("sort") == nil || fsOrdered.Lookup("limit") == nil {
		t.Error("register(true) did not add ordering flags")
	}

	if err := fsOrdered.Parse([]string{"--ext", "cs, shader", "--sort", "size", "-r", "--max-depth", "3"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	f, err := ordered.build()
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	if !reflect.DeepEqual(f.Extensions, []string{".cs", ".shader"}) {
		t.Errorf("Extensions = %v", f.Extensions)
	}
	if f.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", f.MaxDepth)
	}
	if f.SortDescending {
		t.Error("reversed size sort should be ascending")
	}
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{" a , ,b ", []string{"a", "b"}},
		{",,", []string{}},
	}
	for _, tt := range tests {
		got := parseCommaSeparated(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommaSeparated(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestResolveSelection(t *testing.T) {
	records := []correlate.Record{
		{GUID: "1", Path: "Assets/Scripts/A.cs", Size: 10},
		{GUID: "2", Path: "Assets/Scripts/Editor/B.cs", Size: 2000},
		{GUID: "3", Path: "Assets/Textures/C.png", Size: 500},
		{GUID: "4", Path: "Assets/Readme.txt", Size: 1},
	}
	csOnly, err := filter.New(filter.WithExtensions("cs"))
	if err != nil {
		t.Fatal(err)
	}
	small, err := filter.New(filter.WithSizeRange(0, 100))
	if err != nil {
		t.Fatal(err)
	}
	none, err := filter.New()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		requested []string
		all       bool
		f         *filter.Filter
		want      []string
	}{
		{
			name: "all with extension filter",
			all:  true,
			f:    csOnly,
			want: []string{"Assets/Scripts/A.cs", "Assets/Scripts/Editor/B.cs"},
		},
		{
			name:      "subtree with size filter",
			requested: []string{"Assets/Scripts"},
			f:         small,
			want:      []string{"Assets/Scripts/A.cs"},
		},
		{
			name:      "subtree without filter",
			requested: []string{"Assets/Textures", "Assets/Readme.txt"},
			f:         none,
			want:      []string{"Assets/Readme.txt", "Assets/Textures/C.png"},
		},
		{
			name:      "nothing matches",
			requested: []string{"Assets/Missing"},
			f:         none,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveSelection(records, tt.requested, tt.all, tt.f)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolveSelection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectFormatter(t *testing.T) {
	f, err := selectFormatter("", "json", "")
	if err != nil {
		t.Fatalf("selectFormatter() error = %v", err)
	}
	if _, ok := f.(*output.JSONFormatter); !ok {
		t.Errorf("fallback format gave %T, want *output.JSONFormatter", f)
	}

	f, err = selectFormatter("plain", "json", "{{len .Files}}")
	if err != nil {
		t.Fatalf("selectFormatter() error = %v", err)
	}
	if _, ok := f.(*output.TemplateFormatter); !ok {
		t.Errorf("template gave %T, want *output.TemplateFormatter", f)
	}

	_, err = selectFormatter("nope", "", "")
	if err == nil || !strings.Contains(err.Error(), "available:") {
		t.Errorf("selectFormatter(nope) error = %v, want list of formats", err)
	}
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"workers":                 "UNIPACK_WORKERS",
		"cache.enabled":           "UNIPACK_CACHE_ENABLED",
		"manifest.retention_days": "UNIPACK_MANIFEST_RETENTION_DAYS",
	}
	for key, want := range tests {
		if got := envName(key); got != want {
			t.Errorf("envName(%q) = %q, want %q", key, got, want)
		}
	}

	t.Setenv("UNIPACK_WORKERS", "3")
	got := envOverrides([]string{"workers", "format"})
	if !reflect.DeepEqual(got, []string{"UNIPACK_WORKERS=3"}) {
		t.Errorf("envOverrides() = %v", got)
	}
}

func TestDiscoverPackage(t *testing.T) {
	touch := func(t *testing.T, path string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("none", func(t *testing.T) {
		_, err := discoverPackage(t.Context(), t.TempDir(), nil)
		if !errors.Is(err, errNoPackage) {
			t.Errorf("error = %v, want errNoPackage", err)
		}
	})

	t.Run("one", func(t *testing.T) {
		dir := t.TempDir()
		want := filepath.Join(dir, "sub", "Foo.unitypackage")
		touch(t, want)
		touch(t, filepath.Join(dir, "notes.txt"))

		got, err := discoverPackage(t.Context(), dir, nil)
		if err != nil {
			t.Fatalf("discoverPackage() error = %v", err)
		}
		if filepath.Base(got) != "Foo.unitypackage" {
			t.Errorf("discoverPackage() = %q, want %q", got, want)
		}
	})

	t.Run("excluded", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "Temp", "Foo.unitypackage"))
		_, err := discoverPackage(t.Context(), dir, []string{"**/Temp"})
		if !errors.Is(err, errNoPackage) {
			t.Errorf("error = %v, want errNoPackage", err)
		}
	})

	t.Run("several", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "A.unitypackage"))
		touch(t, filepath.Join(dir, "B.unitypackage"))
		_, err := discoverPackage(t.Context(), dir, nil)
		if err == nil || !strings.Contains(err.Error(), "found 2 packages") {
			t.Errorf("error = %v, want ambiguity error", err)
		}
	})
}
