package filter

import (
	"errors"
	"slices"
	"testing"

	"github.com/jamesainslie/unipack/pkg/unipack/correlate"
)

var sample = []correlate.Record{
	{Path: "Assets/Scripts/Player.cs", Size: 2048},
	{Path: "Assets/Scripts/Editor/Tool.CS", Size: 512},
	{Path: "Assets/Textures/Bar.png", Size: 1 << 20},
	{Path: "Assets/Scenes/Main.unity", Size: 64 << 10},
	{Path: "Packages/manifest.json", Size: 300},
}

func paths(records []correlate.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}

func mustNew(t *testing.T, opts ...Option) *Filter {
	t.Helper()
	f, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestNewDefaults(t *testing.T) {
	f := mustNew(t)

	if !f.Empty() {
		t.Error("default filter should be empty")
	}
	if f.SortBy != SortPath || f.SortDescending {
		t.Errorf("sort = %v desc=%v, want path ascending", f.SortBy, f.SortDescending)
	}
	if got := f.Apply(sample); len(got) != len(sample) {
		t.Errorf("Apply() kept %d records, want %d", len(got), len(sample))
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(WithInclude("Assets/[")); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bad include: error = %v, want ErrInvalidPattern", err)
	}
	if _, err := New(WithExclude("{a,")); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bad exclude: error = %v, want ErrInvalidPattern", err)
	}
	if _, err := New(WithTypeGroups("spreadsheets")); !errors.Is(err, ErrUnknownTypeGroup) {
		t.Errorf("bad group: error = %v, want ErrUnknownTypeGroup", err)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{
			name: "single star stays in one segment",
			opts: []Option{WithInclude("Assets/Scripts/*")},
			want: []string{"Assets/Scripts/Player.cs"},
		},
		{
			name: "double star crosses segments",
			opts: []Option{WithInclude("Assets/Scripts/**")},
			want: []string{"Assets/Scripts/Player.cs", "Assets/Scripts/Editor/Tool.CS"},
		},
		{
			name: "exclude wins over include",
			opts: []Option{WithInclude("Assets/**"), WithExclude("**/Editor/**")},
			want: []string{"Assets/Scripts/Player.cs", "Assets/Textures/Bar.png", "Assets/Scenes/Main.unity"},
		},
		{
			name: "extensions are case-insensitive",
			opts: []Option{WithExtensions("cs")},
			want: []string{"Assets/Scripts/Player.cs", "Assets/Scripts/Editor/Tool.CS"},
		},
		{
			name: "type groups expand",
			opts: []Option{WithTypeGroups("texture", "scene")},
			want: []string{"Assets/Textures/Bar.png", "Assets/Scenes/Main.unity"},
		},
		{
			name: "size range",
			opts: []Option{WithSizeRange(1000, 100<<10)},
			want: []string{"Assets/Scripts/Player.cs", "Assets/Scenes/Main.unity"},
		},
		{
			name: "max depth",
			opts: []Option{WithMaxDepth(2)},
			want: []string{"Packages/manifest.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustNew(t, tt.opts...)
			got := f.Paths(sample)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Paths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplySortAndLimit(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{
			name: "path ascending",
			opts: []Option{WithLimit(2)},
			want: []string{"Assets/Scenes/Main.unity", "Assets/Scripts/Editor/Tool.CS"},
		},
		{
			name: "size descending",
			opts: []Option{WithSort(SortSize, true), WithLimit(3)},
			want: []string{"Assets/Textures/Bar.png", "Assets/Scenes/Main.unity", "Assets/Scripts/Player.cs"},
		},
		{
			name: "name ascending",
			opts: []Option{WithSort(SortName, false), WithLimit(2)},
			want: []string{"Assets/Textures/Bar.png", "Assets/Scenes/Main.unity"},
		},
		{
			name: "negative limit is unlimited",
			opts: []Option{WithLimit(-1), WithExtensions(".json")},
			want: []string{"Packages/manifest.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paths(mustNew(t, tt.opts...).Apply(sample))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortDoesNotMutate(t *testing.T) {
	in := slices.Clone(sample)
	_ = mustNew(t, WithSort(SortSize, false)).Sort(in)
	if !slices.Equal(paths(in), paths(sample)) {
		t.Error("Sort() modified its input")
	}
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		in      string
		want    SortField
		wantErr bool
	}{
		{in: "path", want: SortPath},
		{in: "SIZE", want: SortSize},
		{in: "Name", want: SortName},
		{in: "age", want: SortPath, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortField(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSortField(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSortField(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.want.String() {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}
