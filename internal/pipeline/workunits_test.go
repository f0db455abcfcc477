package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadWorkUnits(t *testing.T) {
	dir := t.TempDir()

	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    []string
		wantErr bool
	}{
		{
			"one genome per line",
			write("plain.txt", "G1\nG2\nG3\n"),
			[]string{"G1", "G2", "G3"},
			false,
		},
		{
			"blanks, comments and whitespace skipped",
			write("messy.txt", "\nG1\n\n# a comment\n  G2  \n"),
			[]string{"G1", "G2"},
			false,
		},
		{
			"duplicates dropped, order kept",
			write("dupes.txt", "G2\nG1\nG2\n"),
			[]string{"G2", "G1"},
			false,
		},
		{
			"empty list",
			write("empty.txt", "\n\n"),
			nil,
			true,
		},
		{
			"missing file",
			filepath.Join(dir, "nope.txt"),
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadWorkUnits(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadWorkUnits() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				var cerr *ConfigError
				if !errors.As(err, &cerr) {
					t.Errorf("ReadWorkUnits() error = %v, want a ConfigError", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadWorkUnits() = %v, want %v", got, tt.want)
			}
		})
	}
}
