package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"filedepot/internal/storage"

	"github.com/stretchr/testify/require"
)

// takenSet builds an existence check over a fixed set of names.
func takenSet(names ...string) func(string) (bool, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) (bool, error) {
		return set[name], nil
	}
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		stem string
		ext  string
	}{
		{name: "report.pdf", stem: "report", ext: ".pdf"},
		{name: "archive.tar.gz", stem: "archive.tar", ext: ".gz"},
		{name: "README", stem: "README", ext: ""},
		{name: ".env", stem: ".env", ext: ""},
		{name: ".config.json", stem: ".config", ext: ".json"},
		{name: "trailing.", stem: "trailing", ext: "."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stem, ext := storage.SplitName(tc.name)
			require.Equal(t, tc.stem, stem, "stem")
			require.Equal(t, tc.ext, ext, "ext")
		})
	}
}

func TestUniqueNameFree(t *testing.T) {
	t.Parallel()

	got, err := storage.UniqueName("report.pdf", takenSet("other.pdf"))
	require.NoError(t, err)
	require.Equal(t, "report.pdf", got)
}

func TestUniqueNameCollisionSequence(t *testing.T) {
	t.Parallel()

	got, err := storage.UniqueName("report.pdf", takenSet("report.pdf"))
	require.NoError(t, err)
	require.Equal(t, "report (1).pdf", got)

	got, err = storage.UniqueName("report.pdf", takenSet("report.pdf", "report (1).pdf"))
	require.NoError(t, err)
	require.Equal(t, "report (2).pdf", got)
}

func TestUniqueNameReclaimsFreedCounter(t *testing.T) {
	t.Parallel()

	// "(1)" was deleted; probing restarts at 1 instead of continuing at 3.
	got, err := storage.UniqueName("x.txt", takenSet("x.txt", "x (2).txt"))
	require.NoError(t, err)
	require.Equal(t, "x (1).txt", got)
}

func TestUniqueNameWithoutExtension(t *testing.T) {
	t.Parallel()

	got, err := storage.UniqueName("README", takenSet("README"))
	require.NoError(t, err)
	require.Equal(t, "README (1)", got)

	got, err = storage.UniqueName(".env", takenSet(".env"))
	require.NoError(t, err)
	require.Equal(t, ".env (1)", got)
}

func TestUniqueNameExistsError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	_, err := storage.UniqueName("a.txt", func(string) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
}

func TestUniqueNameExhausted(t *testing.T) {
	t.Parallel()

	_, err := storage.UniqueName("a.txt", func(string) (bool, error) { return true, nil })
	require.ErrorIs(t, err, storage.ErrNoFreeName)
}

func TestUniqueNameNeverReturnsTakenName(t *testing.T) {
	t.Parallel()

	taken := []string{"a.txt"}
	for i := 1; i <= 25; i++ {
		taken = append(taken, fmt.Sprintf("a (%d).txt", i))
	}
	exists := takenSet(taken...)

	got, err := storage.UniqueName("a.txt", exists)
	require.NoError(t, err)

	isTaken, _ := exists(got)
	require.False(t, isTaken, "returned name %q is taken", got)
	require.Equal(t, "a (26).txt", got)
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "photo.png", want: "photo.png"},
		{in: `C:\Users\me\photo.png`, want: "photo.png"},
		{in: "/etc/passwd", want: "passwd"},
		{in: "  spaced.txt  ", want: "spaced.txt"},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
		{in: "dir/", wantErr: true},
		{in: "nul\x00byte", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%q", tc.in), func(t *testing.T) {
			got, err := storage.CleanName(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, storage.ErrInvalidName)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestValidateNameRejectsSeparators(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"../escape", `a\b`, "a/b", ".", ""} {
		require.ErrorIsf(t, storage.ValidateName(name), storage.ErrInvalidName, "name %q", name)
	}
	require.NoError(t, storage.ValidateName("report (1).pdf"))
}
