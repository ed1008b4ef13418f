package files

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrganize(t *testing.T) {
	obs := installObserver(t)

	src := t.TempDir()
	for _, name := range []string{"r1.jpg", "r2.jpg", "k1.png", "w1.jpeg"} {
		writeFile(t, filepath.Join(src, name), name)
	}

	req := OrganizeRequest{
		Directory:    src,
		OutputFolder: "QC_Output",
		RetouchFiles: []string{filepath.Join(src, "r1.jpg"), filepath.Join(src, "r2.jpg")},
		RetakeFiles:  []string{filepath.Join(src, "k1.png")},
		WrongFiles:   []string{filepath.Join(src, "w1.jpeg"), filepath.Join(src, "gone.jpg")},
	}

	result, err := Organize(context.Background(), req)
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}

	if result.Copied != 4 {
		t.Errorf("Copied = %d, want 4", result.Copied)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "gone.jpg") {
		t.Errorf("Errors = %v, want one error about gone.jpg", result.Errors)
	}

	want := "Files organized successfully: 4 files copied (2 Retouch, 1 Retake, 2 Wrong)"
	if got := result.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	entries, err := os.ReadDir(filepath.Join(src, "QC_Output"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"k1.png", "r1.jpg", "r2.jpg", "w1.jpeg"}, names); diff != "" {
		t.Errorf("output folder mismatch (-want +got):\n%s", diff)
	}

	data, _ := os.ReadFile(filepath.Join(src, "QC_Output", "r2.jpg"))
	if string(data) != "r2.jpg" {
		t.Errorf("copied content = %q", data)
	}

	if obs.copies[CategoryRetouch] != 2 || obs.copies[CategoryRetake] != 1 || obs.copies[CategoryWrong] != 1 {
		t.Errorf("observed copies = %v", obs.copies)
	}
	if obs.copyErrs[CategoryWrong] != 1 {
		t.Errorf("observed copy errors = %v", obs.copyErrs)
	}
}

func TestOrganizeSameNameLastListWins(t *testing.T) {
	for i := 0; i < 20; i++ {
		root := t.TempDir()
		for _, dir := range []string{"retouch", "retake", "wrong"} {
			writeFile(t, filepath.Join(root, dir, "dup.jpg"), dir)
		}

		result, err := Organize(context.Background(), OrganizeRequest{
			Directory:    root,
			OutputFolder: "out",
			RetouchFiles: []string{filepath.Join(root, "retouch", "dup.jpg")},
			RetakeFiles:  []string{filepath.Join(root, "retake", "dup.jpg")},
			WrongFiles:   []string{filepath.Join(root, "wrong", "dup.jpg")},
		})
		if err != nil {
			t.Fatalf("Organize() error = %v", err)
		}
		if result.Copied != 3 {
			t.Errorf("Copied = %d, want 3", result.Copied)
		}

		data, err := os.ReadFile(filepath.Join(root, "out", "dup.jpg"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "wrong" {
			t.Fatalf("run %d: out/dup.jpg = %q, want the wrong list's copy", i, data)
		}
	}
}

func TestOrganizeEmptyLists(t *testing.T) {
	src := t.TempDir()

	result, err := Organize(context.Background(), OrganizeRequest{Directory: src, OutputFolder: "out"})
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if got := result.Summary(); got != "Files organized successfully: 0 files copied (0 Retouch, 0 Retake, 0 Wrong)" {
		t.Errorf("Summary() = %q", got)
	}
	if !FileExists(filepath.Join(src, "out")) {
		t.Error("output folder not created")
	}
}

func TestOrganizeOutputFolderBlocked(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "out"), "a file, not a folder")

	if _, err := Organize(context.Background(), OrganizeRequest{Directory: src, OutputFolder: "out"}); err == nil {
		t.Error("Organize() error = nil, want failure creating output folder")
	}
}

func TestOrganizeCancelled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.jpg"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Organize(ctx, OrganizeRequest{
		Directory:    src,
		OutputFolder: "out",
		RetouchFiles: []string{filepath.Join(src, "a.jpg")},
	})
	if err == nil {
		t.Error("Organize() with cancelled context error = nil")
	}
}
